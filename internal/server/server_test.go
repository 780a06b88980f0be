package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/joseph-ayodele/invoice-tracker/constants"
	"github.com/joseph-ayodele/invoice-tracker/internal/async"
	"github.com/joseph-ayodele/invoice-tracker/internal/entity"
	"github.com/joseph-ayodele/invoice-tracker/internal/export"
	"github.com/joseph-ayodele/invoice-tracker/internal/repository"
)

var _ = Describe("Server", func() {
	var (
		ctx       context.Context
		store     *repository.Store
		processor *mockProcessor
		queue     *mockQueue
		cfg       Config
		router    *gin.Engine
	)

	do := func(req *http.Request) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		return rec
	}

	get := func(target string) *httptest.ResponseRecorder {
		return do(httptest.NewRequest(http.MethodGet, target, nil))
	}

	decode := func(rec *httptest.ResponseRecorder, v any) {
		Expect(json.Unmarshal(rec.Body.Bytes(), v)).To(Succeed())
	}

	BeforeEach(func() {
		ctx = context.Background()
		store = openStore()
		processor = &mockProcessor{invoices: store.Invoices}
		queue = &mockQueue{}
		cfg = Config{
			Processor: processor,
			Queue:     queue,
			Invoices:  store.Invoices,
			Logs:      store.Logs,
			Export:    export.NewService(store.Invoices, nil),
			UploadDir: GinkgoT().TempDir(),
		}
	})

	JustBeforeEach(func() {
		router = New(cfg, nil).Router()
	})

	It("answers the health check with a request id", func() {
		rec := get("/healthz")
		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(rec.Header().Get("X-Request-ID")).NotTo(BeEmpty())
	})

	It("reports queue stats on the health check", func() {
		queue.jobs = append(queue.jobs, async.Job{InvoiceID: uuid.New()})
		var body struct {
			Status string      `json:"status"`
			Queue  async.Stats `json:"queue"`
		}
		decode(get("/healthz"), &body)
		Expect(body.Status).To(Equal("ok"))
		Expect(body.Queue.Workers).To(Equal(1))
		Expect(body.Queue.Pending).To(Equal(1))
	})

	It("omits queue stats when uploads run inline", func() {
		cfg.Queue = nil
		router = New(cfg, nil).Router()
		var body map[string]any
		decode(get("/healthz"), &body)
		Expect(body).NotTo(HaveKey("queue"))
	})

	It("echoes a caller supplied request id", func() {
		req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
		req.Header.Set("X-Request-ID", "req-123")
		Expect(do(req).Header().Get("X-Request-ID")).To(Equal("req-123"))
	})

	Describe("POST /invoices", func() {
		It("stores the file and queues it", func() {
			rec := do(uploadRequest("/invoices", "acme.pdf", []byte("%PDF-1.4")))
			Expect(rec.Code).To(Equal(http.StatusAccepted))

			var inv entity.Invoice
			decode(rec, &inv)
			Expect(inv.FileName).To(Equal("acme.pdf"))
			Expect(inv.Status).To(Equal(constants.StatusProcessing))

			Expect(queue.jobs).To(HaveLen(1))
			Expect(queue.jobs[0].InvoiceID).To(Equal(inv.ID))
			Expect(queue.jobs[0].Path).To(Equal(filepath.Join(cfg.UploadDir, inv.ID.String()+".pdf")))
			Expect(os.ReadFile(queue.jobs[0].Path)).To(Equal([]byte("%PDF-1.4")))
		})

		It("processes inline when asked", func() {
			rec := do(uploadRequest("/invoices?sync=true", "scan.PNG", []byte("png")))
			Expect(rec.Code).To(Equal(http.StatusOK))

			var inv entity.Invoice
			decode(rec, &inv)
			Expect(inv.Status).To(Equal(constants.StatusCompleted))
			Expect(inv.ExtractedFields.InvoiceNumber).To(Equal("INV-1"))
			Expect(queue.jobs).To(BeEmpty())
			Expect(processor.processed()).To(HaveLen(1))
		})

		When("processing fails inline", func() {
			BeforeEach(func() {
				processor.fail = true
				cfg.Queue = nil
			})

			It("still returns the stored failed invoice", func() {
				rec := do(uploadRequest("/invoices", "blank.txt", []byte(" ")))
				Expect(rec.Code).To(Equal(http.StatusOK))

				var inv entity.Invoice
				decode(rec, &inv)
				Expect(inv.Status).To(Equal(constants.StatusFailed))
				Expect(inv.ErrorMessage).To(Equal("no text could be extracted"))
			})
		})

		It("requires the file field", func() {
			req := httptest.NewRequest(http.MethodPost, "/invoices", nil)
			rec := do(req)
			Expect(rec.Code).To(Equal(http.StatusBadRequest))

			var body map[string]string
			decode(rec, &body)
			Expect(body["code"]).To(Equal("VALIDATION_ERROR"))
		})

		It("rejects unsupported file types", func() {
			rec := do(uploadRequest("/invoices", "notes.docx", []byte("x")))
			Expect(rec.Code).To(Equal(http.StatusBadRequest))
			Expect(rec.Body.String()).To(ContainSubstring("unsupported file type"))
		})

		When("the upload is too large", func() {
			BeforeEach(func() {
				cfg.MaxUpload = 4
			})

			It("rejects it", func() {
				rec := do(uploadRequest("/invoices", "big.pdf", []byte("0123456789")))
				Expect(rec.Code).To(Equal(http.StatusBadRequest))
				Expect(rec.Body.String()).To(ContainSubstring("exceeds 4 bytes"))
			})
		})

		When("the queue is shutting down", func() {
			BeforeEach(func() {
				queue.err = async.ErrQueueClosed
			})

			It("returns service unavailable", func() {
				rec := do(uploadRequest("/invoices", "acme.pdf", []byte("%PDF")))
				Expect(rec.Code).To(Equal(http.StatusServiceUnavailable))
			})
		})
	})

	Describe("reading invoices", func() {
		var done, pending *entity.Invoice

		BeforeEach(func() {
			base := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)
			pending = &entity.Invoice{FileName: "pending.pdf", UploadDate: base}
			Expect(store.Invoices.Create(ctx, pending)).To(Succeed())
			done = &entity.Invoice{FileName: "done.pdf", UploadDate: base.Add(24 * time.Hour)}
			Expect(store.Invoices.Create(ctx, done)).To(Succeed())
			done.Status = constants.StatusCompleted
			done.OCRText = "secret ocr text"
			Expect(store.Invoices.Update(ctx, done)).To(Succeed())

			Expect(store.Logs.Append(ctx, &entity.ProcessingLog{Message: "Invoice uploaded", Timestamp: base, InvoiceID: &done.ID})).To(Succeed())
			Expect(store.Logs.Append(ctx, &entity.ProcessingLog{Message: "Processing completed", Type: constants.LogSuccess, Timestamp: base.Add(time.Second), InvoiceID: &done.ID})).To(Succeed())
		})

		It("lists newest first without OCR text", func() {
			rec := get("/invoices")
			Expect(rec.Code).To(Equal(http.StatusOK))

			var body struct {
				Invoices []entity.Invoice `json:"invoices"`
				Count    int              `json:"count"`
			}
			decode(rec, &body)
			Expect(body.Count).To(Equal(2))
			Expect(body.Invoices[0].FileName).To(Equal("done.pdf"))
			Expect(body.Invoices[0].OCRText).To(BeEmpty())
		})

		It("filters by status", func() {
			var body struct {
				Invoices []entity.Invoice `json:"invoices"`
			}
			decode(get("/invoices?status=processing"), &body)
			Expect(body.Invoices).To(HaveLen(1))
			Expect(body.Invoices[0].ID).To(Equal(pending.ID))
		})

		It("rejects unknown statuses", func() {
			Expect(get("/invoices?status=archived").Code).To(Equal(http.StatusBadRequest))
		})

		It("returns one invoice with its OCR text", func() {
			rec := get("/invoices/" + done.ID.String())
			Expect(rec.Code).To(Equal(http.StatusOK))

			var inv entity.Invoice
			decode(rec, &inv)
			Expect(inv.OCRText).To(Equal("secret ocr text"))
		})

		It("maps unknown and malformed ids", func() {
			Expect(get("/invoices/" + uuid.NewString()).Code).To(Equal(http.StatusNotFound))
			Expect(get("/invoices/not-a-uuid").Code).To(Equal(http.StatusBadRequest))
		})

		It("returns an invoice's log trail oldest first", func() {
			var body struct {
				Logs []entity.ProcessingLog `json:"logs"`
			}
			decode(get("/invoices/"+done.ID.String()+"/logs"), &body)
			Expect(body.Logs).To(HaveLen(2))
			Expect(body.Logs[0].Message).To(Equal("Invoice uploaded"))
			Expect(body.Logs[1].Type).To(Equal(constants.LogSuccess))
		})

		It("returns recent logs across invoices", func() {
			var body struct {
				Logs []entity.ProcessingLog `json:"logs"`
			}
			decode(get("/logs?limit=1"), &body)
			Expect(body.Logs).To(HaveLen(1))
		})
	})

	Describe("POST /invoices/:id/reprocess", func() {
		It("reruns extraction on the stored file", func() {
			inv := &entity.Invoice{FileName: "acme.pdf"}
			Expect(store.Invoices.Create(ctx, inv)).To(Succeed())
			stored := filepath.Join(cfg.UploadDir, inv.ID.String()+".pdf")
			Expect(os.WriteFile(stored, []byte("%PDF"), 0o644)).To(Succeed())

			rec := do(httptest.NewRequest(http.MethodPost, "/invoices/"+inv.ID.String()+"/reprocess", nil))
			Expect(rec.Code).To(Equal(http.StatusOK))
			Expect(processor.processed()).To(Equal([]string{stored}))
		})

		It("returns not found without a stored file", func() {
			rec := do(httptest.NewRequest(http.MethodPost, "/invoices/"+uuid.NewString()+"/reprocess", nil))
			Expect(rec.Code).To(Equal(http.StatusNotFound))
		})
	})

	Describe("GET /export.xlsx", func() {
		It("serves a workbook attachment", func() {
			Expect(store.Invoices.Create(ctx, &entity.Invoice{FileName: "a.pdf"})).To(Succeed())

			rec := get("/export.xlsx?from=2020-01-01")
			Expect(rec.Code).To(Equal(http.StatusOK))
			Expect(rec.Header().Get("Content-Disposition")).To(ContainSubstring("invoices.xlsx"))
			Expect(rec.Body.Bytes()[:2]).To(Equal([]byte("PK")))
		})

		It("validates the date range", func() {
			rec := get("/export.xlsx?from=01/02/2024&to=soon")
			Expect(rec.Code).To(Equal(http.StatusBadRequest))
			Expect(rec.Body.String()).To(ContainSubstring("from must be a date"))
			Expect(rec.Body.String()).To(ContainSubstring("to must be a date"))
		})
	})
})
