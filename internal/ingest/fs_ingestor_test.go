package ingest

import (
	"context"
	"errors"
	"path/filepath"

	"github.com/google/uuid"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/joseph-ayodele/invoice-tracker/constants"
	"github.com/joseph-ayodele/invoice-tracker/internal/async"
)

var _ = Describe("FSIngestor", func() {
	var (
		ctx       context.Context
		dir       string
		registrar *mockRegistrar
		queue     *mockQueue
		ingestor  *FSIngestor
	)

	BeforeEach(func() {
		ctx = context.Background()
		dir = GinkgoT().TempDir()
		registrar = &mockRegistrar{}
		queue = &mockQueue{}
	})

	JustBeforeEach(func() {
		ingestor = NewFSIngestor(registrar, queue, nil)
	})

	Describe("IngestPath", func() {
		It("registers and queues a supported file", func() {
			path := writeFile(dir, "Invoice.PDF", "%PDF-1.4")

			res, err := ingestor.IngestPath(ctx, path)
			Expect(err).NotTo(HaveOccurred())
			Expect(res.SourcePath).To(Equal(path))
			Expect(res.Format).To(Equal(constants.PDF))
			Expect(res.SHA256).To(HaveLen(64))
			Expect(res.Deduplicated).To(BeFalse())
			Expect(res.QueuedAt).NotTo(BeZero())

			Expect(registrar.registered()).To(Equal([]string{"Invoice.PDF"}))
			jobs := queue.queued()
			Expect(jobs).To(HaveLen(1))
			Expect(jobs[0].InvoiceID).To(Equal(res.InvoiceID))
			Expect(jobs[0].Path).To(Equal(path))
		})

		It("reports identical content as deduplicated", func() {
			first, err := ingestor.IngestPath(ctx, writeFile(dir, "a.txt", "Invoice #1"))
			Expect(err).NotTo(HaveOccurred())

			second, err := ingestor.IngestPath(ctx, writeFile(dir, "copy.txt", "Invoice #1"))
			Expect(err).NotTo(HaveOccurred())
			Expect(second.Deduplicated).To(BeTrue())
			Expect(second.InvoiceID).To(Equal(first.InvoiceID))
			Expect(registrar.registered()).To(HaveLen(1))
			Expect(queue.queued()).To(HaveLen(1))
		})

		It("rejects unsupported extensions", func() {
			_, err := ingestor.IngestPath(ctx, writeFile(dir, "notes.docx", "x"))
			Expect(err).To(MatchError(ContainSubstring("unsupported")))
			Expect(registrar.registered()).To(BeEmpty())
		})

		It("fails for missing files", func() {
			_, err := ingestor.IngestPath(ctx, filepath.Join(dir, "missing.pdf"))
			Expect(err).To(HaveOccurred())
		})

		When("the queue is closed", func() {
			BeforeEach(func() {
				queue.err = async.ErrQueueClosed
			})

			It("returns the registered invoice id with the error", func() {
				res, err := ingestor.IngestPath(ctx, writeFile(dir, "a.png", "png"))
				Expect(err).To(MatchError(async.ErrQueueClosed))
				Expect(res.InvoiceID).NotTo(Equal(uuid.Nil))
			})
		})

		When("registration fails", func() {
			BeforeEach(func() {
				registrar.err = errors.New("mock register")
			})

			It("does not queue", func() {
				_, err := ingestor.IngestPath(ctx, writeFile(dir, "a.png", "png"))
				Expect(err).To(MatchError("mock register"))
				Expect(queue.queued()).To(BeEmpty())
			})
		})
	})

	Describe("IngestDirectory", func() {
		It("walks the tree and aggregates stats", func() {
			writeFile(dir, "a.pdf", "one")
			writeFile(dir, "nested/b.jpg", "two")
			writeFile(dir, "nested/dup.txt", "one")
			writeFile(dir, "readme.md", "skip")
			writeFile(dir, ".hidden/c.pdf", "three")
			writeFile(dir, ".d.pdf", "four")

			results, stats, err := ingestor.IngestDirectory(ctx, dir, true)
			Expect(err).NotTo(HaveOccurred())
			Expect(results).To(HaveLen(3))
			Expect(stats.Matched).To(BeEquivalentTo(3))
			Expect(stats.Succeeded).To(BeEquivalentTo(3))
			Expect(stats.Deduplicated).To(BeEquivalentTo(1))
			Expect(stats.Failed).To(BeZero())
			Expect(stats.Queued()).To(BeEquivalentTo(2))
			Expect(registrar.registered()).To(ConsistOf("a.pdf", "b.jpg"))
		})

		It("includes hidden entries when asked", func() {
			writeFile(dir, ".hidden/c.pdf", "three")

			_, stats, err := ingestor.IngestDirectory(ctx, dir, false)
			Expect(err).NotTo(HaveOccurred())
			Expect(stats.Succeeded).To(BeEquivalentTo(1))
		})

		It("records per-file failures without stopping", func() {
			registrar.err = errors.New("mock register")
			writeFile(dir, "a.pdf", "one")

			results, stats, err := ingestor.IngestDirectory(ctx, dir, true)
			Expect(err).NotTo(HaveOccurred())
			Expect(stats.Failed).To(BeEquivalentTo(1))
			Expect(results[0].Err).To(MatchError("mock register"))
		})

		It("requires a root", func() {
			_, _, err := ingestor.IngestDirectory(ctx, "  ", true)
			Expect(err).To(MatchError("root path is required"))
		})

		It("stops when the context is cancelled", func() {
			writeFile(dir, "a.pdf", "one")
			cancelled, cancel := context.WithCancel(ctx)
			cancel()

			_, _, err := ingestor.IngestDirectory(cancelled, dir, true)
			Expect(err).To(MatchError(context.Canceled))
		})
	})
})
