package server

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/joseph-ayodele/invoice-tracker/constants"
	"github.com/joseph-ayodele/invoice-tracker/internal/async"
	"github.com/joseph-ayodele/invoice-tracker/internal/common"
	"github.com/joseph-ayodele/invoice-tracker/internal/repository"
)

const dateLayout = "2006-01-02"

// uploadInvoice stores the multipart "file", registers an invoice and queues it.
// With ?sync=true, or without a queue, the invoice is processed before responding.
func (s *Server) uploadInvoice(c *gin.Context) {
	fh, err := c.FormFile("file")
	if err != nil {
		s.abort(c, common.NewAppError("VALIDATION_ERROR", "multipart field 'file' is required", common.ErrValidation))
		return
	}
	if fh.Size > s.cfg.MaxUpload {
		s.abort(c, common.NewAppError("VALIDATION_ERROR", fmt.Sprintf("file exceeds %d bytes", s.cfg.MaxUpload), common.ErrValidation))
		return
	}
	name := filepath.Base(fh.Filename)
	if err := common.NewValidator().Field("file", name, common.Extension(constants.AllowedExtensions)).Error(); err != nil {
		s.abort(c, err)
		return
	}
	ext := constants.NormalizeExt(filepath.Ext(name))

	ctx := c.Request.Context()
	inv, err := s.cfg.Processor.Register(ctx, name)
	if err != nil {
		s.abort(c, err)
		return
	}

	if err := os.MkdirAll(s.cfg.UploadDir, 0o755); err != nil {
		s.abort(c, err)
		return
	}
	dst := filepath.Join(s.cfg.UploadDir, inv.ID.String()+"."+ext)
	if err := c.SaveUploadedFile(fh, dst); err != nil {
		s.abort(c, fmt.Errorf("save upload: %w", err))
		return
	}
	s.logger.Info("http.upload.stored", "invoice_id", inv.ID, "file_name", name, "bytes", fh.Size)

	if s.cfg.Queue == nil || c.Query("sync") == "true" {
		pctx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
		defer cancel()
		out, err := s.cfg.Processor.ProcessFile(pctx, inv.ID, dst)
		if out == nil {
			s.abort(c, err)
			return
		}
		// a failed extraction is still a stored invoice
		c.JSON(http.StatusOK, out)
		return
	}

	if err := s.cfg.Queue.Enqueue(ctx, async.Job{InvoiceID: inv.ID, Path: dst, SubmittedAt: time.Now()}); err != nil {
		s.abort(c, err)
		return
	}
	c.JSON(http.StatusAccepted, inv)
}

func (s *Server) listInvoices(c *gin.Context) {
	status := c.Query("status")
	limit, offset := queryInt(c, "limit", 50), queryInt(c, "offset", 0)

	v := common.NewValidator().
		Field("status", status, common.OneOf(constants.InvoiceStatuses...))
	if err := v.Error(); err != nil {
		s.abort(c, err)
		return
	}
	list, err := s.cfg.Invoices.List(c.Request.Context(), repository.ListFilter{
		Status: constants.InvoiceStatus(status),
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		s.abort(c, err)
		return
	}
	// the list view omits raw OCR text
	for _, inv := range list {
		inv.OCRText = ""
	}
	c.JSON(http.StatusOK, gin.H{"invoices": list, "count": len(list)})
}

func (s *Server) getInvoice(c *gin.Context) {
	id, ok := s.pathID(c)
	if !ok {
		return
	}
	inv, err := s.cfg.Invoices.Get(c.Request.Context(), id)
	if err != nil {
		s.abort(c, err)
		return
	}
	c.JSON(http.StatusOK, inv)
}

func (s *Server) invoiceLogs(c *gin.Context) {
	id, ok := s.pathID(c)
	if !ok {
		return
	}
	logs, err := s.cfg.Logs.ListByInvoice(c.Request.Context(), id)
	if err != nil {
		s.abort(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"logs": logs})
}

func (s *Server) reprocessInvoice(c *gin.Context) {
	id, ok := s.pathID(c)
	if !ok {
		return
	}
	matches, _ := filepath.Glob(filepath.Join(s.cfg.UploadDir, id.String()+".*"))
	if len(matches) == 0 {
		s.abort(c, common.NewAppError("NOT_FOUND", "stored file for invoice "+id.String(), common.ErrNotFound))
		return
	}
	ctx, cancel := context.WithTimeout(c.Request.Context(), s.cfg.Timeout)
	defer cancel()
	inv, err := s.cfg.Processor.Reprocess(ctx, id, matches[0])
	if inv == nil {
		s.abort(c, err)
		return
	}
	c.JSON(http.StatusOK, inv)
}

func (s *Server) recentLogs(c *gin.Context) {
	logs, err := s.cfg.Logs.ListRecent(c.Request.Context(), queryInt(c, "limit", 100))
	if err != nil {
		s.abort(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"logs": logs})
}

func (s *Server) exportXLSX(c *gin.Context) {
	status := c.Query("status")
	v := common.NewValidator().
		Field("status", status, common.OneOf(constants.InvoiceStatuses...)).
		Field("from", c.Query("from"), common.DateLayout(dateLayout)).
		Field("to", c.Query("to"), common.DateLayout(dateLayout))
	if err := v.Error(); err != nil {
		s.abort(c, err)
		return
	}
	from, to := queryDate(c, "from"), queryDate(c, "to")

	xlsx, err := s.cfg.Export.ExportInvoicesXLSX(c.Request.Context(),
		repository.ListFilter{Status: constants.InvoiceStatus(status)}, from, to)
	if err != nil {
		s.logger.Error("export.xlsx.failed", "error", err)
		s.abort(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="invoices.xlsx"`)
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", xlsx)
}

func (s *Server) pathID(c *gin.Context) (uuid.UUID, bool) {
	raw := strings.TrimSpace(c.Param("id"))
	if err := common.NewValidator().Field("id", raw, common.Required, common.UUID).Error(); err != nil {
		s.abort(c, err)
		return uuid.Nil, false
	}
	return uuid.MustParse(raw), true
}

func queryInt(c *gin.Context, key string, def int) int {
	v, err := strconv.Atoi(c.Query(key))
	if err != nil || v < 0 {
		return def
	}
	return v
}

// queryDate returns nil for absent or unparsable values; callers validate first.
func queryDate(c *gin.Context, key string) *time.Time {
	t, err := time.Parse(dateLayout, strings.TrimSpace(c.Query(key)))
	if err != nil {
		return nil
	}
	return &t
}
