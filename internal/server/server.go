// Package server exposes invoice upload, lookup and export over HTTP, plus a gRPC
// health endpoint.
package server

import (
	"context"
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/joseph-ayodele/invoice-tracker/internal/async"
	"github.com/joseph-ayodele/invoice-tracker/internal/common"
	"github.com/joseph-ayodele/invoice-tracker/internal/entity"
	"github.com/joseph-ayodele/invoice-tracker/internal/export"
	"github.com/joseph-ayodele/invoice-tracker/internal/repository"
)

// Processor is the part of core.Processor the handlers drive.
type Processor interface {
	Register(ctx context.Context, fileName string) (*entity.Invoice, error)
	ProcessFile(ctx context.Context, invoiceID uuid.UUID, path string) (*entity.Invoice, error)
	Reprocess(ctx context.Context, id uuid.UUID, path string) (*entity.Invoice, error)
}

// Config holds the HTTP handler dependencies.
type Config struct {
	Processor Processor
	Queue     async.Queue // nil processes uploads inline
	Invoices  repository.InvoiceRepository
	Logs      repository.LogRepository
	Export    *export.Service
	UploadDir string
	MaxUpload int64 // bytes; default 25 MiB
	Timeout   time.Duration
}

type Server struct {
	cfg    Config
	logger *slog.Logger
}

func New(cfg Config, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.MaxUpload <= 0 {
		cfg.MaxUpload = 25 << 20
	}
	if cfg.UploadDir == "" {
		cfg.UploadDir = "./uploads"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 3 * time.Minute
	}
	return &Server{cfg: cfg, logger: logger}
}

// Router builds the gin engine with every route registered.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), s.requestLogger())
	r.MaxMultipartMemory = s.cfg.MaxUpload

	r.GET("/healthz", s.health)

	inv := r.Group("/invoices")
	inv.POST("", s.uploadInvoice)
	inv.GET("", s.listInvoices)
	inv.GET("/:id", s.getInvoice)
	inv.GET("/:id/logs", s.invoiceLogs)
	inv.POST("/:id/reprocess", s.reprocessInvoice)

	r.GET("/logs", s.recentLogs)
	r.GET("/export.xlsx", s.exportXLSX)
	return r
}

func (s *Server) health(c *gin.Context) {
	body := gin.H{"status": "ok"}
	if sr, ok := s.cfg.Queue.(async.StatsReporter); ok {
		body["queue"] = sr.Stats()
	}
	c.JSON(200, body)
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		rid := c.GetHeader("X-Request-ID")
		if rid == "" {
			rid = uuid.NewString()
		}
		c.Header("X-Request-ID", rid)
		c.Request = c.Request.WithContext(common.WithRequestID(c.Request.Context(), rid))
		c.Next()
		s.logger.Info("http.request",
			"req_id", common.RequestIDFromContext(c.Request.Context()),
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"duration_ms", time.Since(start).Milliseconds(),
		)
	}
}
