package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/peterbourgon/ff/v4"
	"github.com/peterbourgon/ff/v4/ffhelp"

	"github.com/joseph-ayodele/invoice-tracker/internal/app"
	"github.com/joseph-ayodele/invoice-tracker/internal/async"
	"github.com/joseph-ayodele/invoice-tracker/internal/common"
	"github.com/joseph-ayodele/invoice-tracker/internal/ingest"
	"github.com/joseph-ayodele/invoice-tracker/internal/server"
)

func main() {
	if err := common.LoadDotEnv(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	cfg := common.LoadConfig()

	fs := ff.NewFlagSet("invoicesd")
	var (
		httpAddr  = fs.StringLong("http-addr", cfg.Server.HTTPAddr, "HTTP listen address")
		grpcAddr  = fs.StringLong("grpc-addr", cfg.Server.GRPCAddr, "gRPC health listen address (empty disables)")
		uploadDir = fs.StringLong("upload-dir", "./uploads", "directory for uploaded invoice files")
		watchDirs = fs.StringLong("watch", strings.Join(cfg.Server.WatchDirs, ","), "comma-separated directories to watch for new invoices")
		dbDriver  = fs.StringLong("db-driver", cfg.Database.Driver, "storage backend: sqlite, postgres or bolt")
		workers   = fs.IntLong("workers", cfg.Queue.Workers, "processing workers")
		logLevel  = fs.StringLong("log-level", "info", "log level: debug, info, warn, error")
		logFormat = fs.StringLong("log-format", "text", "log format: text or json")
	)
	if err := ff.Parse(fs, os.Args[1:], ff.WithEnvVarPrefix("INVOICES")); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", ffhelp.Flags(fs))
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	cfg.Server.HTTPAddr = *httpAddr
	cfg.Server.GRPCAddr = *grpcAddr
	cfg.Database.Driver = *dbDriver
	cfg.Queue.Workers = *workers
	cfg.Server.WatchDirs = splitList(*watchDirs)

	logger := common.NewLogger(os.Stdout, *logFormat, *logLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.Build(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to start", "error", err)
		os.Exit(1)
	}
	defer a.Close()

	if err := a.Store.HealthCheck(ctx); err != nil {
		logger.Error("failed to ping database", "error", err)
		os.Exit(1)
	}

	queue := async.NewProcessorQueue(a.Processor, logger,
		async.WithWorkers(cfg.Queue.Workers),
		async.WithQueueSize(cfg.Queue.Size),
		async.WithProcessTimeout(cfg.Queue.ProcessTimeout),
	)

	if len(cfg.Server.WatchDirs) > 0 {
		ingestor := ingest.NewFSIngestor(a.Processor, queue, logger)
		go func() {
			err := ingest.Watch(ctx, ingestor, ingest.WatchConfig{
				Roots:       cfg.Server.WatchDirs,
				InitialScan: true,
				Debounce:    500 * time.Millisecond,
				Logger:      logger,
			})
			if err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("watcher stopped", "error", err)
			}
		}()
	}

	gin.SetMode(gin.ReleaseMode)
	srv := server.New(server.Config{
		Processor: a.Processor,
		Queue:     queue,
		Invoices:  a.Store.Invoices,
		Logs:      a.Store.Logs,
		Export:    a.Export,
		UploadDir: *uploadDir,
		Timeout:   cfg.Queue.ProcessTimeout,
	}, logger)
	httpServer := &http.Server{
		Addr:              cfg.Server.HTTPAddr,
		Handler:           srv.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logger.Info("invoicesd http listening", "addr", cfg.Server.HTTPAddr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http serve failed", "error", err)
			stop()
		}
	}()

	if cfg.Server.GRPCAddr != "" {
		lis, err := net.Listen("tcp", cfg.Server.GRPCAddr)
		if err != nil {
			logger.Error("failed to listen on address", "addr", cfg.Server.GRPCAddr, "error", err)
			os.Exit(1)
		}
		grpcServer := server.NewGRPCServer(ctx, a.Store.HealthCheck, 15*time.Second, logger)
		go func() {
			logger.Info("invoicesd grpc health listening", "addr", cfg.Server.GRPCAddr)
			if err := grpcServer.Serve(lis); err != nil {
				logger.Error("grpc serve failed", "error", err)
			}
		}()
		defer grpcServer.GracefulStop()
	}

	<-ctx.Done()
	logger.Info("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn("http shutdown", "error", err)
	}
	queue.Shutdown(shutdownCtx)
	logger.Info("stopped")
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
