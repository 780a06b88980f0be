package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/peterbourgon/ff/v4"
	"github.com/peterbourgon/ff/v4/ffhelp"

	"github.com/joseph-ayodele/invoice-tracker/constants"
	"github.com/joseph-ayodele/invoice-tracker/internal/app"
	"github.com/joseph-ayodele/invoice-tracker/internal/async"
	"github.com/joseph-ayodele/invoice-tracker/internal/common"
	"github.com/joseph-ayodele/invoice-tracker/internal/ingest"
	"github.com/joseph-ayodele/invoice-tracker/internal/repository"
)

const inMemoryDSN = "file:invoices?mode=memory&cache=shared&_pragma=foreign_keys(1)"

// printError prints an error message to stderr, falling back to stdout if stderr fails
func printError(format string, args ...interface{}) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		fmt.Printf(format, args...)
	}
}

func main() {
	if err := common.LoadDotEnv(); err != nil {
		printError("Error: %v\n", err)
		os.Exit(1)
	}
	cfg := common.LoadConfig()

	fs := ff.NewFlagSet("invoice-batch")
	var (
		inmem     = fs.BoolLong("inmem", "use an in-memory SQLite database")
		dir       = fs.StringLong("dir", "", "directory to process invoices from (required)")
		out       = fs.StringLong("out", "", "output XLSX file path (defaults to the parent of --dir)")
		fromStr   = fs.StringLong("from", "", "from upload date YYYY-MM-DD")
		toStr     = fs.StringLong("to", "", "to upload date YYYY-MM-DD")
		workers   = fs.IntLong("workers", cfg.Queue.Workers, "processing workers")
		logFormat = fs.StringLong("log-format", "json", "log format: text or json")
	)
	if err := ff.Parse(fs, os.Args[1:], ff.WithEnvVarPrefix("INVOICES")); err != nil {
		printError("%s\n", ffhelp.Flags(fs))
		printError("Error: %v\n", err)
		os.Exit(1)
	}
	if *dir == "" {
		printError("Error: --dir is required\n")
		os.Exit(1)
	}
	if *out == "" {
		*out = filepath.Join(filepath.Dir(filepath.Clean(*dir)), "invoices.xlsx")
	}

	var from, to *time.Time
	for _, d := range []struct {
		raw  string
		flag string
		dst  **time.Time
	}{{*fromStr, "--from", &from}, {*toStr, "--to", &to}} {
		if d.raw == "" {
			continue
		}
		parsed, err := time.Parse("2006-01-02", d.raw)
		if err != nil {
			printError("Error: invalid %s date format, use YYYY-MM-DD: %v\n", d.flag, err)
			os.Exit(1)
		}
		*d.dst = &parsed
	}

	logger := common.NewLogger(os.Stdout, *logFormat, os.Getenv("LOG_LEVEL"))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *inmem {
		cfg.Database.Driver = "sqlite"
		cfg.Database.DSN = inMemoryDSN
	}
	a, err := app.Build(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to initialize", "error", err)
		os.Exit(1)
	}
	defer a.Close()

	queue := async.NewProcessorQueue(a.Processor, logger,
		async.WithWorkers(*workers),
		async.WithQueueSize(cfg.Queue.Size),
		async.WithProcessTimeout(cfg.Queue.ProcessTimeout),
	)
	ingestor := ingest.NewFSIngestor(a.Processor, queue, logger)

	logger.Info("starting ingestion", "dir", *dir)
	results, stats, err := ingestor.IngestDirectory(ctx, *dir, true)
	if err != nil {
		logger.Error("failed to ingest directory", "error", err)
		os.Exit(1)
	}
	for _, r := range results {
		if r.Err != nil {
			logger.Warn("file skipped", "path", r.SourcePath, "error", r.Err)
		}
	}

	// wait for every queued invoice to finish
	queue.Shutdown(ctx)
	qs := queue.Stats()

	completed, err := a.Store.Invoices.List(ctx, repository.ListFilter{Status: constants.StatusCompleted})
	if err != nil {
		logger.Error("failed to list invoices", "error", err)
		os.Exit(1)
	}
	failed, err := a.Store.Invoices.List(ctx, repository.ListFilter{Status: constants.StatusFailed})
	if err != nil {
		logger.Error("failed to list invoices", "error", err)
		os.Exit(1)
	}

	logger.Info("exporting to XLSX", "output", *out)
	xlsxBytes, err := a.Export.ExportInvoicesXLSX(ctx, repository.ListFilter{}, from, to)
	if err != nil {
		logger.Error("failed to export invoices", "error", err)
		os.Exit(1)
	}
	if err := os.WriteFile(*out, xlsxBytes, 0644); err != nil {
		logger.Error("failed to write output file", "error", err)
		os.Exit(1)
	}

	logger.Info("batch processing complete",
		"scanned", stats.Scanned,
		"matched", stats.Matched,
		"deduplicated", stats.Deduplicated,
		"completed", len(completed),
		"failed", len(failed),
		"run_completed", qs.Completed,
		"run_failed", qs.Failed,
		"output_file", *out)

	fmt.Printf("Batch processing complete!\n")
	fmt.Printf("- Files queued: %d\n", stats.Queued())
	fmt.Printf("- Processed this run: %d (%d failed)\n", qs.Completed+qs.Failed, qs.Failed)
	fmt.Printf("- Completed: %d\n", len(completed))
	fmt.Printf("- Failed: %d\n", len(failed))
	fmt.Printf("- Output: %s\n", *out)
}
