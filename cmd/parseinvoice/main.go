package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/peterbourgon/ff/v4"
	"github.com/peterbourgon/ff/v4/ffhelp"

	"github.com/joseph-ayodele/invoice-tracker/internal/common"
	"github.com/joseph-ayodele/invoice-tracker/internal/confidence"
	"github.com/joseph-ayodele/invoice-tracker/internal/core"
	"github.com/joseph-ayodele/invoice-tracker/internal/llm/providers"
	"github.com/joseph-ayodele/invoice-tracker/internal/ocr"
	"github.com/joseph-ayodele/invoice-tracker/internal/parse"
)

// parseinvoice runs acquisition and extraction on one file without touching storage
// and prints the result as JSON.
func main() {
	if err := common.LoadDotEnv(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	cfg := common.LoadConfig()

	fs := ff.NewFlagSet("parseinvoice")
	var (
		strategy = fs.StringLong("ocr", cfg.OCR.Strategy, "acquisition strategy: local, ocrspace, azure or chain")
		useAI    = fs.BoolLong("ai", "run AI enhancement with the configured provider")
		showText = fs.BoolLong("text", "include the acquired text in the output")
		timeout  = fs.DurationLong("timeout", 2*time.Minute, "overall timeout")
	)
	if err := ff.Parse(fs, os.Args[1:], ff.WithEnvVarPrefix("INVOICES")); err != nil || len(fs.GetArgs()) != 1 {
		fmt.Fprintf(os.Stderr, "usage: parseinvoice [flags] <file>\n%s\n", ffhelp.Flags(fs))
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
		}
		os.Exit(2)
	}
	path := fs.GetArgs()[0]
	cfg.OCR.Strategy = *strategy

	logger := common.NewLogger(os.Stderr, "text", os.Getenv("LOG_LEVEL"))

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	acquirer, err := ocr.New(cfg.OCR, logger)
	if err != nil {
		logger.Error("ocr setup", "error", err)
		os.Exit(1)
	}
	res, err := acquirer.Acquire(ctx, path)
	if err != nil {
		logger.Error("text acquisition failed", "path", path, "error", err)
		os.Exit(1)
	}

	fields := parse.NewParser(logger).Parse(res.Text)
	conf := confidence.Heuristic(fields)
	enhanced := false
	if *useAI {
		enhancer := providers.NewEnhancer(ctx, cfg.AI, logger)
		if core.ShouldEnhance(enhancer.Provider(), res.Metadata, conf) {
			imageOnly := res.Metadata != nil && res.Metadata.IsImageOnlyPDF
			ai, err := enhancer.Enhance(ctx, res.Text, imageOnly)
			if err != nil {
				logger.Warn("ai enhancement failed", "error", err)
			} else if ai != nil {
				fields = core.Merge(fields, ai)
				enhanced = true
			}
		}
	}
	var upstream *int
	if res.Metadata != nil {
		upstream = &res.Metadata.Confidence
	}
	conf = confidence.Score(fields, upstream)

	out := map[string]any{
		"file":            path,
		"method":          res.Method,
		"pages":           res.Pages,
		"extractedFields": fields,
		"confidence":      conf,
		"aiEnhanced":      enhanced,
		"metadata":        res.Metadata,
		"durationMs":      res.Duration.Milliseconds(),
	}
	if *showText {
		out["ocrText"] = res.Text
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		logger.Error("encode output", "error", err)
		os.Exit(1)
	}
}
