package ocr

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Azure/azure-sdk-for-go/services/cognitiveservices/v3.0/computervision"
	"github.com/Azure/go-autorest/autorest"

	"github.com/joseph-ayodele/invoice-tracker/constants"
	"github.com/joseph-ayodele/invoice-tracker/internal/parse"
)

// AzureConfig configures the Azure Computer Vision OCR strategy.
type AzureConfig struct {
	Endpoint string
	APIKey   string
	Pdftoppm string // used to rasterize PDFs; default "pdftoppm"
	DPI      int
	MaxPages int
}

// AzureAcquirer runs printed-text recognition on images, rasterizing PDFs first.
type AzureAcquirer struct {
	cfg    AzureConfig
	client computervision.BaseClient
	runner Runner
	prep   *Preprocessor
	parser *parse.Parser
	logger *slog.Logger
}

func NewAzureAcquirer(cfg AzureConfig, prep *Preprocessor, logger *slog.Logger) (*AzureAcquirer, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Endpoint == "" || cfg.APIKey == "" {
		return nil, errors.New("azure ocr: endpoint and key are required")
	}
	if cfg.Pdftoppm == "" {
		cfg.Pdftoppm = "pdftoppm"
	}
	if cfg.DPI <= 0 {
		cfg.DPI = 300
	}
	if prep == nil {
		prep = NewPreprocessor("", logger)
	}
	client := computervision.New(cfg.Endpoint)
	client.Authorizer = autorest.NewCognitiveServicesAuthorizer(cfg.APIKey)
	return &AzureAcquirer{
		cfg:    cfg,
		client: client,
		runner: execRunner{logger: logger},
		prep:   prep,
		parser: parse.NewParser(logger),
		logger: logger,
	}, nil
}

func (a *AzureAcquirer) Acquire(ctx context.Context, path string) (Result, error) {
	start := time.Now()
	ext := constants.NormalizeExt(filepath.Ext(path))

	var images []string
	switch constants.MapExtToFormat(ext) {
	case constants.PDF:
		pages, cleanup, _, err := renderPages(ctx, a.runner, a.cfg.Pdftoppm, a.cfg.DPI, a.cfg.MaxPages, path)
		if err != nil {
			return Result{}, fmt.Errorf("azure ocr: %w", err)
		}
		defer cleanup()
		images = pages
	case constants.IMAGE:
		in := path
		prepared, cleanup, err := a.prep.Prepare(ctx, path)
		if err == nil {
			in = prepared
			if cleanup != nil {
				defer cleanup()
			}
		} else {
			a.logger.Warn("ocr.azure.preprocess_failed", "path", path, "error", err)
		}
		images = []string{in}
	default:
		return Result{}, fmt.Errorf("azure ocr: unsupported extension: %q", ext)
	}

	var pages []string
	for _, img := range images {
		txt, err := a.recognize(ctx, img)
		if err != nil {
			return Result{}, err
		}
		pages = append(pages, txt)
	}
	text := Normalize(strings.Join(pages, "\n\n"))
	meta := BuildMetadata(text, a.parser)
	res := Result{
		Text:     text,
		Pages:    len(images),
		Method:   "azure",
		Duration: time.Since(start),
		Metadata: meta,
	}
	a.logger.Info("ocr.azure.ok",
		"path", path,
		"pages", res.Pages,
		"chars", len(text),
		"confidence", meta.Confidence,
		"duration_ms", res.Duration.Milliseconds(),
	)
	return res, nil
}

func (a *AzureAcquirer) recognize(ctx context.Context, path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	result, err := a.client.RecognizePrintedTextInStream(ctx, true, io.NopCloser(f),
		computervision.OcrLanguages(computervision.En))
	if err != nil {
		return "", fmt.Errorf("azure ocr: recognize: %w", err)
	}
	return ocrResultText(result), nil
}

// ocrResultText flattens regions into lines, one per OCR line.
func ocrResultText(result computervision.OcrResult) string {
	if result.Regions == nil {
		return ""
	}
	var b strings.Builder
	for _, region := range *result.Regions {
		if region.Lines == nil {
			continue
		}
		for _, line := range *region.Lines {
			if line.Words == nil {
				continue
			}
			words := make([]string, 0, len(*line.Words))
			for _, w := range *line.Words {
				if w.Text != nil {
					words = append(words, *w.Text)
				}
			}
			b.WriteString(strings.Join(words, " "))
			b.WriteByte('\n')
		}
		b.WriteByte('\n')
	}
	return b.String()
}
