package ocr

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/joseph-ayodele/invoice-tracker/constants"
)

// LocalConfig configures the poppler/tesseract acquirer.
type LocalConfig struct {
	Pdftotext string // binary name or absolute path; if empty -> "pdftotext"
	Pdftoppm  string // if empty -> "pdftoppm"
	Tesseract string // if empty -> "tesseract"

	TesseractLang string // default "eng"
	TessdataDir   string
	DPI           int // rasterization DPI for scanned PDFs, default 300
	MaxPages      int // 0 = no limit

	ArtifactCacheDir string
}

// LocalAcquirer extracts text with pdftotext, falling back to rasterize+tesseract
// for scanned PDFs. Images are preprocessed before OCR. It reports no metadata.
type LocalAcquirer struct {
	cfg    LocalConfig
	runner Runner
	prep   *Preprocessor
	logger *slog.Logger
}

func NewLocalAcquirer(cfg LocalConfig, logger *slog.Logger) *LocalAcquirer {
	if logger == nil {
		logger = slog.Default()
	}
	return NewLocalAcquirerWithRunner(cfg, execRunner{logger: logger}, logger)
}

// NewLocalAcquirerWithRunner is NewLocalAcquirer with an injectable command runner.
func NewLocalAcquirerWithRunner(cfg LocalConfig, r Runner, logger *slog.Logger) *LocalAcquirer {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Pdftotext == "" {
		cfg.Pdftotext = "pdftotext"
	}
	if cfg.Pdftoppm == "" {
		cfg.Pdftoppm = "pdftoppm"
	}
	if cfg.Tesseract == "" {
		cfg.Tesseract = "tesseract"
	}
	if cfg.TesseractLang == "" {
		cfg.TesseractLang = "eng"
	}
	if cfg.DPI <= 0 {
		cfg.DPI = 300
	}
	return &LocalAcquirer{
		cfg:    cfg,
		runner: r,
		prep:   NewPreprocessor(cfg.ArtifactCacheDir, logger),
		logger: logger,
	}
}

func (a *LocalAcquirer) Acquire(ctx context.Context, path string) (Result, error) {
	start := time.Now()
	ext := constants.NormalizeExt(filepath.Ext(path))
	a.logger.Debug("ocr.local.start", "path", path, "ext", ext)

	var res Result
	var err error
	switch constants.MapExtToFormat(ext) {
	case constants.PDF:
		res, err = a.acquirePDF(ctx, path)
	case constants.IMAGE:
		res, err = a.acquireImage(ctx, path)
	case constants.TXT:
		var b []byte
		b, err = os.ReadFile(path)
		res = Result{Text: Normalize(string(b)), Pages: 1, Method: "text"}
	default:
		a.logger.Error("unsupported ocr extension", "extension", ext)
		return Result{}, fmt.Errorf("unsupported extension: %q", ext)
	}
	res.Duration = time.Since(start)
	if err != nil {
		return res, err
	}
	a.logger.Info("ocr.local.ok",
		"path", path,
		"method", res.Method,
		"pages", res.Pages,
		"chars", len(res.Text),
		"quality", TextQuality(res.Text),
		"duration_ms", res.Duration.Milliseconds(),
	)
	return res, nil
}

func (a *LocalAcquirer) acquirePDF(ctx context.Context, path string) (Result, error) {
	txt, pages, warns, err := a.pdfToText(ctx, path)
	if err == nil {
		txt = Normalize(txt)
		if len(txt) >= constants.ImageOnlyTextLength {
			return Result{Text: txt, Pages: pages, Method: "pdf-text", Warnings: warns}, nil
		}
		a.logger.Debug("ocr.pdf.text_layer_thin", "path", path, "chars", len(txt))
	} else {
		warns = append(warns, err.Error())
	}

	ocrTxt, ocrPages, ocrWarns, ocrErr := a.pdfToOCR(ctx, path)
	warns = append(warns, ocrWarns...)
	if ocrErr != nil {
		// keep a thin text layer rather than failing outright
		if txt != "" {
			return Result{Text: txt, Pages: pages, Method: "pdf-text", Warnings: warns}, nil
		}
		return Result{Warnings: warns}, fmt.Errorf("pdf ocr: %w", ocrErr)
	}
	return Result{Text: Normalize(ocrTxt), Pages: ocrPages, Method: "pdf-ocr", Warnings: warns}, nil
}

func (a *LocalAcquirer) acquireImage(ctx context.Context, path string) (Result, error) {
	var warns []string
	in := path
	prepared, cleanup, err := a.prep.Prepare(ctx, path)
	if err != nil {
		if constants.IsHEICExt(constants.NormalizeExt(filepath.Ext(path))) {
			a.logger.Error("heic conversion failed", "path", path, "error", err)
			return Result{}, err
		}
		warns = append(warns, "preprocess: "+err.Error())
	} else {
		in = prepared
	}
	if cleanup != nil {
		defer cleanup()
	}

	txt, w, err := a.tesseract(ctx, in)
	warns = append(warns, w...)
	if err != nil {
		return Result{Warnings: warns}, err
	}
	return Result{Text: Normalize(txt), Pages: 1, Method: "image-ocr", Warnings: warns}, nil
}

func (a *LocalAcquirer) pdfToText(ctx context.Context, path string) (string, int, []string, error) {
	// pdftotext -layout -enc UTF-8 -eol unix <path> -
	out, errb, err := a.runner.Run(ctx, a.cfg.Pdftotext, "-layout", "-enc", "UTF-8", "-eol", "unix", path, "-")
	if err != nil {
		return "", 0, []string{string(errb)}, fmt.Errorf("pdftotext: %w", err)
	}
	text := string(out)
	// form feed separates pages
	return text, 1 + strings.Count(strings.TrimRight(text, "\f"), "\f"), nil, nil
}

// renderPages rasterizes a PDF into PNGs under a temp dir; the caller must run cleanup.
func renderPages(ctx context.Context, r Runner, pdftoppm string, dpi, maxPages int, path string) ([]string, func(), []string, error) {
	tmpDir, err := os.MkdirTemp("", "it-pp-*")
	if err != nil {
		return nil, nil, nil, err
	}
	cleanup := func() { _ = os.RemoveAll(tmpDir) }

	prefix := filepath.Join(tmpDir, "page")
	// pdftoppm -r 300 -png <in.pdf> <tmp/page>
	if _, errb, err := r.Run(ctx, pdftoppm, "-r", fmt.Sprintf("%d", dpi), "-png", path, prefix); err != nil {
		cleanup()
		return nil, nil, []string{string(errb)}, fmt.Errorf("pdftoppm: %w", err)
	}

	matches, _ := filepath.Glob(prefix + "-*.png")
	sort.Strings(matches)
	if maxPages > 0 && len(matches) > maxPages {
		matches = matches[:maxPages]
	}
	if len(matches) == 0 {
		cleanup()
		return nil, nil, []string{"pdftoppm produced no images"}, fmt.Errorf("no pages rendered")
	}
	return matches, cleanup, nil, nil
}

func (a *LocalAcquirer) pdfToOCR(ctx context.Context, path string) (string, int, []string, error) {
	pagesPNG, cleanup, warns, err := renderPages(ctx, a.runner, a.cfg.Pdftoppm, a.cfg.DPI, a.cfg.MaxPages, path)
	if err != nil {
		return "", 0, warns, err
	}
	defer cleanup()

	var b strings.Builder
	for _, img := range pagesPNG {
		txt, w, err := a.tesseract(ctx, img)
		warns = append(warns, w...)
		if err != nil {
			warns = append(warns, err.Error())
			continue
		}
		if b.Len() > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(txt)
	}
	return b.String(), len(pagesPNG), warns, nil
}

func (a *LocalAcquirer) tesseract(ctx context.Context, path string) (string, []string, error) {
	args := []string{path, "stdout", "-l", a.cfg.TesseractLang}
	if a.cfg.TessdataDir != "" {
		args = append(args, "--tessdata-dir", a.cfg.TessdataDir)
	}
	out, errb, err := a.runner.Run(ctx, a.cfg.Tesseract, args...)
	if err != nil {
		return "", []string{string(errb)}, fmt.Errorf("tesseract: %w", err)
	}
	return string(out), nil, nil
}
