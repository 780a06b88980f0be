package ocr

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joseph-ayodele/invoice-tracker/constants"
	"github.com/joseph-ayodele/invoice-tracker/internal/parse"
)

const DefaultOCRSpaceURL = "https://api.ocr.space/parse/image"

// OCRSpaceConfig configures the hosted OCR.space strategy.
type OCRSpaceConfig struct {
	APIKey  string
	URL     string // default DefaultOCRSpaceURL
	Timeout time.Duration
}

// OCRSpaceAcquirer uploads the file to OCR.space (engine 2, table mode) and derives
// acquisition metadata from the returned text.
type OCRSpaceAcquirer struct {
	cfg    OCRSpaceConfig
	http   *http.Client
	parser *parse.Parser
	logger *slog.Logger
}

func NewOCRSpaceAcquirer(cfg OCRSpaceConfig, logger *slog.Logger) *OCRSpaceAcquirer {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.URL == "" {
		cfg.URL = DefaultOCRSpaceURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 90 * time.Second
	}
	return &OCRSpaceAcquirer{
		cfg:    cfg,
		http:   &http.Client{Timeout: cfg.Timeout},
		parser: parse.NewParser(logger),
		logger: logger,
	}
}

type ocrSpaceResponse struct {
	ParsedResults []struct {
		ParsedText        string `json:"ParsedText"`
		FileParseExitCode int    `json:"FileParseExitCode"`
	} `json:"ParsedResults"`
	OCRExitCode           int  `json:"OCRExitCode"`
	IsErroredOnProcessing bool `json:"IsErroredOnProcessing"`
	// ErrorMessage is a string or an array of strings depending on the failure.
	ErrorMessage json.RawMessage `json:"ErrorMessage"`
}

func (a *OCRSpaceAcquirer) Acquire(ctx context.Context, path string) (Result, error) {
	start := time.Now()
	if a.cfg.APIKey == "" {
		return Result{}, errors.New("ocrspace: api key not configured")
	}

	body, contentType, err := a.buildForm(path)
	if err != nil {
		return Result{}, fmt.Errorf("ocrspace: build form: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.cfg.URL, body)
	if err != nil {
		return Result{}, fmt.Errorf("ocrspace: new request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)

	a.logger.Debug("ocr.ocrspace.request", "path", path, "url", a.cfg.URL)
	resp, err := a.http.Do(req)
	if err != nil {
		return Result{}, fmt.Errorf("ocrspace: http: %w", err)
	}
	defer resp.Body.Close()
	raw, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Result{}, fmt.Errorf("ocrspace: http %d: %s", resp.StatusCode, truncate(string(raw), 512))
	}

	var parsed ocrSpaceResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return Result{}, fmt.Errorf("ocrspace: decode: %w", err)
	}
	if parsed.IsErroredOnProcessing {
		return Result{}, fmt.Errorf("ocrspace: %s", errorMessage(parsed.ErrorMessage))
	}

	text := ""
	if len(parsed.ParsedResults) > 0 {
		text = parsed.ParsedResults[0].ParsedText
	}
	text = Normalize(text)
	meta := BuildMetadata(text, a.parser)

	res := Result{
		Text:     text,
		Pages:    max(1, len(parsed.ParsedResults)),
		Method:   "ocrspace",
		Duration: time.Since(start),
		Metadata: meta,
	}
	a.logger.Info("ocr.ocrspace.ok",
		"path", path,
		"chars", len(text),
		"confidence", meta.Confidence,
		"image_only", meta.IsImageOnlyPDF,
		"duration_ms", res.Duration.Milliseconds(),
	)
	return res, nil
}

func (a *OCRSpaceAcquirer) buildForm(path string) (io.Reader, string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, "", err
	}
	defer f.Close()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	fields := [][2]string{
		{"apikey", a.cfg.APIKey},
		{"language", "eng"},
		{"detectOrientation", "true"},
		{"isTable", "true"},
		{"scale", "true"},
		{"OCREngine", "2"},
	}
	if ft := fileTypeFor(path); ft != "" {
		fields = append(fields, [2]string{"filetype", ft})
	}
	for _, kv := range fields {
		if err := w.WriteField(kv[0], kv[1]); err != nil {
			return nil, "", err
		}
	}
	part, err := w.CreateFormFile("file", filepath.Base(path))
	if err != nil {
		return nil, "", err
	}
	if _, err := io.Copy(part, f); err != nil {
		return nil, "", err
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return &buf, w.FormDataContentType(), nil
}

func fileTypeFor(path string) string {
	ext := constants.NormalizeExt(filepath.Ext(path))
	switch ext {
	case "pdf":
		return "PDF"
	case "jpg", "jpeg":
		return "JPG"
	case "png":
		return "PNG"
	}
	return ""
}

func errorMessage(raw json.RawMessage) string {
	var list []string
	if err := json.Unmarshal(raw, &list); err == nil && len(list) > 0 {
		return strings.Join(list, "; ")
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil && s != "" {
		return s
	}
	return "processing error"
}
