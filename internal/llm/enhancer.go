package llm

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/invoice-tracker/constants"
	"github.com/joseph-ayodele/invoice-tracker/internal/common"
	"github.com/joseph-ayodele/invoice-tracker/internal/entity"
)

// Enhancer asks the configured provider for a fresh extraction of the OCR text.
type Enhancer struct {
	provider  constants.Provider
	extractor StructuredExtractor
	schema    map[string]any
	logger    *slog.Logger
}

// NewEnhancer wires extractor for provider. A nil extractor (absent or invalid
// credentials) makes every Enhance call a no-op.
func NewEnhancer(provider constants.Provider, extractor StructuredExtractor, logger *slog.Logger) *Enhancer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Enhancer{
		provider:  provider,
		extractor: extractor,
		schema:    BuildInvoiceJSONSchema(),
		logger:    logger,
	}
}

// Provider reports the configured provider, or none when it cannot be used.
func (e *Enhancer) Provider() constants.Provider {
	if e == nil || e.extractor == nil {
		return constants.ProviderNone
	}
	return e.provider
}

// Enhance returns (nil, nil) when the provider is disabled, text is blank or the
// reply is not usable JSON. Transport failures are returned as errors.
func (e *Enhancer) Enhance(ctx context.Context, ocrText string, isImageOnly bool) (*entity.ExtractedFields, error) {
	if e.Provider() == constants.ProviderNone || strings.TrimSpace(ocrText) == "" {
		return nil, nil
	}

	start := time.Now()
	log := common.Logger(ctx, e.logger).With("call_id", uuid.NewString())
	log.Info("llm.enhance.start",
		"provider", e.extractor.Name(),
		"text_len", len(ocrText),
		"image_only", isImageOnly,
	)

	raw, err := e.extractor.GenerateStructuredExtraction(ctx, BuildInvoicePrompt(ocrText, isImageOnly))
	if err != nil {
		log.Error("llm.enhance.provider_error",
			"provider", e.extractor.Name(), "error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return nil, fmt.Errorf("%s extraction: %w", e.extractor.Name(), err)
	}

	content := []byte(StripCodeFences(string(raw)))
	if err := ValidateJSONAgainstSchema(e.schema, content); err != nil {
		log.Warn("llm.enhance.schema_mismatch", "error", err)
	}

	fields, dropped, err := NormalizeAIFields(content)
	if err != nil {
		log.Warn("llm.enhance.unparseable_reply",
			"error", err, "bytes", len(content),
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return nil, nil
	}
	if len(dropped) > 0 {
		log.Warn("llm.enhance.lenient_sanitize_applied", "dropped", dropped)
	}

	log.Info("llm.enhance.ok",
		"invoice_number", fields.InvoiceNumber,
		"vendor", fields.Vendor,
		"date", fields.Date,
		"line_items", len(fields.LineItems),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return fields, nil
}
