// Package providers builds the configured llm.StructuredExtractor.
package providers

import (
	"context"
	"log/slog"

	"github.com/joseph-ayodele/invoice-tracker/constants"
	"github.com/joseph-ayodele/invoice-tracker/internal/common"
	"github.com/joseph-ayodele/invoice-tracker/internal/llm"
	"github.com/joseph-ayodele/invoice-tracker/internal/llm/azure"
	"github.com/joseph-ayodele/invoice-tracker/internal/llm/gemini"
	"github.com/joseph-ayodele/invoice-tracker/internal/llm/openai"
)

// New returns the extractor for cfg.Provider. It returns (nil, nil) for the
// none provider and (nil, ErrAIUnavailable) when credentials are missing.
func New(ctx context.Context, cfg common.AIConfig, logger *slog.Logger) (llm.StructuredExtractor, error) {
	if logger == nil {
		logger = slog.Default()
	}
	switch cfg.Provider {
	case constants.ProviderOpenAI:
		if cfg.OpenAI.APIKey == "" {
			return nil, common.NewAppError("AI_CONFIG", "OPENAI_API_KEY is not set", common.ErrAIUnavailable)
		}
		return openai.NewClient(openai.Config{
			APIKey:      cfg.OpenAI.APIKey,
			BaseURL:     cfg.OpenAI.BaseURL,
			Model:       cfg.OpenAI.Model,
			Temperature: cfg.Temperature,
			Timeout:     cfg.Timeout,
		}, logger), nil
	case constants.ProviderAzure:
		c, err := azure.NewClient(azure.Config{
			APIKey:      cfg.Azure.APIKey,
			Endpoint:    cfg.Azure.Endpoint,
			Deployment:  cfg.Azure.Deployment,
			APIVersion:  cfg.Azure.APIVersion,
			Temperature: cfg.Temperature,
			Timeout:     cfg.Timeout,
		}, logger)
		if err != nil {
			return nil, common.NewAppError("AI_CONFIG", err.Error(), common.ErrAIUnavailable)
		}
		return c, nil
	case constants.ProviderGemini:
		if cfg.Gemini.APIKey == "" {
			return nil, common.NewAppError("AI_CONFIG", "GEMINI_API_KEY is not set", common.ErrAIUnavailable)
		}
		c, err := gemini.NewClient(ctx, gemini.Config{
			APIKey:      cfg.Gemini.APIKey,
			Model:       cfg.Gemini.Model,
			Temperature: cfg.Temperature,
		}, logger)
		if err != nil {
			return nil, common.NewAppError("AI_CONFIG", err.Error(), common.ErrAIUnavailable)
		}
		return c, nil
	default:
		return nil, nil
	}
}

// NewEnhancer builds an Enhancer for cfg, degrading to a disabled one when the
// provider cannot be constructed.
func NewEnhancer(ctx context.Context, cfg common.AIConfig, logger *slog.Logger) *llm.Enhancer {
	if logger == nil {
		logger = slog.Default()
	}
	extractor, err := New(ctx, cfg, logger)
	if err != nil {
		logger.Warn("llm.provider.unavailable", "provider", cfg.Provider, "error", err)
	}
	return llm.NewEnhancer(cfg.Provider, extractor, logger)
}
