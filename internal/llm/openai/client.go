// Package openai talks to chat/completions on OpenAI or any compatible endpoint.
package openai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/joseph-ayodele/invoice-tracker/internal/llm"
)

const (
	defaultBaseURL = "https://api.openai.com/v1"
	defaultModel   = "gpt-4o-mini"
)

type Config struct {
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float32
	Timeout     time.Duration
}

type Client struct {
	cfg      Config
	endpoint string
	http     *http.Client
	logger   *slog.Logger
}

func NewClient(cfg Config, logger *slog.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = defaultModel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 45 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		cfg:      cfg,
		endpoint: strings.TrimRight(cfg.BaseURL, "/") + "/chat/completions",
		http:     &http.Client{Timeout: cfg.Timeout},
		logger:   logger.With("provider", "openai", "model", cfg.Model),
	}
}

func (c *Client) Name() string { return "openai" }

// GenerateStructuredExtraction implements llm.StructuredExtractor over chat/completions in JSON mode.
func (c *Client) GenerateStructuredExtraction(ctx context.Context, prompt string) ([]byte, error) {
	start := time.Now()
	body := map[string]any{
		"model":           c.cfg.Model,
		"temperature":     c.cfg.Temperature,
		"response_format": map[string]any{"type": "json_object"},
		"messages": []map[string]any{
			{"role": "system", "content": llm.SystemPrompt},
			{"role": "user", "content": prompt},
		},
	}

	raw, err := llm.SendJSON(ctx, c.http, c.endpoint, body, map[string]string{
		"Authorization": "Bearer " + c.cfg.APIKey,
	}, c.logger)
	if err != nil {
		var se *llm.StatusError
		if errors.As(err, &se) {
			c.logger.Error("llm.openai.status", "status", se.Code, "elapsed_ms", time.Since(start).Milliseconds())
			return nil, fmt.Errorf("openai status %d: %w", se.Code, err)
		}
		return nil, fmt.Errorf("openai: %w", err)
	}

	content, err := llm.ChatContent(raw)
	if err != nil {
		return nil, fmt.Errorf("openai: %w", err)
	}
	c.logger.Debug("llm.openai.ok", "elapsed_ms", time.Since(start).Milliseconds())
	return []byte(strings.TrimSpace(content)), nil
}
