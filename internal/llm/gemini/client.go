// Package gemini implements llm.StructuredExtractor with the Google Gen AI SDK.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"google.golang.org/genai"

	"github.com/joseph-ayodele/invoice-tracker/internal/llm"
)

type Config struct {
	APIKey      string
	Model       string
	Temperature float32
	// BaseURL overrides the API host; empty uses the SDK default.
	BaseURL string
}

type Client struct {
	cfg    Config
	api    *genai.Client
	logger *slog.Logger
}

func NewClient(ctx context.Context, cfg Config, logger *slog.Logger) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("gemini: api key is required")
	}
	if cfg.Model == "" {
		cfg.Model = "gemini-2.5-flash"
	}
	if logger == nil {
		logger = slog.Default()
	}
	cc := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.BaseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}
	api, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return &Client{cfg: cfg, api: api, logger: logger}, nil
}

func (c *Client) Name() string { return "gemini" }

func (c *Client) GenerateStructuredExtraction(ctx context.Context, prompt string) ([]byte, error) {
	start := time.Now()
	temp := c.cfg.Temperature
	resp, err := c.api.Models.GenerateContent(ctx, c.cfg.Model, genai.Text(prompt), &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(llm.SystemPrompt, genai.RoleUser),
		ResponseMIMEType:  "application/json",
		ResponseSchema:    responseSchema(),
		Temperature:       &temp,
	})
	if err != nil {
		c.logger.Error("llm.gemini.request_error",
			"model", c.cfg.Model, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return nil, fmt.Errorf("gemini: %w", err)
	}
	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return nil, errors.New("gemini: empty response")
	}
	c.logger.Debug("llm.gemini.ok", "model", c.cfg.Model, "elapsed_ms", time.Since(start).Milliseconds())
	return []byte(text), nil
}

func responseSchema() *genai.Schema {
	lineItem := &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"description": {Type: genai.TypeString},
			"quantity":    {Type: genai.TypeNumber},
			"unitPrice":   {Type: genai.TypeNumber},
			"total":       {Type: genai.TypeNumber},
		},
		Required: []string{"description", "quantity", "unitPrice", "total"},
	}
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"invoiceNumber": {Type: genai.TypeString},
			"date":          {Type: genai.TypeString, Description: "Invoice date as YYYY-MM-DD."},
			"vendor":        {Type: genai.TypeString},
			"totalAmount":   {Type: genai.TypeNumber},
			"lineItems":     {Type: genai.TypeArray, Items: lineItem},
			"currency":      {Type: genai.TypeString, Description: "ISO 4217 code."},
			"subtotal":      {Type: genai.TypeNumber},
			"tax":           {Type: genai.TypeNumber},
			"taxRate":       {Type: genai.TypeString},
			"dueDate":       {Type: genai.TypeString},
			"customerInfo": {
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"name":    {Type: genai.TypeString},
					"address": {Type: genai.TypeString},
				},
			},
		},
		Required: []string{"invoiceNumber", "date", "vendor", "totalAmount", "lineItems"},
	}
}
