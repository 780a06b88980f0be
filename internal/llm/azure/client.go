// Package azure implements llm.StructuredExtractor against an Azure OpenAI deployment.
package azure

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	goopenai "github.com/sashabaranov/go-openai"

	"github.com/joseph-ayodele/invoice-tracker/internal/llm"
)

const defaultAPIVersion = "2023-05-15"

type Config struct {
	APIKey      string
	Endpoint    string // https://<resource>.openai.azure.com
	Deployment  string
	APIVersion  string
	Temperature float32
	Timeout     time.Duration
}

type Client struct {
	cfg    Config
	api    *goopenai.Client
	logger *slog.Logger
}

func NewClient(cfg Config, logger *slog.Logger) (*Client, error) {
	if cfg.APIKey == "" || cfg.Endpoint == "" || cfg.Deployment == "" {
		return nil, errors.New("azure openai: api key, endpoint and deployment are required")
	}
	if cfg.APIVersion == "" {
		cfg.APIVersion = defaultAPIVersion
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 45 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}

	apiCfg := goopenai.DefaultAzureConfig(cfg.APIKey, strings.TrimRight(cfg.Endpoint, "/"))
	apiCfg.APIVersion = cfg.APIVersion
	apiCfg.HTTPClient = &http.Client{Timeout: cfg.Timeout}
	deployment := cfg.Deployment
	apiCfg.AzureModelMapperFunc = func(string) string { return deployment }

	return &Client{
		cfg:    cfg,
		api:    goopenai.NewClientWithConfig(apiCfg),
		logger: logger,
	}, nil
}

func (c *Client) Name() string { return "azure" }

func (c *Client) GenerateStructuredExtraction(ctx context.Context, prompt string) ([]byte, error) {
	start := time.Now()
	resp, err := c.api.CreateChatCompletion(ctx, goopenai.ChatCompletionRequest{
		Model:       c.cfg.Deployment,
		Temperature: c.cfg.Temperature,
		ResponseFormat: &goopenai.ChatCompletionResponseFormat{
			Type: goopenai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Messages: []goopenai.ChatCompletionMessage{
			{Role: goopenai.ChatMessageRoleSystem, Content: llm.SystemPrompt},
			{Role: goopenai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		c.logger.Error("llm.azure.request_error",
			"deployment", c.cfg.Deployment, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return nil, fmt.Errorf("azure openai: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, errors.New("azure openai: no choices in response")
	}
	c.logger.Debug("llm.azure.ok",
		"deployment", c.cfg.Deployment,
		"total_tokens", resp.Usage.TotalTokens,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return []byte(strings.TrimSpace(resp.Choices[0].Message.Content)), nil
}
