package ocr

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
)

// Chain tries acquirers in order and returns the first non-blank result.
type Chain struct {
	steps  []Acquirer
	logger *slog.Logger
}

func NewChain(logger *slog.Logger, steps ...Acquirer) *Chain {
	if logger == nil {
		logger = slog.Default()
	}
	return &Chain{steps: steps, logger: logger}
}

func (c *Chain) Acquire(ctx context.Context, path string) (Result, error) {
	var errs []error
	for i, step := range c.steps {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}
		res, err := step.Acquire(ctx, path)
		if err == nil && strings.TrimSpace(res.Text) != "" {
			if i > 0 {
				c.logger.Info("ocr.chain.fallback_used", "path", path, "step", i, "method", res.Method)
			}
			return res, nil
		}
		if err == nil {
			err = errors.New("empty text")
		}
		c.logger.Warn("ocr.chain.step_failed", "path", path, "step", i, "error", err)
		errs = append(errs, fmt.Errorf("step %d: %w", i, err))
	}
	if len(errs) == 0 {
		return Result{}, errors.New("ocr chain: no acquirers configured")
	}
	return Result{}, errors.Join(errs...)
}
