// Package app wires configuration into a ready processor and its stores.
package app

import (
	"context"
	"log/slog"

	"github.com/joseph-ayodele/invoice-tracker/internal/common"
	"github.com/joseph-ayodele/invoice-tracker/internal/core"
	"github.com/joseph-ayodele/invoice-tracker/internal/export"
	"github.com/joseph-ayodele/invoice-tracker/internal/llm/providers"
	"github.com/joseph-ayodele/invoice-tracker/internal/ocr"
	"github.com/joseph-ayodele/invoice-tracker/internal/repository"
)

// App is the set of long-lived components every binary shares.
type App struct {
	Config    *common.Config
	Store     *repository.Store
	Processor *core.Processor
	Export    *export.Service
	Logger    *slog.Logger
}

// Build opens storage and constructs the acquisition and enhancement stack.
// An unusable AI provider degrades to heuristic-only processing.
func Build(ctx context.Context, cfg *common.Config, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	store, err := repository.NewStore(ctx, cfg.Database, logger)
	if err != nil {
		return nil, err
	}
	acquirer, err := ocr.New(cfg.OCR, logger)
	if err != nil {
		_ = store.Close()
		return nil, common.NewAppError("CONFIG_ERROR", "ocr strategy", err)
	}
	enhancer := providers.NewEnhancer(ctx, cfg.AI, logger)

	proc := core.NewProcessor(logger, acquirer, enhancer, store.Invoices, store.Logs)
	logger.Info("app.ready",
		"db_driver", cfg.Database.Driver,
		"ocr_strategy", cfg.OCR.Strategy,
		"ai_provider", proc.Provider(),
	)
	return &App{
		Config:    cfg,
		Store:     store,
		Processor: proc,
		Export:    export.NewService(store.Invoices, logger),
		Logger:    logger,
	}, nil
}

func (a *App) Close() {
	if err := a.Store.Close(); err != nil {
		a.Logger.Error("failed to close store", "error", err)
	}
}
