package ocr

import (
	"fmt"
	"log/slog"

	"github.com/joseph-ayodele/invoice-tracker/internal/common"
)

// New builds the acquirer selected by cfg.Strategy. "chain" puts any configured
// hosted strategy ahead of the local one.
func New(cfg common.OCRConfig, logger *slog.Logger) (Acquirer, error) {
	if logger == nil {
		logger = slog.Default()
	}
	local := NewLocalAcquirer(LocalConfig{
		TessdataDir:      cfg.TessdataDir,
		ArtifactCacheDir: cfg.ArtifactCacheDir,
	}, logger)
	prep := NewPreprocessor(cfg.ArtifactCacheDir, logger)

	switch cfg.Strategy {
	case "", "local":
		return local, nil
	case "ocrspace":
		return NewOCRSpaceAcquirer(OCRSpaceConfig{APIKey: cfg.OCRSpaceAPIKey, URL: cfg.OCRSpaceURL, Timeout: cfg.Timeout}, logger), nil
	case "azure":
		return NewAzureAcquirer(AzureConfig{Endpoint: cfg.AzureEndpoint, APIKey: cfg.AzureKey}, prep, logger)
	case "chain":
		var steps []Acquirer
		if cfg.OCRSpaceAPIKey != "" {
			steps = append(steps, NewOCRSpaceAcquirer(OCRSpaceConfig{APIKey: cfg.OCRSpaceAPIKey, URL: cfg.OCRSpaceURL, Timeout: cfg.Timeout}, logger))
		}
		if cfg.AzureEndpoint != "" && cfg.AzureKey != "" {
			az, err := NewAzureAcquirer(AzureConfig{Endpoint: cfg.AzureEndpoint, APIKey: cfg.AzureKey}, prep, logger)
			if err != nil {
				return nil, err
			}
			steps = append(steps, az)
		}
		steps = append(steps, local)
		logger.Info("ocr.chain.configured", "steps", len(steps))
		return NewChain(logger, steps...), nil
	default:
		return nil, fmt.Errorf("unknown ocr strategy %q", cfg.Strategy)
	}
}
