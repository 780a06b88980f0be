package ingest

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/invoice-tracker/constants"
	"github.com/joseph-ayodele/invoice-tracker/internal/async"
	"github.com/joseph-ayodele/invoice-tracker/internal/entity"
)

// Registrar creates the processing-state invoice row for a new file.
type Registrar interface {
	Register(ctx context.Context, fileName string) (*entity.Invoice, error)
}

// FSIngestor reads from the local filesystem. Files are processed in place; a
// content hash seen before in this process is reported as deduplicated.
type FSIngestor struct {
	registrar Registrar
	queue     async.Queue
	logger    *slog.Logger

	mu   sync.Mutex
	seen map[string]uuid.UUID // sha256 -> invoice
}

func NewFSIngestor(r Registrar, q async.Queue, logger *slog.Logger) *FSIngestor {
	if logger == nil {
		logger = slog.Default()
	}
	return &FSIngestor{registrar: r, queue: q, logger: logger, seen: map[string]uuid.UUID{}}
}

func (i *FSIngestor) IngestPath(ctx context.Context, path string) (IngestionResult, error) {
	var out IngestionResult

	abs, err := filepath.Abs(path)
	if err != nil {
		return out, fmt.Errorf("abs path: %w", err)
	}
	ext := constants.NormalizeExt(filepath.Ext(abs))
	if ext == "" || !matchesExt(abs, nil) {
		i.logger.Warn("ingest.unsupported_extension", "path", abs, "ext", ext)
		return out, fmt.Errorf("unsupported or missing extension: %q", ext)
	}

	sum, err := hashFile(abs)
	if err != nil {
		i.logger.Error("ingest.hash.failed", "path", abs, "error", err)
		return out, err
	}
	out = IngestionResult{SourcePath: abs, SHA256: sum, Format: constants.MapExtToFormat(ext)}

	i.mu.Lock()
	if id, ok := i.seen[sum]; ok {
		i.mu.Unlock()
		out.InvoiceID = id
		out.Deduplicated = true
		i.logger.Debug("ingest.deduplicated", "path", abs, "invoice_id", id)
		return out, nil
	}
	i.mu.Unlock()

	inv, err := i.registrar.Register(ctx, filepath.Base(abs))
	if err != nil {
		return out, err
	}
	out.InvoiceID = inv.ID

	i.mu.Lock()
	i.seen[sum] = out.InvoiceID
	i.mu.Unlock()

	out.QueuedAt = time.Now().UTC()
	if err := i.queue.Enqueue(ctx, async.Job{InvoiceID: inv.ID, Path: abs, SubmittedAt: out.QueuedAt}); err != nil {
		return out, fmt.Errorf("enqueue: %w", err)
	}
	i.logger.Info("ingest.queued", "path", abs, "invoice_id", out.InvoiceID)
	return out, nil
}

// IngestDirectory walks root, skips hidden entries if requested,
// and calls IngestPath for each file. Returns per-file results + aggregate stats.
func (i *FSIngestor) IngestDirectory(ctx context.Context, root string, skipHidden bool) ([]IngestionResult, DirStats, error) {
	if strings.TrimSpace(root) == "" {
		return nil, DirStats{}, errors.New("root path is required")
	}

	var results []IngestionResult
	var stats DirStats

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		stats.Scanned++
		if walkErr != nil {
			results = append(results, IngestionResult{SourcePath: path, Err: walkErr})
			stats.Failed++
			return nil
		}
		if skipHidden && path != root && hidden(path) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() || !matchesExt(path, nil) {
			return nil
		}
		stats.Matched++

		r, err := i.IngestPath(ctx, path)
		if err != nil {
			results = append(results, IngestionResult{SourcePath: path, Err: err})
			stats.Failed++
			return nil
		}
		results = append(results, r)
		stats.Succeeded++
		if r.Deduplicated {
			stats.Deduplicated++
		}
		return nil
	})
	if err != nil {
		return results, stats, fmt.Errorf("walk: %w", err)
	}
	i.logger.Info("ingest.directory.done",
		"root", root,
		"scanned", stats.Scanned,
		"matched", stats.Matched,
		"succeeded", stats.Succeeded,
		"deduplicated", stats.Deduplicated,
		"failed", stats.Failed,
	)
	return results, stats, nil
}
