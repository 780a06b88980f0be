// Package ingest turns files on disk into registered invoices waiting in the processing queue.
package ingest

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// IngestionResult is the outcome for one source file.
type IngestionResult struct {
	SourcePath   string
	InvoiceID    uuid.UUID
	SHA256       string
	Format       string // constants.PDF, IMAGE or TXT
	Deduplicated bool
	QueuedAt     time.Time
	Err          error
}

// DirStats counts what a directory walk saw.
type DirStats struct {
	Scanned      uint32
	Matched      uint32
	Succeeded    uint32
	Deduplicated uint32
	Failed       uint32
}

// Queued is how many new invoices the walk handed to the queue.
func (s DirStats) Queued() uint32 {
	return s.Succeeded - s.Deduplicated
}

type Ingestor interface {
	IngestPath(ctx context.Context, path string) (IngestionResult, error)
	IngestDirectory(ctx context.Context, root string, skipHidden bool) ([]IngestionResult, DirStats, error)
}
