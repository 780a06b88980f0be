// Package ocr acquires raw text from invoice files.
package ocr

import (
	"context"
	"time"

	"github.com/joseph-ayodele/invoice-tracker/internal/entity"
)

// Metadata is what an acquisition strategy knows beyond the text itself.
type Metadata struct {
	IsImageOnlyPDF        bool                    `json:"isImageOnlyPDF"`
	RequiresAIEnhancement bool                    `json:"requiresAIEnhancement"`
	Confidence            int                     `json:"confidence"`
	ParsedData            *entity.ExtractedFields `json:"parsedData,omitempty"`
}

// Result is the output of one acquisition. Metadata is nil when the strategy has none.
type Result struct {
	Text     string
	Pages    int
	Method   string // pdf-text | pdf-ocr | image-ocr | text | ocrspace | azure
	Duration time.Duration
	Warnings []string
	Metadata *Metadata
}

// Acquirer turns a stored file into text.
type Acquirer interface {
	Acquire(ctx context.Context, path string) (Result, error)
}
