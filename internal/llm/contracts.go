package llm

import (
	"context"

	"github.com/joseph-ayodele/invoice-tracker/internal/entity"
)

// StructuredExtractor is the one capability every AI provider implements:
// send a prompt, get back the raw JSON document the model produced.
type StructuredExtractor interface {
	Name() string
	GenerateStructuredExtraction(ctx context.Context, prompt string) ([]byte, error)
}

// FieldEnhancer is what the pipeline depends on.
type FieldEnhancer interface {
	Enhance(ctx context.Context, ocrText string, isImageOnly bool) (*entity.ExtractedFields, error)
}
