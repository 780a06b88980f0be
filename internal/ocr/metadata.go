package ocr

import (
	"github.com/joseph-ayodele/invoice-tracker/constants"
	"github.com/joseph-ayodele/invoice-tracker/internal/confidence"
	"github.com/joseph-ayodele/invoice-tracker/internal/parse"
)

// BuildMetadata runs the heuristic parser over acquired text the way a hosted
// acquisition service reports it: a document is image-only when the text is short
// or the parse is weak, and needs AI when image-only or fewer than three fields came out.
func BuildMetadata(text string, parser *parse.Parser) *Metadata {
	if parser == nil {
		parser = parse.NewParser(nil)
	}
	fields := parser.Parse(text)
	score := confidence.Heuristic(fields).Overall
	imageOnly := len(text) < constants.ImageOnlyTextLength || score < constants.TrustedConfidence
	return &Metadata{
		IsImageOnlyPDF:        imageOnly,
		RequiresAIEnhancement: imageOnly || fields.PopulatedCount() < constants.MinTrustedFields,
		Confidence:            score,
		ParsedData:            fields,
	}
}
