// Package confidence scores how complete an extraction is.
package confidence

import (
	"github.com/joseph-ayodele/invoice-tracker/constants"
	"github.com/joseph-ayodele/invoice-tracker/internal/entity"
)

const (
	// HeuristicCap bounds the overall score heuristics can claim.
	HeuristicCap = 95
	// TrustedThreshold is the upstream score at which upstream values are adopted.
	TrustedThreshold = constants.TrustedConfidence
	// trustedFieldScore is the per-field score for present fields in trusted mode.
	trustedFieldScore = 90
)

// Field keys, matching ExtractedFields JSON names.
const (
	KeyInvoiceNumber = "invoiceNumber"
	KeyDate          = "date"
	KeyVendor        = "vendor"
	KeyTotalAmount   = "totalAmount"
	KeyLineItems     = "lineItems"
)

type weight struct {
	key      string
	overall  int
	perField int
	present  func(*entity.ExtractedFields) bool
}

var weights = []weight{
	{KeyInvoiceNumber, 25, 85, func(f *entity.ExtractedFields) bool { return f.InvoiceNumber != "" }},
	{KeyDate, 20, 80, func(f *entity.ExtractedFields) bool { return f.Date != "" }},
	{KeyVendor, 20, 75, func(f *entity.ExtractedFields) bool { return f.Vendor != "" }},
	{KeyTotalAmount, 20, 85, func(f *entity.ExtractedFields) bool { return f.TotalAmount != nil }},
	{KeyLineItems, 15, 70, func(f *entity.ExtractedFields) bool { return len(f.LineItems) > 0 }},
}

// Heuristic scores fields by presence: 25/20/20/20/15 overall, capped at 95,
// and 85/80/75/85/70 per present field.
func Heuristic(fields *entity.ExtractedFields) entity.Confidence {
	if fields == nil {
		fields = &entity.ExtractedFields{}
	}
	out := entity.Confidence{Fields: make(map[string]int, len(weights))}
	for _, w := range weights {
		if w.present(fields) {
			out.Overall += w.overall
			out.Fields[w.key] = w.perField
		} else {
			out.Fields[w.key] = 0
		}
	}
	if out.Overall > HeuristicCap {
		out.Overall = HeuristicCap
	}
	return out
}

// Trusted adopts the upstream overall score and rates every present field 90.
func Trusted(fields *entity.ExtractedFields, upstream int) entity.Confidence {
	if fields == nil {
		fields = &entity.ExtractedFields{}
	}
	out := entity.Confidence{Overall: clamp(upstream), Fields: make(map[string]int, len(weights))}
	for _, w := range weights {
		if w.present(fields) {
			out.Fields[w.key] = trustedFieldScore
		} else {
			out.Fields[w.key] = 0
		}
	}
	return out
}

// Score picks Trusted when upstream is known and at least TrustedThreshold, else Heuristic.
func Score(fields *entity.ExtractedFields, upstream *int) entity.Confidence {
	if upstream != nil && *upstream >= TrustedThreshold {
		return Trusted(fields, *upstream)
	}
	return Heuristic(fields)
}

func clamp(v int) int {
	switch {
	case v < 0:
		return 0
	case v > 100:
		return 100
	}
	return v
}
