package core

import (
	"github.com/joseph-ayodele/invoice-tracker/constants"
	"github.com/joseph-ayodele/invoice-tracker/internal/entity"
	"github.com/joseph-ayodele/invoice-tracker/internal/ocr"
)

// ShouldEnhance reports whether AI enhancement runs: a provider must be configured
// and the document flagged by acquisition or the heuristic confidence below 90.
func ShouldEnhance(provider constants.Provider, md *ocr.Metadata, conf entity.Confidence) bool {
	if provider == "" || provider == constants.ProviderNone {
		return false
	}
	if md != nil && (md.RequiresAIEnhancement || md.IsImageOnlyPDF) {
		return true
	}
	return conf.Overall < constants.EnhancementConfidence
}

// Merge overlays AI fields onto the heuristic baseline. Non-empty, non-zero AI
// values win; line items are replaced only when the AI returned some. Neither
// input is modified.
func Merge(base, ai *entity.ExtractedFields) *entity.ExtractedFields {
	out := cloneFields(base)
	if out == nil {
		out = &entity.ExtractedFields{}
	}
	if ai == nil {
		return out
	}
	if ai.InvoiceNumber != "" {
		out.InvoiceNumber = ai.InvoiceNumber
	}
	if ai.Date != "" {
		out.Date = ai.Date
	}
	if ai.Vendor != "" {
		out.Vendor = ai.Vendor
	}
	if nonZero(ai.TotalAmount) {
		out.TotalAmount = entity.Float(*ai.TotalAmount)
	}
	if len(ai.LineItems) > 0 {
		out.LineItems = append([]entity.LineItem(nil), ai.LineItems...)
	}
	if ai.Currency != "" {
		out.Currency = ai.Currency
	}
	if nonZero(ai.Subtotal) {
		out.Subtotal = entity.Float(*ai.Subtotal)
	}
	if nonZero(ai.Tax) {
		out.Tax = entity.Float(*ai.Tax)
	}
	if ai.TaxRate != "" {
		out.TaxRate = ai.TaxRate
	}
	if ai.DueDate != "" {
		out.DueDate = ai.DueDate
	}
	if ai.CustomerInfo != nil {
		ci := *ai.CustomerInfo
		out.CustomerInfo = &ci
	}
	return out
}

func nonZero(p *float64) bool {
	return p != nil && *p != 0
}

func cloneFields(f *entity.ExtractedFields) *entity.ExtractedFields {
	if f == nil {
		return nil
	}
	c := *f
	if f.TotalAmount != nil {
		c.TotalAmount = entity.Float(*f.TotalAmount)
	}
	if f.Subtotal != nil {
		c.Subtotal = entity.Float(*f.Subtotal)
	}
	if f.Tax != nil {
		c.Tax = entity.Float(*f.Tax)
	}
	if f.LineItems != nil {
		c.LineItems = append([]entity.LineItem(nil), f.LineItems...)
	}
	if f.CustomerInfo != nil {
		ci := *f.CustomerInfo
		c.CustomerInfo = &ci
	}
	return &c
}
