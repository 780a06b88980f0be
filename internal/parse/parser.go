package parse

import (
	"log/slog"
	"time"

	"github.com/joseph-ayodele/invoice-tracker/internal/entity"
)

// Parser turns raw invoice text into ExtractedFields using only heuristics.
type Parser struct {
	patterns []Pattern
	logger   *slog.Logger
}

func NewParser(logger *slog.Logger) *Parser {
	if logger == nil {
		logger = slog.Default()
	}
	return &Parser{patterns: Patterns, logger: logger}
}

// Parse cleans text, selects the best candidate per field and extracts line
// items and money extras. It never fails; absent fields stay empty.
func (p *Parser) Parse(text string) *entity.ExtractedFields {
	start := time.Now()
	clean := CleanText(text)

	invoiceNumbers := ExtractCandidates(clean, p.patterns, FieldInvoiceNumber)
	dates := ExtractCandidates(clean, p.patterns, FieldDate)
	vendors := ExtractCandidates(clean, p.patterns, FieldVendor)
	totals := ExtractCandidates(clean, p.patterns, FieldTotal)

	fields := &entity.ExtractedFields{
		InvoiceNumber: SelectInvoiceNumber(invoiceNumbers),
		Date:          SelectDate(dates),
		Vendor:        SelectVendor(vendors),
		TotalAmount:   SelectTotal(totals),
		LineItems:     ExtractLineItems(text),
		Currency:      DetectCurrency(text),
		Subtotal:      ExtractSubtotal(clean),
		Tax:           ExtractTax(clean),
		TaxRate:       ExtractTaxRate(clean),
	}

	p.logger.Debug("parse.result",
		"text_len", len(clean),
		"invoice_candidates", len(invoiceNumbers),
		"date_candidates", len(dates),
		"vendor_candidates", len(vendors),
		"total_candidates", len(totals),
		"invoice_number", fields.InvoiceNumber,
		"date", fields.Date,
		"vendor", fields.Vendor,
		"line_items", len(fields.LineItems),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return fields
}

// Parse runs a default Parser over text.
func Parse(text string) *entity.ExtractedFields {
	return NewParser(nil).Parse(text)
}
