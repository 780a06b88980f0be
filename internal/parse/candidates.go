package parse

import (
	"regexp"
	"strings"
)

// FieldType tags which invoice field a candidate may fill.
type FieldType string

const (
	FieldInvoiceNumber FieldType = "invoiceNumber"
	FieldDate          FieldType = "date"
	FieldVendor        FieldType = "vendor"
	FieldTotal         FieldType = "total"
)

// Candidate is one regex match considered for a field.
type Candidate struct {
	Value     string
	FullMatch string
	Position  int // byte offset of FullMatch in the scanned text
	FieldType FieldType
	SourceLen int // length of the scanned text
}

// Pattern is one entry of the ordered pattern table. Capture group 1 is the value.
type Pattern struct {
	Re        *regexp.Regexp
	FieldType FieldType
}

const currencySymbols = `[$€£¥¢]`

// Patterns is the ordered pattern table for every field. Order matters: on equal
// scores the selectors keep the candidate found first.
var Patterns = []Pattern{
	// labelled invoice numbers
	{regexp.MustCompile(`(?i)(?:invoice\s*(?:number|no|num|#)?)\s*:?\s*([A-Za-z0-9\-_.]+)`), FieldInvoiceNumber},
	{regexp.MustCompile(`(?i)(?:inv\s*(?:number|no|num|#)?)\s*:?\s*([A-Za-z0-9\-_.]+)`), FieldInvoiceNumber},
	{regexp.MustCompile(`(?i)(?:bill\s*(?:number|no|num|#)?)\s*:?\s*([A-Za-z0-9\-_.]+)`), FieldInvoiceNumber},
	{regexp.MustCompile(`(?i)(?:reference\s*(?:number|no|num|#)?)\s*:?\s*([A-Za-z0-9\-_.]+)`), FieldInvoiceNumber},
	{regexp.MustCompile(`(?i)(?:document\s*(?:number|no|num|#)?)\s*:?\s*([A-Za-z0-9\-_.]+)`), FieldInvoiceNumber},
	{regexp.MustCompile(`#\s*([A-Za-z0-9\-_.]{3,20})`), FieldInvoiceNumber},
	{regexp.MustCompile(`(?i)\b(?:INV|INVOICE)\s*([A-Za-z0-9\-_.]{3,20})`), FieldInvoiceNumber},
	{regexp.MustCompile(`\b([A-Z]{2,4}-?\d{3,10})\b`), FieldInvoiceNumber},
	{regexp.MustCompile(`\b(\d{4,10}[A-Z]*)\b`), FieldInvoiceNumber},
	{regexp.MustCompile(`(?m)^([A-Z0-9\-_.]{5,20})\s`), FieldInvoiceNumber},

	// dates
	{regexp.MustCompile(`(?i)(?:date|dated|invoice\s*date|bill\s*date|created)\s*:?\s*(\d{1,2}[/\-.]\d{1,2}[/\-.]\d{2,4})`), FieldDate},
	{regexp.MustCompile(`(?i)(?:date|dated|invoice\s*date|bill\s*date|created)\s*:?\s*(\d{4}[/\-.]\d{1,2}[/\-.]\d{1,2})`), FieldDate},
	{regexp.MustCompile(`\b(\d{1,2}[/\-.]\d{1,2}[/\-.]\d{4})\b`), FieldDate},
	{regexp.MustCompile(`\b(\d{4}[/\-.]\d{1,2}[/\-.]\d{1,2})\b`), FieldDate},
	{regexp.MustCompile(`(?i)\b(\d{1,2}\s+(?:Jan|Feb|Mar|Apr|May|Jun|Jul|Aug|Sep|Oct|Nov|Dec)[a-z]*\s+\d{4})\b`), FieldDate},
	{regexp.MustCompile(`(?i)\b((?:January|February|March|April|May|June|July|August|September|October|November|December)\s+\d{1,2},?\s+\d{4})\b`), FieldDate},

	// vendors
	{regexp.MustCompile(`(?i)(?:from|vendor|company|supplier|billed?\s*by|invoice[dr]?\s*by)\s*:?\s*([^\n\r]{3,80})`), FieldVendor},
	{regexp.MustCompile(`(?i)(?:sold\s*by|issued\s*by|bill\s*to)\s*:?\s*([^\n\r]{3,80})`), FieldVendor},
	{regexp.MustCompile(`\b([A-Z][A-Za-z\s&,.\-']{5,60}(?:Inc|LLC|Corp|Ltd|Co|Company|Corporation|Limited)\.?)\b`), FieldVendor},
	{regexp.MustCompile(`(?m)^([A-Z][A-Za-z\s&,.\-']{5,60})\s*$`), FieldVendor},
	{regexp.MustCompile(`([A-Z][A-Za-z\s&,.\-']{10,})\s+\d+\s+[A-Za-z\s]+`), FieldVendor},

	// totals
	{regexp.MustCompile(`(?i)(?:total|amount\s*due|grand\s*total|balance\s*due|final\s*amount|total\s*amount)\s*:?\s*` + currencySymbols + `?\s*(\d+[,.]?\d*\.?\d*)`), FieldTotal},
	{regexp.MustCompile(currencySymbols + `\s*(\d+[,.]\d{2})\b`), FieldTotal},
	{regexp.MustCompile(`(?m)(\d+[,.]\d{2})\s*$`), FieldTotal},
	{regexp.MustCompile(`\b(\d{2,6}[,.]\d{2})\b`), FieldTotal},
}

// ExtractCandidates runs every pattern of fieldType over text, in table order,
// and returns one candidate per match whose trimmed group 1 is non-empty.
func ExtractCandidates(text string, patterns []Pattern, fieldType FieldType) []Candidate {
	var out []Candidate
	for _, p := range patterns {
		if p.FieldType != fieldType {
			continue
		}
		for _, m := range p.Re.FindAllStringSubmatchIndex(text, -1) {
			if len(m) < 4 || m[2] < 0 {
				continue
			}
			value := strings.TrimSpace(text[m[2]:m[3]])
			if value == "" {
				continue
			}
			out = append(out, Candidate{
				Value:     value,
				FullMatch: text[m[0]:m[1]],
				Position:  m[0],
				FieldType: fieldType,
				SourceLen: len(text),
			})
		}
	}
	return out
}

var reWhitespace = regexp.MustCompile(`\s+`)

// CleanText normalizes line endings, collapses whitespace runs to one space and trims.
func CleanText(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = reWhitespace.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}
