package parse

import (
	"regexp"
	"strings"
)

// amountGroup captures thousands-grouped amounts such as 1,234.56 or 12,50.
const amountGroup = `(\d+(?:[.,]\d{3})*(?:[.,]\d{1,2})?)`

var (
	reSubtotal = regexp.MustCompile(`(?i)(?:subtotal|sub\s*total)\s*:?\s*` + currencySymbols + `?\s*` + amountGroup)
	reTax      = regexp.MustCompile(`(?i)(?:tax|vat|sales\s*tax)\s*:?\s*` + currencySymbols + `?\s*` + amountGroup)
	reTaxRate  = regexp.MustCompile(`(?i)(?:tax|vat)\s*(?:rate)?\s*:?\s*(\d+[.,]?\d*%)`)

	reEUR = regexp.MustCompile(`(?i)EUR`)
	reGBP = regexp.MustCompile(`(?i)GBP`)
	reJPY = regexp.MustCompile(`(?i)JPY`)
	reUSD = regexp.MustCompile(`(?i)USD`)
)

// DefaultCurrency is used when no marker is found.
const DefaultCurrency = "USD"

// DetectCurrency picks the first currency whose symbol or code appears, checked in
// EUR, GBP, JPY, USD order.
func DetectCurrency(text string) string {
	switch {
	case strings.Contains(text, "€") || reEUR.MatchString(text):
		return "EUR"
	case strings.Contains(text, "£") || reGBP.MatchString(text):
		return "GBP"
	case strings.Contains(text, "¥") || reJPY.MatchString(text):
		return "JPY"
	case strings.Contains(text, "$") || reUSD.MatchString(text):
		return "USD"
	}
	return DefaultCurrency
}

// ExtractSubtotal returns the first labelled subtotal, or nil.
func ExtractSubtotal(text string) *float64 {
	return firstAmount(reSubtotal, text)
}

// ExtractTax returns the first labelled tax amount, or nil.
func ExtractTax(text string) *float64 {
	return firstAmount(reTax, text)
}

// ExtractTaxRate returns the first labelled percentage such as "8.5%", or "".
func ExtractTaxRate(text string) string {
	m := reTaxRate.FindStringSubmatch(text)
	if m == nil {
		return ""
	}
	return m[1]
}

func firstAmount(re *regexp.Regexp, text string) *float64 {
	m := re.FindStringSubmatch(text)
	if m == nil {
		return nil
	}
	v, ok := ParseAmountFloat(strings.TrimRight(m[1], ".,"))
	if !ok || v == 0 {
		return nil
	}
	return &v
}
