package parse

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

var reCommaDecimal = regexp.MustCompile(`^\d+,\d{1,2}$`)

// normalizeAmount turns "1,234.56" into "1234.56" and a lone comma decimal "12,50" into "12.50".
func normalizeAmount(s string) string {
	s = strings.TrimSpace(s)
	s = strings.Map(func(r rune) rune {
		if r == ' ' || r == '\u00a0' {
			return -1
		}
		return r
	}, s)
	if reCommaDecimal.MatchString(s) {
		return strings.Replace(s, ",", ".", 1)
	}
	return strings.ReplaceAll(s, ",", "")
}

// ParseAmount parses a money string exactly.
func ParseAmount(s string) (decimal.Decimal, bool) {
	n := normalizeAmount(s)
	if n == "" {
		return decimal.Zero, false
	}
	d, err := decimal.NewFromString(n)
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}

// ParseAmountFloat is ParseAmount for callers that store float64.
func ParseAmountFloat(s string) (float64, bool) {
	d, ok := ParseAmount(s)
	if !ok {
		return 0, false
	}
	return d.InexactFloat64(), true
}
