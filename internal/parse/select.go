package parse

import (
	"strings"
)

// best returns the index of the highest-scoring entry, first one on ties, or -1.
func best(scores []int) int {
	idx := -1
	for i, s := range scores {
		if idx == -1 || s > scores[idx] {
			idx = i
		}
	}
	return idx
}

// SelectInvoiceNumber returns the best invoice number, or "" when none scores above zero.
func SelectInvoiceNumber(candidates []Candidate) string {
	scores := make([]int, len(candidates))
	for i, c := range candidates {
		scores[i] = InvoiceNumberRules.Score(c)
	}
	i := best(scores)
	if i < 0 || scores[i] <= 0 {
		return ""
	}
	return candidates[i].Value
}

// SelectDate returns the best candidate as YYYY-MM-DD, or "" when none parses.
func SelectDate(candidates []Candidate) string {
	var (
		valid  []string
		scores []int
	)
	for _, c := range candidates {
		t, ok := ParseDate(c.Value)
		if !ok {
			continue
		}
		valid = append(valid, FormatDate(t))
		scores = append(scores, DateRules.Score(c))
	}
	i := best(scores)
	if i < 0 {
		return ""
	}
	return valid[i]
}

// SelectVendor returns the trimmed best vendor, or "" when none scores above zero.
func SelectVendor(candidates []Candidate) string {
	scores := make([]int, len(candidates))
	for i, c := range candidates {
		scores[i] = VendorRules.Score(c)
	}
	i := best(scores)
	if i < 0 || scores[i] <= 0 {
		return ""
	}
	return strings.TrimSpace(candidates[i].Value)
}

// SelectTotal returns the best positive amount, or nil when none parses.
func SelectTotal(candidates []Candidate) *float64 {
	var (
		values []float64
		scores []int
	)
	for _, c := range candidates {
		v, ok := ParseAmountFloat(c.Value)
		if !ok || v <= 0 {
			continue
		}
		values = append(values, v)
		scores = append(scores, TotalRules.Score(c))
	}
	i := best(scores)
	if i < 0 {
		return nil
	}
	v := values[i]
	return &v
}
