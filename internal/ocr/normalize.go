package ocr

import (
	"regexp"
	"strings"
)

var (
	reCRLF       = regexp.MustCompile(`\r\n?`)
	reTabs       = regexp.MustCompile(`\t+`)
	reMultiSpace = regexp.MustCompile(` {2,}`)
	reMultiBlank = regexp.MustCompile(`\n{3,}`)
	reBoxNoise   = regexp.MustCompile(`(?m)^\s*[_\-=]{3,}\s*$`)
)

// qualitySignals are the cues an acquired invoice page usually shows, with their weights.
var qualitySignals = []struct {
	re     *regexp.Regexp
	weight int
}{
	{regexp.MustCompile(`\b(invoice|inv\s*#|bill\s+to|statement)\b`), 25},
	{regexp.MustCompile(`\b(total|amount\s+due|balance\s+due)\b`), 15},
	{regexp.MustCompile(`\b\d{1,4}[/\-.]\d{1,2}[/\-.]\d{2,4}\b`), 20},
	{regexp.MustCompile(`\b\d{1,3}(,\d{3})*\.\d{2}\b`), 20},
	{regexp.MustCompile(`\b(usd|eur|gbp|cad|aud|inr|jpy)\b|[$£€¥]`), 10},
}

// Normalize collapses noisy whitespace and drops ruler lines. Line breaks are kept;
// runs of blank lines collapse to one.
func Normalize(s string) string {
	if s == "" {
		return s
	}
	s = reCRLF.ReplaceAllString(s, "\n")
	s = reBoxNoise.ReplaceAllString(s, "")
	s = reTabs.ReplaceAllString(s, " ")
	s = reMultiSpace.ReplaceAllString(s, " ")
	s = reMultiBlank.ReplaceAllString(s, "\n\n")
	lines := strings.Split(s, "\n")
	for i := range lines {
		lines[i] = strings.TrimRight(lines[i], " ")
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

// TextQuality scores 0..100 how much acquired text looks like an invoice. It
// is logged next to each acquisition to spot bad scans.
func TextQuality(txt string) int {
	lower := strings.ToLower(txt)
	score := 0
	for _, sig := range qualitySignals {
		if sig.re.MatchString(lower) {
			score += sig.weight
		}
	}
	if len(txt) > 120 {
		score += 10
	}
	return min(score, 100)
}
