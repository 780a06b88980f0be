package parse

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/shopspring/decimal"

	"github.com/joseph-ayodele/invoice-tracker/internal/entity"
)

// reLineTail matches the "qty [cur]unit [cur]total" end of a row, with dot or comma decimals.
var reLineTail = regexp.MustCompile(
	`(?:^|\s)(\d+)\s+` + currencySymbols + `?\s?(\d{1,5}(?:[.,]\d{2})?)\s+` + currencySymbols + `?\s?(\d{1,6}(?:[.,]\d{2})?)\b`,
)

var (
	reDescription = regexp.MustCompile(`^[A-Za-z][\w ]{1,29}$`)
	reLastWord    = regexp.MustCompile(`[A-Za-z]\w+$`)
)

var lineItemStopWords = toSet(
	"quantity", "qty", "rate", "amount", "total", "subtotal", "tax", "vat",
	"discount", "shipping", "balance", "due", "sum", "grand", "net",
	"description", "item", "items", "product", "service", "unit", "price",
	"invoice", "bill", "date", "number", "payment", "terms", "company",
	"jan", "feb", "mar", "apr", "may", "jun", "jul", "aug", "sep", "oct", "nov", "dec",
	"january", "february", "march", "april", "june", "july", "august", "september",
	"october", "november", "december",
	"monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "sunday",
)

const (
	maxQuantity  = 1000
	maxUnitPrice = 10000
	maxLineTotal = 50000
)

var lineTolerance = decimal.RequireFromString("0.02")

// ExtractLineItems returns the validated line items of text in order of first
// appearance, deduplicated case-insensitively by description. Each row's
// description is the text between the previous row (or line start) and its
// numbers; when that is not a plausible description, only its last word is used.
func ExtractLineItems(text string) []entity.LineItem {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	var items []entity.LineItem
	seen := map[string]struct{}{}
	prev := 0
	for _, loc := range reLineTail.FindAllStringSubmatchIndex(text, -1) {
		desc := rowDescription(text[prev:loc[0]])
		prev = loc[1]
		if desc == "" {
			continue
		}
		item, ok := validLineItem(desc, text[loc[2]:loc[3]], text[loc[4]:loc[5]], text[loc[6]:loc[7]])
		if !ok {
			continue
		}
		key := strings.ToLower(item.Description)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		items = append(items, item)
	}
	return items
}

func rowDescription(prefix string) string {
	if i := strings.LastIndexByte(prefix, '\n'); i >= 0 {
		prefix = prefix[i+1:]
	}
	prefix = strings.TrimSpace(reWhitespace.ReplaceAllString(prefix, " "))
	if reDescription.MatchString(prefix) {
		return prefix
	}
	return reLastWord.FindString(prefix)
}

func validLineItem(desc, qtyStr, unitStr, totalStr string) (entity.LineItem, bool) {
	lower := strings.ToLower(desc)
	if len(lower) < 2 || len(lower) > 30 {
		return entity.LineItem{}, false
	}
	if _, stop := lineItemStopWords[lower]; stop {
		return entity.LineItem{}, false
	}
	qty, ok1 := ParseAmount(qtyStr)
	unit, ok2 := ParseAmount(unitStr)
	total, ok3 := ParseAmount(totalStr)
	if !ok1 || !ok2 || !ok3 {
		return entity.LineItem{}, false
	}
	if !inOpenRange(qty, maxQuantity) || !inOpenRange(unit, maxUnitPrice) || !inOpenRange(total, maxLineTotal) {
		return entity.LineItem{}, false
	}
	if qty.Mul(unit).Sub(total).Abs().GreaterThan(lineTolerance) {
		return entity.LineItem{}, false
	}
	letters, digits := 0, 0
	for _, r := range lower {
		switch {
		case unicode.IsLetter(r):
			letters++
		case unicode.IsDigit(r):
			digits++
		}
	}
	if letters == 0 || digits > letters {
		return entity.LineItem{}, false
	}
	return entity.LineItem{
		Description: desc,
		Quantity:    qty.InexactFloat64(),
		UnitPrice:   unit.InexactFloat64(),
		Total:       total.InexactFloat64(),
	}, true
}

// inOpenRange reports 0 < d <= hi.
func inOpenRange(d decimal.Decimal, hi int64) bool {
	return d.IsPositive() && d.LessThanOrEqual(decimal.NewFromInt(hi))
}

func toSet(words ...string) map[string]struct{} {
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[w] = struct{}{}
	}
	return m
}
