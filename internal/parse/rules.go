package parse

import (
	"regexp"
	"strings"
)

// Rule adds Points to a candidate's score when Match holds.
type Rule struct {
	Name   string
	Points int
	Match  func(c Candidate) bool
}

// RuleSet is a declarative scoring table.
type RuleSet []Rule

// Score sums the points of every matching rule.
func (rs RuleSet) Score(c Candidate) int {
	score := 0
	for _, r := range rs {
		if r.Match(c) {
			score += r.Points
		}
	}
	return score
}

func contextContains(word string) func(Candidate) bool {
	return func(c Candidate) bool {
		return strings.Contains(strings.ToLower(c.FullMatch), word)
	}
}

func valueLenBetween(lo, hi int) func(Candidate) bool {
	return func(c Candidate) bool {
		n := len(c.Value)
		return n >= lo && n <= hi
	}
}

func upperValueMatches(re *regexp.Regexp) func(Candidate) bool {
	return func(c Candidate) bool {
		return re.MatchString(strings.ToUpper(c.Value))
	}
}

func valueMatches(re *regexp.Regexp) func(Candidate) bool {
	return func(c Candidate) bool {
		return re.MatchString(c.Value)
	}
}

func amountBetween(lo, hi float64) func(Candidate) bool {
	return func(c Candidate) bool {
		v, ok := ParseAmountFloat(c.Value)
		return ok && v >= lo && v <= hi
	}
}

// InvoiceNumberRules scores invoice-number candidates.
var InvoiceNumberRules = RuleSet{
	{"length 3-20", 10, valueLenBetween(3, 20)},
	{"length 5-12", 5, valueLenBetween(5, 12)},
	{"letters-digits", 20, upperValueMatches(regexp.MustCompile(`^[A-Z]{2,4}-?\d{3,}$`))},
	{"digits+letters", 15, upperValueMatches(regexp.MustCompile(`^\d{4,}[A-Z]*$`))},
	{"letters+digits", 15, upperValueMatches(regexp.MustCompile(`^[A-Z]+\d+$`))},
	{"context invoice", 25, contextContains("invoice")},
	{"context inv", 20, contextContains("inv")},
	{"context reference", 15, contextContains("reference")},
	{"context bill", 10, contextContains("bill")},
	{"context hash", 10, contextContains("#")},
	{"reserved word", -50, upperValueMatches(regexp.MustCompile(`^(TOTAL|DATE|AMOUNT|USD|EUR|TAX)$`))},
	{"filler word", -30, upperValueMatches(regexp.MustCompile(`^(THE|AND|FOR|WITH)$`))},
}

// DateRules scores date candidates that already parsed.
var DateRules = RuleSet{
	{"context date", 20, contextContains("date")},
	{"context invoice", 15, contextContains("invoice")},
	{"context bill", 10, contextContains("bill")},
	{"d/m/yyyy shape", 15, valueMatches(regexp.MustCompile(`\d{1,2}[/\-.]\d{1,2}[/\-.]\d{4}`))},
	{"yyyy/m/d shape", 10, valueMatches(regexp.MustCompile(`\d{4}[/\-.]\d{1,2}[/\-.]\d{1,2}`))},
}

// VendorRules scores vendor candidates.
var VendorRules = RuleSet{
	{"length 5-80", 10, valueLenBetween(5, 80)},
	{"length 10-50", 5, valueLenBetween(10, 50)},
	{"legal suffix", 20, valueMatches(regexp.MustCompile(`(?i)(?:Inc|LLC|Corp|Ltd|Co|Company|Corporation|Limited)\.?$`))},
	{"context from", 15, contextContains("from")},
	{"context vendor", 20, contextContains("vendor")},
	{"context company", 15, contextContains("company")},
	{"context billed by", 20, contextContains("billed by")},
	{"capitalized", 5, valueMatches(regexp.MustCompile(`^[A-Z]`))},
	{"label word", -30, valueMatches(regexp.MustCompile(`(?i)^(invoice|total|date|amount|description|quantity|price)`))},
}

// TotalRules scores total-amount candidates that already parsed to a positive number.
var TotalRules = RuleSet{
	{"context total", 25, contextContains("total")},
	{"context amount due", 30, contextContains("amount due")},
	{"context grand total", 30, contextContains("grand total")},
	{"context balance", 20, contextContains("balance")},
	{"currency symbol", 15, func(c Candidate) bool { return reCurrencySymbol.MatchString(c.FullMatch) }},
	{"range 10-100000", 10, amountBetween(10, 100000)},
	{"range 50-10000", 5, amountBetween(50, 10000)},
	{"two decimals", 10, func(c Candidate) bool { return reTwoDecimals.MatchString(normalizeAmount(c.Value)) }},
	{"trailing position", 5, func(c Candidate) bool { return float64(c.Position) > 0.7*float64(c.SourceLen) }},
}

var (
	reCurrencySymbol = regexp.MustCompile(currencySymbols)
	reTwoDecimals    = regexp.MustCompile(`\.\d{2}$`)
)
