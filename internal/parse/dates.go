package parse

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

const (
	minYear = 2000
	maxYear = 2030
)

// layouts tried before the numeric fallback.
var dateLayouts = []string{
	"2006-01-02",
	"2006/01/02",
	"2006.01.02",
	"2006-1-2",
	"2006/1/2",
	"2006.1.2",
	"January 2, 2006",
	"January 2 2006",
	"Jan 2, 2006",
	"Jan 2 2006",
	"2 January 2006",
	"2 Jan 2006",
	"02 Jan 2006",
	"2 January, 2006",
	time.RFC3339,
}

var (
	reNumericDate = regexp.MustCompile(`^(\d{1,2})[/\-.](\d{1,2})[/\-.](\d{2,4})$`)
	reWrittenDMY  = regexp.MustCompile(`^(\d{1,2})\s+([A-Za-z]+)\s+(\d{4})$`)
	reWrittenMDY  = regexp.MustCompile(`^([A-Za-z]+)\s+(\d{1,2}),?\s+(\d{4})$`)
)

var monthPrefixes = map[string]time.Month{
	"jan": time.January, "feb": time.February, "mar": time.March, "apr": time.April,
	"may": time.May, "jun": time.June, "jul": time.July, "aug": time.August,
	"sep": time.September, "oct": time.October, "nov": time.November, "dec": time.December,
}

// ParseDate parses an invoice date string into a calendar date within [2000, 2030].
// Ambiguous numeric dates are read as M/D/Y first and D/M/Y second, so "03/04/2024"
// is March 4th.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return inRange(t)
		}
	}
	if m := reWrittenDMY.FindStringSubmatch(s); m != nil {
		if t, ok := writtenDate(m[3], m[2], m[1]); ok {
			return inRange(t)
		}
	}
	if m := reWrittenMDY.FindStringSubmatch(s); m != nil {
		if t, ok := writtenDate(m[3], m[1], m[2]); ok {
			return inRange(t)
		}
	}
	m := reNumericDate.FindStringSubmatch(s)
	if m == nil {
		return time.Time{}, false
	}
	a, _ := strconv.Atoi(m[1])
	b, _ := strconv.Atoi(m[2])
	year, ok := expandYear(m[3])
	if !ok {
		return time.Time{}, false
	}
	if t, ok := calendarDate(year, a, b); ok {
		return inRange(t)
	}
	if t, ok := calendarDate(year, b, a); ok {
		return inRange(t)
	}
	return time.Time{}, false
}

// FormatDate renders t as YYYY-MM-DD.
func FormatDate(t time.Time) string {
	return t.Format("2006-01-02")
}

// NormalizeDate returns s as YYYY-MM-DD when it parses, otherwise s unchanged.
func NormalizeDate(s string) string {
	if t, ok := ParseDate(s); ok {
		return FormatDate(t)
	}
	return s
}

func writtenDate(yearStr, monthStr, dayStr string) (time.Time, bool) {
	if len(monthStr) < 3 {
		return time.Time{}, false
	}
	month, ok := monthPrefixes[strings.ToLower(monthStr[:3])]
	if !ok {
		return time.Time{}, false
	}
	year, _ := strconv.Atoi(yearStr)
	day, _ := strconv.Atoi(dayStr)
	return calendarDate(year, int(month), day)
}

func expandYear(s string) (int, bool) {
	y, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	switch len(s) {
	case 2:
		return 2000 + y, true
	case 4:
		return y, true
	default:
		return 0, false
	}
}

// calendarDate rejects overflowing dates such as February 30th.
func calendarDate(year, month, day int) (time.Time, bool) {
	if month < 1 || month > 12 || day < 1 || day > 31 {
		return time.Time{}, false
	}
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if t.Month() != time.Month(month) || t.Day() != day {
		return time.Time{}, false
	}
	return t, true
}

func inRange(t time.Time) (time.Time, bool) {
	if t.Year() < minYear || t.Year() > maxYear {
		return time.Time{}, false
	}
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), true
}
