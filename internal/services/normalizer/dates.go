package normalizer

import (
	"strings"
	"time"
)

// Strict layouts tried first, in order: day-month-year, then the same with
// a time component.
var strictLayouts = []string{
	"02-01-2006",
	"02-01-2006 15:04:05",
}

// Lenient layouts keep the day-before-month preference of the source data.
var lenientLayouts = []string{
	"2-1-2006",
	"02/01/2006",
	"2/1/2006",
	"02/01/2006 15:04:05",
	"2006-01-02",
	"2006/01/02",
	"2006-01-02 15:04:05",
	"20060102",
	"02.01.2006",
}

// ParseDate parses a date string with a three-tier fallback: strict
// day-month-year, day-month-year with time, then lenient day-first
// scanning. Returns false instead of an error; unparseable cells become
// nulls upstream.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, "nan") {
		return time.Time{}, false
	}

	for _, layout := range strictLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	for _, layout := range lenientLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
