package services

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Fallback layouts tried after the separator-based rules. Generic calendar
// strings occasionally show up in manually edited sheets.
var fallbackDateLayouts = []string{
	"2006-01-02T15:04:05",
	"Jan 2, 2006",
	"January 2, 2006",
	"2 Jan 2006",
	"02-01-2006",
}

// NormalizeDate parses an ambiguous spreadsheet date string into canonical
// YYYY-MM-DD form. The separator is the locale signal: slash dates default to
// month-first (US exports), dot dates are day-first (European exports).
// Returns ok=false for empty or unparseable input.
func NormalizeDate(raw string) (string, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", false
	}

	// ISO: YYYY-M-D / YYYY-MM-DD
	if parts := strings.Split(raw, "-"); len(parts) == 3 && len(parts[0]) == 4 {
		if date, ok := buildDate(parts[0], parts[1], parts[2]); ok {
			return date, true
		}
	}

	// Slash-delimited: month-first unless a component forces reinterpretation.
	if parts := strings.Split(raw, "/"); len(parts) == 3 {
		first, err1 := strconv.Atoi(strings.TrimSpace(parts[0]))
		second, err2 := strconv.Atoi(strings.TrimSpace(parts[1]))
		if err1 == nil && err2 == nil {
			month, day := first, second
			if first > 12 && second <= 12 {
				// First part cannot be a month; treat it as the day.
				month, day = second, first
			}
			if date, ok := buildDate(parts[2], strconv.Itoa(month), strconv.Itoa(day)); ok {
				return date, true
			}
		}
	}

	// Dot-delimited: day-first.
	if parts := strings.Split(raw, "."); len(parts) == 3 {
		if date, ok := buildDate(parts[2], parts[1], parts[0]); ok {
			return date, true
		}
	}

	// Last resort: generic calendar-string layouts.
	for _, layout := range fallbackDateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.Format("2006-01-02"), true
		}
	}

	return "", false
}

// buildDate validates numeric year/month/day strings and formats them. Two
// digit years are promoted by adding 2000.
func buildDate(yearStr, monthStr, dayStr string) (string, bool) {
	year, err := strconv.Atoi(strings.TrimSpace(yearStr))
	if err != nil {
		return "", false
	}
	month, err := strconv.Atoi(strings.TrimSpace(monthStr))
	if err != nil {
		return "", false
	}
	day, err := strconv.Atoi(strings.TrimSpace(dayStr))
	if err != nil {
		return "", false
	}

	if year < 100 {
		year += 2000
	}
	if year < 1900 || year > 2200 {
		return "", false
	}
	if month < 1 || month > 12 {
		return "", false
	}
	if day < 1 || day > 31 {
		return "", false
	}

	return fmt.Sprintf("%04d-%02d-%02d", year, month, day), true
}
