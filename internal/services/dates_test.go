package services

import "testing"

func TestNormalizeDate_ISO(t *testing.T) {
	got, ok := NormalizeDate("2024-01-15")
	if !ok || got != "2024-01-15" {
		t.Errorf("NormalizeDate(2024-01-15) = %q, %v", got, ok)
	}
}

func TestNormalizeDate_SlashMonthFirst(t *testing.T) {
	got, ok := NormalizeDate("1/15/2024")
	if !ok || got != "2024-01-15" {
		t.Errorf("NormalizeDate(1/15/2024) = %q, %v", got, ok)
	}
}

func TestNormalizeDate_SlashSwapped(t *testing.T) {
	// First component cannot be a month, so it is treated as the day
	got, ok := NormalizeDate("15/1/2024")
	if !ok || got != "2024-01-15" {
		t.Errorf("NormalizeDate(15/1/2024) = %q, %v", got, ok)
	}
}

func TestNormalizeDate_DottedDayFirst(t *testing.T) {
	got, ok := NormalizeDate("15.01.2024")
	if !ok || got != "2024-01-15" {
		t.Errorf("NormalizeDate(15.01.2024) = %q, %v", got, ok)
	}
}

func TestNormalizeDate_TwoDigitYear(t *testing.T) {
	got, ok := NormalizeDate("15.01.24")
	if !ok || got != "2024-01-15" {
		t.Errorf("NormalizeDate(15.01.24) = %q, %v", got, ok)
	}
}

func TestNormalizeDate_Whitespace(t *testing.T) {
	got, ok := NormalizeDate("  2024-01-15  ")
	if !ok || got != "2024-01-15" {
		t.Errorf("NormalizeDate with padding = %q, %v", got, ok)
	}
}

func TestNormalizeDate_Invalid(t *testing.T) {
	invalid := []string{
		"",
		"   ",
		"not a date",
		"2024-13-01",
		"32/1/2024",
		"0.0.2024",
		"1899-12-31",
		"2201-01-01",
	}

	for _, raw := range invalid {
		if got, ok := NormalizeDate(raw); ok {
			t.Errorf("NormalizeDate(%q) = %q, expected invalid", raw, got)
		}
	}
}

func TestNormalizeDate_AmbiguousSlashIsMonthFirst(t *testing.T) {
	// Both components could be months; month-first wins
	got, ok := NormalizeDate("2/3/2024")
	if !ok || got != "2024-02-03" {
		t.Errorf("NormalizeDate(2/3/2024) = %q, %v, expected 2024-02-03", got, ok)
	}
}
