package services

import "testing"

func TestNormalizeHeader(t *testing.T) {
	cases := []struct {
		in       string
		expected string
	}{
		{"Date", "date"},
		{"  Issue Date  ", "issue_date"},
		{"Client ID", "client_id"},
		{"CLIENT-ID", "clientid"},
		{"Дата", "дата"},
		{"Кол-во возвратов", "колво_возвратов"},
		{"qc reason 1", "qc_reason_1"},
		{"a__b", "a_b"},
		{"trailing ", "trailing"},
		{"???", ""},
		{"", ""},
	}

	for _, tc := range cases {
		if got := NormalizeHeader(tc.in); got != tc.expected {
			t.Errorf("NormalizeHeader(%q) = %q, expected %q", tc.in, got, tc.expected)
		}
	}
}

func TestBuildRow(t *testing.T) {
	headers := []string{"Date", "Type", "Responsible", "Comment"}
	cells := []string{" 2024-01-15 ", "missed call", "Ivanov I."}

	row := BuildRow(headers, cells)

	if row["date"] != "2024-01-15" {
		t.Errorf("date = %q", row["date"])
	}
	if row["type"] != "missed call" {
		t.Errorf("type = %q", row["type"])
	}
	if row["responsible"] != "Ivanov I." {
		t.Errorf("responsible = %q", row["responsible"])
	}
	// Missing trailing cell becomes empty, not absent
	if value, ok := row["comment"]; !ok || value != "" {
		t.Errorf("comment = %q, ok=%v", value, ok)
	}
}

func TestBuildRow_DuplicateHeaderFirstWins(t *testing.T) {
	headers := []string{"Date", "date "}
	cells := []string{"2024-01-15", "2025-06-01"}

	row := BuildRow(headers, cells)

	if row["date"] != "2024-01-15" {
		t.Errorf("duplicate header: got %q, expected first column to win", row["date"])
	}
}

func TestBuildRow_ExtraCellsDropped(t *testing.T) {
	row := BuildRow([]string{"Date"}, []string{"2024-01-15", "stray"})

	if len(row) != 1 {
		t.Errorf("expected 1 field, got %d", len(row))
	}
}

func TestPickField(t *testing.T) {
	row := Row{"дата": "2024-01-15", "type": ""}

	if got := PickField(row, issueDateKeys...); got != "2024-01-15" {
		t.Errorf("PickField(date synonyms) = %q", got)
	}
	// Empty values are skipped, not returned
	if got := PickField(row, "type", "тип"); got != "" {
		t.Errorf("PickField over empty values = %q", got)
	}
	if got := PickField(row, "missing"); got != "" {
		t.Errorf("PickField(missing) = %q", got)
	}
}
