package services

import (
	"testing"

	"github.com/rkalenko/qcdash/internal/models"
)

func TestIssueRowHash_Length(t *testing.T) {
	hash := IssueRowHash(Row{"date": "2024-01-15"})
	if len(hash) != rowHashLen {
		t.Errorf("hash length = %d, expected %d", len(hash), rowHashLen)
	}
}

func TestIssueRowHash_Deterministic(t *testing.T) {
	row := Row{"date": "2024-01-15", "type": "missed call", "responsible": "Ivanov I."}

	if IssueRowHash(row) != IssueRowHash(row) {
		t.Error("same row produced different hashes")
	}
}

func TestIssueRowHash_ValueSensitive(t *testing.T) {
	a := Row{"date": "2024-01-15", "type": "missed call"}
	b := Row{"date": "2024-01-15", "type": "late reply"}

	if IssueRowHash(a) == IssueRowHash(b) {
		t.Error("different values produced the same hash")
	}
}

func TestIssueRowHash_KeyOrderIndependent(t *testing.T) {
	// Maps iterate in random order; build from opposite insertion orders to
	// make the point explicit.
	a := Row{}
	a["date"] = "2024-01-15"
	a["type"] = "missed call"
	a["responsible"] = "Ivanov I."

	b := Row{}
	b["responsible"] = "Ivanov I."
	b["type"] = "missed call"
	b["date"] = "2024-01-15"

	if IssueRowHash(a) != IssueRowHash(b) {
		t.Error("column order changed the hash")
	}
}

func TestReturnRowHash_Stable(t *testing.T) {
	reasons := []models.ReturnReason{
		{Reason: "CC: no answer", Count: 2, CCFault: true},
		{Reason: "wrong number", Count: 1},
	}

	a := ReturnRowHash("2024-01-15", "Acme", "c-100", "IV", reasons)
	b := ReturnRowHash("2024-01-15", "Acme", "c-100", "IV", reasons)
	if a != b {
		t.Error("same return row produced different hashes")
	}
	if len(a) != rowHashLen {
		t.Errorf("hash length = %d, expected %d", len(a), rowHashLen)
	}
}

func TestReturnRowHash_ReasonSensitive(t *testing.T) {
	base := []models.ReturnReason{{Reason: "CC: no answer", Count: 2}}
	changedCount := []models.ReturnReason{{Reason: "CC: no answer", Count: 3}}
	changedReason := []models.ReturnReason{{Reason: "CC: rude tone", Count: 2}}

	a := ReturnRowHash("2024-01-15", "Acme", "c-100", "IV", base)
	if a == ReturnRowHash("2024-01-15", "Acme", "c-100", "IV", changedCount) {
		t.Error("count edit did not change the hash")
	}
	if a == ReturnRowHash("2024-01-15", "Acme", "c-100", "IV", changedReason) {
		t.Error("reason edit did not change the hash")
	}
}

func TestReturnRowHash_IdentitySensitive(t *testing.T) {
	reasons := []models.ReturnReason{{Reason: "wrong number", Count: 1}}

	a := ReturnRowHash("2024-01-15", "Acme", "c-100", "IV", reasons)
	b := ReturnRowHash("2024-01-16", "Acme", "c-100", "IV", reasons)
	if a == b {
		t.Error("date change did not change the hash")
	}
}
