package services

import (
	"context"
	"testing"

	"github.com/rkalenko/qcdash/internal/config"
	"github.com/rkalenko/qcdash/internal/models"
	"github.com/rkalenko/qcdash/internal/sheets"
)

func returnsConfig() *config.SyncConfig {
	return &config.SyncConfig{
		ReturnsSpreadsheetID: "returns-sheet",
		ReturnsSheetName:     "Returns",
	}
}

func returnsTable(rows ...[]string) *sheets.Table {
	return &sheets.Table{
		Headers: []string{
			"Date", "Client", "Block", "CID", "CC", "TL", "Returns",
			"Reason 1", "Count 1", "Reason 2", "Count 2",
			"QC Reason 1", "QC Count 1",
		},
		Rows: rows,
	}
}

func TestReturnsSync_InsertAndCounts(t *testing.T) {
	db := newTestDB(t)

	fetcher := &fakeFetcher{tables: map[string]*sheets.Table{
		"returns-sheet": returnsTable(
			// 2 direct CC leads without marker, 1 with, 3 QC leads with CC marker
			[]string{"2024-01-15", "Acme", "B1", "c-1", "iv", "Lead One", "6",
				"wrong number", "2", "CC: no answer", "1", "CC: rude tone", "3"},
		),
	}}
	svc := NewReturnsSyncService(db, fetcher, returnsConfig())

	result, err := svc.Run(context.Background())
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if result.RowsFetched != 1 || result.RowsInserted != 1 {
		t.Errorf("counts: %+v", result)
	}

	var record models.ReturnRecord
	if err := db.First(&record).Error; err != nil {
		t.Fatalf("record not found: %v", err)
	}
	if record.ReturnDate != "2024-01-15" {
		t.Errorf("return_date = %q", record.ReturnDate)
	}
	if record.CCAbbreviation != "IV" {
		t.Errorf("cc_abbreviation = %q, expected uppercased", record.CCAbbreviation)
	}
	if record.InitialReturns != 6 {
		t.Errorf("initial_returns = %d", record.InitialReturns)
	}
	// All counted slots
	if record.TotalLeads != 6 {
		t.Errorf("total_leads = %d, expected 6", record.TotalLeads)
	}
	// Only CC-marked reasons: 1 direct + 3 QC
	if record.FaultLeads != 4 {
		t.Errorf("fault_leads = %d, expected 4", record.FaultLeads)
	}

	reasons := record.ReasonList()
	if len(reasons) != 3 {
		t.Fatalf("reason count = %d, expected 3", len(reasons))
	}
	if reasons[0].Reason != "wrong number" || reasons[0].Count != 2 || reasons[0].CCFault {
		t.Errorf("slot 1 decoded as %+v", reasons[0])
	}
	if !reasons[1].CCFault || !reasons[2].CCFault {
		t.Errorf("marked slots should carry the fault flag: %+v", reasons[1:])
	}
}

func TestReturnsSync_QCSlotsRequireMarker(t *testing.T) {
	db := newTestDB(t)

	fetcher := &fakeFetcher{tables: map[string]*sheets.Table{
		"returns-sheet": returnsTable(
			// QC reason without a CC marker must not count at all
			[]string{"2024-01-15", "Acme", "", "c-1", "IV", "", "3",
				"wrong number", "2", "", "", "client refused", "5"},
		),
	}}
	svc := NewReturnsSyncService(db, fetcher, returnsConfig())

	if _, err := svc.Run(context.Background()); err != nil {
		t.Fatalf("run failed: %v", err)
	}

	var record models.ReturnRecord
	db.First(&record)
	if record.TotalLeads != 2 {
		t.Errorf("total_leads = %d, expected 2 (unmarked QC slot ignored)", record.TotalLeads)
	}
	if record.FaultLeads != 0 {
		t.Errorf("fault_leads = %d, expected 0", record.FaultLeads)
	}
}

func TestReturnsSync_SkipsNonPositiveInitial(t *testing.T) {
	db := newTestDB(t)

	fetcher := &fakeFetcher{tables: map[string]*sheets.Table{
		"returns-sheet": returnsTable(
			[]string{"2024-01-15", "Acme", "", "c-1", "IV", "", "0", "", "", "", "", "", ""},
			[]string{"2024-01-15", "Beta", "", "c-2", "IV", "", "-2", "", "", "", "", "", ""},
			[]string{"2024-01-15", "Gamma", "", "c-3", "IV", "", "", "", "", "", "", "", ""},
			[]string{"2024-01-15", "Delta", "", "c-4", "IV", "", "1", "wrong number", "1", "", "", "", ""},
		),
	}}
	svc := NewReturnsSyncService(db, fetcher, returnsConfig())

	result, err := svc.Run(context.Background())
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if result.RowsSkipped != 3 || result.RowsInserted != 1 {
		t.Errorf("counts: %+v", result)
	}
}

func TestReturnsSync_ResolvesAndBackfillsAbbreviation(t *testing.T) {
	db := newTestDB(t)

	fetcher := &fakeFetcher{tables: map[string]*sheets.Table{
		"returns-sheet": returnsTable(
			[]string{"2024-01-15", "Acme", "", "c-1", "iv", "", "1", "wrong number", "1", "", "", "", ""},
		),
	}}
	svc := NewReturnsSyncService(db, fetcher, returnsConfig())

	// First run: no matching user yet
	if _, err := svc.Run(context.Background()); err != nil {
		t.Fatalf("first run failed: %v", err)
	}
	var record models.ReturnRecord
	db.First(&record)
	if record.ResolvedUserID != nil {
		t.Errorf("expected unresolved, got %v", *record.ResolvedUserID)
	}

	// User appears; re-run backfills the existing row
	user := models.User{Username: "ivanov", FullName: "Ivanov Ivan", Abbreviation: "IV", Role: models.RoleCC, IsActive: true}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("failed to seed user: %v", err)
	}
	result, err := svc.Run(context.Background())
	if err != nil {
		t.Fatalf("second run failed: %v", err)
	}
	if result.RowsUpdated != 1 || result.RowsInserted != 0 {
		t.Errorf("second run counts: %+v", result)
	}

	db.First(&record)
	if record.ResolvedUserID == nil || *record.ResolvedUserID != user.ID {
		t.Errorf("resolved_user_id = %v, expected %d", record.ResolvedUserID, user.ID)
	}
}

func TestReturnsSync_ReasonEditCreatesNewRow(t *testing.T) {
	db := newTestDB(t)

	fetcher := &fakeFetcher{tables: map[string]*sheets.Table{
		"returns-sheet": returnsTable(
			[]string{"2024-01-15", "Acme", "", "c-1", "IV", "", "2", "wrong number", "1", "", "", "", ""},
		),
	}}
	svc := NewReturnsSyncService(db, fetcher, returnsConfig())

	if _, err := svc.Run(context.Background()); err != nil {
		t.Fatalf("first run failed: %v", err)
	}

	// The feed edits the count; identity changes, a new logical row lands
	fetcher.tables["returns-sheet"] = returnsTable(
		[]string{"2024-01-15", "Acme", "", "c-1", "IV", "", "2", "wrong number", "2", "", "", "", ""},
	)
	result, err := svc.Run(context.Background())
	if err != nil {
		t.Fatalf("second run failed: %v", err)
	}
	if result.RowsInserted != 1 {
		t.Errorf("second run counts: %+v", result)
	}

	var total int64
	db.Model(&models.ReturnRecord{}).Count(&total)
	if total != 2 {
		t.Errorf("record count = %d, expected 2", total)
	}
}

func TestReturnsSync_NotConfigured(t *testing.T) {
	db := newTestDB(t)
	svc := NewReturnsSyncService(db, &fakeFetcher{}, &config.SyncConfig{})

	if _, err := svc.Run(context.Background()); err == nil {
		t.Fatal("expected error when returns spreadsheet is not configured")
	}
}

func TestCollectReasons_RussianHeaders(t *testing.T) {
	row := BuildRow(
		[]string{"Причина 1", "Кол-во 1", "ОКК причина 1", "ОКК кол-во 1"},
		[]string{"не дозвонились", "2", "КЦ: грубый тон", "1"},
	)

	reasons := collectReasons(row)
	if len(reasons) != 2 {
		t.Fatalf("reason count = %d, expected 2", len(reasons))
	}
	if reasons[0].CCFault {
		t.Error("unmarked direct reason flagged as CC fault")
	}
	if !reasons[1].CCFault {
		t.Error("КЦ-marked QC reason not flagged as CC fault")
	}
}

func TestHasCCMarker(t *testing.T) {
	cases := map[string]bool{
		"CC: no answer":  true,
		"cc: no answer":  true,
		"  КЦ: грубость": true,
		"кц: грубость":   true,
		"no answer":      false,
		"ACC: something": false,
		"":               false,
	}
	for reason, expected := range cases {
		if got := hasCCMarker(reason); got != expected {
			t.Errorf("hasCCMarker(%q) = %v, expected %v", reason, got, expected)
		}
	}
}
