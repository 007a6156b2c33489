package services

import (
	"testing"

	"github.com/rkalenko/qcdash/internal/models"
)

func TestLinkReturns(t *testing.T) {
	db := newTestDB(t)
	linker := NewLinkerService(db)

	user := models.User{Username: "ivanov", FullName: "Ivanov Ivan", Abbreviation: "IV", Role: models.RoleCC, IsActive: true}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("failed to seed user: %v", err)
	}

	records := []models.ReturnRecord{
		{RowHash: "h1", ReturnDate: "2024-01-15", CCAbbreviation: "IV"},
		{RowHash: "h2", ReturnDate: "2024-01-15", CCAbbreviation: "XX"},
		{RowHash: "h3", ReturnDate: "2024-01-15", CCAbbreviation: ""},
	}
	for i := range records {
		if err := db.Create(&records[i]).Error; err != nil {
			t.Fatalf("failed to seed record: %v", err)
		}
	}

	linked, err := linker.LinkReturns()
	if err != nil {
		t.Fatalf("LinkReturns failed: %v", err)
	}
	if linked != 1 {
		t.Errorf("linked = %d, expected 1", linked)
	}

	var resolved models.ReturnRecord
	db.Where("row_hash = ?", "h1").First(&resolved)
	if resolved.ResolvedUserID == nil || *resolved.ResolvedUserID != user.ID {
		t.Errorf("h1 resolved_user_id = %v", resolved.ResolvedUserID)
	}

	// Re-running links nothing new
	linked, err = linker.LinkReturns()
	if err != nil {
		t.Fatalf("second LinkReturns failed: %v", err)
	}
	if linked != 0 {
		t.Errorf("second run linked = %d, expected 0", linked)
	}
}

func TestLinkIssuesForSource_OnlyTargetSource(t *testing.T) {
	db := newTestDB(t)
	linker := NewLinkerService(db)

	user := models.User{Username: "ivanov", FullName: "Ivanov Ivan", Role: models.RoleCC, IsActive: true}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("failed to seed user: %v", err)
	}

	issues := []models.Issue{
		{SourceID: 1, RowHash: "a", IssueDate: "2024-01-15", IssueType: "t", Responsible: "Ivanov Ivan"},
		{SourceID: 2, RowHash: "b", IssueDate: "2024-01-15", IssueType: "t", Responsible: "Ivanov Ivan"},
	}
	for i := range issues {
		if err := db.Create(&issues[i]).Error; err != nil {
			t.Fatalf("failed to seed issue: %v", err)
		}
	}

	linked, err := linker.LinkIssuesForSource(1)
	if err != nil {
		t.Fatalf("LinkIssuesForSource failed: %v", err)
	}
	if linked != 1 {
		t.Errorf("linked = %d, expected 1", linked)
	}

	var other models.Issue
	db.Where("source_id = ?", 2).First(&other)
	if other.ResolvedUserID != nil {
		t.Error("issue of another source was linked")
	}
}

func TestLinkIssuesForSource_InactiveUserIgnored(t *testing.T) {
	db := newTestDB(t)
	linker := NewLinkerService(db)

	user := models.User{Username: "ivanov", FullName: "Ivanov Ivan", Role: models.RoleCC, IsActive: false}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("failed to seed user: %v", err)
	}
	issue := models.Issue{SourceID: 1, RowHash: "a", IssueDate: "2024-01-15", IssueType: "t", Responsible: "Ivanov Ivan"}
	if err := db.Create(&issue).Error; err != nil {
		t.Fatalf("failed to seed issue: %v", err)
	}

	linked, err := linker.LinkIssuesForSource(1)
	if err != nil {
		t.Fatalf("LinkIssuesForSource failed: %v", err)
	}
	if linked != 0 {
		t.Errorf("linked = %d, expected 0 for inactive user", linked)
	}
}

func TestAbbreviationMap(t *testing.T) {
	db := newTestDB(t)
	linker := NewLinkerService(db)

	users := []models.User{
		{Username: "a", FullName: "A", Abbreviation: "IV", Role: models.RoleCC, IsActive: true},
		{Username: "b", FullName: "B", Abbreviation: " iv ", Role: models.RoleCC, IsActive: true},
		{Username: "c", FullName: "C", Abbreviation: "PK", Role: models.RoleCC, IsActive: false},
		{Username: "d", FullName: "D", Abbreviation: "", Role: models.RoleCC, IsActive: true},
	}
	for i := range users {
		if err := db.Create(&users[i]).Error; err != nil {
			t.Fatalf("failed to seed user: %v", err)
		}
	}

	byAbbr, err := linker.AbbreviationMap()
	if err != nil {
		t.Fatalf("AbbreviationMap failed: %v", err)
	}

	// Duplicate abbreviation: first user wins, casing and padding ignored
	if id, ok := byAbbr["IV"]; !ok || id != users[0].ID {
		t.Errorf("byAbbr[IV] = %d, %v", id, ok)
	}
	// Inactive users are excluded
	if _, ok := byAbbr["PK"]; ok {
		t.Error("inactive user present in map")
	}
	if len(byAbbr) != 1 {
		t.Errorf("map size = %d, expected 1", len(byAbbr))
	}
}
