package services

import (
	"testing"

	"github.com/rkalenko/qcdash/internal/models"
)

func TestDashboardStats_RoleScoping(t *testing.T) {
	db := newTestDB(t)

	lead := models.User{Username: "lead", FullName: "Lead One", Role: models.RoleTeamLead, IsActive: true}
	if err := db.Create(&lead).Error; err != nil {
		t.Fatal(err)
	}
	member := models.User{Username: "member", FullName: "Member One", Role: models.RoleCC, TeamLeadID: &lead.ID, IsActive: true}
	outsider := models.User{Username: "outsider", FullName: "Outsider", Role: models.RoleCC, IsActive: true}
	for _, u := range []*models.User{&member, &outsider} {
		if err := db.Create(u).Error; err != nil {
			t.Fatal(err)
		}
	}

	sev := 2
	issues := []models.Issue{
		{SourceID: 1, RowHash: "i1", IssueDate: "2024-01-15", IssueType: "missed call", Category: "client", SeverityRate: &sev, ResolvedUserID: &member.ID},
		{SourceID: 1, RowHash: "i2", IssueDate: "2024-01-16", IssueType: "late reply", Category: "internal", ResolvedUserID: &lead.ID},
		{SourceID: 1, RowHash: "i3", IssueDate: "2024-01-17", IssueType: "missed call", Category: "client", ResolvedUserID: &outsider.ID},
		{SourceID: 1, RowHash: "i4", IssueDate: "2024-01-18", IssueType: "missed call", Responsible: "Nobody Known"},
	}
	for i := range issues {
		if err := db.Create(&issues[i]).Error; err != nil {
			t.Fatal(err)
		}
	}

	returns := []models.ReturnRecord{
		{RowHash: "r1", ReturnDate: "2024-01-15", TotalLeads: 5, FaultLeads: 2, ResolvedUserID: &member.ID},
		{RowHash: "r2", ReturnDate: "2024-01-15", TotalLeads: 3, FaultLeads: 3, ResolvedUserID: &outsider.ID},
	}
	for i := range returns {
		if err := db.Create(&returns[i]).Error; err != nil {
			t.Fatal(err)
		}
	}

	svc := NewDashboardService(db)

	// Admin sees everything
	adminStats, err := svc.GetStats(&Viewer{UserID: 99, Role: models.RoleAdmin}, &DashboardStatsRequest{})
	if err != nil {
		t.Fatalf("admin stats failed: %v", err)
	}
	if adminStats.TotalIssues != 4 {
		t.Errorf("admin total = %d, expected 4", adminStats.TotalIssues)
	}
	if adminStats.UnlinkedIssues != 1 {
		t.Errorf("admin unlinked = %d, expected 1", adminStats.UnlinkedIssues)
	}
	if adminStats.ReturnedLeads != 8 || adminStats.FaultLeads != 5 {
		t.Errorf("admin returns = %d/%d, expected 8/5", adminStats.ReturnedLeads, adminStats.FaultLeads)
	}

	// Team lead sees the team plus themselves
	leadStats, err := svc.GetStats(&Viewer{UserID: lead.ID, Role: models.RoleTeamLead}, &DashboardStatsRequest{})
	if err != nil {
		t.Fatalf("lead stats failed: %v", err)
	}
	if leadStats.TotalIssues != 2 {
		t.Errorf("lead total = %d, expected 2", leadStats.TotalIssues)
	}
	if leadStats.ReturnedLeads != 5 || leadStats.FaultLeads != 2 {
		t.Errorf("lead returns = %d/%d, expected 5/2", leadStats.ReturnedLeads, leadStats.FaultLeads)
	}

	// CC agent sees only their own rows
	ccStats, err := svc.GetStats(&Viewer{UserID: member.ID, Role: models.RoleCC}, &DashboardStatsRequest{})
	if err != nil {
		t.Fatalf("cc stats failed: %v", err)
	}
	if ccStats.TotalIssues != 1 {
		t.Errorf("cc total = %d, expected 1", ccStats.TotalIssues)
	}
	if ccStats.ClientIssues != 1 || ccStats.InternalIssues != 0 {
		t.Errorf("cc categories = %d/%d", ccStats.ClientIssues, ccStats.InternalIssues)
	}
	if len(ccStats.BySeverity) != 1 || ccStats.BySeverity[0].SeverityRate != 2 {
		t.Errorf("cc severity breakdown: %+v", ccStats.BySeverity)
	}
}

func TestDashboardStats_DateRange(t *testing.T) {
	db := newTestDB(t)

	issues := []models.Issue{
		{SourceID: 1, RowHash: "i1", IssueDate: "2024-01-10", IssueType: "t"},
		{SourceID: 1, RowHash: "i2", IssueDate: "2024-01-20", IssueType: "t"},
		{SourceID: 1, RowHash: "i3", IssueDate: "2024-02-01", IssueType: "t"},
	}
	for i := range issues {
		if err := db.Create(&issues[i]).Error; err != nil {
			t.Fatal(err)
		}
	}

	svc := NewDashboardService(db)
	stats, err := svc.GetStats(&Viewer{Role: models.RoleAdmin}, &DashboardStatsRequest{
		StartDate: "2024-01-15",
		EndDate:   "2024-01-31",
	})
	if err != nil {
		t.Fatalf("stats failed: %v", err)
	}
	if stats.TotalIssues != 1 {
		t.Errorf("total = %d, expected 1 in range", stats.TotalIssues)
	}
}
