package services

import (
	"testing"

	"github.com/rkalenko/qcdash/internal/models"
)

func TestUserService_CreateValidation(t *testing.T) {
	db := newTestDB(t)
	svc := NewUserService(db)

	if _, err := svc.Create(&UserCreateRequest{Username: "x", FullName: "X", Role: "manager"}); err == nil {
		t.Error("invalid role should be rejected")
	}

	user, err := svc.Create(&UserCreateRequest{
		Username:     "ivanov",
		Password:     "secret123",
		FullName:     "  Ivanov Ivan  ",
		Role:         models.RoleCC,
		Abbreviation: " iv ",
	})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if user.FullName != "Ivanov Ivan" {
		t.Errorf("full_name = %q, expected trimmed", user.FullName)
	}
	if user.Abbreviation != "IV" {
		t.Errorf("abbreviation = %q, expected uppercased", user.Abbreviation)
	}
	if user.Password == "secret123" || user.Password == "" {
		t.Error("password should be stored hashed")
	}
	if !user.IsActive {
		t.Error("new user should be active")
	}

	if _, err := svc.Create(&UserCreateRequest{Username: "ivanov", FullName: "Dup", Role: models.RoleCC}); err == nil {
		t.Error("duplicate username should be rejected")
	}
}

func TestUserService_TeamMemberIDs(t *testing.T) {
	db := newTestDB(t)
	svc := NewUserService(db)

	lead := models.User{Username: "lead", FullName: "Lead", Role: models.RoleTeamLead, IsActive: true}
	if err := db.Create(&lead).Error; err != nil {
		t.Fatal(err)
	}
	member := models.User{Username: "member", FullName: "Member", Role: models.RoleCC, TeamLeadID: &lead.ID, IsActive: true}
	outsider := models.User{Username: "outsider", FullName: "Outsider", Role: models.RoleCC, IsActive: true}
	for _, u := range []*models.User{&member, &outsider} {
		if err := db.Create(u).Error; err != nil {
			t.Fatal(err)
		}
	}

	ids, err := svc.TeamMemberIDs(lead.ID)
	if err != nil {
		t.Fatalf("TeamMemberIDs failed: %v", err)
	}

	got := map[uint]bool{}
	for _, id := range ids {
		got[id] = true
	}
	if len(ids) != 2 || !got[lead.ID] || !got[member.ID] {
		t.Errorf("ids = %v, expected lead and member", ids)
	}
	if got[outsider.ID] {
		t.Error("outsider included in team scope")
	}
}

func TestUserService_UpdateAbbreviation(t *testing.T) {
	db := newTestDB(t)
	svc := NewUserService(db)

	user, err := svc.Create(&UserCreateRequest{Username: "ivanov", FullName: "Ivanov", Role: models.RoleCC})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	abbr := "pk"
	updated, err := svc.Update(user.ID, &UserUpdateRequest{Abbreviation: &abbr})
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}
	_ = updated

	var stored models.User
	db.First(&stored, user.ID)
	if stored.Abbreviation != "PK" {
		t.Errorf("abbreviation = %q, expected PK", stored.Abbreviation)
	}
}

func TestUserService_SoftDelete(t *testing.T) {
	db := newTestDB(t)
	svc := NewUserService(db)

	user, err := svc.Create(&UserCreateRequest{Username: "ivanov", FullName: "Ivanov", Role: models.RoleCC})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	if err := svc.Delete(user.ID); err != nil {
		t.Fatalf("delete failed: %v", err)
	}

	// Soft deleted: invisible to normal queries, still on disk
	if _, err := svc.GetByID(user.ID); err == nil {
		t.Error("deleted user should not be retrievable")
	}
	var raw int64
	db.Unscoped().Model(&models.User{}).Where("id = ?", user.ID).Count(&raw)
	if raw != 1 {
		t.Error("soft delete removed the row")
	}
}
