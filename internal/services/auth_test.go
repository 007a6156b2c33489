package services

import (
	"testing"

	"github.com/rkalenko/qcdash/internal/config"
	"github.com/rkalenko/qcdash/internal/models"
	"github.com/rkalenko/qcdash/internal/utils"
)

func newAuthService(t *testing.T) *AuthService {
	t.Helper()
	utils.SetJWTSecret("auth-test-secret")
	db := newTestDB(t)
	return NewAuthService(db, &config.LDAPConfig{Enabled: false}, &config.JWTConfig{ExpireHour: 24})
}

func seedLocalUser(t *testing.T, svc *AuthService, username, password, role string, active bool) *models.User {
	t.Helper()
	hash, err := utils.HashPassword(password)
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	user := &models.User{
		Username: username,
		Password: hash,
		Role:     role,
		AuthType: "local",
		IsActive: active,
	}
	if err := svc.db.Create(user).Error; err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return user
}

func TestLogin_Local(t *testing.T) {
	svc := newAuthService(t)
	seedLocalUser(t, svc, "lead.smirnova", "correct-horse", models.RoleTeamLead, true)

	resp, err := svc.Login(&LoginRequest{Username: "lead.smirnova", Password: "correct-horse"})
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if resp.Token == "" {
		t.Error("expected a token")
	}
	if resp.User == nil || resp.User.Username != "lead.smirnova" {
		t.Fatalf("unexpected user in response: %+v", resp.User)
	}
	if resp.User.LastLogin == nil {
		t.Error("LastLogin should be stamped on successful login")
	}

	claims, err := utils.ParseToken(resp.Token)
	if err != nil {
		t.Fatalf("ParseToken: %v", err)
	}
	if claims.Role != models.RoleTeamLead {
		t.Errorf("token role = %q, expected %q", claims.Role, models.RoleTeamLead)
	}
}

func TestLogin_WrongPassword(t *testing.T) {
	svc := newAuthService(t)
	seedLocalUser(t, svc, "cc.ivanov", "right-password", models.RoleCC, true)

	if _, err := svc.Login(&LoginRequest{Username: "cc.ivanov", Password: "wrong-password"}); err == nil {
		t.Error("login with wrong password should fail")
	}
	if _, err := svc.Login(&LoginRequest{Username: "no-such-user", Password: "whatever"}); err == nil {
		t.Error("login with unknown username should fail")
	}
}

func TestLogin_DisabledUser(t *testing.T) {
	svc := newAuthService(t)
	seedLocalUser(t, svc, "former.employee", "still-knows-it", models.RoleCC, false)

	_, err := svc.Login(&LoginRequest{Username: "former.employee", Password: "still-knows-it"})
	if err == nil || err.Error() != "user is disabled" {
		t.Errorf("expected disabled-user error, got %v", err)
	}
}

func TestLogin_LDAPNotEnabled(t *testing.T) {
	svc := newAuthService(t)

	if _, err := svc.Login(&LoginRequest{Username: "u", Password: "p", AuthType: "ldap"}); err == nil {
		t.Error("ldap login should fail when LDAP is disabled")
	}
	if _, err := svc.Login(&LoginRequest{Username: "u", Password: "p", AuthType: "kerberos"}); err == nil {
		t.Error("unknown auth type should be rejected")
	}
}

func TestCreateAdminIfNotExists(t *testing.T) {
	svc := newAuthService(t)

	if err := svc.CreateAdminIfNotExists(); err != nil {
		t.Fatalf("CreateAdminIfNotExists: %v", err)
	}
	if err := svc.CreateAdminIfNotExists(); err != nil {
		t.Fatalf("second CreateAdminIfNotExists: %v", err)
	}

	var count int64
	svc.db.Model(&models.User{}).Where("role = ?", models.RoleAdmin).Count(&count)
	if count != 1 {
		t.Errorf("expected exactly one admin, got %d", count)
	}

	if _, err := svc.Login(&LoginRequest{Username: "admin", Password: "admin123"}); err != nil {
		t.Errorf("default admin login failed: %v", err)
	}
}
