package utils

import (
	"testing"
	"time"
)

func init() {
	SetJWTSecret("unit-test-secret")
}

func TestGenerateAndParseToken(t *testing.T) {
	cases := []struct {
		userID   uint
		username string
		role     string
	}{
		{1, "admin", "admin"},
		{7, "lead.smirnova", "team_lead"},
		{42, "cc.ivanov", "cc"},
	}

	for _, tc := range cases {
		token, err := GenerateToken(tc.userID, tc.username, tc.role, 24)
		if err != nil {
			t.Fatalf("GenerateToken(%q) error = %v", tc.username, err)
		}
		if token == "" {
			t.Fatalf("GenerateToken(%q) returned empty token", tc.username)
		}

		claims, err := ParseToken(token)
		if err != nil {
			t.Fatalf("ParseToken error = %v", err)
		}
		if claims.UserID != tc.userID {
			t.Errorf("UserID = %d, expected %d", claims.UserID, tc.userID)
		}
		if claims.Username != tc.username {
			t.Errorf("Username = %q, expected %q", claims.Username, tc.username)
		}
		if claims.Role != tc.role {
			t.Errorf("Role = %q, expected %q", claims.Role, tc.role)
		}
	}
}

func TestGenerateToken_DistinctUsers(t *testing.T) {
	token1, _ := GenerateToken(1, "lead.smirnova", "team_lead", 24)
	token2, _ := GenerateToken(2, "cc.ivanov", "cc", 24)

	if token1 == token2 {
		t.Error("different users should produce different tokens")
	}
}

func TestParseToken_Invalid(t *testing.T) {
	invalidTokens := []string{
		"",
		"invalid",
		"not.a.token",
		"eyJhbGciOiJIUzI1NiIsInR5cCI6IkpXVCJ9.invalid.signature",
	}

	for _, token := range invalidTokens {
		if _, err := ParseToken(token); err == nil {
			t.Errorf("ParseToken(%q) should return error", token)
		}
	}
}

func TestParseToken_WrongSecret(t *testing.T) {
	SetJWTSecret("original-secret")
	token, _ := GenerateToken(1, "admin", "admin", 24)

	SetJWTSecret("rotated-secret")
	_, err := ParseToken(token)

	SetJWTSecret("unit-test-secret")

	if err == nil {
		t.Error("ParseToken should fail after secret rotation")
	}
}

func TestGenerateToken_Expiration(t *testing.T) {
	token, _ := GenerateToken(1, "admin", "admin", 1)
	claims, _ := ParseToken(token)

	expiresAt := claims.ExpiresAt.Time
	if expiresAt.Before(time.Now()) {
		t.Error("token should not be expired immediately")
	}

	diff := expiresAt.Sub(time.Now().Add(1 * time.Hour))
	if diff < -time.Minute || diff > time.Minute {
		t.Errorf("expiration time is off by more than 1 minute: %v", diff)
	}
}
