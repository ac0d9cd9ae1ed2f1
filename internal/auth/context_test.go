package auth

import (
	"context"
	"testing"

	"github.com/noveleno/portal/internal/session"
)

func TestWithIdentityAndFromContext(t *testing.T) {
	id := Identity{
		BrowserID: 3,
		Session:   &session.Session{Email: "maria@noveleta.gov.ph", Role: session.RoleAdmin},
		Token:     "tok",
		OTPMarker: session.OTPVerifiedSentinel,
	}

	ctx := WithIdentity(context.Background(), id)
	got, ok := FromContext(ctx)
	if !ok {
		t.Fatal("expected Identity in context")
	}
	if got.BrowserID != 3 {
		t.Errorf("BrowserID = %d, want 3", got.BrowserID)
	}
	if got.Email() != "maria@noveleta.gov.ph" {
		t.Errorf("Email = %q, want %q", got.Email(), "maria@noveleta.gov.ph")
	}
	if got.Token != "tok" {
		t.Errorf("Token = %q, want %q", got.Token, "tok")
	}
	if !got.SignedIn() {
		t.Error("expected SignedIn = true")
	}
}

func TestFromContextMissing(t *testing.T) {
	_, ok := FromContext(context.Background())
	if ok {
		t.Error("expected false for missing Identity")
	}
}

func TestIdentityWithoutSession(t *testing.T) {
	var id Identity
	if id.SignedIn() {
		t.Error("expected SignedIn = false")
	}
	if id.Role() != session.RoleUnset {
		t.Errorf("Role = %q, want unset", id.Role())
	}
	if id.Email() != "" {
		t.Errorf("Email = %q, want empty", id.Email())
	}
}

func TestRole(t *testing.T) {
	ctx := WithIdentity(context.Background(), Identity{Session: &session.Session{Role: session.RoleUser}})
	if Role(ctx) != session.RoleUser {
		t.Errorf("Role = %q, want User", Role(ctx))
	}
}

func TestRoleMissing(t *testing.T) {
	if Role(context.Background()) != session.RoleUnset {
		t.Error("expected unset role for missing context")
	}
}

func TestToken(t *testing.T) {
	ctx := WithIdentity(context.Background(), Identity{Token: "abc"})
	if Token(ctx) != "abc" {
		t.Errorf("Token = %q, want abc", Token(ctx))
	}
	if Token(context.Background()) != "" {
		t.Error("expected empty token for missing context")
	}
}

func TestIsStaff(t *testing.T) {
	tests := []struct {
		role session.Role
		want bool
	}{
		{session.RoleUser, false},
		{session.RoleAdmin, true},
		{session.RoleSuperadmin, true},
		{session.RoleUnset, false},
	}
	for _, tt := range tests {
		ctx := WithIdentity(context.Background(), Identity{Session: &session.Session{Role: tt.role}})
		if got := IsStaff(ctx); got != tt.want {
			t.Errorf("IsStaff(%q) = %v, want %v", tt.role, got, tt.want)
		}
	}
}

func TestIsSuperadmin(t *testing.T) {
	ctx := WithIdentity(context.Background(), Identity{Session: &session.Session{Role: session.RoleSuperadmin}})
	if !IsSuperadmin(ctx) {
		t.Error("expected IsSuperadmin = true")
	}
	ctx = WithIdentity(context.Background(), Identity{Session: &session.Session{Role: session.RoleAdmin}})
	if IsSuperadmin(ctx) {
		t.Error("expected IsSuperadmin = false for Admin")
	}
	if IsSuperadmin(context.Background()) {
		t.Error("expected IsSuperadmin = false for missing context")
	}
}
