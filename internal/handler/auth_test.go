package handler

import (
	"testing"

	"github.com/noveleno/portal/internal/api"
	"github.com/noveleno/portal/internal/session"
)

func TestLanding(t *testing.T) {
	tests := []struct {
		role      session.Role
		returnURL string
		want      string
	}{
		{session.RoleUser, "", "/user-menu"},
		{session.RoleAdmin, "", "/menu"},
		{session.RoleSuperadmin, "", "/home"},
		{session.RoleUnset, "", "/home"},
		{session.RoleUser, "/news/news-feed?page=2", "/news/news-feed?page=2"},
		{session.RoleAdmin, "//evil.example", "/menu"},
		{session.RoleAdmin, "https://evil.example/x", "/menu"},
	}
	for _, tt := range tests {
		if got := landing(tt.role, tt.returnURL); got != tt.want {
			t.Errorf("landing(%q, %q) = %q, want %q", tt.role, tt.returnURL, got, tt.want)
		}
	}
}

func TestChatContacts(t *testing.T) {
	users := []api.User{
		{Email: "me@noveleno.ph", Fullname: "Me"},
		{Email: "ana@noveleno.ph", Fullname: "Ana Reyes"},
		{Email: "ben@noveleno.ph", Fullname: "Ben Santos"},
	}

	got := chatContacts(users, "me@noveleno.ph", "")
	if len(got) != 2 {
		t.Fatalf("got %d contacts, want 2 (self excluded)", len(got))
	}

	got = chatContacts(users, "me@noveleno.ph", "REYES")
	if len(got) != 1 || got[0].Email != "ana@noveleno.ph" {
		t.Errorf("search by name = %+v", got)
	}

	got = chatContacts(users, "me@noveleno.ph", "ben@")
	if len(got) != 1 || got[0].Fullname != "Ben Santos" {
		t.Errorf("search by email = %+v", got)
	}
}

func TestNewChecklistData(t *testing.T) {
	d := newChecklistData("Flood", map[string]bool{"Water": true, "Candles": true, "Unknown": true})
	if d.Done != 2 {
		t.Errorf("Done = %d, want 2", d.Done)
	}
	if len(d.Items) != len(api.ChecklistItems) {
		t.Fatalf("got %d items, want %d", len(d.Items), len(api.ChecklistItems))
	}
	if d.Items[0].Name != "Food" || d.Items[0].Checked {
		t.Errorf("first item = %+v", d.Items[0])
	}
	if !d.Items[1].Checked {
		t.Errorf("Water should be checked")
	}
}
