package gate

import (
	"testing"

	"github.com/noveleno/portal/internal/session"
)

var (
	juan  = &session.Session{Email: "juan@example.com", Role: session.RoleUser}
	paths = []string{"/", "/home", "/news/news-feed", "/checklist?value=Flood", "/chat"}
)

func TestAuthNotReadyNeverDecides(t *testing.T) {
	states := []AuthState{
		{},
		{User: juan},
		{Token: "tok"},
		{User: juan, Token: "tok", Loading: true},
	}
	for _, p := range paths {
		for _, s := range states {
			s.Path = p
			got := Auth(s)
			if got.Decision != Pending {
				t.Errorf("Auth(%+v) = %v, want pending", s, got.Decision)
			}
			if got.Location != "" {
				t.Errorf("Auth(%+v) location = %q, want none", s, got.Location)
			}
		}
	}
}

func TestAuthRedirectsWithReturnURL(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"/home", "/login?returnUrl=%2Fhome"},
		{"/news/news-feed", "/login?returnUrl=%2Fnews%2Fnews-feed"},
		{"/checklist?value=Flood", "/login?returnUrl=%2Fchecklist%3Fvalue%3DFlood"},
	}
	for _, tt := range tests {
		got := Auth(AuthState{Ready: true, Path: tt.path})
		if got.Decision != Redirect {
			t.Fatalf("Auth(%q) = %v, want redirect", tt.path, got.Decision)
		}
		if got.Location != tt.want {
			t.Errorf("Auth(%q) location = %q, want %q", tt.path, got.Location, tt.want)
		}
	}
}

func TestAuthRootRedirectsToBareLogin(t *testing.T) {
	got := Auth(AuthState{Ready: true, Path: "/"})
	if got.Decision != Redirect || got.Location != "/login" {
		t.Errorf("Auth(/) = %+v, want redirect to /login", got)
	}
}

func TestAuthTokenWithoutUserShowsFallback(t *testing.T) {
	got := Auth(AuthState{Ready: true, Path: "/home", Token: "tok"})
	if got.Decision != Fallback {
		t.Errorf("decision = %v, want fallback", got.Decision)
	}
}

func TestAuthLoadingShowsFallback(t *testing.T) {
	got := Auth(AuthState{Ready: true, Path: "/home", User: juan, Loading: true})
	if got.Decision != Fallback {
		t.Errorf("decision = %v, want fallback", got.Decision)
	}
}

func TestAuthUserRenders(t *testing.T) {
	for _, p := range paths {
		for _, tok := range []string{"", "tok"} {
			got := Auth(AuthState{Ready: true, Path: p, User: juan, Token: tok})
			if got.Decision != Render {
				t.Errorf("Auth(%q, token %q) = %v, want render", p, tok, got.Decision)
			}
		}
	}
}

func TestLoginURL(t *testing.T) {
	if got := LoginURL(""); got != "/login" {
		t.Errorf("LoginURL(\"\") = %q, want /login", got)
	}
	if got := LoginURL("/"); got != "/login" {
		t.Errorf("LoginURL(/) = %q, want /login", got)
	}
	if got := LoginURL("/alert"); got != "/login?returnUrl=%2Falert" {
		t.Errorf("LoginURL(/alert) = %q", got)
	}
}

func TestCheckMarker(t *testing.T) {
	tests := []struct {
		name  string
		sess  *session.Session
		value string
		want  Decision
	}{
		{"verified", juan, session.OTPVerifiedSentinel, Render},
		{"no session", nil, session.OTPVerifiedSentinel, Redirect},
		{"no marker", juan, "", Redirect},
		{"wrong marker", juan, `{"message":"Invalid OTP"}`, Redirect},
		{"reformatted marker", juan, `{"message": "OTP verified successfully."}`, Redirect},
	}
	for _, tt := range tests {
		got := CheckMarker(tt.sess, tt.value, OTPVerified)
		if got.Decision != tt.want {
			t.Errorf("%s: decision = %v, want %v", tt.name, got.Decision, tt.want)
		}
		if got.Decision == Redirect && got.Location != "/login" {
			t.Errorf("%s: location = %q, want bare /login", tt.name, got.Location)
		}
	}
}

func TestCheckMarkerCustom(t *testing.T) {
	m := Marker{Key: "terms", Want: "accepted"}
	if got := CheckMarker(juan, "accepted", m); got.Decision != Render {
		t.Errorf("decision = %v, want render", got.Decision)
	}
	if got := CheckMarker(juan, session.OTPVerifiedSentinel, m); got.Decision != Redirect {
		t.Errorf("decision = %v, want redirect", got.Decision)
	}
}

func TestSafeReturnURL(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"", ""},
		{"/home", "/home"},
		{"/checklist?value=Flood", "/checklist?value=Flood"},
		{"//evil.example.com", ""},
		{"/\\evil.example.com", ""},
		{"https://evil.example.com/home", ""},
		{"home", ""},
	}
	for _, tt := range tests {
		if got := SafeReturnURL(tt.in); got != tt.want {
			t.Errorf("SafeReturnURL(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestDecisionString(t *testing.T) {
	for d, want := range map[Decision]string{Pending: "pending", Redirect: "redirect", Fallback: "fallback", Render: "render", Decision(9): "unknown"} {
		if d.String() != want {
			t.Errorf("Decision(%d).String() = %q, want %q", int(d), d.String(), want)
		}
	}
}
