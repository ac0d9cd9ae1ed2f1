// Package gate decides whether a request may see a protected page. The
// decisions are pure functions of already-loaded session state; callers
// carry them out (render, show the fallback, or redirect).
package gate

import (
	"net/url"

	"github.com/noveleno/portal/internal/session"
)

// LoginPath is where every failed gate sends the browser.
const LoginPath = "/login"

type Decision int

const (
	// Pending means the route is not resolved yet; nothing conclusive may be
	// rendered and no redirect may happen.
	Pending Decision = iota
	Redirect
	Fallback
	Render
)

func (d Decision) String() string {
	switch d {
	case Pending:
		return "pending"
	case Redirect:
		return "redirect"
	case Fallback:
		return "fallback"
	case Render:
		return "render"
	default:
		return "unknown"
	}
}

// Outcome is a Decision plus the redirect target when Decision is Redirect.
type Outcome struct {
	Decision Decision
	Location string
}

// AuthState is everything the auth gate looks at.
type AuthState struct {
	Ready   bool
	Path    string
	User    *session.Session
	Token   string
	Loading bool
}

// Auth is the authentication gate.
func Auth(s AuthState) Outcome {
	if !s.Ready {
		return Outcome{Decision: Pending}
	}
	if s.User == nil && s.Token == "" {
		return Outcome{Decision: Redirect, Location: LoginURL(s.Path)}
	}
	if s.Loading || s.User == nil {
		return Outcome{Decision: Fallback}
	}
	return Outcome{Decision: Render}
}

// LoginURL returns the login location carrying path as returnUrl. The root
// path gets a bare login URL.
func LoginURL(path string) string {
	if path == "" || path == "/" {
		return LoginPath
	}
	return LoginPath + "?" + url.Values{"returnUrl": {path}}.Encode()
}

// Marker names a persisted value and the exact content a gate requires.
type Marker struct {
	Key  string
	Want string
}

// OTPVerified is the marker written after a successful passcode check.
var OTPVerified = Marker{Key: session.KeyOTPVerify, Want: session.OTPVerifiedSentinel}

// CheckMarker is the marker gate: it renders only when a session exists and
// the stored value equals m.Want. Failures go to the bare login page.
func CheckMarker(sess *session.Session, value string, m Marker) Outcome {
	if sess == nil || value != m.Want {
		return Outcome{Decision: Redirect, Location: LoginPath}
	}
	return Outcome{Decision: Render}
}

// SafeReturnURL returns ret when it is a local absolute path, otherwise "".
// Used when honoring ?returnUrl= after login.
func SafeReturnURL(ret string) string {
	if ret == "" || ret[0] != '/' {
		return ""
	}
	if len(ret) > 1 && (ret[1] == '/' || ret[1] == '\\') {
		return ""
	}
	u, err := url.Parse(ret)
	if err != nil || u.Scheme != "" || u.Host != "" {
		return ""
	}
	return ret
}
