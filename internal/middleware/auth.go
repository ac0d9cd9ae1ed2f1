package middleware

import (
	"net/http"
	"slices"

	"github.com/noveleno/portal/internal/auth"
	"github.com/noveleno/portal/internal/gate"
	"github.com/noveleno/portal/internal/session"
)

// RequireAuth runs the auth gate. The route counts as resolved once the mux
// has matched a pattern, so handlers using it must be registered on a
// ServeMux. Pending serves fallback. A token whose profile is missing or
// unreadable never resolves, so that bucket is cleared and the browser is
// sent to login instead.
// HTMX-aware: returns HX-Redirect header instead of 303 redirect for HTMX requests.
func RequireAuth(fallback http.Handler) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, _ := auth.FromContext(r.Context())
			out := gate.Auth(gate.AuthState{
				Ready:   r.Pattern != "",
				Path:    r.URL.RequestURI(),
				User:    id.Session,
				Token:   id.Token,
				Loading: id.Session == nil && id.Token != "",
			})

			switch out.Decision {
			case gate.Render:
				next.ServeHTTP(w, r)
			case gate.Redirect:
				Redirect(w, r, out.Location)
			case gate.Fallback:
				if id.Session == nil && id.Token != "" {
					if id.Store != nil {
						if err := id.Store.Clear(); err != nil {
							http.Error(w, "Internal Server Error", http.StatusInternalServerError)
							return
						}
					}
					Redirect(w, r, gate.LoginURL(r.URL.RequestURI()))
					return
				}
				fallback.ServeHTTP(w, r)
			default:
				fallback.ServeHTTP(w, r)
			}
		})
	}
}

// RequireMarker runs the marker gate for m against the current bucket.
func RequireMarker(m gate.Marker) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, _ := auth.FromContext(r.Context())

			var value string
			if id.Store != nil {
				v, err := id.Store.Value(m.Key)
				if err != nil {
					http.Error(w, "Internal Server Error", http.StatusInternalServerError)
					return
				}
				value = v
			}

			out := gate.CheckMarker(id.Session, value, m)
			if out.Decision != gate.Render {
				Redirect(w, r, out.Location)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireOTP lets through only sessions that passed the passcode check.
func RequireOTP(next http.Handler) http.Handler {
	return RequireMarker(gate.OTPVerified)(next)
}

// RequireRole checks that the signed-in role is one of roles.
func RequireRole(roles ...session.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !slices.Contains(roles, auth.Role(r.Context())) {
				http.Error(w, "Forbidden", http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// Redirect sends the browser to loc, as HX-Redirect for HTMX requests.
func Redirect(w http.ResponseWriter, r *http.Request, loc string) {
	if r.Header.Get("HX-Request") == "true" {
		w.Header().Set("HX-Redirect", loc)
		w.WriteHeader(http.StatusOK)
		return
	}
	http.Redirect(w, r, loc, http.StatusSeeOther)
}
