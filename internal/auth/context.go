package auth

import (
	"context"

	"github.com/noveleno/portal/internal/session"
)

type contextKey struct{}

// Identity is the per-request view of one browser's session. It is written
// once by the browser middleware and read by gates, menus and handlers.
type Identity struct {
	BrowserID int64
	Session   *session.Session
	Token     string
	OTPMarker string
	Store     *session.Store
}

// SignedIn reports whether a profile is stored.
func (id Identity) SignedIn() bool {
	return id.Session != nil
}

// Role returns the stored role, or RoleUnset without a session.
func (id Identity) Role() session.Role {
	if id.Session == nil {
		return session.RoleUnset
	}
	return id.Session.Role
}

// Email returns the stored email, or "" without a session.
func (id Identity) Email() string {
	if id.Session == nil {
		return ""
	}
	return id.Session.Email
}

func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, contextKey{}, id)
}

func FromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(contextKey{}).(Identity)
	return id, ok
}

func Role(ctx context.Context) session.Role {
	id, ok := FromContext(ctx)
	if !ok {
		return session.RoleUnset
	}
	return id.Role()
}

func Token(ctx context.Context) string {
	id, ok := FromContext(ctx)
	if !ok {
		return ""
	}
	return id.Token
}

func IsStaff(ctx context.Context) bool {
	return Role(ctx).IsStaff()
}

func IsSuperadmin(ctx context.Context) bool {
	return Role(ctx) == session.RoleSuperadmin
}
