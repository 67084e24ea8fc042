// ABOUTME: Authentication context for tracking identity through request handlers
// ABOUTME: Provides WithAuth/FromContext for propagating the resolved user via context

package auth

import (
	"context"

	"github.com/lemcom/lemcom-directory/internal/directory"
)

// Method names how a request proved its identity.
type Method string

const (
	MethodAPIKey Method = "api_key"
	MethodBearer Method = "bearer"
)

// AuthContext holds the authenticated identity extracted from a request.
// This is populated by the HTTP middleware and retrieved by handlers.
type AuthContext struct {
	User   *directory.User // request-scoped copy, safe to mutate
	Method Method
}

// HasPermission reports whether the user holds at least level.
func (a *AuthContext) HasPermission(level directory.PermissionLevel) bool {
	return permissionRank(a.User.PermissionLevel) >= permissionRank(level)
}

func permissionRank(level directory.PermissionLevel) int {
	switch level {
	case directory.PermissionOwner:
		return 3
	case directory.PermissionAdministrator:
		return 2
	case directory.PermissionModerator:
		return 1
	default:
		return 0
	}
}

// authContextKey is the key type for storing AuthContext in context.Context.
type authContextKey struct{}

// WithAuth returns a new context with the AuthContext attached.
func WithAuth(ctx context.Context, auth *AuthContext) context.Context {
	return context.WithValue(ctx, authContextKey{}, auth)
}

// FromContext retrieves the AuthContext from the context, returning nil if not present.
func FromContext(ctx context.Context) *AuthContext {
	val := ctx.Value(authContextKey{})
	if val == nil {
		return nil
	}
	auth, ok := val.(*AuthContext)
	if !ok {
		return nil
	}
	return auth
}

// MustFromContext retrieves the AuthContext from the context, panicking if not present.
func MustFromContext(ctx context.Context) *AuthContext {
	auth := FromContext(ctx)
	if auth == nil {
		panic("auth: AuthContext not found in context")
	}
	return auth
}
