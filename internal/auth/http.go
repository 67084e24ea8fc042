// ABOUTME: HTTP middleware that resolves the calling user from an API key or JWT
// ABOUTME: Records endpoint usage on the user and adds it to the request context

package auth

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/lemcom/lemcom-directory/internal/directory"
	"github.com/lemcom/lemcom-directory/internal/store"
)

// APIKeyHeader carries a user's secret key.
const APIKeyHeader = "x-api-key"

// UserStore is the subset of store.UserStore the middleware needs.
type UserStore interface {
	GetUserByKey(ctx context.Context, key string) (*directory.User, error)
	SaveUser(ctx context.Context, user *directory.User) error
}

// Middleware authenticates requests against a UserStore.
type Middleware struct {
	users    UserStore
	verifier TokenVerifier // nil disables bearer tokens
	rejects  *RejectCache  // nil disables
	now      func() time.Time
	logger   *slog.Logger
}

// MiddlewareOption configures a Middleware.
type MiddlewareOption func(*Middleware)

// WithTokenVerifier enables "Authorization: Bearer" tokens next to API keys.
func WithTokenVerifier(v TokenVerifier) MiddlewareOption {
	return func(m *Middleware) { m.verifier = v }
}

// WithRejectCache skips the store for keys that recently failed to resolve.
func WithRejectCache(c *RejectCache) MiddlewareOption {
	return func(m *Middleware) { m.rejects = c }
}

// WithClock overrides the time source used for access stamps.
func WithClock(now func() time.Time) MiddlewareOption {
	return func(m *Middleware) { m.now = now }
}

// NewMiddleware creates a Middleware reading users from users.
func NewMiddleware(users UserStore, opts ...MiddlewareOption) *Middleware {
	m := &Middleware{
		users:  users,
		now:    time.Now,
		logger: slog.Default().With("component", "auth"),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// extractBearerToken extracts a bearer token from the Authorization header.
// Returns the token and an error message (empty if successful).
func extractBearerToken(authHeader string) (string, string) {
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return "", "invalid authorization header format"
	}
	token := strings.TrimPrefix(authHeader, "Bearer ")
	if token == "" {
		return "", "empty token"
	}
	return token, ""
}

// credentials returns the user key the request claims and how it was presented.
func (m *Middleware) credentials(r *http.Request) (string, Method, string) {
	if key := r.Header.Get(APIKeyHeader); key != "" {
		return key, MethodAPIKey, ""
	}

	authHeader := r.Header.Get("Authorization")
	if authHeader == "" || m.verifier == nil {
		return "", "", "missing api key"
	}
	token, errMsg := extractBearerToken(authHeader)
	if errMsg != "" {
		return "", "", errMsg
	}
	key, err := m.verifier.Verify(token)
	if err != nil {
		if errors.Is(err, ErrExpiredToken) {
			return "", "", "token expired"
		}
		return "", "", "invalid token"
	}
	return key, MethodBearer, ""
}

// routeOf names the endpoint for usage counting. It prefers the mux pattern
// so path wildcards collapse into one counter.
func routeOf(r *http.Request) string {
	if r.Pattern == "" {
		return r.URL.Path
	}
	pattern := r.Pattern
	if _, path, ok := strings.Cut(pattern, " "); ok {
		pattern = path
	}
	if i := strings.Index(pattern, "/"); i > 0 {
		pattern = pattern[i:]
	}
	return strings.TrimSuffix(pattern, "{$}")
}

// Wrap requires an authenticated user for next. The user's access stamp and
// usage counters are saved before next runs.
func (m *Middleware) Wrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key, method, errMsg := m.credentials(r)
		if errMsg != "" {
			http.Error(w, `{"error":"`+errMsg+`"}`, http.StatusUnauthorized)
			return
		}

		if m.rejects != nil && m.rejects.Rejected(key) {
			http.Error(w, `{"error":"invalid api key"}`, http.StatusUnauthorized)
			return
		}

		user, err := m.users.GetUserByKey(r.Context(), key)
		if errors.Is(err, store.ErrNotFound) {
			if m.rejects != nil {
				m.rejects.Reject(key)
			}
			http.Error(w, `{"error":"invalid api key"}`, http.StatusUnauthorized)
			return
		}
		if err != nil {
			m.logger.Error("loading user for request", "error", err)
			http.Error(w, `{"error":"internal server error"}`, http.StatusInternalServerError)
			return
		}

		user.RecordAccess(r.Method, routeOf(r), m.now())
		if err := m.users.SaveUser(r.Context(), user); err != nil {
			m.logger.Error("recording access", "user", user.Name, "error", err)
			http.Error(w, `{"error":"internal server error"}`, http.StatusInternalServerError)
			return
		}

		authCtx := &AuthContext{User: user, Method: method}
		next.ServeHTTP(w, r.WithContext(WithAuth(r.Context(), authCtx)))
	})
}

// RequirePermission creates an HTTP middleware that requires at least level.
// Must be used after Wrap.
func RequirePermission(level directory.PermissionLevel) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authCtx := FromContext(r.Context())
			if authCtx == nil {
				http.Error(w, `{"error":"not authenticated"}`, http.StatusUnauthorized)
				return
			}

			if !authCtx.HasPermission(level) {
				http.Error(w, `{"error":"insufficient permission"}`, http.StatusForbidden)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
