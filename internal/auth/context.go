// Package auth provides session context helpers.
//
// It is imported by middleware, handlers and the backend client, so it
// depends on nothing but the domain package.
package auth

import (
	"context"
	"net/http"

	"github.com/rongsox/dashboard/internal/domain"
)

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

const (
	sessionContextKey contextKey = "session"
	tokenContextKey   contextKey = "backend_token"
)

// GetSession retrieves the signed-in session from the context.
//
// Returns nil if the request is anonymous.
func GetSession(ctx context.Context) *domain.Session {
	sess, ok := ctx.Value(sessionContextKey).(*domain.Session)
	if !ok {
		return nil
	}
	return sess
}

// SetSession stores the session in the context. Its backend token becomes
// the bearer for outgoing backend calls made with the returned context.
func SetSession(ctx context.Context, sess *domain.Session) context.Context {
	ctx = context.WithValue(ctx, sessionContextKey, sess)
	if sess != nil {
		ctx = WithToken(ctx, sess.BackendToken)
	}
	return ctx
}

// GetIdentity returns the identity of the signed-in staff member, or nil.
func GetIdentity(ctx context.Context) *domain.Identity {
	sess := GetSession(ctx)
	if sess == nil {
		return nil
	}
	return &sess.Identity
}

// GetIdentityFromRequest is GetIdentity for a request.
func GetIdentityFromRequest(r *http.Request) *domain.Identity {
	return GetIdentity(r.Context())
}

// WithToken attaches a bearer token for backend calls without a full session,
// as during login.
func WithToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, tokenContextKey, token)
}

// BackendToken returns the bearer token for backend calls, or "".
func BackendToken(ctx context.Context) string {
	token, _ := ctx.Value(tokenContextKey).(string)
	return token
}
