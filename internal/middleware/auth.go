// Package middleware contains HTTP middleware for the Rongsox dashboard.
//
// Middleware functions follow the standard Go pattern of wrapping http.Handler.
// They are designed to be composed using a middleware stack approach.
package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/rongsox/dashboard/internal/auth"
	"github.com/rongsox/dashboard/internal/domain"
	"github.com/rongsox/dashboard/internal/handler"
	"github.com/rongsox/dashboard/internal/session"
)

// SessionResolver looks up the session behind a raw session token.
type SessionResolver interface {
	Resolve(ctx context.Context, token string) (*domain.Session, error)
}

// AuthMiddleware loads and enforces staff sessions.
type AuthMiddleware struct {
	sessions SessionResolver
	logger   *slog.Logger
	isSecure bool // Whether to set Secure flag on cookies (true in production)
}

// NewAuthMiddleware creates a new AuthMiddleware instance.
func NewAuthMiddleware(sessions SessionResolver, logger *slog.Logger, isSecure bool) *AuthMiddleware {
	return &AuthMiddleware{
		sessions: sessions,
		logger:   logger,
		isSecure: isSecure,
	}
}

// =============================================================================
// WithSession Middleware
// =============================================================================

// WithSession loads the session named by the session cookie into the
// request context and always calls next.
//
// An unknown or expired token clears the cookie. A store failure leaves the
// cookie alone so the user is not logged out by a database hiccup; the
// request simply continues anonymous.
func (m *AuthMiddleware) WithSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := session.Token(r)
		if token == "" {
			next.ServeHTTP(w, r)
			return
		}

		sess, err := m.sessions.Resolve(r.Context(), token)
		if err != nil {
			switch domain.ErrorCode(err) {
			case domain.EUNAUTHORIZED, domain.ENOTFOUND:
				session.ClearCookie(w, m.isSecure)
			default:
				m.logger.Error("session lookup failed", "error", err, "path", r.URL.Path)
			}
			next.ServeHTTP(w, r)
			return
		}

		next.ServeHTTP(w, r.WithContext(auth.SetSession(r.Context(), sess)))
	})
}

// =============================================================================
// RequireSession Middleware
// =============================================================================

// RequireSession rejects anonymous requests. Browsers are sent to the login
// page with a return_to back to the page they asked for, htmx requests get
// an HX-Redirect, and API clients get a 401.
//
// IMPORTANT: This middleware must be used AFTER WithSession in the chain.
func (m *AuthMiddleware) RequireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if auth.GetSession(r.Context()) != nil {
			next.ServeHTTP(w, r)
			return
		}

		if isAPIRequest(r) {
			handler.UnauthorizedResponse(w, r, m.logger)
			return
		}

		target := loginRedirect(r)
		if r.Header.Get("HX-Request") == "true" {
			w.Header().Set("HX-Redirect", target)
			w.WriteHeader(http.StatusNoContent)
			return
		}
		http.Redirect(w, r, target, http.StatusSeeOther)
	})
}

// RequireSuperAdmin limits a route to the super admin. Other staff are sent
// back to the dashboard with an error toast.
//
// IMPORTANT: Use this AFTER RequireSession in the middleware chain.
func (m *AuthMiddleware) RequireSuperAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity := auth.GetIdentity(r.Context())
		if identity.IsSuperAdmin() {
			next.ServeHTTP(w, r)
			return
		}

		m.logger.Warn("super admin route denied",
			"path", r.URL.Path,
			"email", identity.DisplayName(),
		)
		if isAPIRequest(r) {
			handler.ForbiddenResponse(w, r, m.logger)
			return
		}
		handler.SetToast(w, handler.ErrorToast("You are not authorized to access this page !"))
		http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
	})
}

// loginRedirect returns the login URL that comes back to r. Only GET pages
// are worth returning to; a POST would be replayed without its body.
func loginRedirect(r *http.Request) string {
	if r.Method != http.MethodGet {
		return "/login"
	}
	return "/login?return_to=" + url.QueryEscape(r.URL.RequestURI())
}

// =============================================================================
// Request Helpers
// =============================================================================

// isAPIRequest determines if the request expects a JSON response.
//
// htmx requests want HTML even when they post JSON-ish headers.
func isAPIRequest(r *http.Request) bool {
	if r.Header.Get("HX-Request") == "true" {
		return false
	}
	if strings.Contains(r.Header.Get("Accept"), "application/json") {
		return true
	}
	if strings.Contains(r.Header.Get("Content-Type"), "application/json") {
		return true
	}
	return strings.HasPrefix(r.URL.Path, "/api/")
}

// =============================================================================
// Middleware Stack Helpers
// =============================================================================

// Stack composes multiple middleware functions into a single middleware.
//
// Middleware is applied in the order provided, meaning the first middleware
// in the slice is the outermost (runs first on request, last on response).
//
// Example:
//
//	protect := Stack(authMw.WithSession, authMw.RequireSession)
//	mux.Handle("GET /dashboard", protect(dashboardHandler))
func Stack(middlewares ...func(http.Handler) http.Handler) func(http.Handler) http.Handler {
	return func(final http.Handler) http.Handler {
		for i := len(middlewares) - 1; i >= 0; i-- {
			final = middlewares[i](final)
		}
		return final
	}
}

var (
	_ func(http.Handler) http.Handler = (&AuthMiddleware{}).WithSession
	_ func(http.Handler) http.Handler = (&AuthMiddleware{}).RequireSession
	_ func(http.Handler) http.Handler = (&AuthMiddleware{}).RequireSuperAdmin
)
