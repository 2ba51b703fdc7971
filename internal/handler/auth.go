package handler

// This file implements the login page and logout.

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/rongsox/dashboard/internal/auth"
	"github.com/rongsox/dashboard/internal/domain"
	"github.com/rongsox/dashboard/internal/session"
	"github.com/rongsox/dashboard/internal/validate"
)

// SessionManager is the subset of service.SessionService used by AuthHandler.
type SessionManager interface {
	Login(ctx context.Context, creds domain.Credentials) (*domain.Session, string, error)
	Logout(ctx context.Context, token string) error
}

// AuthHandler handles authentication-related HTTP requests.
//
// Routes handled:
// - GET  /login  -> ShowLogin
// - POST /login  -> Login
// - POST /logout -> Logout
type AuthHandler struct {
	sessions  SessionManager
	validator *validate.Validator
	renderer  TemplateRenderer
	logger    *slog.Logger
	isSecure  bool
}

// NewAuthHandler creates a new AuthHandler. isSecure sets the Secure flag
// on the session cookie and should be true outside development.
func NewAuthHandler(
	sessions SessionManager,
	validator *validate.Validator,
	renderer TemplateRenderer,
	logger *slog.Logger,
	isSecure bool,
) *AuthHandler {
	return &AuthHandler{
		sessions:  sessions,
		validator: validator,
		renderer:  renderer,
		logger:    logger,
		isSecure:  isSecure,
	}
}

// =============================================================================
// GET /login - Show Login Form
// =============================================================================

// ShowLogin renders the login form. A signed-in user goes straight to
// return_to or the dashboard.
func (h *AuthHandler) ShowLogin(w http.ResponseWriter, r *http.Request) {
	target := r.URL.Query().Get("return_to")
	if target == "" || !isSafeRedirectURL(target) {
		target = ""
	}

	if auth.GetSession(r.Context()) != nil {
		if target == "" {
			target = "/dashboard"
		}
		http.Redirect(w, r, target, http.StatusSeeOther)
		return
	}

	page := newPageData(w, r, "Login")
	page.Form = domain.Credentials{}
	page.ReturnTo = target
	h.renderer.RenderHTTP(w, "auth/login", page)
}

// =============================================================================
// POST /login - Process Login
// =============================================================================

// Login validates the credentials, signs in against the backend and sets
// the session cookie. The password is never echoed back to the form.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	creds := domain.Credentials{
		Email:    strings.ToLower(strings.TrimSpace(r.FormValue("email"))),
		Password: r.FormValue("password"),
	}

	if err := h.validator.Struct("auth.login", creds); err != nil {
		h.renderLoginError(w, r, creds.Email, err)
		return
	}

	sess, token, err := h.sessions.Login(r.Context(), creds)
	if err != nil {
		h.renderLoginError(w, r, creds.Email, err)
		return
	}

	session.SetCookie(w, token, sess.ExpiresAt, h.isSecure)
	h.logger.Info("staff logged in", "email", sess.Identity.Email, "admin_id", sess.Identity.AdminID)

	redirectWithToast(w, r, returnTo(r, "/dashboard"), SuccessToast("Login Success"))
}

// renderLoginError re-renders the login form. Field errors are shown inline;
// anything else becomes a toast.
func (h *AuthHandler) renderLoginError(w http.ResponseWriter, r *http.Request, email string, err error) {
	page := newPageData(w, r, "Login")
	page.Form = domain.Credentials{Email: email}
	page.ReturnTo = returnTo(r, "")

	code := domain.ErrorCode(err)
	status := ErrorCodeToHTTPStatus(code)
	if fields := domain.FieldErrors(err); fields != nil {
		page.Errors = fields
		status = http.StatusUnprocessableEntity
	} else {
		page.Toast = &Toast{Kind: ToastError, Message: domain.ErrorMessage(err)}
		if code == domain.EINTERNAL || code == domain.EUNAVAILABLE {
			logError(h.logger, r, err, code, domain.ErrorOp(err), status)
		} else {
			h.logger.Info("login rejected", "email", email, "code", code)
		}
	}
	h.renderer.RenderHTTPStatus(w, status, "auth/login", page)
}

// =============================================================================
// POST /logout - Process Logout
// =============================================================================

// Logout deletes the session and clears the cookie. It is idempotent and
// always ends on the login page.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if token := session.Token(r); token != "" {
		if err := h.sessions.Logout(r.Context(), token); err != nil {
			h.logger.Warn("failed to delete session", "error", err)
		}
	}
	session.ClearCookie(w, h.isSecure)

	h.logger.Debug("staff logged out")
	redirectWithToast(w, r, "/login", SuccessToast("You have been logged out"))
}

// RegisterRoutes registers the auth routes. limit throttles login attempts.
func (h *AuthHandler) RegisterRoutes(mux *http.ServeMux, limit func(http.Handler) http.Handler) {
	mux.HandleFunc("GET /login", h.ShowLogin)
	mux.Handle("POST /login", limit(http.HandlerFunc(h.Login)))
	mux.HandleFunc("POST /logout", h.Logout)
}
