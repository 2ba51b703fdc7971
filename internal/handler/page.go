package handler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/rongsox/dashboard/internal/auth"
	"github.com/rongsox/dashboard/internal/csrf"
	"github.com/rongsox/dashboard/internal/domain"
	"github.com/rongsox/dashboard/internal/querycache"
	"github.com/rongsox/dashboard/internal/validate"
)

// TemplateRenderer is the interface for rendering HTML templates.
// This interface allows for mocking in tests.
type TemplateRenderer interface {
	RenderHTTP(w http.ResponseWriter, name string, data interface{})
	RenderHTTPStatus(w http.ResponseWriter, status int, name string, data interface{})
}

// PageData is passed to every page template.
type PageData struct {
	Title       string
	CurrentPath string
	CSRFToken   string
	Identity    *domain.Identity
	Toast       *Toast
	ReturnTo    string

	// Form holds the submitted values when a form is re-rendered.
	Form   any
	Errors map[string]string

	// Data is the page specific view model.
	Data any
}

// HasError reports whether field failed validation.
func (p PageData) HasError(field string) bool {
	_, ok := p.Errors[field]
	return ok
}

// newPageData collects what every page needs from the request. It consumes
// the pending toast, so call it once per rendered page.
func newPageData(w http.ResponseWriter, r *http.Request, title string) PageData {
	return PageData{
		Title:       title,
		CurrentPath: r.URL.Path,
		CSRFToken:   csrf.Token(r.Context()),
		Identity:    auth.GetIdentity(r.Context()),
		Toast:       PopToast(w, r),
		Errors:      map[string]string{},
	}
}

// =============================================================================
// Resource Handler Base
// =============================================================================

// resource holds the dependencies shared by the entity handlers.
type resource struct {
	lists     *querycache.Lists
	validator *validate.Validator
	renderer  TemplateRenderer
	logger    *slog.Logger
}

// redirectWithToast stores t and redirects with 303 so a refresh does not
// resubmit the form.
func redirectWithToast(w http.ResponseWriter, r *http.Request, target string, t Toast) {
	SetToast(w, t)
	http.Redirect(w, r, target, http.StatusSeeOther)
}

// invalidate drops every cached page of kind after a successful write. A
// failure only means stale rows until the TTL expires.
func (h *resource) invalidate(ctx context.Context, kind domain.EntityKind) {
	if err := h.lists.Invalidate(ctx, kind); err != nil {
		h.logger.Warn("list cache invalidation failed", "kind", kind, "error", err)
	}
}

// fail turns a write failure into an error toast on the page at back. An
// expired backend token sends the user to the login page instead.
func (h *resource) fail(w http.ResponseWriter, r *http.Request, back string, err error) {
	code := domain.ErrorCode(err)
	status := ErrorCodeToHTTPStatus(code)
	logError(h.logger, r, err, code, domain.ErrorOp(err), status)

	if code == domain.EUNAUTHORIZED {
		redirectWithToast(w, r, loginURL(r), ErrorToast(domain.ErrorMessage(err)))
		return
	}
	redirectWithToast(w, r, back, ErrorToast(domain.ErrorMessage(err)))
}

// renderForm re-renders a form with the submitted values and per-field
// errors. Other errors show as a toast above the form, except an expired
// backend session, which goes back to the login page.
func (h *resource) renderForm(w http.ResponseWriter, r *http.Request, name, title string, form any, data any, err error) {
	if err != nil && domain.ErrorCode(err) == domain.EUNAUTHORIZED && domain.FieldErrors(err) == nil {
		h.fail(w, r, "/dashboard", err)
		return
	}

	page := newPageData(w, r, title)
	page.Form = form
	page.Data = data
	page.ReturnTo = returnTo(r, "")

	status := http.StatusOK
	if err != nil {
		if fields := domain.FieldErrors(err); fields != nil {
			page.Errors = fields
			status = http.StatusUnprocessableEntity
		} else {
			page.Toast = &Toast{Kind: ToastError, Message: domain.ErrorMessage(err)}
			status = ErrorCodeToHTTPStatus(domain.ErrorCode(err))
			logError(h.logger, r, err, domain.ErrorCode(err), domain.ErrorOp(err), status)
		}
	}
	h.renderer.RenderHTTPStatus(w, status, name, page)
}

// =============================================================================
// Helper Functions
// =============================================================================

// returnTo returns the safe return_to value of the request, or fallback.
func returnTo(r *http.Request, fallback string) string {
	if v := r.FormValue("return_to"); v != "" && isSafeRedirectURL(v) {
		return v
	}
	return fallback
}

// loginURL returns the login page URL that comes back to the current page.
func loginURL(r *http.Request) string {
	back := r.URL.RequestURI()
	if r.Method != http.MethodGet {
		back = ""
		if u, err := url.Parse(r.Referer()); err == nil && r.Referer() != "" {
			back = u.RequestURI()
		}
	}
	if back == "" || !isSafeRedirectURL(back) {
		return "/login"
	}
	return "/login?return_to=" + url.QueryEscape(back)
}

// isSafeRedirectURL checks if a URL is safe to redirect to.
//
// Only relative paths on this host are allowed:
// - "/banks?page=2"           -> true
// - "//evil.com"              -> false (protocol-relative)
// - "https://evil.com"        -> false (absolute)
// - "javascript:alert(1)"     -> false
func isSafeRedirectURL(rawURL string) bool {
	if !strings.HasPrefix(rawURL, "/") || strings.HasPrefix(rawURL, "//") || strings.HasPrefix(rawURL, "/\\") {
		return false
	}
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	return parsed.Scheme == "" && parsed.Host == ""
}

// parseStatus reads the status form or query value of a status toggle.
func parseStatus(r *http.Request) (bool, error) {
	active, err := strconv.ParseBool(r.FormValue("status"))
	if err != nil {
		return false, domain.Invalid("form.status", "Status must be true or false")
	}
	return active, nil
}

// formUpload reads an optional file field into an Upload. It returns nil
// when the field is absent or empty.
func formUpload(r *http.Request, field string) (*domain.Upload, error) {
	file, header, err := r.FormFile(field)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
			return nil, nil
		}
		return nil, domain.Invalid("form.upload", "Failed to read uploaded image")
	}
	defer file.Close()

	// One byte past the limit is enough for the validator to reject it.
	data, err := io.ReadAll(io.LimitReader(file, domain.MaxImageSize+1))
	if err != nil {
		return nil, domain.Invalid("form.upload", "Failed to read uploaded image")
	}
	if len(data) == 0 {
		return nil, nil
	}
	return &domain.Upload{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Data:        data,
	}, nil
}
