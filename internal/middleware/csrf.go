package middleware

import (
	"log/slog"
	"net/http"

	"github.com/rongsox/dashboard/internal/csrf"
	"github.com/rongsox/dashboard/internal/domain"
	"github.com/rongsox/dashboard/internal/handler"
)

// maxRequestBody bounds every unsafe request: the largest upload plus room
// for the other form fields.
const maxRequestBody = domain.MaxImageSize + 1<<20

// CSRFMiddleware issues the double-submit token and checks it on every
// state-changing request.
type CSRFMiddleware struct {
	logger   *slog.Logger
	isSecure bool
}

// NewCSRFMiddleware creates a new CSRF middleware.
func NewCSRFMiddleware(logger *slog.Logger, isSecure bool) *CSRFMiddleware {
	return &CSRFMiddleware{logger: logger, isSecure: isSecure}
}

// Handler ensures the request carries a token cookie and stores the token
// in the context for templates. POST, PUT, PATCH and DELETE must echo it.
func (m *CSRFMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, err := csrf.EnsureToken(w, r, m.isSecure)
		if err != nil {
			handler.InternalErrorResponse(w, r, m.logger, err)
			return
		}
		r = r.WithContext(csrf.WithToken(r.Context(), token))

		if isSafeMethod(r.Method) {
			next.ServeHTTP(w, r)
			return
		}

		r.Body = http.MaxBytesReader(w, r.Body, maxRequestBody)
		if !csrf.ValidateRequest(r) {
			m.logger.Warn("csrf token rejected",
				"path", r.URL.Path,
				"method", r.Method,
				"ip", getClientIP(r),
			)
			handler.ErrorResponse(w, r, m.logger, domain.Forbidden("csrf", "Your form has expired, please reload the page and try again !"))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func isSafeMethod(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions, http.MethodTrace:
		return true
	}
	return false
}
