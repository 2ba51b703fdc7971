package middleware

import (
	"crypto/sha256"
	"crypto/subtle"
	"net/http"
)

// MetricsAuthMiddleware guards /metrics with HTTP basic auth. The expected
// credentials are kept as SHA-256 digests so comparisons run over equal
// lengths whatever the caller sends.
type MetricsAuthMiddleware struct {
	user [sha256.Size]byte
	pass [sha256.Size]byte
	open bool
}

// NewMetricsAuthMiddleware leaves the endpoint open when both credentials
// are empty.
func NewMetricsAuthMiddleware(username, password string) *MetricsAuthMiddleware {
	return &MetricsAuthMiddleware{
		user: sha256.Sum256([]byte(username)),
		pass: sha256.Sum256([]byte(password)),
		open: username == "" && password == "",
	}
}

// Open reports whether /metrics is served without credentials.
func (m *MetricsAuthMiddleware) Open() bool { return m.open }

func (m *MetricsAuthMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.open {
			next.ServeHTTP(w, r)
			return
		}

		user, pass, ok := r.BasicAuth()
		if !ok || !m.matches(user, pass) {
			w.Header().Set("WWW-Authenticate", `Basic realm="rongsox metrics", charset="UTF-8"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (m *MetricsAuthMiddleware) matches(user, pass string) bool {
	u := sha256.Sum256([]byte(user))
	p := sha256.Sum256([]byte(pass))
	// Both halves are always compared.
	return subtle.ConstantTimeCompare(u[:], m.user[:])&subtle.ConstantTimeCompare(p[:], m.pass[:]) == 1
}
