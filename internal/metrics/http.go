package metrics

import (
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// idSegment matches a backend id path segment: a UUID or a number.
var idSegment = regexp.MustCompile(`/([0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}|[0-9]+)(/|$)`)

// untracked paths are served outside the dashboard pages and would only add
// series: scrapes, load balancer checks and assets.
func untracked(path string) bool {
	return path == "/metrics" || path == "/health" || strings.HasPrefix(path, "/static/")
}

// statusRecorder remembers the first status written.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	if r.status == 0 {
		r.status = code
	}
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	return r.ResponseWriter.Write(b)
}

func (r *statusRecorder) Unwrap() http.ResponseWriter { return r.ResponseWriter }

func normalizePath(path string) string {
	// Two passes so adjacent ids such as /a/1/2 both collapse.
	path = idSegment.ReplaceAllString(path, "/{id}$2")
	return idSegment.ReplaceAllString(path, "/{id}$2")
}

// Middleware counts and times dashboard requests by method, route and
// status. Handlers that never write are recorded as 200.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if untracked(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		HTTPRequestsInFlight.Inc()
		defer HTTPRequestsInFlight.Dec()

		rec := &statusRecorder{ResponseWriter: w}
		start := time.Now()
		next.ServeHTTP(rec, r)

		if rec.status == 0 {
			rec.status = http.StatusOK
		}
		route := normalizePath(r.URL.Path)
		HTTPRequestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(rec.status)).Inc()
		HTTPRequestDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}
