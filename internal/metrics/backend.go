package metrics

import (
	"strconv"
	"time"
)

// Breaker states as exported by BackendBreakerState.
const (
	BreakerClosed   = 0
	BreakerHalfOpen = 1
	BreakerOpen     = 2
)

// ObserveBackendRequest records one backend round trip. status 0 means the
// request never produced a response.
func ObserveBackendRequest(op string, status int, duration time.Duration) {
	code := "error"
	if status > 0 {
		code = strconv.Itoa(status)
	}
	BackendRequestsTotal.WithLabelValues(op, code).Inc()
	BackendRequestDuration.WithLabelValues(op).Observe(duration.Seconds())
}

// SetBreakerState publishes the backend circuit breaker state.
func SetBreakerState(state int) {
	BackendBreakerState.Set(float64(state))
}

// LoginSucceeded counts a successful sign-in.
func LoginSucceeded() {
	LoginsTotal.WithLabelValues("success").Inc()
}

// LoginFailed counts a rejected sign-in.
func LoginFailed() {
	LoginsTotal.WithLabelValues("failure").Inc()
}
