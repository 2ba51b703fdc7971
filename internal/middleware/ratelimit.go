package middleware

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rongsox/dashboard/internal/handler"
)

// =============================================================================
// Rate Limiter
// =============================================================================

// RateLimiter tracks request counts per key with a sliding window.
type RateLimiter struct {
	maxAttempts int
	window      time.Duration
	logger      *slog.Logger

	mu      sync.RWMutex
	entries map[string]*rateLimitEntry
}

type rateLimitEntry struct {
	count       int
	windowStart time.Time
}

// NewRateLimiter creates a new rate limiter.
func NewRateLimiter(maxAttempts int, window time.Duration, logger *slog.Logger) *RateLimiter {
	rl := &RateLimiter{
		maxAttempts: maxAttempts,
		window:      window,
		logger:      logger,
		entries:     make(map[string]*rateLimitEntry),
	}

	// Start cleanup goroutine
	go rl.cleanup()

	return rl
}

// Allow checks if a request from the given key should be allowed.
// Returns true if allowed, false if rate limited.
func (rl *RateLimiter) Allow(key string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	entry, exists := rl.entries[key]

	if !exists {
		// First request from this key
		rl.entries[key] = &rateLimitEntry{
			count:       1,
			windowStart: now,
		}
		return true
	}

	// Check if window has expired
	if now.Sub(entry.windowStart) > rl.window {
		// Reset window
		entry.count = 1
		entry.windowStart = now
		return true
	}

	// Check if under limit
	if entry.count < rl.maxAttempts {
		entry.count++
		return true
	}

	// Rate limited
	return false
}

// TimeUntilReset returns how long until the rate limit resets for a key.
func (rl *RateLimiter) TimeUntilReset(key string) time.Duration {
	rl.mu.RLock()
	defer rl.mu.RUnlock()

	entry, exists := rl.entries[key]
	if !exists {
		return 0
	}

	elapsed := time.Since(entry.windowStart)
	if elapsed >= rl.window {
		return 0
	}

	return rl.window - elapsed
}

// cleanup periodically removes expired entries to prevent memory leaks.
func (rl *RateLimiter) cleanup() {
	ticker := time.NewTicker(rl.window)
	defer ticker.Stop()

	for range ticker.C {
		rl.mu.Lock()
		now := time.Now()
		for key, entry := range rl.entries {
			if now.Sub(entry.windowStart) > rl.window {
				delete(rl.entries, key)
			}
		}
		rl.mu.Unlock()
	}
}

// =============================================================================
// Rate Limit Middleware
// =============================================================================

// RateLimitMiddleware wraps a rate limiter for use as HTTP middleware.
type RateLimitMiddleware struct {
	limiter *RateLimiter
	logger  *slog.Logger
}

// NewRateLimitMiddleware creates a new rate limit middleware.
func NewRateLimitMiddleware(limiter *RateLimiter, logger *slog.Logger) *RateLimitMiddleware {
	return &RateLimitMiddleware{
		limiter: limiter,
		logger:  logger,
	}
}

// Limit returns middleware that rate limits requests by client IP. Browsers
// are sent back to the login page with an error toast.
func (m *RateLimitMiddleware) Limit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		clientIP := getClientIP(r)

		if !m.limiter.Allow(clientIP) {
			m.logger.Warn("rate limit exceeded",
				"ip", clientIP,
				"path", r.URL.Path,
				"method", r.Method,
			)

			wait := m.limiter.TimeUntilReset(clientIP)
			retryAfter := int(wait.Seconds())
			if retryAfter < 1 {
				retryAfter = 1
			}
			w.Header().Set("Retry-After", strconv.Itoa(retryAfter))

			if isAPIRequest(r) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusTooManyRequests)
				_ = json.NewEncoder(w).Encode(map[string]string{
					"error":   "rate_limit_exceeded",
					"message": "Too many requests. Please try again later.",
				})
				return
			}

			minutes := int(math.Ceil(wait.Minutes()))
			if minutes < 1 {
				minutes = 1
			}
			handler.SetToast(w, handler.ErrorToast(fmt.Sprintf("Too many login attempts, please try again in %d minutes !", minutes)))
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// =============================================================================
// Login Rate Limiter
// =============================================================================

// Login attempt limits per client IP.
const (
	LoginMaxAttempts = 5
	LoginWindow      = 15 * time.Minute
)

// LoginRateLimiter throttles sign-in attempts per client IP.
type LoginRateLimiter struct {
	limiter *RateLimiter
	logger  *slog.Logger
}

// NewLoginRateLimiter allows LoginMaxAttempts per LoginWindow.
func NewLoginRateLimiter(logger *slog.Logger) *LoginRateLimiter {
	return &LoginRateLimiter{
		limiter: NewRateLimiter(LoginMaxAttempts, LoginWindow, logger),
		logger:  logger,
	}
}

// LimitLogin returns middleware for rate limiting login attempts.
func (l *LoginRateLimiter) LimitLogin(next http.Handler) http.Handler {
	return NewRateLimitMiddleware(l.limiter, l.logger).Limit(next)
}

// =============================================================================
// Helpers
// =============================================================================

// getClientIP extracts the client IP from the request, considering proxy headers.
func getClientIP(r *http.Request) string {
	// Check X-Forwarded-For first (most common proxy header)
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		// X-Forwarded-For can contain multiple IPs: client, proxy1, proxy2
		// The first one is the original client
		ips := strings.Split(xff, ",")
		if len(ips) > 0 {
			clientIP := strings.TrimSpace(ips[0])
			if clientIP != "" {
				return clientIP
			}
		}
	}

	// Check X-Real-IP (nginx)
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}

	// Fall back to RemoteAddr
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		// RemoteAddr might not have a port
		return r.RemoteAddr
	}

	return ip
}
