// Package session holds the session and toast cookie settings shared by the
// handler and middleware packages.
package session

import "time"

const (
	// CookieName is the name of the cookie that stores the session token.
	CookieName = "rongsox_session"

	// CookiePath ensures the cookie is sent with all requests.
	CookiePath = "/"

	// DefaultDuration is how long a session lives when SESSION_DURATION is
	// unset. A session never outlives the backend token it wraps.
	DefaultDuration = 12 * time.Hour

	// ToastCookieName carries a one-shot toast across a redirect.
	ToastCookieName = "rongsox_toast"
)
