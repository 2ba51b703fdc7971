// Package csrf provides CSRF protection using the double-submit cookie pattern.
//
// A random token lives in a cookie and is echoed by every unsafe request,
// either as a hidden form field or, for htmx requests, as a header. A
// cross-site page can make the browser send the cookie but cannot read it,
// so it cannot echo it.
package csrf

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"net/http"
)

const (
	// CookieName is the name of the CSRF token cookie.
	CookieName = "rongsox_csrf"

	// FormFieldName is the hidden form field carrying the token.
	FormFieldName = "csrf_token"

	// HeaderName carries the token on htmx requests.
	HeaderName = "X-CSRF-Token"

	// TokenLength is the number of random bytes for the token.
	TokenLength = 32

	// CookieMaxAge matches the longest staff session so an open form never
	// outlives its token.
	CookieMaxAge = 12 * 60 * 60
)

// GenerateToken returns 32 random bytes, base64 URL-encoded (43 chars).
func GenerateToken() (string, error) {
	b := make([]byte, TokenLength)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// ValidateToken compares the cookie token with the submitted token in
// constant time.
func ValidateToken(cookieToken, submitted string) bool {
	if cookieToken == "" || submitted == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(cookieToken), []byte(submitted)) == 1
}

// Submitted returns the token echoed by the request. The header wins over
// the form field; reading the field parses the body.
func Submitted(r *http.Request) string {
	if h := r.Header.Get(HeaderName); h != "" {
		return h
	}
	return r.FormValue(FormFieldName)
}

// ValidateRequest reports whether the request echoes its cookie token.
func ValidateRequest(r *http.Request) bool {
	return ValidateToken(GetTokenFromRequest(r), Submitted(r))
}

// SetCookie sets the token cookie. It is not HttpOnly: the layout copies it
// into htmx request headers.
func SetCookie(w http.ResponseWriter, token string, isSecure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   CookieMaxAge,
		HttpOnly: false,
		Secure:   isSecure,
		SameSite: http.SameSiteStrictMode,
	})
}

// GetTokenFromRequest returns the cookie token or "".
func GetTokenFromRequest(r *http.Request) string {
	cookie, err := r.Cookie(CookieName)
	if err != nil {
		return ""
	}
	return cookie.Value
}

// EnsureToken returns the request's token, issuing a new cookie when the
// request has none.
func EnsureToken(w http.ResponseWriter, r *http.Request, isSecure bool) (string, error) {
	if existing := GetTokenFromRequest(r); existing != "" {
		return existing, nil
	}
	token, err := GenerateToken()
	if err != nil {
		return "", err
	}
	SetCookie(w, token, isSecure)
	return token, nil
}

// =============================================================================
// Context
// =============================================================================

type contextKey struct{}

// WithToken stores the token so templates can render it into forms.
func WithToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, contextKey{}, token)
}

// Token returns the token stored by WithToken, or "".
func Token(ctx context.Context) string {
	token, _ := ctx.Value(contextKey{}).(string)
	return token
}
