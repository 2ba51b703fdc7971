package handler

import (
	"encoding/base64"
	"encoding/json"
	"net/http"

	"github.com/rongsox/dashboard/internal/session"
)

// Toast kinds.
const (
	ToastSuccess = "success"
	ToastError   = "error"
	ToastInfo    = "info"
)

// Toast is a one-shot notification shown on the next rendered page.
type Toast struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// SuccessToast returns a success toast.
func SuccessToast(message string) Toast {
	return Toast{Kind: ToastSuccess, Message: message}
}

// ErrorToast returns an error toast.
func ErrorToast(message string) Toast {
	return Toast{Kind: ToastError, Message: message}
}

// SetToast stores a toast for the page the client is redirected to.
func SetToast(w http.ResponseWriter, t Toast) {
	raw, err := json.Marshal(t)
	if err != nil {
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     session.ToastCookieName,
		Value:    base64.RawURLEncoding.EncodeToString(raw),
		Path:     session.CookiePath,
		MaxAge:   60,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// PopToast returns the pending toast and clears it. It returns nil when
// there is none or the cookie is garbled.
func PopToast(w http.ResponseWriter, r *http.Request) *Toast {
	cookie, err := r.Cookie(session.ToastCookieName)
	if err != nil || cookie.Value == "" {
		return nil
	}
	http.SetCookie(w, &http.Cookie{
		Name:     session.ToastCookieName,
		Value:    "",
		Path:     session.CookiePath,
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	raw, err := base64.RawURLEncoding.DecodeString(cookie.Value)
	if err != nil {
		return nil
	}
	var t Toast
	if err := json.Unmarshal(raw, &t); err != nil || t.Message == "" {
		return nil
	}
	return &t
}

// TriggerToast asks htmx to raise a "toast" event on the page, for responses
// that are swapped in place instead of redirecting.
func TriggerToast(w http.ResponseWriter, t Toast) {
	raw, err := json.Marshal(map[string]Toast{"toast": t})
	if err != nil {
		return
	}
	w.Header().Set("HX-Trigger", string(raw))
}
