package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/rongsox/dashboard/internal/domain"
)

// ErrorResponse writes an error response to the client.
// It maps domain error codes to HTTP status codes and answers in JSON for
// API clients. Browsers get the error page with the message as its toast.
func ErrorResponse(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	code := domain.ErrorCode(err)
	message := domain.ErrorMessage(err)
	op := domain.ErrorOp(err)

	status := ErrorCodeToHTTPStatus(code)
	logError(logger, r, err, code, op, status)

	if acceptsJSON(r) {
		writeJSONError(w, status, code, message, nil)
		return
	}

	if r.Header.Get("HX-Request") == "true" {
		TriggerToast(w, ErrorToast(message))
		w.WriteHeader(status)
		return
	}

	http.Error(w, message, status)
}

// ErrorCodeToHTTPStatus maps domain error codes to HTTP status codes.
func ErrorCodeToHTTPStatus(code string) int {
	switch code {
	case domain.EINVALID:
		return http.StatusUnprocessableEntity // 422
	case domain.EUNAUTHORIZED:
		return http.StatusUnauthorized // 401
	case domain.EFORBIDDEN:
		return http.StatusForbidden // 403
	case domain.ENOTFOUND:
		return http.StatusNotFound // 404
	case domain.ECONFLICT:
		return http.StatusConflict // 409
	case domain.ETOOLARGE:
		return http.StatusRequestEntityTooLarge // 413
	case domain.ERATELIMIT:
		return http.StatusTooManyRequests // 429
	case domain.EUNAVAILABLE:
		return http.StatusServiceUnavailable // 503
	default:
		return http.StatusInternalServerError // 500
	}
}

// ValidationErrorResponse writes field-level errors as JSON. HTML forms
// re-render themselves with the fields instead (see renderForm).
func ValidationErrorResponse(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	var ve *domain.ValidationError
	if !errors.As(err, &ve) {
		ErrorResponse(w, r, logger, err)
		return
	}

	logger.Info("validation error",
		"op", ve.Op,
		"field_count", len(ve.Fields),
		"path", r.URL.Path,
	)
	writeJSONError(w, http.StatusUnprocessableEntity, domain.EINVALID, "Validation failed", ve.Fields)
}

// NotFoundResponse is a convenience wrapper for 404 errors.
func NotFoundResponse(w http.ResponseWriter, r *http.Request, logger *slog.Logger) {
	ErrorResponse(w, r, logger, domain.Errorf(domain.ENOTFOUND, "", "Page not found !"))
}

// UnauthorizedResponse is a convenience wrapper for 401 errors.
func UnauthorizedResponse(w http.ResponseWriter, r *http.Request, logger *slog.Logger) {
	ErrorResponse(w, r, logger, domain.Errorf(domain.EUNAUTHORIZED, "", "Please sign in to continue !"))
}

// ForbiddenResponse is a convenience wrapper for 403 errors.
func ForbiddenResponse(w http.ResponseWriter, r *http.Request, logger *slog.Logger) {
	ErrorResponse(w, r, logger, domain.Errorf(domain.EFORBIDDEN, "", "You are not authorized to access this page !"))
}

// InternalErrorResponse logs the error and returns a generic 500 response.
func InternalErrorResponse(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	ErrorResponse(w, r, logger, domain.Internal(err, "", domain.GenericFailureMessage))
}

// logError logs 5xx at error level and 4xx at info level.
func logError(logger *slog.Logger, r *http.Request, err error, code, op string, status int) {
	attrs := []any{
		"error", err.Error(),
		"code", code,
		"path", r.URL.Path,
		"method", r.Method,
		"status", status,
	}
	if op != "" {
		attrs = append(attrs, "op", op)
	}

	if status >= 500 {
		logger.Error("server error", attrs...)
	} else if status >= 400 {
		logger.Info("client error", attrs...)
	}
}

// acceptsJSON checks if the client prefers JSON responses.
func acceptsJSON(r *http.Request) bool {
	if r.Header.Get("HX-Request") == "true" {
		return false
	}
	if strings.Contains(r.Header.Get("Accept"), "application/json") {
		return true
	}
	return strings.Contains(r.Header.Get("Content-Type"), "application/json")
}

// JSONError is the body of API error responses.
type JSONError struct {
	Error struct {
		Code    string            `json:"code"`
		Message string            `json:"message"`
		Fields  map[string]string `json:"fields,omitempty"`
	} `json:"error"`
}

func writeJSONError(w http.ResponseWriter, status int, code, message string, fields map[string]string) {
	var body JSONError
	body.Error.Code = code
	body.Error.Message = message
	body.Error.Fields = fields

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
