package domain

import (
	"errors"
	"fmt"
)

// Application error codes
const (
	EINVALID      = "invalid"      // Invalid input or validation failure
	EUNAUTHORIZED = "unauthorized" // Authentication required
	EFORBIDDEN    = "forbidden"    // Permission denied
	ENOTFOUND     = "not_found"    // Resource not found
	ECONFLICT     = "conflict"     // Duplicate unique field on the backend
	ETOOLARGE     = "too_large"    // Request entity too large
	ERATELIMIT    = "rate_limit"   // Rate limit exceeded
	EUNAVAILABLE  = "unavailable"  // Backend unreachable or circuit open
	EINTERNAL     = "internal"     // Internal server error
)

// Error represents an application error with structured information.
type Error struct {
	Code    string // Machine-readable error code
	Op      string // Operation that failed (e.g., "bank.update")
	Message string // Human-readable message, safe to show in a toast
	Err     error  // Underlying error
}

func (e *Error) Error() string {
	if e.Op != "" {
		return fmt.Sprintf("%s: %s", e.Op, e.Message)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Errorf creates a new Error with the given code, operation, and formatted message.
func Errorf(code, op, format string, args ...interface{}) *Error {
	return &Error{
		Code:    code,
		Op:      op,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap wraps an existing error with additional context.
func Wrap(err error, code, op, message string) *Error {
	return &Error{
		Code:    code,
		Op:      op,
		Message: message,
		Err:     err,
	}
}

// ErrorCode returns the code of the root error, or EINTERNAL if none.
func ErrorCode(err error) string {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return EINTERNAL
}

// ErrorMessage returns the human-readable message of the error.
//
// Backend failures carry a per-operation message ("Update bank failed, please
// try again !") so internal errors with a message keep it; bare errors fall
// back to the generic text.
func ErrorMessage(err error) string {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) && e.Message != "" {
		return e.Message
	}
	return GenericFailureMessage
}

// GenericFailureMessage is shown when nothing more specific is known.
const GenericFailureMessage = "Something went wrong, please try again !"

// ErrorOp returns the operation of the root error, if any.
func ErrorOp(err error) string {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Op
	}
	return ""
}

// Convenience constructors for common error types

// NotFound creates a not found error.
func NotFound(op, resource, id string) *Error {
	return &Error{
		Code:    ENOTFOUND,
		Op:      op,
		Message: fmt.Sprintf("%s with ID %q not found", resource, id),
	}
}

// Invalid creates a validation error.
func Invalid(op, message string) *Error {
	return &Error{
		Code:    EINVALID,
		Op:      op,
		Message: message,
	}
}

// Unauthorized creates an authentication error.
func Unauthorized(op, message string) *Error {
	return &Error{
		Code:    EUNAUTHORIZED,
		Op:      op,
		Message: message,
	}
}

// Forbidden creates a permission error.
func Forbidden(op, message string) *Error {
	return &Error{
		Code:    EFORBIDDEN,
		Op:      op,
		Message: message,
	}
}

// Conflict creates a conflict error.
func Conflict(op, message string) *Error {
	return &Error{
		Code:    ECONFLICT,
		Op:      op,
		Message: message,
	}
}

// Unavailable creates an error for a backend that cannot be reached.
func Unavailable(err error, op string) *Error {
	return &Error{
		Code:    EUNAVAILABLE,
		Op:      op,
		Message: "The server is temporarily unavailable, please try again !",
		Err:     err,
	}
}

// Internal creates an internal error, wrapping the underlying error.
func Internal(err error, op, message string) *Error {
	return &Error{
		Code:    EINTERNAL,
		Op:      op,
		Message: message,
		Err:     err,
	}
}

// RateLimit creates a rate limit error.
func RateLimit(op string) *Error {
	return &Error{
		Code:    ERATELIMIT,
		Op:      op,
		Message: "Too many requests. Please try again later.",
	}
}

// ValidationError represents field-level validation errors.
type ValidationError struct {
	Op     string
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: validation failed", e.Op)
}

// NewValidationError creates a new validation error with the first field error.
func NewValidationError(op, field, message string) *ValidationError {
	return &ValidationError{
		Op: op,
		Fields: map[string]string{
			field: message,
		},
	}
}

// AddFieldError adds a field error to an existing validation error.
// If err is not a ValidationError, returns a new one.
func AddFieldError(err error, field, message string) *ValidationError {
	var ve *ValidationError
	if errors.As(err, &ve) {
		ve.Fields[field] = message
		return ve
	}
	return NewValidationError("", field, message)
}

// FieldErrors returns the per-field messages of a validation error, or nil.
func FieldErrors(err error) map[string]string {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.Fields
	}
	return nil
}
