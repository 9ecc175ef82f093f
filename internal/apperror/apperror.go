// Package apperror defines the error taxonomy shared by every client
// component.
//
// Five kinds cover everything this client can hit:
//
//	ErrValidation — local, pre-network, field-scoped; never hits the wire
//	ErrAuth       — 401 from any endpoint; escalates to a forced logout
//	ErrConflict   — 409 on sign-up; "user already exists"
//	ErrNotFound   — 404, mainly share-token resolution; terminal, no retry
//	ErrTransport  — network failure, timeout, or a non-2xx without a
//	                structured envelope; generic and retryable
//
// Callers classify with errors.Is and extract the human-readable message
// (and field, for validation errors) with errors.As.
package apperror

import (
	"errors"
	"fmt"
)

var (
	ErrValidation = errors.New("validation error")
	ErrAuth       = errors.New("authentication required")
	ErrConflict   = errors.New("conflict")
	ErrNotFound   = errors.New("not found")
	ErrTransport  = errors.New("transport error")
)

// AppError carries a sentinel kind, a human-readable message, and for
// validation errors the form field that caused it.
type AppError struct {
	Err     error  // sentinel kind (one of the vars above)
	Message string // human-readable error message
	Field   string // optional: field causing a validation error
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// ValidationFailed returns a field-scoped local validation error.
// These are produced before any network call and stay local to the
// initiating form — they never cross a component boundary.
func ValidationFailed(field, message string) *AppError {
	return &AppError{
		Err:     ErrValidation,
		Message: message,
		Field:   field,
	}
}

// Unauthorized returns an auth error. Whichever component observes it,
// the session manager is the one that acts on it (forced reset).
func Unauthorized(message string) *AppError {
	if message == "" {
		message = "authentication required"
	}
	return &AppError{
		Err:     ErrAuth,
		Message: message,
	}
}

// Conflict returns a 409-class error. Only the sign-up path produces these.
func Conflict(message string) *AppError {
	return &AppError{
		Err:     ErrConflict,
		Message: message,
	}
}

// NotFound returns a terminal not-found error for the named resource.
func NotFound(resource string) *AppError {
	return &AppError{
		Err:     ErrNotFound,
		Message: fmt.Sprintf("%s not found", resource),
	}
}

// Transport wraps a network-level failure. detail is the server-provided
// message when one was present, otherwise empty and the generic message
// stands alone.
func Transport(detail string, cause error) *AppError {
	msg := "request failed"
	if detail != "" {
		msg = detail
	}
	err := error(ErrTransport)
	if cause != nil {
		err = fmt.Errorf("%w: %w", ErrTransport, cause)
	}
	return &AppError{
		Err:     err,
		Message: msg,
	}
}

// FieldOf extracts the field name from a validation error, or "" if err is
// not one.
func FieldOf(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Field
	}
	return ""
}

// MessageOf extracts the human-readable message from any AppError in the
// chain, falling back to err.Error().
func MessageOf(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	if err != nil {
		return err.Error()
	}
	return ""
}
