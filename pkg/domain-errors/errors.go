// Package domainerrors provides coded errors that travel from services to the
// HTTP boundary. Stores return plain sentinels; services translate them into
// coded errors; the transport layer maps codes to status lines without ever
// inspecting error strings.
package domainerrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Code classifies an error for API consumers and for propagation decisions.
type Code string

const (
	// CodeValidation: the request is malformed or violates input rules.
	CodeValidation Code = "validation_error"
	// CodeConflict: a uniqueness rule blocked the write (member code already claimed).
	CodeConflict Code = "conflict"
	// CodeStateConflict: the entity exists but is in the wrong state for the operation.
	CodeStateConflict Code = "state_conflict"
	// CodeNotFound: the entity does not exist.
	CodeNotFound Code = "not_found"
	// CodeUnauthorized: missing or invalid credentials.
	CodeUnauthorized Code = "unauthorized"
	// CodeForbidden: authenticated but not allowed to act on this entity.
	CodeForbidden Code = "forbidden"
	// CodeUnavailable: an upstream dependency failed; the request is retryable.
	CodeUnavailable Code = "unavailable"
	// CodeTimeout: the operation was cancelled or exceeded its deadline.
	CodeTimeout Code = "timeout"
	// CodeInvariantViolation: a domain invariant would be broken; callers usually
	// convert this to CodeValidation before it reaches the API.
	CodeInvariantViolation Code = "invariant_violation"
	// CodeInternal: everything else; details are never exposed to clients.
	CodeInternal Code = "internal_error"
)

// Error is a coded domain error. Message is safe to surface for non-internal codes.
type Error struct {
	Code    Code
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.cause }

// New creates a coded error with no underlying cause.
func New(code Code, message string) error {
	return &Error{Code: code, Message: message}
}

// Wrap attaches a code and message to an underlying error, preserving the chain.
func Wrap(err error, code Code, message string) error {
	if err == nil {
		return nil
	}
	return &Error{Code: code, Message: message, cause: err}
}

// HasCode reports whether err (or anything it wraps) carries the given code.
func HasCode(err error, code Code) bool {
	var de *Error
	if errors.As(err, &de) {
		return de.Code == code
	}
	return false
}

// Is is an alias of HasCode kept for call-site readability in handlers.
func Is(err error, code Code) bool { return HasCode(err, code) }

// GetCode returns the code of err, or CodeInternal when err carries none.
func GetCode(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}

// ToHTTPStatus maps a code onto the HTTP status line.
func ToHTTPStatus(code Code) int {
	switch code {
	case CodeValidation, CodeInvariantViolation:
		return http.StatusBadRequest
	case CodeConflict, CodeStateConflict:
		return http.StatusConflict
	case CodeNotFound:
		return http.StatusNotFound
	case CodeUnauthorized:
		return http.StatusUnauthorized
	case CodeForbidden:
		return http.StatusForbidden
	case CodeUnavailable:
		return http.StatusServiceUnavailable
	case CodeTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
