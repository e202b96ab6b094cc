package types

import "fmt"

// ErrorCode represents a unified error code across the extraction layer.
type ErrorCode string

const (
	ErrRecoveryExhausted ErrorCode = "RECOVERY_EXHAUSTED" // internal: no strategy produced a decodable value
	ErrValidation        ErrorCode = "VALIDATION"         // candidate violates the declared schema
	ErrParse             ErrorCode = "PARSE"              // strict-mode parse rejection
	ErrQuotaExceeded     ErrorCode = "QUOTA_EXCEEDED"     // invocation window exhausted
	ErrTransport         ErrorCode = "TRANSPORT"          // completion call failed or timed out
	ErrInvalidSchema     ErrorCode = "INVALID_SCHEMA"     // malformed schema descriptor
)

// Error represents a structured error with code, message, and metadata.
type Error struct {
	Code      ErrorCode `json:"code"`
	Message   string    `json:"message"`
	Field     string    `json:"field,omitempty"` // offending field for validation errors
	Retryable bool      `json:"retryable"`
	Cause     error     `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	switch {
	case e.Field != "" && e.Cause != nil:
		return fmt.Sprintf("[%s] field %q: %s: %v", e.Code, e.Field, e.Message, e.Cause)
	case e.Field != "":
		return fmt.Sprintf("[%s] field %q: %s", e.Code, e.Field, e.Message)
	case e.Cause != nil:
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	default:
		return fmt.Sprintf("[%s] %s", e.Code, e.Message)
	}
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// NewError creates a new Error with the given code and message.
func NewError(code ErrorCode, message string) *Error {
	return &Error{Code: code, Message: message}
}

// NewValidationError creates a validation error naming the offending field.
func NewValidationError(field, reason string) *Error {
	return &Error{Code: ErrValidation, Message: reason, Field: field}
}

// WithCause adds a cause to the error.
func (e *Error) WithCause(cause error) *Error {
	e.Cause = cause
	return e
}

// WithRetryable marks the error as retryable.
func (e *Error) WithRetryable(retryable bool) *Error {
	e.Retryable = retryable
	return e
}

// CodeOf extracts the ErrorCode from err, or "" if err is not a *Error.
func CodeOf(err error) ErrorCode {
	if e, ok := err.(*Error); ok {
		return e.Code
	}
	return ""
}
