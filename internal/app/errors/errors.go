package errors

import (
	"fmt"
)

// Common error types
var (
	// Configuration errors
	ErrMissingAPIKey = New("API key is required")
	ErrInvalidConfig = New("invalid configuration")

	// Selection errors
	ErrNoFile = New("no file selected")

	// File errors
	ErrFileReadFailed  = New("file read failed")
	ErrFileWriteFailed = New("file write failed")

	// Network errors
	ErrRequestFailed   = New("request failed")
	ErrResponseInvalid = New("invalid response")

	// Backend errors
	ErrTranscriptionFailed = New("transcription failed")
	ErrSummaryFailed       = New("summary failed")
)

// Error represents a standardized error
type Error struct {
	message string
	cause   error
}

// New creates a new error
func New(message string) *Error {
	return &Error{message: message}
}

// Newf creates a new formatted error
func Newf(format string, args ...interface{}) *Error {
	return &Error{message: fmt.Sprintf(format, args...)}
}

// Wrap wraps an error with additional context
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return &Error{
		message: message,
		cause:   err,
	}
}

// Wrapf wraps an error with formatted context
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return &Error{
		message: fmt.Sprintf(format, args...),
		cause:   err,
	}
}

// WithCause attaches cause to a copy of a sentinel so errors.Is still
// matches the sentinel.
func WithCause(kind *Error, cause error) error {
	if cause == nil {
		return kind
	}
	return &Error{
		message: kind.message,
		cause:   cause,
	}
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.message, e.cause)
	}
	return e.message
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.cause
}

// Is checks if the error matches target
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.message == t.message
}

// RequiredField returns an error for missing required fields
func RequiredField(field string) error {
	return Newf("%s is required", field)
}

// InvalidField returns an error for invalid field values
func InvalidField(field string, reason string) error {
	return Newf("%s is invalid: %s", field, reason)
}
