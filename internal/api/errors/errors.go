package errors

import (
	"fmt"
	"net/http"
)

// ErrorKind represents different types of API errors
type ErrorKind string

const (
	KindBadRequest         ErrorKind = "bad_request"
	KindTooLarge           ErrorKind = "too_large"
	KindRateLimited        ErrorKind = "rate_limited"
	KindForbidden          ErrorKind = "forbidden"
	KindInternal           ErrorKind = "internal"
	KindServiceUnavailable ErrorKind = "service_unavailable"
)

// APIError represents a structured API error response. Error carries the
// short message the upload form shows; Kind and RequestID help tracing.
type APIError struct {
	Kind      ErrorKind `json:"kind"`
	Message   string    `json:"error"`
	RequestID string    `json:"request_id,omitempty"`
}

// Error implements the error interface
func (e *APIError) Error() string {
	return e.Message
}

// HTTPStatus returns the appropriate HTTP status code for the error kind
func (e *APIError) HTTPStatus() int {
	switch e.Kind {
	case KindBadRequest:
		return http.StatusBadRequest
	case KindTooLarge:
		return http.StatusRequestEntityTooLarge
	case KindRateLimited:
		return http.StatusTooManyRequests
	case KindForbidden:
		return http.StatusForbidden
	case KindServiceUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// NewBadRequestError creates a bad request error
func NewBadRequestError(message string) *APIError {
	return &APIError{
		Kind:    KindBadRequest,
		Message: message,
	}
}

// NewTooLargeError reports an upload over the size limit
func NewTooLargeError(limitBytes int64) *APIError {
	return &APIError{
		Kind:    KindTooLarge,
		Message: fmt.Sprintf("file exceeds the %d MB limit", limitBytes>>20),
	}
}

// NewRateLimitedError rejects a client that is sending too fast
func NewRateLimitedError() *APIError {
	return &APIError{
		Kind:    KindRateLimited,
		Message: "too many requests, try again later",
	}
}

// NewForbiddenError creates a forbidden error
func NewForbiddenError(message string) *APIError {
	return &APIError{
		Kind:    KindForbidden,
		Message: message,
	}
}

// NewInternalError creates an internal server error
func NewInternalError(message string) *APIError {
	return &APIError{
		Kind:    KindInternal,
		Message: message,
	}
}
