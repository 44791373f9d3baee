package fetcher

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
)

// ErrorType represents the category of error that occurred during a fetch operation
type ErrorType string

const (
	// ErrorTypeNetwork indicates a transport-level error (connection refused, DNS, reset)
	ErrorTypeNetwork ErrorType = "network"
	// ErrorTypeTimeout indicates the request timed out
	ErrorTypeTimeout ErrorType = "timeout"
	// ErrorTypeHTTP indicates the backend answered with a non-2xx status
	ErrorTypeHTTP ErrorType = "http"
	// ErrorTypeParse indicates the response body was not valid JSON for the expected record
	ErrorTypeParse ErrorType = "parse"
	// ErrorTypeValidation indicates input was rejected locally, before any network call
	ErrorTypeValidation ErrorType = "validation"
)

// FetchError represents a structured error from a fetch operation.
// Message is the human-readable text shown next to the failing feed.
type FetchError struct {
	Type       ErrorType
	Retryable  bool
	StatusCode int
	Detail     string
	Message    string
	Cause      error
}

// Error implements the error interface
func (e *FetchError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("%s error (status %d): %s", e.Type, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s error: %s", e.Type, e.Message)
}

// Unwrap implements error unwrapping for errors.Is and errors.As
func (e *FetchError) Unwrap() error {
	return e.Cause
}

// NewNetworkError creates a network error carrying the underlying message
func NewNetworkError(cause error) *FetchError {
	return &FetchError{
		Type:      ErrorTypeNetwork,
		Retryable: true,
		Message:   cause.Error(),
		Cause:     cause,
	}
}

// NewTimeoutError creates a timeout error
func NewTimeoutError(cause error) *FetchError {
	return &FetchError{
		Type:      ErrorTypeTimeout,
		Retryable: true,
		Message:   "request timed out",
		Cause:     cause,
	}
}

// NewHTTPError creates an error for a non-2xx response. A server-provided
// detail becomes the message verbatim.
func NewHTTPError(statusCode int, detail string) *FetchError {
	msg := detail
	if msg == "" {
		msg = fmt.Sprintf("HTTP error %d", statusCode)
	}
	return &FetchError{
		Type:       ErrorTypeHTTP,
		Retryable:  isRetryableStatus(statusCode),
		StatusCode: statusCode,
		Detail:     detail,
		Message:    msg,
	}
}

// NewParseError creates an error for a malformed response body
func NewParseError(cause error) *FetchError {
	return &FetchError{
		Type:    ErrorTypeParse,
		Message: fmt.Sprintf("invalid response body: %v", cause),
		Cause:   cause,
	}
}

// NewValidationError creates a validation error
func NewValidationError(message string) *FetchError {
	return &FetchError{
		Type:    ErrorTypeValidation,
		Message: message,
	}
}

// ClassifyTransportError maps an error returned by the HTTP client to a FetchError
func ClassifyTransportError(err error) *FetchError {
	var fe *FetchError
	if errors.As(err, &fe) {
		return fe
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return NewTimeoutError(err)
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return NewTimeoutError(err)
	}

	return NewNetworkError(err)
}

// Message returns the human-readable part of err, suitable for display
func Message(err error) string {
	if err == nil {
		return ""
	}
	var fe *FetchError
	if errors.As(err, &fe) {
		return fe.Message
	}
	return err.Error()
}

// IsType reports whether err is a FetchError of the given type
func IsType(err error, t ErrorType) bool {
	var fe *FetchError
	return errors.As(err, &fe) && fe.Type == t
}

func isRetryableStatus(statusCode int) bool {
	return statusCode == http.StatusRequestTimeout ||
		statusCode == http.StatusTooManyRequests ||
		statusCode >= http.StatusInternalServerError
}
