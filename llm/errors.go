package llm

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrNoEndpoints is returned when a capability resolves to no usable
	// endpoint.
	ErrNoEndpoints = errors.New("no endpoints configured")

	// ErrInvalidRequest is returned for requests rejected before any network
	// call is made.
	ErrInvalidRequest = errors.New("invalid request")
)

// TransientError represents a temporary error that may succeed on retry.
type TransientError struct {
	err error
}

func (e *TransientError) Error() string { return e.err.Error() }
func (e *TransientError) Unwrap() error { return e.err }

// NewTransientError wraps an error as transient (retryable).
func NewTransientError(err error) error {
	return &TransientError{err: err}
}

// FatalError represents a permanent error that should not be retried.
type FatalError struct {
	err error
}

func (e *FatalError) Error() string { return e.err.Error() }
func (e *FatalError) Unwrap() error { return e.err }

// NewFatalError wraps an error as fatal (non-retryable).
func NewFatalError(err error) error {
	return &FatalError{err: err}
}

// IsTransient returns true if the error is transient and should be retried.
func IsTransient(err error) bool {
	var transient *TransientError
	return errors.As(err, &transient)
}

// IsFatal returns true if the error is fatal and should not be retried.
func IsFatal(err error) bool {
	var fatal *FatalError
	return errors.As(err, &fatal)
}

// APIError is a non-200 response from a provider.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("LLM API error (status %d): %s", e.StatusCode, e.Body)
}

// maxErrorBody bounds the response excerpt kept in an APIError.
const maxErrorBody = 200

// classifyHTTPError wraps a failed response as transient (rate limiting and
// server errors) or fatal (everything else, notably auth and bad requests).
func classifyHTTPError(statusCode int, body []byte) error {
	excerpt := string(body)
	if len(excerpt) > maxErrorBody {
		excerpt = excerpt[:maxErrorBody] + "..."
	}
	err := &APIError{StatusCode: statusCode, Body: excerpt}

	switch {
	case statusCode == http.StatusTooManyRequests,
		statusCode == http.StatusRequestTimeout,
		statusCode >= 500:
		return NewTransientError(err)
	default:
		return NewFatalError(err)
	}
}

// errorStatus labels an error for metrics.
func errorStatus(err error) string {
	switch {
	case err == nil:
		return "success"
	case IsFatal(err):
		return "fatal"
	default:
		return "transient"
	}
}
