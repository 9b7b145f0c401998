package bookingapi

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrMalformedResponse marks payloads that failed boundary validation.
var ErrMalformedResponse = errors.New("malformed booking service response")

// APIError is a non-2xx answer from the booking service. Body holds the raw
// response text as detail.
type APIError struct {
	Operation  string
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: booking service returned %d: %s", e.Operation, e.StatusCode, e.Body)
}

func (e *APIError) NotFound() bool {
	return e.StatusCode == http.StatusNotFound
}

func (e *APIError) Conflict() bool {
	return e.StatusCode == http.StatusConflict
}

// TransientError represents a temporary error that may succeed on retry.
type TransientError struct {
	err error
}

func (e *TransientError) Error() string {
	return e.err.Error()
}

func (e *TransientError) Unwrap() error {
	return e.err
}

// NewTransientError wraps an error as transient (retryable).
func NewTransientError(err error) error {
	return &TransientError{err: err}
}

// IsTransient returns true if the error is transient and should be retried.
func IsTransient(err error) bool {
	var transient *TransientError
	return errors.As(err, &transient)
}

// IsConflict reports whether the booking service rejected the request with 409,
// typically because a bed was taken between selection and submission.
func IsConflict(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Conflict()
}

// classifyHTTPError turns a non-2xx status into an APIError, marking
// server-side and throttling failures as transient.
func classifyHTTPError(operation string, statusCode int, body []byte) error {
	bodyStr := string(body)
	if len(bodyStr) > 500 {
		bodyStr = bodyStr[:500] + "..."
	}

	err := &APIError{Operation: operation, StatusCode: statusCode, Body: bodyStr}

	switch {
	case statusCode == http.StatusTooManyRequests,
		statusCode == http.StatusRequestTimeout,
		statusCode >= 500:
		return NewTransientError(err)
	default:
		return err
	}
}
