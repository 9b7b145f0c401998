package apperror

import (
	"errors"
	"net/http"
)

// AppError is a custom error type that includes an HTTP status code, an optional
// per-field message map, and an optional wrapped cause.
type AppError struct {
	Code    int               // HTTP Status Code (e.g., 400, 404)
	Message string            // User-facing error message
	Fields  map[string]string // Field-level messages for validation failures
	Err     error             // The underlying error, if any (not exposed to user)
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// New creates a new AppError with a status code and message.
func New(code int, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// Wrap creates a new AppError wrapping an existing error.
func Wrap(err error, code int, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Validation creates a 422 error carrying field-level messages.
// The map is copied so callers may keep mutating their own.
func Validation(fields map[string]string) *AppError {
	cp := make(map[string]string, len(fields))
	for k, v := range fields {
		cp[k] = v
	}
	return &AppError{
		Code:    http.StatusUnprocessableEntity,
		Message: "validation failed",
		Fields:  cp,
	}
}

// FieldsOf returns the field messages of err if it is a validation AppError.
func FieldsOf(err error) map[string]string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Fields
	}
	return nil
}
