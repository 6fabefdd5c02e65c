// Package apperror defines the error kinds the mess engines return and the
// handlers translate into flash messages, JSON failures or status codes.
package apperror

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound    = errors.New("not found")
	ErrValidation  = errors.New("validation error")
	ErrConflict    = errors.New("conflict")
	ErrTransaction = errors.New("transaction failed")
)

// AppError wraps one of the sentinel errors with the message shown to the user
type AppError struct {
	Err     error  // sentinel kind
	Message string // human-readable message shown to the user
	Field   string // optional form field that caused the error
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// NotFound reports a missing resource
func NotFound(resource string, id any) *AppError {
	return &AppError{
		Err:     ErrNotFound,
		Message: fmt.Sprintf("%s not found with id %v", resource, id),
	}
}

// ValidationFailed reports bad input for field
func ValidationFailed(field, message string) *AppError {
	return &AppError{
		Err:     ErrValidation,
		Message: message,
		Field:   field,
	}
}

// Conflict reports a unique value that is already taken.
func Conflict(field, value string) *AppError {
	return &AppError{
		Err:     ErrConflict,
		Message: fmt.Sprintf("%s %q already exists", field, value),
		Field:   field,
	}
}

// TxFailed wraps a store failure that rolled back a multi-step write.
// The message keeps the underlying diagnostic.
func TxFailed(op string, cause error) *AppError {
	return &AppError{
		Err:     fmt.Errorf("%w: %w", ErrTransaction, cause),
		Message: fmt.Sprintf("%s failed: %v", op, cause),
	}
}

// Message returns the user-facing text of err.
func Message(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return "An internal error occurred"
}
