package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

type ErrorCode string

const (
	// LoadFailure: one of the startup fetches failed. The whole screen shows
	// the error; only a full reload retries.
	LoadFailure ErrorCode = "load_failure"
	// ValidationFailure: locally detected bad input, rejected before any
	// network call.
	ValidationFailure ErrorCode = "validation_failure"
	// MutationFailure: the record store rejected a create, update or delete.
	MutationFailure ErrorCode = "mutation_failure"

	NotFound      ErrorCode = "not_found"
	InvalidInput  ErrorCode = "invalid_input"
	RateLimited   ErrorCode = "rate_limited"
	InternalError ErrorCode = "internal_error"
)

type AppError struct {
	Code    ErrorCode         `json:"code"`
	Message string            `json:"message"`
	Details string            `json:"details,omitempty"`
	Fields  map[string]string `json:"fields,omitempty"`
	Err     error             `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// ErrorCode exposes the code to loggers without importing this package.
func (e *AppError) ErrorCode() string {
	return string(e.Code)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func NewAppError(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

func NewAppErrorf(code ErrorCode, format string, args ...interface{}) *AppError {
	return &AppError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap builds an AppError around a cause. The cause stays reachable through
// errors.Is / errors.As.
func Wrap(code ErrorCode, message string, err error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

func (e *AppError) WithDetails(details string) *AppError {
	e.Details = details
	return e
}

// WithField records a per-field message, used for inline form errors.
func (e *AppError) WithField(field, message string) *AppError {
	if e.Fields == nil {
		e.Fields = make(map[string]string)
	}
	e.Fields[field] = message
	return e
}

// HTTPStatus maps the error code to the status the record store API and the
// dashboard answer with.
func (e *AppError) HTTPStatus() int {
	switch e.Code {
	case NotFound:
		return http.StatusNotFound
	case InvalidInput:
		return http.StatusBadRequest
	case ValidationFailure:
		return http.StatusUnprocessableEntity
	case RateLimited:
		return http.StatusTooManyRequests
	case LoadFailure, MutationFailure:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// As returns the first AppError in err's chain.
func As(err error) (*AppError, bool) {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// IsCode reports whether err carries an AppError with the given code.
func IsCode(err error, code ErrorCode) bool {
	appErr, ok := As(err)
	return ok && appErr.Code == code
}
