// Package errors defines the error envelope rendered by the HTTP layer.
// Domain packages return plain sentinel errors; the application layer maps
// them onto an AppError carrying a stable code and HTTP status.
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Generic codes. Domain-specific codes live next to the domain mapping.
const (
	CodeValidationError    = "VALIDATION_ERROR"
	CodeNotFound           = "RESOURCE_NOT_FOUND"
	CodeConflict           = "CONFLICT"
	CodeUnauthorized       = "UNAUTHORIZED"
	CodeForbidden          = "FORBIDDEN"
	CodeInternalError      = "INTERNAL_ERROR"
	CodeBadRequest         = "BAD_REQUEST"
	CodeServiceUnavailable = "SERVICE_UNAVAILABLE"
	CodeTimeout            = "TIMEOUT"
)

// AppError is an error with a machine-readable code, an HTTP status and
// optional per-field details.
type AppError struct {
	Code       string            `json:"code"`
	Message    string            `json:"message"`
	Details    map[string]string `json:"details,omitempty"`
	HTTPStatus int               `json:"-"`
	Err        error             `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err == nil {
		return e.Code + ": " + e.Message
	}
	return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
}

func (e *AppError) Unwrap() error { return e.Err }

// WithDetails replaces the details map
func (e *AppError) WithDetails(details map[string]string) *AppError {
	e.Details = details
	return e
}

// WithDetail sets one detail
func (e *AppError) WithDetail(key, value string) *AppError {
	if e.Details == nil {
		e.Details = map[string]string{}
	}
	e.Details[key] = value
	return e
}

// Wrap records the underlying cause
func (e *AppError) Wrap(err error) *AppError {
	e.Err = err
	return e
}

// NewAppError creates an AppError
func NewAppError(code, message string, httpStatus int) *AppError {
	return &AppError{Code: code, Message: message, HTTPStatus: httpStatus}
}

func orDefault(message, fallback string) string {
	if message == "" {
		return fallback
	}
	return message
}

func ErrValidation(message string) *AppError {
	return NewAppError(CodeValidationError, message, http.StatusBadRequest)
}

// ErrValidationWithFields is a validation error keyed by offending field
func ErrValidationWithFields(message string, fields map[string]string) *AppError {
	return ErrValidation(message).WithDetails(fields)
}

func ErrBadRequest(message string) *AppError {
	return NewAppError(CodeBadRequest, message, http.StatusBadRequest)
}

func ErrNotFound(resource string) *AppError {
	return NewAppError(CodeNotFound, resource+" not found", http.StatusNotFound)
}

// ErrNotFoundWithID is ErrNotFound with the missing ID as the "id" detail
func ErrNotFoundWithID(resource, id string) *AppError {
	return ErrNotFound(resource).WithDetail("id", id)
}

func ErrConflict(message string) *AppError {
	return NewAppError(CodeConflict, message, http.StatusConflict)
}

func ErrUnauthorized(message string) *AppError {
	return NewAppError(CodeUnauthorized, orDefault(message, "authentication required"), http.StatusUnauthorized)
}

func ErrForbidden(message string) *AppError {
	return NewAppError(CodeForbidden, orDefault(message, "access denied"), http.StatusForbidden)
}

func ErrInternal(message string) *AppError {
	return NewAppError(CodeInternalError, orDefault(message, "an internal error occurred"), http.StatusInternalServerError)
}

func ErrServiceUnavailable(service string) *AppError {
	return NewAppError(CodeServiceUnavailable, service+" is temporarily unavailable", http.StatusServiceUnavailable)
}

func ErrTimeout(operation string) *AppError {
	return NewAppError(CodeTimeout, operation+" timed out", http.StatusGatewayTimeout)
}

// AsAppError finds an AppError anywhere in err's chain
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	ok := errors.As(err, &appErr)
	return appErr, ok
}

// FromError returns the AppError in err's chain, or wraps err as an
// internal error. It returns nil for a nil err.
func FromError(err error) *AppError {
	if err == nil {
		return nil
	}
	if appErr, ok := AsAppError(err); ok {
		return appErr
	}
	return ErrInternal("").Wrap(err)
}
