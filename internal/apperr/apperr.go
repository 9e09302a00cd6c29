package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Code is the machine-readable error identifier sent to clients in the
// "error" field of every failure body.
type Code string

const (
	CodeUnauthorized       Code = "UNAUTHORIZED"
	CodeForbidden          Code = "FORBIDDEN"
	CodeNotFound           Code = "NOT_FOUND"
	CodeInvalidInput       Code = "INVALID_INPUT"
	CodeConflict           Code = "CONFLICT"
	CodeInvalidCredentials Code = "INVALID_CREDENTIALS"
	CodeVideoPrivate       Code = "VIDEO_PRIVATE"
	CodeStorage            Code = "STORAGE_ERROR"
	CodeRateLimited        Code = "RATE_LIMITED"
	CodeInternal           Code = "INTERNAL_ERROR"
)

// AppError is an error that knows how it should be rendered over HTTP.
type AppError struct {
	Code       Code
	Message    string
	HTTPStatus int
	Cause      error
	Details    map[string]any
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// WithDetail attaches a field that is merged into the JSON error body.
func (e *AppError) WithDetail(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// Wrap records the underlying cause. The cause is logged server-side but
// never rendered to the client.
func (e *AppError) Wrap(cause error) *AppError {
	e.Cause = cause
	return e
}

func New(code Code, message string, status int) *AppError {
	return &AppError{Code: code, Message: message, HTTPStatus: status}
}

func Unauthorized(message string) *AppError {
	return New(CodeUnauthorized, message, http.StatusUnauthorized)
}

func Forbidden(message string) *AppError {
	return New(CodeForbidden, message, http.StatusForbidden)
}

func NotFound(resource string) *AppError {
	return New(CodeNotFound, resource+" not found", http.StatusNotFound)
}

func InvalidInput(message string) *AppError {
	return New(CodeInvalidInput, message, http.StatusBadRequest)
}

// Conflict is reported as 400, matching the public API contract for
// duplicate registrations and repeat invites.
func Conflict(message string) *AppError {
	return New(CodeConflict, message, http.StatusBadRequest)
}

func InvalidCredentials() *AppError {
	return New(CodeInvalidCredentials, "invalid email or password", http.StatusBadRequest)
}

// VideoPrivate is a Forbidden variant with its own code and a "private"
// flag so clients can tell "ask the owner to share it" apart from a generic
// permission failure.
func VideoPrivate() *AppError {
	return New(CodeVideoPrivate, "this video is private", http.StatusForbidden).
		WithDetail("private", true)
}

func Storage(message string, cause error) *AppError {
	return New(CodeStorage, message, http.StatusInternalServerError).Wrap(cause)
}

func RateLimited() *AppError {
	return New(CodeRateLimited, "rate limit exceeded", http.StatusTooManyRequests)
}

func Internal(message string, cause error) *AppError {
	return New(CodeInternal, message, http.StatusInternalServerError).Wrap(cause)
}

// As returns the first AppError in err's chain, or nil.
func As(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return nil
}

// Is reports whether err carries an AppError with the given code.
func Is(err error, code Code) bool {
	appErr := As(err)
	return appErr != nil && appErr.Code == code
}
