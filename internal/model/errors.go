package model

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Sentinel errors for common cases.
// Use errors.Is() to check against these.
var (
	ErrBadRequest           = errors.New("bad request")
	ErrUnauthorized         = errors.New("unauthorized")
	ErrForbidden            = errors.New("forbidden")
	ErrNotFound             = errors.New("not found")
	ErrUnsupportedMediaType = errors.New("unsupported media type")
	ErrNotAcceptable        = errors.New("not acceptable")
)

// APIError represents a structured error for API responses.
// Implements error interface and supports unwrapping.
type APIError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	StatusCode int    `json:"-"` // HTTP status, not serialized
	Err        error  `json:"-"` // Wrapped error, not serialized
}

func (e *APIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// ErrorResponse is the JSON envelope written for every failed request:
// {"error":{"code":"...","message":"..."}}.
type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

// ErrorBody is the inner object of ErrorResponse.
type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Response returns the wire envelope for e.
func (e *APIError) Response() ErrorResponse {
	return ErrorResponse{Error: ErrorBody{Code: e.Code, Message: e.Message}}
}

// NewBadRequestError creates a 400 error for requests that fail a guard.
func NewBadRequestError(reason string) *APIError {
	return &APIError{
		Code:       "BAD_REQUEST",
		Message:    reason,
		StatusCode: http.StatusBadRequest,
		Err:        ErrBadRequest,
	}
}

// NewUnauthorizedError creates a 401 error for auth failures.
func NewUnauthorizedError(reason string) *APIError {
	return &APIError{
		Code:       "UNAUTHORIZED",
		Message:    reason,
		StatusCode: http.StatusUnauthorized,
		Err:        ErrUnauthorized,
	}
}

// NewForbiddenError creates a 403 error for authenticated callers lacking a role.
func NewForbiddenError(reason string) *APIError {
	return &APIError{
		Code:       "FORBIDDEN",
		Message:    reason,
		StatusCode: http.StatusForbidden,
		Err:        ErrForbidden,
	}
}

// NewNotFoundError creates a 404 error for missing resources.
func NewNotFoundError(resource string) *APIError {
	return &APIError{
		Code:       "NOT_FOUND",
		Message:    fmt.Sprintf("%s not found", resource),
		StatusCode: http.StatusNotFound,
		Err:        ErrNotFound,
	}
}

// NewUnsupportedMediaTypeError creates a 415 error. offered lists the media
// types the endpoint can produce or consume; it may be empty.
func NewUnsupportedMediaTypeError(offered ...string) *APIError {
	msg := "unsupported media type"
	if len(offered) > 0 {
		msg = fmt.Sprintf("unsupported media type, expected one of: %s", strings.Join(offered, ", "))
	}
	return &APIError{
		Code:       "UNSUPPORTED_MEDIA_TYPE",
		Message:    msg,
		StatusCode: http.StatusUnsupportedMediaType,
		Err:        ErrUnsupportedMediaType,
	}
}

// NewNotAcceptableError creates a 406 error for Accept headers nothing satisfies.
func NewNotAcceptableError(offered ...string) *APIError {
	msg := "no acceptable representation"
	if len(offered) > 0 {
		msg = fmt.Sprintf("no acceptable representation, available: %s", strings.Join(offered, ", "))
	}
	return &APIError{
		Code:       "NOT_ACCEPTABLE",
		Message:    msg,
		StatusCode: http.StatusNotAcceptable,
		Err:        ErrNotAcceptable,
	}
}

// NewInternalError creates a 500 error for unexpected failures.
func NewInternalError(err error) *APIError {
	return &APIError{
		Code:       "INTERNAL_ERROR",
		Message:    "an internal error occurred",
		StatusCode: http.StatusInternalServerError,
		Err:        err,
	}
}

// NewStatusError creates an error for an arbitrary status. The code is
// derived from the status text ("Payment Required" -> "PAYMENT_REQUIRED")
// and message defaults to the lower-cased status text. Well-known statuses
// wrap their sentinel.
func NewStatusError(status int, message string) *APIError {
	text := http.StatusText(status)
	if text == "" {
		text = fmt.Sprintf("status %d", status)
	}
	if message == "" {
		message = strings.ToLower(text)
	}
	return &APIError{
		Code:       strings.ToUpper(strings.ReplaceAll(text, " ", "_")),
		Message:    message,
		StatusCode: status,
		Err:        sentinelFor(status),
	}
}

func sentinelFor(status int) error {
	switch status {
	case http.StatusBadRequest:
		return ErrBadRequest
	case http.StatusUnauthorized:
		return ErrUnauthorized
	case http.StatusForbidden:
		return ErrForbidden
	case http.StatusNotFound:
		return ErrNotFound
	case http.StatusUnsupportedMediaType:
		return ErrUnsupportedMediaType
	case http.StatusNotAcceptable:
		return ErrNotAcceptable
	default:
		return nil
	}
}
