package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinel errors for errors.Is checks across layers.
var (
	ErrNotFound       = errors.New("resource not found")
	ErrAuthentication = errors.New("authentication failed")
	ErrAuthorization  = errors.New("forbidden")
	ErrBadRequest     = errors.New("bad request")
	ErrConflict       = errors.New("conflict")
	ErrValidation     = errors.New("validation error")
	ErrInternal       = errors.New("internal error")
)

// AppError carries an error with its HTTP mapping. Every request either
// fully succeeds or is rejected with exactly one of these before any
// mutation happens.
type AppError struct {
	Err        error             `json:"-"`
	Message    string            `json:"message"`
	Code       string            `json:"code"`
	HTTPStatus int               `json:"-"`
	Details    map[string]string `json:"details,omitempty"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// NotFound creates a not found error (404)
func NotFound(resource string, id string) *AppError {
	return &AppError{
		Err:        ErrNotFound,
		Message:    fmt.Sprintf("%s not found", resource),
		Code:       "NOT_FOUND",
		HTTPStatus: http.StatusNotFound,
		Details:    map[string]string{"resource": resource, "id": id},
	}
}

// Authentication creates an authentication error (401): missing, malformed,
// expired or badly signed credentials.
func Authentication(message string) *AppError {
	return &AppError{
		Err:        ErrAuthentication,
		Message:    message,
		Code:       "AUTHENTICATION_ERROR",
		HTTPStatus: http.StatusUnauthorized,
	}
}

// Authorization creates an authorization error (403): valid identity,
// insufficient permission or failed ownership/shift check.
func Authorization(message string) *AppError {
	return &AppError{
		Err:        ErrAuthorization,
		Message:    message,
		Code:       "AUTHORIZATION_ERROR",
		HTTPStatus: http.StatusForbidden,
	}
}

// BadRequest creates a bad request error (400)
func BadRequest(message string) *AppError {
	return &AppError{
		Err:        ErrBadRequest,
		Message:    message,
		Code:       "BAD_REQUEST",
		HTTPStatus: http.StatusBadRequest,
	}
}

// Validation creates a validation error (400) with per-field details
func Validation(message string, details map[string]string) *AppError {
	return &AppError{
		Err:        ErrValidation,
		Message:    message,
		Code:       "VALIDATION_ERROR",
		HTTPStatus: http.StatusBadRequest,
		Details:    details,
	}
}

// Conflict creates a conflict error (409), used for folio and email
// uniqueness violations.
func Conflict(message string) *AppError {
	return &AppError{
		Err:        ErrConflict,
		Message:    message,
		Code:       "CONFLICT",
		HTTPStatus: http.StatusConflict,
	}
}

// Internal creates an internal error (500)
func Internal(err error) *AppError {
	return &AppError{
		Err:        err,
		Message:    "internal server error",
		Code:       "INTERNAL_ERROR",
		HTTPStatus: http.StatusInternalServerError,
	}
}

// Wrap wraps an error with additional context, preserving an existing
// AppError's HTTP mapping.
func Wrap(err error, message string) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return &AppError{
			Err:        appErr,
			Message:    fmt.Sprintf("%s: %s", message, appErr.Message),
			Code:       appErr.Code,
			HTTPStatus: appErr.HTTPStatus,
			Details:    appErr.Details,
		}
	}
	return &AppError{
		Err:        err,
		Message:    message,
		Code:       "INTERNAL_ERROR",
		HTTPStatus: http.StatusInternalServerError,
	}
}
