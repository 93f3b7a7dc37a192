package models

import (
	"errors"
	"fmt"
	"time"
)

// Error codes used in JSON error responses
const (
	ErrCodeValidation         = "VALIDATION_ERROR"
	ErrCodeNotFound           = "NOT_FOUND"
	ErrCodeUnauthorized       = "UNAUTHORIZED"
	ErrCodeForbidden          = "FORBIDDEN"
	ErrCodeConflict           = "CONFLICT"
	ErrCodeInternal           = "INTERNAL_ERROR"
	ErrCodeBadRequest         = "BAD_REQUEST"
	ErrCodeServiceUnavailable = "SERVICE_UNAVAILABLE"
)

// Common errors
var (
	// ErrNotFound is also what an ownership-filtered mutation reports when
	// the caller is not the row's author: the filter matches zero rows and
	// that is indistinguishable from a missing row.
	ErrNotFound           = errors.New("resource not found")
	ErrUserNotFound       = errors.New("user not found")
	ErrCommentNotFound    = errors.New("comment not found")
	ErrContentNotFound    = errors.New("content not found")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrUsernameExists     = errors.New("username already exists")
	ErrInvalidToken       = errors.New("invalid or expired token")
	ErrUnauthorized       = errors.New("unauthorized access")
	ErrForbidden          = errors.New("forbidden access")
	ErrInvalidInput       = errors.New("invalid input")
	ErrDuplicate          = errors.New("duplicate row")

	// ErrLocalOnly signals a library write that reached the device cache but
	// not the remote store: saved locally, sync pending. Not fatal.
	ErrLocalOnly = errors.New("saved locally, sync pending")
)

// AppError carries a code and HTTP status alongside the message.
type AppError struct {
	Code       string                 `json:"code"`
	Message    string                 `json:"message"`
	StatusCode int                    `json:"status_code,omitempty"`
	Details    map[string]interface{} `json:"details,omitempty"`
}

func (e *AppError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// ToHTTPError converts to the standard API error envelope.
func (e *AppError) ToHTTPError() *APIResponse {
	return &APIResponse{
		Success:   false,
		Error:     e.Message,
		Message:   e.Message,
		Timestamp: time.Now(),
	}
}

// NewHTTPError builds an AppError for the HTTP surface.
func NewHTTPError(code, message string, statusCode int, err error) *AppError {
	details := map[string]interface{}{}
	if err != nil {
		details["original_error"] = err.Error()
	}
	return &AppError{
		Code:       code,
		Message:    message,
		StatusCode: statusCode,
		Details:    details,
	}
}
