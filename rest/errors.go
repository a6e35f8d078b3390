package rest

import (
	"errors"
	"fmt"
	"net/http"
)

// API error codes as constants
const (
	ErrorCodeInvalidRequest  = "invalid_request"
	ErrorCodeUnauthorized    = "unauthorized"
	ErrorCodeForbidden       = "forbidden"
	ErrorCodeNotFound        = "not_found"
	ErrorCodeRateLimited     = "rate_limited"
	ErrorCodePayloadTooLarge = "payload_too_large"
	ErrorCodeServerError     = "server_error"
)

// APIError represents an error response from the platform API
type APIError struct {
	Code        string // stable error code (e.g., "not_found", "forbidden")
	Description string // human-readable error description
	Status      int    // HTTP status code
}

// Error implements the error interface
func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Description)
}

// NewAPIError creates a new API error
func NewAPIError(code, description string, status int) *APIError {
	return &APIError{
		Code:        code,
		Description: description,
		Status:      status,
	}
}

// Common API errors as reusable constructors
var (
	// ErrInvalidRequest indicates the request is malformed or missing required parameters
	ErrInvalidRequest = func(desc string) *APIError {
		return NewAPIError(ErrorCodeInvalidRequest, desc, http.StatusBadRequest)
	}

	// ErrUnauthorized indicates the bearer token is missing, invalid, or expired
	ErrUnauthorized = func(desc string) *APIError {
		return NewAPIError(ErrorCodeUnauthorized, desc, http.StatusUnauthorized)
	}

	// ErrForbidden indicates the caller lacks permission for the operation
	ErrForbidden = func(desc string) *APIError {
		return NewAPIError(ErrorCodeForbidden, desc, http.StatusForbidden)
	}

	// ErrNotFound indicates the requested entity does not exist
	ErrNotFound = func(desc string) *APIError {
		return NewAPIError(ErrorCodeNotFound, desc, http.StatusNotFound)
	}

	// ErrRateLimited indicates the backend rejected the request for rate reasons
	ErrRateLimited = func(desc string) *APIError {
		return NewAPIError(ErrorCodeRateLimited, desc, http.StatusTooManyRequests)
	}

	// ErrPayloadTooLarge indicates an upload exceeded the backend's size limit
	ErrPayloadTooLarge = func(desc string) *APIError {
		return NewAPIError(ErrorCodePayloadTooLarge, desc, http.StatusRequestEntityTooLarge)
	}

	// ErrServerError indicates an internal backend error
	ErrServerError = func(desc string) *APIError {
		return NewAPIError(ErrorCodeServerError, desc, http.StatusInternalServerError)
	}
)

// IsNotFound reports whether err is an APIError with the not_found code.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Code == ErrorCodeNotFound
}

// codeForStatus maps an HTTP status to a stable error code when the response
// body carries no usable code of its own.
func codeForStatus(status int) string {
	switch status {
	case http.StatusBadRequest:
		return ErrorCodeInvalidRequest
	case http.StatusUnauthorized:
		return ErrorCodeUnauthorized
	case http.StatusForbidden:
		return ErrorCodeForbidden
	case http.StatusNotFound:
		return ErrorCodeNotFound
	case http.StatusTooManyRequests:
		return ErrorCodeRateLimited
	case http.StatusRequestEntityTooLarge:
		return ErrorCodePayloadTooLarge
	default:
		return ErrorCodeServerError
	}
}
