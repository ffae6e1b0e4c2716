package models

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorType represents the category of error
type ErrorType string

const (
	// ErrorTypeValidation represents request validation errors (422)
	ErrorTypeValidation ErrorType = "validation"
	// ErrorTypeAuthentication represents authentication errors (401)
	ErrorTypeAuthentication ErrorType = "authentication"
	// ErrorTypeAuthorization represents authorization errors (403)
	ErrorTypeAuthorization ErrorType = "authorization"
	// ErrorTypeNotFound represents resource not found errors (404)
	ErrorTypeNotFound ErrorType = "not_found"
	// ErrorTypeSignature represents webhook signature verification errors (400)
	ErrorTypeSignature ErrorType = "signature_invalid"
	// ErrorTypeExternalService represents payment-provider call failures (502)
	ErrorTypeExternalService ErrorType = "external_service"
	// ErrorTypeInternal represents internal server errors (500)
	ErrorTypeInternal ErrorType = "internal"
)

// AppError represents a structured application error
type AppError struct {
	Type       ErrorType `json:"type"`
	Message    string    `json:"message"`
	Field      string    `json:"field,omitzero"`
	StatusCode int       `json:"-"`
	Cause      error     `json:"-"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap allows error unwrapping
func (e *AppError) Unwrap() error {
	return e.Cause
}

// GetStatusCode returns the HTTP status code for the error
func (e *AppError) GetStatusCode() int {
	if e.StatusCode > 0 {
		return e.StatusCode
	}

	switch e.Type {
	case ErrorTypeValidation:
		return http.StatusUnprocessableEntity
	case ErrorTypeAuthentication:
		return http.StatusUnauthorized
	case ErrorTypeAuthorization:
		return http.StatusForbidden
	case ErrorTypeNotFound:
		return http.StatusNotFound
	case ErrorTypeSignature:
		return http.StatusBadRequest
	case ErrorTypeExternalService:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// NewNotFoundError creates a not-found error for a named resource
func NewNotFoundError(resource string, cause error) *AppError {
	return &AppError{
		Type:       ErrorTypeNotFound,
		Message:    fmt.Sprintf("%s not found", resource),
		StatusCode: http.StatusNotFound,
		Cause:      cause,
	}
}

// NewSignatureError creates a webhook signature verification error
func NewSignatureError(cause error) *AppError {
	return &AppError{
		Type:       ErrorTypeSignature,
		Message:    "webhook signature verification failed",
		StatusCode: http.StatusBadRequest,
		Cause:      cause,
	}
}

// NewExternalServiceError creates an error for a failed upstream call
func NewExternalServiceError(service string, cause error) *AppError {
	return &AppError{
		Type:       ErrorTypeExternalService,
		Message:    fmt.Sprintf("%s request failed", service),
		StatusCode: http.StatusBadGateway,
		Cause:      cause,
	}
}

// NewValidationError creates a field-level validation error
func NewValidationError(field, message string) *AppError {
	return &AppError{
		Type:       ErrorTypeValidation,
		Message:    message,
		Field:      field,
		StatusCode: http.StatusUnprocessableEntity,
	}
}

// NewAuthorizationError creates an ownership/permission error
func NewAuthorizationError(message string) *AppError {
	return &AppError{
		Type:       ErrorTypeAuthorization,
		Message:    message,
		StatusCode: http.StatusForbidden,
	}
}

// NewInternalError creates an internal server error
func NewInternalError(message string, cause error) *AppError {
	return &AppError{
		Type:       ErrorTypeInternal,
		Message:    message,
		StatusCode: http.StatusInternalServerError,
		Cause:      cause,
	}
}

// AsAppError extracts an AppError from an error chain
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// SanitizeError sanitizes an error for external consumption
func SanitizeError(err error) *AppError {
	if appErr, ok := AsAppError(err); ok {
		// Return a copy without the internal cause
		return &AppError{
			Type:       appErr.Type,
			Message:    appErr.Message,
			Field:      appErr.Field,
			StatusCode: appErr.GetStatusCode(),
		}
	}

	return NewInternalError("an unexpected error occurred", err)
}
