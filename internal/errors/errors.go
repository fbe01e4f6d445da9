// internal/errors/errors.go
package errors

import (
	"errors"
	"fmt"
)

// ErrorType classifies an application error
type ErrorType string

const (
	ErrorTypeValidation  ErrorType = "validation_error"
	ErrorTypeNotFound    ErrorType = "not_found"
	ErrorTypeError       ErrorType = "processing_error"
	ErrorTypeUnavailable ErrorType = "unavailable"

	// upstream fetch failures
	ErrorTypeUpstreamTransport ErrorType = "upstream_transport"
	ErrorTypeUpstreamStatus    ErrorType = "upstream_status"
	ErrorTypeUpstreamDecode    ErrorType = "upstream_decode"
)

// AppError is the application error carried across service boundaries
type AppError struct {
	Type    ErrorType
	Message string
	Err     error
	Code    string // stable, user facing code
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap exposes the wrapped error
func (e *AppError) Unwrap() error {
	return e.Err
}

// NewAppError creates a new AppError
func NewAppError(errType ErrorType, message string, originalError error) *AppError {
	return &AppError{
		Type:    errType,
		Message: message,
		Err:     originalError,
		Code:    generateErrorCode(errType),
	}
}

// NewValidationError creates a validation error
func NewValidationError(message string, originalError error) *AppError {
	return NewAppError(ErrorTypeValidation, message, originalError)
}

// NewNotFoundError creates a not-found error
func NewNotFoundError(message string, originalError error) *AppError {
	return NewAppError(ErrorTypeNotFound, message, originalError)
}

// NewProcessingError creates a processing error
func NewProcessingError(message string, originalError error) *AppError {
	return NewAppError(ErrorTypeError, message, originalError)
}

// NewUnavailableError creates an error for a resource that is not ready yet or failed to load
func NewUnavailableError(message string, originalError error) *AppError {
	return NewAppError(ErrorTypeUnavailable, message, originalError)
}

// NewUpstreamTransportError creates an error for a failed round trip to the upstream API
func NewUpstreamTransportError(message string, originalError error) *AppError {
	return NewAppError(ErrorTypeUpstreamTransport, message, originalError)
}

// NewUpstreamStatusError creates an error for a non-success upstream status
func NewUpstreamStatusError(message string, originalError error) *AppError {
	return NewAppError(ErrorTypeUpstreamStatus, message, originalError)
}

// NewUpstreamDecodeError creates an error for an upstream body that is not valid JSON
func NewUpstreamDecodeError(message string, originalError error) *AppError {
	return NewAppError(ErrorTypeUpstreamDecode, message, originalError)
}

// TypeOf returns the ErrorType of the first AppError in the chain, or "" if none
func TypeOf(err error) ErrorType {
	var appError *AppError
	if errors.As(err, &appError) {
		return appError.Type
	}
	return ""
}

// IsValidationError reports whether err is a validation error
func IsValidationError(err error) bool {
	return TypeOf(err) == ErrorTypeValidation
}

// IsNotFoundError reports whether err is a not-found error
func IsNotFoundError(err error) bool {
	return TypeOf(err) == ErrorTypeNotFound
}

// IsUnavailableError reports whether err is an unavailable error
func IsUnavailableError(err error) bool {
	return TypeOf(err) == ErrorTypeUnavailable
}

// IsUpstreamError reports whether err came from fetching the upstream catalog
func IsUpstreamError(err error) bool {
	switch TypeOf(err) {
	case ErrorTypeUpstreamTransport, ErrorTypeUpstreamStatus, ErrorTypeUpstreamDecode:
		return true
	}
	return false
}

func generateErrorCode(errType ErrorType) string {
	switch errType {
	case ErrorTypeValidation:
		return "VALIDATION_ERROR"
	case ErrorTypeNotFound:
		return "NOT_FOUND"
	case ErrorTypeError:
		return "PROCESSING_ERROR"
	case ErrorTypeUnavailable:
		return "CATALOG_UNAVAILABLE"
	case ErrorTypeUpstreamTransport:
		return "UPSTREAM_UNREACHABLE"
	case ErrorTypeUpstreamStatus:
		return "UPSTREAM_BAD_STATUS"
	case ErrorTypeUpstreamDecode:
		return "UPSTREAM_BAD_PAYLOAD"
	default:
		return "UNKNOWN_ERROR"
	}
}

// WrapError wraps err with a message, keeping the type of an existing AppError
func WrapError(err error, message string, errType ErrorType) error {
	if err == nil {
		return nil
	}

	var appError *AppError
	if errors.As(err, &appError) {
		return &AppError{
			Type:    appError.Type,
			Message: fmt.Sprintf("%s: %s", message, appError.Message),
			Err:     appError,
			Code:    appError.Code,
		}
	}

	return NewAppError(errType, message, err)
}
