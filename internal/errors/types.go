// Package errors defines the structured error type shared by the contact
// book's infrastructure: configuration, seed files, the contact store and
// the HTTP layer.
//
// Invalid form input is not reported through this package. Field errors are
// ordinary values owned by the contact package, because a malformed name is
// an expected outcome of a submission rather than a failure.
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorType represents different categories of errors.
type ErrorType string

const (
	ErrorTypeValidation ErrorType = "validation"
	ErrorTypeDuplicate  ErrorType = "duplicate"
	ErrorTypeNotFound   ErrorType = "not_found"
	ErrorTypeSecurity   ErrorType = "security"
	ErrorTypeIO         ErrorType = "io"
	ErrorTypeConfig     ErrorType = "config"
	ErrorTypeInternal   ErrorType = "internal"
)

// Common error codes.
const (
	ErrCodeValidationFailed = "ERR_VALIDATION_FAILED"
	ErrCodeDuplicateID      = "ERR_DUPLICATE_ID"
	ErrCodeDuplicateName    = "ERR_DUPLICATE_NAME"
	ErrCodeContactNotFound  = "ERR_CONTACT_NOT_FOUND"
	ErrCodeInvalidOrigin    = "ERR_INVALID_ORIGIN"
	ErrCodeConfigInvalid    = "ERR_CONFIG_INVALID"
	ErrCodeSeedRead         = "ERR_SEED_READ"
	ErrCodeSeedWrite        = "ERR_SEED_WRITE"
	ErrCodeSeedInvalid      = "ERR_SEED_INVALID"
	ErrCodeListenFailed     = "ERR_LISTEN_FAILED"
	ErrCodeInternalError    = "ERR_INTERNAL"
)

// AppError is a structured error type with context.
type AppError struct {
	Type        ErrorType
	Code        string
	Message     string
	Cause       error
	Context     map[string]interface{}
	Recoverable bool
}

// Error implements the error interface.
func (e *AppError) Error() string {
	var parts []string

	if e.Code != "" {
		parts = append(parts, fmt.Sprintf("[%s]", e.Code))
	}

	parts = append(parts, e.Message)

	result := strings.Join(parts, " ")

	if e.Cause != nil {
		result += fmt.Sprintf(": %v", e.Cause)
	}

	return result
}

// Unwrap returns the underlying cause error.
func (e *AppError) Unwrap() error {
	return e.Cause
}

// Is matches another AppError with the same type and code.
func (e *AppError) Is(target error) bool {
	var t *AppError
	if errors.As(target, &t) {
		return e.Type == t.Type && e.Code == t.Code
	}

	return false
}

// WithContext adds context information to the error.
func (e *AppError) WithContext(key string, value interface{}) *AppError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value

	return e
}

// NewValidationError creates a validation error.
func NewValidationError(code, message string) *AppError {
	return &AppError{
		Type:        ErrorTypeValidation,
		Code:        code,
		Message:     message,
		Recoverable: true,
	}
}

// NewDuplicateError creates an error for a value that must be unique.
func NewDuplicateError(code, message string) *AppError {
	return &AppError{
		Type:        ErrorTypeDuplicate,
		Code:        code,
		Message:     message,
		Recoverable: true,
	}
}

// NewNotFoundError creates a lookup error.
func NewNotFoundError(code, message string) *AppError {
	return &AppError{
		Type:        ErrorTypeNotFound,
		Code:        code,
		Message:     message,
		Recoverable: true,
	}
}

// NewSecurityError creates a security error.
func NewSecurityError(code, message string) *AppError {
	return &AppError{
		Type:        ErrorTypeSecurity,
		Code:        code,
		Message:     message,
		Recoverable: false,
	}
}

// NewIOError creates an I/O error.
func NewIOError(code, message string, cause error) *AppError {
	return &AppError{
		Type:        ErrorTypeIO,
		Code:        code,
		Message:     message,
		Cause:       cause,
		Recoverable: false,
	}
}

// NewConfigError creates a configuration error.
func NewConfigError(code, message string, cause error) *AppError {
	return &AppError{
		Type:        ErrorTypeConfig,
		Code:        code,
		Message:     message,
		Cause:       cause,
		Recoverable: false,
	}
}

// NewInternalError creates an internal error.
func NewInternalError(code, message string, cause error) *AppError {
	return &AppError{
		Type:        ErrorTypeInternal,
		Code:        code,
		Message:     message,
		Cause:       cause,
		Recoverable: false,
	}
}

// IsRecoverable checks if an error is recoverable.
func IsRecoverable(err error) bool {
	var ae *AppError
	if errors.As(err, &ae) {
		return ae.Recoverable
	}

	return false
}

// IsType reports whether err is an AppError of the given type.
func IsType(err error, t ErrorType) bool {
	var ae *AppError
	if errors.As(err, &ae) {
		return ae.Type == t
	}

	return false
}

// IsNotFound checks if an error is a lookup miss.
func IsNotFound(err error) bool {
	return IsType(err, ErrorTypeNotFound)
}

// IsDuplicate checks if an error reports a uniqueness violation.
func IsDuplicate(err error) bool {
	return IsType(err, ErrorTypeDuplicate)
}

// IsValidation checks if an error is a validation failure.
func IsValidation(err error) bool {
	return IsType(err, ErrorTypeValidation)
}

// ErrContactNotFound creates the error returned when a contact id is unknown.
func ErrContactNotFound(id string) *AppError {
	return NewNotFoundError(ErrCodeContactNotFound, "contact not found: "+id).
		WithContext("id", id)
}

// ErrDuplicateID creates the error returned when a contact id is reused.
func ErrDuplicateID(id string) *AppError {
	return NewDuplicateError(ErrCodeDuplicateID, "contact id already exists: "+id).
		WithContext("id", id)
}

// ErrDuplicateName creates the error returned when a name is already present.
func ErrDuplicateName(name string) *AppError {
	return NewDuplicateError(ErrCodeDuplicateName, name+" is already in contacts.").
		WithContext("name", name)
}

// ErrInvalidOrigin creates an invalid origin security error.
func ErrInvalidOrigin(origin string) *AppError {
	return NewSecurityError(ErrCodeInvalidOrigin, "invalid origin: "+origin)
}
