package shared

import (
	"errors"
	"fmt"
)

// DomainError represents a domain-level error
type DomainError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error implements the error interface
func (e *DomainError) Error() string {
	return e.Message
}

// Is reports whether target is a DomainError with the same code.
// It lets callers match typed sentinel errors with errors.Is even when
// the message carries entity-specific detail.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	return ok && t.Code == e.Code
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// NewDomainErrorf creates a new domain error with a formatted message
func NewDomainErrorf(code, format string, args ...any) *DomainError {
	return &DomainError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// IsDomainError reports whether err carries the given domain error code
func IsDomainError(err error, code string) bool {
	var de *DomainError
	return errors.As(err, &de) && de.Code == code
}

// Error codes for the monetization engine
const (
	CodeNotFound          = "NOT_FOUND"
	CodeInvalidState      = "INVALID_STATE"
	CodeValidation        = "VALIDATION_ERROR"
	CodeConflict          = "CONFLICT"
	CodeExternalService   = "EXTERNAL_SERVICE"
	CodeUnsupportedFormat = "UNSUPPORTED_FORMAT"
)

// Common domain errors. Fail-fast paths wrap these with entity identifiers
// via NewDomainErrorf so callers can retry idempotently.
var (
	ErrNotFound          = NewDomainError(CodeNotFound, "Resource not found")
	ErrInvalidState      = NewDomainError(CodeInvalidState, "Operation not allowed in current state")
	ErrValidation        = NewDomainError(CodeValidation, "Invalid input provided")
	ErrConflict          = NewDomainError(CodeConflict, "Resource was claimed by another process")
	ErrExternalService   = NewDomainError(CodeExternalService, "External service call failed")
	ErrUnsupportedFormat = NewDomainError(CodeUnsupportedFormat, "Unsupported document format")
)
