package shared

import "errors"

// DomainError represents a domain-level error
type DomainError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error implements the error interface
func (e *DomainError) Error() string {
	return e.Message
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// Error codes used across the application. Handlers map these to HTTP statuses.
const (
	CodeNotFound         = "NOT_FOUND"
	CodeConflict         = "CONFLICT"
	CodeValidationFailed = "VALIDATION_FAILED"
	CodeNetworkError     = "NETWORK_ERROR"
	CodeAuthFailed       = "AUTH_FAILED"
	CodeInvalidState     = "INVALID_STATE"
	CodeInvalidInput     = "INVALID_INPUT"
)

// Common domain errors
var (
	ErrNotFound         = NewDomainError(CodeNotFound, "Resource not found")
	ErrConflict         = NewDomainError(CodeConflict, "Resource conflicts with an existing one")
	ErrValidationFailed = NewDomainError(CodeValidationFailed, "Validation failed")
	ErrNetwork          = NewDomainError(CodeNetworkError, "Upstream system unreachable")
	ErrAuthFailed       = NewDomainError(CodeAuthFailed, "Upstream authentication failed")
	ErrInvalidState     = NewDomainError(CodeInvalidState, "Operation not allowed in current state")
	ErrInvalidInput     = NewDomainError(CodeInvalidInput, "Invalid input provided")
)

// CodeOf returns the domain error code carried by err, or an empty string.
func CodeOf(err error) string {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	return ""
}

// IsConflict reports whether err is a uniqueness/concurrency conflict.
func IsConflict(err error) bool {
	return CodeOf(err) == CodeConflict
}

// IsNotFound reports whether err represents a missing resource.
func IsNotFound(err error) bool {
	return CodeOf(err) == CodeNotFound
}
