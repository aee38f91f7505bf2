package dto

import (
	"net/http"

	"github.com/gescom/backend/internal/domain/shared"
)

// Transport-level error codes. Domain errors carry their own codes
// (shared.Code*); these cover failures before a domain error exists.
const (
	// ErrCodeBadRequest is used for malformed requests
	ErrCodeBadRequest = "BAD_REQUEST"
	// ErrCodeInternal is used for unexpected server errors
	ErrCodeInternal = "INTERNAL_ERROR"
	// ErrCodeRequestTooLarge is used when the body exceeds the size limit
	ErrCodeRequestTooLarge = "REQUEST_TOO_LARGE"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes.
// Upstream platform failures surface as 502: the mirror itself is healthy,
// the store is not.
var ErrorCodeHTTPStatus = map[string]int{
	shared.CodeNotFound:         http.StatusNotFound,
	shared.CodeConflict:         http.StatusConflict,
	shared.CodeValidationFailed: http.StatusUnprocessableEntity,
	shared.CodeInvalidState:     http.StatusUnprocessableEntity,
	shared.CodeInvalidInput:     http.StatusBadRequest,
	shared.CodeNetworkError:     http.StatusBadGateway,
	shared.CodeAuthFailed:       http.StatusBadGateway,

	ErrCodeBadRequest:      http.StatusBadRequest,
	ErrCodeRequestTooLarge: http.StatusRequestEntityTooLarge,
	ErrCodeInternal:        http.StatusInternalServerError,
}

// GetHTTPStatus returns the HTTP status for an error code,
// 500 when the code is unknown.
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}
