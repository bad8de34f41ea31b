package errors

import "net/http"

// Common error codes shared across the service.
const (
	ErrInternal        = "INTERNAL"
	ErrNotFound        = "NOT_FOUND"
	ErrInvalidArgument = "INVALID_ARGUMENT"
	ErrUnauthenticated = "UNAUTHENTICATED"
	ErrUnauthorized    = "UNAUTHORIZED"
	ErrConflict        = "CONFLICT"
	ErrTimeout         = "TIMEOUT"
	ErrNotImplemented  = "NOT_IMPLEMENTED"
)

// Billing error codes.
const (
	ErrSignatureInvalid     = "SIGNATURE_INVALID"
	ErrValidation           = "VALIDATION_ERROR"
	ErrMissingUserReference = "MISSING_USER_REFERENCE"
	ErrProvider             = "PROVIDER_ERROR"
	ErrDatabase             = "DATABASE_ERROR"
	ErrRateLimited          = "RATE_LIMITED"
)

var codeToHTTPStatus = map[string]int{
	ErrInternal:        http.StatusInternalServerError,
	ErrNotFound:        http.StatusNotFound,
	ErrInvalidArgument: http.StatusBadRequest,
	ErrUnauthenticated: http.StatusUnauthorized,
	ErrUnauthorized:    http.StatusForbidden,
	ErrConflict:        http.StatusConflict,
	ErrTimeout:         http.StatusGatewayTimeout,
	ErrNotImplemented:  http.StatusNotImplemented,

	ErrSignatureInvalid:     http.StatusBadRequest,
	ErrValidation:           http.StatusBadRequest,
	ErrMissingUserReference: http.StatusInternalServerError,
	ErrProvider:             http.StatusBadGateway,
	ErrDatabase:             http.StatusInternalServerError,
	ErrRateLimited:          http.StatusTooManyRequests,
}

// GetCodeMapping returns the HTTP status for an error code and whether the
// code is known.
func GetCodeMapping(code string) (int, bool) {
	status, ok := codeToHTTPStatus[code]
	if !ok {
		return http.StatusInternalServerError, false
	}
	return status, true
}
