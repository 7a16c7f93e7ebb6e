package dto

import (
	"net/http"
	"strings"
)

// Error code constants organized by category
// Format: ERR_<CATEGORY>_<DESCRIPTION>

// General error codes
const (
	// ErrCodeUnknown is used when the error type is unknown
	ErrCodeUnknown = "ERR_UNKNOWN"
	// ErrCodeInternal is used for internal server errors
	ErrCodeInternal = "ERR_INTERNAL"
	// ErrCodePersistence is used when the database failed to serve a request
	ErrCodePersistence = "PERSISTENCE_ERROR"
)

// Validation error codes
const (
	// ErrCodeValidation is the base code for validation errors
	ErrCodeValidation = "ERR_VALIDATION"
	// ErrCodeBadRequest is used for malformed requests
	ErrCodeBadRequest = "ERR_BAD_REQUEST"
	// ErrCodeInvalidJSON is used when JSON parsing fails
	ErrCodeInvalidJSON = "ERR_INVALID_JSON"
	// ErrCodeInvalidID is used when a path ID is not a UUID
	ErrCodeInvalidID = "ERR_INVALID_ID"
	// ErrCodeRequestTooLarge is used when the body exceeds the configured limit
	ErrCodeRequestTooLarge = "ERR_REQUEST_TOO_LARGE"
)

// Resource error codes
const (
	// ErrCodeNotFound is used when a route or resource is not found
	ErrCodeNotFound = "ERR_NOT_FOUND"
	// ErrCodeConflict is used for general resource conflicts
	ErrCodeConflict = "ERR_CONFLICT"
	// ErrCodeForbidden is used when the client may not access a resource
	ErrCodeForbidden = "ERR_FORBIDDEN"
)

// Rate limiting error codes
const (
	// ErrCodeRateLimited is used when a client exceeds its request budget
	ErrCodeRateLimited = "ERR_RATE_LIMITED"
)

// Business rule error codes
const (
	// ErrCodeBusinessRule is used for generic business rule violations
	ErrCodeBusinessRule = "ERR_BUSINESS_RULE"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes.
// Domain error codes are listed next to the generic ERR_* codes so that
// handlers can pass a domain code through unchanged.
var ErrorCodeHTTPStatus = map[string]int{
	// General errors
	ErrCodeUnknown:     http.StatusInternalServerError,
	ErrCodeInternal:    http.StatusInternalServerError,
	ErrCodePersistence: http.StatusInternalServerError,
	"INTERNAL_ERROR":   http.StatusInternalServerError,

	// Validation errors -> 400 Bad Request
	ErrCodeValidation:       http.StatusBadRequest,
	ErrCodeBadRequest:       http.StatusBadRequest,
	ErrCodeInvalidJSON:      http.StatusBadRequest,
	ErrCodeInvalidID:        http.StatusBadRequest,
	ErrCodeRequestTooLarge:  http.StatusRequestEntityTooLarge,
	"INVALID_INPUT":         http.StatusBadRequest,
	"INVALID_QUANTITY":      http.StatusBadRequest,
	"INVALID_MOVEMENT_TYPE": http.StatusBadRequest,
	"INVALID_SIGN":          http.StatusBadRequest,
	"INVALID_NAME":          http.StatusBadRequest,
	"INVALID_UNIT":          http.StatusBadRequest,
	"INVALID_COMPONENT":     http.StatusBadRequest,
	"INVALID_FILE":          http.StatusBadRequest,
	"INVALID_DATE_RANGE":    http.StatusBadRequest,
	"INVALID_REFERENCE":     http.StatusBadRequest,
	"SELF_REFERENCE":        http.StatusBadRequest,

	// Resource errors
	ErrCodeNotFound:          http.StatusNotFound,
	"NOT_FOUND":              http.StatusNotFound,
	"PLAN_NOT_FOUND":         http.StatusNotFound,
	"PRODUCT_NOT_FOUND":      http.StatusNotFound,
	ErrCodeConflict:          http.StatusConflict,
	ErrCodeForbidden:         http.StatusForbidden,
	"ALREADY_EXISTS":         http.StatusConflict,
	"OPTIMISTIC_LOCK_FAILED": http.StatusConflict,
	"CONCURRENCY_CONFLICT":   http.StatusConflict,
	"ITEM_IN_USE":            http.StatusConflict,
	"ITEM_HAS_HISTORY":       http.StatusConflict,
	"PRODUCT_IN_USE":         http.StatusConflict,
	"CATEGORY_IN_USE":        http.StatusConflict,
	"SALE_ALREADY_APPLIED":   http.StatusConflict,
	"PLAN_ALREADY_APPLIED":   http.StatusConflict,

	// Rate limiting -> 429 Too Many Requests
	ErrCodeRateLimited: http.StatusTooManyRequests,

	// Business rule errors -> 422 Unprocessable Entity
	ErrCodeBusinessRule:  http.StatusUnprocessableEntity,
	"INSUFFICIENT_STOCK": http.StatusUnprocessableEntity,
	"BOM_CYCLE_DETECTED": http.StatusUnprocessableEntity,
	"BOM_DEPTH_EXCEEDED": http.StatusUnprocessableEntity,
	"PLAN_HAS_ERRORS":    http.StatusUnprocessableEntity,
	"INVALID_STATE":      http.StatusUnprocessableEntity,
	"ALREADY_ACTIVE":     http.StatusUnprocessableEntity,
	"ALREADY_INACTIVE":   http.StatusUnprocessableEntity,
}

// GetHTTPStatus returns the HTTP status code for an error code.
// Codes missing from the table fall back on their naming convention
// (INVALID_* is 400, *_NOT_FOUND is 404, *_IN_USE is 409); anything
// else is a 422 business rule violation when it looks like a domain code,
// and 500 otherwise.
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	switch {
	case code == "":
		return http.StatusInternalServerError
	case strings.HasPrefix(code, "INVALID_"):
		return http.StatusBadRequest
	case strings.HasSuffix(code, "_NOT_FOUND"):
		return http.StatusNotFound
	case strings.HasSuffix(code, "_IN_USE"), strings.HasSuffix(code, "_EXISTS"):
		return http.StatusConflict
	case strings.HasPrefix(code, "ERR_"):
		return http.StatusInternalServerError
	default:
		return http.StatusUnprocessableEntity
	}
}
