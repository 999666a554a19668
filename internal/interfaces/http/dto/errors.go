package dto

import (
	"net/http"
	"strings"
)

// API error codes used on the internal endpoints
const (
	ErrCodeInternal            = "ERR_INTERNAL"
	ErrCodeBadRequest          = "ERR_BAD_REQUEST"
	ErrCodeValidation          = "ERR_VALIDATION"
	ErrCodeUnauthorized        = "ERR_UNAUTHORIZED"
	ErrCodeForbidden           = "ERR_FORBIDDEN"
	ErrCodeTokenExpired        = "ERR_TOKEN_EXPIRED"
	ErrCodeTokenInvalid        = "ERR_TOKEN_INVALID"
	ErrCodeNotFound            = "ERR_NOT_FOUND"
	ErrCodeConflict            = "ERR_CONFLICT"
	ErrCodeConcurrencyConflict = "ERR_CONCURRENCY_CONFLICT"
	ErrCodeInvalidState        = "ERR_INVALID_STATE"
	ErrCodeRateLimited         = "ERR_RATE_LIMITED"
)

// Public acceptance codes. These are shown to customers and reveal nothing
// about why a link stopped working.
const (
	ErrCodeOfferUnavailable = "OFFER_UNAVAILABLE"
	ErrCodeRetryLater       = "RETRY_LATER"

	MessageOfferUnavailable = "This offer is no longer available"
	MessageRetryLater       = "The offer could not be accepted right now, please try again"
	MessageInternal         = "An unexpected error occurred"
)

// apiError is the code and status a domain error code is reported with
type apiError struct {
	code   string
	status int
}

var domainErrors = map[string]apiError{
	"NOT_FOUND":       {ErrCodeNotFound, http.StatusNotFound},
	"TOKEN_NOT_FOUND": {ErrCodeNotFound, http.StatusNotFound},

	"VALIDATION_FAILED": {ErrCodeValidation, http.StatusBadRequest},
	"BAD_REQUEST":       {ErrCodeBadRequest, http.StatusBadRequest},

	"UNAUTHORIZED": {ErrCodeUnauthorized, http.StatusUnauthorized},
	"FORBIDDEN":    {ErrCodeForbidden, http.StatusForbidden},

	"ALREADY_EXISTS":          {ErrCodeConflict, http.StatusConflict},
	"ORDER_ALREADY_LINKED":    {ErrCodeConflict, http.StatusConflict},
	"CONCURRENCY_CONFLICT":    {ErrCodeConcurrencyConflict, http.StatusConflict},
	"CONCURRENT_MODIFICATION": {ErrCodeConcurrencyConflict, http.StatusConflict},

	"INVALID_STATE":   {ErrCodeInvalidState, http.StatusUnprocessableEntity},
	"ALREADY_HANDLED": {ErrCodeInvalidState, http.StatusUnprocessableEntity},
	"TOKEN_EXPIRED":   {ErrCodeInvalidState, http.StatusUnprocessableEntity},
	"EMPTY_QUOTE":     {ErrCodeInvalidState, http.StatusUnprocessableEntity},

	"INTERNAL_ERROR": {ErrCodeInternal, http.StatusInternalServerError},
}

// ResolveDomainCode returns the API code and HTTP status for a domain error
// code. Unlisted INVALID_* codes are rejected input; any other unlisted code
// is a business rule and keeps its own code.
func ResolveDomainCode(code string) (string, int) {
	if e, ok := domainErrors[code]; ok {
		return e.code, e.status
	}
	if strings.HasPrefix(code, "INVALID_") {
		return ErrCodeValidation, http.StatusBadRequest
	}
	return code, http.StatusUnprocessableEntity
}
