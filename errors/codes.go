// Package errors provides the standardized error response system for
// the marketplace: numeric error codes grouped by category and helpers
// that render them as JSON responses.
package errors

import "net/http"

// ErrorCode represents a standardized error code
type ErrorCode int

// Error code categories:
// 1xxx - Validation errors
// 2xxx - Authentication/Authorization errors
// 3xxx - System errors
// 4xxx - Business logic errors
const (
	// Validation errors (1xxx)
	CodeValidationFailed     ErrorCode = 1000
	CodeInvalidInput         ErrorCode = 1001
	CodeMissingRequiredField ErrorCode = 1002
	CodeInvalidFormat        ErrorCode = 1003
	CodeDuplicateValue       ErrorCode = 1004
	CodeInvalidUpload        ErrorCode = 1005

	// Authentication/Authorization errors (2xxx)
	CodeUnauthorized       ErrorCode = 2000
	CodeInvalidCredentials ErrorCode = 2001
	CodeSessionExpired     ErrorCode = 2002
	CodeForbidden          ErrorCode = 2003
	CodeCSRFMismatch       ErrorCode = 2004

	// System errors (3xxx)
	CodeInternalServerError ErrorCode = 3000
	CodeRateLimitExceeded   ErrorCode = 3001
	CodeConfigurationError  ErrorCode = 3002

	// Business logic errors (4xxx)
	CodeResourceNotFound ErrorCode = 4000
	CodeCartEmpty        ErrorCode = 4001
	CodePaymentDeclined  ErrorCode = 4002
	CodeOutOfStock       ErrorCode = 4003
)

// errorMessages maps error codes to default messages
var errorMessages = map[ErrorCode]string{
	CodeValidationFailed:     "Validation failed",
	CodeInvalidInput:         "Invalid input provided",
	CodeMissingRequiredField: "Required field is missing",
	CodeInvalidFormat:        "Invalid format",
	CodeDuplicateValue:       "Duplicate value not allowed",
	CodeInvalidUpload:        "Invalid file upload",

	CodeUnauthorized:       "Authentication required",
	CodeInvalidCredentials: "Invalid credentials",
	CodeSessionExpired:     "Session has expired",
	CodeForbidden:          "Access forbidden",
	CodeCSRFMismatch:       "CSRF token mismatch",

	CodeInternalServerError: "An internal error occurred",
	CodeRateLimitExceeded:   "Rate limit exceeded",
	CodeConfigurationError:  "Configuration error",

	CodeResourceNotFound: "Resource not found",
	CodeCartEmpty:        "Cart is empty",
	CodePaymentDeclined:  "Payment was declined",
	CodeOutOfStock:       "Product is out of stock",
}

// codeToHTTPStatus maps error codes to HTTP status codes
var codeToHTTPStatus = map[ErrorCode]int{
	CodeValidationFailed:     http.StatusBadRequest,
	CodeInvalidInput:         http.StatusBadRequest,
	CodeMissingRequiredField: http.StatusBadRequest,
	CodeInvalidFormat:        http.StatusBadRequest,
	CodeDuplicateValue:       http.StatusConflict,
	CodeInvalidUpload:        http.StatusBadRequest,

	CodeUnauthorized:       http.StatusUnauthorized,
	CodeInvalidCredentials: http.StatusUnauthorized,
	CodeSessionExpired:     http.StatusUnauthorized,
	CodeForbidden:          http.StatusForbidden,
	CodeCSRFMismatch:       http.StatusForbidden,

	CodeInternalServerError: http.StatusInternalServerError,
	CodeRateLimitExceeded:   http.StatusTooManyRequests,
	CodeConfigurationError:  http.StatusInternalServerError,

	CodeResourceNotFound: http.StatusNotFound,
	CodeCartEmpty:        http.StatusUnprocessableEntity,
	CodePaymentDeclined:  http.StatusPaymentRequired,
	CodeOutOfStock:       http.StatusConflict,
}

// Int returns the numeric value of the code.
func (c ErrorCode) Int() int { return int(c) }

// Message returns the default message for the code.
func (c ErrorCode) Message() string {
	if msg, ok := errorMessages[c]; ok {
		return msg
	}
	return "Unknown error"
}

// HTTPStatus returns the HTTP status the code maps to.
func (c ErrorCode) HTTPStatus() int {
	if status, ok := codeToHTTPStatus[c]; ok {
		return status
	}
	return http.StatusInternalServerError
}
