package errors

import (
	"time"

	"github.com/stallkit/stall/web"
)

// ErrorResponse represents a standardized error response payload.
type ErrorResponse struct {
	Success     bool           `json:"success"`
	ErrorDetail ErrorDetail    `json:"error"`
	Timestamp   time.Time      `json:"timestamp"`
	RequestID   string         `json:"request_id,omitempty"`
	Meta        map[string]any `json:"meta,omitempty"`
}

// ErrorDetail contains detailed error information.
type ErrorDetail struct {
	Code    int            `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

// Error implements the error interface.
func (e *ErrorResponse) Error() string {
	return e.ErrorDetail.Message
}

// New creates an error response with the given code and message.
func New(code ErrorCode, message string) *ErrorResponse {
	return &ErrorResponse{
		Success: false,
		ErrorDetail: ErrorDetail{
			Code:    code.Int(),
			Message: message,
		},
		Timestamp: time.Now().UTC(),
	}
}

// NewWithDetails creates an error response with additional details.
func NewWithDetails(code ErrorCode, message string, details map[string]any) *ErrorResponse {
	e := New(code, message)
	e.ErrorDetail.Details = details
	return e
}

// Respond renders the code's default message as a JSON web.Response.
func Respond(req *web.Request, code ErrorCode) *web.Response {
	return RespondMessage(req, code, code.Message())
}

// RespondMessage renders a JSON web.Response for the code with a
// custom message.
func RespondMessage(req *web.Request, code ErrorCode, message string) *web.Response {
	e := New(code, message)
	if req != nil {
		if id, ok := req.Get("request_id").(string); ok {
			e.RequestID = id
		}
	}
	return web.JSON(code.HTTPStatus(), e)
}

// RespondDetails renders a JSON web.Response carrying field-level
// details, as produced by input validation.
func RespondDetails(req *web.Request, code ErrorCode, message string, details map[string]any) *web.Response {
	e := NewWithDetails(code, message, details)
	if req != nil {
		if id, ok := req.Get("request_id").(string); ok {
			e.RequestID = id
		}
	}
	return web.JSON(code.HTTPStatus(), e)
}
