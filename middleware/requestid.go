// Package middleware provides the concrete middleware units the
// marketplace composes into its dispatch chains: request IDs, access
// logging, the authentication gate, CSRF validation, and rate
// limiting. Each unit implements web.Middleware.
package middleware

import (
	"github.com/google/uuid"

	"github.com/stallkit/stall/web"
)

// HeaderXRequestID is the request/response header carrying the id.
const HeaderXRequestID = "X-Request-Id"

// RequestID assigns every request an id, honoring one supplied by the
// client, and echoes it on the response.
type RequestID struct{}

// Handle implements web.Middleware.
func (RequestID) Handle(req *web.Request, next web.Next) (*web.Response, error) {
	id := req.Header(HeaderXRequestID)
	if id == "" {
		id = uuid.NewString()
	}
	req.Set("request_id", id)

	resp, err := next()
	if err != nil {
		return nil, err
	}
	if resp != nil {
		resp.WithHeader(HeaderXRequestID, id)
	}
	return resp, nil
}

// RequestIDFrom returns the id assigned to the request, or "".
func RequestIDFrom(req *web.Request) string {
	id, _ := req.Get("request_id").(string)
	return id
}
