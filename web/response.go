package web

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// Response is the value an action or middleware produces: a status
// code, a header map where the last write per key wins, and a body.
// It is terminal; once the transport layer serializes it the value is
// discarded.
type Response struct {
	Status  int
	Headers map[string]string
	Body    []byte

	cookieList []*http.Cookie
}

// NewResponse creates an empty response with the given status.
func NewResponse(status int) *Response {
	return &Response{
		Status:  status,
		Headers: make(map[string]string),
	}
}

// Text creates a plain-text response.
func Text(status int, body string) *Response {
	resp := NewResponse(status)
	resp.Headers["Content-Type"] = "text/plain; charset=utf-8"
	resp.Body = []byte(body)
	return resp
}

// HTML creates an HTML response.
func HTML(status int, body string) *Response {
	resp := NewResponse(status)
	resp.Headers["Content-Type"] = "text/html; charset=utf-8"
	resp.Body = []byte(body)
	return resp
}

// JSON creates a JSON response from any marshalable value.
func JSON(status int, v any) *Response {
	body, err := json.Marshal(v)
	if err != nil {
		return Text(http.StatusInternalServerError, fmt.Sprintf("json encode: %v", err))
	}
	resp := NewResponse(status)
	resp.Headers["Content-Type"] = "application/json; charset=utf-8"
	resp.Body = body
	return resp
}

// Redirect creates a redirect to the given location.
func Redirect(status int, location string) *Response {
	resp := NewResponse(status)
	resp.Headers["Location"] = location
	return resp
}

// SeeOther is the common post-form redirect.
func SeeOther(location string) *Response {
	return Redirect(http.StatusSeeOther, location)
}

// NotFound creates the standard 404 response the router returns when
// no route matches.
func NotFound() *Response {
	return Text(http.StatusNotFound, "404 not found")
}

// NoContent creates an empty 204 response.
func NoContent() *Response {
	return NewResponse(http.StatusNoContent)
}

// WithHeader sets a header and returns the response for chaining.
func (r *Response) WithHeader(name, value string) *Response {
	r.Headers[name] = value
	return r
}

// WithCookie attaches a cookie; the transport layer emits one
// Set-Cookie header per attached cookie.
func (r *Response) WithCookie(cookie *http.Cookie) *Response {
	r.cookieList = append(r.cookieList, cookie)
	return r
}

// Cookies returns cookies attached to the response.
func (r *Response) Cookies() []*http.Cookie { return r.cookieList }
