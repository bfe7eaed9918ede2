// Package web provides the request/response value objects and the
// middleware contract shared by the router and the transport layer.
package web

import (
	"net/textproto"
	"net/url"
	"strings"
)

// FileHeader describes a single uploaded file after the transport layer
// has spooled it to disk. It carries the declared metadata from the
// client; nothing here is validated.
type FileHeader struct {
	FieldName string
	Filename  string
	TempPath  string
	Size      int64
	MIME      string
}

// Request is a normalized view of one inbound HTTP call. It is built
// once by the transport adapter and treated as read-only afterwards;
// the only post-construction mutation is the route-parameter assignment
// performed exactly once by the router on a successful match.
type Request struct {
	method  string
	path    string
	query   url.Values
	body    url.Values
	files   map[string]*FileHeader
	headers map[string]string
	cookies map[string]string

	routeParams map[string]string

	// values holds per-request state attached by middleware, such as
	// the session and the request ID.
	values map[string]any
}

// NewRequest constructs a Request. The path must already have its query
// string stripped; query holds the parsed query parameters.
func NewRequest(method, path string, query, body url.Values) *Request {
	if query == nil {
		query = url.Values{}
	}
	if body == nil {
		body = url.Values{}
	}
	return &Request{
		method:  strings.ToUpper(method),
		path:    path,
		query:   query,
		body:    body,
		files:   make(map[string]*FileHeader),
		headers: make(map[string]string),
		cookies: make(map[string]string),
		values:  make(map[string]any),
	}
}

// Method returns the upper-cased HTTP verb.
func (r *Request) Method() string { return r.method }

// Path returns the request path with the query string stripped.
func (r *Request) Path() string { return r.path }

// QueryParam returns the first query value for name, or "".
func (r *Request) QueryParam(name string) string { return r.query.Get(name) }

// QueryParams returns the parsed query values.
func (r *Request) QueryParams() url.Values { return r.query }

// BodyParam returns the first body value for name, or "".
func (r *Request) BodyParam(name string) string { return r.body.Get(name) }

// BodyParams returns the parsed body values.
func (r *Request) BodyParams() url.Values { return r.body }

// File returns the uploaded file descriptor for a form field, or nil.
func (r *Request) File(field string) *FileHeader { return r.files[field] }

// Files returns all uploaded file descriptors keyed by field name.
func (r *Request) Files() map[string]*FileHeader { return r.files }

// SetFile records an uploaded file descriptor. Called by the transport
// adapter during construction.
func (r *Request) SetFile(field string, fh *FileHeader) { r.files[field] = fh }

// Header returns a header value by case-insensitive name, or "".
func (r *Request) Header(name string) string {
	return r.headers[textproto.CanonicalMIMEHeaderKey(name)]
}

// SetHeader records a header value. Called during construction.
func (r *Request) SetHeader(name, value string) {
	r.headers[textproto.CanonicalMIMEHeaderKey(name)] = value
}

// Cookie returns a cookie value by name, or "".
func (r *Request) Cookie(name string) string { return r.cookies[name] }

// SetCookie records a cookie value. Called during construction.
func (r *Request) SetCookie(name, value string) { r.cookies[name] = value }

// Param returns a captured route parameter by name, or "".
func (r *Request) Param(name string) string { return r.routeParams[name] }

// HasParam reports whether the route captured a value for name. An
// optional pattern segment omitted from the path yields no entry.
func (r *Request) HasParam(name string) bool {
	_, ok := r.routeParams[name]
	return ok
}

// Params returns all captured route parameters. Nil before a match.
func (r *Request) Params() map[string]string { return r.routeParams }

// SetRouteParams assigns the captured parameters. The router calls this
// exactly once after a successful match.
func (r *Request) SetRouteParams(params map[string]string) { r.routeParams = params }

// Get retrieves per-request state attached by middleware.
func (r *Request) Get(key string) any { return r.values[key] }

// Set attaches per-request state.
func (r *Request) Set(key string, val any) { r.values[key] = val }

// RealIP returns the client address, preferring X-Forwarded-For and
// X-Real-IP over the transport remote address stored under "remote".
func (r *Request) RealIP() string {
	if fwd := r.Header("X-Forwarded-For"); fwd != "" {
		if i := strings.IndexByte(fwd, ','); i >= 0 {
			return strings.TrimSpace(fwd[:i])
		}
		return strings.TrimSpace(fwd)
	}
	if ip := r.Header("X-Real-IP"); ip != "" {
		return ip
	}
	if remote, ok := r.values["remote"].(string); ok {
		return remote
	}
	return ""
}
