package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/stallkit/stall/errors"
	"github.com/stallkit/stall/session"
	"github.com/stallkit/stall/web"
)

// CSRFFieldName is the form field carrying the token.
const CSRFFieldName = "_token"

// CSRFHeaderName is the header alternative for non-form clients.
const CSRFHeaderName = "X-CSRF-Token"

// CSRF rejects mutating requests whose token does not match the one
// stored in the visitor's session. Safe verbs pass through untouched.
// It must run after the session manager in the chain.
type CSRF struct{}

// Handle implements web.Middleware.
func (CSRF) Handle(req *web.Request, next web.Next) (*web.Response, error) {
	switch req.Method() {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return next()
	}

	sess := session.FromRequest(req)
	if sess == nil {
		return errors.Respond(req, errors.CodeCSRFMismatch), nil
	}

	sent := req.BodyParam(CSRFFieldName)
	if sent == "" {
		sent = req.Header(CSRFHeaderName)
	}
	want := sess.CSRFToken()
	if sent == "" || subtle.ConstantTimeCompare([]byte(sent), []byte(want)) != 1 {
		return errors.Respond(req, errors.CodeCSRFMismatch), nil
	}
	return next()
}
