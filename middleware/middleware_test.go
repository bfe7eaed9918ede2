package middleware

import (
	"net/http"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stallkit/stall/container"
	"github.com/stallkit/stall/session"
	"github.com/stallkit/stall/web"
)

func ok() web.Next {
	return func() (*web.Response, error) {
		return web.Text(http.StatusOK, "ok"), nil
	}
}

func run(t *testing.T, refs []web.MiddlewareRef, req *web.Request) *web.Response {
	t.Helper()
	resp, err := web.RunChain(container.New(), refs, req, ok())
	require.NoError(t, err)
	return resp
}

func TestRequestIDAssignedAndEchoed(t *testing.T) {
	req := web.NewRequest("GET", "/", nil, nil)
	resp := run(t, []web.MiddlewareRef{web.Wrap(RequestID{})}, req)

	id := RequestIDFrom(req)
	assert.NotEmpty(t, id)
	assert.Equal(t, id, resp.Headers[HeaderXRequestID])
}

func TestRequestIDHonorsClientSupplied(t *testing.T) {
	req := web.NewRequest("GET", "/", nil, nil)
	req.SetHeader(HeaderXRequestID, "trace-42")
	resp := run(t, []web.MiddlewareRef{web.Wrap(RequestID{})}, req)

	assert.Equal(t, "trace-42", RequestIDFrom(req))
	assert.Equal(t, "trace-42", resp.Headers[HeaderXRequestID])
}

func sessionChain(t *testing.T, extra ...web.MiddlewareRef) []web.MiddlewareRef {
	t.Helper()
	store := session.NewMemoryStore(time.Hour)
	t.Cleanup(store.Close)
	m := session.NewManager(store, "sid", "test-secret", time.Hour, false)
	return append([]web.MiddlewareRef{web.Wrap(m)}, extra...)
}

func TestAuthGateRedirectsAnonymous(t *testing.T) {
	req := web.NewRequest("GET", "/my/products", nil, nil)
	resp := run(t, sessionChain(t, web.Ref[*AuthGate]()), req)

	assert.Equal(t, http.StatusSeeOther, resp.Status)
	assert.Equal(t, "/login", resp.Headers["Location"])
}

func TestAuthGatePassesLoggedIn(t *testing.T) {
	login := web.WrapFunc(func(req *web.Request, next web.Next) (*web.Response, error) {
		session.FromRequest(req).SetUserID("u-1")
		return next()
	})

	req := web.NewRequest("GET", "/my/products", nil, nil)
	resp := run(t, sessionChain(t, login, web.Ref[*AuthGate]()), req)

	assert.Equal(t, http.StatusOK, resp.Status)
}

func TestCSRFAllowsSafeVerbs(t *testing.T) {
	req := web.NewRequest("GET", "/", nil, nil)
	resp := run(t, []web.MiddlewareRef{web.Wrap(CSRF{})}, req)
	assert.Equal(t, http.StatusOK, resp.Status)
}

func TestCSRFRejectsMissingOrWrongToken(t *testing.T) {
	for name, body := range map[string]url.Values{
		"missing": nil,
		"wrong":   {CSRFFieldName: {"forged"}},
	} {
		req := web.NewRequest("POST", "/checkout", nil, body)
		resp := run(t, sessionChain(t, web.Wrap(CSRF{})), req)
		assert.Equal(t, http.StatusForbidden, resp.Status, name)
	}
}

func TestCSRFAcceptsSessionToken(t *testing.T) {
	seed := web.WrapFunc(func(req *web.Request, next web.Next) (*web.Response, error) {
		req.BodyParams().Set(CSRFFieldName, session.FromRequest(req).CSRFToken())
		return next()
	})

	req := web.NewRequest("POST", "/checkout", nil, url.Values{})
	resp := run(t, sessionChain(t, seed, web.Wrap(CSRF{})), req)
	assert.Equal(t, http.StatusOK, resp.Status)
}

func TestCSRFAcceptsHeaderToken(t *testing.T) {
	seed := web.WrapFunc(func(req *web.Request, next web.Next) (*web.Response, error) {
		req.SetHeader(CSRFHeaderName, session.FromRequest(req).CSRFToken())
		return next()
	})

	req := web.NewRequest("POST", "/api/cart", nil, nil)
	resp := run(t, sessionChain(t, seed, web.Wrap(CSRF{})), req)
	assert.Equal(t, http.StatusOK, resp.Status)
}

func TestRateLimitEnforcesBurst(t *testing.T) {
	store := NewMemoryStore(1, 2)
	defer store.Close()
	rl := NewRateLimit(store)

	statuses := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := web.NewRequest("GET", "/", nil, nil)
		req.Set("remote", "10.0.0.1")
		resp := run(t, []web.MiddlewareRef{web.Wrap(rl)}, req)
		statuses = append(statuses, resp.Status)
	}

	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, statuses)
}

func TestRateLimitKeysByClient(t *testing.T) {
	store := NewMemoryStore(1, 1)
	defer store.Close()
	rl := NewRateLimit(store)

	first := web.NewRequest("GET", "/", nil, nil)
	first.Set("remote", "10.0.0.1")
	assert.Equal(t, http.StatusOK, run(t, []web.MiddlewareRef{web.Wrap(rl)}, first).Status)

	blocked := web.NewRequest("GET", "/", nil, nil)
	blocked.Set("remote", "10.0.0.1")
	assert.Equal(t, http.StatusTooManyRequests, run(t, []web.MiddlewareRef{web.Wrap(rl)}, blocked).Status)

	other := web.NewRequest("GET", "/", nil, nil)
	other.Set("remote", "10.0.0.2")
	assert.Equal(t, http.StatusOK, run(t, []web.MiddlewareRef{web.Wrap(rl)}, other).Status)
}

func TestMemoryStoreReset(t *testing.T) {
	store := NewMemoryStore(1, 1)
	defer store.Close()

	require.True(t, store.Allow("k"))
	require.False(t, store.Allow("k"))
	store.Reset("k")
	assert.True(t, store.Allow("k"))
}
