package app

import (
	"encoding/json"
	"net/http"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/stallkit/stall/container"
	"github.com/stallkit/stall/session"
	"github.com/stallkit/stall/web"
)

// browser drives the dispatch pipeline the way a cookie-keeping client
// would, carrying the session cookie across requests.
type browser struct {
	t      *testing.T
	app    *App
	cookie *http.Cookie
}

func newBrowser(t *testing.T) *browser {
	t.Helper()
	a, err := New(WithLogger(zap.NewNop()))
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = a.Hub().Shutdown(time.Second)
		container.MustResolve[*session.MemoryStore](a.Container()).Close()
	})
	return &browser{t: t, app: a}
}

// fork returns a second visitor of the same marketplace with its own
// cookie jar.
func (b *browser) fork() *browser {
	return &browser{t: b.t, app: b.app}
}

func (b *browser) do(method, path string, body url.Values, decorate ...func(*web.Request)) *web.Response {
	b.t.Helper()
	req := web.NewRequest(method, path, nil, body)
	if b.cookie != nil {
		req.SetCookie(b.cookie.Name, b.cookie.Value)
	}
	for _, d := range decorate {
		d(req)
	}

	resp, err := b.app.Router().Dispatch(req)
	require.NoError(b.t, err)
	for _, c := range resp.Cookies() {
		b.cookie = c
	}
	return resp
}

func (b *browser) jsonBody(resp *web.Response) map[string]any {
	b.t.Helper()
	var payload map[string]any
	require.NoError(b.t, json.Unmarshal(resp.Body, &payload))
	return payload
}

func (b *browser) csrfToken() string {
	b.t.Helper()
	payload := b.jsonBody(b.do("GET", "/", nil))
	token, _ := payload["csrf_token"].(string)
	require.NotEmpty(b.t, token)
	return token
}

func (b *browser) register(username string) {
	b.t.Helper()
	resp := b.do("POST", "/register", url.Values{
		"username": {username},
		"email":    {username + "@example.com"},
		"password": {"longenough"},
	})
	require.Equal(b.t, http.StatusCreated, resp.Status)
}

func (b *browser) publish(name string, priceCents string) map[string]any {
	b.t.Helper()
	resp := b.do("POST", "/products", url.Values{
		"name":        {name},
		"price_cents": {priceCents},
		"_token":      {b.csrfToken()},
	})
	require.Equal(b.t, http.StatusCreated, resp.Status)
	return b.jsonBody(resp)
}

func TestHomeAssignsSession(t *testing.T) {
	b := newBrowser(t)

	resp := b.do("GET", "/", nil)
	assert.Equal(t, http.StatusOK, resp.Status)
	require.NotNil(t, b.cookie)
	assert.Equal(t, "stall_session", b.cookie.Name)
	assert.NotEmpty(t, resp.Headers["X-Request-Id"])

	payload := b.jsonBody(resp)
	assert.Equal(t, false, payload["logged_in"])
	assert.NotEmpty(t, payload["csrf_token"])
}

func TestLiteralRouteWinsOverProfileCatchAll(t *testing.T) {
	b := newBrowser(t)

	resp := b.do("GET", "/login", nil)
	assert.Equal(t, http.StatusOK, resp.Status)
	payload := b.jsonBody(resp)
	assert.Contains(t, payload, "message", "the login page, not a seller profile")
}

func TestAnonymousCheckoutRedirectsToLogin(t *testing.T) {
	b := newBrowser(t)

	resp := b.do("POST", "/checkout", nil)
	assert.Equal(t, http.StatusSeeOther, resp.Status)
	assert.Equal(t, "/login", resp.Headers["Location"])
}

func TestMutationWithoutCSRFTokenIsRejected(t *testing.T) {
	b := newBrowser(t)
	b.register("anna")

	resp := b.do("POST", "/products", url.Values{
		"name":        {"Icon Pack"},
		"price_cents": {"500"},
	})
	assert.Equal(t, http.StatusForbidden, resp.Status)
}

func TestRegisterPublishAndBrowse(t *testing.T) {
	b := newBrowser(t)
	b.register("anna")

	product := b.publish("Icon Pack", "500")
	assert.Equal(t, "icon-pack", product["slug"])

	resp := b.do("GET", "/my/products", nil)
	require.Equal(t, http.StatusOK, resp.Status)
	var mine []map[string]any
	require.NoError(t, json.Unmarshal(resp.Body, &mine))
	require.Len(t, mine, 1)
	assert.Equal(t, "Icon Pack", mine[0]["name"])

	// public profile pages need no login
	visitor := b.fork()
	resp = visitor.do("GET", "/anna", nil)
	require.Equal(t, http.StatusOK, resp.Status)
	page := visitor.jsonBody(resp)
	assert.Equal(t, "anna", page["seller"])

	resp = visitor.do("GET", "/anna/icon-pack", nil)
	require.Equal(t, http.StatusOK, resp.Status)

	resp = visitor.do("GET", "/anna/no-such-product", nil)
	assert.Equal(t, http.StatusNotFound, resp.Status)

	resp = visitor.do("GET", "/nobody", nil)
	assert.Equal(t, http.StatusNotFound, resp.Status)
}

func TestCartAndCheckoutFlow(t *testing.T) {
	seller := newBrowser(t)
	seller.register("anna")
	product := seller.publish("Icon Pack", "500")
	productID := product["id"].(string)

	buyer := seller.fork()
	buyer.register("bella")

	resp := buyer.do("POST", "/cart/add", url.Values{
		"product_id": {productID},
		"quantity":   {"2"},
		"_token":     {buyer.csrfToken()},
	})
	require.Equal(t, http.StatusSeeOther, resp.Status)

	resp = buyer.do("GET", "/cart", nil)
	cartPage := buyer.jsonBody(resp)
	assert.EqualValues(t, 2, cartPage["count"])
	assert.EqualValues(t, 1000, cartPage["total_cents"])

	resp = buyer.do("POST", "/checkout", url.Values{"_token": {buyer.csrfToken()}})
	require.Equal(t, http.StatusCreated, resp.Status)
	placed := buyer.jsonBody(resp)
	assert.Equal(t, "paid", placed["status"])
	assert.EqualValues(t, 1000, placed["total_cents"])

	resp = buyer.do("GET", "/cart", nil)
	cartPage = buyer.jsonBody(resp)
	assert.EqualValues(t, 0, cartPage["count"])

	resp = buyer.do("GET", "/orders", nil)
	var orders []map[string]any
	require.NoError(t, json.Unmarshal(resp.Body, &orders))
	require.Len(t, orders, 1)

	orderID := orders[0]["id"].(string)
	resp = buyer.do("GET", "/orders/"+orderID, nil)
	assert.Equal(t, http.StatusOK, resp.Status)

	// the seller cannot read the buyer's order
	resp = seller.do("GET", "/orders/"+orderID, nil)
	assert.Equal(t, http.StatusNotFound, resp.Status)
}

func TestCartAddUnknownProduct(t *testing.T) {
	b := newBrowser(t)
	b.do("GET", "/", nil) // establish session
	resp := b.do("POST", "/cart/add", url.Values{
		"product_id": {"no-such"},
		"_token":     {b.csrfToken()},
	})
	assert.Equal(t, http.StatusNotFound, resp.Status)
}

func TestAPIRequiresBearerToken(t *testing.T) {
	b := newBrowser(t)

	resp := b.do("GET", "/api/me", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.Status)

	b.register("anna")
	login := b.do("POST", "/login", url.Values{
		"username": {"anna"},
		"password": {"longenough"},
	})
	require.Equal(t, http.StatusOK, login.Status)
	token, _ := b.jsonBody(login)["access_token"].(string)
	require.NotEmpty(t, token)

	resp = b.do("GET", "/api/me", nil, func(req *web.Request) {
		req.SetHeader("Authorization", "Bearer "+token)
	})
	require.Equal(t, http.StatusOK, resp.Status)
	assert.Equal(t, "anna", b.jsonBody(resp)["username"])
}

func TestLogoutClearsAuthentication(t *testing.T) {
	b := newBrowser(t)
	b.register("anna")

	resp := b.do("POST", "/logout", url.Values{"_token": {b.csrfToken()}})
	require.Equal(t, http.StatusSeeOther, resp.Status)

	resp = b.do("GET", "/my/products", nil)
	assert.Equal(t, http.StatusSeeOther, resp.Status, "gate redirects after logout")
}

func TestDeleteProductOwnership(t *testing.T) {
	seller := newBrowser(t)
	seller.register("anna")
	product := seller.publish("Icon Pack", "500")
	productID := product["id"].(string)

	intruder := seller.fork()
	intruder.register("mallory")

	resp := intruder.do("DELETE", "/products/"+productID, url.Values{"_token": {intruder.csrfToken()}})
	assert.Equal(t, http.StatusForbidden, resp.Status)

	resp = seller.do("DELETE", "/products/"+productID, url.Values{"_token": {seller.csrfToken()}})
	assert.Equal(t, http.StatusNoContent, resp.Status)

	resp = seller.do("GET", "/my/products", nil)
	var mine []map[string]any
	require.NoError(t, json.Unmarshal(resp.Body, &mine))
	assert.Empty(t, mine)
}
