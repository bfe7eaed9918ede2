package middleware

import (
	"github.com/stallkit/stall/session"
	"github.com/stallkit/stall/web"
)

// AuthGate short-circuits requests from anonymous visitors with a
// redirect to the login page. It must run after the session manager in
// the chain.
type AuthGate struct {
	LoginPath string `default:"/login"`
}

// Handle implements web.Middleware.
func (g *AuthGate) Handle(req *web.Request, next web.Next) (*web.Response, error) {
	sess := session.FromRequest(req)
	if sess == nil || !sess.LoggedIn() {
		return web.SeeOther(g.LoginPath), nil
	}
	return next()
}
