package app

import (
	"net/http"

	"github.com/stallkit/stall/auth"
	"github.com/stallkit/stall/container"
	"github.com/stallkit/stall/handlers"
	"github.com/stallkit/stall/middleware"
	"github.com/stallkit/stall/router"
	"github.com/stallkit/stall/session"
	"github.com/stallkit/stall/web"
)

// registerRoutes builds the route table. Order matters: the public
// profile catch-all "/{username}/{slug?}" must stay last or it would
// shadow every literal route registered after it.
func (a *App) registerRoutes() {
	r := a.router

	// Global chain, outermost first.
	r.Use(web.Wrap(middleware.RequestID{}))
	r.Use(web.Ref[*middleware.AccessLogger]())
	if a.config.RateLimit.Enabled {
		r.Use(web.Ref[*middleware.RateLimit]())
	}
	r.Use(web.Wrap(container.MustResolve[*session.Manager](a.container)))

	gate := web.Ref[*middleware.AuthGate]()
	csrf := web.Wrap(middleware.CSRF{})

	r.GET("/", router.Call(home))
	r.GET("/login", router.Call(loginPage))

	r.POST("/register", router.To[*handlers.AccountHandler]("Register"))
	r.POST("/login", router.To[*handlers.AccountHandler]("Login"))
	r.POST("/logout", router.To[*handlers.AccountHandler]("Logout"), csrf)

	r.GET("/cart", router.To[*handlers.CartHandler]("Show"))
	r.POST("/cart/add", router.To[*handlers.CartHandler]("Add"), csrf)
	r.POST("/cart/remove/{id}", router.To[*handlers.CartHandler]("Remove"), csrf)

	r.POST("/products", router.To[*handlers.CatalogHandler]("Publish"), gate, csrf)
	r.GET("/my/products", router.To[*handlers.CatalogHandler]("Mine"), gate)
	r.DELETE("/products/{id}", router.To[*handlers.CatalogHandler]("Delete"), gate, csrf)

	r.POST("/checkout", router.To[*handlers.CheckoutHandler]("Checkout"), gate, csrf)
	r.GET("/orders", router.To[*handlers.CheckoutHandler]("Mine"), gate)
	r.GET("/orders/{id}", router.To[*handlers.CheckoutHandler]("Show"), gate)

	r.GET("/api/me", router.Call(apiMe), web.Ref[*auth.Bearer]())

	// Public seller pages. Registered last on purpose.
	r.GET("/{username}/{slug?}", router.To[*handlers.ProfileHandler]("Show"))
}

func home(req *web.Request) (*web.Response, error) {
	sess := session.FromRequest(req)
	payload := map[string]any{
		"name": "stall",
	}
	if sess != nil {
		payload["logged_in"] = sess.LoggedIn()
		payload["csrf_token"] = sess.CSRFToken()
		if msg := sess.PopFlash("success"); msg != "" {
			payload["flash"] = msg
		}
	}
	return web.JSON(http.StatusOK, payload), nil
}

func loginPage(req *web.Request) (*web.Response, error) {
	payload := map[string]any{
		"message": "POST username and password to /login",
	}
	if sess := session.FromRequest(req); sess != nil {
		payload["csrf_token"] = sess.CSRFToken()
	}
	return web.JSON(http.StatusOK, payload), nil
}

func apiMe(req *web.Request) (*web.Response, error) {
	claims := auth.ClaimsFromRequest(req)
	return web.JSON(http.StatusOK, map[string]any{
		"user_id":  claims.UserID,
		"username": claims.Username,
		"email":    claims.Email,
	}), nil
}
