package router

import (
	"net/http"

	"github.com/stallkit/stall/container"
	"github.com/stallkit/stall/web"
)

// Route is one registered (verb, pattern, action, middleware) entry.
// Routes are immutable once registered.
type Route struct {
	Method     string
	Pattern    string
	compiled   *pattern
	action     Action
	middleware []web.MiddlewareRef
}

// Router owns the insertion-ordered route table and the global
// middleware list. Registration happens once during startup
// composition; Dispatch is read-only afterwards. The first pattern
// that structurally matches wins, so parameterized catch-alls such as
// "/{username}" must be registered after every literal route they
// would shadow.
type Router struct {
	container *container.Container
	routes    []*Route
	global    []web.MiddlewareRef
}

// New creates a router resolving actions and middleware tokens through
// the given container.
func New(c *container.Container) *Router {
	return &Router{container: c}
}

// GET registers a GET route.
func (r *Router) GET(pattern string, action Action, mw ...web.MiddlewareRef) {
	r.add(http.MethodGet, pattern, action, mw)
}

// POST registers a POST route.
func (r *Router) POST(pattern string, action Action, mw ...web.MiddlewareRef) {
	r.add(http.MethodPost, pattern, action, mw)
}

// PUT registers a PUT route.
func (r *Router) PUT(pattern string, action Action, mw ...web.MiddlewareRef) {
	r.add(http.MethodPut, pattern, action, mw)
}

// DELETE registers a DELETE route.
func (r *Router) DELETE(pattern string, action Action, mw ...web.MiddlewareRef) {
	r.add(http.MethodDelete, pattern, action, mw)
}

func (r *Router) add(method, rawPattern string, action Action, mw []web.MiddlewareRef) {
	compiled, err := compilePattern(rawPattern)
	if err != nil {
		panic(err)
	}
	r.routes = append(r.routes, &Route{
		Method:     method,
		Pattern:    rawPattern,
		compiled:   compiled,
		action:     action,
		middleware: mw,
	})
}

// Use appends global middleware, prepended to every route's own list
// in registration order.
func (r *Router) Use(mw ...web.MiddlewareRef) {
	r.global = append(r.global, mw...)
}

// Routes returns the registered table for inspection (route listings,
// startup logs).
func (r *Router) Routes() []*Route {
	return r.routes
}

// Dispatch matches the request against the route table and runs the
// matched route's middleware chain ending in its action. No matching
// route yields the standard 404 Response, not an error.
func (r *Router) Dispatch(req *web.Request) (*web.Response, error) {
	route, params := r.matchRoute(req.Method(), req.Path())
	if route == nil {
		return web.NotFound(), nil
	}

	req.SetRouteParams(params)

	chain := make([]web.MiddlewareRef, 0, len(r.global)+len(route.middleware))
	chain = append(chain, r.global...)
	chain = append(chain, route.middleware...)

	return web.RunChain(r.container, chain, req, func() (*web.Response, error) {
		return route.action.invoke(r.container, req)
	})
}

// matchRoute scans the table in registration order; the first entry
// whose verb and pattern both match wins.
func (r *Router) matchRoute(method, path string) (*Route, map[string]string) {
	for _, route := range r.routes {
		if route.Method != method {
			continue
		}
		if params, ok := route.compiled.match(path); ok {
			return route, params
		}
	}
	return nil, nil
}
