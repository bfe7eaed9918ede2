package web

import (
	"fmt"
	"reflect"

	"github.com/stallkit/stall/container"
)

// Next is the continuation a middleware calls to hand the request to
// the remainder of the chain. Calling it zero times short-circuits the
// chain; calling it more than once is forbidden.
type Next func() (*Response, error)

// Middleware intercepts a request on its way to the terminal handler.
// It may short-circuit by returning its own Response without calling
// next, or pass through and post-process the Response coming back.
type Middleware interface {
	Handle(req *Request, next Next) (*Response, error)
}

// MiddlewareFunc adapts a plain function to the Middleware interface.
type MiddlewareFunc func(req *Request, next Next) (*Response, error)

// Handle implements Middleware.
func (f MiddlewareFunc) Handle(req *Request, next Next) (*Response, error) {
	return f(req, next)
}

// MiddlewareRef names one entry of a middleware list: either a value
// supplied directly at registration, or a typed token resolved through
// the container at dispatch time.
type MiddlewareRef struct {
	value Middleware
	token reflect.Type
}

// Wrap references a middleware by value.
func Wrap(m Middleware) MiddlewareRef {
	return MiddlewareRef{value: m}
}

// WrapFunc references a function middleware by value.
func WrapFunc(f MiddlewareFunc) MiddlewareRef {
	return MiddlewareRef{value: f}
}

// Ref references a middleware by type; the chain resolves it through
// the container when the chain runs.
func Ref[T Middleware]() MiddlewareRef {
	return MiddlewareRef{token: reflect.TypeOf((*T)(nil)).Elem()}
}

func (r MiddlewareRef) materialize(c *container.Container) (Middleware, error) {
	if r.value != nil {
		return r.value, nil
	}
	v, err := c.Make(r.token)
	if err != nil {
		return nil, fmt.Errorf("middleware %s: %w", r.token, err)
	}
	m, ok := v.(Middleware)
	if !ok {
		return nil, fmt.Errorf("middleware %s: %T does not implement web.Middleware", r.token, v)
	}
	return m, nil
}

// RunChain executes an ordered middleware list over a request,
// finishing with the terminal continuation. Middleware run in list
// order on the way in and unwind in reverse order on the way out; an
// empty list invokes the terminal directly.
func RunChain(c *container.Container, refs []MiddlewareRef, req *Request, terminal Next) (*Response, error) {
	if len(refs) == 0 {
		return terminal()
	}
	m, err := refs[0].materialize(c)
	if err != nil {
		return nil, err
	}
	return m.Handle(req, func() (*Response, error) {
		return RunChain(c, refs[1:], req, terminal)
	})
}
