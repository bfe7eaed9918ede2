package router

import (
	"fmt"
	"net/http"
	"reflect"

	"github.com/stallkit/stall/container"
	"github.com/stallkit/stall/web"
)

var (
	requestType  = reflect.TypeOf((*web.Request)(nil))
	responseType = reflect.TypeOf((*web.Response)(nil))
	errorType    = reflect.TypeOf((*error)(nil)).Elem()
)

// Action is the closed variant a route dispatches to: either a
// directly-invocable function or a container-resolved component plus a
// method name.
type Action struct {
	fn        reflect.Value
	component reflect.Type
	method    string
}

// Call wraps a function action. The function takes a *web.Request and
// returns a value to normalize, optionally followed by an error.
// Invalid shapes panic at registration; routes are composed once at
// startup and a bad action is a configuration error.
func Call(fn any) Action {
	v := reflect.ValueOf(fn)
	if err := checkActionFunc(v.Type()); err != nil {
		panic(fmt.Errorf("router: invalid route action: %w", err))
	}
	return Action{fn: v}
}

// To wraps a component-method action. The component is resolved
// through the container at dispatch time, auto-wiring its
// dependencies, and the named method is invoked with the request.
func To[T any](method string) Action {
	t := reflect.TypeOf((*T)(nil)).Elem()
	m, ok := t.MethodByName(method)
	if !ok {
		panic(fmt.Errorf("router: invalid route action: %s has no method %s", t, method))
	}
	// Receiver occupies In(0) on a method expression.
	if err := checkActionMethod(m.Type); err != nil {
		panic(fmt.Errorf("router: invalid route action %s.%s: %w", t, method, err))
	}
	return Action{component: t, method: method}
}

func checkActionFunc(t reflect.Type) error {
	if t.Kind() != reflect.Func {
		return fmt.Errorf("not a function: %s", t)
	}
	if t.NumIn() != 1 || t.In(0) != requestType {
		return fmt.Errorf("%s must take a single *web.Request", t)
	}
	return checkResults(t)
}

func checkActionMethod(t reflect.Type) error {
	if t.NumIn() != 2 || t.In(1) != requestType {
		return fmt.Errorf("%s must take a single *web.Request", t)
	}
	return checkResults(t)
}

func checkResults(t reflect.Type) error {
	switch t.NumOut() {
	case 1:
		return nil
	case 2:
		if t.Out(1) != errorType {
			return fmt.Errorf("%s second result must be error", t)
		}
		return nil
	default:
		return fmt.Errorf("%s must return (T) or (T, error)", t)
	}
}

// invoke resolves the action target and normalizes its return value
// into a Response.
func (a Action) invoke(c *container.Container, req *web.Request) (*web.Response, error) {
	var out []reflect.Value

	if a.fn.IsValid() {
		out = a.fn.Call([]reflect.Value{reflect.ValueOf(req)})
	} else {
		instance, err := c.Make(a.component)
		if err != nil {
			return nil, fmt.Errorf("router: resolving %s: %w", a.component, err)
		}
		method := reflect.ValueOf(instance).MethodByName(a.method)
		if !method.IsValid() {
			return nil, fmt.Errorf("router: invalid route action: %T has no method %s", instance, a.method)
		}
		out = method.Call([]reflect.Value{reflect.ValueOf(req)})
	}

	if len(out) == 2 && !out[1].IsNil() {
		return nil, out[1].Interface().(error)
	}
	return normalizeResult(out[0]), nil
}

// normalizeResult converts an action's raw return value: a *Response
// passes through, a string becomes a 200 text body, maps, slices and
// structs are serialized as JSON, and anything else is rendered with
// fmt.Sprint.
func normalizeResult(v reflect.Value) *web.Response {
	if v.Type() == responseType {
		if v.IsNil() {
			return web.NewResponse(http.StatusOK)
		}
		return v.Interface().(*web.Response)
	}

	if v.Kind() == reflect.Interface {
		if v.IsNil() {
			return web.NewResponse(http.StatusOK)
		}
		return normalizeResult(v.Elem())
	}

	switch v.Kind() {
	case reflect.String:
		return web.Text(http.StatusOK, v.String())
	case reflect.Map, reflect.Slice, reflect.Array, reflect.Struct:
		return web.JSON(http.StatusOK, v.Interface())
	case reflect.Ptr:
		if v.IsNil() {
			return web.NewResponse(http.StatusOK)
		}
		if v.Elem().Kind() == reflect.Struct {
			return web.JSON(http.StatusOK, v.Interface())
		}
		return normalizeResult(v.Elem())
	default:
		return web.Text(http.StatusOK, fmt.Sprint(v.Interface()))
	}
}
