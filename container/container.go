// Package container provides the dependency-injection container used
// as the composition root. Bindings are keyed by reflect.Type; factory
// functions declare their dependencies as parameters and are wired
// recursively. Structs without a binding can be auto-built by filling
// their exported fields.
package container

import (
	"fmt"
	"reflect"
	"strconv"
	"sync"
	"time"
)

var errType = reflect.TypeOf((*error)(nil)).Elem()

// ErrNotFound is wrapped by resolution failures so callers can detect
// a missing service distinctly from a factory error.
var ErrNotFound = fmt.Errorf("service not found")

type binding struct {
	factory reflect.Value
	shared  bool

	once     sync.Once
	instance any
	err      error
}

// Container registers factories and singleton instances and resolves
// dependency graphs from them. Registration happens once during startup
// composition; resolution is safe for concurrent use afterwards.
// Cycles between bindings are not detected and will recurse until the
// stack overflows; keep the graph acyclic.
type Container struct {
	mu        sync.RWMutex
	bindings  map[reflect.Type]*binding
	instances map[reflect.Type]any
}

// New creates an empty container.
func New() *Container {
	return &Container{
		bindings:  make(map[reflect.Type]*binding),
		instances: make(map[reflect.Type]any),
	}
}

// Bind registers a transient factory. ctor must be a function whose
// first result is the bound type, optionally followed by an error; its
// parameters are resolved through the container on every Make.
func (c *Container) Bind(ctor any) error {
	return c.register(ctor, false)
}

// Singleton registers a factory whose result is materialized at most
// once per container lifetime and cached.
func (c *Container) Singleton(ctor any) error {
	return c.register(ctor, true)
}

func (c *Container) register(ctor any, shared bool) error {
	v := reflect.ValueOf(ctor)
	t := v.Type()
	if t.Kind() != reflect.Func {
		return fmt.Errorf("container: factory must be a function, got %s", t)
	}
	switch t.NumOut() {
	case 1:
	case 2:
		if t.Out(1) != errType {
			return fmt.Errorf("container: second result of %s must be error", t)
		}
	default:
		return fmt.Errorf("container: factory %s must return (T) or (T, error)", t)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.bindings[t.Out(0)] = &binding{factory: v, shared: shared}
	return nil
}

// Instance registers a pre-built value under its concrete type,
// bypassing factories entirely.
func (c *Container) Instance(value any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.instances[reflect.TypeOf(value)] = value
}

// InstanceAs registers a pre-built value under the type T, which is
// how an implementation is exposed behind an interface.
func InstanceAs[T any](c *Container, value T) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.instances[typeOf[T]()] = value
}

// BindAs registers a transient factory under the interface type T.
func BindAs[T any](c *Container, ctor func(*Container) (T, error)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	wrapped := reflect.ValueOf(ctor)
	c.bindings[typeOf[T]()] = &binding{factory: wrapped, shared: false}
}

// SingletonAs registers a singleton factory under the interface type T.
func SingletonAs[T any](c *Container, ctor func(*Container) (T, error)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	wrapped := reflect.ValueOf(ctor)
	c.bindings[typeOf[T]()] = &binding{factory: wrapped, shared: true}
}

// Has reports whether a binding or a materialized instance exists for
// the type. It never triggers construction.
func (c *Container) Has(t reflect.Type) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if _, ok := c.instances[t]; ok {
		return true
	}
	_, ok := c.bindings[t]
	return ok
}

// Make resolves a value for the type: materialized instances first,
// then bindings, then auto-building for unbound struct types.
func (c *Container) Make(t reflect.Type) (any, error) {
	c.mu.RLock()
	if v, ok := c.instances[t]; ok {
		c.mu.RUnlock()
		return v, nil
	}
	b, ok := c.bindings[t]
	c.mu.RUnlock()

	if ok {
		return c.resolve(b)
	}

	// Unbound concrete struct types are auto-built on demand.
	if t.Kind() == reflect.Ptr && t.Elem().Kind() == reflect.Struct {
		return c.buildStruct(t.Elem())
	}
	return nil, fmt.Errorf("container: %w: %s", ErrNotFound, t)
}

func (c *Container) resolve(b *binding) (any, error) {
	if !b.shared {
		return c.invoke(b.factory)
	}
	// The once guards first materialization against concurrent workers.
	b.once.Do(func() {
		b.instance, b.err = c.invoke(b.factory)
	})
	return b.instance, b.err
}

// invoke calls a factory, resolving each parameter through the
// container. A parameter of type *Container receives the container
// itself.
func (c *Container) invoke(factory reflect.Value) (any, error) {
	t := factory.Type()
	args := make([]reflect.Value, t.NumIn())
	for i := 0; i < t.NumIn(); i++ {
		pt := t.In(i)
		if pt == reflect.TypeOf(c) {
			args[i] = reflect.ValueOf(c)
			continue
		}
		dep, err := c.Make(pt)
		if err != nil {
			return nil, fmt.Errorf("container: wiring %s parameter %d: %w", t, i, err)
		}
		args[i] = reflect.ValueOf(dep)
	}

	out := factory.Call(args)
	if len(out) == 2 && !out[1].IsNil() {
		return nil, out[1].Interface().(error)
	}
	return out[0].Interface(), nil
}

// buildStruct allocates a struct and fills its exported fields. A field
// whose type resolves is injected; otherwise a `default` tag is parsed
// into the zero field, an `optional:"true"` tag leaves it zero, and
// anything else fails naming the field.
func (c *Container) buildStruct(t reflect.Type) (any, error) {
	ptr := reflect.New(t)
	elem := ptr.Elem()

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if !field.IsExported() {
			continue
		}
		if field.Tag.Get("inject") == "-" {
			continue
		}

		dep, err := c.Make(field.Type)
		if err == nil {
			elem.Field(i).Set(reflect.ValueOf(dep))
			continue
		}

		if def, ok := field.Tag.Lookup("default"); ok {
			if serr := setDefault(elem.Field(i), def); serr != nil {
				return nil, fmt.Errorf("container: building %s field %s: %w", t, field.Name, serr)
			}
			continue
		}
		if field.Tag.Get("optional") == "true" {
			continue
		}
		return nil, fmt.Errorf("container: building %s field %s: %w", t, field.Name, err)
	}
	return ptr.Interface(), nil
}

// setDefault parses a tag literal into a field value.
func setDefault(field reflect.Value, raw string) error {
	switch field.Kind() {
	case reflect.String:
		field.SetString(raw)
	case reflect.Bool:
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return err
		}
		field.SetBool(v)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if field.Type() == reflect.TypeOf(time.Duration(0)) {
			d, err := time.ParseDuration(raw)
			if err != nil {
				return err
			}
			field.SetInt(int64(d))
			return nil
		}
		v, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return err
		}
		field.SetInt(v)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		v, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return err
		}
		field.SetUint(v)
	case reflect.Float32, reflect.Float64:
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return err
		}
		field.SetFloat(v)
	default:
		return fmt.Errorf("unsupported default for kind %s", field.Kind())
	}
	return nil
}

func typeOf[T any]() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}

// Resolve resolves a value of type T from the container.
func Resolve[T any](c *Container) (T, error) {
	var zero T
	v, err := c.Make(typeOf[T]())
	if err != nil {
		return zero, err
	}
	out, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("container: %s resolved to incompatible %T", typeOf[T](), v)
	}
	return out, nil
}

// MustResolve resolves a value of type T, panicking on failure. Meant
// for startup composition where a missing binding is fatal.
func MustResolve[T any](c *Container) T {
	v, err := Resolve[T](c)
	if err != nil {
		panic(err)
	}
	return v
}
