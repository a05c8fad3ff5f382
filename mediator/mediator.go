// Package mediator routes a typed request to the single handler registered
// for its type.
//
// Handlers and validators are registered with generic functions, so a
// request type is bound to its response type when the registry is built.
// Registering a second handler for the same request type is an error, which
// surfaces at startup. Dispatching a type that has no handler panics.
package mediator

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sort"

	"contact-list/db"
)

var ErrDuplicateHandler = errors.New("mediator: duplicate registration")

// Handler handles one request type on the caller's session.
type Handler[Req, Resp any] func(ctx context.Context, s *db.Session, req Req) (Resp, error)

// Unit is the response of a command that returns nothing.
type Unit struct{}

// Registry maps request types to their handler and optional validator.
type Registry struct {
	handlers   map[reflect.Type]any
	validators map[reflect.Type]any
}

func NewRegistry() *Registry {
	return &Registry{
		handlers:   make(map[reflect.Type]any),
		validators: make(map[reflect.Type]any),
	}
}

// Register binds h to Req.
func Register[Req, Resp any](r *Registry, h func(ctx context.Context, s *db.Session, req Req) (Resp, error)) error {
	key := reflect.TypeFor[Req]()
	if _, ok := r.handlers[key]; ok {
		return fmt.Errorf("%w: handler for %s", ErrDuplicateHandler, key)
	}
	r.handlers[key] = Handler[Req, Resp](h)
	return nil
}

// RegisterValidator binds a validation function to Req. Requests without one
// are dispatched unvalidated.
func RegisterValidator[Req any](r *Registry, v func(Req) error) error {
	key := reflect.TypeFor[Req]()
	if _, ok := r.validators[key]; ok {
		return fmt.Errorf("%w: validator for %s", ErrDuplicateHandler, key)
	}
	r.validators[key] = v
	return nil
}

// Validate runs the validator registered for Req, if any.
func Validate[Req any](r *Registry, req Req) error {
	v, ok := r.validators[reflect.TypeFor[Req]()]
	if !ok {
		return nil
	}
	return v.(func(Req) error)(req)
}

// Dispatch invokes the handler registered for Req and returns its response.
func Dispatch[Req, Resp any](ctx context.Context, r *Registry, s *db.Session, req Req) (Resp, error) {
	key := reflect.TypeFor[Req]()
	h, ok := r.handlers[key]
	if !ok {
		panic(fmt.Sprintf("mediator: no handler registered for %s", key))
	}
	fn, ok := h.(Handler[Req, Resp])
	if !ok {
		panic(fmt.Sprintf("mediator: handler for %s does not return %s", key, reflect.TypeFor[Resp]()))
	}
	return fn(ctx, s, req)
}

// Require reports every listed request type that has no handler.
func (r *Registry) Require(types ...reflect.Type) error {
	var missing []string
	for _, t := range types {
		if _, ok := r.handlers[t]; !ok {
			missing = append(missing, t.String())
		}
	}
	if len(missing) == 0 {
		return nil
	}
	sort.Strings(missing)
	return fmt.Errorf("mediator: no handler registered for %v", missing)
}

// Name is the short type name of Req, used for logs and metric labels.
func Name[Req any]() string {
	t := reflect.TypeFor[Req]()
	if t.Name() != "" {
		return t.Name()
	}
	return t.String()
}
