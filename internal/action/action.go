// Package action defines the units of work a worker daemon executes and the
// registries that instantiate them by name.
package action

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"google.golang.org/protobuf/types/known/structpb"

	"transmute/internal/service"
)

var ErrUnknownAction = errors.New("unknown action")

// Request is what an action sees of its execution: the isolated parameters
// and the services its scope exposes.
type Request struct {
	Params   *structpb.Struct
	Services service.Registry
}

// String returns the named string parameter.
func (r Request) String(name string) (string, error) {
	v, ok := r.Params.GetFields()[name]
	if !ok {
		return "", fmt.Errorf("parameter %q is missing", name)
	}
	s, ok := v.GetKind().(*structpb.Value_StringValue)
	if !ok {
		return "", fmt.Errorf("parameter %q must be a string", name)
	}
	return s.StringValue, nil
}

type Action interface {
	Execute(ctx context.Context, req Request) error
}

// Func adapts a function to Action.
type Func func(ctx context.Context, req Request) error

func (f Func) Execute(ctx context.Context, req Request) error { return f(ctx, req) }

// Factory builds a fresh Action instance.
type Factory func() Action

// Registry maps action names to factories.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

func NewRegistry() *Registry {
	return &Registry{factories: map[string]Factory{}}
}

func (r *Registry) Register(name string, f Factory) {
	r.mu.Lock()
	r.factories[name] = f
	r.mu.Unlock()
}

// New instantiates the named action.
func (r *Registry) New(name string) (Action, error) {
	r.mu.RLock()
	f, ok := r.factories[name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("action %q: %w", name, ErrUnknownAction)
	}
	return f(), nil
}

func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.factories[name]
	return ok
}

func (r *Registry) Names() []string {
	r.mu.RLock()
	names := make([]string, 0, len(r.factories))
	for k := range r.factories {
		names = append(names, k)
	}
	r.mu.RUnlock()
	sort.Strings(names)
	return names
}

// Subset returns a new registry holding only the named actions. No names
// means every action of r.
func (r *Registry) Subset(names ...string) (*Registry, error) {
	if len(names) == 0 {
		names = r.Names()
	}
	sub := NewRegistry()
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, n := range names {
		f, ok := r.factories[n]
		if !ok {
			return nil, fmt.Errorf("action %q: %w", n, ErrUnknownAction)
		}
		sub.factories[n] = f
	}
	return sub, nil
}

/*──────── built-ins ───────*/

var builtins = NewRegistry()

// Register adds a built-in action. Called from init().
func Register(name string, f Factory) { builtins.Register(name, f) }

// Builtins returns a copy of the built-in registry.
func Builtins() *Registry {
	r, _ := builtins.Subset()
	return r
}
