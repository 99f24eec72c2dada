// Package service provides the named service registries handed to actions.
// A registry may have a parent; lookups that miss locally continue there.
package service

import (
	"errors"
	"fmt"
	"sort"
)

// Public services, visible to every action.
const (
	Logger    = "logger"
	Workspace = "workspace"
	Clock     = "clock"
	// Scratch is a per-execution directory, only present in isolated environments.
	Scratch = "scratch"
)

// Internal services, visible only to actions whose spec asks for them.
const (
	Actions     = "actions"
	SpecFactory = "spec-factory"
	Metrics     = "metrics"
)

var ErrUnknownService = errors.New("unknown service")

// Registry resolves services by name.
type Registry interface {
	Get(name string) (any, error)
	Has(name string) bool
}

type registry struct {
	parent   Registry
	services map[string]any
}

func (r *registry) Get(name string) (any, error) {
	if v, ok := r.services[name]; ok {
		return v, nil
	}
	if r.parent != nil {
		return r.parent.Get(name)
	}
	return nil, fmt.Errorf("service %q: %w", name, ErrUnknownService)
}

func (r *registry) Has(name string) bool {
	if _, ok := r.services[name]; ok {
		return true
	}
	return r.parent != nil && r.parent.Has(name)
}

// Names lists the services registered directly in r, sorted.
func Names(r Registry) []string {
	rr, ok := r.(*registry)
	if !ok {
		return nil
	}
	names := make([]string, 0, len(rr.services))
	for k := range rr.services {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// Lookup resolves name in r and asserts its type.
func Lookup[T any](r Registry, name string) (T, error) {
	var zero T
	v, err := r.Get(name)
	if err != nil {
		return zero, err
	}
	t, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("service %q: got %T, want %T", name, v, zero)
	}
	return t, nil
}

// Builder assembles an immutable Registry.
type Builder struct {
	parent   Registry
	services map[string]any
}

func NewBuilder() *Builder {
	return &Builder{services: map[string]any{}}
}

func (b *Builder) Parent(p Registry) *Builder {
	b.parent = p
	return b
}

// Provide registers value under name, replacing any earlier value.
func (b *Builder) Provide(name string, value any) *Builder {
	b.services[name] = value
	return b
}

// ProvideFrom copies the named services from src. Missing names are skipped.
func (b *Builder) ProvideFrom(src Registry, names ...string) *Builder {
	for _, n := range names {
		if v, err := src.Get(n); err == nil {
			b.services[n] = v
		}
	}
	return b
}

func (b *Builder) Build() Registry {
	services := make(map[string]any, len(b.services))
	for k, v := range b.services {
		services[k] = v
	}
	return &registry{parent: b.parent, services: services}
}

// Empty is a registry without services.
var Empty = NewBuilder().Build()
