// Package transform applies artifact transformations to resolved variants and
// caches the transformed sets of repository-sourced variants.
//
// A transformed set is lazy: nothing runs until its artifacts are read. Sets
// of external variants are memoized per (variant identity, target attributes);
// sets of project variants and of ad-hoc variants without an identity are
// rebuilt on every request.
package transform

import (
	"context"
	"errors"

	"transmute/internal/attribute"
	"transmute/internal/variant"
)

var ErrInvalidParameters = errors.New("invalid transformation parameters")

// Transformation turns one input artifact into zero or more artifacts of the
// target shape.
type Transformation interface {
	Name() string
	// IsolateParameters snapshots the parameters so later changes to the
	// registration cannot leak into running work.
	IsolateParameters() error
	Transform(ctx context.Context, req Request) ([]variant.Artifact, error)
}

// Request is one application of a transformation.
type Request struct {
	Component variant.ComponentIdentifier
	// Variant is empty for ad-hoc variants.
	Variant      variant.Identifier
	Input        variant.Artifact
	Dependencies []variant.Artifact
	Target       attribute.Set
}

// DependencyResolver resolves the extra artifacts a transformation needs,
// e.g. the transformed dependencies of the component.
type DependencyResolver interface {
	Dependencies(ctx context.Context) ([]variant.Artifact, error)
}

// ResolverFactory creates the dependency resolver for a component.
type ResolverFactory interface {
	Create(component variant.ComponentIdentifier) (DependencyResolver, error)
}

// ResolverFactoryFunc adapts a function to ResolverFactory.
type ResolverFactoryFunc func(component variant.ComponentIdentifier) (DependencyResolver, error)

func (f ResolverFactoryFunc) Create(c variant.ComponentIdentifier) (DependencyResolver, error) {
	return f(c)
}

// StaticDependencies resolves to a fixed list.
type StaticDependencies []variant.Artifact

func (s StaticDependencies) Dependencies(context.Context) ([]variant.Artifact, error) {
	return append([]variant.Artifact(nil), s...), nil
}

// NoDependencies is the factory for transformations without extra inputs.
var NoDependencies ResolverFactory = ResolverFactoryFunc(func(variant.ComponentIdentifier) (DependencyResolver, error) {
	return StaticDependencies(nil), nil
})
