package transform

import (
	"sync"

	"github.com/opencontainers/go-digest"

	"transmute/internal/attribute"
	"transmute/internal/logging"
	"transmute/internal/telemetry"
	"transmute/internal/variant"
)

const (
	pathExternal = "external"
	pathProject  = "project"
)

// CacheKey identifies a transformed external variant.
type CacheKey struct {
	Variant    variant.Identifier
	Attributes digest.Digest
}

// NewCacheKey returns false for ad-hoc variants, which have no identity and
// are never cached.
func NewCacheKey(id variant.Identifier, target attribute.Set) (CacheKey, bool) {
	if id.IsZero() {
		return CacheKey{}, false
	}
	return CacheKey{Variant: id, Attributes: target.Digest()}, true
}

// VariantFactory creates transformed artifact sets and memoizes those of
// external variants for the lifetime of the factory. Safe for concurrent use.
type VariantFactory struct {
	parallelism int

	mu       sync.Mutex
	variants map[CacheKey]*ExternalArtifactSet
}

// NewVariantFactory returns an empty factory. parallelism bounds how many
// artifacts of one set are transformed at once.
func NewVariantFactory(parallelism int) *VariantFactory {
	return &VariantFactory{
		parallelism: max(parallelism, 1),
		variants:    map[CacheKey]*ExternalArtifactSet{},
	}
}

// TransformedExternalArtifacts returns the transformed form of a
// repository-sourced variant. Parameters are isolated on every call; a
// failure to do so is returned and nothing is cached.
func (f *VariantFactory) TransformedExternalArtifacts(
	component variant.ComponentIdentifier,
	src variant.Resolved,
	target attribute.Set,
	transformation Transformation,
	resolvers ResolverFactory,
) (ArtifactSet, error) {
	if err := transformation.IsolateParameters(); err != nil {
		telemetry.TransformCacheRequests.WithLabelValues(pathExternal, telemetry.OutcomeFailed).Inc()
		return nil, err
	}

	key, ok := NewCacheKey(src.Identifier, target)
	if !ok {
		telemetry.TransformCacheRequests.WithLabelValues(pathExternal, telemetry.OutcomeBypass).Inc()
		return f.newExternal(component, src, target, transformation, resolvers), nil
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if set, ok := f.variants[key]; ok {
		telemetry.TransformCacheRequests.WithLabelValues(pathExternal, telemetry.OutcomeHit).Inc()
		return set, nil
	}
	set := f.newExternal(component, src, target, transformation, resolvers)
	f.variants[key] = set
	telemetry.TransformCacheRequests.WithLabelValues(pathExternal, telemetry.OutcomeMiss).Inc()
	telemetry.TransformCacheEntries.Inc()
	logging.L().Debug("transformed variant cached",
		"component", component, "variant", src.Identifier, "target", target, "transformation", transformation.Name())
	return set, nil
}

// TransformedProjectArtifacts returns a new transformed set on every call.
func (f *VariantFactory) TransformedProjectArtifacts(
	component variant.ComponentIdentifier,
	src variant.Resolved,
	target attribute.Set,
	transformation Transformation,
	resolvers ResolverFactory,
) (ArtifactSet, error) {
	telemetry.TransformCacheRequests.WithLabelValues(pathProject, telemetry.OutcomeUncached).Inc()
	return &ProjectArtifactSet{source: f.source(component, src, target, transformation, resolvers)}, nil
}

// Len reports how many external sets are cached.
func (f *VariantFactory) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.variants)
}

func (f *VariantFactory) newExternal(component variant.ComponentIdentifier, src variant.Resolved, target attribute.Set, t Transformation, r ResolverFactory) *ExternalArtifactSet {
	return &ExternalArtifactSet{source: f.source(component, src, target, t, r)}
}

func (f *VariantFactory) source(component variant.ComponentIdentifier, src variant.Resolved, target attribute.Set, t Transformation, r ResolverFactory) *source {
	if r == nil {
		r = NoDependencies
	}
	return &source{
		component:      component,
		variant:        src.Identifier,
		artifacts:      append([]variant.Artifact(nil), src.Artifacts...),
		target:         target,
		transformation: t,
		resolvers:      r,
		parallelism:    f.parallelism,
	}
}
