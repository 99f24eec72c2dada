package transform

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"transmute/internal/attribute"
	"transmute/internal/variant"
)

// ArtifactSet is a lazily transformed set of artifacts.
type ArtifactSet interface {
	Component() variant.ComponentIdentifier
	Target() attribute.Set
	Transformation() Transformation
	// Artifacts runs the transformation if needed and lists the results.
	Artifacts(ctx context.Context) ([]variant.Artifact, error)
}

// source holds what every transformed set is built from. It is immutable.
type source struct {
	component      variant.ComponentIdentifier
	variant        variant.Identifier
	artifacts      []variant.Artifact
	target         attribute.Set
	transformation Transformation
	resolvers      ResolverFactory
	parallelism    int
}

func (s *source) Component() variant.ComponentIdentifier { return s.component }
func (s *source) Target() attribute.Set                   { return s.target }
func (s *source) Transformation() Transformation          { return s.transformation }

// compute applies the transformation to every source artifact. Results keep
// the order of the source artifacts.
func (s *source) compute(ctx context.Context) ([]variant.Artifact, error) {
	resolver, err := s.resolvers.Create(s.component)
	if err != nil {
		return nil, fmt.Errorf("%s: dependency resolver: %w", s.component, err)
	}
	deps, err := resolver.Dependencies(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: resolve dependencies: %w", s.component, err)
	}

	results := make([][]variant.Artifact, len(s.artifacts))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(s.parallelism, 1))
	for i, in := range s.artifacts {
		g.Go(func() error {
			out, err := s.transformation.Transform(gctx, Request{
				Component:    s.component,
				Variant:      s.variant,
				Input:        in,
				Dependencies: deps,
				Target:       s.target,
			})
			if err != nil {
				return fmt.Errorf("%s: %s on %s: %w", s.component, s.transformation.Name(), in.Name, err)
			}
			results[i] = out
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var all []variant.Artifact
	for _, r := range results {
		all = append(all, r...)
	}
	return all, nil
}

// ExternalArtifactSet is the transformed form of a repository-sourced
// variant. Its listing is computed on first read and kept; a failed read is
// not kept, so the next read tries again. At most one computation runs at a
// time; concurrent readers wait for it or for their own ctx.
type ExternalArtifactSet struct {
	*source

	mu        sync.Mutex
	done      bool
	artifacts []variant.Artifact
	inflight  *computation
}

type computation struct {
	ready chan struct{}
	err   error
}

func (s *ExternalArtifactSet) Artifacts(ctx context.Context) ([]variant.Artifact, error) {
	for {
		s.mu.Lock()
		if s.done {
			out := append([]variant.Artifact(nil), s.artifacts...)
			s.mu.Unlock()
			return out, nil
		}
		c := s.inflight
		if c == nil {
			return s.computeLocked(ctx)
		}
		s.mu.Unlock()

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-c.ready:
		}
		// A computation aborted by another reader's ctx is retried with ours.
		if c.err != nil && !errors.Is(c.err, context.Canceled) && !errors.Is(c.err, context.DeadlineExceeded) {
			return nil, c.err
		}
	}
}

// computeLocked is entered with s.mu held and releases it while computing.
func (s *ExternalArtifactSet) computeLocked(ctx context.Context) ([]variant.Artifact, error) {
	c := &computation{ready: make(chan struct{})}
	s.inflight = c
	s.mu.Unlock()

	out, err := s.compute(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.inflight = nil
	c.err = err
	close(c.ready)
	if err != nil {
		return nil, err
	}
	s.artifacts, s.done = out, true
	return append([]variant.Artifact(nil), out...), nil
}

// ProjectArtifactSet is the transformed form of a variant produced by the
// current build. Project outputs can change between reads, so every read
// runs the transformation again.
type ProjectArtifactSet struct {
	*source
}

func (s *ProjectArtifactSet) Artifacts(ctx context.Context) ([]variant.Artifact, error) {
	return s.compute(ctx)
}
