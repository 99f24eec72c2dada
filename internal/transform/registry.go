package transform

import (
	"fmt"
	"sort"

	"transmute/internal/attribute"
	"transmute/internal/spec"
	"transmute/internal/worker"
)

// Registration is a named transformation together with the attribute shapes
// it converts between.
type Registration struct {
	Transformation Transformation
	From           attribute.Set
	To             attribute.Set
}

// Registry holds the transformations declared in a transforms file.
type Registry struct {
	byName map[string]Registration
}

// NewRegistry builds worker-backed transformations for every entry of file.
func NewRegistry(file spec.File, exec worker.Executor) (*Registry, error) {
	r := &Registry{byName: map[string]Registration{}}
	for _, ts := range file.Transforms {
		from, err := attribute.FromAny(ts.From)
		if err != nil {
			return nil, fmt.Errorf("transform %s: from: %w", ts.Name, err)
		}
		to, err := attribute.FromAny(ts.To)
		if err != nil {
			return nil, fmt.Errorf("transform %s: to: %w", ts.Name, err)
		}
		var env worker.Environment = worker.FlatEnvironment{}
		if ts.Isolation.Mode == worker.KindIsolated {
			env = worker.IsolatedEnvironment{Actions: ts.Isolation.Actions}
		}
		r.byName[ts.Name] = Registration{
			Transformation: NewActionTransformation(ActionTransformationOptions{
				Name:             ts.Name,
				Action:           ts.Action,
				Params:           ts.Params,
				Environment:      env,
				InternalServices: ts.InternalServices,
				OutputRoot:       file.Workspace,
				Executor:         exec,
			}),
			From: from,
			To:   to,
		}
	}
	return r, nil
}

func (r *Registry) Get(name string) (Registration, bool) {
	reg, ok := r.byName[name]
	return reg, ok
}

func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.byName))
	for k := range r.byName {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}
