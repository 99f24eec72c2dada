package worker

import (
	"fmt"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

const (
	KindFlat     = "flat"
	KindIsolated = "isolated"
)

// Environment describes the execution environment an action expects.
type Environment interface {
	Kind() string
}

// FlatEnvironment runs actions in the daemon's own environment.
type FlatEnvironment struct{}

func (FlatEnvironment) Kind() string { return KindFlat }

// IsolatedEnvironment runs actions in a nested environment holding only the
// listed actions. No actions means every action the daemon knows.
type IsolatedEnvironment struct {
	Actions []string
}

func (IsolatedEnvironment) Kind() string { return KindIsolated }

// ActionSpec is the self-contained description of one unit of work. The
// parameters are copied on construction and on every read, so a spec cannot
// be changed after it is built.
type ActionSpec struct {
	action        string
	params        *structpb.Struct
	usesInternals bool
	env           Environment
}

func NewActionSpec(action string, params *structpb.Struct, env Environment, usesInternalServices bool) ActionSpec {
	return ActionSpec{
		action:        action,
		params:        cloneStruct(params),
		usesInternals: usesInternalServices,
		env:           env,
	}
}

func (s ActionSpec) Action() string { return s.action }

// Params returns a private copy of the isolated parameters.
func (s ActionSpec) Params() *structpb.Struct { return cloneStruct(s.params) }

func (s ActionSpec) UsesInternalServices() bool { return s.usesInternals }

func (s ActionSpec) Environment() Environment { return s.env }

func (s ActionSpec) String() string {
	kind := "none"
	if s.env != nil {
		kind = s.env.Kind()
	}
	return fmt.Sprintf("ActionSpec{action=%s, environment=%s, internal=%t}", s.action, kind, s.usesInternals)
}

func cloneStruct(p *structpb.Struct) *structpb.Struct {
	if p == nil {
		return &structpb.Struct{Fields: map[string]*structpb.Value{}}
	}
	return proto.Clone(p).(*structpb.Struct)
}

// SpecFactory builds action specs from plain Go parameters. It is exposed to
// actions as an internal service.
type SpecFactory struct{}

func (SpecFactory) NewSpec(action string, params map[string]any, env Environment, usesInternalServices bool) (ActionSpec, error) {
	p, err := structpb.NewStruct(params)
	if err != nil {
		return ActionSpec{}, fmt.Errorf("isolate parameters of %s: %w", action, err)
	}
	return NewActionSpec(action, p, env, usesInternalServices), nil
}
