package worker

import (
	"context"
	"fmt"
	"os"
	"sync/atomic"

	"transmute/internal/action"
	"transmute/internal/logging"
	"transmute/internal/service"
)

// Strategy runs action specs in one kind of execution environment.
type Strategy interface {
	Kind() string
	Execute(ctx context.Context, spec ActionSpec, services service.Registry) WorkResult
}

// StrategyFactory builds the strategy for an environment descriptor.
type StrategyFactory func(env Environment, internal service.Registry) (Strategy, error)

// DefaultStrategies builds a FlatStrategy for FlatEnvironment and an
// IsolatedStrategy for any other descriptor.
func DefaultStrategies(actions *action.Registry) StrategyFactory {
	return func(env Environment, internal service.Registry) (Strategy, error) {
		switch e := env.(type) {
		case nil:
			return nil, fmt.Errorf("action spec carries no execution environment")
		case FlatEnvironment, *FlatEnvironment:
			return NewFlatStrategy(actions), nil
		case IsolatedEnvironment:
			return NewIsolatedStrategy(e, actions, internal)
		case *IsolatedEnvironment:
			return NewIsolatedStrategy(*e, actions, internal)
		default:
			return nil, fmt.Errorf("unsupported execution environment %q", env.Kind())
		}
	}
}

// FlatStrategy runs actions directly in the daemon's environment.
type FlatStrategy struct {
	actions *action.Registry
}

func NewFlatStrategy(actions *action.Registry) *FlatStrategy {
	return &FlatStrategy{actions: actions}
}

func (*FlatStrategy) Kind() string { return KindFlat }

func (s *FlatStrategy) Execute(ctx context.Context, spec ActionSpec, services service.Registry) WorkResult {
	act, err := s.actions.New(spec.Action())
	if err != nil {
		return Failed(err)
	}
	return ResultOf(run(ctx, act, action.Request{Params: spec.Params(), Services: services}))
}

// IsolatedStrategy runs every action in a nested environment: a registry of
// freshly instantiated actions limited to the descriptor's list, internal
// services re-established on top of the daemon's, and a scratch directory
// that lives only as long as the execution.
type IsolatedStrategy struct {
	env      IsolatedEnvironment
	actions  *action.Registry
	internal service.Registry
	active   atomic.Int64
}

func NewIsolatedStrategy(env IsolatedEnvironment, actions *action.Registry, daemonInternal service.Registry) (*IsolatedStrategy, error) {
	nested, err := actions.Subset(env.Actions...)
	if err != nil {
		return nil, fmt.Errorf("isolated environment: %w", err)
	}
	internal := service.NewBuilder().
		Parent(daemonInternal).
		Provide(service.Actions, nested).
		Provide(service.SpecFactory, SpecFactory{}).
		Build()
	return &IsolatedStrategy{env: env, actions: nested, internal: internal}, nil
}

func (*IsolatedStrategy) Kind() string { return KindIsolated }

// Active reports how many nested environments are currently acquired.
func (s *IsolatedStrategy) Active() int64 { return s.active.Load() }

func (s *IsolatedStrategy) Execute(ctx context.Context, spec ActionSpec, services service.Registry) WorkResult {
	act, err := s.actions.New(spec.Action())
	if err != nil {
		return Failed(fmt.Errorf("isolated environment: %w", err))
	}
	env, err := s.acquire(services)
	if err != nil {
		return Failed(err)
	}
	defer env.release()

	ctx = logging.WithContext(ctx, "environment", KindIsolated, "scratch", env.dir)
	return ResultOf(run(ctx, act, action.Request{Params: spec.Params(), Services: env.services}))
}

type nestedEnvironment struct {
	dir      string
	services service.Registry
	owner    *IsolatedStrategy
}

func (s *IsolatedStrategy) acquire(scope service.Registry) (*nestedEnvironment, error) {
	dir, err := os.MkdirTemp("", "transmute-isolated-*")
	if err != nil {
		return nil, fmt.Errorf("isolated environment: scratch: %w", err)
	}
	b := service.NewBuilder().Parent(scope).Provide(service.Scratch, dir)
	if scope.Has(service.Actions) {
		b.ProvideFrom(s.internal, service.Actions, service.SpecFactory)
	}
	s.active.Add(1)
	return &nestedEnvironment{dir: dir, services: b.Build(), owner: s}, nil
}

func (e *nestedEnvironment) release() {
	if err := os.RemoveAll(e.dir); err != nil {
		logging.L().Warn("isolated environment: scratch cleanup failed", "dir", e.dir, "err", err)
	}
	e.owner.active.Add(-1)
}

// run executes act, turning a panic into an error.
func run(ctx context.Context, act action.Action, req action.Request) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = newPanicError(r)
		}
	}()
	return act.Execute(ctx, req)
}
