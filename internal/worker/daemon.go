package worker

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"transmute/internal/action"
	"transmute/internal/logging"
	"transmute/internal/service"
	"transmute/internal/telemetry"
)

// Executor runs one action spec and always returns a result.
type Executor interface {
	Execute(ctx context.Context, spec ActionSpec) WorkResult
}

type DaemonOptions struct {
	// Actions defaults to the built-in actions.
	Actions *action.Registry
	// Parent services shared with every execution, e.g. host-provided ones.
	Parent service.Registry
	// Workspace is exposed to actions as the workspace service.
	Workspace string
	Logger    *slog.Logger
	Clock     func() time.Time
	// Registerer is exposed to actions as the internal metrics service.
	Registerer prometheus.Registerer
	// Strategies defaults to DefaultStrategies(Actions).
	Strategies StrategyFactory
}

// Daemon executes action specs on behalf of a build process. The isolation
// strategy is chosen by the first execution and reused by every later one,
// whatever environment later specs describe.
type Daemon struct {
	internal   service.Registry
	strategies StrategyFactory
	logger     *slog.Logger

	mu     sync.Mutex
	chosen atomic.Pointer[chosenStrategy]
}

type chosenStrategy struct {
	strategy Strategy
}

func NewDaemon(opts DaemonOptions) *Daemon {
	if opts.Actions == nil {
		opts.Actions = action.Builtins()
	}
	if opts.Logger == nil {
		opts.Logger = logging.L()
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if opts.Registerer == nil {
		opts.Registerer = prometheus.DefaultRegisterer
	}
	if opts.Strategies == nil {
		opts.Strategies = DefaultStrategies(opts.Actions)
	}
	internal := service.NewBuilder().
		Parent(opts.Parent).
		Provide(service.Logger, opts.Logger).
		Provide(service.Workspace, opts.Workspace).
		Provide(service.Clock, opts.Clock).
		Provide(service.Actions, opts.Actions).
		Provide(service.SpecFactory, SpecFactory{}).
		Provide(service.Metrics, opts.Registerer).
		Build()
	return &Daemon{
		internal:   internal,
		strategies: opts.Strategies,
		logger:     opts.Logger,
	}
}

// Execute never fails: every failure, including a panic, is returned as a
// failed WorkResult.
func (d *Daemon) Execute(ctx context.Context, spec ActionSpec) (result WorkResult) {
	start := time.Now()
	kind := "none"
	defer func() {
		if r := recover(); r != nil {
			result = Failed(newPanicError(r))
		}
		d.record(ctx, spec, kind, time.Since(start), result)
	}()

	scope := NewPublicServicesBuilder(d.internal).
		WithInternalServicesVisible(spec.UsesInternalServices()).
		Build()
	s, err := d.strategyFor(spec.Environment())
	if err != nil {
		return Failed(fmt.Errorf("select isolation strategy: %w", err))
	}
	kind = s.Kind()
	return s.Execute(ctx, spec, scope)
}

// Strategy reports the kind of the cached strategy, or "" before the first
// successful selection.
func (d *Daemon) Strategy() string {
	if c := d.chosen.Load(); c != nil {
		return c.strategy.Kind()
	}
	return ""
}

func (d *Daemon) strategyFor(env Environment) (Strategy, error) {
	if c := d.chosen.Load(); c != nil {
		return c.strategy, nil
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if c := d.chosen.Load(); c != nil {
		return c.strategy, nil
	}
	s, err := d.strategies(env, d.internal)
	if err != nil {
		return nil, err
	}
	d.chosen.Store(&chosenStrategy{strategy: s})
	telemetry.WorkerStrategyConstructions.WithLabelValues(s.Kind()).Inc()
	d.logger.Info("isolation strategy selected", "strategy", s.Kind())
	return s, nil
}

func (d *Daemon) record(ctx context.Context, spec ActionSpec, kind string, took time.Duration, res WorkResult) {
	outcome := telemetry.OutcomeSuccess
	if !res.Success() {
		outcome = telemetry.OutcomeFailure
	}
	telemetry.WorkerExecutions.WithLabelValues(kind, outcome).Inc()
	telemetry.WorkerExecutionDuration.WithLabelValues(kind).Observe(took.Seconds())

	l := logging.FromContext(ctx)
	if res.Success() {
		l.Debug("action executed", "action", spec.Action(), "strategy", kind, "took", took)
		return
	}
	l.Warn("action failed", "action", spec.Action(), "strategy", kind, "took", took, "err", res.Cause())
}

func (d *Daemon) String() string { return "Daemon{strategy=" + d.Strategy() + "}" }
