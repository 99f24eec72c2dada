package engine

import (
	"context"
	"time"

	"transmute/internal/logging"
	"transmute/internal/worker"
	"transmute/sink"
)

// ReportingExecutor pushes one sink event per execution. Sink errors are
// logged and never change the result.
type ReportingExecutor struct {
	next  worker.Executor
	sink  sink.Adapter
	clock func() time.Time
}

func NewReportingExecutor(next worker.Executor, s sink.Adapter) *ReportingExecutor {
	if s == nil {
		s = sink.Discard{}
	}
	return &ReportingExecutor{next: next, sink: s, clock: time.Now}
}

func (r *ReportingExecutor) Execute(ctx context.Context, spec worker.ActionSpec) worker.WorkResult {
	start := r.clock()
	res := r.next.Execute(ctx, spec)

	env := "none"
	if e := spec.Environment(); e != nil {
		env = e.Kind()
	}
	ev := sink.Event{
		Action:      spec.Action(),
		Environment: env,
		Success:     res.Success(),
		Duration:    r.clock().Sub(start),
		At:          start,
	}
	if cause := res.Cause(); cause != nil {
		ev.Failure = cause.Error()
	}
	if err := r.sink.Push(ev); err != nil {
		logging.FromContext(ctx).Warn("sink push failed", "action", spec.Action(), "err", err)
	}
	return res
}
