package engine

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"transmute/internal/config"
	"transmute/internal/worker"
	"transmute/sink"
)

type recordingSink struct {
	sink.Discard
	events []sink.Event
	err    error
}

func (r *recordingSink) Push(e sink.Event) error {
	r.events = append(r.events, e)
	return r.err
}

type fixedExecutor struct{ res worker.WorkResult }

func (f fixedExecutor) Execute(context.Context, worker.ActionSpec) worker.WorkResult { return f.res }

func TestReportingExecutor_PushesOneEventPerExecution(t *testing.T) {
	rec := &recordingSink{}
	r := NewReportingExecutor(fixedExecutor{res: worker.Failed(errors.New("boom"))}, rec)
	tick := time.Unix(100, 0)
	r.clock = func() time.Time {
		tick = tick.Add(time.Second)
		return tick
	}

	res := r.Execute(context.Background(), worker.NewActionSpec("copy", nil, worker.IsolatedEnvironment{}, false))
	assert.False(t, res.Success())
	require.Len(t, rec.events, 1)
	ev := rec.events[0]
	assert.Equal(t, "copy", ev.Action)
	assert.Equal(t, worker.KindIsolated, ev.Environment)
	assert.False(t, ev.Success)
	assert.Equal(t, "boom", ev.Failure)
	assert.Equal(t, time.Second, ev.Duration)
	assert.Equal(t, time.Unix(101, 0), ev.At)
}

func TestReportingExecutor_SinkErrorDoesNotChangeResult(t *testing.T) {
	rec := &recordingSink{err: errors.New("broker down")}
	r := NewReportingExecutor(fixedExecutor{res: worker.Succeeded()}, rec)

	res := r.Execute(context.Background(), worker.NewActionSpec("copy", nil, nil, false))
	assert.True(t, res.Success())
	require.Len(t, rec.events, 1)
	assert.Equal(t, "none", rec.events[0].Environment)
}

func TestNewSink(t *testing.T) {
	s, err := newSink(config.SinkCfg{Kind: "none"})
	require.NoError(t, err)
	assert.IsType(t, sink.Discard{}, s)

	s, err = newSink(config.SinkCfg{Kind: "stdout"})
	require.NoError(t, err)
	assert.NoError(t, s.Close())

	_, err = newSink(config.SinkCfg{Kind: "carrier-pigeon"})
	assert.Error(t, err)
}
