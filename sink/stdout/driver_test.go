package stdout

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"transmute/sink"
)

func TestDriver_PrintsEvents(t *testing.T) {
	var buf bytes.Buffer
	d, err := sink.NewAdapter("stdout")
	require.NoError(t, err)
	require.NoError(t, d.Configure(Config{Writer: &buf, PrintCounter: true}))

	require.NoError(t, d.Push(sink.Event{Action: "copy", Environment: "flat", Success: true, Duration: time.Second}))
	require.NoError(t, d.Push(sink.Event{Action: "uppercase", Environment: "isolated", Failure: "boom"}))
	require.NoError(t, d.Close())

	assert.Equal(t,
		"[sink 000001] copy (flat) ok in 1s\n[sink 000002] uppercase (isolated) failed: boom in 0s\n",
		buf.String())
}

func TestDriver_FailuresOnly(t *testing.T) {
	var buf bytes.Buffer
	d := &driver{}
	require.NoError(t, d.Configure(Config{Writer: &buf, FailuresOnly: true}))

	require.NoError(t, d.Push(sink.Event{Action: "copy", Environment: "flat", Success: true}))
	assert.Empty(t, buf.String())
	require.NoError(t, d.Push(sink.Event{Action: "copy", Environment: "flat", Failure: "x"}))
	assert.Equal(t, "copy (flat) failed: x in 0s\n", buf.String())

	assert.Error(t, d.Configure(42))
}
