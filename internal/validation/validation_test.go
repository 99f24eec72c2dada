package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecorateMessage(t *testing.T) {
	assert.Equal(t, "Property 'input' is missing.", DecorateMessage("", "input", "is missing"))
	assert.Equal(t, "Property 'params.input' is missing.", DecorateMessage("params", "input", "is missing"))
}

func TestCollector_WarningsDoNotFail(t *testing.T) {
	var c Collector
	c.VisitWarning("deprecated layout")
	c.VisitPropertyWarning("params", "level", "is ignored")

	assert.NoError(t, c.Err())
	assert.Equal(t, []string{"deprecated layout", "Property 'params.level' is ignored."}, c.Warnings())
}

func TestCollector_ErrorsAreJoined(t *testing.T) {
	var c Collector
	c.VisitError("first")
	c.VisitPropertyError("", "mode", "must be a string")

	err := c.Err()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "first")
	assert.Contains(t, err.Error(), "Property 'mode' must be a string.")
}

func TestNoop(t *testing.T) {
	Noop.VisitError("ignored")
	Noop.VisitPropertyWarning("a", "b", "c")
}
