package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_ParentFallback(t *testing.T) {
	parent := NewBuilder().Provide(Clock, "parent-clock").Provide(Workspace, "/parent").Build()
	child := NewBuilder().Parent(parent).Provide(Workspace, "/child").Build()

	ws, err := Lookup[string](child, Workspace)
	require.NoError(t, err)
	assert.Equal(t, "/child", ws)

	clock, err := Lookup[string](child, Clock)
	require.NoError(t, err)
	assert.Equal(t, "parent-clock", clock)

	assert.True(t, child.Has(Clock))
	assert.False(t, child.Has(Actions))
	assert.Equal(t, []string{Workspace}, Names(child))
}

func TestRegistry_UnknownService(t *testing.T) {
	_, err := Empty.Get(Actions)
	require.ErrorIs(t, err, ErrUnknownService)
	assert.Contains(t, err.Error(), `"actions"`)
}

func TestLookup_TypeMismatch(t *testing.T) {
	r := NewBuilder().Provide(Workspace, 42).Build()
	_, err := Lookup[string](r, Workspace)
	assert.Error(t, err)
}

func TestBuilder_ProvideFromSkipsMissing(t *testing.T) {
	src := NewBuilder().Provide(Logger, "l").Build()
	r := NewBuilder().ProvideFrom(src, Logger, Metrics).Build()

	assert.True(t, r.Has(Logger))
	assert.False(t, r.Has(Metrics))
}

func TestBuilder_BuildIsImmutable(t *testing.T) {
	b := NewBuilder().Provide(Logger, "first")
	r := b.Build()
	b.Provide(Logger, "second")

	v, err := Lookup[string](r, Logger)
	require.NoError(t, err)
	assert.Equal(t, "first", v)
}
