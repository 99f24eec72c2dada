package worker

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/types/known/structpb"

	"transmute/internal/action"
	"transmute/internal/service"
)

func TestIsolatedStrategy_ReleasesEnvironment(t *testing.T) {
	var scratch string
	actions := testActions()
	actions.Register("scratch", func() action.Action {
		return action.Func(func(_ context.Context, req action.Request) error {
			dir, err := service.Lookup[string](req.Services, service.Scratch)
			if err != nil {
				return err
			}
			scratch = dir
			if _, err := os.Stat(dir); err != nil {
				return err
			}
			panic("after touching scratch")
		})
	})

	s, err := NewIsolatedStrategy(IsolatedEnvironment{}, actions, service.Empty)
	require.NoError(t, err)

	res := s.Execute(context.Background(), NewActionSpec("scratch", nil, IsolatedEnvironment{}, false), service.Empty)
	require.False(t, res.Success())
	assert.IsType(t, &PanicError{}, res.Cause())

	assert.Equal(t, int64(0), s.Active())
	require.NotEmpty(t, scratch)
	_, err = os.Stat(scratch)
	assert.True(t, os.IsNotExist(err), "scratch directory should be removed")
}

func TestIsolatedStrategy_FreshActionInstances(t *testing.T) {
	actions := action.NewRegistry()
	type counter struct{ n int }
	shared := &counter{}
	actions.Register("count", func() action.Action {
		local := &counter{}
		return action.Func(func(context.Context, action.Request) error {
			local.n++
			shared.n++
			if local.n != 1 {
				return assert.AnError
			}
			return nil
		})
	})
	s, err := NewIsolatedStrategy(IsolatedEnvironment{Actions: []string{"count"}}, actions, service.Empty)
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		res := s.Execute(context.Background(), NewActionSpec("count", nil, IsolatedEnvironment{}, false), service.Empty)
		require.True(t, res.Success())
	}
	assert.Equal(t, 3, shared.n)
}

func TestFlatStrategy_HasNoScratch(t *testing.T) {
	actions := action.NewRegistry()
	actions.Register("scratch", func() action.Action {
		return action.Func(func(_ context.Context, req action.Request) error {
			_, err := req.Services.Get(service.Scratch)
			return err
		})
	})
	res := NewFlatStrategy(actions).Execute(context.Background(), NewActionSpec("scratch", nil, FlatEnvironment{}, false), service.Empty)
	assert.ErrorIs(t, res.Cause(), service.ErrUnknownService)
}

func TestActionSpec_ParametersAreIsolated(t *testing.T) {
	params, err := structpb.NewStruct(map[string]any{"input": "a.jar"})
	require.NoError(t, err)
	spec := NewActionSpec("copy", params, FlatEnvironment{}, false)

	params.Fields["input"] = structpb.NewStringValue("changed.jar")
	assert.Equal(t, "a.jar", spec.Params().Fields["input"].GetStringValue())

	read := spec.Params()
	read.Fields["input"] = structpb.NewStringValue("mutated.jar")
	assert.Equal(t, "a.jar", spec.Params().Fields["input"].GetStringValue())
}

func TestSpecFactory_RejectsUnsupportedParameters(t *testing.T) {
	_, err := SpecFactory{}.NewSpec("copy", map[string]any{"bad": make(chan int)}, FlatEnvironment{}, false)
	assert.Error(t, err)

	spec, err := SpecFactory{}.NewSpec("copy", map[string]any{"input": "x"}, IsolatedEnvironment{}, true)
	require.NoError(t, err)
	assert.True(t, spec.UsesInternalServices())
	assert.Equal(t, KindIsolated, spec.Environment().Kind())
}

func TestPublicServicesBuilder(t *testing.T) {
	internal := service.NewBuilder().
		Provide(service.Workspace, "/ws").
		Provide(service.Actions, action.NewRegistry()).
		Build()

	hidden := NewPublicServicesBuilder(internal).Build()
	assert.True(t, hidden.Has(service.Workspace))
	assert.False(t, hidden.Has(service.Actions))

	visible := NewPublicServicesBuilder(internal).WithInternalServicesVisible(true).Build()
	assert.True(t, visible.Has(service.Actions))
}

func TestWorkResult(t *testing.T) {
	assert.True(t, Succeeded().Success())
	assert.Equal(t, "success", Succeeded().String())

	f := Failed(nil)
	assert.False(t, f.Success())
	assert.Error(t, f.Cause())

	assert.True(t, ResultOf(nil).Success())
	assert.ErrorIs(t, ResultOf(errBoom).Cause(), errBoom)
}
