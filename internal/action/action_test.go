package action

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/types/known/structpb"

	"transmute/internal/service"
)

func request(t *testing.T, params map[string]any, ws string) Request {
	t.Helper()
	p, err := structpb.NewStruct(params)
	require.NoError(t, err)
	return Request{
		Params:   p,
		Services: service.NewBuilder().Provide(service.Workspace, ws).Build(),
	}
}

func TestRegistry_NewReturnsFreshInstances(t *testing.T) {
	r := NewRegistry()
	n := 0
	r.Register("count", func() Action {
		n++
		return Func(func(context.Context, Request) error { return nil })
	})

	_, err := r.New("count")
	require.NoError(t, err)
	_, err = r.New("count")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	_, err = r.New("missing")
	assert.ErrorIs(t, err, ErrUnknownAction)
}

func TestRegistry_Subset(t *testing.T) {
	r := NewRegistry()
	noop := func() Action { return Func(func(context.Context, Request) error { return nil }) }
	r.Register("a", noop)
	r.Register("b", noop)

	sub, err := r.Subset("a")
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, sub.Names())
	assert.False(t, sub.Has("b"))

	all, err := r.Subset()
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, all.Names())

	_, err = r.Subset("c")
	assert.ErrorIs(t, err, ErrUnknownAction)
}

func TestBuiltins(t *testing.T) {
	b := Builtins()
	assert.True(t, b.Has("uppercase"))
	assert.True(t, b.Has("copy"))
}

func TestUppercase_PlainText(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(in, []byte("hello"), 0o644))

	err := Uppercase{}.Execute(context.Background(), request(t, map[string]any{
		"input":      in,
		"output_dir": "out",
	}, dir))
	require.NoError(t, err)

	got, err := os.ReadFile(filepath.Join(dir, "out", "notes.txt"))
	require.NoError(t, err)
	assert.Equal(t, "HELLO", string(got))
}

func TestUppercase_JSONGetsMarker(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "event.json")
	require.NoError(t, os.WriteFile(in, []byte(`{"event":"click"}`), 0o644))
	out := filepath.Join(dir, "abs-out")

	err := Uppercase{}.Execute(context.Background(), request(t, map[string]any{
		"input":      in,
		"output_dir": out,
	}, dir))
	require.NoError(t, err)

	got, err := os.ReadFile(filepath.Join(out, "event.json"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"event":"click","_transformed":"uppercase"}`, string(got))
}

func TestCopy_MissingParameter(t *testing.T) {
	err := Copy{}.Execute(context.Background(), request(t, map[string]any{"input": "x"}, t.TempDir()))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "output_dir")
}

func TestRequest_StringTypeCheck(t *testing.T) {
	req := request(t, map[string]any{"input": 3.0}, "")
	_, err := req.String("input")
	assert.Error(t, err)
}
