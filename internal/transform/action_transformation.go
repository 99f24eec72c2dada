package transform

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync/atomic"

	"github.com/opencontainers/go-digest"
	"google.golang.org/protobuf/types/known/structpb"

	"transmute/internal/logging"
	"transmute/internal/validation"
	"transmute/internal/variant"
	"transmute/internal/worker"
)

// Parameters set by the transformation itself for every execution.
const (
	ParamInput        = "input"
	ParamOutputDir    = "output_dir"
	ParamDependencies = "dependencies"
	ParamTarget       = "target"
)

var reservedParams = []string{ParamInput, ParamOutputDir, ParamDependencies, ParamTarget}

// Validator checks user parameters before they are isolated.
type Validator func(params map[string]any, ctx validation.Context)

type ActionTransformationOptions struct {
	Name             string
	Action           string
	Params           map[string]any
	Environment      worker.Environment
	InternalServices bool
	// OutputRoot is where per-input output directories are created.
	OutputRoot string
	Executor   worker.Executor
	Validator  Validator
}

// ActionTransformation runs a worker action once per input artifact and
// collects the files it leaves in its output directory.
type ActionTransformation struct {
	opts     ActionTransformationOptions
	isolated atomic.Pointer[structpb.Struct]
}

func NewActionTransformation(opts ActionTransformationOptions) *ActionTransformation {
	if opts.Environment == nil {
		opts.Environment = worker.FlatEnvironment{}
	}
	return &ActionTransformation{opts: opts}
}

func (t *ActionTransformation) Name() string { return t.opts.Name }

func (t *ActionTransformation) IsolateParameters() error {
	var problems validation.Collector
	for _, p := range reservedParams {
		if _, ok := t.opts.Params[p]; ok {
			problems.VisitPropertyError(t.opts.Name, p, "is reserved")
		}
	}
	if t.opts.Validator != nil {
		t.opts.Validator(t.opts.Params, &problems)
	}
	for _, w := range problems.Warnings() {
		logging.L().Warn("transformation parameter warning", "transformation", t.opts.Name, "warning", w)
	}
	if err := problems.Err(); err != nil {
		return fmt.Errorf("transformation %s: %w: %w", t.opts.Name, ErrInvalidParameters, err)
	}

	snapshot, err := structpb.NewStruct(t.opts.Params)
	if err != nil {
		return fmt.Errorf("transformation %s: %w: %w", t.opts.Name, ErrInvalidParameters, err)
	}
	t.isolated.Store(snapshot)
	return nil
}

func (t *ActionTransformation) Transform(ctx context.Context, req Request) ([]variant.Artifact, error) {
	if t.isolated.Load() == nil {
		if err := t.IsolateParameters(); err != nil {
			return nil, err
		}
	}
	outDir := t.outputDir(req)
	if err := os.RemoveAll(outDir); err != nil {
		return nil, fmt.Errorf("clean output: %w", err)
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, fmt.Errorf("create output: %w", err)
	}

	params, err := t.params(req, outDir)
	if err != nil {
		return nil, err
	}
	spec := worker.NewActionSpec(t.opts.Action, params, t.opts.Environment, t.opts.InternalServices)
	res := t.opts.Executor.Execute(ctx, spec)
	if !res.Success() {
		return nil, fmt.Errorf("action %s: %w", t.opts.Action, res.Cause())
	}
	return listOutputs(outDir)
}

func (t *ActionTransformation) params(req Request, outDir string) (*structpb.Struct, error) {
	fields := make(map[string]*structpb.Value, len(t.isolated.Load().GetFields())+len(reservedParams))
	for k, v := range t.isolated.Load().GetFields() {
		fields[k] = v
	}
	deps := make([]any, len(req.Dependencies))
	for i, d := range req.Dependencies {
		deps[i] = d.Path
	}
	depList, err := structpb.NewList(deps)
	if err != nil {
		return nil, err
	}
	target, err := structpb.NewStruct(req.Target.Map())
	if err != nil {
		return nil, fmt.Errorf("target attributes: %w", err)
	}
	fields[ParamInput] = structpb.NewStringValue(req.Input.Path)
	fields[ParamOutputDir] = structpb.NewStringValue(outDir)
	fields[ParamDependencies] = structpb.NewListValue(depList)
	fields[ParamTarget] = structpb.NewStructValue(target)
	return &structpb.Struct{Fields: fields}, nil
}

// outputDir is unique per component, transformation, target, variant and
// input path. Inputs sharing a base name get separate directories.
func (t *ActionTransformation) outputDir(req Request) string {
	v := string(req.Variant)
	if v == "" {
		v = "_adhoc"
	}
	return filepath.Join(
		t.opts.OutputRoot,
		safeName(req.Component.String()),
		safeName(t.opts.Name),
		req.Target.Digest().Encoded()[:12],
		safeName(v),
		digest.FromString(req.Input.Path).Encoded()[:12]+"-"+safeName(req.Input.Name),
	)
}

func safeName(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', ' ':
			return '_'
		}
		return r
	}, s)
}

func listOutputs(dir string) ([]variant.Artifact, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("list outputs: %w", err)
	}
	var out []variant.Artifact
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		out = append(out, variant.NewArtifact(filepath.Join(dir, e.Name())))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out, nil
}
