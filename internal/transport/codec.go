package transport

import (
	"errors"
	"fmt"

	"google.golang.org/protobuf/types/known/structpb"

	"transmute/internal/worker"
)

// Field names of the wire documents.
const (
	fieldAction      = "action"
	fieldParams      = "params"
	fieldInternal    = "uses_internal_services"
	fieldEnvironment = "environment"
	fieldKind        = "kind"
	fieldActions     = "actions"
	fieldSuccess     = "success"
	fieldFailure     = "failure"
	fieldPanic       = "panic"
)

// RemoteError is a failure cause reported by a remote daemon. Only the
// message survives the trip.
type RemoteError struct {
	Message string
	Panic   bool
}

func (e *RemoteError) Error() string { return e.Message }

func EncodeSpec(spec worker.ActionSpec) (*structpb.Struct, error) {
	env, err := encodeEnvironment(spec.Environment())
	if err != nil {
		return nil, err
	}
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		fieldAction:      structpb.NewStringValue(spec.Action()),
		fieldParams:      structpb.NewStructValue(spec.Params()),
		fieldInternal:    structpb.NewBoolValue(spec.UsesInternalServices()),
		fieldEnvironment: structpb.NewStructValue(env),
	}}, nil
}

func DecodeSpec(in *structpb.Struct) (worker.ActionSpec, error) {
	f := in.GetFields()
	name := f[fieldAction].GetStringValue()
	if name == "" {
		return worker.ActionSpec{}, errors.New("action spec: missing action")
	}
	env, err := decodeEnvironment(f[fieldEnvironment].GetStructValue())
	if err != nil {
		return worker.ActionSpec{}, err
	}
	return worker.NewActionSpec(name, f[fieldParams].GetStructValue(), env, f[fieldInternal].GetBoolValue()), nil
}

func encodeEnvironment(env worker.Environment) (*structpb.Struct, error) {
	switch e := env.(type) {
	case *worker.FlatEnvironment:
		if e == nil {
			return nil, errors.New("action spec: missing execution environment")
		}
		return encodeEnvironment(*e)
	case *worker.IsolatedEnvironment:
		if e == nil {
			return nil, errors.New("action spec: missing execution environment")
		}
		return encodeEnvironment(*e)
	case worker.FlatEnvironment:
		return &structpb.Struct{Fields: map[string]*structpb.Value{
			fieldKind: structpb.NewStringValue(worker.KindFlat),
		}}, nil
	case worker.IsolatedEnvironment:
		actions := make([]*structpb.Value, len(e.Actions))
		for i, a := range e.Actions {
			actions[i] = structpb.NewStringValue(a)
		}
		return &structpb.Struct{Fields: map[string]*structpb.Value{
			fieldKind:    structpb.NewStringValue(worker.KindIsolated),
			fieldActions: structpb.NewListValue(&structpb.ListValue{Values: actions}),
		}}, nil
	case nil:
		return nil, errors.New("action spec: missing execution environment")
	default:
		return nil, fmt.Errorf("action spec: cannot encode environment %q", env.Kind())
	}
}

func decodeEnvironment(in *structpb.Struct) (worker.Environment, error) {
	f := in.GetFields()
	switch kind := f[fieldKind].GetStringValue(); kind {
	case worker.KindFlat:
		return worker.FlatEnvironment{}, nil
	case worker.KindIsolated:
		var actions []string
		for _, v := range f[fieldActions].GetListValue().GetValues() {
			actions = append(actions, v.GetStringValue())
		}
		return worker.IsolatedEnvironment{Actions: actions}, nil
	case "":
		return nil, errors.New("action spec: missing execution environment")
	default:
		return nil, fmt.Errorf("action spec: unknown environment kind %q", kind)
	}
}

func EncodeResult(res worker.WorkResult) *structpb.Struct {
	fields := map[string]*structpb.Value{
		fieldSuccess: structpb.NewBoolValue(res.Success()),
	}
	if cause := res.Cause(); cause != nil {
		fields[fieldFailure] = structpb.NewStringValue(cause.Error())
		var pe *worker.PanicError
		fields[fieldPanic] = structpb.NewBoolValue(errors.As(cause, &pe))
	}
	return &structpb.Struct{Fields: fields}
}

func DecodeResult(in *structpb.Struct) worker.WorkResult {
	f := in.GetFields()
	if f[fieldSuccess].GetBoolValue() {
		return worker.Succeeded()
	}
	msg := f[fieldFailure].GetStringValue()
	if msg == "" {
		msg = "remote work failed"
	}
	return worker.Failed(&RemoteError{Message: msg, Panic: f[fieldPanic].GetBoolValue()})
}
