package sink

import (
	"fmt"
	"time"

	"google.golang.org/protobuf/types/known/structpb"
)

// Event describes one finished action execution.
type Event struct {
	Action      string
	Environment string
	Success     bool
	Failure     string
	Duration    time.Duration
	At          time.Time
}

// Struct renders the event as a protobuf document for wire sinks.
func (e Event) Struct() *structpb.Struct {
	fields := map[string]*structpb.Value{
		"action":      structpb.NewStringValue(e.Action),
		"environment": structpb.NewStringValue(e.Environment),
		"success":     structpb.NewBoolValue(e.Success),
		"duration_ms": structpb.NewNumberValue(float64(e.Duration.Milliseconds())),
		"at":          structpb.NewStringValue(e.At.UTC().Format(time.RFC3339Nano)),
	}
	if e.Failure != "" {
		fields["failure"] = structpb.NewStringValue(e.Failure)
	}
	return &structpb.Struct{Fields: fields}
}

// Adapter is the common behaviour every sink exposes.
type Adapter interface {
	Configure(any) error // driver-specific config struct
	Push(Event) error
	Close() error // idempotent
}

type factory = func() Adapter

var reg = map[string]factory{}

func Register(name string, f factory) { reg[name] = f }

func NewAdapter(name string) (Adapter, error) {
	if f, ok := reg[name]; ok {
		return f(), nil
	}
	return nil, fmt.Errorf("unknown sink %q", name)
}

// Discard drops every event.
type Discard struct{}

func (Discard) Configure(any) error { return nil }
func (Discard) Push(Event) error    { return nil }
func (Discard) Close() error        { return nil }

func init() { Register("none", func() Adapter { return Discard{} }) }
