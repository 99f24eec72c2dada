package stdout

import (
	"fmt"
	"io"
	"os"
	"sync"
	"sync/atomic"

	"transmute/sink"
)

type Config struct {
	// Writer defaults to os.Stdout.
	Writer       io.Writer
	PrintCounter bool // prepend seq#
	FailuresOnly bool
}

type driver struct {
	cfg Config
	seq atomic.Uint64

	mu sync.Mutex // serialises writes
}

func (d *driver) Configure(raw any) error {
	c, ok := raw.(Config)
	if !ok {
		return fmt.Errorf("stdout-sink: expected Config, got %T", raw)
	}
	if c.Writer == nil {
		c.Writer = os.Stdout
	}
	d.cfg = c
	return nil
}

func (d *driver) Push(e sink.Event) error {
	if d.cfg.FailuresOnly && e.Success {
		return nil
	}
	if d.cfg.Writer == nil {
		d.cfg.Writer = os.Stdout
	}
	status := "ok"
	if !e.Success {
		status = "failed: " + e.Failure
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	var err error
	if d.cfg.PrintCounter {
		_, err = fmt.Fprintf(d.cfg.Writer, "[sink %06d] %s (%s) %s in %s\n",
			d.seq.Add(1), e.Action, e.Environment, status, e.Duration)
	} else {
		_, err = fmt.Fprintf(d.cfg.Writer, "%s (%s) %s in %s\n",
			e.Action, e.Environment, status, e.Duration)
	}
	return err
}

func (d *driver) Close() error { return nil }

func init() {
	sink.Register("stdout", func() sink.Adapter { return &driver{} })
}
