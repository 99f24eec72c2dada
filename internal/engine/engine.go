package engine

import (
	"context"
	"net/http"
	"time"

	"transmute/internal/logging"
	"transmute/internal/transport"
	"transmute/sink"
)

type Engine struct {
	transport *transport.Server
	sink      sink.Adapter
	metrics   *http.Server
}

// Run serves until ctx is cancelled, then stops the transport and flushes
// the sink.
func (e *Engine) Run(ctx context.Context) error {
	go func() {
		<-ctx.Done()
		e.transport.Stop()
		if err := e.sink.Close(); err != nil {
			logging.L().Warn("sink close failed", "err", err)
		}
		if e.metrics != nil {
			sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = e.metrics.Shutdown(sctx)
		}
	}()

	return e.transport.Serve()
}
