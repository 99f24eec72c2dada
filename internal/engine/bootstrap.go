package engine

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"transmute/internal/action"
	"transmute/internal/config"
	"transmute/internal/logging"
	"transmute/internal/telemetry"
	"transmute/internal/transport"
	"transmute/internal/worker"
	"transmute/sink"
	"transmute/sink/kafka"
	"transmute/sink/stdout"
)

func Bootstrap(ctx context.Context, cfg config.Daemon) (*Engine, error) {
	// 1. workspace
	ws, err := filepath.Abs(cfg.Workspace)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(ws, 0o755); err != nil {
		return nil, fmt.Errorf("workspace: %w", err)
	}

	// 2. result sink
	out, err := newSink(cfg.Sink)
	if err != nil {
		return nil, fmt.Errorf("sink: %w", err)
	}

	// 3. daemon behind the transport server
	daemon := worker.NewDaemon(worker.DaemonOptions{
		Actions:   action.Builtins(),
		Workspace: ws,
		Logger:    logging.L(),
	})
	srv, err := transport.StartServer(cfg.GRPCPort, NewReportingExecutor(daemon, out))
	if err != nil {
		_ = out.Close()
		return nil, fmt.Errorf("transport: %w", err)
	}

	// 4. metrics
	metrics := telemetry.Expose(cfg.MetricsPort)

	logging.FromContext(ctx).Info("worker daemon ready",
		"grpc_port", cfg.GRPCPort, "metrics_port", cfg.MetricsPort, "workspace", ws, "sink", cfg.Sink.Kind)
	return &Engine{
		transport: srv,
		sink:      out,
		metrics:   metrics,
	}, nil
}

func newSink(cfg config.SinkCfg) (sink.Adapter, error) {
	a, err := sink.NewAdapter(cfg.Kind)
	if err != nil {
		return nil, err
	}
	switch cfg.Kind {
	case "stdout":
		err = a.Configure(stdout.Config{})
	case "kafka":
		err = a.Configure(kafka.Config{
			Brokers: cfg.Kafka.Brokers,
			Topic:   cfg.Kafka.Topic,
			Acks:    cfg.Kafka.Acks,
			Version: cfg.Kafka.Version,
		})
	default:
		err = a.Configure(nil)
	}
	if err != nil {
		return nil, err
	}
	return a, nil
}
