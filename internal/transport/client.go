package transport

import (
	"context"
	"fmt"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	workerv1 "transmute/api/worker/v1"
	"transmute/internal/worker"
)

// Client runs action specs on a remote worker daemon. It is a worker.Executor:
// transport failures are reported as failed results.
type Client struct {
	conn    *grpc.ClientConn
	svc     workerv1.WorkerClient
	timeout time.Duration
}

// Dial connects lazily to target. Without options the connection is
// insecure, which suits a daemon on the same host.
func Dial(target string, timeout time.Duration, opts ...grpc.DialOption) (*Client, error) {
	if len(opts) == 0 {
		opts = append(opts, grpc.WithTransportCredentials(insecure.NewCredentials()))
	}
	conn, err := grpc.NewClient(target, opts...)
	if err != nil {
		return nil, err
	}
	return &Client{
		conn:    conn,
		svc:     workerv1.NewWorkerClient(conn),
		timeout: timeout,
	}, nil
}

func (c *Client) Execute(ctx context.Context, spec worker.ActionSpec) worker.WorkResult {
	req, err := EncodeSpec(spec)
	if err != nil {
		return worker.Failed(err)
	}
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}
	resp, err := c.svc.Execute(ctx, req)
	if err != nil {
		return worker.Failed(fmt.Errorf("worker rpc: %w", err))
	}
	return DecodeResult(resp)
}

func (c *Client) Close() error {
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}
