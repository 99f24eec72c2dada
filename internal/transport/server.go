package transport

import (
	"context"
	"fmt"
	"net"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/protobuf/types/known/structpb"

	workerv1 "transmute/api/worker/v1"
	"transmute/internal/logging"
	"transmute/internal/worker"
)

type Server struct {
	grpc   *grpc.Server
	lis    net.Listener
	health *health.Server
}

// StartServer listens on port and registers the worker and health services.
// Call Serve to accept connections.
func StartServer(port int, exec worker.Executor) (*Server, error) {
	lis, err := net.Listen("tcp", fmt.Sprintf(":%d", port))
	if err != nil {
		return nil, err
	}
	return NewServer(lis, exec), nil
}

func NewServer(lis net.Listener, exec worker.Executor) *Server {
	s := &Server{
		grpc:   grpc.NewServer(),
		lis:    lis,
		health: health.NewServer(),
	}
	workerv1.RegisterWorkerServer(s.grpc, &workerService{exec: exec})
	healthpb.RegisterHealthServer(s.grpc, s.health)
	s.health.SetServingStatus(workerv1.Worker_ServiceDesc.ServiceName, healthpb.HealthCheckResponse_SERVING)
	return s
}

func (s *Server) Addr() net.Addr { return s.lis.Addr() }

func (s *Server) Serve() error {
	logging.L().Info("worker daemon listening", "addr", s.lis.Addr().String())
	return s.grpc.Serve(s.lis)
}

func (s *Server) Stop() {
	s.health.Shutdown()
	s.grpc.GracefulStop()
}

type workerService struct {
	workerv1.UnimplementedWorkerServer
	exec worker.Executor
}

// Execute answers every request with a result document; undecodable specs
// come back as failed results rather than RPC errors.
func (w *workerService) Execute(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	spec, err := DecodeSpec(in)
	if err != nil {
		return EncodeResult(worker.Failed(err)), nil
	}
	ctx = logging.WithContext(ctx, "action", spec.Action())
	return EncodeResult(w.exec.Execute(ctx, spec)), nil
}
