// Package grpc runs the gRPC side of the service: the standard health
// service, whose status follows the database, and server reflection.
package grpc

import (
	"context"
	"net"
	"time"

	"github.com/raselkhaanlab/accounts/internal/logging"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

// ServiceName is the health-check service name clients may ask about in
// addition to the overall ("") status.
const ServiceName = "accounts"

// Pinger reports whether the database is reachable; *sql.DB satisfies it.
type Pinger interface {
	PingContext(ctx context.Context) error
}

type GRPCServer struct {
	address  string
	db       Pinger
	interval time.Duration
	logger   logging.Logger
	health   *health.Server
}

func NewGRPCServer(a string, l logging.Logger, db Pinger, interval time.Duration) *GRPCServer {
	if interval <= 0 {
		interval = 10 * time.Second
	}
	return &GRPCServer{
		address:  a,
		db:       db,
		interval: interval,
		logger:   l.With("module", "grpc_server"),
		health:   health.NewServer(),
	}
}

func (s *GRPCServer) Run(ctx context.Context) error {

	// announces address
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}

	s.logger.Info(ctx, "Starting gRPC server", "address", s.address)
	return s.serve(ctx, listen)
}

func (s *GRPCServer) serve(ctx context.Context, listen net.Listener) error {
	srv := grpc.NewServer(grpc.ChainUnaryInterceptor(s.loggingInterceptor))

	healthpb.RegisterHealthServer(srv, s.health)
	reflection.Register(srv)

	s.check(ctx)
	go s.watch(ctx)

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping gRPC server...")
		s.health.Shutdown()
		srv.GracefulStop()
	}()

	// starts accepting incoming connections
	if err := srv.Serve(listen); err != nil {
		return err
	}

	return nil
}

// watch re-checks the database every interval until ctx is done.
func (s *GRPCServer) watch(ctx context.Context) {
	t := time.NewTicker(s.interval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			s.check(ctx)
		}
	}
}

// check pings the database and publishes the result for both the overall
// status and ServiceName.
func (s *GRPCServer) check(ctx context.Context) {
	st := healthpb.HealthCheckResponse_SERVING
	if s.db != nil {
		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		err := s.db.PingContext(pingCtx)
		cancel()
		if err != nil {
			st = healthpb.HealthCheckResponse_NOT_SERVING
			s.logger.Warn(ctx, "database ping failed", "error", err)
		}
	}

	s.health.SetServingStatus("", st)
	s.health.SetServingStatus(ServiceName, st)
}
