package grpc

import (
	"context"
	"time"

	"github.com/raselkhaanlab/accounts/internal/logging"
	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

const requestIDKey = "x-request-id"

// loggingInterceptor puts a request-scoped logger into ctx and logs the
// outcome of every unary call.
func (s *GRPCServer) loggingInterceptor(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {

	l := s.logger.With("method", info.FullMethod)
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		if values := md.Get(requestIDKey); len(values) > 0 {
			l = l.With("request_id", values[0])
		}
	}
	ctx = logging.IntoContext(ctx, l)

	start := time.Now()
	resp, err := handler(ctx, req)

	l.Debug(ctx, "call completed",
		"code", status.Code(err).String(),
		"duration_ms", time.Since(start).Milliseconds(),
	)

	return resp, err
}
