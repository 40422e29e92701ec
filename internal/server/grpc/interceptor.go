package grpc

import (
	"context"
	"time"

	"github.com/dmitrijs2005/insightpulse/internal/wire"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// statusInterceptor converts domain errors returned by handlers into gRPC
// status errors.
func (s *GRPCServer) statusInterceptor(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	resp, err := handler(ctx, req)
	if err != nil {
		return nil, wire.ToStatus(err)
	}
	return resp, nil
}

func (s *GRPCServer) loggingInterceptor(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	start := time.Now()
	resp, err := handler(ctx, req)

	code := status.Code(err)
	args := []any{"method", info.FullMethod, "code", code.String(), "duration", time.Since(start)}
	if err != nil {
		s.logger.Warn(ctx, "request failed", append(args, "error", err.Error())...)
	} else {
		s.logger.Debug(ctx, "request served", args...)
	}
	return resp, err
}

// recoveryInterceptor turns a handler panic into codes.Internal so one bad
// request cannot stop the process.
func (s *GRPCServer) recoveryInterceptor(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (resp any, err error) {
	defer func() {
		if p := recover(); p != nil {
			s.logger.Error(ctx, "handler panicked", "method", info.FullMethod, "panic", p)
			resp, err = nil, status.Error(codes.Internal, "internal error")
		}
	}()
	return handler(ctx, req)
}
