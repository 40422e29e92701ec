// Package grpc exposes the Mock Backend over gRPC using the contract in
// package wire.
package grpc

import (
	"context"
	"net"

	"github.com/dmitrijs2005/insightpulse/internal/logging"
	"github.com/dmitrijs2005/insightpulse/internal/models"
	"github.com/dmitrijs2005/insightpulse/internal/wire"
	"google.golang.org/grpc"
)

// Backend is the service being exposed; *backend.Service implements it.
type Backend interface {
	Ping(ctx context.Context) error
	LookupUsers(ctx context.Context, q models.Query) (models.UserPage, error)
	CreateUser(ctx context.Context, rec models.UserRecord) (models.UserRecord, error)
	UpdateUser(ctx context.Context, id int64, patch models.UserPatch) (models.UserRecord, error)
	DeleteUser(ctx context.Context, id int64) error
	SendEmail(ctx context.Context, email models.Email) error
	RecordLogin(ctx context.Context, log models.LoginLog) error
	ListLogins(ctx context.Context, limit int) ([]models.LoginLog, error)
}

type GRPCServer struct {
	address string
	backend Backend
	logger  logging.Logger
}

func NewGRPCServer(address string, l logging.Logger, b Backend) *GRPCServer {
	return &GRPCServer{
		address: address,
		backend: b,
		logger:  l.With("module", "grpc_server"),
	}
}

// NewServer builds a grpc.Server with the backend service registered.
func (s *GRPCServer) NewServer(opts ...grpc.ServerOption) *grpc.Server {
	opts = append(opts, grpc.ChainUnaryInterceptor(s.loggingInterceptor, s.recoveryInterceptor, s.statusInterceptor))
	srv := grpc.NewServer(opts...)
	srv.RegisterService(&serviceDesc, s)
	return srv
}

// Run listens on the configured address and serves until ctx is cancelled.
func (s *GRPCServer) Run(ctx context.Context) error {
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}
	return s.Serve(ctx, listen)
}

// Serve serves on lis until ctx is cancelled, then stops gracefully. If
// serving fails it returns the error once the stop goroutine has exited.
func (s *GRPCServer) Serve(ctx context.Context, lis net.Listener) error {
	srv := s.NewServer()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping gRPC server...")
		srv.GracefulStop()
	}()

	s.logger.Info(ctx, "Starting gRPC server", "address", lis.Addr().String(), "service", wire.ServiceName)

	if err := srv.Serve(lis); err != nil {
		cancel()
		<-stopped
		return err
	}
	<-stopped
	return nil
}
