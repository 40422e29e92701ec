package grpc

import (
	"context"

	"github.com/dmitrijs2005/insightpulse/internal/models"
	"github.com/dmitrijs2005/insightpulse/internal/wire"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

func decode(in *structpb.Struct, v any) error {
	if err := wire.Decode(in, v); err != nil {
		return status.Errorf(codes.InvalidArgument, "malformed request: %v", err)
	}
	return nil
}

func encode(v any) (*structpb.Struct, error) {
	out, err := wire.Encode(v)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encode response: %v", err)
	}
	return out, nil
}

func (s *GRPCServer) Ping(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	if err := s.backend.Ping(ctx); err != nil {
		return nil, err
	}
	return encode(wire.PingResponse{Status: "OK"})
}

func (s *GRPCServer) LookupUsers(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var q models.Query
	if err := decode(in, &q); err != nil {
		return nil, err
	}

	page, err := s.backend.LookupUsers(ctx, q)
	if err != nil {
		return nil, err
	}

	resp := wire.LookupResponse{List: make([]wire.Record, 0, len(page.Records)), Total: page.Total}
	for _, r := range page.Records {
		resp.List = append(resp.List, wire.FromRecord(r))
	}
	return encode(resp)
}

func (s *GRPCServer) CreateUser(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var rec wire.Record
	if err := decode(in, &rec); err != nil {
		return nil, err
	}

	created, err := s.backend.CreateUser(ctx, rec.ToModel())
	if err != nil {
		return nil, err
	}
	s.logger.Info(ctx, "user created", "id", created.ID, "email", created.Email)
	return encode(wire.FromRecord(created))
}

func (s *GRPCServer) UpdateUser(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req wire.UpdateRequest
	if err := decode(in, &req); err != nil {
		return nil, err
	}

	updated, err := s.backend.UpdateUser(ctx, req.ID, req.Patch.ToModel())
	if err != nil {
		return nil, err
	}
	return encode(wire.FromRecord(updated))
}

func (s *GRPCServer) DeleteUser(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req wire.DeleteRequest
	if err := decode(in, &req); err != nil {
		return nil, err
	}
	if err := s.backend.DeleteUser(ctx, req.ID); err != nil {
		return nil, err
	}
	return &structpb.Struct{}, nil
}

func (s *GRPCServer) SendEmail(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var email models.Email
	if err := decode(in, &email); err != nil {
		return nil, err
	}
	if err := s.backend.SendEmail(ctx, email); err != nil {
		return nil, err
	}
	return &structpb.Struct{}, nil
}

func (s *GRPCServer) RecordLogin(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var log models.LoginLog
	if err := decode(in, &log); err != nil {
		return nil, err
	}
	if err := s.backend.RecordLogin(ctx, log); err != nil {
		return nil, err
	}
	return &structpb.Struct{}, nil
}

func (s *GRPCServer) ListLogins(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req wire.ListLoginsRequest
	if err := decode(in, &req); err != nil {
		return nil, err
	}
	logs, err := s.backend.ListLogins(ctx, req.Limit)
	if err != nil {
		return nil, err
	}
	return encode(wire.ListLoginsResponse{Logs: logs})
}
