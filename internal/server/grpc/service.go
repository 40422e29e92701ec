package grpc

import (
	"context"

	"github.com/dmitrijs2005/insightpulse/internal/wire"
	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// BackendServer is the handler set registered under wire.ServiceName.
type BackendServer interface {
	Ping(context.Context, *structpb.Struct) (*structpb.Struct, error)
	LookupUsers(context.Context, *structpb.Struct) (*structpb.Struct, error)
	CreateUser(context.Context, *structpb.Struct) (*structpb.Struct, error)
	UpdateUser(context.Context, *structpb.Struct) (*structpb.Struct, error)
	DeleteUser(context.Context, *structpb.Struct) (*structpb.Struct, error)
	SendEmail(context.Context, *structpb.Struct) (*structpb.Struct, error)
	RecordLogin(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListLogins(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

type handlerFunc func(BackendServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

func unary(name string, call handlerFunc) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(structpb.Struct)
			if err := dec(in); err != nil {
				return nil, err
			}
			h := func(ctx context.Context, req any) (any, error) {
				return call(srv.(BackendServer), ctx, req.(*structpb.Struct))
			}
			if interceptor == nil {
				return h(ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: wire.FullMethod(name)}
			return interceptor(ctx, in, info, h)
		},
	}
}

var serviceDesc = grpc.ServiceDesc{
	ServiceName: wire.ServiceName,
	HandlerType: (*BackendServer)(nil),
	Methods: []grpc.MethodDesc{
		unary(wire.MethodPing, BackendServer.Ping),
		unary(wire.MethodLookupUsers, BackendServer.LookupUsers),
		unary(wire.MethodCreateUser, BackendServer.CreateUser),
		unary(wire.MethodUpdateUser, BackendServer.UpdateUser),
		unary(wire.MethodDeleteUser, BackendServer.DeleteUser),
		unary(wire.MethodSendEmail, BackendServer.SendEmail),
		unary(wire.MethodRecordLogin, BackendServer.RecordLogin),
		unary(wire.MethodListLogins, BackendServer.ListLogins),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "insightpulse/backend.proto",
}
