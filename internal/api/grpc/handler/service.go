package handler

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
)

// AuthServiceName is the fully qualified gRPC service name.
const AuthServiceName = "gophauth.v1.Auth"

// Full method names of the Auth service.
const (
	RegisterFullMethod = "/" + AuthServiceName + "/Register"
	LoginFullMethod    = "/" + AuthServiceName + "/Login"
	LogoutFullMethod   = "/" + AuthServiceName + "/Logout"
	WhoAmIFullMethod   = "/" + AuthServiceName + "/WhoAmI"
)

// AuthServer is the server API of the gophauth.v1.Auth service. Messages are
// well-known protobuf types so clients need no generated code.
type AuthServer interface {
	Register(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	Login(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	Logout(ctx context.Context, req *emptypb.Empty) (*emptypb.Empty, error)
	WhoAmI(ctx context.Context, req *emptypb.Empty) (*structpb.Struct, error)
}

// AuthServiceDesc describes gophauth.v1.Auth for grpc.Server.RegisterService.
var AuthServiceDesc = grpc.ServiceDesc{
	ServiceName: AuthServiceName,
	HandlerType: (*AuthServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "Register",
			Handler:    unaryHandler(RegisterFullMethod, newStruct, AuthServer.Register),
		},
		{
			MethodName: "Login",
			Handler:    unaryHandler(LoginFullMethod, newStruct, AuthServer.Login),
		},
		{
			MethodName: "Logout",
			Handler:    unaryHandler(LogoutFullMethod, newEmpty, AuthServer.Logout),
		},
		{
			MethodName: "WhoAmI",
			Handler:    unaryHandler(WhoAmIFullMethod, newEmpty, AuthServer.WhoAmI),
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "gophauth/v1/auth.proto",
}

func unaryHandler[Req proto.Message, Resp proto.Message](
	fullMethod string,
	newReq func() Req,
	call func(AuthServer, context.Context, Req) (Resp, error),
) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := newReq()
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(AuthServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(AuthServer), ctx, req.(Req))
		}
		return interceptor(ctx, in, info, handler)
	}
}

func newStruct() *structpb.Struct { return &structpb.Struct{} }

func newEmpty() *emptypb.Empty { return &emptypb.Empty{} }
