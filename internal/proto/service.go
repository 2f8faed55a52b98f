// Package proto holds the gophauth.v1.IdentityService contract. Requests and
// responses travel as google.protobuf.Struct, so the service descriptor is
// written by hand instead of being generated from a .proto file.
package proto

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

const ServiceName = "gophauth.v1.IdentityService"

const (
	MethodRegister       = "Register"
	MethodLogin          = "Login"
	MethodRefresh        = "Refresh"
	MethodChangePassword = "ChangePassword"
	MethodLogout         = "Logout"
	MethodGetMe          = "GetMe"
	MethodUpdateMe       = "UpdateMe"
	MethodListUsers      = "ListUsers"
	MethodGetUser        = "GetUser"
	MethodDeactivateUser = "DeactivateUser"
	MethodPing           = "Ping"
)

// FullMethod returns the path gRPC uses for method, e.g.
// "/gophauth.v1.IdentityService/Login".
func FullMethod(method string) string {
	return "/" + ServiceName + "/" + method
}

// IdentityServiceServer is the server API for IdentityService.
type IdentityServiceServer interface {
	Register(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Login(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Refresh(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ChangePassword(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Logout(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetMe(context.Context, *structpb.Struct) (*structpb.Struct, error)
	UpdateMe(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListUsers(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetUser(context.Context, *structpb.Struct) (*structpb.Struct, error)
	DeactivateUser(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Ping(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

type unaryCall func(IdentityServiceServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

func unaryMethod(name string, call unaryCall) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
			in := new(structpb.Struct)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(IdentityServiceServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{
				Server:     srv,
				FullMethod: FullMethod(name),
			}
			handler := func(ctx context.Context, req interface{}) (interface{}, error) {
				return call(srv.(IdentityServiceServer), ctx, req.(*structpb.Struct))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

// IdentityService_ServiceDesc is the grpc.ServiceDesc for IdentityService.
var IdentityService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*IdentityServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		unaryMethod(MethodRegister, IdentityServiceServer.Register),
		unaryMethod(MethodLogin, IdentityServiceServer.Login),
		unaryMethod(MethodRefresh, IdentityServiceServer.Refresh),
		unaryMethod(MethodChangePassword, IdentityServiceServer.ChangePassword),
		unaryMethod(MethodLogout, IdentityServiceServer.Logout),
		unaryMethod(MethodGetMe, IdentityServiceServer.GetMe),
		unaryMethod(MethodUpdateMe, IdentityServiceServer.UpdateMe),
		unaryMethod(MethodListUsers, IdentityServiceServer.ListUsers),
		unaryMethod(MethodGetUser, IdentityServiceServer.GetUser),
		unaryMethod(MethodDeactivateUser, IdentityServiceServer.DeactivateUser),
		unaryMethod(MethodPing, IdentityServiceServer.Ping),
	},
	Streams: []grpc.StreamDesc{},
}

func RegisterIdentityServiceServer(s grpc.ServiceRegistrar, srv IdentityServiceServer) {
	s.RegisterService(&IdentityService_ServiceDesc, srv)
}

// IdentityServiceClient is the client API for IdentityService.
type IdentityServiceClient interface {
	Call(ctx context.Context, method string, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
}

type identityServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewIdentityServiceClient(cc grpc.ClientConnInterface) IdentityServiceClient {
	return &identityServiceClient{cc}
}

// Call invokes one of the Method* RPCs. A nil request is sent as an empty
// Struct.
func (c *identityServiceClient) Call(ctx context.Context, method string, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	if in == nil {
		in = &structpb.Struct{}
	}
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, FullMethod(method), in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
