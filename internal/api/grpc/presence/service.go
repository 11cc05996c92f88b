package presence

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "homeiot.v1.PresenceService"

// Full method names.
const (
	ArriveFullMethodName        = "/" + ServiceName + "/Arrive"
	DepartFullMethodName        = "/" + ServiceName + "/Depart"
	LeftWorkplaceFullMethodName = "/" + ServiceName + "/LeftWorkplace"
	GetHomeStatusFullMethodName = "/" + ServiceName + "/GetHomeStatus"
)

// Metadata keys understood by the server.
const (
	// MetadataActor names who sent the trigger, as user@host.
	MetadataActor = "x-actor"
	// MetadataTriggerToken carries the shared trigger token.
	MetadataTriggerToken = "x-trigger-token"
)

// PresenceServiceServer is the server API for PresenceService.
type PresenceServiceServer interface {
	Arrive(ctx context.Context, in *wrapperspb.StringValue) (*structpb.Struct, error)
	Depart(ctx context.Context, in *wrapperspb.StringValue) (*structpb.Struct, error)
	LeftWorkplace(ctx context.Context, in *wrapperspb.StringValue) (*structpb.Struct, error)
	GetHomeStatus(ctx context.Context, in *emptypb.Empty) (*structpb.Struct, error)
}

// RegisterPresenceServiceServer registers srv on s.
func RegisterPresenceServiceServer(s grpc.ServiceRegistrar, srv PresenceServiceServer) {
	s.RegisterService(&ServiceDesc, srv)
}

// ServiceDesc is the grpc.ServiceDesc for PresenceService.
//
//nolint:gochecknoglobals // Service descriptors are package-level by grpc convention.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*PresenceServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Arrive", Handler: memberHandler(ArriveFullMethodName, PresenceServiceServer.Arrive)},
		{MethodName: "Depart", Handler: memberHandler(DepartFullMethodName, PresenceServiceServer.Depart)},
		{
			MethodName: "LeftWorkplace",
			Handler:    memberHandler(LeftWorkplaceFullMethodName, PresenceServiceServer.LeftWorkplace),
		},
		{MethodName: "GetHomeStatus", Handler: getHomeStatusHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "homeiot/v1/presence.proto",
}

// memberMethod is the shape of the three trigger methods.
type memberMethod func(PresenceServiceServer, context.Context, *wrapperspb.StringValue) (*structpb.Struct, error)

// memberHandler builds the unary handler of a trigger method.
func memberHandler(fullMethod string, method memberMethod) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(wrapperspb.StringValue)
		if err := dec(in); err != nil {
			return nil, err
		}

		server, _ := srv.(PresenceServiceServer)

		if interceptor == nil {
			return method(server, ctx, in)
		}

		info := &grpc.UnaryServerInfo{
			Server:     srv,
			FullMethod: fullMethod,
		}

		handler := func(ctx context.Context, req any) (any, error) {
			value, _ := req.(*wrapperspb.StringValue)

			return method(server, ctx, value)
		}

		return interceptor(ctx, in, info, handler)
	}
}

func getHomeStatusHandler(
	srv any,
	ctx context.Context,
	dec func(any) error,
	interceptor grpc.UnaryServerInterceptor,
) (any, error) {
	in := new(emptypb.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}

	server, _ := srv.(PresenceServiceServer)

	if interceptor == nil {
		return server.GetHomeStatus(ctx, in)
	}

	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: GetHomeStatusFullMethodName,
	}

	handler := func(ctx context.Context, req any) (any, error) {
		empty, _ := req.(*emptypb.Empty)

		return server.GetHomeStatus(ctx, empty)
	}

	return interceptor(ctx, in, info, handler)
}

// PresenceServiceClient is the client API for PresenceService.
type PresenceServiceClient interface {
	Arrive(ctx context.Context, in *wrapperspb.StringValue, opts ...grpc.CallOption) (*structpb.Struct, error)
	Depart(ctx context.Context, in *wrapperspb.StringValue, opts ...grpc.CallOption) (*structpb.Struct, error)
	LeftWorkplace(ctx context.Context, in *wrapperspb.StringValue, opts ...grpc.CallOption) (*structpb.Struct, error)
	GetHomeStatus(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*structpb.Struct, error)
}

type presenceServiceClient struct {
	cc grpc.ClientConnInterface
}

// NewPresenceServiceClient returns a client bound to cc.
//
//nolint:ireturn // Mirrors generated gRPC client constructors.
func NewPresenceServiceClient(cc grpc.ClientConnInterface) PresenceServiceClient {
	return &presenceServiceClient{cc: cc}
}

func (c *presenceServiceClient) Arrive(
	ctx context.Context,
	in *wrapperspb.StringValue,
	opts ...grpc.CallOption,
) (*structpb.Struct, error) {
	return c.invoke(ctx, ArriveFullMethodName, in, opts...)
}

func (c *presenceServiceClient) Depart(
	ctx context.Context,
	in *wrapperspb.StringValue,
	opts ...grpc.CallOption,
) (*structpb.Struct, error) {
	return c.invoke(ctx, DepartFullMethodName, in, opts...)
}

func (c *presenceServiceClient) LeftWorkplace(
	ctx context.Context,
	in *wrapperspb.StringValue,
	opts ...grpc.CallOption,
) (*structpb.Struct, error) {
	return c.invoke(ctx, LeftWorkplaceFullMethodName, in, opts...)
}

func (c *presenceServiceClient) GetHomeStatus(
	ctx context.Context,
	in *emptypb.Empty,
	opts ...grpc.CallOption,
) (*structpb.Struct, error) {
	return c.invoke(ctx, GetHomeStatusFullMethodName, in, opts...)
}

func (c *presenceServiceClient) invoke(
	ctx context.Context,
	method string,
	in any,
	opts ...grpc.CallOption,
) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, method, in, out, opts...); err != nil {
		return nil, err
	}

	return out, nil
}
