// Package realtime declares the realtime gRPC service.
// There is no message schema: every frame is a google.protobuf.Struct
// {event: string, payload: value}, so the descriptor is written by hand.
package realtime

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
)

const (
	ServiceName                            = "ephemeralchat.realtime.v1.RealtimeService"
	RealtimeService_Connect_FullMethodName = "/" + ServiceName + "/Connect"
	RealtimeService_Health_FullMethodName  = "/" + ServiceName + "/Health"
)

type RealtimeService_ConnectServer = grpc.BidiStreamingServer[structpb.Struct, structpb.Struct]

type RealtimeService_ConnectClient = grpc.BidiStreamingClient[structpb.Struct, structpb.Struct]

// RealtimeServiceServer is the server API for RealtimeService.
type RealtimeServiceServer interface {
	Connect(RealtimeService_ConnectServer) error
	Health(context.Context, *emptypb.Empty) (*structpb.Struct, error)
}

func RegisterRealtimeServiceServer(s grpc.ServiceRegistrar, srv RealtimeServiceServer) {
	s.RegisterService(&RealtimeService_ServiceDesc, srv)
}

func _RealtimeService_Connect_Handler(srv any, stream grpc.ServerStream) error {
	return srv.(RealtimeServiceServer).Connect(&grpc.GenericServerStream[structpb.Struct, structpb.Struct]{ServerStream: stream})
}

func _RealtimeService_Health_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(emptypb.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(RealtimeServiceServer).Health(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: RealtimeService_Health_FullMethodName,
	}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(RealtimeServiceServer).Health(ctx, req.(*emptypb.Empty))
	}
	return interceptor(ctx, in, info, handler)
}

var RealtimeService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*RealtimeServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "Health",
			Handler:    _RealtimeService_Health_Handler,
		},
	},
	Streams: []grpc.StreamDesc{
		{
			StreamName:    "Connect",
			Handler:       _RealtimeService_Connect_Handler,
			ServerStreams: true,
			ClientStreams: true,
		},
	},
	Metadata: "realtime/v1/realtime.proto",
}

// RealtimeServiceClient is the client API for RealtimeService.
type RealtimeServiceClient interface {
	Connect(ctx context.Context, opts ...grpc.CallOption) (RealtimeService_ConnectClient, error)
	Health(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*structpb.Struct, error)
}

type realtimeServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewRealtimeServiceClient(cc grpc.ClientConnInterface) RealtimeServiceClient {
	return &realtimeServiceClient{cc}
}

func (c *realtimeServiceClient) Connect(ctx context.Context, opts ...grpc.CallOption) (RealtimeService_ConnectClient, error) {
	stream, err := c.cc.NewStream(ctx, &RealtimeService_ServiceDesc.Streams[0], RealtimeService_Connect_FullMethodName, opts...)
	if err != nil {
		return nil, err
	}
	return &grpc.GenericClientStream[structpb.Struct, structpb.Struct]{ClientStream: stream}, nil
}

func (c *realtimeServiceClient) Health(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, RealtimeService_Health_FullMethodName, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
