package cluster

import (
	"context"
	"strconv"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// The peer service mirrors proto/brutepin/cluster/v1/peer.proto. Every
// method is unary and returns once the message sits in the receiver's
// mailbox.
const (
	peerServiceName = "brutepin.cluster.v1.Peer"

	methodStop      = "/" + peerServiceName + "/Stop"
	methodBroadcast = "/" + peerServiceName + "/Broadcast"
	methodGather    = "/" + peerServiceName + "/Gather"
	methodArrive    = "/" + peerServiceName + "/Arrive"
	methodRelease   = "/" + peerServiceName + "/Release"

	// rankHeader carries the sender's rank in request metadata
	rankHeader = "brutepin-rank"
)

type peerServer interface {
	Stop(context.Context, *wrapperspb.BoolValue) (*emptypb.Empty, error)
	Broadcast(context.Context, *wrapperspb.BytesValue) (*emptypb.Empty, error)
	Gather(context.Context, *wrapperspb.BytesValue) (*emptypb.Empty, error)
	Arrive(context.Context, *emptypb.Empty) (*emptypb.Empty, error)
	Release(context.Context, *emptypb.Empty) (*emptypb.Empty, error)
}

var peerServiceDesc = grpc.ServiceDesc{
	ServiceName: peerServiceName,
	HandlerType: (*peerServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "Stop",
			Handler: unaryHandler(methodStop, func() proto.Message { return new(wrapperspb.BoolValue) },
				func(s peerServer, ctx context.Context, in proto.Message) (*emptypb.Empty, error) {
					return s.Stop(ctx, in.(*wrapperspb.BoolValue))
				}),
		},
		{
			MethodName: "Broadcast",
			Handler: unaryHandler(methodBroadcast, func() proto.Message { return new(wrapperspb.BytesValue) },
				func(s peerServer, ctx context.Context, in proto.Message) (*emptypb.Empty, error) {
					return s.Broadcast(ctx, in.(*wrapperspb.BytesValue))
				}),
		},
		{
			MethodName: "Gather",
			Handler: unaryHandler(methodGather, func() proto.Message { return new(wrapperspb.BytesValue) },
				func(s peerServer, ctx context.Context, in proto.Message) (*emptypb.Empty, error) {
					return s.Gather(ctx, in.(*wrapperspb.BytesValue))
				}),
		},
		{
			MethodName: "Arrive",
			Handler: unaryHandler(methodArrive, func() proto.Message { return new(emptypb.Empty) },
				func(s peerServer, ctx context.Context, in proto.Message) (*emptypb.Empty, error) {
					return s.Arrive(ctx, in.(*emptypb.Empty))
				}),
		},
		{
			MethodName: "Release",
			Handler: unaryHandler(methodRelease, func() proto.Message { return new(emptypb.Empty) },
				func(s peerServer, ctx context.Context, in proto.Message) (*emptypb.Empty, error) {
					return s.Release(ctx, in.(*emptypb.Empty))
				}),
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "brutepin/cluster/v1/peer.proto",
}

func unaryHandler(
	fullMethod string,
	newRequest func() proto.Message,
	call func(peerServer, context.Context, proto.Message) (*emptypb.Empty, error),
) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := newRequest()
		if err := dec(in); err != nil {
			return nil, err
		}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(peerServer), ctx, req.(proto.Message))
		}
		if interceptor == nil {
			return handler(ctx, in)
		}
		info := &grpc.UnaryServerInfo{
			Server:     srv,
			FullMethod: fullMethod,
		}
		return interceptor(ctx, in, info, handler)
	}
}

// peerService delivers incoming messages into the local mailbox
type peerService struct {
	box  *mailbox
	size int
}

func (p *peerService) source(ctx context.Context) (int, error) {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok || len(md.Get(rankHeader)) == 0 {
		return 0, status.Error(codes.InvalidArgument, "missing sender rank")
	}
	rank, err := strconv.Atoi(md.Get(rankHeader)[0])
	if err != nil || rank < 0 || rank >= p.size {
		return 0, status.Errorf(codes.InvalidArgument, "invalid sender rank %q", md.Get(rankHeader)[0])
	}
	return rank, nil
}

func (p *peerService) Stop(ctx context.Context, in *wrapperspb.BoolValue) (*emptypb.Empty, error) {
	source, err := p.source(ctx)
	if err != nil {
		return nil, err
	}
	if in.GetValue() {
		p.box.deliverStop(source)
	}
	return &emptypb.Empty{}, nil
}

func (p *peerService) Broadcast(ctx context.Context, in *wrapperspb.BytesValue) (*emptypb.Empty, error) {
	if _, err := p.source(ctx); err != nil {
		return nil, err
	}
	select {
	case p.box.bcast <- in.GetValue():
		return &emptypb.Empty{}, nil
	default:
		return nil, status.Error(codes.FailedPrecondition, "broadcast already pending")
	}
}

func (p *peerService) Gather(ctx context.Context, in *wrapperspb.BytesValue) (*emptypb.Empty, error) {
	source, err := p.source(ctx)
	if err != nil {
		return nil, err
	}
	if err := deliver(ctx, p.box.gather, gathered{rank: source, payload: in.GetValue()}); err != nil {
		return nil, status.FromContextError(err).Err()
	}
	return &emptypb.Empty{}, nil
}

func (p *peerService) Arrive(ctx context.Context, _ *emptypb.Empty) (*emptypb.Empty, error) {
	source, err := p.source(ctx)
	if err != nil {
		return nil, err
	}
	if err := deliver(ctx, p.box.arrive, source); err != nil {
		return nil, status.FromContextError(err).Err()
	}
	return &emptypb.Empty{}, nil
}

func (p *peerService) Release(ctx context.Context, _ *emptypb.Empty) (*emptypb.Empty, error) {
	if _, err := p.source(ctx); err != nil {
		return nil, err
	}
	select {
	case p.box.release <- struct{}{}:
		return &emptypb.Empty{}, nil
	default:
		return nil, status.Error(codes.FailedPrecondition, "release already pending")
	}
}
