package cluster

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"sync"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/reflection"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"brutepin/internal/logging"
)

const (
	// DefaultStopTimeout bounds one fire-and-forget stop notification
	DefaultStopTimeout = 5 * time.Second

	// shutdownGrace bounds the graceful server stop in Close
	shutdownGrace = 2 * time.Second
)

// GRPCConfig describes one rank of a group whose ranks talk over gRPC
type GRPCConfig struct {
	// Rank of this process
	Rank int

	// Peers holds the listen address of every rank, indexed by rank
	Peers []string

	// Listener, when set, is served instead of listening on Peers[Rank]
	Listener net.Listener

	// StopTimeout bounds each stop notification; zero selects
	// DefaultStopTimeout
	StopTimeout time.Duration

	Logger        *logging.Logger
	DialOptions   []grpc.DialOption
	ServerOptions []grpc.ServerOption
}

// NewGRPCComm starts this rank's peer server and prepares client
// connections to every other rank. Connections are established lazily;
// calls wait for a peer to come up.
func NewGRPCComm(config GRPCConfig) (Comm, error) {
	size := len(config.Peers)
	if size == 0 {
		return nil, errors.New("cluster: empty peer list")
	}
	if config.Rank < 0 || config.Rank >= size {
		return nil, fmt.Errorf("cluster: rank %d outside group of %d", config.Rank, size)
	}
	logger := config.Logger
	if logger == nil {
		logger = logging.Nop()
	}
	stopTimeout := config.StopTimeout
	if stopTimeout <= 0 {
		stopTimeout = DefaultStopTimeout
	}

	lis := config.Listener
	if lis == nil {
		var err error
		lis, err = net.Listen("tcp", config.Peers[config.Rank])
		if err != nil {
			return nil, fmt.Errorf("listen on %s: %w", config.Peers[config.Rank], err)
		}
	}

	dialOptions := append([]grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	}, config.DialOptions...)

	conns := make([]*grpc.ClientConn, size)
	for peer, addr := range config.Peers {
		if peer == config.Rank {
			continue
		}
		conn, err := grpc.NewClient(addr, dialOptions...)
		if err != nil {
			closeConns(conns)
			lis.Close()
			return nil, fmt.Errorf("client for rank %d at %s: %w", peer, addr, err)
		}
		conns[peer] = conn
	}

	box := newMailbox(size)
	server := grpc.NewServer(config.ServerOptions...)
	server.RegisterService(&peerServiceDesc, &peerService{box: box, size: size})
	// Lists the peer service for grpcurl and friends
	reflection.Register(server)

	s := &grpcSender{
		rank:        config.Rank,
		conns:       conns,
		server:      server,
		stopTimeout: stopTimeout,
		logger:      logger,
		served:      make(chan struct{}),
	}
	go func() {
		defer close(s.served)
		if err := server.Serve(lis); err != nil {
			logger.Error("peer server on %s stopped: %v", lis.Addr(), err)
		}
	}()
	logger.Debug("rank %d serving peer service on %s", config.Rank, lis.Addr())

	return &comm{
		rank:   config.Rank,
		size:   size,
		box:    box,
		out:    s,
		logger: logger,
	}, nil
}

type grpcSender struct {
	rank        int
	conns       []*grpc.ClientConn
	server      *grpc.Server
	stopTimeout time.Duration
	logger      *logging.Logger

	inflight sync.WaitGroup
	served   chan struct{}
}

func (s *grpcSender) invoke(ctx context.Context, peer int, method string, in proto.Message) error {
	ctx = metadata.AppendToOutgoingContext(ctx, rankHeader, strconv.Itoa(s.rank))
	return s.conns[peer].Invoke(ctx, method, in, new(emptypb.Empty), grpc.WaitForReady(true))
}

func (s *grpcSender) stop(peer int) error {
	s.inflight.Add(1)
	go func() {
		defer s.inflight.Done()
		ctx, cancel := context.WithTimeout(context.Background(), s.stopTimeout)
		defer cancel()
		if err := s.invoke(ctx, peer, methodStop, wrapperspb.Bool(true)); err != nil {
			s.logger.Warn("stop notification to rank %d not delivered: %v", peer, err)
		}
	}()
	return nil
}

func (s *grpcSender) broadcast(ctx context.Context, peer int, payload []byte) error {
	return s.invoke(ctx, peer, methodBroadcast, wrapperspb.Bytes(payload))
}

func (s *grpcSender) gather(ctx context.Context, root int, payload []byte) error {
	return s.invoke(ctx, root, methodGather, wrapperspb.Bytes(payload))
}

func (s *grpcSender) arrive(ctx context.Context, root int) error {
	return s.invoke(ctx, root, methodArrive, &emptypb.Empty{})
}

func (s *grpcSender) release(ctx context.Context, peer int) error {
	return s.invoke(ctx, peer, methodRelease, &emptypb.Empty{})
}

func (s *grpcSender) flush(ctx context.Context) {
	done := make(chan struct{})
	go func() {
		s.inflight.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
	}
}

func (s *grpcSender) close() error {
	ctx, cancel := context.WithTimeout(context.Background(), s.stopTimeout)
	s.flush(ctx)
	cancel()

	err := closeConns(s.conns)

	stopped := make(chan struct{})
	go func() {
		s.server.GracefulStop()
		close(stopped)
	}()
	select {
	case <-stopped:
	case <-time.After(shutdownGrace):
		s.server.Stop()
	}
	<-s.served
	return err
}

func closeConns(conns []*grpc.ClientConn) error {
	var errs []error
	for peer, conn := range conns {
		if conn == nil {
			continue
		}
		if err := conn.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close connection to rank %d: %w", peer, err))
		}
	}
	return errors.Join(errs...)
}
