package cluster

import (
	"context"
	"errors"
	"fmt"

	"brutepin/internal/logging"
)

var (
	// ErrStopPending is returned by PostStop while a previous receive is
	// still outstanding
	ErrStopPending = errors.New("cluster: stop receive already posted")

	// ErrClosed is returned by operations on a closed Comm
	ErrClosed = errors.New("cluster: comm closed")
)

// Comm is one rank's endpoint in a message-passing group. A Comm is driven by
// a single goroutine.
type Comm interface {
	// Rank returns this endpoint's rank in [0, Size)
	Rank() int

	// Size returns the number of ranks in the group
	Size() int

	// Broadcast delivers payload from root to every rank. Root returns its
	// own payload; other ranks block until root's payload arrives and
	// ignore their argument.
	Broadcast(ctx context.Context, root int, payload []byte) ([]byte, error)

	// PostStop posts this rank's receive for a stop notification from any
	// peer. Only one receive may be outstanding at a time.
	PostStop() (*Request, error)

	// SendStop notifies peer to stop. Delivery is not awaited.
	SendStop(peer int)

	// Gather collects payload from every rank at root. Root receives the
	// payloads indexed by rank; other ranks receive nil.
	Gather(ctx context.Context, root int, payload []byte) ([][]byte, error)

	// Barrier blocks until every rank has called Barrier
	Barrier(ctx context.Context) error

	// Close releases the endpoint
	Close() error
}

type gathered struct {
	rank    int
	payload []byte
}

// mailbox is the receive side of one rank. Transports deliver into it; the
// owning rank consumes from it.
type mailbox struct {
	stop    chan int
	bcast   chan []byte
	gather  chan gathered
	arrive  chan int
	release chan struct{}
}

func newMailbox(size int) *mailbox {
	return &mailbox{
		// Every peer may notify at most once per run, so sends never block.
		stop:    make(chan int, size),
		bcast:   make(chan []byte, 1),
		gather:  make(chan gathered, size),
		arrive:  make(chan int, size),
		release: make(chan struct{}, 1),
	}
}

// deliverStop enqueues a stop notification from source. Notifications beyond
// the mailbox capacity are duplicates and dropped.
func (m *mailbox) deliverStop(source int) bool {
	select {
	case m.stop <- source:
		return true
	default:
		return false
	}
}

func deliver[T any](ctx context.Context, ch chan T, v T) error {
	select {
	case ch <- v:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func receive[T any](ctx context.Context, ch chan T) (T, error) {
	select {
	case v := <-ch:
		return v, nil
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// sender moves messages from one rank into a peer's mailbox
type sender interface {
	stop(peer int) error
	broadcast(ctx context.Context, peer int, payload []byte) error
	gather(ctx context.Context, root int, payload []byte) error
	arrive(ctx context.Context, root int) error
	release(ctx context.Context, peer int) error
	// flush waits for outstanding fire-and-forget sends
	flush(ctx context.Context)
	close() error
}

// comm implements Comm over a local mailbox and a transport-specific sender
type comm struct {
	rank   int
	size   int
	box    *mailbox
	out    sender
	logger *logging.Logger

	pending *Request
	closed  bool
}

func (c *comm) Rank() int { return c.rank }
func (c *comm) Size() int { return c.size }

func (c *comm) checkRank(rank int) error {
	if rank < 0 || rank >= c.size {
		return fmt.Errorf("cluster: rank %d outside group of %d", rank, c.size)
	}
	return nil
}

func (c *comm) Broadcast(ctx context.Context, root int, payload []byte) ([]byte, error) {
	if err := c.checkRank(root); err != nil {
		return nil, err
	}
	if c.rank != root {
		return receive(ctx, c.box.bcast)
	}
	for peer := 0; peer < c.size; peer++ {
		if peer == root {
			continue
		}
		if err := c.out.broadcast(ctx, peer, payload); err != nil {
			return nil, fmt.Errorf("broadcast to rank %d: %w", peer, err)
		}
	}
	return payload, nil
}

func (c *comm) PostStop() (*Request, error) {
	if c.closed {
		return nil, ErrClosed
	}
	if c.pending != nil && c.pending.State() == RequestPending {
		return nil, ErrStopPending
	}
	c.pending = newRequest(c.box.stop)
	return c.pending, nil
}

func (c *comm) SendStop(peer int) {
	if peer == c.rank || c.checkRank(peer) != nil {
		return
	}
	if err := c.out.stop(peer); err != nil {
		c.logger.Warn("stop notification to rank %d failed: %v", peer, err)
	}
}

func (c *comm) Gather(ctx context.Context, root int, payload []byte) ([][]byte, error) {
	if err := c.checkRank(root); err != nil {
		return nil, err
	}
	if c.rank != root {
		if err := c.out.gather(ctx, root, payload); err != nil {
			return nil, fmt.Errorf("gather to rank %d: %w", root, err)
		}
		return nil, nil
	}

	all := make([][]byte, c.size)
	all[root] = payload
	for i := 1; i < c.size; i++ {
		g, err := receive(ctx, c.box.gather)
		if err != nil {
			return nil, fmt.Errorf("gather: %d of %d ranks reported: %w", i, c.size, err)
		}
		all[g.rank] = g.payload
	}
	return all, nil
}

// Barrier is centralised at rank 0: every other rank reports its arrival
// there and waits for the release. Outstanding stop notifications are
// flushed first so no rank leaves while a peer is still being notified.
func (c *comm) Barrier(ctx context.Context) error {
	c.out.flush(ctx)

	const root = 0
	if c.rank != root {
		if err := c.out.arrive(ctx, root); err != nil {
			return fmt.Errorf("barrier arrive: %w", err)
		}
		if _, err := receive(ctx, c.box.release); err != nil {
			return fmt.Errorf("barrier release: %w", err)
		}
		return nil
	}

	for i := 1; i < c.size; i++ {
		if _, err := receive(ctx, c.box.arrive); err != nil {
			return fmt.Errorf("barrier: %d of %d ranks arrived: %w", i, c.size, err)
		}
	}
	for peer := 1; peer < c.size; peer++ {
		if err := c.out.release(ctx, peer); err != nil {
			return fmt.Errorf("barrier release rank %d: %w", peer, err)
		}
	}
	return nil
}

func (c *comm) Close() error {
	if c.closed {
		return nil
	}
	c.closed = true
	return c.out.close()
}
