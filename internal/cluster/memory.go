package cluster

import (
	"context"
	"fmt"

	"brutepin/internal/logging"
)

// Hub connects ranks that live in one process. Messages are copied into the
// receiving rank's mailbox; ranks never share buffers.
type Hub struct {
	boxes []*mailbox
}

// NewHub creates a hub for size ranks
func NewHub(size int) *Hub {
	h := &Hub{boxes: make([]*mailbox, size)}
	for i := range h.boxes {
		h.boxes[i] = newMailbox(size)
	}
	return h
}

// Size returns the number of ranks
func (h *Hub) Size() int {
	return len(h.boxes)
}

// Comm returns the endpoint for rank
func (h *Hub) Comm(rank int, logger *logging.Logger) (Comm, error) {
	if rank < 0 || rank >= len(h.boxes) {
		return nil, fmt.Errorf("cluster: rank %d outside hub of %d", rank, len(h.boxes))
	}
	if logger == nil {
		logger = logging.Nop()
	}
	return &comm{
		rank:   rank,
		size:   len(h.boxes),
		box:    h.boxes[rank],
		out:    &memorySender{hub: h, rank: rank},
		logger: logger,
	}, nil
}

type memorySender struct {
	hub  *Hub
	rank int
}

func (s *memorySender) stop(peer int) error {
	s.hub.boxes[peer].deliverStop(s.rank)
	return nil
}

func (s *memorySender) broadcast(ctx context.Context, peer int, payload []byte) error {
	return deliver(ctx, s.hub.boxes[peer].bcast, clone(payload))
}

func (s *memorySender) gather(ctx context.Context, root int, payload []byte) error {
	return deliver(ctx, s.hub.boxes[root].gather, gathered{rank: s.rank, payload: clone(payload)})
}

func (s *memorySender) arrive(ctx context.Context, root int) error {
	return deliver(ctx, s.hub.boxes[root].arrive, s.rank)
}

func (s *memorySender) release(ctx context.Context, peer int) error {
	return deliver(ctx, s.hub.boxes[peer].release, struct{}{})
}

func (s *memorySender) flush(context.Context) {}

func (s *memorySender) close() error { return nil }

func clone(b []byte) []byte {
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
