package termination

import (
	"fmt"

	"brutepin/internal/cluster"
	"brutepin/internal/logging"
)

// Broadcast is the distributed termination state of one rank. It owns the
// rank's single pending stop receive; the finder notifies every peer.
type Broadcast struct {
	comm     cluster.Comm
	req      *cluster.Request
	interval int
	logger   *logging.Logger

	claimed bool
	remote  bool
}

// NewBroadcast posts the rank's stop receive. It must be created before the
// rank starts scanning. A non-positive interval selects
// DefaultCheckInterval.
func NewBroadcast(comm cluster.Comm, interval int, logger *logging.Logger) (*Broadcast, error) {
	if interval <= 0 {
		interval = DefaultCheckInterval
	}
	if logger == nil {
		logger = logging.Nop()
	}
	req, err := comm.PostStop()
	if err != nil {
		return nil, fmt.Errorf("post stop receive: %w", err)
	}
	return &Broadcast{
		comm:     comm,
		req:      req,
		interval: interval,
		logger:   logger,
	}, nil
}

// Stopped implements Signal with a non-blocking test of the pending receive
func (b *Broadcast) Stopped() bool {
	if !b.remote && b.req.Test() {
		b.remote = true
		b.logger.Debug("stop notification from rank %d", b.req.Source())
	}
	return b.remote
}

// Claim implements Signal. The first local claim notifies every peer and
// wins unless a remote notification was already received.
func (b *Broadcast) Claim(worker int, candidate string) bool {
	if b.claimed || b.Stopped() {
		return false
	}
	b.claimed = true
	for peer := 0; peer < b.comm.Size(); peer++ {
		if peer != b.comm.Rank() {
			b.comm.SendStop(peer)
		}
	}
	return true
}

// PollInterval implements Signal
func (b *Broadcast) PollInterval() int {
	return b.interval
}

// Release withdraws the stop receive if no notification consumed it. A
// failed cancellation is logged; it cannot change the outcome.
func (b *Broadcast) Release() {
	if b.req.Test() {
		return
	}
	if err := b.req.Cancel(); err != nil {
		b.logger.Warn("cancel stop receive: %v", err)
	}
}

// Request exposes the pending receive. Only tests inspect it.
func (b *Broadcast) Request() *cluster.Request {
	return b.req
}
