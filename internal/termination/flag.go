package termination

import (
	"sync"
	"sync/atomic"
)

// Flag is the shared-memory termination state. It moves from running to
// found exactly once; reads are lock-free.
type Flag struct {
	mu     sync.Mutex
	found  atomic.Bool
	winner Claim
}

// NewFlag creates a flag in the running state
func NewFlag() *Flag {
	return &Flag{}
}

// TryClaim moves the flag to found and returns true for the first caller
// only. Every later call, including a repeat from the winner, returns false.
func (f *Flag) TryClaim(worker int, candidate string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.found.Load() {
		return false
	}
	f.winner = Claim{Worker: worker, Candidate: candidate}
	f.found.Store(true)
	return true
}

// IsFound reports whether any worker has claimed a find
func (f *Flag) IsFound() bool {
	return f.found.Load()
}

// Winner returns the successful claim, if any
func (f *Flag) Winner() (Claim, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.winner, f.found.Load()
}

// Stopped implements Signal
func (f *Flag) Stopped() bool {
	return f.IsFound()
}

// Claim implements Signal
func (f *Flag) Claim(worker int, candidate string) bool {
	return f.TryClaim(worker, candidate)
}

// PollInterval implements Signal. Shared-memory workers check every
// iteration.
func (f *Flag) PollInterval() int {
	return 1
}
