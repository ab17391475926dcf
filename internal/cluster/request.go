package cluster

import (
	"errors"
	"sync"
)

// RequestState is the lifecycle of a posted receive
type RequestState int

const (
	RequestPending RequestState = iota
	RequestCompleted
	RequestCancelled
)

func (s RequestState) String() string {
	switch s {
	case RequestPending:
		return "pending"
	case RequestCompleted:
		return "completed"
	case RequestCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

var (
	// ErrRequestCompleted is returned when cancelling a receive that
	// already consumed its notification
	ErrRequestCompleted = errors.New("cluster: request already completed")

	// ErrRequestCancelled is returned when cancelling a receive twice
	ErrRequestCancelled = errors.New("cluster: request already cancelled")
)

// Request is a posted non-blocking receive for one stop notification
type Request struct {
	mu     sync.Mutex
	state  RequestState
	source int
	inbox  <-chan int
}

func newRequest(inbox <-chan int) *Request {
	return &Request{inbox: inbox, source: -1}
}

// Test reports whether the notification has arrived. It never blocks. Once
// Test returns true the request is completed and stays completed.
func (r *Request) Test() bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state != RequestPending {
		return r.state == RequestCompleted
	}
	select {
	case source := <-r.inbox:
		r.state = RequestCompleted
		r.source = source
		return true
	default:
		return false
	}
}

// Cancel withdraws a pending receive. Notifications that arrive afterwards
// stay unconsumed in the mailbox and are discarded with it.
func (r *Request) Cancel() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	switch r.state {
	case RequestCompleted:
		return ErrRequestCompleted
	case RequestCancelled:
		return ErrRequestCancelled
	}
	r.state = RequestCancelled
	return nil
}

// State returns the current lifecycle state
func (r *Request) State() RequestState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Source returns the rank whose notification completed the request, or -1
func (r *Request) Source() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.source
}
