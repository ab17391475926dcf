// Package search runs one worker's share of the keyspace: enumerate, digest,
// compare, and poll the termination signal between candidates.
package search

import (
	"context"

	"brutepin/internal/keyspace"
	"brutepin/internal/termination"
	"brutepin/pkg/hashing/core"
)

// progressEvery is how many candidates a worker tests between progress
// reports
const progressEvery = 4096

// State is the lifecycle of a worker
type State int

const (
	Idle State = iota
	Scanning
	Matched
	Exhausted
	Cancelled
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Scanning:
		return "scanning"
	case Matched:
		return "matched"
	case Exhausted:
		return "exhausted"
	case Cancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Worker scans one share of the keyspace
type Worker struct {
	ID      int
	Length  int
	Source  keyspace.Source
	Matcher *core.Matcher
	Signal  termination.Signal

	// Progress, when set, receives the number of candidates tested since
	// the previous call. It may be called from several workers at once.
	Progress func(delta uint64)
}

// Result is the terminal state of a worker
type Result struct {
	Worker    int
	State     State
	Candidate string
	Tested    uint64
}

// Run scans until the share is exhausted, a match is claimed, or the signal
// or ctx reports a stop. Stop checks happen every Signal.PollInterval()
// candidates; a candidate already being hashed is always finished first.
func (w *Worker) Run(ctx context.Context) Result {
	interval := uint64(w.Signal.PollInterval())
	if interval == 0 {
		interval = 1
	}
	done := ctx.Done()
	buf := make([]byte, 0, keyspace.MaxLength)

	var tested, reported uint64
	finish := func(state State, candidate string) Result {
		w.report(tested - reported)
		return Result{Worker: w.ID, State: state, Candidate: candidate, Tested: tested}
	}

	for {
		if tested%interval == 0 {
			if w.Signal.Stopped() {
				return finish(Cancelled, "")
			}
			select {
			case <-done:
				return finish(Cancelled, "")
			default:
			}
		}

		ordinal, ok := w.Source.Next()
		if !ok {
			return finish(Exhausted, "")
		}
		buf = keyspace.Append(buf[:0], ordinal, w.Length)
		tested++

		if w.Matcher.Match(buf) {
			candidate := string(buf)
			if w.Signal.Claim(w.ID, candidate) {
				return finish(Matched, candidate)
			}
			// Someone else already owns the find.
			return finish(Cancelled, "")
		}

		if tested-reported >= progressEvery {
			w.report(tested - reported)
			reported = tested
		}
	}
}

func (w *Worker) report(delta uint64) {
	if w.Progress != nil && delta > 0 {
		w.Progress(delta)
	}
}
