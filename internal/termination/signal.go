// Package termination implements the cooperative stop protocol between
// search workers: one worker announces a find, every other worker notices
// within a bounded number of its own iterations and stops.
package termination

// DefaultCheckInterval is how many candidates a distributed worker tests
// between polls of its stop receive. Raising it lowers polling overhead and
// raises the work wasted after a remote find.
const DefaultCheckInterval = 2500

// Signal is one worker's view of the run's termination state
type Signal interface {
	// Stopped reports whether a find has been announced elsewhere. It never
	// blocks.
	Stopped() bool

	// Claim announces a local match and reports whether this worker is the
	// authoritative finder
	Claim(worker int, candidate string) bool

	// PollInterval is the number of candidates tested between Stopped calls
	PollInterval() int
}

// Claim records who found what
type Claim struct {
	Worker    int
	Candidate string
}
