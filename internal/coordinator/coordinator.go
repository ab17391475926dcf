// Package coordinator validates a search configuration, computes the target
// fingerprint, runs the workers on one of the two backends and reduces their
// results to a single Report.
package coordinator

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"brutepin/internal/logging"
	"brutepin/internal/search"
	"brutepin/pkg/hashing/core"
	"brutepin/pkg/hashing/factory"
)

// Coordinator runs searches for a validated Config
type Coordinator struct {
	config   Config
	method   core.HashMethod
	logger   *logging.Logger
	progress func(delta uint64)

	mu        sync.Mutex
	plaintext string
	target    core.Fingerprint
}

// New validates config and resolves its digest. Every failure is a
// *ConfigError.
func New(config Config, logger *logging.Logger) (*Coordinator, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = logging.Nop()
	}

	method, err := factory.NewHashMethodFactory(nil).GetMethod(config.Digest)
	if err != nil {
		var hashErr *core.HashError
		if errors.As(err, &hashErr) {
			return nil, &ConfigError{Field: "digest", Value: config.Digest, Reason: hashErr.Message}
		}
		return nil, err
	}
	config.Digest = method.Name()

	return &Coordinator{config: config, method: method, logger: logger}, nil
}

// Config returns the validated configuration with defaults applied
func (c *Coordinator) Config() Config {
	return c.config
}

// Method returns the hash method used for every candidate
func (c *Coordinator) Method() core.HashMethod {
	return c.method
}

// Target returns the fingerprint of plaintext. It is computed on the first
// call and reused by later calls and by the runs.
func (c *Coordinator) Target(plaintext string) core.Fingerprint {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.target == "" || c.plaintext != plaintext {
		c.plaintext = plaintext
		c.target = core.ComputeFingerprint(c.method, []byte(plaintext))
	}
	return c.target
}

// OnProgress registers fn to receive counts of tested candidates. fn is
// called concurrently by every local worker.
func (c *Coordinator) OnProgress(fn func(delta uint64)) {
	c.progress = fn
}

// Report is the outcome of a run
type Report struct {
	// Outcome is Matched, Exhausted, or Cancelled when the run was
	// interrupted before every share was scanned
	Outcome search.State

	Candidate string

	// Worker is the winning worker (or rank), -1 without a match
	Worker int

	Elapsed time.Duration
	Tested  uint64

	// Interrupted is set when the run's context was cancelled before the
	// search finished. A worker stopped by a peer's find is not interrupted.
	Interrupted bool

	// Workers holds every worker's terminal state, indexed by worker id
	Workers []search.Result
}

// Found reports whether a candidate matched
func (r *Report) Found() bool {
	return r.Outcome == search.Matched
}

// Line renders the result line printed on stdout
func (r *Report) Line() string {
	if r.Found() {
		return fmt.Sprintf("FOUND %s %.4f", r.Candidate, r.Elapsed.Seconds())
	}
	return fmt.Sprintf("NOT FOUND %.4f", r.Elapsed.Seconds())
}

// reduce folds worker results into a report. The lowest-numbered matching
// worker is authoritative.
func reduce(results []search.Result, interrupted bool) *Report {
	r := &Report{Outcome: search.Exhausted, Worker: -1, Workers: results, Interrupted: interrupted}
	for _, res := range results {
		r.Tested += res.Tested
		if res.State == search.Matched && r.Worker < 0 {
			r.Outcome = search.Matched
			r.Candidate = res.Candidate
			r.Worker = res.Worker
		}
	}
	if r.Outcome != search.Matched && interrupted {
		r.Outcome = search.Cancelled
	}
	return r
}

func (c *Coordinator) logOutcome(r *Report) {
	switch r.Outcome {
	case search.Matched:
		c.logger.Info("found %s on worker %d in %s, tested=%d", r.Candidate, r.Worker, r.Elapsed, r.Tested)
	case search.Cancelled:
		c.logger.Warn("search cancelled after %s, tested=%d", r.Elapsed, r.Tested)
	default:
		c.logger.Info("keyspace exhausted in %s without a match, tested=%d", r.Elapsed, r.Tested)
	}
}
