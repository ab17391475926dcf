package coordinator

import (
	"context"
	"fmt"
	"time"

	"github.com/fxamacker/cbor/v2"
	"golang.org/x/sync/errgroup"

	"brutepin/internal/cluster"
	"brutepin/internal/keyspace"
	"brutepin/internal/search"
	"brutepin/internal/termination"
	"brutepin/pkg/hashing/core"
)

// rootRank computes the target and collects the outcome
const rootRank = 0

// rankOutcome is what each rank gathers to the root once its scan is over
type rankOutcome struct {
	State     search.State `cbor:"1,keyasint"`
	Candidate string       `cbor:"2,keyasint,omitempty"`
	Tested    uint64       `cbor:"3,keyasint"`
}

// RunDistributed runs this rank's share of a distributed search over comm.
// Only the root uses plaintext: it computes the target fingerprint and
// broadcasts it. Workers is ignored; the group size is comm.Size().
//
// On the root the report covers every rank. On other ranks it describes the
// local worker only.
func (c *Coordinator) RunDistributed(ctx context.Context, comm cluster.Comm, plaintext string) (*Report, error) {
	start := time.Now()
	rank, size := comm.Rank(), comm.Size()
	logger := c.logger.With("rank", rank)

	var payload []byte
	if rank == rootRank {
		payload = []byte(c.Target(plaintext))
	}
	got, err := comm.Broadcast(ctx, rootRank, payload)
	if err != nil {
		return nil, fmt.Errorf("distribute target: %w", err)
	}
	target, err := core.ParseFingerprint(c.method, string(got))
	if err != nil {
		return nil, fmt.Errorf("received target: %w", err)
	}
	matcher, err := core.NewMatcher(c.method, target)
	if err != nil {
		return nil, err
	}

	signal, err := termination.NewBroadcast(comm, c.config.CheckInterval, logger)
	if err != nil {
		return nil, err
	}
	assignment := keyspace.Cyclic(size, keyspace.Size(c.config.PinLength))[rank]
	logger.Debug("scanning %s", assignment)

	w := &search.Worker{
		ID:       rank,
		Length:   c.config.PinLength,
		Source:   assignment.Source(),
		Matcher:  matcher,
		Signal:   signal,
		Progress: c.progress,
	}
	local := w.Run(ctx)
	signal.Release()
	logger.Debug("%s after %d candidates", local.State, local.Tested)

	// The closing collectives run even when ctx was cancelled so every rank
	// still reaches the barrier.
	collectCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.config.CollectTimeout)
	defer cancel()

	encoded, err := cbor.Marshal(rankOutcome{State: local.State, Candidate: local.Candidate, Tested: local.Tested})
	if err != nil {
		return nil, fmt.Errorf("encode outcome: %w", err)
	}
	all, err := comm.Gather(collectCtx, rootRank, encoded)
	if err != nil {
		return nil, err
	}
	if err := comm.Barrier(collectCtx); err != nil {
		return nil, err
	}

	if rank != rootRank {
		// Only the root knows the run's outcome; a loser reports its own
		// terminal state, which is Cancelled after a peer's find.
		report := reduce([]search.Result{local}, ctx.Err() != nil)
		report.Outcome = local.State
		report.Elapsed = time.Since(start)
		return report, nil
	}

	results := make([]search.Result, size)
	for r, raw := range all {
		var out rankOutcome
		if err := cbor.Unmarshal(raw, &out); err != nil {
			return nil, fmt.Errorf("decode outcome of rank %d: %w", r, err)
		}
		results[r] = search.Result{Worker: r, State: out.State, Candidate: out.Candidate, Tested: out.Tested}
	}
	report := reduce(results, ctx.Err() != nil)
	report.Elapsed = time.Since(start)
	c.logOutcome(report)
	return report, nil
}

// RunSimulated runs a distributed search with Workers ranks in this process,
// connected by the in-memory transport. It returns the root's report.
func (c *Coordinator) RunSimulated(ctx context.Context, plaintext string) (*Report, error) {
	hub := cluster.NewHub(c.config.Workers)
	c.logger.Info("distributed search: %d candidates, %d ranks, check interval %d, digest %s",
		keyspace.Size(c.config.PinLength), hub.Size(), c.config.CheckInterval, c.method.Name())

	reports := make([]*Report, hub.Size())
	g, gctx := errgroup.WithContext(ctx)
	for rank := 0; rank < hub.Size(); rank++ {
		comm, err := hub.Comm(rank, c.logger.With("rank", rank))
		if err != nil {
			return nil, err
		}
		g.Go(func() error {
			defer comm.Close()
			report, err := c.RunDistributed(gctx, comm, plaintext)
			if err != nil {
				return fmt.Errorf("rank %d: %w", rank, err)
			}
			reports[rank] = report
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return reports[rootRank], nil
}
