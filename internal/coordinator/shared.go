package coordinator

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"brutepin/internal/keyspace"
	"brutepin/internal/search"
	"brutepin/internal/termination"
	"brutepin/pkg/hashing/core"
)

// RunShared searches with Workers goroutines pulling chunks from one queue
// and terminating through a shared flag
func (c *Coordinator) RunShared(ctx context.Context, plaintext string) (*Report, error) {
	start := time.Now()
	target := c.Target(plaintext)

	size := keyspace.Size(c.config.PinLength)
	queue := keyspace.NewQueue(size, c.config.ChunkSize)
	flag := termination.NewFlag()

	c.logger.Info("shared search: %d candidates, %d workers, chunk %d, digest %s",
		size, c.config.Workers, c.config.ChunkSize, c.method.Name())

	results := make([]search.Result, c.config.Workers)
	var g errgroup.Group
	for id := 0; id < c.config.Workers; id++ {
		matcher, err := core.NewMatcher(c.method, target)
		if err != nil {
			return nil, fmt.Errorf("worker %d: %w", id, err)
		}
		w := &search.Worker{
			ID:       id,
			Length:   c.config.PinLength,
			Source:   queue.Cursor(),
			Matcher:  matcher,
			Signal:   flag,
			Progress: c.progress,
		}
		g.Go(func() error {
			results[w.ID] = w.Run(ctx)
			c.logger.Debug("worker %d %s after %d candidates", w.ID, results[w.ID].State, results[w.ID].Tested)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	report := reduce(results, ctx.Err() != nil)
	if winner, ok := flag.Winner(); ok {
		report.Outcome = search.Matched
		report.Candidate = winner.Candidate
		report.Worker = winner.Worker
	}
	report.Elapsed = time.Since(start)
	c.logOutcome(report)
	return report, nil
}
