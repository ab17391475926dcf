package keyspace

import (
	"fmt"
	"sync/atomic"
)

// DefaultChunkSize is the number of ordinals a Queue hands out per claim
const DefaultChunkSize = 256

// Source yields the ordinals one worker should test
type Source interface {
	// Next returns the next ordinal, or false when the share is exhausted
	Next() (uint64, bool)
}

// Assignment is the fixed share of one worker under cyclic striding
type Assignment struct {
	Worker int
	Start  uint64
	Stride uint64
	End    uint64 // exclusive
}

// Count returns how many ordinals the assignment covers
func (a Assignment) Count() uint64 {
	if a.Start >= a.End {
		return 0
	}
	return (a.End-a.Start-1)/a.Stride + 1
}

// Source returns a fresh iterator over the assignment
func (a Assignment) Source() *Stride {
	return &Stride{next: a.Start, stride: a.Stride, end: a.End}
}

func (a Assignment) String() string {
	return fmt.Sprintf("worker %d: [%d, %d) step %d", a.Worker, a.Start, a.End, a.Stride)
}

// Cyclic computes the striding assignments of workers over [0, size)
func Cyclic(workers int, size uint64) []Assignment {
	assignments := make([]Assignment, workers)
	for r := range assignments {
		assignments[r] = Assignment{
			Worker: r,
			Start:  uint64(r),
			Stride: uint64(workers),
			End:    size,
		}
	}
	return assignments
}

// Stride iterates start, start+stride, ... below end
type Stride struct {
	next   uint64
	stride uint64
	end    uint64
}

// Next implements Source
func (s *Stride) Next() (uint64, bool) {
	if s.next >= s.end {
		return 0, false
	}
	v := s.next
	s.next += s.stride
	return v, true
}

// Queue hands out contiguous chunks of [0, size) on demand. Claim is safe for
// concurrent use; every ordinal is returned by exactly one claim.
type Queue struct {
	next  atomic.Uint64
	size  uint64
	chunk uint64
}

// NewQueue creates a queue over [0, size). A zero chunk selects
// DefaultChunkSize.
func NewQueue(size, chunk uint64) *Queue {
	if chunk == 0 {
		chunk = DefaultChunkSize
	}
	return &Queue{size: size, chunk: chunk}
}

// Claim reserves the next chunk [lo, hi). ok is false once the range is
// exhausted.
func (q *Queue) Claim() (lo, hi uint64, ok bool) {
	lo = q.next.Add(q.chunk) - q.chunk
	if lo >= q.size {
		return 0, 0, false
	}
	hi = lo + q.chunk
	if hi > q.size {
		hi = q.size
	}
	return lo, hi, true
}

// Cursor returns a per-worker Source that claims chunks as it goes
func (q *Queue) Cursor() *Cursor {
	return &Cursor{queue: q}
}

// Cursor walks the chunks one worker claimed from a Queue. A Cursor is owned
// by a single goroutine.
type Cursor struct {
	queue *Queue
	pos   uint64
	hi    uint64
}

// Next implements Source
func (c *Cursor) Next() (uint64, bool) {
	if c.pos >= c.hi {
		lo, hi, ok := c.queue.Claim()
		if !ok {
			return 0, false
		}
		c.pos, c.hi = lo, hi
	}
	v := c.pos
	c.pos++
	return v, true
}
