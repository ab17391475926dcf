package keyspace

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func drain(src Source) []uint64 {
	var out []uint64
	for {
		v, ok := src.Next()
		if !ok {
			return out
		}
		out = append(out, v)
	}
}

func requireExactCover(t *testing.T, counts []int) {
	t.Helper()
	for ordinal, n := range counts {
		require.Equal(t, 1, n, "ordinal %d visited %d times", ordinal, n)
	}
}

func TestCyclicCoverage(t *testing.T) {
	for _, length := range []int{1, 2, 3, 4} {
		size := Size(length)
		for _, workers := range []int{1, 2, 3, 7, 8, 16} {
			counts := make([]int, size)
			var total uint64
			for _, a := range Cyclic(workers, size) {
				visited := drain(a.Source())
				assert.Equal(t, a.Count(), uint64(len(visited)), "%s", a)
				total += a.Count()
				for _, v := range visited {
					require.Less(t, v, size)
					counts[v]++
				}
			}
			assert.Equal(t, size, total)
			requireExactCover(t, counts)
		}
	}
}

func TestCyclicMoreWorkersThanOrdinals(t *testing.T) {
	assignments := Cyclic(16, Size(1))

	require.Len(t, assignments, 16)
	for _, a := range assignments[10:] {
		assert.Zero(t, a.Count())
		assert.Empty(t, drain(a.Source()))
	}
}

func TestCyclicStride(t *testing.T) {
	a := Cyclic(4, 20)[1]

	assert.Equal(t, []uint64{1, 5, 9, 13, 17}, drain(a.Source()))
}

func TestQueueClaim(t *testing.T) {
	q := NewQueue(10, 4)

	lo, hi, ok := q.Claim()
	require.True(t, ok)
	assert.Equal(t, [2]uint64{0, 4}, [2]uint64{lo, hi})

	lo, hi, ok = q.Claim()
	require.True(t, ok)
	assert.Equal(t, [2]uint64{4, 8}, [2]uint64{lo, hi})

	lo, hi, ok = q.Claim()
	require.True(t, ok)
	assert.Equal(t, [2]uint64{8, 10}, [2]uint64{lo, hi})

	_, _, ok = q.Claim()
	assert.False(t, ok)
}

func TestQueueDefaultChunk(t *testing.T) {
	q := NewQueue(1000, 0)

	lo, hi, ok := q.Claim()
	require.True(t, ok)
	assert.Equal(t, uint64(0), lo)
	assert.Equal(t, uint64(DefaultChunkSize), hi)
}

func TestQueueConcurrentCoverage(t *testing.T) {
	for _, length := range []int{1, 2, 4} {
		for _, chunk := range []uint64{1, 3, 256} {
			size := Size(length)
			q := NewQueue(size, chunk)
			results := make([][]uint64, 8)

			var wg sync.WaitGroup
			for w := range results {
				wg.Add(1)
				go func(w int) {
					defer wg.Done()
					results[w] = drain(q.Cursor())
				}(w)
			}
			wg.Wait()

			counts := make([]int, size)
			for _, visited := range results {
				for _, v := range visited {
					require.Less(t, v, size)
					counts[v]++
				}
			}
			requireExactCover(t, counts)
		}
	}
}
