// Package keyspace enumerates fixed-length numeric PIN candidates and
// partitions the ordinal range [0, 10^L) between search workers.
//
// Two partitioning policies are provided. Cyclic striding hands worker r of
// N the ordinals r, r+N, r+2N, ... and suits workers that cannot share
// memory. A Queue hands out small contiguous chunks on demand from a single
// atomic counter, so faster goroutines naturally take more of the range.
// Both cover every ordinal exactly once.
package keyspace
