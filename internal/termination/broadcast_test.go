package termination

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"brutepin/internal/cluster"
)

func newBroadcasts(t *testing.T, size, interval int) []*Broadcast {
	t.Helper()
	hub := cluster.NewHub(size)
	out := make([]*Broadcast, size)
	for rank := range out {
		comm, err := hub.Comm(rank, nil)
		require.NoError(t, err)
		b, err := NewBroadcast(comm, interval, nil)
		require.NoError(t, err)
		out[rank] = b
	}
	return out
}

func TestBroadcastClaimNotifiesPeers(t *testing.T) {
	b := newBroadcasts(t, 4, 100)

	for _, peer := range b {
		assert.False(t, peer.Stopped())
	}

	assert.True(t, b[1].Claim(1, "0420"))
	assert.False(t, b[1].Claim(1, "0420"), "second claim on the same rank")
	assert.False(t, b[1].Stopped(), "the finder is not notified of its own find")

	for rank, peer := range b {
		if rank == 1 {
			continue
		}
		assert.True(t, peer.Stopped(), "rank %d", rank)
		assert.Equal(t, 1, peer.Request().Source())
		assert.False(t, peer.Claim(rank, "1111"), "a stopped rank cannot win")
	}
}

func TestBroadcastReleaseWinnerCancels(t *testing.T) {
	b := newBroadcasts(t, 3, 0)

	require.True(t, b[0].Claim(0, "7"))
	b[0].Release()

	assert.Equal(t, cluster.RequestCancelled, b[0].Request().State())
}

func TestBroadcastReleaseLoserKeepsCompletion(t *testing.T) {
	b := newBroadcasts(t, 3, 0)

	require.True(t, b[0].Claim(0, "7"))
	require.True(t, b[2].Stopped())

	b[2].Release()
	b[2].Release()

	assert.Equal(t, cluster.RequestCompleted, b[2].Request().State())
}

func TestBroadcastReleaseLoserNotYetPolled(t *testing.T) {
	b := newBroadcasts(t, 2, 0)

	require.True(t, b[1].Claim(1, "3"))
	// Rank 0 never polled; the notification is waiting in its mailbox.
	b[0].Release()

	assert.Equal(t, cluster.RequestCompleted, b[0].Request().State())
}

func TestBroadcastReleaseExhausted(t *testing.T) {
	b := newBroadcasts(t, 2, 0)

	for _, peer := range b {
		peer.Release()
		assert.Equal(t, cluster.RequestCancelled, peer.Request().State())
	}
}

func TestBroadcastDefaultInterval(t *testing.T) {
	b := newBroadcasts(t, 1, 0)

	assert.Equal(t, DefaultCheckInterval, b[0].PollInterval())
	assert.True(t, b[0].Claim(0, "1"), "a single rank has nobody to notify")
}

func TestNewBroadcastTwiceOnOneComm(t *testing.T) {
	comm, err := cluster.NewHub(1).Comm(0, nil)
	require.NoError(t, err)

	_, err = NewBroadcast(comm, 0, nil)
	require.NoError(t, err)
	_, err = NewBroadcast(comm, 0, nil)
	assert.ErrorIs(t, err, cluster.ErrStopPending)
}
