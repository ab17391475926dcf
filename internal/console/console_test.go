package console

import (
	"bytes"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"brutepin/pkg/hashing/factory"
)

func TestBannerRender(t *testing.T) {
	out := Banner{
		RunID:     "2f1c",
		Target:    "0420",
		Hash:      "deadbeef",
		Digest:    "sha256",
		Provider:  "crypto/sha256",
		Backend:   "shared",
		PinLength: 4,
		Workers:   8,
	}.Render()

	assert.Contains(t, out, "brutepin")
	assert.Contains(t, out, "run 2f1c")
	assert.Contains(t, out, "Target:")
	assert.Contains(t, out, "0420")
	assert.Contains(t, out, "Hash:")
	assert.Contains(t, out, "deadbeef")
	assert.Contains(t, out, "sha256 (crypto/sha256)")
	assert.Contains(t, out, "Starting shared search of 4-digit PINs with 8 workers")
}

func TestWriteBanner(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteBanner(&buf, Banner{Target: "7", Backend: "distributed", PinLength: 1, Workers: 2}))
	assert.Contains(t, buf.String(), "Starting distributed search")
}

func TestRenderDigests(t *testing.T) {
	report := factory.NewHashMethodFactory(nil).GetDetectionReport()
	out := RenderDigests(report)

	assert.Contains(t, out, "5 available")
	for _, name := range []string{"sha256", "sha512", "sha3-256", "blake2b-256", "blake3"} {
		assert.Contains(t, out, name)
	}
	assert.Contains(t, out, "64 hex chars, crypto/sha256")
	assert.Contains(t, out, "(best, default)")
	assert.Contains(t, out, "128 hex chars")
}

func TestProgressFinishes(t *testing.T) {
	for _, tested := range []uint64{1000, 400} {
		var buf bytes.Buffer
		p := NewProgress(&buf, 1000)

		var wg sync.WaitGroup
		for i := 0; i < 4; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				p.Add(tested / 4)
			}()
		}
		wg.Wait()

		p.Finish()
	}
}
