package main

import (
	"bytes"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"brutepin/internal/cli"
	"brutepin/internal/cluster"
)

// freeAddrs reserves n loopback addresses and releases them for the workers
// to bind
func freeAddrs(t *testing.T, n int) []string {
	t.Helper()
	addrs := make([]string, n)
	for i := range addrs {
		lis, err := net.Listen("tcp", "127.0.0.1:0")
		require.NoError(t, err)
		addrs[i] = lis.Addr().String()
		require.NoError(t, lis.Close())
	}
	return addrs
}

func envOf(vars map[string]string) func(string) string {
	return func(key string) string { return vars[key] }
}

// runGroup runs size ranks in this process and returns their exit statuses
// and standard outputs
func runGroup(t *testing.T, size int, args ...string) ([]int, []bytes.Buffer) {
	t.Helper()
	encoded, err := cluster.Manifest{RunID: "run-1", Peers: freeAddrs(t, size)}.Encode()
	require.NoError(t, err)

	codes := make([]int, size)
	outs := make([]bytes.Buffer, size)
	var wg sync.WaitGroup
	for rank := 0; rank < size; rank++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			env := envOf(map[string]string{
				cluster.ManifestEnv: encoded,
				cluster.RankEnv:     strconv.Itoa(rank),
			})
			argv := append([]string{"--log-level", "error"}, args...)
			codes[rank] = run(argv, env, &outs[rank], &bytes.Buffer{})
		}()
	}
	wg.Wait()
	return codes, outs
}

func TestWorkersFromManifest(t *testing.T) {
	t.Chdir(t.TempDir())

	codes, outs := runGroup(t, 3, "--check-interval", "50", "4", "0420")

	for rank, code := range codes {
		assert.Equal(t, cli.ExitOK, code, "rank %d", rank)
	}
	assert.Regexp(t, `^FOUND 0420 \d+\.\d{4}\n$`, outs[0].String())
	assert.Empty(t, outs[1].String())
	assert.Empty(t, outs[2].String())
}

func TestLosingRanksExitCleanly(t *testing.T) {
	t.Chdir(t.TempDir())

	// Rank 0 matches its first candidate; the others have millions left and
	// can only stop on the notification.
	codes, outs := runGroup(t, 3, "--check-interval", "50", "7", "0000000")

	assert.Equal(t, []int{cli.ExitOK, cli.ExitOK, cli.ExitOK}, codes)
	assert.Regexp(t, `^FOUND 0000000 \d+\.\d{4}\n$`, outs[0].String())
}

func TestLogLinesCarryRankOnce(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	logPath := filepath.Join(dir, "ranks.log")
	yaml := "logging:\n  format: json\n  output: " + logPath + "\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "brutepin.yaml"), []byte(yaml), 0o644))

	codes, _ := runGroup(t, 2, "--log-level", "debug", "--check-interval", "50", "3", "123")
	assert.Equal(t, []int{cli.ExitOK, cli.ExitOK}, codes)

	data, err := os.ReadFile(logPath)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.NotEmpty(t, lines)
	for _, line := range lines {
		assert.LessOrEqual(t, strings.Count(line, `"rank":`), 1, line)
	}
	assert.Contains(t, string(data), `"rank":1`)
}

func TestGroupErrors(t *testing.T) {
	t.Chdir(t.TempDir())
	noEnv := envOf(nil)

	tests := [][]string{
		{"4", "1"},
		{"--peers", "127.0.0.1:1", "4", "1"},
		{"--peers", "127.0.0.1:1", "--rank", "1", "4", "1"},
	}
	for _, argv := range tests {
		var stderr bytes.Buffer
		code := run(argv, noEnv, &bytes.Buffer{}, &stderr)

		assert.Equal(t, cli.ExitUsage, code, "%v", argv)
		assert.Contains(t, stderr.String(), "usage: brutepin-worker")
	}

	code := run([]string{"4", "1"}, envOf(map[string]string{cluster.ManifestEnv: "%%%", cluster.RankEnv: "0"}), &bytes.Buffer{}, &bytes.Buffer{})
	assert.Equal(t, cli.ExitFailure, code)
}
