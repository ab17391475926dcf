package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"

	"brutepin/internal/cli"
)

func runCommand(t *testing.T, argv ...string) (int, string, string) {
	t.Helper()
	t.Chdir(t.TempDir())
	var stdout, stderr bytes.Buffer
	code := run(append([]string{"--log-level", "error"}, argv...), &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestFound(t *testing.T) {
	for _, backend := range []string{"shared", "distributed"} {
		for _, workers := range []string{"1", "2", "8"} {
			code, stdout, stderr := runCommand(t, "--backend", backend, "--workers", workers, "4", "0420")

			assert.Equal(t, cli.ExitOK, code, "%s/%s", backend, workers)
			assert.Regexp(t, `^FOUND 0420 \d+\.\d{4}\n$`, stdout)
			assert.Contains(t, stderr, "Target:")
		}
	}
}

func TestNotFound(t *testing.T) {
	code, stdout, _ := runCommand(t, "--workers", "3", "2", "outside")

	assert.Equal(t, cli.ExitOK, code)
	assert.Regexp(t, `^NOT FOUND \d+\.\d{4}\n$`, stdout)
}

func TestProgressAndDigest(t *testing.T) {
	code, stdout, _ := runCommand(t, "--progress", "--digest", "blake3", "3", "777")

	assert.Equal(t, cli.ExitOK, code)
	assert.Regexp(t, `^FOUND 777 `, stdout)
}

func TestListDigests(t *testing.T) {
	code, stdout, stderr := runCommand(t, "--list-digests")

	assert.Equal(t, cli.ExitOK, code)
	assert.Empty(t, stderr)
	for _, name := range []string{"sha256", "sha512", "sha3-256", "blake2b-256", "blake3"} {
		assert.Contains(t, stdout, name)
	}
	assert.Contains(t, stdout, "(best, default)")
}

func TestBannerNamesProvider(t *testing.T) {
	code, _, stderr := runCommand(t, "--digest", "blake3", "2", "42")

	assert.Equal(t, cli.ExitOK, code)
	assert.Contains(t, stderr, "blake3 (github.com/zeebo/blake3)")
}

func TestUsageErrors(t *testing.T) {
	for _, argv := range [][]string{
		{},
		{"4"},
		{"nine", "1"},
		{"9", "1"},
		{"--workers", "0", "4", "1"},
		{"--backend", "mpi", "4", "1"},
		{"--digest", "md5", "4", "1"},
	} {
		code, stdout, stderr := runCommand(t, argv...)

		assert.Equal(t, cli.ExitUsage, code, "%v", argv)
		assert.Empty(t, stdout)
		assert.Contains(t, stderr, "usage: brutepin")
	}
}
