package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"brutepin/internal/coordinator"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, BackendShared, cfg.Backend)
	assert.Positive(t, cfg.Workers)
	assert.Equal(t, uint64(256), cfg.ChunkSize)
	assert.Equal(t, 2500, cfg.CheckInterval)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.NoError(t, cfg.Validate())
}

func TestLoadFile(t *testing.T) {
	t.Chdir(t.TempDir())
	path := writeFile(t, t.TempDir(), "run.yaml", `
backend: distributed
workers: 3
digest: blake3
chunk_size: 64
check_interval: 100
collect_timeout: 5s
logging:
  level: debug
  format: json
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, BackendDistributed, cfg.Backend)
	assert.Equal(t, 3, cfg.Workers)
	assert.Equal(t, "blake3", cfg.Digest)
	assert.Equal(t, uint64(64), cfg.ChunkSize)
	assert.Equal(t, 100, cfg.CheckInterval)
	assert.Equal(t, 5*time.Second, cfg.CollectTimeout)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, "stderr", cfg.Logging.Output, "unset keys keep their defaults")
}

func TestLoadDefaultFileIsOptional(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default().Workers, cfg.Workers)

	writeFile(t, dir, DefaultFile, "workers: 11\n")
	cfg, err = Load("")
	require.NoError(t, err)
	assert.Equal(t, 11, cfg.Workers)
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	_, err := Load(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err, "an explicit file must exist")

	bad := writeFile(t, dir, "bad.yaml", "workers: [1, 2\n")
	_, err = Load(bad)
	assert.Error(t, err)

	t.Setenv(EnvWorkers, "many")
	_, err = Load("")
	assert.ErrorContains(t, err, EnvWorkers)
}

func TestEnvironmentOverridesFile(t *testing.T) {
	t.Chdir(t.TempDir())
	path := writeFile(t, t.TempDir(), "run.yaml", "workers: 3\ndigest: sha512\n")
	t.Setenv(EnvWorkers, "5")
	t.Setenv(EnvChunkSize, "1024")
	t.Setenv(EnvCheckInterval, "10")
	t.Setenv(EnvLogLevel, "WARN")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 5, cfg.Workers)
	assert.Equal(t, "sha512", cfg.Digest)
	assert.Equal(t, uint64(1024), cfg.ChunkSize)
	assert.Equal(t, 10, cfg.CheckInterval)
	assert.Equal(t, "warn", cfg.Logging.Level)
}

func TestDotEnvFile(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	// Restore whatever the .env load leaves behind.
	t.Setenv(EnvDigest, "")
	require.NoError(t, os.Unsetenv(EnvDigest))
	writeFile(t, dir, ".env", EnvDigest+"=blake2b-256\n")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "blake2b-256", cfg.Digest)
}

func TestApplyFlags(t *testing.T) {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	RegisterFlags(fs)
	fs.String("backend", BackendShared, "")
	require.NoError(t, fs.Parse([]string{"--workers", "7", "-d", "sha3-256", "--backend", "distributed", "--progress"}))

	cfg := Default()
	cfg.ChunkSize = 99
	require.NoError(t, cfg.ApplyFlags(fs))

	assert.Equal(t, 7, cfg.Workers)
	assert.Equal(t, "sha3-256", cfg.Digest)
	assert.Equal(t, BackendDistributed, cfg.Backend)
	assert.True(t, cfg.Progress)
	assert.Equal(t, uint64(99), cfg.ChunkSize, "unset flags keep loaded values")
}

func TestValidateBackend(t *testing.T) {
	cfg := Default()
	cfg.Backend = "mpi"

	err := cfg.Validate()
	var cfgErr *coordinator.ConfigError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "backend", cfgErr.Field)
}

func TestCoordinatorConfig(t *testing.T) {
	cfg := Default()
	cfg.Workers = 4
	cfg.Digest = "blake3"

	cc := cfg.Coordinator(6)

	assert.Equal(t, coordinator.Config{
		PinLength:      6,
		Workers:        4,
		ChunkSize:      cfg.ChunkSize,
		CheckInterval:  cfg.CheckInterval,
		Digest:         "blake3",
		CollectTimeout: cfg.CollectTimeout,
	}, cc)
}
