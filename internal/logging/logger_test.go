package logging

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoggerWritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.log")

	logger, err := NewLogger(&LoggingConfig{Level: "debug", Format: "json", Output: path})
	require.NoError(t, err)

	logger.With("rank", 3).Info("worker %s", "matched")
	logger.Debug("polled %d times", 4)
	require.NoError(t, logger.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"worker matched"`)
	assert.Contains(t, string(data), `"rank":3`)
	assert.Contains(t, string(data), "polled 4 times")
}

func TestLoggerLevelFilters(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.log")

	logger, err := NewLogger(&LoggingConfig{Level: "warn", Output: path})
	require.NoError(t, err)

	logger.Info("hidden")
	logger.Warn("shown")
	require.NoError(t, logger.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "hidden")
	assert.Contains(t, string(data), "shown")
}

func TestUnknownLevelFallsBackToInfo(t *testing.T) {
	path := filepath.Join(t.TempDir(), "x.log")
	logger, err := NewLogger(&LoggingConfig{Level: "verbose", Output: path})
	require.NoError(t, err)

	logger.Debug("quiet")
	logger.Info("loud")
	require.NoError(t, logger.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "quiet")
	assert.Contains(t, string(data), "loud")
}

func TestUnknownFormat(t *testing.T) {
	_, err := NewLogger(&LoggingConfig{Format: "xml"})
	assert.Error(t, err)
}

func TestNop(t *testing.T) {
	logger := Nop()
	logger.With("k", "v").Error("discarded %d", 1)
	assert.NoError(t, logger.Close())
}
