package coordinator

import (
	"fmt"
	"time"

	"brutepin/internal/keyspace"
	"brutepin/internal/termination"
)

// DefaultCollectTimeout bounds the gather and barrier that close a
// distributed run
const DefaultCollectTimeout = 30 * time.Second

// Config describes one search
type Config struct {
	PinLength int
	Workers   int

	// ChunkSize is the number of ordinals a shared-memory worker claims at
	// once. Zero selects keyspace.DefaultChunkSize.
	ChunkSize uint64

	// CheckInterval is how many candidates a distributed worker tests
	// between stop polls. Zero selects termination.DefaultCheckInterval.
	CheckInterval int

	// Digest names the hash method; empty selects the factory's best
	Digest string

	CollectTimeout time.Duration
}

// ConfigError reports an invalid configuration value. It is returned before
// any search starts.
type ConfigError struct {
	Field  string
	Value  interface{}
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid %s %v: %s", e.Field, e.Value, e.Reason)
}

// Validate checks the configuration and fills in defaults
func (c *Config) Validate() error {
	if err := keyspace.ValidateLength(c.PinLength); err != nil {
		return &ConfigError{Field: "pin_length", Value: c.PinLength, Reason: err.Error()}
	}
	if c.Workers < 1 {
		return &ConfigError{Field: "workers", Value: c.Workers, Reason: "at least one worker is required"}
	}
	if c.CheckInterval < 0 {
		return &ConfigError{Field: "check_interval", Value: c.CheckInterval, Reason: "must not be negative"}
	}
	if c.CollectTimeout < 0 {
		return &ConfigError{Field: "collect_timeout", Value: c.CollectTimeout, Reason: "must not be negative"}
	}

	if c.ChunkSize == 0 {
		c.ChunkSize = keyspace.DefaultChunkSize
	}
	if c.CheckInterval == 0 {
		c.CheckInterval = termination.DefaultCheckInterval
	}
	if c.CollectTimeout == 0 {
		c.CollectTimeout = DefaultCollectTimeout
	}
	return nil
}
