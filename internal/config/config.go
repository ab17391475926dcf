// Package config layers brutepin settings: built-in defaults, an optional
// YAML file, a .env file, BRUTEPIN_* environment variables, then flags.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"brutepin/internal/coordinator"
	"brutepin/internal/keyspace"
	"brutepin/internal/logging"
	"brutepin/internal/termination"
)

// DefaultFile is read from the working directory when no --config is given
const DefaultFile = "brutepin.yaml"

// Backend names
const (
	BackendShared      = "shared"
	BackendDistributed = "distributed"
)

// Environment variables
const (
	EnvWorkers       = "BRUTEPIN_WORKERS"
	EnvDigest        = "BRUTEPIN_DIGEST"
	EnvChunkSize     = "BRUTEPIN_CHUNK_SIZE"
	EnvCheckInterval = "BRUTEPIN_CHECK_INTERVAL"
	EnvLogLevel      = "BRUTEPIN_LOG_LEVEL"
)

type Config struct {
	Backend        string                `yaml:"backend"`
	Workers        int                   `yaml:"workers"`
	Digest         string                `yaml:"digest"`
	ChunkSize      uint64                `yaml:"chunk_size"`
	CheckInterval  int                   `yaml:"check_interval"`
	CollectTimeout time.Duration         `yaml:"collect_timeout"`
	Progress       bool                  `yaml:"progress"`
	Logging        logging.LoggingConfig `yaml:"logging"`
}

// Default returns the built-in settings
func Default() *Config {
	return &Config{
		Backend:        BackendShared,
		Workers:        DefaultWorkers(),
		ChunkSize:      keyspace.DefaultChunkSize,
		CheckInterval:  termination.DefaultCheckInterval,
		CollectTimeout: coordinator.DefaultCollectTimeout,
		Logging:        *logging.DefaultLoggingConfig(),
	}
}

// DefaultWorkers is the number of logical CPUs
func DefaultWorkers() int {
	if n, err := cpu.Counts(true); err == nil && n > 0 {
		return n
	}
	return runtime.NumCPU()
}

// Load builds the configuration from defaults, the YAML file at path (or
// DefaultFile when path is empty and that file exists), the nearest .env
// file and the environment. Flags are applied separately with ApplyFlags.
func Load(path string) (*Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = DefaultFile
	}
	if err := cfg.loadFile(path); err != nil {
		if explicit || !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	if envPath := findEnvFile(); envPath != "" {
		// Variables already set in the environment take precedence.
		if err := godotenv.Load(envPath); err != nil {
			return nil, fmt.Errorf("load %s: %w", envPath, err)
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv(EnvWorkers); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvWorkers, err)
		}
		c.Workers = n
	}
	if v := os.Getenv(EnvDigest); v != "" {
		c.Digest = v
	}
	if v := os.Getenv(EnvChunkSize); v != "" {
		n, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvChunkSize, err)
		}
		c.ChunkSize = n
	}
	if v := os.Getenv(EnvCheckInterval); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvCheckInterval, err)
		}
		c.CheckInterval = n
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.Logging.Level = strings.ToLower(v)
	}
	return nil
}

// findEnvFile returns the .env in the working directory, or the one next to
// the nearest enclosing go.mod, or "" when there is none
func findEnvFile() string {
	cwd, err := os.Getwd()
	if err != nil {
		return ""
	}
	if _, err := os.Stat(filepath.Join(cwd, ".env")); err == nil {
		return filepath.Join(cwd, ".env")
	}
	for dir := cwd; ; {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			envPath := filepath.Join(dir, ".env")
			if _, err := os.Stat(envPath); err == nil {
				return envPath
			}
			return ""
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// RegisterFlags adds the search flags shared by every command to flags
func RegisterFlags(flags *pflag.FlagSet) {
	d := Default()
	flags.String("config", "", "YAML configuration file (default ./"+DefaultFile+" if present)")
	flags.IntP("workers", "w", d.Workers, "number of workers (ranks for the distributed backend)")
	flags.StringP("digest", "d", "", "hash method: sha256, sha512, sha3-256, blake2b-256, blake3")
	flags.Uint64("chunk-size", d.ChunkSize, "ordinals claimed at once by a shared-memory worker")
	flags.Int("check-interval", d.CheckInterval, "candidates tested between stop polls on the distributed backend")
	flags.Duration("collect-timeout", d.CollectTimeout, "bound on the closing gather and barrier of a distributed run")
	flags.Bool("progress", false, "show a progress bar on stderr")
	flags.String("log-level", d.Logging.Level, "log level: debug, info, warn, error")
	flags.String("log-format", d.Logging.Format, "log format: console or json")
}

// ApplyFlags overrides the configuration with every flag set on the command
// line. Flags left at their defaults do not override file or environment
// values.
func (c *Config) ApplyFlags(flags *pflag.FlagSet) error {
	var err error
	flags.Visit(func(f *pflag.Flag) {
		if err != nil {
			return
		}
		switch f.Name {
		case "backend":
			c.Backend = f.Value.String()
		case "workers":
			c.Workers, err = flags.GetInt(f.Name)
		case "digest":
			c.Digest = f.Value.String()
		case "chunk-size":
			c.ChunkSize, err = flags.GetUint64(f.Name)
		case "check-interval":
			c.CheckInterval, err = flags.GetInt(f.Name)
		case "collect-timeout":
			c.CollectTimeout, err = flags.GetDuration(f.Name)
		case "progress":
			c.Progress, err = flags.GetBool(f.Name)
		case "log-level":
			c.Logging.Level = f.Value.String()
		case "log-format":
			c.Logging.Format = f.Value.String()
		}
		if err != nil {
			err = fmt.Errorf("--%s: %w", f.Name, err)
		}
	})
	return err
}

// Coordinator returns the coordinator configuration for a search of
// pinLength digits
func (c *Config) Coordinator(pinLength int) coordinator.Config {
	return coordinator.Config{
		PinLength:      pinLength,
		Workers:        c.Workers,
		ChunkSize:      c.ChunkSize,
		CheckInterval:  c.CheckInterval,
		Digest:         c.Digest,
		CollectTimeout: c.CollectTimeout,
	}
}

// Validate checks settings that are not covered by coordinator.Config
func (c *Config) Validate() error {
	switch c.Backend {
	case BackendShared, BackendDistributed:
		return nil
	default:
		return &coordinator.ConfigError{Field: "backend", Value: c.Backend, Reason: "want shared or distributed"}
	}
}
