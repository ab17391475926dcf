// Package cli holds the plumbing shared by the brutepin commands: positional
// argument parsing, configuration and logger set-up, signal handling and the
// mapping from outcomes to exit statuses.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/pflag"

	"brutepin/internal/config"
	"brutepin/internal/coordinator"
	"brutepin/internal/keyspace"
	"brutepin/internal/logging"
)

// Exit statuses
const (
	ExitOK          = 0
	ExitFailure     = 1
	ExitUsage       = 2
	ExitInterrupted = 130
)

// UsageError is a malformed command line. Commands print usage and exit with
// ExitUsage without starting a search.
type UsageError struct {
	Message string
}

func (e *UsageError) Error() string {
	return e.Message
}

// Usagef returns a formatted *UsageError
func Usagef(format string, args ...interface{}) error {
	return &UsageError{Message: fmt.Sprintf(format, args...)}
}

// Args are the positional arguments every command takes
type Args struct {
	PinLength int
	Plaintext string
}

// ParseArgs parses "<pin_length> <target_plaintext>"
func ParseArgs(args []string) (Args, error) {
	if len(args) != 2 {
		return Args{}, Usagef("expected 2 arguments, got %d", len(args))
	}
	length, err := strconv.Atoi(args[0])
	if err != nil {
		return Args{}, Usagef("pin length %q is not a number", args[0])
	}
	if err := keyspace.ValidateLength(length); err != nil {
		return Args{}, Usagef("%v", err)
	}
	return Args{PinLength: length, Plaintext: args[1]}, nil
}

// Command is a parsed command line with its configuration and logger
type Command struct {
	Args   Args
	Config *config.Config
	Logger *logging.Logger
	RunID  string
}

// Setup parses argv against fs, which must already carry
// config.RegisterFlags, and builds the configuration and logger. Flag and
// argument problems come back as *UsageError.
func Setup(fs *pflag.FlagSet, argv []string) (*Command, error) {
	if err := ParseFlags(fs, argv); err != nil {
		return nil, err
	}
	return Load(fs)
}

// ParseFlags parses argv against fs without looking at positional arguments
func ParseFlags(fs *pflag.FlagSet, argv []string) error {
	if err := fs.Parse(argv); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return err
		}
		return Usagef("%v", err)
	}
	return nil
}

// Load finishes Setup on an already parsed fs
func Load(fs *pflag.FlagSet) (*Command, error) {
	args, err := ParseArgs(fs.Args())
	if err != nil {
		return nil, err
	}

	path, _ := fs.GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.ApplyFlags(fs); err != nil {
		return nil, Usagef("%v", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger, err := logging.NewLogger(&cfg.Logging)
	if err != nil {
		return nil, err
	}
	return &Command{Args: args, Config: cfg, Logger: logger, RunID: uuid.NewString()}, nil
}

// Usage prints the command synopsis and flag defaults to w
func Usage(w io.Writer, fs *pflag.FlagSet, synopsis string) {
	fmt.Fprintf(w, "usage: %s\n\nflags:\n", synopsis)
	fs.SetOutput(w)
	fs.PrintDefaults()
}

// SignalContext returns a context cancelled by SIGINT or SIGTERM
func SignalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// ExitCode maps the outcome of a run to the process exit status
func ExitCode(report *coordinator.Report, err error) int {
	var usage *UsageError
	var cfgErr *coordinator.ConfigError
	switch {
	case errors.Is(err, pflag.ErrHelp):
		return ExitOK
	case errors.As(err, &usage), errors.As(err, &cfgErr):
		return ExitUsage
	case err != nil:
		return ExitFailure
	case report != nil && report.Interrupted && !report.Found():
		return ExitInterrupted
	default:
		return ExitOK
	}
}

// Fail reports err on stderr, with usage for command-line problems, and
// returns the exit status
func Fail(stderr io.Writer, fs *pflag.FlagSet, synopsis string, err error) int {
	code := ExitCode(nil, err)
	switch code {
	case ExitOK:
		Usage(stderr, fs, synopsis)
	case ExitUsage:
		fmt.Fprintf(stderr, "%s: %v\n", fs.Name(), err)
		Usage(stderr, fs, synopsis)
	default:
		fmt.Fprintf(stderr, "%s: %v\n", fs.Name(), err)
	}
	return code
}
