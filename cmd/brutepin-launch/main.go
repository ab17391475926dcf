// brutepin-launch starts a distributed PIN search as a group of
// brutepin-worker processes talking gRPC over loopback, and waits for all of
// them. Rank 0's result line is passed through on stdout.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"time"

	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"

	"brutepin/internal/cli"
	"brutepin/internal/cluster"
	"brutepin/internal/config"
	"brutepin/internal/logging"
)

const synopsis = "brutepin-launch [-n ranks] [flags] <pin_length 1..8> <target_plaintext>"

// workerBinary is looked up next to this executable, then on $PATH
const workerBinary = "brutepin-worker"

// interruptGrace is how long a worker gets to finish after an interrupt
// before it is killed
const interruptGrace = 10 * time.Second

// launcherFlags are consumed here and not forwarded to workers
var launcherFlags = map[string]bool{"ranks": true, "worker": true, "host": true, "workers": true, "progress": true}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(argv []string, stdout, stderr io.Writer) int {
	fs := pflag.NewFlagSet("brutepin-launch", pflag.ContinueOnError)
	fs.SetOutput(io.Discard)
	config.RegisterFlags(fs)
	fs.IntP("ranks", "n", 0, "number of worker processes (default --workers)")
	fs.String("worker", "", "path of the worker binary (default "+workerBinary+" next to this binary or on $PATH)")
	fs.String("host", "127.0.0.1", "address every rank listens on")

	cmd, err := cli.Setup(fs, argv)
	if err != nil {
		return cli.Fail(stderr, fs, synopsis, err)
	}
	defer cmd.Logger.Close()

	ranks := cmd.Config.Workers
	if fs.Changed("ranks") {
		ranks, _ = fs.GetInt("ranks")
	}
	if ranks < 1 {
		return cli.Fail(stderr, fs, synopsis, cli.Usagef("need at least one rank, got %d", ranks))
	}
	bin, _ := fs.GetString("worker")
	if bin, err = resolveWorker(bin); err != nil {
		return cli.Fail(stderr, fs, synopsis, err)
	}
	host, _ := fs.GetString("host")

	peers, err := allocatePeers(host, ranks)
	if err != nil {
		return cli.Fail(stderr, fs, synopsis, err)
	}
	manifest := cluster.Manifest{RunID: cmd.RunID, Peers: peers}
	encoded, err := manifest.Encode()
	if err != nil {
		return cli.Fail(stderr, fs, synopsis, err)
	}

	ctx, stop := cli.SignalContext()
	defer stop()

	logger := cmd.Logger.With("run", cmd.RunID)
	logger.Info("launching %d ranks of %s on %s", ranks, bin, host)
	codes, err := launch(ctx, logger, bin, forwardArgs(fs), encoded, ranks, stdout, stderr)
	if err != nil {
		fmt.Fprintf(stderr, "%s: %v\n", fs.Name(), err)
	}
	return exitStatus(codes, err)
}

// resolveWorker finds the worker binary
func resolveWorker(path string) (string, error) {
	if path != "" {
		return path, nil
	}
	if self, err := os.Executable(); err == nil {
		sibling := filepath.Join(filepath.Dir(self), workerBinary)
		if _, err := os.Stat(sibling); err == nil {
			return sibling, nil
		}
	}
	path, err := exec.LookPath(workerBinary)
	if err != nil {
		return "", fmt.Errorf("find %s: %w", workerBinary, err)
	}
	return path, nil
}

// allocatePeers reserves one free port per rank on host. The ports are
// released before the workers bind them.
func allocatePeers(host string, n int) ([]string, error) {
	listeners := make([]net.Listener, 0, n)
	defer func() {
		for _, lis := range listeners {
			lis.Close()
		}
	}()

	peers := make([]string, n)
	for rank := range peers {
		lis, err := net.Listen("tcp", net.JoinHostPort(host, "0"))
		if err != nil {
			return nil, fmt.Errorf("allocate address for rank %d: %w", rank, err)
		}
		listeners = append(listeners, lis)
		peers[rank] = lis.Addr().String()
	}
	return peers, nil
}

// forwardArgs rebuilds the command line for a worker: every flag set here
// except the launcher's own, then the positional arguments
func forwardArgs(fs *pflag.FlagSet) []string {
	var args []string
	fs.Visit(func(f *pflag.Flag) {
		if !launcherFlags[f.Name] {
			args = append(args, "--"+f.Name+"="+f.Value.String())
		}
	})
	return append(append(args, "--"), fs.Args()...)
}

// launch runs one worker per rank and returns every worker's exit status.
// The first failing worker interrupts the others.
func launch(ctx context.Context, logger *logging.Logger, bin string, args []string, manifest string, ranks int, stdout, stderr io.Writer) ([]int, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	codes := make([]int, ranks)
	g, gctx := errgroup.WithContext(ctx)
	for rank := 0; rank < ranks; rank++ {
		c := exec.CommandContext(gctx, bin, args...)
		c.Env = append(os.Environ(),
			cluster.ManifestEnv+"="+manifest,
			cluster.RankEnv+"="+strconv.Itoa(rank),
		)
		c.Stdout = stdout
		c.Stderr = stderr
		c.Cancel = func() error { return c.Process.Signal(os.Interrupt) }
		c.WaitDelay = interruptGrace

		if err := c.Start(); err != nil {
			// Ranks already running would wait forever for this one.
			cancel()
			g.Wait()
			return codes, fmt.Errorf("start rank %d: %w", rank, err)
		}
		logger.Debug("rank %d started as pid %d", rank, c.Process.Pid)

		g.Go(func() error {
			err := c.Wait()
			codes[rank] = c.ProcessState.ExitCode()
			var exitErr *exec.ExitError
			if errors.As(err, &exitErr) {
				logger.Warn("rank %d exited with status %d", rank, codes[rank])
				return fmt.Errorf("rank %d: %w", rank, err)
			}
			return err
		})
	}
	return codes, g.Wait()
}

// exitStatus is rank 0's status, or the first non-zero status of another
// rank, or ExitFailure when a worker could not be run at all
func exitStatus(codes []int, err error) int {
	if len(codes) > 0 && codes[0] > 0 {
		return codes[0]
	}
	for _, code := range codes {
		if code > 0 {
			return code
		}
	}
	if err != nil {
		return cli.ExitFailure
	}
	return cli.ExitOK
}
