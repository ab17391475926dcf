// brutepin-worker runs one rank of a distributed PIN search over gRPC.
//
// The group comes from the manifest brutepin-launch places in
// BRUTEPIN_CLUSTER, with the rank in BRUTEPIN_RANK, or from --peers and
// --rank when ranks are started by hand. Rank 0 computes the target, prints
// the result line and reports the run.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/spf13/pflag"

	"brutepin/internal/cli"
	"brutepin/internal/cluster"
	"brutepin/internal/config"
	"brutepin/internal/console"
	"brutepin/internal/coordinator"
)

const synopsis = "brutepin-worker [flags] <pin_length 1..8> <target_plaintext>"

func main() {
	os.Exit(run(os.Args[1:], os.Getenv, os.Stdout, os.Stderr))
}

func run(argv []string, getenv func(string) string, stdout, stderr io.Writer) int {
	fs := pflag.NewFlagSet("brutepin-worker", pflag.ContinueOnError)
	fs.SetOutput(io.Discard)
	config.RegisterFlags(fs)
	fs.Int("rank", -1, "rank of this worker (default $"+cluster.RankEnv+")")
	fs.StringSlice("peers", nil, "listen address of every rank, in rank order (default from $"+cluster.ManifestEnv+")")

	cmd, err := cli.Setup(fs, argv)
	if err != nil {
		return cli.Fail(stderr, fs, synopsis, err)
	}
	defer cmd.Logger.Close()

	rank, manifest, err := group(fs, getenv)
	if err != nil {
		return cli.Fail(stderr, fs, synopsis, err)
	}
	if manifest.RunID != "" {
		cmd.RunID = manifest.RunID
	}

	ctx, stop := cli.SignalContext()
	defer stop()

	report, err := search(ctx, cmd, rank, manifest, stderr)
	if err != nil {
		return cli.Fail(stderr, fs, synopsis, err)
	}
	if rank == 0 {
		fmt.Fprintln(stdout, report.Line())
	}
	return cli.ExitCode(report, nil)
}

// group resolves this process's rank and the peer list
func group(fs *pflag.FlagSet, getenv func(string) string) (int, cluster.Manifest, error) {
	var manifest cluster.Manifest
	if fs.Changed("peers") {
		peers, _ := fs.GetStringSlice("peers")
		manifest = cluster.Manifest{Peers: peers}
		if err := manifest.Validate(); err != nil {
			return 0, manifest, cli.Usagef("--peers: %v", err)
		}
	} else {
		encoded := getenv(cluster.ManifestEnv)
		if encoded == "" {
			return 0, manifest, cli.Usagef("no group: set --peers or $%s", cluster.ManifestEnv)
		}
		var err error
		manifest, err = cluster.DecodeManifest(encoded)
		if err != nil {
			return 0, manifest, fmt.Errorf("$%s: %w", cluster.ManifestEnv, err)
		}
	}

	rank, _ := fs.GetInt("rank")
	if !fs.Changed("rank") {
		v := getenv(cluster.RankEnv)
		if v == "" {
			return 0, manifest, cli.Usagef("no rank: set --rank or $%s", cluster.RankEnv)
		}
		var err error
		if rank, err = strconv.Atoi(v); err != nil {
			return 0, manifest, cli.Usagef("$%s: %v", cluster.RankEnv, err)
		}
	}
	if rank < 0 || rank >= manifest.Size() {
		return 0, manifest, cli.Usagef("rank %d outside group of %d", rank, manifest.Size())
	}
	return rank, manifest, nil
}

func search(ctx context.Context, cmd *cli.Command, rank int, manifest cluster.Manifest, stderr io.Writer) (*coordinator.Report, error) {
	// The coordinator tags its own lines with the rank.
	logger := cmd.Logger.With("run", cmd.RunID)
	commLogger := logger.With("rank", rank)

	cmd.Config.Workers = manifest.Size()
	coord, err := coordinator.New(cmd.Config.Coordinator(cmd.Args.PinLength), logger)
	if err != nil {
		return nil, err
	}

	comm, err := cluster.NewGRPCComm(cluster.GRPCConfig{
		Rank:   rank,
		Peers:  manifest.Peers,
		Logger: commLogger,
	})
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := comm.Close(); err != nil {
			commLogger.Warn("close peer connections: %v", err)
		}
	}()

	if rank == 0 {
		err := console.WriteBanner(stderr, console.Banner{
			RunID:     cmd.RunID,
			Target:    cmd.Args.Plaintext,
			Hash:      coord.Target(cmd.Args.Plaintext),
			Digest:    coord.Config().Digest,
			Provider:  coord.Method().GetCapabilities().Provider,
			Backend:   config.BackendDistributed,
			PinLength: cmd.Args.PinLength,
			Workers:   manifest.Size(),
		})
		if err != nil {
			return nil, err
		}
	}

	return coord.RunDistributed(ctx, comm, cmd.Args.Plaintext)
}
