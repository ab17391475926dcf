// brutepin recovers a fixed-length numeric PIN from the digest of its
// plaintext by exhaustive parallel search.
//
// The shared backend runs goroutines over one chunk queue. The distributed
// backend runs one rank per worker in this process, connected by the
// in-memory transport; brutepin-launch runs the same protocol across OS
// processes over gRPC.
package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/pflag"

	"brutepin/internal/cli"
	"brutepin/internal/config"
	"brutepin/internal/console"
	"brutepin/internal/coordinator"
	"brutepin/internal/keyspace"
	"brutepin/pkg/hashing/factory"
)

const synopsis = "brutepin [flags] <pin_length 1..8> <target_plaintext>"

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(argv []string, stdout, stderr io.Writer) int {
	fs := pflag.NewFlagSet("brutepin", pflag.ContinueOnError)
	fs.SetOutput(io.Discard)
	config.RegisterFlags(fs)
	fs.StringP("backend", "b", config.BackendShared, "concurrency backend: shared or distributed")
	listDigests := fs.Bool("list-digests", false, "print the available digests and exit")

	if err := cli.ParseFlags(fs, argv); err != nil {
		return cli.Fail(stderr, fs, synopsis, err)
	}
	if *listDigests {
		if err := console.WriteDigests(stdout, factory.NewHashMethodFactory(nil).GetDetectionReport()); err != nil {
			return cli.Fail(stderr, fs, synopsis, err)
		}
		return cli.ExitOK
	}

	cmd, err := cli.Load(fs)
	if err != nil {
		return cli.Fail(stderr, fs, synopsis, err)
	}
	defer cmd.Logger.Close()

	ctx, stop := cli.SignalContext()
	defer stop()

	report, err := search(ctx, cmd, stderr)
	if err != nil {
		return cli.Fail(stderr, fs, synopsis, err)
	}
	fmt.Fprintln(stdout, report.Line())
	return cli.ExitCode(report, nil)
}

func search(ctx context.Context, cmd *cli.Command, stderr io.Writer) (*coordinator.Report, error) {
	logger := cmd.Logger.With("run", cmd.RunID)
	coord, err := coordinator.New(cmd.Config.Coordinator(cmd.Args.PinLength), logger)
	if err != nil {
		return nil, err
	}
	cc := coord.Config()

	err = console.WriteBanner(stderr, console.Banner{
		RunID:     cmd.RunID,
		Target:    cmd.Args.Plaintext,
		Hash:      coord.Target(cmd.Args.Plaintext),
		Digest:    cc.Digest,
		Provider:  coord.Method().GetCapabilities().Provider,
		Backend:   cmd.Config.Backend,
		PinLength: cc.PinLength,
		Workers:   cc.Workers,
	})
	if err != nil {
		return nil, err
	}

	if cmd.Config.Progress {
		bar := console.NewProgress(stderr, keyspace.Size(cc.PinLength))
		coord.OnProgress(bar.Add)
		defer bar.Finish()
	}

	if cmd.Config.Backend == config.BackendDistributed {
		return coord.RunSimulated(ctx, cmd.Args.Plaintext)
	}
	return coord.RunShared(ctx, cmd.Args.Plaintext)
}
