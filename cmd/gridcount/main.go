// Package main provides the gridcount CLI.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/born-ml/gridcount/internal/bench"
	"github.com/born-ml/gridcount/internal/config"
	"github.com/born-ml/gridcount/internal/count"
	"github.com/born-ml/gridcount/internal/grid"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

const version = "v0.0.1-dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, "gridcount:", err)
		os.Exit(1)
	}
}

// run loads the environment first so that its values become the flag
// defaults, then lets cobra parse args.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	root := newRootCmd(&cfg)
	// A nil slice makes cobra fall back to os.Args.
	root.SetArgs(append([]string{}, args...))
	root.SetOut(stdout)
	root.SetErr(stderr)
	return root.ExecuteContext(ctx)
}

func newRootCmd(cfg *config.Config) *cobra.Command {
	root := &cobra.Command{
		Use:   "gridcount",
		Short: "Parallel predicate counting over dense grids",
		Long: "gridcount counts grid values matching a predicate, sequentially and with a\n" +
			"pool of workers over square blocks.\n\n" +
			"Settings come from GRIDCOUNT_* environment variables; flags override them.",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetVersionTemplate("gridcount {{.Version}}\n")
	cfg.BindFlags(root.PersistentFlags())

	root.AddCommand(
		newVersionCmd(),
		newCountCmd(cfg),
		newBenchCmd(cfg),
	)
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "gridcount %s\n", version)
		},
	}
}

// setup validates the parsed configuration and builds the command logger.
func setup(cmd *cobra.Command, cfg *config.Config) (*logrus.Logger, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg.Logger(cmd.ErrOrStderr())
}

func newCountCmd(cfg *config.Config) *cobra.Command {
	var show bool
	cmd := &cobra.Command{
		Use:   "count",
		Short: "Count values above --threshold in a random grid",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger, err := setup(cmd, cfg)
			if err != nil {
				return err
			}
			return runCount(cmd.Context(), cmd.OutOrStdout(), logger, *cfg, show)
		},
	}
	cmd.Flags().BoolVar(&show, "print", false, "print the grid before counting")
	return cmd
}

func runCount(ctx context.Context, stdout io.Writer, logger logrus.FieldLogger, cfg config.Config, show bool) error {
	g, err := grid.Random(cfg.Rows, cfg.Cols, cfg.RandomOptions()...)
	if err != nil {
		return err
	}
	if show {
		fmt.Fprint(stdout, g)
	}

	pred := count.GreaterThan(cfg.Threshold)
	seq := count.Satisfying(g, pred)
	res, err := count.SatisfyingParallelStats(ctx, g, pred, cfg.CountOptions()...)
	if err != nil {
		return err
	}
	logger.WithFields(logrus.Fields{
		"workers":  res.Plan.Workers,
		"blocks":   res.Plan.Partition.TotalBlocks(),
		"partials": res.Partials,
	}).Debug("parallel count")

	fmt.Fprintf(stdout, "Sequential count: %d\n", seq)
	fmt.Fprintf(stdout, "Parallel count:   %d (%d workers, %d blocks of %dx%d)\n",
		res.Total, res.Plan.Workers, res.Plan.Partition.TotalBlocks(), cfg.BlockSize, cfg.BlockSize)
	if seq != res.Total {
		return fmt.Errorf("%w: sequential %d, parallel %d", bench.ErrMismatch, seq, res.Total)
	}
	return nil
}

func newBenchCmd(cfg *config.Config) *cobra.Command {
	var suite bool
	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Compare sequential and parallel counting",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger, err := setup(cmd, cfg)
			if err != nil {
				return err
			}
			return runBench(cmd.Context(), cmd.OutOrStdout(), logger, *cfg, suite)
		},
	}
	cmd.Flags().BoolVar(&suite, "suite", false, "run the default scenario suite instead of the configured grid")
	return cmd
}

func runBench(ctx context.Context, stdout io.Writer, logger logrus.FieldLogger, cfg config.Config, suite bool) error {
	scenarios := []bench.Scenario{{
		Rows:      cfg.Rows,
		Cols:      cfg.Cols,
		BlockSize: cfg.BlockSize,
		Workers:   cfg.Workers,
		Trials:    cfg.Trials,
	}}
	if suite {
		scenarios = bench.DefaultSuite()
	}

	runner := bench.NewRunner(logger, count.GreaterThan(cfg.Threshold), cfg.RandomOptions()...)
	for _, s := range scenarios {
		rep, err := runner.RunScenario(ctx, s)
		if err != nil {
			return err
		}
		if _, err := rep.WriteTo(stdout); err != nil {
			return err
		}
	}
	return nil
}
