// Command maxcut runs the Max-Cut pipeline locally against a graph file or object.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/aristath/qdo/internal/modules/graph"
	"github.com/aristath/qdo/internal/modules/graphs"
	"github.com/aristath/qdo/internal/modules/maxcut"
	"github.com/aristath/qdo/internal/modules/qaoa"
	"github.com/aristath/qdo/pkg/logger"
)

var (
	jsonOutput bool
	logLevel   string
	timeout    time.Duration
	opts       maxcut.Options
	maxQubits  int
	s3Region   string
	s3Endpoint string

	log zerolog.Logger
)

var rootCmd = &cobra.Command{
	Use:           "maxcut <command>",
	Short:         "Solve weighted Max-Cut with a classical baseline and QAOA",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		log = logger.New(logger.Config{
			Level:  logLevel,
			Pretty: true,
			Output: cmd.ErrOrStderr(),
		})
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "output as JSON")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", time.Minute, "upper bound for one run (0 disables)")
	rootCmd.PersistentFlags().StringVar(&s3Region, "s3-region", envOr("S3_REGION", "us-east-1"), "region for s3:// graphs")
	rootCmd.PersistentFlags().StringVar(&s3Endpoint, "s3-endpoint", os.Getenv("S3_ENDPOINT"), "custom endpoint for s3:// graphs")

	rootCmd.AddCommand(solveCmd)
	rootCmd.AddCommand(compareCmd)
	rootCmd.AddCommand(quboCmd)
}

// addSolveFlags binds the QAOA options shared by solve and compare.
func addSolveFlags(cmd *cobra.Command) {
	cmd.Flags().IntVarP(&opts.Depth, "depth", "p", 1, "QAOA depth (reps)")
	cmd.Flags().IntVar(&opts.MaxIterations, "max-iterations", 100, "objective evaluation budget")
	cmd.Flags().IntVar(&opts.Shots, "shots", 1024, "shots per objective evaluation")
	cmd.Flags().IntVar(&opts.FinalShots, "final-shots", 4096, "shots for the final sample")
	cmd.Flags().Int64Var(&opts.Seed, "seed", 0, "random seed (0 picks one)")
	cmd.Flags().StringVar(&opts.Strategy, "strategy", "nelder-mead", "parameter search (nelder-mead or compass)")
	cmd.Flags().IntVar(&maxQubits, "max-qubits", 20, "largest graph the simulator accepts")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// commandContext bounds a command by --timeout.
func commandContext() (context.Context, context.CancelFunc) {
	if timeout > 0 {
		return context.WithTimeout(context.Background(), timeout)
	}
	return context.WithCancel(context.Background())
}

// loadGraph resolves a file path, or an s3:// URI when object storage can be configured.
func loadGraph(ctx context.Context, ref string) (*graph.WeightedGraph, error) {
	var remote graphs.Source
	if !graphs.IsFileReference(ref) {
		downloader, err := graphs.NewS3Downloader(ctx, graphs.S3Config{Region: s3Region, Endpoint: s3Endpoint})
		if err != nil {
			return nil, fmt.Errorf("failed to configure object storage: %w", err)
		}
		remote = graphs.NewS3Source(downloader, log)
	}
	return graphs.NewLoader(graphs.NewFileSource(""), nil, remote, log).Load(ctx, ref)
}

// newService builds a service with no metrics and no run history.
func newService() (*maxcut.Service, error) {
	searcher, err := qaoa.NewSearcher(opts.Strategy)
	if err != nil {
		return nil, err
	}
	solver := qaoa.NewSolver(qaoa.NewStatevectorBackend(), searcher, qaoa.Config{
		Shots:      opts.Shots,
		FinalShots: opts.FinalShots,
		MaxQubits:  maxQubits,
	}, log)
	return maxcut.NewService(solver, nil, nil, opts, 0, log), nil
}

func writeJSON(w io.Writer, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}
