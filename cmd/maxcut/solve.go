package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aristath/qdo/internal/api"
)

var solveCmd = &cobra.Command{
	Use:   "solve <graph>",
	Short: "Run QAOA on a graph and print the best cut",
	Long: `Run QAOA on a graph and print the best cut.

<graph> is a .json, .yaml or .msgpack file, or an s3://bucket/key object.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := api.Validate(opts); err != nil {
			return err
		}
		ctx, cancel := commandContext()
		defer cancel()

		g, err := loadGraph(ctx, args[0])
		if err != nil {
			return err
		}
		service, err := newService()
		if err != nil {
			return err
		}

		result, err := service.FormulateAndSolve(ctx, g, opts)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if jsonOutput {
			return writeJSON(out, result)
		}

		m := result.Metadata
		fmt.Fprintf(out, "Cut value:    %g\n", result.CutValue)
		fmt.Fprintf(out, "Bits:         %s\n", formatBits(result.Bits))
		fmt.Fprintf(out, "Qubits:       %d\n", m.NumQubits)
		fmt.Fprintf(out, "Depth:        %d (circuit depth %d)\n", m.Reps, m.CircuitDepth)
		fmt.Fprintf(out, "Optimizer:    %s, %d evaluations, %s\n", m.Optimizer, m.Evaluations, m.Status)
		fmt.Fprintf(out, "Probability:  %.4f\n", m.Probability)
		fmt.Fprintf(out, "Expected cut: %.4f\n", m.ExpectedCut)
		return nil
	},
}

func init() {
	addSolveFlags(solveCmd)
}

func formatBits(bits []int) string {
	var b strings.Builder
	for _, bit := range bits {
		fmt.Fprintf(&b, "%d", bit)
	}
	return b.String()
}
