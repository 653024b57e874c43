package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aristath/qdo/internal/api"
)

var compareCmd = &cobra.Command{
	Use:   "compare <graph>",
	Short: "Compare the random classical cut with the QAOA cut",
	Args:  cobra.ExactArgs(1),
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

		c, err := service.Compare(ctx, g, opts)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if jsonOutput {
			return writeJSON(out, c)
		}

		fmt.Fprintf(out, "Graph:      %d nodes, %d edges (seed %d)\n", c.NumNodes, c.NumEdges, c.Seed)
		fmt.Fprintf(out, "Classical:  cut %g (%d edges) in %.3fs\n", c.Classical.CutValue, c.Classical.CutEdges, c.ClassicalDurationSeconds)
		fmt.Fprintf(out, "  nodes     %s\n", strings.Join(c.ClassicalColors.Nodes, " "))
		fmt.Fprintf(out, "Quantum:    cut %g in %.3fs\n", c.Quantum.CutValue, c.QuantumDurationSeconds)
		fmt.Fprintf(out, "  nodes     %s\n", strings.Join(c.QuantumColors.Nodes, " "))
		return nil
	},
}

func init() {
	addSolveFlags(compareCmd)
}
