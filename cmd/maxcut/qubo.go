package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aristath/qdo/internal/modules/qubo"
)

var quboCmd = &cobra.Command{
	Use:   "qubo <graph>",
	Short: "Print the QUBO and Ising forms of a graph's Max-Cut problem",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := commandContext()
		defer cancel()

		g, err := loadGraph(ctx, args[0])
		if err != nil {
			return err
		}
		model, err := qubo.Formulate(g)
		if err != nil {
			return err
		}
		view, ising := model.View(), model.ToIsing()

		out := cmd.OutOrStdout()
		if jsonOutput {
			return writeJSON(out, map[string]interface{}{
				"qubo":  view,
				"ising": ising,
			})
		}

		fmt.Fprintf(out, "QUBO (%s, originally %s)\n", view.Sense, view.OriginalSense)
		fmt.Fprintf(out, "  constant %g\n", view.Constant)
		for i, v := range view.Variables {
			if view.Linear[i] != 0 {
				fmt.Fprintf(out, "  %+g %s\n", view.Linear[i], v)
			}
		}
		for _, t := range view.Quadratic {
			fmt.Fprintf(out, "  %+g %s*%s\n", t.Value, view.Variables[t.I], view.Variables[t.J])
		}

		fmt.Fprintf(out, "Ising\n  offset %g\n", ising.Offset)
		for i, h := range ising.H {
			if h != 0 {
				fmt.Fprintf(out, "  %+g Z%d\n", h, i)
			}
		}
		for _, t := range ising.J {
			fmt.Fprintf(out, "  %+g Z%d Z%d\n", t.Value, t.I, t.J)
		}
		return nil
	},
}
