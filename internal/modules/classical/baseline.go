// Package classical holds the comparison baseline for the QAOA solver: a uniformly
// random bipartition. It is intentionally not a Max-Cut heuristic.
package classical

import (
	"math/rand"

	"github.com/aristath/qdo/internal/modules/graph"
)

// Result is one random assignment and its cut.
type Result struct {
	// Assignment holds one bit per node, aligned to graph.Nodes().
	Assignment []int           `json:"assignment"`
	Partition  graph.Partition `json:"partition"`
	CutEdges   int             `json:"cut_edges"`
	CutValue   float64         `json:"cut_value"`
}

// RandomAssign puts every node in group 0 or 1 with equal probability.
func RandomAssign(g *graph.WeightedGraph, rng *rand.Rand) Result {
	bits := make([]int, g.NumNodes())
	for i := range bits {
		bits[i] = rng.Intn(2)
	}
	return Result{
		Assignment: bits,
		Partition:  g.PartitionOf(bits),
		CutEdges:   g.CutEdges(bits),
		CutValue:   g.CutValue(bits),
	}
}
