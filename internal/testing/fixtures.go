package testing

import (
	"testing"

	"github.com/aristath/qdo/internal/modules/graph"
)

// SampleEdges is the five-node weighted graph shipped in data/sample_graph.json.
func SampleEdges() []graph.Edge {
	return []graph.Edge{
		{U: 0, V: 1, Weight: 1},
		{U: 0, V: 2, Weight: 2},
		{U: 1, V: 2, Weight: 1},
		{U: 1, V: 3, Weight: 3},
		{U: 2, V: 4, Weight: 1},
		{U: 3, V: 4, Weight: 2},
	}
}

// SampleGraph builds SampleEdges into a graph.
func SampleGraph(t *testing.T) *graph.WeightedGraph {
	t.Helper()
	g, err := graph.FromEdges(SampleEdges())
	if err != nil {
		t.Fatalf("Failed to build sample graph: %v", err)
	}
	return g
}

// SampleJSON is SampleEdges in the loader's JSON format, with one edge relying on the default weight.
const SampleJSON = `{
  "edges": [
    {"u": 0, "v": 1},
    {"u": 0, "v": 2, "weight": 2},
    {"u": 1, "v": 2, "weight": 1},
    {"u": 1, "v": 3, "weight": 3},
    {"u": 2, "v": 4, "weight": 1},
    {"u": 3, "v": 4, "weight": 2}
  ]
}`
