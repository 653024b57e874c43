package graph

// Cycle returns the unit-weight cycle 0-1-...-(n-1)-0. n must be at least 3.
func Cycle(n int) (*WeightedGraph, error) {
	if n < 3 {
		return nil, NewInvalidGraphError("cycle needs at least 3 nodes, got %d", n)
	}
	edges := make([]Edge, n)
	for i := 0; i < n; i++ {
		edges[i] = Edge{U: i, V: (i + 1) % n, Weight: DefaultWeight}
	}
	return FromEdges(edges)
}

// Path returns the unit-weight path 0-1-...-(n-1).
func Path(n int) (*WeightedGraph, error) {
	if n < 1 {
		return nil, NewInvalidGraphError("path needs at least 1 node, got %d", n)
	}
	edges := make([]Edge, 0, n-1)
	for i := 0; i+1 < n; i++ {
		edges = append(edges, Edge{U: i, V: i + 1, Weight: DefaultWeight})
	}
	return FromEdges(edges, 0)
}

// Complete returns the unit-weight complete graph on n nodes.
func Complete(n int) (*WeightedGraph, error) {
	if n < 1 {
		return nil, NewInvalidGraphError("complete graph needs at least 1 node, got %d", n)
	}
	edges := make([]Edge, 0, n*(n-1)/2)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			edges = append(edges, Edge{U: i, V: j, Weight: DefaultWeight})
		}
	}
	return FromEdges(edges, 0)
}
