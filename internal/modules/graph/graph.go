// Package graph provides the weighted undirected graph the Max-Cut solvers work on.
package graph

import (
	"math"
	"sort"
)

// DefaultWeight is applied by loaders when an edge carries no weight.
const DefaultWeight = 1.0

// Edge is an undirected weighted edge between two distinct nodes.
type Edge struct {
	U      int     `json:"u" yaml:"u" msgpack:"u"`
	V      int     `json:"v" yaml:"v" msgpack:"v"`
	Weight float64 `json:"weight" yaml:"weight" msgpack:"weight"`
}

// WeightedGraph is an immutable weighted undirected graph.
// Nodes are kept sorted ascending; the position of a node in Nodes() is its variable index.
type WeightedGraph struct {
	nodes []int
	index map[int]int
	edges []Edge
}

type edgeKey struct{ a, b int }

func keyOf(u, v int) edgeKey {
	if u > v {
		u, v = v, u
	}
	return edgeKey{u, v}
}

// New validates nodes and edges and builds a graph.
// Every edge endpoint must be listed in nodes.
func New(nodes []int, edges []Edge) (*WeightedGraph, error) {
	g := &WeightedGraph{
		nodes: make([]int, 0, len(nodes)),
		index: make(map[int]int, len(nodes)),
		edges: make([]Edge, 0, len(edges)),
	}

	sorted := append([]int(nil), nodes...)
	sort.Ints(sorted)
	for i, id := range sorted {
		if i > 0 && sorted[i-1] == id {
			return nil, NewInvalidGraphError("duplicate node %d", id)
		}
		g.index[id] = len(g.nodes)
		g.nodes = append(g.nodes, id)
	}

	seen := make(map[edgeKey]struct{}, len(edges))
	for _, e := range edges {
		if e.U == e.V {
			return nil, NewInvalidGraphError("self-loop on node %d", e.U)
		}
		if _, ok := g.index[e.U]; !ok {
			return nil, NewInvalidGraphError("edge (%d,%d) references unknown node %d", e.U, e.V, e.U)
		}
		if _, ok := g.index[e.V]; !ok {
			return nil, NewInvalidGraphError("edge (%d,%d) references unknown node %d", e.U, e.V, e.V)
		}
		if math.IsNaN(e.Weight) || math.IsInf(e.Weight, 0) || e.Weight <= 0 {
			return nil, NewInvalidGraphError("edge (%d,%d) has non-positive weight %v", e.U, e.V, e.Weight)
		}
		k := keyOf(e.U, e.V)
		if _, dup := seen[k]; dup {
			return nil, NewInvalidGraphError("duplicate edge (%d,%d)", e.U, e.V)
		}
		seen[k] = struct{}{}
		g.edges = append(g.edges, e)
	}

	return g, nil
}

// FromEdges builds a graph whose node set is the union of edge endpoints plus any extra nodes.
func FromEdges(edges []Edge, extraNodes ...int) (*WeightedGraph, error) {
	set := make(map[int]struct{}, len(edges)*2+len(extraNodes))
	nodes := make([]int, 0, len(edges)*2+len(extraNodes))
	add := func(id int) {
		if _, ok := set[id]; !ok {
			set[id] = struct{}{}
			nodes = append(nodes, id)
		}
	}
	for _, e := range edges {
		add(e.U)
		add(e.V)
	}
	for _, id := range extraNodes {
		add(id)
	}
	return New(nodes, edges)
}

// Nodes returns the node ids in ascending order.
func (g *WeightedGraph) Nodes() []int {
	return append(make([]int, 0, len(g.nodes)), g.nodes...)
}

// Edges returns the edges in insertion order.
func (g *WeightedGraph) Edges() []Edge {
	return append(make([]Edge, 0, len(g.edges)), g.edges...)
}

// NumNodes returns the node count.
func (g *WeightedGraph) NumNodes() int { return len(g.nodes) }

// NumEdges returns the edge count.
func (g *WeightedGraph) NumEdges() int { return len(g.edges) }

// Index returns the variable index of a node id.
func (g *WeightedGraph) Index(id int) (int, bool) {
	i, ok := g.index[id]
	return i, ok
}

// TotalWeight is the sum of all edge weights (an upper bound on any cut).
func (g *WeightedGraph) TotalWeight() float64 {
	total := 0.0
	for _, e := range g.edges {
		total += e.Weight
	}
	return total
}

// CutValue returns the total weight of edges whose endpoints sit in different groups.
// bits is aligned to Nodes(); its length must equal NumNodes().
func (g *WeightedGraph) CutValue(bits []int) float64 {
	value := 0.0
	for _, e := range g.edges {
		if bits[g.index[e.U]] != bits[g.index[e.V]] {
			value += e.Weight
		}
	}
	return value
}

// CutEdges counts the edges crossing the partition, ignoring weights.
func (g *WeightedGraph) CutEdges(bits []int) int {
	count := 0
	for _, e := range g.edges {
		if bits[g.index[e.U]] != bits[g.index[e.V]] {
			count++
		}
	}
	return count
}
