package graph

// Node and edge colours used when rendering a partition.
const (
	ColorGroupZero = "skyblue"
	ColorGroupOne  = "salmon"
	ColorCutEdge   = "green"
	ColorKeptEdge  = "gray"
)

// Partition maps a node id to its group (0 or 1).
type Partition map[int]int

// Coloring is the presentation view of a partition.
type Coloring struct {
	Nodes []string `json:"node_colors"`
	Edges []string `json:"edge_colors"`
}

// PartitionOf builds the node -> group view of a bit assignment aligned to Nodes().
func (g *WeightedGraph) PartitionOf(bits []int) Partition {
	p := make(Partition, len(g.nodes))
	for i, id := range g.nodes {
		p[id] = bits[i]
	}
	return p
}

// Bits converts a partition back to a bit slice aligned to Nodes(). Missing nodes read as 0.
func (g *WeightedGraph) Bits(p Partition) []int {
	bits := make([]int, len(g.nodes))
	for i, id := range g.nodes {
		bits[i] = p[id]
	}
	return bits
}

// Colors returns one colour per node (in Nodes() order) and one per edge (in Edges() order).
func (g *WeightedGraph) Colors(bits []int) Coloring {
	c := Coloring{
		Nodes: make([]string, len(g.nodes)),
		Edges: make([]string, len(g.edges)),
	}
	for i := range g.nodes {
		if bits[i] == 0 {
			c.Nodes[i] = ColorGroupZero
		} else {
			c.Nodes[i] = ColorGroupOne
		}
	}
	for i, e := range g.edges {
		if bits[g.index[e.U]] != bits[g.index[e.V]] {
			c.Edges[i] = ColorCutEdge
		} else {
			c.Edges[i] = ColorKeptEdge
		}
	}
	return c
}
