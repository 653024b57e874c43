package qubo

import (
	"gonum.org/v1/gonum/mat"

	"github.com/aristath/qdo/internal/modules/graph"
)

// NewMaxCutProgram builds the maximization program
//
//	max sum_{(u,v,w)} w*(x_u + x_v - 2*x_u*x_v)
//
// whose value at any assignment is exactly the weighted cut. Zero edges is legal.
func NewMaxCutProgram(g *graph.WeightedGraph) (*Model, error) {
	if g == nil || g.NumNodes() == 0 {
		return nil, graph.NewInvalidGraphError("graph has no nodes")
	}

	m := newModel("MaxCut", g.Nodes(), Maximize)
	for _, e := range g.Edges() {
		i, _ := g.Index(e.U)
		j, _ := g.Index(e.V)
		m.Linear[i] += e.Weight
		m.Linear[j] += e.Weight
		m.addQuadratic(i, j, -2*e.Weight)
	}
	return m, nil
}

// ToQUBO converts a program into minimization form. Max-Cut has no constraints, so this
// is a sign flip of every coefficient when the program maximizes and a copy otherwise.
func ToQUBO(p *Model) *Model {
	n := p.NumVariables()
	q := &Model{
		Name:          p.Name,
		Sense:         Minimize,
		OriginalSense: p.OriginalSense,
		Constant:      p.Constant,
		Linear:        append([]float64(nil), p.Linear...),
		Quadratic:     mat.NewSymDense(n, nil),
		Variables:     append([]string(nil), p.Variables...),
		NodeIDs:       append([]int(nil), p.NodeIDs...),
	}
	q.Quadratic.CopySym(p.Quadratic)

	if p.Sense == Maximize {
		q.Constant = -q.Constant
		for i := range q.Linear {
			q.Linear[i] = -q.Linear[i]
		}
		q.Quadratic.ScaleSym(-1, q.Quadratic)
	}
	return q
}

// Formulate builds the Max-Cut program for g and returns it in QUBO form.
func Formulate(g *graph.WeightedGraph) (*Model, error) {
	p, err := NewMaxCutProgram(g)
	if err != nil {
		return nil, err
	}
	return ToQUBO(p), nil
}
