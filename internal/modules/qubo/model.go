// Package qubo turns weighted Max-Cut instances into quadratic binary programs
// and converts them into minimization-form QUBO models.
package qubo

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Sense is the optimization direction of a model.
type Sense int

const (
	// Minimize is the QUBO direction expected by the optimizer.
	Minimize Sense = iota
	// Maximize is the natural Max-Cut direction.
	Maximize
)

func (s Sense) String() string {
	if s == Maximize {
		return "maximize"
	}
	return "minimize"
}

// Term is one off-diagonal quadratic coefficient, I < J.
type Term struct {
	I     int     `json:"i"`
	J     int     `json:"j"`
	Value float64 `json:"value"`
}

// Model is a quadratic objective over binary variables with no constraints:
//
//	f(x) = Constant + sum_i Linear[i]*x_i + sum_{i<j} Q(i,j)*x_i*x_j
//
// Only the off-diagonal of Quadratic is used; it is kept symmetric.
type Model struct {
	Name          string
	Sense         Sense
	OriginalSense Sense
	Constant      float64
	Linear        []float64
	Quadratic     *mat.SymDense
	Variables     []string
	NodeIDs       []int
}

func newModel(name string, nodeIDs []int, sense Sense) *Model {
	n := len(nodeIDs)
	vars := make([]string, n)
	for i, id := range nodeIDs {
		vars[i] = fmt.Sprintf("x_%d", id)
	}
	return &Model{
		Name:          name,
		Sense:         sense,
		OriginalSense: sense,
		Linear:        make([]float64, n),
		Quadratic:     mat.NewSymDense(n, nil),
		Variables:     vars,
		NodeIDs:       append([]int(nil), nodeIDs...),
	}
}

// NumVariables returns the number of binary variables.
func (m *Model) NumVariables() int {
	return len(m.Linear)
}

// addQuadratic accumulates a coefficient for x_i*x_j, i != j.
func (m *Model) addQuadratic(i, j int, v float64) {
	m.Quadratic.SetSym(i, j, m.Quadratic.At(i, j)+v)
}

// QuadraticTerms lists the non-zero off-diagonal coefficients with I < J.
func (m *Model) QuadraticTerms() []Term {
	n := m.NumVariables()
	var terms []Term
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			if v := m.Quadratic.At(i, j); v != 0 {
				terms = append(terms, Term{I: i, J: j, Value: v})
			}
		}
	}
	return terms
}

// Evaluate returns f(x) in the model's own sense. len(x) must equal NumVariables().
func (m *Model) Evaluate(x []int) float64 {
	n := m.NumVariables()
	value := m.Constant
	for i := 0; i < n; i++ {
		if x[i] == 0 {
			continue
		}
		value += m.Linear[i]
		for j := i + 1; j < n; j++ {
			if x[j] != 0 {
				value += m.Quadratic.At(i, j)
			}
		}
	}
	return value
}

// ObjectiveValue evaluates x and expresses the result in the sense of the program the
// model was converted from, undoing any sign flip.
func (m *Model) ObjectiveValue(x []int) float64 {
	v := m.Evaluate(x)
	if m.Sense != m.OriginalSense {
		return -v
	}
	return v
}

// View is a JSON-friendly snapshot of the model.
type View struct {
	Name          string    `json:"name"`
	Sense         string    `json:"sense"`
	OriginalSense string    `json:"original_sense"`
	Constant      float64   `json:"constant"`
	Variables     []string  `json:"variables"`
	Linear        []float64 `json:"linear"`
	Quadratic     []Term    `json:"quadratic"`
}

// View converts the model to plain values.
func (m *Model) View() View {
	terms := m.QuadraticTerms()
	if terms == nil {
		terms = []Term{}
	}
	return View{
		Name:          m.Name,
		Sense:         m.Sense.String(),
		OriginalSense: m.OriginalSense.String(),
		Constant:      m.Constant,
		Variables:     append([]string(nil), m.Variables...),
		Linear:        append([]float64(nil), m.Linear...),
		Quadratic:     terms,
	}
}
