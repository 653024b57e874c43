// Package maxcut ties the Max-Cut pipeline together: formulation, the QAOA solve, the
// translation back into graph terms and the classical comparison baseline.
package maxcut

import (
	"errors"
	"fmt"

	"github.com/aristath/qdo/internal/modules/graph"
	"github.com/aristath/qdo/internal/modules/qaoa"
	"github.com/aristath/qdo/internal/modules/qubo"
)

// ErrMalformedOutput is returned by Translate when raw solver output does not fit the model.
var ErrMalformedOutput = errors.New("maxcut: malformed solver output")

// Metadata describes how a result was produced. All fields are plain values.
type Metadata struct {
	NumQubits    int       `json:"num_qubits"`
	CircuitDepth int       `json:"circuit_depth"`
	Reps         int       `json:"reps"`
	Backend      string    `json:"backend"`
	Optimizer    string    `json:"optimizer"`
	Evaluations  int       `json:"evaluations"`
	Iterations   int       `json:"iterations"`
	Status       string    `json:"status"`
	Probability  float64   `json:"probability"`
	ExpectedCut  float64   `json:"expected_cut"`
	Params       []float64 `json:"params"`
}

// OptimizationResult is the QAOA answer expressed on the graph.
// Bits is aligned to the model's node order (ascending node id).
type OptimizationResult struct {
	Bits      []int           `json:"bits"`
	CutValue  float64         `json:"cut_value"`
	Partition graph.Partition `json:"partition"`
	Metadata  Metadata        `json:"metadata"`
}

// Translate maps raw solver output back to cut value and partition, undoing the sign
// flip applied when the program was converted to QUBO form. It does no sampling and
// returns a fresh value on every call.
func Translate(model *qubo.Model, raw *qaoa.RawOutput) (*OptimizationResult, error) {
	if model == nil || raw == nil {
		return nil, fmt.Errorf("%w: nil model or output", ErrMalformedOutput)
	}
	n := model.NumVariables()
	if len(raw.Bits) != n {
		return nil, fmt.Errorf("%w: %d bits for %d variables", ErrMalformedOutput, len(raw.Bits), n)
	}

	bits := make([]int, n)
	partition := make(graph.Partition, n)
	for i, b := range raw.Bits {
		if b != 0 && b != 1 {
			return nil, fmt.Errorf("%w: bit %d is %d", ErrMalformedOutput, i, b)
		}
		bits[i] = b
		partition[model.NodeIDs[i]] = b
	}

	expected := raw.ExpectedEnergy
	if model.Sense != model.OriginalSense {
		expected = -expected
	}
	params := make([]float64, len(raw.Params))
	copy(params, raw.Params)

	return &OptimizationResult{
		Bits:      bits,
		CutValue:  model.ObjectiveValue(bits),
		Partition: partition,
		Metadata: Metadata{
			NumQubits:    n,
			CircuitDepth: raw.CircuitDepth,
			Reps:         raw.Reps,
			Backend:      raw.Backend,
			Optimizer:    raw.Optimizer,
			Evaluations:  raw.Evaluations,
			Iterations:   raw.Iterations,
			Status:       raw.Status,
			Probability:  raw.Probability,
			ExpectedCut:  expected,
			Params:       params,
		},
	}, nil
}
