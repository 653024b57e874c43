// Package qaoa approximates the ground state of a QUBO model with a simulated
// Quantum Approximate Optimization Algorithm: a depth-p alternating cost/mixer ansatz,
// sampled energy estimates and a pluggable derivative-free parameter search.
package qaoa

import (
	"math"
	"math/rand"

	"github.com/aristath/qdo/internal/modules/graph"
	"github.com/aristath/qdo/internal/modules/qubo"
)

// DefaultMaxQubits bounds the statevector size (2^20 amplitudes, 16 MiB).
const DefaultMaxQubits = 20

// Ansatz is the QAOA state family prod_k U_M(beta_k) U_C(gamma_k) |+>^n for one model.
// Parameters are laid out as [beta_1..beta_p, gamma_1..gamma_p].
type Ansatz struct {
	NumQubits int
	Reps      int

	// energies[z] is the QUBO energy of basis state z (bit i of z is variable i).
	energies []float64
	// scale normalizes energies into [-1, 1] for the cost phase.
	scale    float64
	zzLayers int
	hasLocal bool
}

// NewAnsatz tabulates the diagonal cost of model for every basis state.
func NewAnsatz(model *qubo.Model, reps, maxQubits int) (*Ansatz, error) {
	n := model.NumVariables()
	if n == 0 {
		return nil, graph.NewInvalidGraphError("model has no variables")
	}
	if maxQubits <= 0 {
		maxQubits = DefaultMaxQubits
	}
	if n > maxQubits {
		return nil, graph.NewInvalidGraphError("%d nodes exceeds the %d-qubit simulator limit", n, maxQubits)
	}

	terms := model.QuadraticTerms()
	dim := 1 << n
	energies := make([]float64, dim)
	scale := 0.0
	for z := 0; z < dim; z++ {
		e := model.Constant
		for i := 0; i < n; i++ {
			if z>>i&1 == 1 {
				e += model.Linear[i]
			}
		}
		for _, t := range terms {
			if z>>t.I&1 == 1 && z>>t.J&1 == 1 {
				e += t.Value
			}
		}
		energies[z] = e
		scale = math.Max(scale, math.Abs(e))
	}
	if scale == 0 {
		scale = 1
	}

	is := model.ToIsing()
	hasLocal := false
	for _, h := range is.H {
		if h != 0 {
			hasLocal = true
			break
		}
	}

	return &Ansatz{
		NumQubits: n,
		Reps:      reps,
		energies:  energies,
		scale:     scale,
		zzLayers:  couplingLayers(n, is.J),
		hasLocal:  hasLocal,
	}, nil
}

// NumParams is the length of the parameter vector.
func (a *Ansatz) NumParams() int {
	return 2 * a.Reps
}

// Split returns views of the mixer and cost angles.
func (a *Ansatz) Split(params []float64) (betas, gammas []float64) {
	return params[:a.Reps], params[a.Reps : 2*a.Reps]
}

// Energy returns the QUBO energy of basis state z.
func (a *Ansatz) Energy(z int) float64 {
	return a.energies[z]
}

// Expectation is the exact expected energy under a probability vector.
func (a *Ansatz) Expectation(probs []float64) float64 {
	e := 0.0
	for z, p := range probs {
		e += p * a.energies[z]
	}
	return e
}

// InitialPoint draws beta in [0, pi) and gamma in [0, 2*pi).
func (a *Ansatz) InitialPoint(rng *rand.Rand) []float64 {
	x := make([]float64, a.NumParams())
	for k := 0; k < a.Reps; k++ {
		x[k] = rng.Float64() * math.Pi
		x[a.Reps+k] = rng.Float64() * 2 * math.Pi
	}
	return x
}

// CircuitDepth estimates the gate depth of the compiled circuit: one Hadamard layer, then
// per repetition the ZZ layers, an optional RZ layer for local fields and one RX mixer layer.
func (a *Ansatz) CircuitDepth() int {
	perRep := a.zzLayers + 1
	if a.hasLocal {
		perRep++
	}
	return 1 + a.Reps*perRep
}

// couplingLayers greedily packs two-qubit couplings into layers with disjoint qubits.
func couplingLayers(n int, couplings []qubo.Term) int {
	busy := make([]map[int]bool, n)
	for i := range busy {
		busy[i] = map[int]bool{}
	}
	layers := 0
	for _, c := range couplings {
		layer := 0
		for busy[c.I][layer] || busy[c.J][layer] {
			layer++
		}
		busy[c.I][layer] = true
		busy[c.J][layer] = true
		if layer+1 > layers {
			layers = layer + 1
		}
	}
	return layers
}
