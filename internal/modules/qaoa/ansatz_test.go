package qaoa

import (
	"context"
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/floats"

	"github.com/aristath/qdo/internal/modules/graph"
	"github.com/aristath/qdo/internal/modules/qubo"
)

func formulate(t *testing.T, g *graph.WeightedGraph, err error) *qubo.Model {
	t.Helper()
	require.NoError(t, err)
	m, err := qubo.Formulate(g)
	require.NoError(t, err)
	return m
}

func singleEdge(t *testing.T) *qubo.Model {
	g, err := graph.FromEdges([]graph.Edge{{U: 0, V: 1, Weight: 5}})
	return formulate(t, g, err)
}

func fourCycle(t *testing.T) *qubo.Model {
	g, err := graph.Cycle(4)
	return formulate(t, g, err)
}

func TestNewAnsatz_TabulatesEnergies(t *testing.T) {
	a, err := NewAnsatz(singleEdge(t), 1, 0)
	require.NoError(t, err)

	assert.Equal(t, 2, a.NumQubits)
	assert.Equal(t, 2, a.NumParams())
	assert.Equal(t, 0.0, a.Energy(0b00))
	assert.Equal(t, -5.0, a.Energy(0b01))
	assert.Equal(t, -5.0, a.Energy(0b10))
	assert.Equal(t, 0.0, a.Energy(0b11))
	assert.Equal(t, 5.0, a.scale)
}

func TestNewAnsatz_RejectsTooManyQubits(t *testing.T) {
	g, err := graph.Path(5)
	m := formulate(t, g, err)

	_, err = NewAnsatz(m, 1, 4)
	assert.ErrorIs(t, err, graph.ErrInvalidGraph)
}

func TestNewAnsatz_NoEdgesKeepsUnitScale(t *testing.T) {
	g, err := graph.New([]int{7}, nil)
	m := formulate(t, g, err)

	a, err := NewAnsatz(m, 1, 0)
	require.NoError(t, err)
	assert.Equal(t, 1.0, a.scale)
	assert.Equal(t, 1+1, a.CircuitDepth())
}

func TestAnsatz_CircuitDepth(t *testing.T) {
	a, err := NewAnsatz(singleEdge(t), 1, 0)
	require.NoError(t, err)
	// H, one ZZ layer, RX; Max-Cut has no local fields.
	assert.Equal(t, 3, a.CircuitDepth())

	a, err = NewAnsatz(fourCycle(t), 2, 0)
	require.NoError(t, err)
	// An even cycle needs two ZZ layers per repetition.
	assert.Equal(t, 1+2*3, a.CircuitDepth())
}

func TestAnsatz_InitialPointRanges(t *testing.T) {
	a, err := NewAnsatz(fourCycle(t), 3, 0)
	require.NoError(t, err)

	x := a.InitialPoint(rand.New(rand.NewSource(1)))
	require.Len(t, x, 6)
	betas, gammas := a.Split(x)
	for _, b := range betas {
		assert.True(t, b >= 0 && b < math.Pi)
	}
	for _, g := range gammas {
		assert.True(t, g >= 0 && g < 2*math.Pi)
	}
}

func TestStatevectorBackend_ZeroAnglesIsUniform(t *testing.T) {
	a, err := NewAnsatz(fourCycle(t), 1, 0)
	require.NoError(t, err)

	probs, err := NewStatevectorBackend().Probabilities(context.Background(), a, []float64{0, 0})
	require.NoError(t, err)
	require.Len(t, probs, 16)
	for _, p := range probs {
		assert.InDelta(t, 1.0/16, p, 1e-12)
	}
}

func TestStatevectorBackend_IsNormalized(t *testing.T) {
	a, err := NewAnsatz(fourCycle(t), 2, 0)
	require.NoError(t, err)

	probs, err := NewStatevectorBackend().Probabilities(context.Background(), a, []float64{0.3, 1.1, 2.2, 0.7})
	require.NoError(t, err)
	assert.InDelta(t, 1.0, floats.Sum(probs), 1e-9)
}

func TestStatevectorBackend_PrefersCutStatesAtGoodAngles(t *testing.T) {
	a, err := NewAnsatz(singleEdge(t), 1, 0)
	require.NoError(t, err)

	uniform, err := NewStatevectorBackend().Probabilities(context.Background(), a, []float64{0, 0})
	require.NoError(t, err)

	// Scan a coarse grid; some angles must beat the uniform expectation.
	bestE := a.Expectation(uniform)
	for b := 0.0; b < math.Pi; b += math.Pi / 16 {
		for g := 0.0; g < 2*math.Pi; g += math.Pi / 16 {
			probs, err := NewStatevectorBackend().Probabilities(context.Background(), a, []float64{b, g})
			require.NoError(t, err)
			bestE = math.Min(bestE, a.Expectation(probs))
		}
	}
	assert.Less(t, bestE, a.Expectation(uniform)-1)
}

func TestStatevectorBackend_WrongParamCount(t *testing.T) {
	a, err := NewAnsatz(singleEdge(t), 2, 0)
	require.NoError(t, err)

	_, err = NewStatevectorBackend().Probabilities(context.Background(), a, []float64{0.1})
	assert.ErrorIs(t, err, ErrInvalidParams)
}

func TestStatevectorBackend_Cancelled(t *testing.T) {
	a, err := NewAnsatz(singleEdge(t), 1, 0)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = NewStatevectorBackend().Probabilities(ctx, a, []float64{0.1, 0.2})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestCheckDistribution(t *testing.T) {
	assert.NoError(t, checkDistribution([]float64{0.25, 0.75}))
	assert.ErrorIs(t, checkDistribution([]float64{0.5, math.NaN()}), ErrNumericalInstability)
	assert.ErrorIs(t, checkDistribution([]float64{0.5, 0.4}), ErrNumericalInstability)
}
