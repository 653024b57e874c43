package maxcut

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/qdo/internal/modules/graph"
	"github.com/aristath/qdo/internal/modules/qaoa"
	"github.com/aristath/qdo/internal/modules/qubo"
)

func model(t *testing.T, edges []graph.Edge) *qubo.Model {
	t.Helper()
	g, err := graph.FromEdges(edges)
	require.NoError(t, err)
	m, err := qubo.Formulate(g)
	require.NoError(t, err)
	return m
}

func TestTranslate_InvertsSignFlip(t *testing.T) {
	m := model(t, []graph.Edge{{U: 10, V: 20, Weight: 5}})
	raw := &qaoa.RawOutput{
		Bits:           []int{1, 0},
		Fval:           -5,
		Params:         []float64{0.4, 1.2},
		Reps:           1,
		NumQubits:      2,
		CircuitDepth:   3,
		Backend:        qaoa.StatevectorBackendName,
		Optimizer:      qaoa.StrategyNelderMead,
		Evaluations:    42,
		Status:         "FunctionConvergence",
		Probability:    0.49,
		ExpectedEnergy: -4.5,
	}

	res, err := Translate(m, raw)
	require.NoError(t, err)
	assert.Equal(t, 5.0, res.CutValue)
	assert.Equal(t, []int{1, 0}, res.Bits)
	assert.Equal(t, graph.Partition{10: 1, 20: 0}, res.Partition)
	assert.Equal(t, 2, res.Metadata.NumQubits)
	assert.Equal(t, 3, res.Metadata.CircuitDepth)
	assert.Equal(t, 1, res.Metadata.Reps)
	assert.Equal(t, qaoa.StatevectorBackendName, res.Metadata.Backend)
	assert.Equal(t, 4.5, res.Metadata.ExpectedCut)
	assert.Equal(t, []float64{0.4, 1.2}, res.Metadata.Params)
}

func TestTranslate_IsIdempotent(t *testing.T) {
	m := model(t, []graph.Edge{{U: 0, V: 1, Weight: 1}, {U: 1, V: 2, Weight: 2}})
	raw := &qaoa.RawOutput{Bits: []int{0, 1, 0}, Params: []float64{0.1, 0.2}, Reps: 1, Backend: "b"}

	first, err := Translate(m, raw)
	require.NoError(t, err)
	second, err := Translate(m, raw)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 3.0, first.CutValue)

	// Results do not alias the raw output.
	first.Bits[0] = 1
	first.Metadata.Params[0] = 9
	assert.Equal(t, []int{0, 1, 0}, raw.Bits)
	assert.Equal(t, 0.1, raw.Params[0])
}

func TestTranslate_CutMatchesClassicalCutValue(t *testing.T) {
	g, err := graph.Complete(5)
	require.NoError(t, err)
	m, err := qubo.Formulate(g)
	require.NoError(t, err)

	for z := 0; z < 1<<5; z++ {
		bits := make([]int, 5)
		for i := range bits {
			bits[i] = (z >> i) & 1
		}
		res, err := Translate(m, &qaoa.RawOutput{Bits: bits})
		require.NoError(t, err)
		assert.Equal(t, g.CutValue(bits), res.CutValue)
	}
}

func TestTranslate_RejectsMalformedOutput(t *testing.T) {
	m := model(t, []graph.Edge{{U: 0, V: 1, Weight: 1}})

	_, err := Translate(m, &qaoa.RawOutput{Bits: []int{1}})
	assert.ErrorIs(t, err, ErrMalformedOutput)

	_, err = Translate(m, &qaoa.RawOutput{Bits: []int{1, 2}})
	assert.ErrorIs(t, err, ErrMalformedOutput)

	_, err = Translate(m, nil)
	assert.ErrorIs(t, err, ErrMalformedOutput)
}

func TestTranslate_EmptyParamsSerializeAsList(t *testing.T) {
	m := model(t, []graph.Edge{{U: 0, V: 1, Weight: 1}})
	res, err := Translate(m, &qaoa.RawOutput{Bits: []int{0, 1}})
	require.NoError(t, err)
	assert.NotNil(t, res.Metadata.Params)
	assert.Empty(t, res.Metadata.Params)
}
