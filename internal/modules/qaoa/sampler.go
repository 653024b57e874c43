package qaoa

import (
	"fmt"
	"math"
	"math/rand"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Sample draws shots basis states from probs and returns counts keyed by state index.
func Sample(probs []float64, shots int, rng *rand.Rand) map[int]int {
	cdf := floats.CumSum(make([]float64, len(probs)), probs)
	total := cdf[len(cdf)-1]

	counts := make(map[int]int)
	for s := 0; s < shots; s++ {
		u := rng.Float64() * total
		z := sort.Search(len(cdf), func(i int) bool { return cdf[i] > u })
		if z == len(cdf) {
			z = len(cdf) - 1
		}
		counts[z]++
	}
	return counts
}

// Estimate is a sampled (or exact) energy estimate.
type Estimate struct {
	Energy   float64
	Variance float64
}

// EstimateEnergy averages the energy of shots samples; shots <= 0 returns the exact
// expectation with zero variance.
func EstimateEnergy(a *Ansatz, probs []float64, shots int, rng *rand.Rand) (Estimate, error) {
	if shots <= 0 {
		return finiteEstimate(Estimate{Energy: a.Expectation(probs)})
	}

	counts := Sample(probs, shots, rng)
	states := sortedStates(counts)
	values := make([]float64, 0, len(states))
	weights := make([]float64, 0, len(states))
	for _, z := range states {
		values = append(values, a.Energy(z))
		weights = append(weights, float64(counts[z]))
	}

	if shots == 1 {
		return finiteEstimate(Estimate{Energy: values[0]})
	}
	mean, variance := stat.MeanVariance(values, weights)
	return finiteEstimate(Estimate{Energy: mean, Variance: variance})
}

// sortedStates returns the sampled states in ascending order so that sums are reproducible.
func sortedStates(counts map[int]int) []int {
	states := make([]int, 0, len(counts))
	for z := range counts {
		states = append(states, z)
	}
	sort.Ints(states)
	return states
}

func finiteEstimate(e Estimate) (Estimate, error) {
	if math.IsNaN(e.Energy) || math.IsInf(e.Energy, 0) {
		return Estimate{}, fmt.Errorf("%w: energy estimate %v", ErrNumericalInstability, e.Energy)
	}
	return e, nil
}
