package qaoa

import (
	"context"
	"fmt"
	"math"
	"math/cmplx"

	"gonum.org/v1/gonum/floats"
)

// StatevectorBackendName identifies the exact simulator in result metadata and metrics.
const StatevectorBackendName = "statevector-sampler"

// Backend prepares the ansatz state and returns its measurement distribution.
type Backend interface {
	Name() string
	Probabilities(ctx context.Context, a *Ansatz, params []float64) ([]float64, error)
}

// StatevectorBackend simulates the ansatz exactly on a dense complex statevector.
// It allocates per call and is safe for concurrent use.
type StatevectorBackend struct{}

// NewStatevectorBackend creates the default backend.
func NewStatevectorBackend() *StatevectorBackend {
	return &StatevectorBackend{}
}

// Name implements Backend.
func (b *StatevectorBackend) Name() string {
	return StatevectorBackendName
}

// Probabilities implements Backend.
func (b *StatevectorBackend) Probabilities(ctx context.Context, a *Ansatz, params []float64) ([]float64, error) {
	if len(params) != a.NumParams() {
		return nil, fmt.Errorf("%w: expected %d parameters, got %d", ErrInvalidParams, a.NumParams(), len(params))
	}

	dim := 1 << a.NumQubits
	amp := make([]complex128, dim)
	uniform := complex(1/math.Sqrt(float64(dim)), 0)
	for z := range amp {
		amp[z] = uniform
	}

	betas, gammas := a.Split(params)
	for k := 0; k < a.Reps; k++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		// Cost layer: diagonal phase exp(-i*gamma*E(z)).
		g := gammas[k] / a.scale
		for z := range amp {
			amp[z] *= cmplx.Exp(complex(0, -g*a.energies[z]))
		}

		// Mixer layer: RX(2*beta) on every qubit.
		c := complex(math.Cos(betas[k]), 0)
		s := complex(0, -math.Sin(betas[k]))
		for q := 0; q < a.NumQubits; q++ {
			bit := 1 << q
			for z := 0; z < dim; z++ {
				if z&bit != 0 {
					continue
				}
				a0, a1 := amp[z], amp[z|bit]
				amp[z] = c*a0 + s*a1
				amp[z|bit] = s*a0 + c*a1
			}
		}
	}

	probs := make([]float64, dim)
	for z, v := range amp {
		probs[z] = real(v)*real(v) + imag(v)*imag(v)
	}
	if err := checkDistribution(probs); err != nil {
		return nil, err
	}
	return probs, nil
}

// checkDistribution rejects vectors that are not a probability distribution.
func checkDistribution(probs []float64) error {
	if floats.HasNaN(probs) {
		return fmt.Errorf("%w: NaN probability", ErrNumericalInstability)
	}
	if total := floats.Sum(probs); math.Abs(total-1) > 1e-6 {
		return fmt.Errorf("%w: probabilities sum to %.9f", ErrNumericalInstability, total)
	}
	return nil
}
