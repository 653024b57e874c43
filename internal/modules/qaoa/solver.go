package qaoa

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/qdo/internal/modules/qubo"
)

// Solver defaults.
const (
	DefaultShots          = 1024
	DefaultFinalShots     = 4096
	DefaultMaxEvalRetries = 3
)

// Config holds solver-wide settings shared by every solve.
type Config struct {
	Shots          int
	FinalShots     int
	MaxQubits      int
	MaxEvalRetries int
}

func (c Config) withDefaults() Config {
	if c.Shots <= 0 {
		c.Shots = DefaultShots
	}
	if c.FinalShots <= 0 {
		c.FinalShots = DefaultFinalShots
	}
	if c.MaxQubits <= 0 {
		c.MaxQubits = DefaultMaxQubits
	}
	if c.MaxEvalRetries < 0 {
		c.MaxEvalRetries = 0
	}
	return c
}

// Params are the per-call knobs of a solve.
type Params struct {
	Depth         int
	MaxIterations int
	// Shots and FinalShots override the solver config when positive.
	Shots      int
	FinalShots int
	// Searcher overrides the solver's default strategy when set.
	Searcher Searcher
	// Rand drives initial parameters and sampling. Nil means a time-seeded source.
	Rand *rand.Rand
	// Progress, if set, is called after every successful objective evaluation.
	Progress func(Progress)
}

// Progress is one objective evaluation of the parameter search.
type Progress struct {
	Iteration  int       `json:"iteration"`
	Energy     float64   `json:"energy"`
	BestEnergy float64   `json:"best_energy"`
	Params     []float64 `json:"params"`
}

// RawOutput is the solver's result before translation into graph terms.
// Fval is the QUBO energy of Bits in the model's own (minimization) sense.
type RawOutput struct {
	Bits           []int
	Fval           float64
	Params         []float64
	Reps           int
	NumQubits      int
	CircuitDepth   int
	Backend        string
	Optimizer      string
	Evaluations    int
	Iterations     int
	Status         string
	Probability    float64
	ExpectedEnergy float64
}

// Solver runs QAOA parameter searches. It holds no per-solve state and is safe for
// concurrent use.
type Solver struct {
	backend  Backend
	searcher Searcher
	cfg      Config
	log      zerolog.Logger
}

// NewSolver creates a solver. A nil backend or searcher selects the statevector
// backend and Nelder-Mead.
func NewSolver(backend Backend, searcher Searcher, cfg Config, log zerolog.Logger) *Solver {
	if backend == nil {
		backend = NewStatevectorBackend()
	}
	if searcher == nil {
		searcher = NewNelderMead()
	}
	return &Solver{
		backend:  backend,
		searcher: searcher,
		cfg:      cfg.withDefaults(),
		log:      log.With().Str("component", "qaoa_solver").Logger(),
	}
}

// Backend returns the execution backend used by the solver.
func (s *Solver) Backend() Backend {
	return s.backend
}

// Solve searches ansatz parameters minimizing the sampled energy of model and returns the
// best bitstring from a final sampling pass at the best parameters found.
func (s *Solver) Solve(ctx context.Context, model *qubo.Model, p Params) (*RawOutput, error) {
	if p.Depth < 1 {
		return nil, fmt.Errorf("%w: depth must be >= 1, got %d", ErrInvalidParams, p.Depth)
	}
	if p.MaxIterations < 1 {
		return nil, fmt.Errorf("%w: max_iterations must be >= 1, got %d", ErrInvalidParams, p.MaxIterations)
	}

	ansatz, err := NewAnsatz(model, p.Depth, s.cfg.MaxQubits)
	if err != nil {
		return nil, err
	}

	rng := p.Rand
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	searcher := p.Searcher
	if searcher == nil {
		searcher = s.searcher
	}
	shots := s.cfg.Shots
	if p.Shots > 0 {
		shots = p.Shots
	}
	finalShots := s.cfg.FinalShots
	if p.FinalShots > 0 {
		finalShots = p.FinalShots
	}

	log := s.log.With().
		Int("qubits", ansatz.NumQubits).
		Int("depth", p.Depth).
		Str("optimizer", searcher.Name()).
		Logger()

	evaluations := 0
	best := 0.0
	objective := func(x []float64) (float64, error) {
		evaluations++
		est, err := s.evaluate(ctx, ansatz, x, shots, rng, evaluations, log)
		if err != nil {
			return 0, err
		}
		if evaluations == 1 || est.Energy < best {
			best = est.Energy
		}
		if p.Progress != nil {
			p.Progress(Progress{
				Iteration:  evaluations,
				Energy:     est.Energy,
				BestEnergy: best,
				Params:     append([]float64(nil), x...),
			})
		}
		return est.Energy, nil
	}

	x0 := ansatz.InitialPoint(rng)
	found, err := searcher.Minimize(ctx, objective, x0, p.MaxIterations)
	if err != nil {
		return nil, s.fail(ctx, log, p.Depth, evaluations, err)
	}

	probs, err := s.probabilities(ctx, ansatz, found.X, evaluations, log)
	if err != nil {
		return nil, s.fail(ctx, log, p.Depth, evaluations, err)
	}
	counts := Sample(probs, finalShots, rng)
	z := bestState(ansatz, counts)

	out := &RawOutput{
		Bits:           bitsOf(z, ansatz.NumQubits),
		Fval:           ansatz.Energy(z),
		Params:         append([]float64(nil), found.X...),
		Reps:           p.Depth,
		NumQubits:      ansatz.NumQubits,
		CircuitDepth:   ansatz.CircuitDepth(),
		Backend:        s.backend.Name(),
		Optimizer:      searcher.Name(),
		Evaluations:    evaluations,
		Iterations:     found.Iterations,
		Status:         found.Status,
		Probability:    float64(counts[z]) / float64(finalShots),
		ExpectedEnergy: ansatz.Expectation(probs),
	}

	log.Debug().
		Int("evaluations", out.Evaluations).
		Str("status", out.Status).
		Float64("fval", out.Fval).
		Msg("QAOA search finished")

	return out, nil
}

// evaluate estimates the energy at x, retrying transient numerical failures.
func (s *Solver) evaluate(ctx context.Context, a *Ansatz, x []float64, shots int, rng *rand.Rand, iteration int, log zerolog.Logger) (Estimate, error) {
	var lastErr error
	for attempt := 0; attempt <= s.cfg.MaxEvalRetries; attempt++ {
		if attempt > 0 {
			log.Warn().Err(lastErr).Int("iteration", iteration).Int("attempt", attempt).Msg("Retrying objective evaluation")
		}
		probs, err := s.backend.Probabilities(ctx, a, x)
		if err == nil {
			var est Estimate
			est, err = EstimateEnergy(a, probs, shots, rng)
			if err == nil {
				return est, nil
			}
		}
		if !errors.Is(err, ErrNumericalInstability) {
			return Estimate{}, err
		}
		lastErr = err
	}
	return Estimate{}, &OptimizationFailedError{Depth: a.Reps, Iteration: iteration, Err: lastErr}
}

// probabilities runs the backend for the final sampling pass with the same retry bound.
func (s *Solver) probabilities(ctx context.Context, a *Ansatz, x []float64, iteration int, log zerolog.Logger) ([]float64, error) {
	var lastErr error
	for attempt := 0; attempt <= s.cfg.MaxEvalRetries; attempt++ {
		if attempt > 0 {
			log.Warn().Err(lastErr).Int("attempt", attempt).Msg("Retrying final sampling pass")
		}
		probs, err := s.backend.Probabilities(ctx, a, x)
		if err == nil {
			return probs, nil
		}
		if !errors.Is(err, ErrNumericalInstability) {
			return nil, err
		}
		lastErr = err
	}
	return nil, &OptimizationFailedError{Depth: a.Reps, Iteration: iteration, Err: lastErr}
}

// fail classifies a search error. Cancellation stays matchable with errors.Is so callers can
// tell a timeout from a failed search.
func (s *Solver) fail(ctx context.Context, log zerolog.Logger, depth, iteration int, err error) error {
	if ctx.Err() != nil && (errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)) {
		log.Warn().Err(err).Int("iteration", iteration).Msg("QAOA search cancelled")
		return fmt.Errorf("qaoa: %w", err)
	}

	var failed *OptimizationFailedError
	if !errors.As(err, &failed) {
		failed = &OptimizationFailedError{Depth: depth, Iteration: iteration, Err: err}
	}
	log.Error().
		Err(failed.Err).
		Int("depth", failed.Depth).
		Int("iteration", failed.Iteration).
		Msg("QAOA optimization failed")
	return failed
}

// bestState picks the sampled state with the lowest energy; ties go to the state seen
// more often, then to the lower index.
func bestState(a *Ansatz, counts map[int]int) int {
	best := -1
	for _, z := range sortedStates(counts) {
		if best < 0 {
			best = z
			continue
		}
		e, be := a.Energy(z), a.Energy(best)
		if e < be || (e == be && counts[z] > counts[best]) {
			best = z
		}
	}
	return best
}

func bitsOf(z, n int) []int {
	bits := make([]int, n)
	for i := 0; i < n; i++ {
		bits[i] = z>>i&1
	}
	return bits
}
