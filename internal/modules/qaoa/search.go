package qaoa

import (
	"context"
	"fmt"
	"math"
	"strings"

	"gonum.org/v1/gonum/optimize"
)

// Search strategy names accepted by NewSearcher.
const (
	StrategyNelderMead = "nelder-mead"
	StrategyCompass    = "compass"
)

// Objective is a noisy scalar function of the ansatz parameters.
type Objective func(params []float64) (float64, error)

// SearchResult is the best point a Searcher found.
type SearchResult struct {
	X           []float64
	F           float64
	Evaluations int
	Iterations  int
	Status      string
}

// Searcher is a derivative-free minimization strategy. Implementations must stop when
// ctx is done or the objective returns an error, and must not exceed maxEvaluations.
type Searcher interface {
	Name() string
	Minimize(ctx context.Context, f Objective, x0 []float64, maxEvaluations int) (SearchResult, error)
}

// NewSearcher returns the strategy registered under name.
func NewSearcher(name string) (Searcher, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", StrategyNelderMead:
		return NewNelderMead(), nil
	case StrategyCompass:
		return NewCompassSearch(), nil
	default:
		return nil, fmt.Errorf("%w: unknown search strategy %q", ErrInvalidParams, name)
	}
}

// NelderMead runs gonum's simplex method. Convergence is declared when the best value
// has not improved by more than Tolerance for StallIterations major iterations.
type NelderMead struct {
	SimplexSize     float64
	Tolerance       float64
	StallIterations int
}

// NewNelderMead returns the default simplex configuration.
func NewNelderMead() *NelderMead {
	return &NelderMead{
		SimplexSize:     0.5,
		Tolerance:       1e-4,
		StallIterations: 25,
	}
}

// Name implements Searcher.
func (s *NelderMead) Name() string {
	return StrategyNelderMead
}

// Minimize implements Searcher.
func (s *NelderMead) Minimize(ctx context.Context, f Objective, x0 []float64, maxEvaluations int) (SearchResult, error) {
	var evalErr error
	problem := optimize.Problem{
		Func: func(x []float64) float64 {
			if evalErr != nil {
				return math.Inf(1)
			}
			v, err := f(x)
			if err != nil {
				evalErr = err
				return math.Inf(1)
			}
			return v
		},
	}

	settings := &optimize.Settings{
		FuncEvaluations: maxEvaluations,
		Concurrent:      1,
		Converger: &optimize.FunctionConverge{
			Absolute:   s.Tolerance,
			Iterations: s.StallIterations,
		},
		Recorder: &stopRecorder{ctx: ctx, evalErr: &evalErr},
	}

	result, err := optimize.Minimize(problem, x0, settings, &optimize.NelderMead{SimplexSize: s.SimplexSize})
	if evalErr != nil {
		return SearchResult{}, evalErr
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return SearchResult{}, ctxErr
	}
	if result == nil {
		return SearchResult{}, fmt.Errorf("nelder-mead: %w", err)
	}
	if err != nil && !budgetExhausted(result.Status) {
		return SearchResult{}, fmt.Errorf("nelder-mead: %w", err)
	}

	return SearchResult{
		X:           append([]float64(nil), result.X...),
		F:           result.F,
		Evaluations: result.Stats.FuncEvaluations,
		Iterations:  result.Stats.MajorIterations,
		Status:      result.Status.String(),
	}, nil
}

func budgetExhausted(status optimize.Status) bool {
	switch status {
	case optimize.FunctionEvaluationLimit, optimize.IterationLimit, optimize.RuntimeLimit:
		return true
	}
	return false
}

// stopRecorder aborts gonum's loop once the context is done or an evaluation failed.
type stopRecorder struct {
	ctx     context.Context
	evalErr *error
}

func (r *stopRecorder) Init() error {
	return r.ctx.Err()
}

func (r *stopRecorder) Record(_ *optimize.Location, _ optimize.Operation, _ *optimize.Stats) error {
	if *r.evalErr != nil {
		return *r.evalErr
	}
	return r.ctx.Err()
}

// CompassSearch is a coordinate pattern search: try +/- step along each axis, accept the
// first improvement, shrink the step after a full sweep without one.
type CompassSearch struct {
	InitialStep float64
	MinStep     float64
	Shrink      float64
}

// NewCompassSearch returns the default pattern search configuration.
func NewCompassSearch() *CompassSearch {
	return &CompassSearch{
		InitialStep: 0.5,
		MinStep:     1e-3,
		Shrink:      0.5,
	}
}

// Name implements Searcher.
func (s *CompassSearch) Name() string {
	return StrategyCompass
}

// Minimize implements Searcher.
func (s *CompassSearch) Minimize(ctx context.Context, f Objective, x0 []float64, maxEvaluations int) (SearchResult, error) {
	if err := ctx.Err(); err != nil {
		return SearchResult{}, err
	}

	x := append([]float64(nil), x0...)
	fx, err := f(x)
	if err != nil {
		return SearchResult{}, err
	}
	evals, iterations := 1, 0
	step := s.InitialStep

	for evals < maxEvaluations && step > s.MinStep {
		if err := ctx.Err(); err != nil {
			return SearchResult{}, err
		}
		iterations++
		improved := false

	sweep:
		for i := range x {
			for _, dir := range [2]float64{1, -1} {
				if evals >= maxEvaluations {
					break sweep
				}
				candidate := append([]float64(nil), x...)
				candidate[i] += dir * step
				fc, err := f(candidate)
				evals++
				if err != nil {
					return SearchResult{}, err
				}
				if fc < fx {
					x, fx = candidate, fc
					improved = true
					break
				}
			}
		}

		if !improved {
			step *= s.Shrink
		}
	}

	status := optimize.FunctionEvaluationLimit
	if step <= s.MinStep {
		status = optimize.StepConvergence
	}
	return SearchResult{
		X:           x,
		F:           fx,
		Evaluations: evals,
		Iterations:  iterations,
		Status:      status.String(),
	}, nil
}
