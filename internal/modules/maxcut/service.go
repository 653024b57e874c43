package maxcut

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/qdo/internal/modules/classical"
	"github.com/aristath/qdo/internal/modules/graph"
	"github.com/aristath/qdo/internal/modules/qaoa"
	"github.com/aristath/qdo/internal/modules/qubo"
)

// MetricsSink receives solve timings and backend usage. Implementations must be safe for
// concurrent use.
type MetricsSink interface {
	ObserveClassical(d time.Duration)
	ObserveQuantum(d time.Duration)
	IncBackendUsage(backend string)
}

// RunStore persists comparison runs.
type RunStore interface {
	Save(ctx context.Context, source string, c *Comparison) (string, error)
}

type nopSink struct{}

func (nopSink) ObserveClassical(time.Duration) {}
func (nopSink) ObserveQuantum(time.Duration)   {}
func (nopSink) IncBackendUsage(string)         {}

// Options tune one solve. Zero values fall back to the service defaults.
type Options struct {
	Depth         int    `json:"depth" validate:"omitempty,min=1,max=10"`
	MaxIterations int    `json:"max_iterations" validate:"omitempty,min=1,max=10000"`
	Shots         int    `json:"shots" validate:"omitempty,min=1,max=1000000"`
	FinalShots    int    `json:"final_shots" validate:"omitempty,min=1,max=1000000"`
	Seed          int64  `json:"seed"`
	Strategy      string `json:"strategy" validate:"omitempty,oneof=nelder-mead compass"`

	// Progress receives every objective evaluation of the QAOA search.
	Progress func(qaoa.Progress) `json:"-"`
}

func (o Options) merge(defaults Options) Options {
	if o.Depth == 0 {
		o.Depth = defaults.Depth
	}
	if o.MaxIterations == 0 {
		o.MaxIterations = defaults.MaxIterations
	}
	if o.Shots == 0 {
		o.Shots = defaults.Shots
	}
	if o.FinalShots == 0 {
		o.FinalShots = defaults.FinalShots
	}
	if o.Seed == 0 {
		o.Seed = defaults.Seed
	}
	if o.Strategy == "" {
		o.Strategy = defaults.Strategy
	}
	return o
}

// Comparison is the classical baseline and the QAOA result on the same graph.
type Comparison struct {
	Seed                     int64               `json:"seed"`
	NumNodes                 int                 `json:"num_nodes"`
	NumEdges                 int                 `json:"num_edges"`
	Nodes                    []int               `json:"nodes"`
	Edges                    []graph.Edge        `json:"edges"`
	Classical                classical.Result    `json:"classical"`
	ClassicalColors          graph.Coloring      `json:"classical_colors"`
	Quantum                  *OptimizationResult `json:"quantum"`
	QuantumColors            graph.Coloring      `json:"quantum_colors"`
	ClassicalDurationSeconds float64             `json:"classical_duration_seconds"`
	QuantumDurationSeconds   float64             `json:"quantum_duration_seconds"`
}

// Service runs the Max-Cut pipeline. It keeps no per-request state.
type Service struct {
	solver   *qaoa.Solver
	metrics  MetricsSink
	history  RunStore
	defaults Options
	timeout  time.Duration
	log      zerolog.Logger
}

// NewService creates the Max-Cut service. metrics and history may be nil.
func NewService(solver *qaoa.Solver, metrics MetricsSink, history RunStore, defaults Options, timeout time.Duration, log zerolog.Logger) *Service {
	if metrics == nil {
		metrics = nopSink{}
	}
	if defaults.Depth == 0 {
		defaults.Depth = 1
	}
	if defaults.MaxIterations == 0 {
		defaults.MaxIterations = 100
	}
	return &Service{
		solver:   solver,
		metrics:  metrics,
		history:  history,
		defaults: defaults,
		timeout:  timeout,
		log:      log.With().Str("service", "maxcut").Logger(),
	}
}

// Defaults returns the options applied to zero-valued fields.
func (s *Service) Defaults() Options {
	return s.defaults
}

// FormulateAndSolve formulates g as a QUBO, runs QAOA and translates the answer.
// Graph validation happens before any optimization work.
func (s *Service) FormulateAndSolve(ctx context.Context, g *graph.WeightedGraph, opts Options) (*OptimizationResult, error) {
	opts = opts.merge(s.defaults)
	seed := resolveSeed(opts.Seed)
	return s.solve(ctx, g, opts, rand.New(rand.NewSource(seed)))
}

// Classical runs the random baseline and records its duration.
func (s *Service) Classical(g *graph.WeightedGraph, rng *rand.Rand) classical.Result {
	start := time.Now()
	res := classical.RandomAssign(g, rng)
	s.metrics.ObserveClassical(time.Since(start))
	return res
}

// Compare runs the classical baseline and QAOA on g with one seeded random source, so a
// comparison is reproducible from its Seed.
func (s *Service) Compare(ctx context.Context, g *graph.WeightedGraph, opts Options) (*Comparison, error) {
	if g == nil || g.NumNodes() == 0 {
		return nil, graph.NewInvalidGraphError("graph has no nodes")
	}
	opts = opts.merge(s.defaults)
	seed := resolveSeed(opts.Seed)
	rng := rand.New(rand.NewSource(seed))

	start := time.Now()
	baseline := s.Classical(g, rng)
	classicalDuration := time.Since(start)

	start = time.Now()
	result, err := s.solve(ctx, g, opts, rng)
	if err != nil {
		return nil, err
	}
	quantumDuration := time.Since(start)

	s.log.Info().
		Int("nodes", g.NumNodes()).
		Int("depth", opts.Depth).
		Float64("classical_cut", baseline.CutValue).
		Float64("quantum_cut", result.CutValue).
		Msg("Max-Cut comparison finished")

	return &Comparison{
		Seed:                     seed,
		NumNodes:                 g.NumNodes(),
		NumEdges:                 g.NumEdges(),
		Nodes:                    g.Nodes(),
		Edges:                    g.Edges(),
		Classical:                baseline,
		ClassicalColors:          g.Colors(baseline.Assignment),
		Quantum:                  result,
		QuantumColors:            g.Colors(result.Bits),
		ClassicalDurationSeconds: classicalDuration.Seconds(),
		QuantumDurationSeconds:   quantumDuration.Seconds(),
	}, nil
}

// CompareAndRecord runs Compare and stores the run when a history store is configured.
// A storage failure is logged and does not fail the comparison; the returned id is empty.
func (s *Service) CompareAndRecord(ctx context.Context, source string, g *graph.WeightedGraph, opts Options) (*Comparison, string, error) {
	c, err := s.Compare(ctx, g, opts)
	if err != nil {
		return nil, "", err
	}
	if s.history == nil {
		return c, "", nil
	}
	id, err := s.history.Save(ctx, source, c)
	if err != nil {
		s.log.Error().Err(err).Str("source", source).Msg("Failed to record run")
		return c, "", nil
	}
	return c, id, nil
}

func (s *Service) solve(ctx context.Context, g *graph.WeightedGraph, opts Options, rng *rand.Rand) (*OptimizationResult, error) {
	model, err := qubo.Formulate(g)
	if err != nil {
		return nil, err
	}
	searcher, err := qaoa.NewSearcher(opts.Strategy)
	if err != nil {
		return nil, err
	}

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	start := time.Now()
	raw, err := s.solver.Solve(ctx, model, qaoa.Params{
		Depth:         opts.Depth,
		MaxIterations: opts.MaxIterations,
		Shots:         opts.Shots,
		FinalShots:    opts.FinalShots,
		Searcher:      searcher,
		Rand:          rng,
		Progress:      opts.Progress,
	})
	s.metrics.ObserveQuantum(time.Since(start))
	if err != nil {
		return nil, err
	}
	s.metrics.IncBackendUsage(raw.Backend)

	result, err := Translate(model, raw)
	if err != nil {
		return nil, fmt.Errorf("translate: %w", err)
	}
	return result, nil
}

func resolveSeed(seed int64) int64 {
	if seed != 0 {
		return seed
	}
	return time.Now().UnixNano()
}
