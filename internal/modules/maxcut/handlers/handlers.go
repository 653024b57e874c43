// Package handlers provides HTTP handlers for Max-Cut solving and comparison.
package handlers

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/aristath/qdo/internal/api"
	"github.com/aristath/qdo/internal/modules/graph"
	"github.com/aristath/qdo/internal/modules/graphs"
	"github.com/aristath/qdo/internal/modules/maxcut"
)

// GraphLoader resolves a graph reference (file path, db:<name>, s3://bucket/key).
type GraphLoader interface {
	Load(ctx context.Context, ref string) (*graph.WeightedGraph, error)
}

// DefaultGraph supplies the configured default graph.
type DefaultGraph interface {
	Get(ctx context.Context) (*graph.WeightedGraph, error)
}

// Handler handles Max-Cut HTTP requests
type Handler struct {
	service       *maxcut.Service
	loader        GraphLoader
	defaultGraph  DefaultGraph
	defaultSource string
	log           zerolog.Logger
}

// NewHandler creates a new Max-Cut handler. defaultSource labels runs on the default graph.
func NewHandler(
	service *maxcut.Service,
	loader GraphLoader,
	defaultGraph DefaultGraph,
	defaultSource string,
	log zerolog.Logger,
) *Handler {
	return &Handler{
		service:       service,
		loader:        loader,
		defaultGraph:  defaultGraph,
		defaultSource: defaultSource,
		log:           log.With().Str("handler", "maxcut").Logger(),
	}
}

// SolveRequest is the body of POST /api/maxcut/solve and POST /api/maxcut/compare.
// Exactly one of Source and Graph may be set; neither means the default graph.
// A file Source is relative to the graph directory.
type SolveRequest struct {
	Source  string           `json:"source" validate:"omitempty,max=1024"`
	Graph   *graphs.Document `json:"graph"`
	Options maxcut.Options   `json:"options"`
}

// LegacyResponse is the flat response of GET /maxcut.
type LegacyResponse struct {
	ClassicalCut      float64         `json:"classical_cut"`
	ClassicalCutEdges int             `json:"classical_cut_edges"`
	QuantumCut        float64         `json:"quantum_cut"`
	QuantumBits       []int           `json:"quantum_bits"`
	Metadata          maxcut.Metadata `json:"metadata"`
	RunID             string          `json:"run_id,omitempty"`
}

// CompareResponse is a comparison plus the id it was stored under, if any.
type CompareResponse struct {
	*maxcut.Comparison
	Source string `json:"source"`
	RunID  string `json:"run_id,omitempty"`
}

// HandleLegacyMaxCut handles GET /maxcut
// Runs the classical baseline and QAOA on the default graph. Query: p, max_iterations, seed.
func (h *Handler) HandleLegacyMaxCut(w http.ResponseWriter, r *http.Request) {
	opts, err := optionsFromQuery(r)
	if err != nil {
		api.WriteError(w, err, h.log)
		return
	}

	g, source, err := h.resolve(r.Context(), "", nil)
	if err != nil {
		api.WriteError(w, err, h.log)
		return
	}

	c, runID, err := h.service.CompareAndRecord(r.Context(), source, g, opts)
	if err != nil {
		api.WriteError(w, err, h.log)
		return
	}

	api.WriteJSON(w, http.StatusOK, LegacyResponse{
		ClassicalCut:      c.Classical.CutValue,
		ClassicalCutEdges: c.Classical.CutEdges,
		QuantumCut:        c.Quantum.CutValue,
		QuantumBits:       c.Quantum.Bits,
		Metadata:          c.Quantum.Metadata,
		RunID:             runID,
	}, h.log)
}

// HandleSolve handles POST /api/maxcut/solve
func (h *Handler) HandleSolve(w http.ResponseWriter, r *http.Request) {
	var req SolveRequest
	if err := h.decode(w, r, &req); err != nil {
		api.WriteError(w, err, h.log)
		return
	}

	g, _, err := h.resolve(r.Context(), req.Source, req.Graph)
	if err != nil {
		api.WriteError(w, err, h.log)
		return
	}

	result, err := h.service.FormulateAndSolve(r.Context(), g, req.Options)
	if err != nil {
		api.WriteError(w, err, h.log)
		return
	}

	api.WriteData(w, http.StatusOK, result, h.log)
}

// HandleCompare handles GET and POST /api/maxcut/compare
// GET reads source, p, max_iterations, seed and strategy from the query.
func (h *Handler) HandleCompare(w http.ResponseWriter, r *http.Request) {
	var req SolveRequest
	if r.Method == http.MethodPost {
		if err := h.decode(w, r, &req); err != nil {
			api.WriteError(w, err, h.log)
			return
		}
	} else {
		opts, err := optionsFromQuery(r)
		if err != nil {
			api.WriteError(w, err, h.log)
			return
		}
		req.Source = r.URL.Query().Get("source")
		req.Options = opts
	}

	g, source, err := h.resolve(r.Context(), req.Source, req.Graph)
	if err != nil {
		api.WriteError(w, err, h.log)
		return
	}

	c, runID, err := h.service.CompareAndRecord(r.Context(), source, g, req.Options)
	if err != nil {
		api.WriteError(w, err, h.log)
		return
	}

	api.WriteData(w, http.StatusOK, CompareResponse{Comparison: c, Source: source, RunID: runID}, h.log)
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, req *SolveRequest) error {
	if err := api.DecodeJSON(w, r, req); err != nil {
		return err
	}
	if req.Source != "" && req.Graph != nil {
		return &api.ValidationError{Message: "source and graph are mutually exclusive"}
	}
	return api.Validate(req)
}

// resolve picks the graph for a request and a label for run history.
func (h *Handler) resolve(ctx context.Context, source string, inline *graphs.Document) (*graph.WeightedGraph, string, error) {
	switch {
	case inline != nil:
		g, err := inline.Graph()
		return g, "inline", err
	case strings.TrimSpace(source) != "":
		g, err := h.loader.Load(ctx, source)
		return g, strings.TrimSpace(source), err
	default:
		g, err := h.defaultGraph.Get(ctx)
		return g, h.defaultSource, err
	}
}

// optionsFromQuery reads solve options from query parameters.
// "p" is accepted as an alias of "depth".
func optionsFromQuery(r *http.Request) (maxcut.Options, error) {
	q := r.URL.Query()
	var opts maxcut.Options
	var err error

	depth := q.Get("depth")
	if depth == "" {
		depth = q.Get("p")
	}
	if opts.Depth, err = queryInt("depth", depth); err != nil {
		return opts, err
	}
	if opts.MaxIterations, err = queryInt("max_iterations", q.Get("max_iterations")); err != nil {
		return opts, err
	}
	if opts.Shots, err = queryInt("shots", q.Get("shots")); err != nil {
		return opts, err
	}
	if opts.FinalShots, err = queryInt("final_shots", q.Get("final_shots")); err != nil {
		return opts, err
	}
	if s := q.Get("seed"); s != "" {
		if opts.Seed, err = strconv.ParseInt(s, 10, 64); err != nil {
			return opts, &api.ValidationError{Message: "seed must be an integer"}
		}
	}
	opts.Strategy = q.Get("strategy")

	return opts, api.Validate(opts)
}

func queryInt(name, value string) (int, error) {
	if value == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, &api.ValidationError{Message: name + " must be an integer"}
	}
	return n, nil
}
