// Package handlers provides HTTP handlers for the stored graph collection.
package handlers

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/aristath/qdo/internal/api"
	"github.com/aristath/qdo/internal/modules/graph"
	"github.com/aristath/qdo/internal/modules/graphs"
	"github.com/aristath/qdo/internal/modules/qubo"
)

// nameTag restricts stored graph names so they stay usable inside "db:<name>" references.
const nameTag = "required,max=64,excludesall=/: "

// Store is the persistence the handlers need.
type Store interface {
	Put(ctx context.Context, name string, g *graph.WeightedGraph) (bool, error)
	Get(ctx context.Context, name string) (*graph.WeightedGraph, error)
	List(ctx context.Context) ([]graphs.Summary, error)
	Delete(ctx context.Context, name string) error
}

// Handler handles graph store HTTP requests
type Handler struct {
	store Store
	log   zerolog.Logger
}

// NewHandler creates a new graphs handler
func NewHandler(store Store, log zerolog.Logger) *Handler {
	return &Handler{
		store: store,
		log:   log.With().Str("handler", "graphs").Logger(),
	}
}

// GraphResponse is a stored graph with its summary figures.
type GraphResponse struct {
	Name        string          `json:"name"`
	NumNodes    int             `json:"num_nodes"`
	NumEdges    int             `json:"num_edges"`
	TotalWeight float64         `json:"total_weight"`
	Graph       graphs.Document `json:"graph"`
	Created     *bool           `json:"created,omitempty"`
}

// QUBOResponse is the formulation of a stored graph.
type QUBOResponse struct {
	Name  string         `json:"name"`
	QUBO  qubo.View      `json:"qubo"`
	Ising qubo.Ising     `json:"ising"`
	Stats map[string]int `json:"stats"`
}

// HandleList handles GET /api/graphs
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	summaries, err := h.store.List(r.Context())
	if err != nil {
		api.WriteError(w, err, h.log)
		return
	}
	api.WriteData(w, http.StatusOK, summaries, h.log)
}

// HandlePut handles PUT /api/graphs/{name}
// The body is a graph document; Content-Type selects JSON (default), YAML or msgpack.
// Responds 201 when the name was new and 200 when an existing graph was replaced.
func (h *Handler) HandlePut(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if err := api.ValidateVar("name", name, nameTag); err != nil {
		api.WriteError(w, err, h.log)
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, api.MaxBodyBytes))
	if err != nil {
		api.WriteError(w, &api.ValidationError{Message: fmt.Sprintf("invalid request body: %v", err)}, h.log)
		return
	}
	doc, err := graphs.Decode(body, formatOf(r))
	if err != nil {
		api.WriteError(w, err, h.log)
		return
	}
	g, err := doc.Graph()
	if err != nil {
		api.WriteError(w, err, h.log)
		return
	}

	created, err := h.store.Put(r.Context(), name, g)
	if err != nil {
		api.WriteError(w, err, h.log)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	resp := responseOf(name, g)
	resp.Created = &created
	api.WriteData(w, status, resp, h.log)
}

// HandleGet handles GET /api/graphs/{name}
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	name, g, ok := h.load(w, r)
	if !ok {
		return
	}
	api.WriteData(w, http.StatusOK, responseOf(name, g), h.log)
}

// HandleDelete handles DELETE /api/graphs/{name}
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if err := api.ValidateVar("name", name, nameTag); err != nil {
		api.WriteError(w, err, h.log)
		return
	}
	if err := h.store.Delete(r.Context(), name); err != nil {
		api.WriteError(w, err, h.log)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleQUBO handles GET /api/graphs/{name}/qubo
// Returns the minimization QUBO and its Ising form without running any optimization.
func (h *Handler) HandleQUBO(w http.ResponseWriter, r *http.Request) {
	name, g, ok := h.load(w, r)
	if !ok {
		return
	}

	model, err := qubo.Formulate(g)
	if err != nil {
		api.WriteError(w, err, h.log)
		return
	}

	api.WriteData(w, http.StatusOK, QUBOResponse{
		Name:  name,
		QUBO:  model.View(),
		Ising: model.ToIsing(),
		Stats: map[string]int{
			"num_variables":       model.NumVariables(),
			"num_quadratic_terms": len(model.QuadraticTerms()),
		},
	}, h.log)
}

func (h *Handler) load(w http.ResponseWriter, r *http.Request) (string, *graph.WeightedGraph, bool) {
	name := chi.URLParam(r, "name")
	if err := api.ValidateVar("name", name, nameTag); err != nil {
		api.WriteError(w, err, h.log)
		return "", nil, false
	}
	g, err := h.store.Get(r.Context(), name)
	if err != nil {
		api.WriteError(w, err, h.log)
		return "", nil, false
	}
	return name, g, true
}

func responseOf(name string, g *graph.WeightedGraph) GraphResponse {
	return GraphResponse{
		Name:        name,
		NumNodes:    g.NumNodes(),
		NumEdges:    g.NumEdges(),
		TotalWeight: g.TotalWeight(),
		Graph:       graphs.DocumentOf(g),
	}
}

func formatOf(r *http.Request) graphs.Format {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil {
		return graphs.FormatJSON
	}
	switch mediaType {
	case "application/yaml", "application/x-yaml", "text/yaml":
		return graphs.FormatYAML
	case "application/msgpack", "application/x-msgpack", "application/vnd.msgpack":
		return graphs.FormatMsgpack
	default:
		return graphs.FormatJSON
	}
}
