// Package handlers provides HTTP handlers for comparison run history.
package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/aristath/qdo/internal/api"
	"github.com/aristath/qdo/internal/modules/runs"
)

// Store is the run history the handlers read.
type Store interface {
	Get(ctx context.Context, id string) (*runs.Run, error)
	List(ctx context.Context, f runs.Filter) ([]runs.Run, error)
}

// Handler handles run history HTTP requests
type Handler struct {
	store Store
	log   zerolog.Logger
}

// NewHandler creates a new runs handler
func NewHandler(store Store, log zerolog.Logger) *Handler {
	return &Handler{
		store: store,
		log:   log.With().Str("handler", "runs").Logger(),
	}
}

// HandleList handles GET /api/runs
// Query: limit (1-500, default 50), source.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := runs.Filter{Source: q.Get("source")}

	if s := q.Get("limit"); s != "" {
		limit, err := strconv.Atoi(s)
		if err != nil {
			api.WriteError(w, &api.ValidationError{Message: "limit must be an integer"}, h.log)
			return
		}
		if err := api.ValidateVar("limit", limit, "min=1,max=500"); err != nil {
			api.WriteError(w, err, h.log)
			return
		}
		f.Limit = limit
	}

	list, err := h.store.List(r.Context(), f)
	if err != nil {
		api.WriteError(w, err, h.log)
		return
	}
	api.WriteData(w, http.StatusOK, list, h.log)
}

// HandleGet handles GET /api/runs/{id}
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := api.ValidateVar("id", id, "required,uuid"); err != nil {
		api.WriteError(w, err, h.log)
		return
	}

	run, err := h.store.Get(r.Context(), id)
	if err != nil {
		api.WriteError(w, err, h.log)
		return
	}
	api.WriteData(w, http.StatusOK, run, h.log)
}
