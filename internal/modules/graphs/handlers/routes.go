package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers the graph store routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/graphs", func(r chi.Router) {
		r.Get("/", h.HandleList)
		r.Route("/{name}", func(r chi.Router) {
			r.Get("/", h.HandleGet)
			r.Put("/", h.HandlePut)
			r.Delete("/", h.HandleDelete)
			r.Get("/qubo", h.HandleQUBO)
		})
	})
}
