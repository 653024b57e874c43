package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers the Max-Cut API routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/maxcut", func(r chi.Router) {
		r.Post("/solve", h.HandleSolve)
		r.Get("/compare", h.HandleCompare)
		r.Post("/compare", h.HandleCompare)
		r.Get("/stream", h.HandleStream)
	})
}

// RegisterLegacyRoutes registers the top-level GET /maxcut endpoint
func (h *Handler) RegisterLegacyRoutes(r chi.Router) {
	r.Get("/maxcut", h.HandleLegacyMaxCut)
}
