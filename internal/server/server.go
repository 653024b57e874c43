// Package server provides the HTTP server and routing for qdo.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/aristath/qdo/internal/di"
	graphshandlers "github.com/aristath/qdo/internal/modules/graphs/handlers"
	maxcuthandlers "github.com/aristath/qdo/internal/modules/maxcut/handlers"
	runshandlers "github.com/aristath/qdo/internal/modules/runs/handlers"
)

// Config holds server configuration
type Config struct {
	Log         zerolog.Logger
	Container   *di.Container // DI container with all services
	Jobs        *di.JobInstances
	GraphSource string // Default graph reference served by GET /maxcut
	Port        int
	DevMode     bool
}

// Server represents the HTTP server
type Server struct {
	router         *chi.Mux
	server         *http.Server
	log            zerolog.Logger
	port           int
	graphSource    string
	container      *di.Container
	systemHandlers *SystemHandlers
}

// New creates a new HTTP server
func New(cfg Config) *Server {
	systemHandlers := NewSystemHandlers(cfg.Log, cfg.Container.DB, cfg.Container.Scheduler)
	if cfg.Jobs != nil {
		systemHandlers.SetJobs(cfg.Jobs.Benchmark, cfg.Jobs.Maintenance)
	}

	s := &Server{
		router:         chi.NewRouter(),
		log:            cfg.Log.With().Str("component", "server").Logger(),
		port:           cfg.Port,
		graphSource:    cfg.GraphSource,
		container:      cfg.Container,
		systemHandlers: systemHandlers,
	}

	s.setupMiddleware(cfg.DevMode)
	s.setupRoutes()

	// No WriteTimeout: solves are bounded by the service timeout and streams are long-lived.
	s.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	return s
}

// Router exposes the configured router, mainly for tests.
func (s *Server) Router() http.Handler {
	return s.router
}

// setupMiddleware configures middleware
func (s *Server) setupMiddleware(devMode bool) {
	// Recovery from panics
	s.router.Use(middleware.Recoverer)

	// Request ID
	s.router.Use(middleware.RequestID)

	// Real IP
	s.router.Use(middleware.RealIP)

	// Logging
	s.router.Use(s.loggingMiddleware)

	// Metrics
	if s.container.Metrics != nil {
		s.router.Use(s.container.Metrics.Middleware)
	}

	// CORS
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Compress responses
	if !devMode {
		s.router.Use(middleware.Compress(5, "application/json", "text/plain"))
	}
}

// setupRoutes configures all routes
func (s *Server) setupRoutes() {
	s.router.Get("/health", s.handleHealth)

	if s.container.Metrics != nil {
		s.router.Method(http.MethodGet, "/metrics", s.container.Metrics.Handler())
	}

	maxcutHandler := maxcuthandlers.NewHandler(
		s.container.MaxCutService,
		s.container.Loader,
		s.container.DefaultGraph,
		s.graphSource,
		s.log,
	)

	// Original endpoint
	maxcutHandler.RegisterLegacyRoutes(s.router)

	s.router.Route("/api", func(r chi.Router) {
		maxcutHandler.RegisterRoutes(r)
		graphshandlers.NewHandler(s.container.GraphRepo, s.log).RegisterRoutes(r)
		runshandlers.NewHandler(s.container.RunRepo, s.log).RegisterRoutes(r)
		s.setupSystemRoutes(r)
	})
}

// setupSystemRoutes configures system monitoring and job trigger routes
func (s *Server) setupSystemRoutes(r chi.Router) {
	systemHandlers := s.systemHandlers

	r.Route("/system", func(r chi.Router) {
		r.Get("/status", systemHandlers.HandleSystemStatus)
		r.Get("/database", systemHandlers.HandleDatabaseStats)

		// Job triggers (manual operation triggers)
		r.Route("/jobs", func(r chi.Router) {
			r.Get("/", systemHandlers.HandleJobsStatus)
			r.Post("/{name}", systemHandlers.HandleTriggerJob)
		})
	})
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.log.Info().Int("port", s.port).Msg("Starting HTTP server")
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info().Msg("Shutting down HTTP server")
	return s.server.Shutdown(ctx)
}

// loggingMiddleware logs HTTP requests
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		s.log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Dur("duration_ms", time.Since(start)).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("HTTP request")
	})
}
