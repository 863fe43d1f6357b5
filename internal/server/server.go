// Package server exposes the simulator over a JSON HTTP API.
package server

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/me/schedsim/internal/config"
	"github.com/me/schedsim/internal/store"
	"github.com/me/schedsim/internal/ui"
)

// Version is reported by /health and the discovery document.
const Version = "0.3.0"

// Server is the schedsim REST API server.
type Server struct {
	router    chi.Router
	logger    *slog.Logger
	config    config.ServerConfig
	startTime time.Time
	store     store.Store // optional; nil disables history
	defaults  config.SimConfig
	parallel  int
}

// Option configures optional Server dependencies.
type Option func(*Server)

// WithSimDefaults sets the quantum, aging and seed used when a request omits them.
func WithSimDefaults(cfg config.SimConfig) Option {
	return func(s *Server) {
		s.defaults = cfg
	}
}

// WithParallel runs up to n policies of one request concurrently.
func WithParallel(n int) Option {
	return func(s *Server) {
		s.parallel = n
	}
}

// New creates a new Server with all routes registered.
// st may be nil, in which case simulations are never persisted.
func New(cfg config.ServerConfig, st store.Store, logger *slog.Logger, opts ...Option) *Server {
	s := &Server{
		router:    chi.NewRouter(),
		logger:    logger.With("component", "server"),
		config:    cfg,
		startTime: time.Now(),
		store:     st,
		defaults:  config.DefaultSimConfig(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Handler returns the http.Handler for this server.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() {
	r := s.router

	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(requestIDMiddleware)
	r.Use(tracingMiddleware)
	r.Use(loggingMiddleware(s.logger))

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/", s.handleDiscovery)
		r.Get("/health", s.handleHealth)
		r.Get("/policies", s.handleListPolicies)

		r.Route("/simulations", func(r chi.Router) {
			r.Get("/", s.handleListSimulations)
			r.Post("/", s.handleCreateSimulation)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.handleGetSimulation)
				r.Delete("/", s.handleDeleteSimulation)
			})
		})
	})

	if s.store != nil {
		r.Route("/ui", ui.New(s.store, s.logger, "/ui").RegisterRoutes)
	}
}
