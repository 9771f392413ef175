// Package server provides the HTTP API for Voxa.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/hyperjump/voxa/internal/config"
	"github.com/hyperjump/voxa/internal/search"
	"github.com/hyperjump/voxa/internal/storage"
)

// ModelStatus reports the embedding model state. embedding.Provider implements it.
type ModelStatus interface {
	Backend() string
	Ready() bool
	Dimensions() int
}

// DirectoryLister lists watched catalog directories. watcher.Watcher implements it.
type DirectoryLister interface {
	Directories() []string
}

// Server is the HTTP server for the Voxa API.
type Server struct {
	search   *search.Service
	storage  storage.Storage
	model    ModelStatus
	config   *config.Config
	watch    DirectoryLister
	gatherer prometheus.Gatherer
	logger   *zap.Logger
	server   *http.Server
}

// Option configures a Server.
type Option func(*Server)

// WithWatcher exposes the watched directories in /api/v1/status.
func WithWatcher(w DirectoryLister) Option {
	return func(s *Server) { s.watch = w }
}

// WithGatherer sets the metrics source for /metrics. Defaults to prometheus.DefaultGatherer.
func WithGatherer(g prometheus.Gatherer) Option {
	return func(s *Server) { s.gatherer = g }
}

// NewServer creates a server with the given dependencies.
func NewServer(
	svc *search.Service,
	store storage.Storage,
	model ModelStatus,
	cfg *config.Config,
	logger *zap.Logger,
	opts ...Option,
) *Server {
	s := &Server{
		search:   svc,
		storage:  store,
		model:    model,
		config:   cfg,
		gatherer: prometheus.DefaultGatherer,
		logger:   logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	return s
}

// Handler returns the API router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(middleware.Compress(5))

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/search", s.handleSearch)
		r.Get("/businesses", s.handleListBusinesses)
		r.Post("/businesses", s.handleCreateBusiness)
		r.Get("/businesses/{id}", s.handleGetBusiness)
		r.Put("/businesses/{id}", s.handleUpdateBusiness)
		r.Delete("/businesses/{id}", s.handleDeleteBusiness)
		r.Get("/industries", s.handleIndustries)
		r.Get("/status", s.handleStatus)
	})
	r.Get("/health", s.handleHealth)
	r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	return r
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port)
	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.logger.Info("Starting server", zap.String("addr", addr))
	return s.server.ListenAndServe()
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}
