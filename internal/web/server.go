// Package web serves the jammy JSON API.
package web

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/justestif/jammy/internal/jam"
	"github.com/justestif/jammy/internal/metrics"
)

const (
	// DefaultAddr is the default server address.
	DefaultAddr = ":8080"

	defaultShutdownTimeout = 10 * time.Second
)

// ServerConfig holds server configuration.
type ServerConfig struct {
	Addr            string
	ShutdownTimeout time.Duration

	Store       jam.Store
	Importer    Importer
	Recommender Recommender

	// Metrics, when set, instruments requests and serves /metrics.
	Metrics *metrics.Metrics
	Logger  *log.Logger
}

// Server is the HTTP server for the API.
type Server struct {
	router          chi.Router
	server          *http.Server
	handlers        *Handlers
	metrics         *metrics.Metrics
	logger          *log.Logger
	shutdownTimeout time.Duration
}

// NewServer creates a new API server.
func NewServer(cfg ServerConfig) *Server {
	if cfg.Addr == "" {
		cfg.Addr = DefaultAddr
	}
	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = defaultShutdownTimeout
	}
	if cfg.Logger == nil {
		cfg.Logger = log.Default()
	}
	logger := cfg.Logger.With("component", "web")

	s := &Server{
		router:          chi.NewRouter(),
		handlers:        NewHandlers(cfg.Store, cfg.Importer, cfg.Recommender, logger),
		metrics:         cfg.Metrics,
		logger:          logger,
		shutdownTimeout: cfg.ShutdownTimeout,
	}

	s.setupMiddleware()
	s.setupRoutes()

	s.server = &http.Server{
		Addr:         cfg.Addr,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// setupMiddleware configures middleware for the router.
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(requestLogger(s.logger))
	if s.metrics != nil {
		s.router.Use(s.metrics.Middleware)
	}
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Compress(5))
}

// setupRoutes configures routes for the application.
func (s *Server) setupRoutes() {
	h := s.handlers

	s.router.Get("/healthz", h.Health)
	if s.metrics != nil {
		s.router.Handle("/metrics", s.metrics.Handler())
	}

	s.router.Route("/api", func(r chi.Router) {
		r.Route("/songs", func(r chi.Router) {
			r.Get("/", h.ListSongs)
			r.Post("/", h.CreateSong)
			r.Get("/{id}", h.GetSong)
			r.Patch("/{id}", h.UpdateSong)
			r.Delete("/{id}", h.DeleteSong)
		})
		r.Post("/spotify/sync", h.SyncPlaylist)
		r.Get("/discover", h.Discover)
	})
}

// Handler returns the configured router.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	s.logger.Info("starting server", "addr", s.server.Addr)
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

// Run starts the server and shuts it down gracefully when ctx is done or
// an interrupt signal arrives.
func (s *Server) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		if err := s.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		s.logger.Info("shutting down server")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
	defer cancel()

	if err := s.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	s.logger.Info("server stopped")
	return nil
}
