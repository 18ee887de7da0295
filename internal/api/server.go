// Package api provides the relay's operational HTTP surface.
//
// It exposes health and throughput endpoints for monitoring. The data
// path is MQTT only; nothing here sits between brokers.
//
// The server follows the same lifecycle pattern as other components:
//
//	server, err := api.New(deps)
//	server.Start(ctx)
//	defer server.Close()
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/fathomgrid/ingest-relay/internal/infrastructure/config"
	"github.com/fathomgrid/ingest-relay/internal/infrastructure/logging"
)

// Server timeouts.
const (
	gracefulShutdownTimeout = 10 * time.Second
	readTimeout             = 10 * time.Second
	writeTimeout            = 10 * time.Second
	idleTimeout             = 60 * time.Second
	healthCheckTimeout      = 5 * time.Second
)

// HealthChecker reports whether a component is functioning. Satisfied
// by the database, broker, and registry clients.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// StatsFunc reports pipeline throughput counters.
type StatsFunc func() (processed, dropped uint64)

// Deps holds the dependencies required by the API server.
type Deps struct {
	Config  config.APIConfig
	Logger  *logging.Logger
	Checks  map[string]HealthChecker
	Stats   StatsFunc
	Version string
}

// Server is the operational HTTP server.
type Server struct {
	cfg     config.APIConfig
	logger  *logging.Logger
	checks  map[string]HealthChecker
	stats   StatsFunc
	version string
	server  *http.Server
}

// New creates an API server with the given dependencies.
//
// The server is not started until Start() is called.
func New(deps Deps) (*Server, error) {
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	return &Server{
		cfg:     deps.Config,
		logger:  deps.Logger.With("component", "api"),
		checks:  deps.Checks,
		stats:   deps.Stats,
		version: deps.Version,
	}, nil
}

// Start begins listening for HTTP connections in a background
// goroutine. The server is stopped with Close().
func (s *Server) Start(_ context.Context) error {
	s.server = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port),
		Handler:           s.buildRouter(),
		ReadTimeout:       readTimeout,
		ReadHeaderTimeout: readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
	}

	go func() {
		s.logger.Info("API server starting", "address", s.server.Addr)
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("API server error", "error", err)
		}
	}()

	return nil
}

// Close gracefully shuts down the API server, waiting for in-flight
// requests to complete.
func (s *Server) Close() error {
	if s.server == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
	defer cancel()

	s.logger.Info("API server shutting down")
	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down API server: %w", err)
	}
	return nil
}

// buildRouter creates the HTTP router.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Get("/stats", s.handleStats)
	})

	// Bare alias for load balancer probes.
	r.Get("/healthz", s.handleHealth)

	return r
}
