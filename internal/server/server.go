// Package server exposes the worker's health and Prometheus endpoints.
package server

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	jsoniter "github.com/json-iterator/go"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

var jsonAPI = jsoniter.ConfigCompatibleWithStandardLibrary

// HealthChecker reports whether a dependency is usable.
// *repository.Database implements it.
type HealthChecker interface {
	Health(ctx context.Context) error
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status    string            `json:"status"`
	Timestamp string            `json:"timestamp"`
	Uptime    string            `json:"uptime"`
	Checks    map[string]string `json:"checks,omitempty"`
}

// Server represents the HTTP server
type Server struct {
	router   *chi.Mux
	server   *http.Server
	port     int
	checkers map[string]HealthChecker
	started  time.Time
	now      func() time.Time
}

// New creates a new HTTP server instance
func New(port int, checkers map[string]HealthChecker) *Server {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	s := &Server{
		router:   r,
		port:     port,
		checkers: checkers,
		started:  time.Now(),
		now:      time.Now,
	}

	r.Get("/health", s.handleHealth)
	r.Get("/health/live", s.handleLive)
	r.Handle("/metrics", promhttp.Handler())

	return s
}

// Start serves until Shutdown is called. It returns nil after a clean
// shutdown.
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", s.port),
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	log.Info().Int("port", s.port).Msg("Starting metrics server")

	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("metrics server failed: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the HTTP server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	log.Info().Msg("Shutting down metrics server")
	return s.server.Shutdown(ctx)
}

// Handler exposes the router for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	names := make([]string, 0, len(s.checkers))
	for name := range s.checkers {
		names = append(names, name)
	}
	sort.Strings(names)

	resp := HealthResponse{
		Status: "healthy",
		Checks: make(map[string]string, len(names)),
	}
	for _, name := range names {
		if err := s.checkers[name].Health(ctx); err != nil {
			log.Warn().Err(err).Str("check", name).Msg("Health check failed")
			resp.Checks[name] = "unhealthy"
			resp.Status = "unhealthy"
			continue
		}
		resp.Checks[name] = "healthy"
	}

	now := s.now()
	resp.Timestamp = now.UTC().Format(time.RFC3339)
	resp.Uptime = now.Sub(s.started).Truncate(time.Second).String()

	status := http.StatusOK
	if resp.Status != "healthy" {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, resp)
}

func (s *Server) handleLive(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "alive"})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := jsonAPI.NewEncoder(w).Encode(body); err != nil {
		log.Error().Err(err).Msg("Failed to write response")
	}
}
