// Package server exposes the derived structures over HTTP: per-key
// timelines, the route directory, health, and Prometheus metrics.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/iamawumpas/Metlink-Explorer/config"
	"github.com/iamawumpas/Metlink-Explorer/explorer"
	"github.com/iamawumpas/Metlink-Explorer/metrics"
)

type Server struct {
	httpServer *http.Server
	logger     zerolog.Logger
}

// New wires the router. The exclusion set (configured watches) keeps
// already-selected routes out of the directory listing; refreshInterval
// bounds how old a held timeline may get before a request re-derives it.
func New(cfg config.ServerConfig, exp *explorer.Explorer, collector *metrics.Collector, exclude map[string]struct{}, refreshInterval time.Duration, logger zerolog.Logger) *Server {
	if refreshInterval <= 0 {
		refreshInterval = 30 * time.Second
	}
	log := logger.With().Str("component", "server").Logger()
	h := &handlers{explorer: exp, exclude: exclude, maxAge: refreshInterval, logger: log}

	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "OPTIONS"},
		AllowedHeaders: []string{"*"},
	}))
	r.Get("/api/health", h.health)
	r.Get("/api/transport-types", h.transportTypes)
	r.Get("/api/routes", h.routes)
	r.Get("/api/timeline", h.timeline)
	r.Method(http.MethodGet, "/metrics", collector.Handler())

	return &Server{
		httpServer: &http.Server{
			Addr:              fmt.Sprintf(":%d", cfg.Port),
			Handler:           r,
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       10 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       60 * time.Second,
		},
		logger: log,
	}
}

// Start serves until the listener fails or Shutdown is called.
func (s *Server) Start() error {
	s.logger.Info().Str("addr", s.httpServer.Addr).Msg("listening")
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
