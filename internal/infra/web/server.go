// File: internal/infra/web/server.go
package web

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"agentloop-chat/internal/domain/ports/repository"
	"agentloop-chat/internal/infra/metrics"
)

// Server exposes a read-only status surface next to a running client:
// health, Prometheus metrics, and snapshots of the session-state map.
type Server struct {
	states repository.StreamStateStore
	usage  repository.ContextUsageCache
	apiKey string // guards /api/v1 when set
	log    *zerolog.Logger
	srv    *http.Server
}

func NewServer(port int, apiKey string, states repository.StreamStateStore, usage repository.ContextUsageCache, logger *zerolog.Logger) *Server {
	s := &Server{states: states, usage: usage, apiKey: apiKey, log: logger}

	metrics.MustRegister()

	r := chi.NewRouter()
	r.Get("/health", s.handleHealth)
	r.Handle("/metrics", promhttp.Handler())
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(s.authMiddleware)
		r.Get("/sessions", s.handleSessions)
		r.Get("/sessions/{id}", s.handleSession)
		r.Get("/sessions/{id}/usage", s.handleUsage)
	})

	s.srv = &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: r}
	return s
}

func (s *Server) Start() error {
	s.log.Info().Str("addr", s.srv.Addr).Msg("status server listening")
	return s.srv.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

// Handler exposes the router for tests.
func (s *Server) Handler() http.Handler {
	return s.srv.Handler
}

// authMiddleware enforces a bearer key on the API routes when configured.
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.apiKey == "" {
			next.ServeHTTP(w, r)
			return
		}
		parts := strings.SplitN(r.Header.Get("Authorization"), " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || parts[1] != s.apiKey {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}
