// Package server implements the member HTTP API. Every handler result is an
// outcome rendered by the problem package.
package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/dwsmith1983/outcome/internal/config"
	"github.com/dwsmith1983/outcome/internal/member"
	"github.com/dwsmith1983/outcome/internal/metrics"
	"github.com/dwsmith1983/outcome/internal/report"
	"github.com/dwsmith1983/outcome/internal/store"
)

// Deps are the collaborators the server exposes over HTTP.
type Deps struct {
	Members *member.Service
	Store   store.Store
	Reports *report.Dispatcher
	Logger  *slog.Logger
	Metrics *metrics.Recorder
}

// Server is the member HTTP API server.
type Server struct {
	cfg    *config.Config
	deps   Deps
	logger *slog.Logger
	router chi.Router
	srv    *http.Server
}

// New creates a new HTTP server.
func New(cfg *config.Config, deps Deps) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{cfg: cfg, deps: deps, logger: logger}

	r := chi.NewRouter()
	r.Use(RequestIDMiddleware)
	r.Use(TracingMiddleware)
	r.Use(LoggingMiddleware(logger))
	r.Use(RecoverMiddleware(logger, cfg.ProblemOptions()...))
	r.Use(APIKeyMiddleware(cfg.Server.APIKey, cfg.ProblemOptions()...))
	r.Use(MaxBodyMiddleware(cfg.Server.MaxRequestBody))

	s.router = r
	s.registerRoutes(r)
	return s
}

// Handler returns the routed handler.
func (s *Server) Handler() http.Handler { return s.router }

// Start begins serving HTTP requests.
func (s *Server) Start() error {
	s.srv = &http.Server{
		Addr:         s.cfg.Server.Addr,
		Handler:      s.router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
	s.logger.Info("server listening", "addr", s.cfg.Server.Addr)
	return s.srv.ListenAndServe()
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	if s.srv != nil {
		return s.srv.Shutdown(ctx)
	}
	return nil
}
