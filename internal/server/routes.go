package server

import (
	"github.com/go-chi/chi/v5"

	"github.com/dwsmith1983/outcome/internal/server/handlers"
)

func (s *Server) registerRoutes(r chi.Router) {
	h := handlers.New(s.deps.Members, s.deps.Store, s.deps.Reports, handlers.Settings{
		Fidelity:       s.cfg.FidelityValue(),
		ProblemOptions: s.cfg.ProblemOptions(),
		MaxBatchSize:   handlers.DefaultMaxBatchSize,
	})
	h.SetLogger(s.logger)
	h.SetMetrics(s.deps.Metrics)

	r.Route("/api", func(r chi.Router) {
		// Health
		r.Get("/health", h.Health)

		// Members
		r.Post("/members", h.RegisterMember)
		r.Get("/members/{memberID}", h.GetMember)

		// Batches
		r.Post("/members/batch", h.RegisterBatch)
		r.Post("/members/batch/report", h.ReportBatch)
	})
}
