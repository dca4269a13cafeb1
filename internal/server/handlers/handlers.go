// Package handlers implements HTTP request handlers for the member API.
package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/dwsmith1983/outcome/internal/member"
	"github.com/dwsmith1983/outcome/internal/metrics"
	"github.com/dwsmith1983/outcome/internal/report"
	"github.com/dwsmith1983/outcome/internal/store"
	"github.com/dwsmith1983/outcome/pkg/outcome"
	"github.com/dwsmith1983/outcome/pkg/problem"
)

// DefaultMaxBatchSize caps the members accepted by one batch request.
const DefaultMaxBatchSize = member.DefaultMaxBatchSize

// Settings tune how handlers shape their responses.
type Settings struct {
	Fidelity       outcome.Fidelity
	ProblemOptions []problem.Option
	MaxBatchSize   int
}

// Handlers contains all HTTP handler dependencies.
type Handlers struct {
	members  *member.Service
	store    store.Store
	reports  *report.Dispatcher
	settings Settings
	logger   *slog.Logger
	metrics  *metrics.Recorder
}

// New creates a new Handlers instance.
func New(svc *member.Service, st store.Store, reports *report.Dispatcher, settings Settings) *Handlers {
	if settings.MaxBatchSize <= 0 {
		settings.MaxBatchSize = DefaultMaxBatchSize
	}
	return &Handlers{
		members:  svc,
		store:    st,
		reports:  reports,
		settings: settings,
		logger:   slog.Default(),
	}
}

// SetLogger overrides the default logger.
func (h *Handlers) SetLogger(l *slog.Logger) {
	if l != nil {
		h.logger = l
	}
}

// SetMetrics sets the metrics recorder. A nil recorder disables metrics.
func (h *Handlers) SetMetrics(rec *metrics.Recorder) {
	h.metrics = rec
}

// render writes o as the response to r and records it.
func render[T any](h *Handlers, w http.ResponseWriter, r *http.Request, o outcome.Outcome[T]) {
	resp, err := problem.Render(w, r, o, h.settings.ProblemOptions...)
	kind, _ := o.Kind()
	h.metrics.Response(r.Context(), o.Status(), kind, resp.StatusCode)
	if err != nil {
		h.logger.Error("failed to write response", "path", r.URL.Path, "error", err)
		return
	}
	if !o.IsSuccess() {
		h.logger.Debug("request failed", "path", r.URL.Path, "outcome", o)
	}
}

// writeJSON writes a plain JSON document.
func (h *Handlers) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", problem.ContentTypeJSON)
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}
