package handlers

import (
	"net/http"

	"github.com/dwsmith1983/outcome/internal/member"
	"github.com/dwsmith1983/outcome/pkg/types"
)

// RegisterBatch registers every member of the batch and answers with the union of
// the results: ERROR if any member failed operationally, else INVALID if any
// member was invalid, else OK with the registered members.
func (h *Handlers) RegisterBatch(w http.ResponseWriter, r *http.Request) {
	batch := member.DecodeBatch(r.Body, h.settings.MaxBatchSize)
	inputs, ok := batch.Value()
	if !ok {
		render(h, w, r, batch)
		return
	}
	merged, summary := h.members.RegisterAll(r.Context(), inputs)
	h.metrics.Aggregation(r.Context(), "merge", summary)
	render(h, w, r, merged)
}

// ReportBatch registers every member of the batch, groups the failures by status
// and delivers the grouped report to the configured sinks. The query parameter
// fidelity (flat or detailed) overrides the configured fidelity.
func (h *Handlers) ReportBatch(w http.ResponseWriter, r *http.Request) {
	fo := member.ParseFidelity(r.URL.Query().Get("fidelity"), h.settings.Fidelity)
	fidelity, ok := fo.Value()
	if !ok {
		render(h, w, r, fo)
		return
	}
	batch := member.DecodeBatch(r.Body, h.settings.MaxBatchSize)
	inputs, ok := batch.Value()
	if !ok {
		render(h, w, r, batch)
		return
	}

	groups := h.members.Summarize(r.Context(), inputs, fidelity)
	h.metrics.Aggregation(r.Context(), "report", groups)
	rep := h.reports.Deliver(r.Context(), len(inputs), fidelity, groups)

	h.metrics.Response(r.Context(), types.StatusOK, "", http.StatusOK)
	h.writeJSON(w, http.StatusOK, rep)
}
