package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dwsmith1983/outcome/internal/member"
)

// RegisterMember validates and stores one member.
func (h *Handlers) RegisterMember(w http.ResponseWriter, r *http.Request) {
	var in member.Input
	if o := member.DecodeJSON(r.Body, &in); !o.IsSuccess() {
		render(h, w, r, o)
		return
	}
	render(h, w, r, h.members.Register(r.Context(), in))
}

// GetMember returns one member by id.
func (h *Handlers) GetMember(w http.ResponseWriter, r *http.Request) {
	render(h, w, r, h.members.Get(r.Context(), chi.URLParam(r, "memberID")))
}
