package member

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/dwsmith1983/outcome/pkg/outcome"
)

// DefaultMaxBatchSize caps the members accepted by one batch request.
const DefaultMaxBatchSize = 100

// BatchRequest is the body of the batch routes.
type BatchRequest struct {
	Members []Input `json:"members"`
}

// DecodeJSON reads one JSON document from r into v. Unknown fields are rejected.
// A malformed or oversized body is INVALID on the "body" field.
func DecodeJSON(r io.Reader, v any) outcome.Void {
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		msg := "The request body must be valid JSON."
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			msg = fmt.Sprintf("The request body must not exceed %d bytes.", tooLarge.Limit)
		}
		return outcome.Invalid[outcome.Unit](map[string][]string{"body": {msg}})
	}
	return outcome.OK()
}

// DecodeBatch reads a BatchRequest from r and checks that it holds between one and
// limit members. A limit <= 0 means DefaultMaxBatchSize.
func DecodeBatch(r io.Reader, limit int) outcome.Outcome[[]Input] {
	if limit <= 0 {
		limit = DefaultMaxBatchSize
	}
	var req BatchRequest
	if o := DecodeJSON(r, &req); !o.IsSuccess() {
		inv, _ := outcome.Retype[[]Input](o)
		return inv
	}
	switch {
	case len(req.Members) == 0:
		return outcome.Invalid[[]Input](map[string][]string{
			"members": {"At least one member is required."},
		})
	case len(req.Members) > limit:
		return outcome.Invalid[[]Input](map[string][]string{
			"members": {fmt.Sprintf("At most %d members can be registered at once.", limit)},
		})
	}
	return outcome.Success(req.Members)
}

// RegisterAll registers a batch and answers with the union of the results: ERROR
// if any member failed operationally, else INVALID if any member was invalid, else
// OK with every registered member. The flat per-status summary of the batch is
// returned alongside.
func (s *Service) RegisterAll(ctx context.Context, inputs []Input) (outcome.Outcome[[]Member], outcome.Report) {
	results := s.RegisterBatch(ctx, inputs)
	summary := outcome.Summarize(results...)

	merged := outcome.Merge(Voids(results)...)
	if failed, ok := outcome.Retype[[]Member](merged); ok {
		return failed, summary
	}

	registered := make([]Member, 0, len(results))
	for _, res := range results {
		if m, ok := res.Value(); ok {
			registered = append(registered, m)
		}
	}
	return outcome.SuccessWithMessage(registered,
		fmt.Sprintf("%d members registered.", len(registered))), summary
}

// Summarize registers a batch and groups its failures by status.
func (s *Service) Summarize(ctx context.Context, inputs []Input, fidelity outcome.Fidelity) outcome.Report {
	return outcome.SummarizeWith(fidelity, s.RegisterBatch(ctx, inputs)...)
}

// ParseFidelity reads a fidelity override. An empty value keeps fallback; an unknown
// one is INVALID on the "fidelity" field.
func ParseFidelity(value string, fallback outcome.Fidelity) outcome.Outcome[outcome.Fidelity] {
	if value == "" {
		return outcome.Success(fallback)
	}
	f, err := outcome.ParseFidelity(value)
	if err != nil {
		return outcome.Invalid[outcome.Fidelity](map[string][]string{
			"fidelity": {"fidelity must be flat or detailed."},
		})
	}
	return outcome.Success(f)
}
