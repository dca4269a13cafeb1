package outcome

import (
	"errors"
	"fmt"
	"slices"

	"github.com/dwsmith1983/outcome/pkg/types"
)

// ErrUnsupportedStatus is wrapped by the panic raised when aggregation meets a
// status it has no rule for, such as the zero value of an unconstructed outcome.
var ErrUnsupportedStatus = errors.New("outcome: unsupported status for aggregation")

// Fidelity selects how validation failures appear in a grouped report.
type Fidelity int

const (
	// FidelityFlat renders INVALID groups as a flat list of messages.
	FidelityFlat Fidelity = iota
	// FidelityDetailed renders INVALID groups as field pairs and structured records,
	// leaving Messages empty.
	FidelityDetailed
)

// ParseFidelity maps a config value ("flat", "detailed") to a Fidelity.
func ParseFidelity(s string) (Fidelity, error) {
	switch s {
	case "", "flat":
		return FidelityFlat, nil
	case "detailed":
		return FidelityDetailed, nil
	default:
		return FidelityFlat, fmt.Errorf("unknown fidelity %q", s)
	}
}

// String returns the config name of f.
func (f Fidelity) String() string {
	if f == FidelityDetailed {
		return "detailed"
	}
	return "flat"
}

// Group is the summary of all failed members sharing one status.
type Group struct {
	Status   types.Status              `json:"status"`
	Messages []string                  `json:"messages"`
	Fields   []types.FieldMessages     `json:"fields,omitempty"`
	Failures []types.ValidationFailure `json:"failures,omitempty"`
	Members  []Void                    `json:"-"`
}

// Report is the grouped result of Summarize, one Group per failing status in
// order of first appearance.
type Report []Group

// Summarize groups the failing members of a batch by status with flat messages.
// OK and NOT_FOUND members are dropped, so a batch without failures yields an empty
// report.
func Summarize[T any](outcomes ...Outcome[T]) Report {
	return SummarizeWith(FidelityFlat, outcomes...)
}

// SummarizeWith is Summarize with an explicit message fidelity.
func SummarizeWith[T any](fidelity Fidelity, outcomes ...Outcome[T]) Report {
	report := Report{}
	index := make(map[types.Status]int, 2)
	for _, o := range outcomes {
		if excluded(o.status) {
			continue
		}
		i, ok := index[o.status]
		if !ok {
			i = len(report)
			index[o.status] = i
			report = append(report, Group{Status: o.status})
		}
		report[i].Members = append(report[i].Members, ToVoid(o))
	}
	for i := range report {
		report[i] = fold(report[i].Status, report[i].Members, fidelity)
	}
	return report
}

// WithFieldDetail re-derives every INVALID group in detailed form from its members.
// Other groups are returned as they are.
func (r Report) WithFieldDetail() Report {
	out := make(Report, len(r))
	for i, g := range r {
		if g.Status != types.StatusInvalid || len(g.Members) == 0 {
			out[i] = g
			continue
		}
		out[i] = fold(g.Status, g.Members, FidelityDetailed)
	}
	return out
}

// Find returns the group for status, if present.
func (r Report) Find(status types.Status) (Group, bool) {
	for _, g := range r {
		if g.Status == status {
			return g, true
		}
	}
	return Group{}, false
}

// Statuses lists the statuses present in the report, in report order.
func (r Report) Statuses() []types.Status {
	out := make([]types.Status, len(r))
	for i, g := range r {
		out[i] = g.Status
	}
	return out
}

// Merge combines a batch into a single outcome. The result is ERROR if any member
// is ERROR, else INVALID if any member is INVALID, else OK. Operational failures
// take precedence over validation failures.
//
// A merged ERROR carries every member error message in input order and the kind of
// the first ERROR member. A merged INVALID carries every member field pair in input
// order. Field pairs are not merged by name.
func Merge(outcomes ...Void) Void {
	var (
		messages []string
		kind     types.Kind
		fields   []types.FieldMessages
		failures []types.ValidationFailure
		hasError bool
		invalid  bool
	)
	for _, o := range outcomes {
		switch o.status {
		case types.StatusOK, types.StatusNotFound:
			continue
		case types.StatusError:
			if !hasError {
				kind = o.kind
			}
			hasError = true
			messages = append(messages, o.errors...)
		case types.StatusInvalid:
			invalid = true
			fields = append(fields, cloneFields(o.fields)...)
			failures = append(failures, o.failures...)
		default:
			panic(fmt.Errorf("%w: %s", ErrUnsupportedStatus, o.status))
		}
	}

	switch {
	case hasError:
		return Outcome[Unit]{status: types.StatusError, errors: messages, kind: kind}
	case invalid:
		if fields == nil {
			fields = []types.FieldMessages{}
		}
		return Outcome[Unit]{status: types.StatusInvalid, fields: fields, failures: failures}
	default:
		return OK()
	}
}

func excluded(s types.Status) bool {
	return s == types.StatusOK || s == types.StatusNotFound
}

func fold(status types.Status, members []Void, fidelity Fidelity) Group {
	g := Group{Status: status, Messages: []string{}, Members: slices.Clone(members)}
	switch status {
	case types.StatusError:
		for _, m := range members {
			g.Messages = append(g.Messages, m.errors...)
		}
	case types.StatusInvalid:
		if fidelity == FidelityDetailed {
			g.Fields = []types.FieldMessages{}
			g.Failures = []types.ValidationFailure{}
			for _, m := range members {
				g.Fields = append(g.Fields, cloneFields(m.fields)...)
				g.Failures = append(g.Failures, m.failures...)
			}
			return g
		}
		for _, m := range members {
			for _, f := range m.fields {
				g.Messages = append(g.Messages, f.Messages...)
			}
		}
	default:
		panic(fmt.Errorf("%w: %s", ErrUnsupportedStatus, status))
	}
	return g
}
