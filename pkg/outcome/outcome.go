// Package outcome provides the result value returned by service operations in place
// of a Go error, and the aggregation of many such values into one summary.
//
// An Outcome is created by exactly one constructor per status and is immutable
// afterwards. Accessors return copies, so an Outcome can be shared freely between
// goroutines.
package outcome

import (
	"errors"
	"fmt"
	"slices"
	"sort"

	"github.com/dwsmith1983/outcome/pkg/types"
)

// ErrContract is wrapped by the panics raised when a caller breaks a constructor
// or narrowing contract. These are programming errors, not runtime conditions.
var ErrContract = errors.New("outcome: contract violation")

// Unit is the payload of outcomes that carry no data.
type Unit = struct{}

// Void is the non-generic outcome used by operations without a payload.
type Void = Outcome[Unit]

// Outcome is the discriminated result of an operation.
type Outcome[T any] struct {
	status   types.Status
	data     T
	message  string
	errors   []string
	kind     types.Kind
	fields   []types.FieldMessages
	failures []types.ValidationFailure
}

// Success returns an OK outcome carrying data.
func Success[T any](data T) Outcome[T] {
	return Outcome[T]{status: types.StatusOK, data: data}
}

// SuccessWithMessage returns an OK outcome carrying data and a human-readable note.
func SuccessWithMessage[T any](data T, message string) Outcome[T] {
	return Outcome[T]{status: types.StatusOK, data: data, message: message}
}

// OK returns a successful Void.
func OK() Void {
	return Success(Unit{})
}

// OKWithMessage returns a successful Void with a note.
func OKWithMessage(message string) Void {
	return SuccessWithMessage(Unit{}, message)
}

// Error returns an ERROR outcome of kind Unknown. It panics if message is empty.
func Error[T any](message string) Outcome[T] {
	return ErrorWithKind[T](message, types.KindUnknown)
}

// ErrorWithKind returns an ERROR outcome with the given classification. An empty
// kind is treated as Unknown. It panics if message is empty.
func ErrorWithKind[T any](message string, kind types.Kind) Outcome[T] {
	if message == "" {
		panic(fmt.Errorf("%w: error outcome requires a message", ErrContract))
	}
	if kind == "" {
		kind = types.KindUnknown
	}
	return Outcome[T]{status: types.StatusError, errors: []string{message}, kind: kind}
}

// Invalid returns an INVALID outcome from a field→messages map. The map is copied,
// so later changes by the caller do not reach the outcome. Fields are kept in
// byte-wise key order.
func Invalid[T any](fieldErrors map[string][]string) Outcome[T] {
	keys := make([]string, 0, len(fieldErrors))
	for k := range fieldErrors {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	o := Outcome[T]{status: types.StatusInvalid, fields: make([]types.FieldMessages, 0, len(keys))}
	for _, k := range keys {
		msgs := append([]string(nil), fieldErrors[k]...)
		o.fields = append(o.fields, types.FieldMessages{Field: k, Messages: msgs})
		for _, m := range msgs {
			o.failures = append(o.failures, types.ValidationFailure{
				Field:    k,
				Message:  m,
				Severity: types.SeverityError,
			})
		}
	}
	return o
}

// InvalidFromFailures returns an INVALID outcome from a validator's failure list.
// Failures are grouped by field in first-seen order; message order within a field
// is preserved.
func InvalidFromFailures[T any](failures []types.ValidationFailure) Outcome[T] {
	o := Outcome[T]{
		status:   types.StatusInvalid,
		fields:   []types.FieldMessages{},
		failures: slices.Clone(failures),
	}
	index := make(map[string]int, len(failures))
	for _, f := range failures {
		i, ok := index[f.Field]
		if !ok {
			i = len(o.fields)
			index[f.Field] = i
			o.fields = append(o.fields, types.FieldMessages{Field: f.Field})
		}
		o.fields[i].Messages = append(o.fields[i].Messages, f.Message)
	}
	return o
}

// NotFound returns a NOT_FOUND outcome.
func NotFound[T any]() Outcome[T] {
	return Outcome[T]{status: types.StatusNotFound}
}

// Status returns the outcome's status.
func (o Outcome[T]) Status() types.Status { return o.status }

// IsSuccess reports whether the status is OK.
func (o Outcome[T]) IsSuccess() bool { return o.status == types.StatusOK }

// IsError reports whether the status is ERROR.
func (o Outcome[T]) IsError() bool { return o.status == types.StatusError }

// IsInvalid reports whether the status is INVALID.
func (o Outcome[T]) IsInvalid() bool { return o.status == types.StatusInvalid }

// IsNotFound reports whether the status is NOT_FOUND.
func (o Outcome[T]) IsNotFound() bool { return o.status == types.StatusNotFound }

// SuccessMessage returns the note attached to an OK outcome.
func (o Outcome[T]) SuccessMessage() string { return o.message }

// ErrorMessages returns a copy of the error messages of an ERROR outcome.
func (o Outcome[T]) ErrorMessages() []string {
	return slices.Clone(o.errors)
}

// Kind returns the classification of an ERROR outcome. The second result is false
// for every other status.
func (o Outcome[T]) Kind() (types.Kind, bool) {
	if o.status != types.StatusError {
		return "", false
	}
	return o.kind, true
}

// ValidationErrors returns a copy of the field→messages map of an INVALID outcome,
// or nil for any other status.
func (o Outcome[T]) ValidationErrors() map[string][]string {
	if o.status != types.StatusInvalid {
		return nil
	}
	m := make(map[string][]string, len(o.fields))
	for _, f := range o.fields {
		m[f.Field] = append(m[f.Field], f.Messages...)
	}
	return m
}

// FieldErrors returns the ordered field→messages pairs of an INVALID outcome.
func (o Outcome[T]) FieldErrors() []types.FieldMessages {
	return cloneFields(o.fields)
}

// Failures returns the structured validation records of an INVALID outcome.
func (o Outcome[T]) Failures() []types.ValidationFailure {
	return slices.Clone(o.failures)
}

func cloneFields(fields []types.FieldMessages) []types.FieldMessages {
	if fields == nil {
		return nil
	}
	out := make([]types.FieldMessages, len(fields))
	for i, f := range fields {
		out[i] = f.Clone()
	}
	return out
}
