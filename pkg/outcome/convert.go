package outcome

import "github.com/dwsmith1983/outcome/pkg/types"

// From wraps a raw value as a successful outcome.
func From[T any](data T) Outcome[T] {
	return Success(data)
}

// Value narrows the outcome to its payload. It is the only way to read the data:
// for any status other than OK it returns the zero value and false.
func (o Outcome[T]) Value() (T, bool) {
	if o.status != types.StatusOK {
		var zero T
		return zero, false
	}
	return o.data, true
}

// ToVoid drops the payload and keeps everything else.
func ToVoid[T any](o Outcome[T]) Void {
	return Outcome[Unit]{
		status:   o.status,
		message:  o.message,
		errors:   o.errors,
		kind:     o.kind,
		fields:   o.fields,
		failures: o.failures,
	}
}

// Retype carries a failure outcome over to another payload type, typically to
// propagate a sub-operation's failure from a function returning a different type.
// An OK outcome cannot be retyped because there is no U to carry; Retype then
// returns false.
func Retype[U, T any](o Outcome[T]) (Outcome[U], bool) {
	if o.status == types.StatusOK {
		return Outcome[U]{}, false
	}
	return Outcome[U]{
		status:   o.status,
		errors:   o.errors,
		kind:     o.kind,
		fields:   o.fields,
		failures: o.failures,
	}, true
}

// Map applies fn to the payload of an OK outcome. Failures pass through unchanged.
func Map[T, U any](o Outcome[T], fn func(T) U) Outcome[U] {
	if o.status != types.StatusOK {
		u, _ := Retype[U](o)
		return u
	}
	return SuccessWithMessage(fn(o.data), o.message)
}

// Bind chains an outcome-returning step after an OK outcome. Failures pass through
// unchanged and fn is not called.
func Bind[T, U any](o Outcome[T], fn func(T) Outcome[U]) Outcome[U] {
	if o.status != types.StatusOK {
		u, _ := Retype[U](o)
		return u
	}
	return fn(o.data)
}
