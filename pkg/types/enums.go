// Package types defines the public vocabulary shared by outcomes, aggregation and
// transport mapping: statuses, error kinds and validation records.
package types

// Status is the discriminator of an outcome.
type Status string

// Status values enumerate the closed set of outcome states. StatusNone is the zero
// value and is only seen on an outcome that was never constructed.
const (
	StatusNone     Status = ""
	StatusOK       Status = "OK"
	StatusError    Status = "ERROR"
	StatusInvalid  Status = "INVALID"
	StatusNotFound Status = "NOT_FOUND"
)

// Valid reports whether s is one of the constructed statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusOK, StatusError, StatusInvalid, StatusNotFound:
		return true
	default:
		return false
	}
}

// String returns the status name, or "NONE" for the zero value.
func (s Status) String() string {
	if s == StatusNone {
		return "NONE"
	}
	return string(s)
}

// Kind classifies why an ERROR outcome happened. The set is open: kinds outside the
// built-in constants are legal and are treated as unmapped.
type Kind string

// Built-in Kind values.
const (
	KindUnknown           Kind = "Unknown"
	KindConflict          Kind = "Conflict"
	KindUnauthorized      Kind = "Unauthorized"
	KindForbidden         Kind = "Forbidden"
	KindRateLimited       Kind = "RateLimited"
	KindTimeout           Kind = "Timeout"
	KindDependencyFailure Kind = "DependencyFailure"
	KindBusinessRule      Kind = "BusinessRule" // domain rule violated, not input validation
)

// Kinds lists the built-in kinds in declaration order.
var Kinds = []Kind{
	KindUnknown,
	KindConflict,
	KindUnauthorized,
	KindForbidden,
	KindRateLimited,
	KindTimeout,
	KindDependencyFailure,
	KindBusinessRule,
}

// Known reports whether k is a built-in kind.
func (k Kind) Known() bool {
	_, ok := problemTypes[k]
	return ok
}

// Severity is the severity a validator attached to a failure.
type Severity string

// Severity values mirror the levels validators commonly emit.
const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
	SeverityInfo    Severity = "info"
)
