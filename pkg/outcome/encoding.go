package outcome

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/dwsmith1983/outcome/pkg/types"
)

type okBody struct {
	Data           any    `json:"data,omitempty"`
	SuccessMessage string `json:"successMessage,omitempty"`
}

// MarshalJSON renders the body of a successful response: the payload and the
// success message. Status, kind and error details are transport concerns and are
// never serialized; a non-OK outcome marshals to an empty object.
func (o Outcome[T]) MarshalJSON() ([]byte, error) {
	if o.status != types.StatusOK {
		return []byte("{}"), nil
	}
	body := okBody{SuccessMessage: o.message}
	if _, isUnit := any(o.data).(Unit); !isUnit {
		body.Data = o.data
	}
	return json.Marshal(body)
}

// LogValue implements slog.LogValuer.
func (o Outcome[T]) LogValue() slog.Value {
	attrs := []slog.Attr{slog.String("status", o.status.String())}
	switch o.status {
	case types.StatusOK:
		if o.message != "" {
			attrs = append(attrs, slog.String("message", o.message))
		}
	case types.StatusError:
		attrs = append(attrs,
			slog.String("kind", string(o.kind)),
			slog.Any("errors", o.errors),
		)
	case types.StatusInvalid:
		names := make([]string, len(o.fields))
		for i, f := range o.fields {
			names[i] = f.Field
		}
		attrs = append(attrs, slog.Any("fields", names))
	}
	return slog.GroupValue(attrs...)
}

// String formats the outcome for debugging.
func (o Outcome[T]) String() string {
	switch o.status {
	case types.StatusError:
		return fmt.Sprintf("ERROR(%s: %s)", o.kind, strings.Join(o.errors, "; "))
	case types.StatusInvalid:
		parts := make([]string, len(o.fields))
		for i, f := range o.fields {
			parts[i] = fmt.Sprintf("%s=%v", f.Field, f.Messages)
		}
		return fmt.Sprintf("INVALID(%s)", strings.Join(parts, ", "))
	default:
		return o.status.String()
	}
}
