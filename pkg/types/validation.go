package types

// ValidationFailure is one failure reported by an external validator.
type ValidationFailure struct {
	Field    string   `json:"field"`
	Message  string   `json:"message"`
	Code     string   `json:"code,omitempty"`
	Severity Severity `json:"severity,omitempty"`
}

// FieldMessages pairs a field name with its validation messages.
type FieldMessages struct {
	Field    string   `json:"field"`
	Messages []string `json:"messages"`
}

// Clone returns a deep copy of f.
func (f FieldMessages) Clone() FieldMessages {
	return FieldMessages{Field: f.Field, Messages: append([]string(nil), f.Messages...)}
}
