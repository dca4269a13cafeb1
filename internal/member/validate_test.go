package member

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dwsmith1983/outcome/pkg/types"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name  string
		in    Input
		codes map[string]string
	}{
		{"valid", Input{Email: "ada@example.com", Name: "Ada", Age: 36}, map[string]string{}},
		{"empty", Input{}, map[string]string{"Email": CodeRequired, "Name": CodeRequired, "Age": CodeRange}},
		{"bad email", Input{Email: "not-an-email", Name: "Ada", Age: 36}, map[string]string{"Email": CodeFormat}},
		{"display name email", Input{Email: "Ada <ada@example.com>", Name: "Ada", Age: 36}, map[string]string{"Email": CodeFormat}},
		{"long name", Input{Email: "a@b.co", Name: strings.Repeat("x", MaxNameLength+1), Age: 1}, map[string]string{"Name": CodeRange}},
		{"too old", Input{Email: "a@b.co", Name: "Old", Age: MaxAge + 1}, map[string]string{"Age": CodeRange}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			failures := Validate(tt.in)
			got := make(map[string]string, len(failures))
			for _, f := range failures {
				assert.Equal(t, types.SeverityError, f.Severity)
				assert.NotEmpty(t, f.Message)
				got[f.Field] = f.Code
			}
			assert.Equal(t, tt.codes, got)
		})
	}
}

func TestValidate_FieldOrder(t *testing.T) {
	failures := Validate(Input{})
	fields := make([]string, len(failures))
	for i, f := range failures {
		fields[i] = f.Field
	}
	assert.Equal(t, []string{"Email", "Name", "Age"}, fields)
}
