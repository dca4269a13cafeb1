package member

import (
	"net/mail"
	"strings"

	"github.com/dwsmith1983/outcome/pkg/types"
)

// Validation codes.
const (
	CodeRequired = "required"
	CodeFormat   = "format"
	CodeRange    = "range"
)

// Field limits.
const (
	MaxAge        = 150
	MaxNameLength = 100
)

// Validate checks in and returns one failure per broken rule, in field order
// Email, Name, Age. An empty result means in is valid.
func Validate(in Input) []types.ValidationFailure {
	var failures []types.ValidationFailure
	fail := func(field, code, msg string) {
		failures = append(failures, types.ValidationFailure{
			Field:    field,
			Message:  msg,
			Code:     code,
			Severity: types.SeverityError,
		})
	}

	email := strings.TrimSpace(in.Email)
	switch {
	case email == "":
		fail("Email", CodeRequired, "Email is required.")
	case !validEmail(email):
		fail("Email", CodeFormat, "Email must be a valid address.")
	}

	name := strings.TrimSpace(in.Name)
	switch {
	case name == "":
		fail("Name", CodeRequired, "Name is required.")
	case len(name) > MaxNameLength:
		fail("Name", CodeRange, "Name must be at most 100 characters.")
	}

	switch {
	case in.Age <= 0:
		fail("Age", CodeRange, "Age must be positive.")
	case in.Age > MaxAge:
		fail("Age", CodeRange, "Age must be at most 150.")
	}
	return failures
}

func validEmail(s string) bool {
	addr, err := mail.ParseAddress(s)
	return err == nil && addr.Address == s
}
