package types

// AboutBlank is the problem type used when a kind has no documented URI.
const AboutBlank = "about:blank"

var problemTypes = map[Kind]string{
	KindUnknown:           "https://www.rfc-editor.org/rfc/rfc9110#name-500-internal-server-error",
	KindConflict:          "https://www.rfc-editor.org/rfc/rfc9110#name-409-conflict",
	KindUnauthorized:      "https://www.rfc-editor.org/rfc/rfc9110#name-401-unauthorized",
	KindForbidden:         "https://www.rfc-editor.org/rfc/rfc9110#name-403-forbidden",
	KindRateLimited:       "https://www.rfc-editor.org/rfc/rfc6585#section-4",
	KindTimeout:           "https://www.rfc-editor.org/rfc/rfc9110#name-504-gateway-timeout",
	KindDependencyFailure: "https://www.rfc-editor.org/rfc/rfc9110#name-502-bad-gateway",
	KindBusinessRule:      "https://www.rfc-editor.org/rfc/rfc9110#name-409-conflict",
}

// ProblemType returns the problem-type URI associated with k, or AboutBlank.
func (k Kind) ProblemType() string {
	if uri, ok := problemTypes[k]; ok {
		return uri
	}
	return AboutBlank
}
