// Package problem maps outcomes onto HTTP responses: a status code and, for every
// non-OK outcome, a problem details body in the style of RFC 7807.
package problem

import (
	"fmt"
	"maps"
	"net/http"

	"github.com/dwsmith1983/outcome/pkg/outcome"
	"github.com/dwsmith1983/outcome/pkg/types"
)

// Content types written by Write.
const (
	ContentTypeJSON    = "application/json"
	ContentTypeProblem = "application/problem+json"
)

// Fixed wording of the generated bodies.
const (
	DefaultErrorTitle = "There has been a problem with your request."
	NotFoundTitle     = "Not found."
	NotFoundDetail    = "The requested resource was not found."
	InvalidTitle      = "Invalid request."
	InvalidDetail     = "Your request is invalid; see the errors field."
)

// Extensions holds the non-standard members of a problem body.
type Extensions struct {
	TraceID string `json:"traceId,omitempty"`
}

// Details is the problem body for ERROR, NOT_FOUND and unsupported outcomes.
type Details struct {
	Type       string     `json:"type"`
	Title      string     `json:"title,omitempty"`
	Detail     *string    `json:"detail"`
	Status     int        `json:"status"`
	Instance   string     `json:"instance,omitempty"`
	Extensions Extensions `json:"extensions"`
}

// Bare is the problem body for outcomes without a mapping rule. It carries only the
// status code.
type Bare struct {
	Status int `json:"status"`
}

// ValidationDetails is the problem body for INVALID outcomes. Errors is never nil.
type ValidationDetails struct {
	Details
	Errors map[string][]string `json:"errors"`
}

// Response is a rendered outcome, independent of the transport that writes it.
type Response struct {
	// Status is the status of the outcome the response was built from.
	Status      types.Status
	StatusCode  int
	ContentType string
	// Body is the outcome itself for OK, Details or ValidationDetails otherwise.
	Body any
}

// IsProblem reports whether the body is a problem document.
func (r Response) IsProblem() bool {
	return r.ContentType == ContentTypeProblem
}

// StatusCode maps a status and, for ERROR, its kind onto an HTTP status code.
func StatusCode(status types.Status, kind types.Kind) int {
	switch status {
	case types.StatusOK:
		return http.StatusOK
	case types.StatusInvalid:
		return http.StatusBadRequest
	case types.StatusNotFound:
		return http.StatusNotFound
	case types.StatusError:
		switch kind {
		case types.KindConflict, types.KindBusinessRule:
			return http.StatusConflict
		case types.KindUnauthorized:
			return http.StatusUnauthorized
		case types.KindForbidden:
			return http.StatusForbidden
		case types.KindRateLimited:
			return http.StatusTooManyRequests
		case types.KindTimeout:
			return http.StatusGatewayTimeout
		case types.KindDependencyFailure:
			return http.StatusBadGateway
		}
	}
	return http.StatusInternalServerError
}

// Option customises New.
type Option func(*settings)

type settings struct {
	problemTypes map[types.Kind]string
	errorTitle   string
}

// WithProblemTypes overrides the problem type URI of the given kinds.
func WithProblemTypes(uris map[types.Kind]string) Option {
	return func(s *settings) {
		if s.problemTypes == nil {
			s.problemTypes = make(map[types.Kind]string, len(uris))
		}
		maps.Copy(s.problemTypes, uris)
	}
}

// WithErrorTitle replaces DefaultErrorTitle in ERROR titles.
func WithErrorTitle(title string) Option {
	return func(s *settings) {
		if title != "" {
			s.errorTitle = title
		}
	}
}

func (s *settings) problemType(kind types.Kind) string {
	if uri, ok := s.problemTypes[kind]; ok && uri != "" {
		return uri
	}
	return kind.ProblemType()
}

// New renders o. It is pure: the same outcome and options always give the same
// response.
func New[T any](o outcome.Outcome[T], opts ...Option) Response {
	s := settings{errorTitle: DefaultErrorTitle}
	for _, opt := range opts {
		opt(&s)
	}

	status := o.Status()
	switch status {
	case types.StatusOK:
		return Response{Status: status, StatusCode: http.StatusOK, ContentType: ContentTypeJSON, Body: o}

	case types.StatusError:
		kind, _ := o.Kind()
		code := StatusCode(status, kind)
		detail := o.ErrorMessages()[0]
		return problemResponse(status, Details{
			Type:   s.problemType(kind),
			Title:  fmt.Sprintf("%s. %s", kind, s.errorTitle),
			Detail: &detail,
			Status: code,
		})

	case types.StatusNotFound:
		detail := NotFoundDetail
		return problemResponse(status, Details{
			Type:   types.AboutBlank,
			Title:  NotFoundTitle,
			Detail: &detail,
			Status: http.StatusNotFound,
		})

	case types.StatusInvalid:
		errs := o.ValidationErrors()
		if errs == nil {
			errs = map[string][]string{}
		}
		detail := InvalidDetail
		return problemResponse(status, ValidationDetails{
			Details: Details{
				Type:   types.AboutBlank,
				Title:  InvalidTitle,
				Detail: &detail,
				Status: http.StatusBadRequest,
			},
			Errors: errs,
		})
	}

	return problemResponse(status, Bare{Status: http.StatusInternalServerError})
}

func problemResponse(status types.Status, body any) Response {
	code := http.StatusInternalServerError
	switch b := body.(type) {
	case Details:
		code = b.Status
	case ValidationDetails:
		code = b.Status
	case Bare:
		code = b.Status
	}
	return Response{Status: status, StatusCode: code, ContentType: ContentTypeProblem, Body: body}
}

// WithRequest attaches request context to a problem body: the instance path and,
// when known, the trace id. OK responses and bare problems are returned unchanged.
func (r Response) WithRequest(info RequestInfo) Response {
	switch b := r.Body.(type) {
	case Details:
		b.Instance = info.Path
		b.Extensions.TraceID = info.TraceID
		r.Body = b
	case ValidationDetails:
		b.Instance = info.Path
		b.Extensions.TraceID = info.TraceID
		r.Body = b
	}
	return r
}
