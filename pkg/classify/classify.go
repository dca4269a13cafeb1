// Package classify turns Go errors returned by infrastructure code into outcome
// error kinds, so a service can hand failures to the transport layer as data.
package classify

import (
	"context"
	"errors"
	"net"
	"strings"

	"github.com/aws/smithy-go"
	"github.com/sony/gobreaker"

	"github.com/dwsmith1983/outcome/pkg/outcome"
	"github.com/dwsmith1983/outcome/pkg/types"
)

// Kinded is implemented by errors that know their own classification. It lets
// domain packages tag their sentinels without this package importing them.
type Kinded interface {
	OutcomeKind() types.Kind
}

type kindError struct {
	kind types.Kind
	msg  string
	err  error
}

func (e *kindError) Error() string {
	if e.err == nil {
		return e.msg
	}
	if e.msg == "" {
		return e.err.Error()
	}
	return e.msg + ": " + e.err.Error()
}

func (e *kindError) Unwrap() error           { return e.err }
func (e *kindError) OutcomeKind() types.Kind { return e.kind }

// New returns an error carrying kind.
func New(kind types.Kind, msg string) error {
	return &kindError{kind: kind, msg: msg}
}

// Wrap tags err with kind. The result unwraps to err. Wrap returns nil for a nil err.
func Wrap(err error, kind types.Kind) error {
	if err == nil {
		return nil
	}
	return &kindError{kind: kind, err: err}
}

// Kind classifies err. The first matching rule wins:
//
//   - an error in the chain implementing Kinded
//   - context deadline or cancellation: Timeout
//   - an open or saturated circuit breaker: DependencyFailure
//   - an AWS API error, by error code
//   - a network timeout: Timeout
//
// Anything else, including nil, is Unknown.
func Kind(err error) types.Kind {
	if err == nil {
		return types.KindUnknown
	}

	var k Kinded
	if errors.As(err, &k) {
		if kind := k.OutcomeKind(); kind != "" {
			return kind
		}
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return types.KindTimeout
	}
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return types.KindDependencyFailure
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		return apiErrorKind(apiErr)
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return types.KindTimeout
	}
	return types.KindUnknown
}

func apiErrorKind(apiErr smithy.APIError) types.Kind {
	code := apiErr.ErrorCode()
	switch {
	case strings.Contains(code, "Throttl"),
		code == "ProvisionedThroughputExceededException",
		code == "RequestLimitExceeded",
		code == "TooManyRequestsException":
		return types.KindRateLimited
	case code == "AccessDeniedException", code == "AccessDenied":
		return types.KindForbidden
	case code == "UnrecognizedClientException",
		code == "ExpiredTokenException",
		code == "InvalidSignatureException":
		return types.KindUnauthorized
	case code == "ConditionalCheckFailedException",
		code == "TransactionConflictException",
		code == "ResourceInUseException":
		return types.KindConflict
	case code == "RequestTimeout", code == "RequestTimeoutException":
		return types.KindTimeout
	}
	return types.KindDependencyFailure
}

// Outcome converts a non-nil err into an ERROR outcome classified by Kind. The
// error text becomes the outcome's message.
func Outcome[T any](err error) outcome.Outcome[T] {
	msg := "unknown error"
	if err != nil && err.Error() != "" {
		msg = err.Error()
	}
	return outcome.ErrorWithKind[T](msg, Kind(err))
}
