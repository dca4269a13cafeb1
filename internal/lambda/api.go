package lambda

import (
	"bytes"
	"context"
	"encoding/base64"
	"net/http"

	"github.com/dwsmith1983/outcome/internal/member"
	"github.com/dwsmith1983/outcome/pkg/outcome"
	"github.com/dwsmith1983/outcome/pkg/problem"
	"github.com/dwsmith1983/outcome/pkg/types"
)

// Route keys served by HandleAPI.
const (
	RouteRegister    = "POST /members"
	RouteGet         = "GET /members/{memberID}"
	RouteBatch       = "POST /members/batch"
	RouteBatchReport = "POST /members/batch/report"
)

// MaxBatchSize caps the members accepted by one batch request.
const MaxBatchSize = member.DefaultMaxBatchSize

// HandleAPI serves one API Gateway HTTP API request. Every result is an outcome
// rendered by the problem package; only a failure to encode the response is
// returned as an error.
func HandleAPI(ctx context.Context, d *Deps, req APIRequest) (APIResponse, error) {
	switch req.RouteKey {
	case RouteRegister:
		var in member.Input
		if o := decodeBody(req, &in); !o.IsSuccess() {
			return respond(ctx, d, req, o)
		}
		return respond(ctx, d, req, d.Members.Register(ctx, in))

	case RouteGet:
		return respond(ctx, d, req, d.Members.Get(ctx, req.PathParameters["memberID"]))

	case RouteBatch:
		batch := readBatch(req)
		inputs, ok := batch.Value()
		if !ok {
			return respond(ctx, d, req, batch)
		}
		merged, summary := d.Members.RegisterAll(ctx, inputs)
		d.Metrics.Aggregation(ctx, "merge", summary)
		return respond(ctx, d, req, merged)

	case RouteBatchReport:
		fo := member.ParseFidelity(req.QueryStringParameters["fidelity"], d.Fidelity)
		fidelity, ok := fo.Value()
		if !ok {
			return respond(ctx, d, req, fo)
		}
		batch := readBatch(req)
		inputs, ok := batch.Value()
		if !ok {
			return respond(ctx, d, req, batch)
		}
		groups := d.Members.Summarize(ctx, inputs, fidelity)
		d.Metrics.Aggregation(ctx, "report", groups)
		rep := d.Reports.Deliver(ctx, len(inputs), fidelity, groups)

		d.Metrics.Response(ctx, types.StatusOK, "", http.StatusOK)
		return problem.APIGateway(problem.Response{
			Status:      types.StatusOK,
			StatusCode:  http.StatusOK,
			ContentType: problem.ContentTypeJSON,
			Body:        rep,
		})
	}

	return respond(ctx, d, req, outcome.NotFound[outcome.Unit]())
}

func respond[T any](ctx context.Context, d *Deps, req APIRequest, o outcome.Outcome[T]) (APIResponse, error) {
	resp := problem.New(o, d.ProblemOptions...).WithRequest(problem.RequestInfoFromAPIGateway(req))
	kind, _ := o.Kind()
	d.Metrics.Response(ctx, o.Status(), kind, resp.StatusCode)
	if !o.IsSuccess() {
		d.Logger.Debug("request failed", "route", req.RouteKey, "outcome", o)
	}
	return problem.APIGateway(resp)
}

// requestBody returns the raw body, decoding base64 when API Gateway encoded it.
func requestBody(req APIRequest) ([]byte, bool) {
	if !req.IsBase64Encoded {
		return []byte(req.Body), true
	}
	decoded, err := base64.StdEncoding.DecodeString(req.Body)
	return decoded, err == nil
}

func decodeBody(req APIRequest, v any) outcome.Void {
	body, ok := requestBody(req)
	if !ok {
		return outcome.Invalid[outcome.Unit](map[string][]string{"body": {"The request body must be valid JSON."}})
	}
	return member.DecodeJSON(bytes.NewReader(body), v)
}

func readBatch(req APIRequest) outcome.Outcome[[]member.Input] {
	body, ok := requestBody(req)
	if !ok {
		return outcome.Invalid[[]member.Input](map[string][]string{"body": {"The request body must be valid JSON."}})
	}
	return member.DecodeBatch(bytes.NewReader(body), MaxBatchSize)
}
