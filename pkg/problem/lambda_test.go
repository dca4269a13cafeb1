package problem

import (
	"testing"

	"github.com/aws/aws-lambda-go/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dwsmith1983/outcome/pkg/outcome"
	"github.com/dwsmith1983/outcome/pkg/types"
)

func TestAPIGateway(t *testing.T) {
	req := events.APIGatewayV2HTTPRequest{RawPath: "/api/members"}
	req.RequestContext.RequestID = "req-123"

	info := RequestInfoFromAPIGateway(req)
	assert.Equal(t, RequestInfo{Path: "/api/members", TraceID: "req-123"}, info)

	resp, err := APIGateway(New(outcome.ErrorWithKind[int]("slow down", types.KindRateLimited)).WithRequest(info))
	require.NoError(t, err)
	assert.Equal(t, 429, resp.StatusCode)
	assert.Equal(t, ContentTypeProblem, resp.Headers["Content-Type"])
	assert.JSONEq(t, `{
		"type": "https://www.rfc-editor.org/rfc/rfc6585#section-4",
		"title": "RateLimited. There has been a problem with your request.",
		"detail": "slow down",
		"status": 429,
		"instance": "/api/members",
		"extensions": {"traceId": "req-123"}
	}`, resp.Body)

	resp, err = APIGateway(New(outcome.OK()))
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)
	assert.JSONEq(t, `{}`, resp.Body)
}
