package problem

import (
	"encoding/json"
	"fmt"

	"github.com/aws/aws-lambda-go/events"
)

// APIGateway converts resp into an API Gateway HTTP API response.
func APIGateway(resp Response) (events.APIGatewayV2HTTPResponse, error) {
	data, err := json.Marshal(resp.Body)
	if err != nil {
		return events.APIGatewayV2HTTPResponse{}, fmt.Errorf("marshal %d response: %w", resp.StatusCode, err)
	}
	return events.APIGatewayV2HTTPResponse{
		StatusCode: resp.StatusCode,
		Headers:    map[string]string{"Content-Type": resp.ContentType},
		Body:       string(data),
	}, nil
}

// RequestInfoFromAPIGateway reads the raw path and uses the API Gateway request id
// as trace id.
func RequestInfoFromAPIGateway(req events.APIGatewayV2HTTPRequest) RequestInfo {
	return RequestInfo{Path: req.RawPath, TraceID: req.RequestContext.RequestID}
}
