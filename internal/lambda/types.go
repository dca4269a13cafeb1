// Package lambda provides shared types, initialization and handlers for the
// member API Lambda functions.
package lambda

import (
	"context"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-sdk-go-v2/service/sns"
)

// SNSAPI is the subset of the SNS client used for publishing member events.
type SNSAPI interface {
	Publish(ctx context.Context, input *sns.PublishInput, opts ...func(*sns.Options)) (*sns.PublishOutput, error)
}

// APIRequest is the input to the API Lambda.
type APIRequest = events.APIGatewayV2HTTPRequest

// APIResponse is the output of the API Lambda.
type APIResponse = events.APIGatewayV2HTTPResponse

// StreamEvent is the input to the stream Lambda.
type StreamEvent = events.DynamoDBEvent

// EventMemberRegistered is the event type published for a newly stored member.
const EventMemberRegistered = "MEMBER_REGISTERED"

// MemberEvent is published to SNS when a member profile is inserted.
type MemberEvent struct {
	EventID   string    `json:"eventId"`
	EventType string    `json:"eventType"`
	MemberID  string    `json:"memberId"`
	Email     string    `json:"email,omitempty"`
	Name      string    `json:"name,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}
