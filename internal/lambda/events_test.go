package lambda

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockSNS struct {
	inputs []*sns.PublishInput
	err    error
}

func (m *mockSNS) Publish(_ context.Context, in *sns.PublishInput, _ ...func(*sns.Options)) (*sns.PublishOutput, error) {
	m.inputs = append(m.inputs, in)
	if m.err != nil {
		return nil, m.err
	}
	return &sns.PublishOutput{}, nil
}

func streamRecord(name, pk, sk string, image map[string]events.DynamoDBAttributeValue) events.DynamoDBEventRecord {
	return events.DynamoDBEventRecord{
		EventID:   "evt-1",
		EventName: name,
		Change: events.DynamoDBStreamRecord{
			Keys: map[string]events.DynamoDBAttributeValue{
				"PK": events.NewStringAttribute(pk),
				"SK": events.NewStringAttribute(sk),
			},
			NewImage: image,
		},
	}
}

func TestHandleStream_PublishesInsertedProfiles(t *testing.T) {
	client := &mockSNS{}
	d := &Deps{SNSClient: client, EventsTopicARN: "arn:aws:sns:us-east-1:123:members", Logger: discardLogger()}

	err := HandleStream(t.Context(), d, StreamEvent{Records: []events.DynamoDBEventRecord{
		streamRecord("INSERT", "MEMBER#m1", "PROFILE", map[string]events.DynamoDBAttributeValue{
			"email": events.NewStringAttribute("ada@example.com"),
			"name":  events.NewStringAttribute("Ada"),
		}),
		streamRecord("INSERT", "EMAIL#ada@example.com", "EMAIL", nil),
		streamRecord("MODIFY", "MEMBER#m1", "PROFILE", nil),
	}})
	require.NoError(t, err)
	require.Len(t, client.inputs, 1)

	in := client.inputs[0]
	assert.Equal(t, "arn:aws:sns:us-east-1:123:members", *in.TopicArn)
	assert.Equal(t, EventMemberRegistered, *in.MessageAttributes["eventType"].StringValue)

	var evt MemberEvent
	require.NoError(t, json.Unmarshal([]byte(*in.Message), &evt))
	assert.Equal(t, "m1", evt.MemberID)
	assert.Equal(t, "ada@example.com", evt.Email)
	assert.Equal(t, "Ada", evt.Name)
	assert.Equal(t, "INSERT:evt-1", evt.EventID)
}

func TestHandleStream_NotConfigured(t *testing.T) {
	d := &Deps{Logger: discardLogger()}
	err := HandleStream(t.Context(), d, StreamEvent{Records: []events.DynamoDBEventRecord{
		streamRecord("INSERT", "MEMBER#m1", "PROFILE", nil),
	}})
	assert.NoError(t, err)
}

func TestHandleStream_PublishFailureIsSwallowed(t *testing.T) {
	client := &mockSNS{err: errors.New("throttled")}
	d := &Deps{SNSClient: client, EventsTopicARN: "arn", Logger: discardLogger()}

	err := HandleStream(t.Context(), d, StreamEvent{Records: []events.DynamoDBEventRecord{
		streamRecord("INSERT", "MEMBER#m1", "PROFILE", nil),
	}})
	assert.NoError(t, err)
	assert.Len(t, client.inputs, 1)
}
