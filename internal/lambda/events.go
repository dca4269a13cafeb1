package lambda

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	snstypes "github.com/aws/aws-sdk-go-v2/service/sns/types"
)

// Key layout of member profile items in the stream.
const (
	memberPKPrefix = "MEMBER#"
	profileSK      = "PROFILE"
)

// HandleStream publishes a MemberEvent for every inserted member profile in the
// DynamoDB stream batch. Other records are skipped. Publishing is best-effort:
// errors are logged, not returned. No-op when the SNS client or topic ARN is not
// configured.
func HandleStream(ctx context.Context, d *Deps, event StreamEvent) error {
	if d.SNSClient == nil || d.EventsTopicARN == "" {
		return nil
	}
	for _, record := range event.Records {
		if record.EventName != string(events.DynamoDBOperationTypeInsert) {
			continue
		}
		keys := record.Change.Keys
		pkAttr, hasPK := keys["PK"]
		skAttr, hasSK := keys["SK"]
		if !hasPK || !hasSK {
			d.Logger.Warn("stream record missing PK/SK", "eventID", record.EventID)
			continue
		}
		if skAttr.String() != profileSK {
			continue
		}
		memberID := strings.TrimPrefix(pkAttr.String(), memberPKPrefix)
		if memberID == pkAttr.String() {
			continue
		}
		PublishMemberEvent(ctx, d, memberID, record)
	}
	return nil
}

// PublishMemberEvent publishes the MemberEvent built from one stream record.
func PublishMemberEvent(ctx context.Context, d *Deps, memberID string, record events.DynamoDBEventRecord) {
	evt := MemberEvent{
		EventID:   fmt.Sprintf("%s:%s", record.EventName, record.EventID),
		EventType: EventMemberRegistered,
		MemberID:  memberID,
		Timestamp: time.Now().UTC(),
	}
	if img := record.Change.NewImage; img != nil {
		if attr, ok := img["email"]; ok {
			evt.Email = attr.String()
		}
		if attr, ok := img["name"]; ok {
			evt.Name = attr.String()
		}
	}

	payload, err := json.Marshal(evt)
	if err != nil {
		d.Logger.Error("failed to marshal member event", "member", memberID, "error", err)
		return
	}

	_, err = d.SNSClient.Publish(ctx, &sns.PublishInput{
		TopicArn: aws.String(d.EventsTopicARN),
		Message:  aws.String(string(payload)),
		MessageAttributes: map[string]snstypes.MessageAttributeValue{
			"eventType": {
				DataType:    aws.String("String"),
				StringValue: aws.String(evt.EventType),
			},
		},
	})
	if err != nil {
		d.Logger.Error("failed to publish member event", "member", memberID, "error", err)
		return
	}
	d.Logger.Info("published member event", "member", memberID, "eventType", evt.EventType)
}
