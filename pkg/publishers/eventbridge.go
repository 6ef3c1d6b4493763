package publishers

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge/types"

	"github.com/Adda-Baaj/prism-news/internal/awsconfig"
)

// eventBridgeClient defines the minimal subset of the EventBridge client used by the sender.
type eventBridgeClient interface {
	PutEvents(ctx context.Context, params *eventbridge.PutEventsInput, optFns ...func(*eventbridge.Options)) (*eventbridge.PutEventsOutput, error)
}

// eventBridgeSender implements queueSender for an EventBridge bus.
type eventBridgeSender struct {
	busName string
	client  eventBridgeClient
	log     Logger
}

func newEventBridgeSender(ctx context.Context, cfg *EventBridgePublisherConfig, log Logger) (queueSender, error) {
	if cfg == nil {
		return nil, fmt.Errorf("aws eventbridge configuration is missing")
	}

	if ctx == nil {
		ctx = context.Background()
	}

	awsCfg, err := awsconfig.Load(ctx, cfg.Region, cfg.AccessKeyID, cfg.SecretAccessKey)
	if err != nil {
		return nil, err
	}

	return &eventBridgeSender{
		busName: cfg.EventBusName,
		client:  eventbridge.NewFromConfig(awsCfg),
		log:     ensureLogger(log),
	}, nil
}

// Send puts one entry on the bus with the record JSON as its detail. PutEvents reports
// per-entry failures in the response body, so a nil error alone is not success.
func (s *eventBridgeSender) Send(ctx context.Context, evt Event) error {
	payload, err := evt.Payload()
	if err != nil {
		return err
	}

	entry := types.PutEventsRequestEntry{
		Source:     aws.String(evt.Source),
		DetailType: aws.String(evt.DetailType),
		Detail:     aws.String(string(payload)),
	}
	if s.busName != "" {
		entry.EventBusName = aws.String(s.busName)
	}

	resp, err := s.client.PutEvents(ctx, &eventbridge.PutEventsInput{
		Entries: []types.PutEventsRequestEntry{entry},
	})
	if err != nil {
		s.log.ErrorObj("eventbridge publisher send failed", "publisher_eventbridge_error", map[string]any{
			"error": err.Error(),
		})
		return fmt.Errorf("put events: %w", err)
	}

	if resp.FailedEntryCount > 0 {
		var code, msg string
		if len(resp.Entries) > 0 {
			code = aws.ToString(resp.Entries[0].ErrorCode)
			msg = aws.ToString(resp.Entries[0].ErrorMessage)
		}
		s.log.ErrorObj("eventbridge rejected entry", "publisher_eventbridge_rejected", map[string]any{
			"error_code":    code,
			"error_message": msg,
			"record_id":     evt.Record.ID,
		})
		return fmt.Errorf("eventbridge rejected entry: %s: %s", code, msg)
	}

	var eventID string
	if len(resp.Entries) > 0 {
		eventID = aws.ToString(resp.Entries[0].EventId)
	}
	s.log.DebugObj("eventbridge publisher delivered event", "publisher_eventbridge_delivery", map[string]any{
		"event_id":  eventID,
		"record_id": evt.Record.ID,
	})
	return nil
}
