package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	sqsTypes "github.com/aws/aws-sdk-go-v2/service/sqs/types"
)

// SQSSender abstracts the SQS SendMessage operation for testability.
// Production code uses the *sqs.Client from aws-sdk-go-v2.
type SQSSender interface {
	SendMessage(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error)
}

// SQSPublisher sends each event as a JSON message to a single queue, with
// the event type and prediction kind as message attributes for filtering.
type SQSPublisher struct {
	client   SQSSender
	queueURL string
	logger   *slog.Logger
}

// NewSQSPublisher creates an SQSPublisher.
func NewSQSPublisher(client SQSSender, queueURL string, logger *slog.Logger) *SQSPublisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &SQSPublisher{client: client, queueURL: queueURL, logger: logger}
}

// Name implements Sink.
func (p *SQSPublisher) Name() string { return "sqs" }

// Publish implements Sink.
func (p *SQSPublisher) Publish(ctx context.Context, ev Event) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("notify: failed to marshal %s event: %w", ev.Type, err)
	}

	out, err := p.client.SendMessage(ctx, &sqs.SendMessageInput{
		QueueUrl:    aws.String(p.queueURL),
		MessageBody: aws.String(string(body)),
		MessageAttributes: map[string]sqsTypes.MessageAttributeValue{
			"event": {
				DataType:    aws.String("String"),
				StringValue: aws.String(ev.Type),
			},
			"kind": {
				DataType:    aws.String("String"),
				StringValue: aws.String(string(ev.Record.Kind)),
			},
		},
	})
	if err != nil {
		return fmt.Errorf("notify: failed to send %s to %s: %w", ev.Type, p.queueURL, err)
	}

	var messageID string
	if out != nil && out.MessageId != nil {
		messageID = *out.MessageId
	}
	p.logger.DebugContext(ctx, "event queued",
		"queue_url", p.queueURL,
		"event", ev.Type,
		"prediction_id", ev.Record.ID,
		"message_id", messageID,
	)
	return nil
}
