// Package notify delivers payout notifications over Redis Streams.
package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/rueidis"

	"github.com/jnst/pull-payment-service/internal/model"
)

// EventTypePayoutCreated is the event_type field value of payout notifications.
const EventTypePayoutCreated = "payout_created"

// RedisNotificationSender publishes notifications onto a Redis stream consumed
// by the notifier binary.
type RedisNotificationSender struct {
	client rueidis.Client
	stream string
}

// NewRedisNotificationSender creates a sender writing to the given stream.
func NewRedisNotificationSender(client rueidis.Client, stream string) *RedisNotificationSender {
	return &RedisNotificationSender{
		client: client,
		stream: stream,
	}
}

// Send appends the notification to the stream.
func (s *RedisNotificationSender) Send(ctx context.Context, storeID string, notification *model.PayoutNotification) error {
	payload, err := json.Marshal(notification)
	if err != nil {
		return fmt.Errorf("failed to marshal notification payload: %w", err)
	}

	cmd := s.client.B().Xadd().Key(s.stream).Id("*").
		FieldValue().
		FieldValue("event_type", EventTypePayoutCreated).
		FieldValue("store_id", storeID).
		FieldValue("payload", string(payload)).
		Build()

	if err := s.client.Do(ctx, cmd).Error(); err != nil {
		return fmt.Errorf("failed to publish notification to stream %s: %w", s.stream, err)
	}

	return nil
}
