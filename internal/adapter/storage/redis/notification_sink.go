package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"homecare-ledger/internal/core/ports"

	goredis "github.com/redis/go-redis/v9"
)

const notificationChannel = "notifications"

// NotificationSink implements ports.NotificationSink by publishing to a Redis
// pub/sub channel. Downstream delivery (push, email) subscribes elsewhere.
type NotificationSink struct {
	client *goredis.Client
}

// NewNotificationSink creates a Redis-backed notification sink.
func NewNotificationSink(client *goredis.Client) *NotificationSink {
	return &NotificationSink{client: client}
}

type notificationPayload struct {
	Recipient string    `json:"recipient"`
	Message   string    `json:"message"`
	Severity  string    `json:"severity"`
	SentAt    time.Time `json:"sent_at"`
}

// Notify publishes one notification event. Callers treat errors as
// best-effort: they log and continue.
func (s *NotificationSink) Notify(ctx context.Context, recipient, message string, severity ports.Severity) error {
	payload, err := json.Marshal(notificationPayload{
		Recipient: recipient,
		Message:   message,
		Severity:  string(severity),
		SentAt:    time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}

	if err := s.client.Publish(ctx, notificationChannel, payload).Err(); err != nil {
		return fmt.Errorf("publish notification: %w", err)
	}
	return nil
}
