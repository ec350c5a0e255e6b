package redis

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"homecare-ledger/internal/core/ports"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotificationSink_Notify(t *testing.T) {
	s := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: s.Addr()})
	sink := NewNotificationSink(client)
	ctx := context.Background()

	sub := client.Subscribe(ctx, notificationChannel)
	defer sub.Close()
	_, err := sub.Receive(ctx)
	require.NoError(t, err)

	err = sink.Notify(ctx, "user-123", "your wallet was credited", ports.SeverityInfo)
	require.NoError(t, err)

	recvCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	msg, err := sub.ReceiveMessage(recvCtx)
	require.NoError(t, err)

	var payload notificationPayload
	require.NoError(t, json.Unmarshal([]byte(msg.Payload), &payload))
	assert.Equal(t, "user-123", payload.Recipient)
	assert.Equal(t, "your wallet was credited", payload.Message)
	assert.Equal(t, string(ports.SeverityInfo), payload.Severity)
	assert.False(t, payload.SentAt.IsZero())
}

func TestNotificationSink_NoSubscribers(t *testing.T) {
	s := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: s.Addr()})
	sink := NewNotificationSink(client)

	// Publishing with nobody listening is not an error.
	err := sink.Notify(context.Background(), "FINANCE", "request awaiting approval", ports.SeverityWarning)
	assert.NoError(t, err)
}
