package events

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/maintenance-service/internal/domain"
)

func setupRedis(t *testing.T) *redis.Client {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		client.Close()
		mr.Close()
	})
	return client
}

func TestRedisStreamSinkAppendsEvents(t *testing.T) {
	ctx := context.Background()
	client := setupRedis(t)
	sink := NewRedisStreamSink(client, "maintenance:events", 100)

	dispatcher := NewInMemoryDispatcher()
	sink.Register(dispatcher)

	event := Event{
		ID:          "evt-1",
		Type:        EventWorkOrderApproved,
		WorkOrderID: "wo-1",
		Actor:       Actor{ID: "mgr", Role: domain.RoleManager},
		Timestamp:   time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC),
		Payload:     WorkOrderApprovedPayload{Track: domain.ApprovalTrackMaintenance},
	}
	require.NoError(t, dispatcher.Publish(ctx, event))

	entries, err := client.XRange(ctx, "maintenance:events", "-", "+").Result()
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "evt-1", entries[0].Values["id"])
	assert.Equal(t, string(EventWorkOrderApproved), entries[0].Values["type"])

	var decoded map[string]any
	require.NoError(t, json.Unmarshal([]byte(entries[0].Values["event"].(string)), &decoded))
	assert.Equal(t, "wo-1", decoded["work_order_id"])
	assert.Equal(t, "maintenance", decoded["payload"].(map[string]any)["track"])
}

func TestRedisStreamSinkNilIsNoop(t *testing.T) {
	var sink *RedisStreamSink
	assert.NoError(t, sink.Handle(context.Background(), Event{ID: "x"}))
}
