package notifications

import (
	"context"
	"encoding/json"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotifier_NilClientIsNoop(t *testing.T) {
	t.Parallel()
	n := NewNotifier(nil)
	assert.NoError(t, n.PublishEvent(context.Background(), EventWorkApproved, nil))
	assert.NoError(t, n.StartSubscriber(context.Background(), func(string) {}))
}

func TestNotifier_PublishAndSubscribe(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer func() { _ = rdb.Close() }()

	n := NewNotifier(rdb)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	payloads := make(chan string, 4)
	require.NoError(t, n.StartSubscriber(ctx, func(payload string) {
		payloads <- payload
	}))

	require.NoError(t, n.PublishEvent(context.Background(), EventWorkSubmitted, map[string]any{"work_id": 7}))

	select {
	case payload := <-payloads:
		var msg struct {
			Event string         `json:"event"`
			Data  map[string]any `json:"data"`
		}
		require.NoError(t, json.Unmarshal([]byte(payload), &msg))
		assert.Equal(t, EventWorkSubmitted, msg.Event)
		assert.Equal(t, float64(7), msg.Data["work_id"])
	case <-time.After(time.Second):
		t.Fatal("no event received")
	}
}

func TestNotifier_SubscriberSurvivesPanic(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer func() { _ = rdb.Close() }()

	n := NewNotifier(rdb)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var received int32
	require.NoError(t, n.StartSubscriber(ctx, func(payload string) {
		if atomic.AddInt32(&received, 1) == 1 {
			panic("handler blew up")
		}
	}))

	require.NoError(t, n.PublishEvent(context.Background(), EventCommentSubmitted, nil))
	assert.Eventually(t, func() bool {
		return atomic.LoadInt32(&received) >= 1
	}, time.Second, 10*time.Millisecond)

	require.NoError(t, n.PublishEvent(context.Background(), EventCommentApproved, nil))
	assert.Eventually(t, func() bool {
		return atomic.LoadInt32(&received) >= 2
	}, time.Second, 10*time.Millisecond)
}
