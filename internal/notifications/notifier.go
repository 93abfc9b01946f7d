// Package notifications publishes moderation lifecycle events over Redis.
package notifications

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"runtime/debug"

	"github.com/redis/go-redis/v9"
)

const broadcastChannel = "events:broadcast"

// Event names published on the broadcast channel.
const (
	EventWorkSubmitted    = "work_submitted"
	EventWorkApproved     = "work_approved"
	EventWorkRejected     = "work_rejected"
	EventEditSubmitted    = "edit_submitted"
	EventEditApproved     = "edit_approved"
	EventEditRejected     = "edit_rejected"
	EventCommentSubmitted = "comment_submitted"
	EventCommentApproved  = "comment_approved"
	EventCommentRejected  = "comment_rejected"
	EventFlagToggled      = "flag_toggled"
	EventSignatureUpdated = "signature_updated"
)

// Notifier publishes site events into a Redis channel. A nil Redis client
// turns every publish into a no-op, so tests and local setups without Redis
// keep working.
type Notifier struct {
	rdb *redis.Client
}

func NewNotifier(rdb *redis.Client) *Notifier {
	return &Notifier{rdb: rdb}
}

// PublishEvent broadcasts one lifecycle event with an optional payload.
func (n *Notifier) PublishEvent(ctx context.Context, event string, data map[string]any) error {
	if n.rdb == nil {
		return nil
	}
	msg := map[string]any{"event": event}
	if data != nil {
		msg["data"] = data
	}
	b, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal event %s: %w", event, err)
	}
	return n.rdb.Publish(ctx, broadcastChannel, string(b)).Err()
}

// StartSubscriber subscribes to the broadcast channel and calls onMessage for
// each payload until ctx is cancelled. A panicking handler is logged and the
// subscription keeps running.
func (n *Notifier) StartSubscriber(ctx context.Context, onMessage func(payload string)) error {
	if n.rdb == nil {
		return nil
	}
	sub := n.rdb.Subscribe(ctx, broadcastChannel)
	ch := sub.Channel()

	go func() {
		defer func() { _ = sub.Close() }()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				func() {
					defer func() {
						if r := recover(); r != nil {
							log.Printf("PANIC in event subscriber: %v\n%s", r, debug.Stack())
						}
					}()
					onMessage(msg.Payload)
				}()
			}
		}
	}()

	return nil
}
