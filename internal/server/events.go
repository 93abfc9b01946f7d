package server

import (
	"context"
	"log"
)

// publishEvent broadcasts a lifecycle event over Redis pub/sub. Publishing is
// best-effort; a failed publish never fails the request that triggered it.
func (s *Server) publishEvent(event string, data map[string]any) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.PublishEvent(context.Background(), event, data); err != nil {
		log.Printf("failed to publish %s event: %v", event, err)
	}
}
