package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go/jetstream"
)

// Publisher provides typed methods for publishing usage events.
type Publisher struct {
	js jetstream.JetStream
}

// NewPublisher creates a new Publisher.
func NewPublisher(js jetstream.JetStream) *Publisher {
	return &Publisher{js: js}
}

// PublishUsageEvent publishes a usage event, filling in ID and timestamp if
// unset.
func (p *Publisher) PublishUsageEvent(ctx context.Context, event UsageEvent) error {
	if event.ID == "" {
		event.ID = uuid.New().String()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshaling usage event: %w", err)
	}
	if _, err := p.js.Publish(ctx, SubjectUsageEvent, payload); err != nil {
		return fmt.Errorf("publishing to %s: %w", SubjectUsageEvent, err)
	}
	return nil
}

// PublishUsageEventAsync publishes best-effort from the request path:
// a broker outage must never delay or fail a user request.
func (p *Publisher) PublishUsageEventAsync(event UsageEvent) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := p.PublishUsageEvent(ctx, event); err != nil {
			slog.Warn("publishing usage event", "event_type", event.EventType, "error", err)
		}
	}()
}
