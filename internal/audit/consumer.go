package audit

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/divination-engine/arcana/internal/events"
)

// Consumer listens on the usage event subject and persists entries to the
// database.
type Consumer struct {
	repo        *Repository
	consumerMgr *events.ConsumerManager
}

// NewConsumer creates a new usage event Consumer.
func NewConsumer(repo *Repository, consumerMgr *events.ConsumerManager) *Consumer {
	return &Consumer{
		repo:        repo,
		consumerMgr: consumerMgr,
	}
}

// Start begins the consume loop. Blocks until ctx is cancelled.
func (c *Consumer) Start(ctx context.Context) error {
	consumer, err := c.consumerMgr.EnsureConsumer(ctx, events.StreamEvents, "usage-audit-persister", events.SubjectUsageEvent)
	if err != nil {
		return err
	}

	slog.Info("usage audit consumer started", "consumer", "usage-audit-persister")

	for {
		msgs, err := consumer.Fetch(10, jetstream.FetchMaxWait(events.FetchTimeout))
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			slog.Debug("audit consumer: fetching events", "error", err)
			continue
		}

		for msg := range msgs.Messages() {
			c.handleEvent(ctx, msg)
		}

		if ctx.Err() != nil {
			return nil
		}
	}
}

func (c *Consumer) handleEvent(ctx context.Context, msg jetstream.Msg) {
	var event events.UsageEvent
	if err := json.Unmarshal(msg.Data(), &event); err != nil {
		slog.Error("audit consumer: unmarshaling event", "error", err)
		_ = msg.Nak()
		return
	}

	userID, err := uuid.Parse(event.UserID)
	if err != nil {
		slog.Error("audit consumer: event has non-UUID user id", "user_id", event.UserID)
		_ = msg.Ack() // redelivery cannot fix a malformed event
		return
	}

	entry := &Entry{
		UserID:    userID,
		EventType: event.EventType,
		Tier:      event.Tier,
		Details:   event.Details,
		CreatedAt: event.Timestamp,
	}

	if event.ReadingID != "" {
		if parsed, err := uuid.Parse(event.ReadingID); err == nil {
			entry.ReadingID = &parsed
		}
	}

	if err := c.repo.Insert(ctx, entry); err != nil {
		slog.Error("audit consumer: persisting entry", "error", err, "event_type", event.EventType)
		_ = msg.Nak()
		return
	}

	_ = msg.Ack()

	slog.Debug("audit consumer: persisted event",
		"event_type", event.EventType,
		"user_id", event.UserID,
	)
}
