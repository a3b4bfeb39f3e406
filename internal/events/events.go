// Package events publishes and consumes usage events over NATS JetStream.
package events

import "time"

// FetchTimeout is the default timeout for batch fetching messages from
// consumers.
const FetchTimeout = 2 * time.Second

// StreamEvents is the JetStream stream holding usage events.
const StreamEvents = "ARCANA_EVENTS"

// SubjectUsageEvent carries interpretation usage and quota events.
const SubjectUsageEvent = "arcana.events.usage"

// Usage event types.
const (
	EventInterpretationGenerated = "interpretation.generated"
	EventQuotaExceeded           = "quota.exceeded"
)

// UsageEvent records one quota-relevant action by a user.
type UsageEvent struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	EventType string    `json:"event_type"`
	Tier      string    `json:"tier"`
	ReadingID string    `json:"reading_id,omitempty"`
	Details   string    `json:"details,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}
