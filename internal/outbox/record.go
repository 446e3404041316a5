package outbox

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusNew        Status = "NEW"
	StatusPublishing Status = "PUBLISHING"
	StatusPublished  Status = "PUBLISHED"
	StatusFailed     Status = "FAILED"
)

type Record struct {
	ID            uuid.UUID  `json:"id"`
	AggregateType string     `json:"aggregate_type"`
	AggregateID   string     `json:"aggregate_id"`
	EventType     string     `json:"event_type"`
	Payload       []byte     `json:"-"`
	Status        Status     `json:"status"`
	Attempts      int        `json:"attempts"`
	LastError     string     `json:"last_error,omitempty"`
	AvailableAt   time.Time  `json:"available_at"`
	CreatedAt     time.Time  `json:"created_at"`
	PublishedAt   *time.Time `json:"published_at,omitempty"`
	DedupeKey     string     `json:"dedupe_key"`
}

// Store persists outbox records next to the data they describe.
type Store interface {
	InsertOutbox(ctx context.Context, records ...Record) error
	// ClaimDueOutbox moves NEW records whose AvailableAt is not after now to
	// PUBLISHING and returns them oldest first. A record is claimed at most once.
	ClaimDueOutbox(ctx context.Context, now time.Time, limit int) ([]Record, error)
	MarkPublished(ctx context.Context, id uuid.UUID, publishedAt time.Time) error
	MarkFailed(ctx context.Context, id uuid.UUID, reason string) error
	ListOutbox(ctx context.Context, aggregateType, aggregateID string) ([]Record, error)
}

type Message struct {
	ID          string
	Key         string
	ContentType string
	Body        []byte
}

type Broker interface {
	Publish(ctx context.Context, routingKey string, msg Message) error
}
