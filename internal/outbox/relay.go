package outbox

import (
	"context"
	"time"

	"github.com/looncamp/booking/internal/observability"
)

// Relay moves due outbox records to the broker. Delivery is best effort:
// a failed publish marks the record FAILED and it is not retried. A record
// whose publish could not be marked stays PUBLISHING and is not sent again.
type Relay struct {
	store     Store
	broker    Broker
	logger    observability.Logger
	interval  time.Duration
	batchSize int
	now       func() time.Time
}

func NewRelay(store Store, broker Broker, logger observability.Logger, interval time.Duration, batchSize int) *Relay {
	if interval <= 0 {
		interval = time.Second
	}
	if batchSize <= 0 {
		batchSize = 20
	}
	return &Relay{store: store, broker: broker, logger: logger, interval: interval, batchSize: batchSize, now: time.Now}
}

func (r *Relay) Run(ctx context.Context) error {
	r.logger.Info("outbox relay started")
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("outbox relay stopped")
			return nil
		case <-ticker.C:
			if _, err := r.Flush(ctx); err != nil {
				r.logger.WithField("error", err.Error()).Error("outbox flush failed")
			}
		}
	}
}

// Flush publishes one batch of due records and reports how many were published.
func (r *Relay) Flush(ctx context.Context) (int, error) {
	records, err := r.store.ClaimDueOutbox(ctx, r.now(), r.batchSize)
	if err != nil {
		return 0, err
	}

	published := 0
	for _, rec := range records {
		log := r.logger.WithField("outbox_id", rec.ID).WithField("event_type", rec.EventType)
		msg := Message{
			ID:          rec.DedupeKey,
			Key:         rec.AggregateID,
			ContentType: "application/json",
			Body:        rec.Payload,
		}
		if err := r.broker.Publish(ctx, rec.EventType, msg); err != nil {
			observability.OutboxPublished.WithLabelValues(string(StatusFailed)).Inc()
			log.WithField("error", err.Error()).Warn("outbox publish failed")
			if err := r.store.MarkFailed(ctx, rec.ID, err.Error()); err != nil {
				log.WithField("error", err.Error()).Error("mark outbox failed")
			}
			continue
		}

		at := r.now()
		if err := r.store.MarkPublished(ctx, rec.ID, at); err != nil {
			log.WithField("error", err.Error()).Error("mark outbox published")
			continue
		}
		observability.OutboxPublished.WithLabelValues(string(StatusPublished)).Inc()
		observability.OutboxLag.Set(at.Sub(rec.AvailableAt).Seconds())
		published++
	}
	return published, nil
}

// LogBroker writes messages to the log instead of a broker.
type LogBroker struct {
	logger observability.Logger
}

func NewLogBroker(logger observability.Logger) *LogBroker {
	return &LogBroker{logger: logger}
}

func (b *LogBroker) Publish(_ context.Context, routingKey string, msg Message) error {
	b.logger.WithField("routing_key", routingKey).WithField("message_id", msg.ID).
		WithField("body", string(msg.Body)).Info("outbox message")
	return nil
}
