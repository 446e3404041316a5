package notify

import (
	"context"
	"encoding/json"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/looncamp/booking/internal/observability"
	"github.com/looncamp/booking/internal/outbox"
)

const AggregateType = "eticket"

func EventType(a Audience) string {
	return "notification." + string(a)
}

// Dispatcher queues composed messages in the outbox, one stagger apart.
type Dispatcher struct {
	composer *Composer
	store    outbox.Store
	stagger  time.Duration
	logger   observability.Logger
	now      func() time.Time
}

func NewDispatcher(composer *Composer, store outbox.Store, stagger time.Duration, logger observability.Logger) *Dispatcher {
	return &Dispatcher{composer: composer, store: store, stagger: stagger, logger: logger, now: time.Now}
}

func (d *Dispatcher) Dispatch(ctx context.Context, b Booking) error {
	msgs := d.composer.Compose(b)
	now := d.now().UTC()

	records := make([]outbox.Record, 0, len(msgs))
	for i, m := range msgs {
		payload, err := json.Marshal(m)
		if err != nil {
			return errors.Wrap(err, "encode notification")
		}
		records = append(records, outbox.Record{
			ID:            uuid.New(),
			AggregateType: AggregateType,
			AggregateID:   b.TicketID,
			EventType:     EventType(m.Audience),
			Payload:       payload,
			Status:        outbox.StatusNew,
			AvailableAt:   now.Add(time.Duration(i) * d.stagger),
			CreatedAt:     now,
			DedupeKey:     b.TicketID + ":" + string(m.Audience),
		})
	}

	if err := d.store.InsertOutbox(ctx, records...); err != nil {
		return errors.Wrapf(err, "queue notifications for %s", b.TicketID)
	}
	d.logger.WithField("ticket_id", b.TicketID).WithField("count", len(records)).Info("notifications queued")
	return nil
}

type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// Deliver decodes a published notification and sends it. Failures are
// logged and reported, never retried.
func Deliver(ctx context.Context, sender Sender, logger observability.Logger, body []byte) error {
	var msg Message
	if err := json.Unmarshal(body, &msg); err != nil {
		logger.WithField("error", err.Error()).Warn("dropping malformed notification")
		return errors.Wrap(err, "decode notification")
	}
	if err := sender.Send(ctx, msg); err != nil {
		observability.NotificationsSent.WithLabelValues(string(msg.Audience), "failed").Inc()
		logger.WithField("ticket_id", msg.TicketID).WithField("audience", msg.Audience).
			WithField("error", err.Error()).Warn("notification delivery failed")
		return err
	}
	observability.NotificationsSent.WithLabelValues(string(msg.Audience), "sent").Inc()
	return nil
}

// View is a queued notification as exposed to clients.
type View struct {
	Message
	Status      outbox.Status `json:"status"`
	AvailableAt time.Time     `json:"available_at"`
	PublishedAt *time.Time    `json:"published_at,omitempty"`
	LastError   string        `json:"last_error,omitempty"`
}

func Views(records []outbox.Record) ([]View, error) {
	out := make([]View, 0, len(records))
	for _, r := range records {
		var m Message
		if err := json.Unmarshal(r.Payload, &m); err != nil {
			return nil, errors.Wrapf(err, "decode outbox record %s", r.ID)
		}
		out = append(out, View{
			Message:     m,
			Status:      r.Status,
			AvailableAt: r.AvailableAt,
			PublishedAt: r.PublishedAt,
			LastError:   r.LastError,
		})
	}
	return out, nil
}

// DirectBroker delivers relayed notifications in process, for deployments
// without a message broker.
type DirectBroker struct {
	sender Sender
	logger observability.Logger
}

func NewDirectBroker(sender Sender, logger observability.Logger) *DirectBroker {
	return &DirectBroker{sender: sender, logger: logger}
}

func (b *DirectBroker) Publish(ctx context.Context, _ string, msg outbox.Message) error {
	return Deliver(ctx, b.sender, b.logger, msg.Body)
}
