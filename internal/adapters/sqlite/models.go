package sqlite

import (
	"time"

	"github.com/google/uuid"
	"github.com/looncamp/booking/internal/domain"
	"github.com/looncamp/booking/internal/outbox"
	"github.com/uptrace/bun"
)

type ticketModel struct {
	bun.BaseModel `bun:"table:etickets"`

	TicketID     string    `bun:"ticket_id,pk"`
	PropertyID   string    `bun:"property_id,notnull"`
	GuestName    string    `bun:"guest_name,notnull"`
	CheckInDate  string    `bun:"check_in_date,notnull"`
	CheckOutDate string    `bun:"check_out_date,notnull"`
	PaidAmount   string    `bun:"paid_amount,notnull,default:''"`
	DueAmount    string    `bun:"due_amount,notnull,default:''"`
	CreatedAt    time.Time `bun:"created_at,notnull"`
}

func (m ticketModel) toDomain() domain.ETicket {
	return domain.ETicket{
		TicketID:     m.TicketID,
		PropertyID:   m.PropertyID,
		GuestName:    m.GuestName,
		CheckInDate:  m.CheckInDate,
		CheckOutDate: m.CheckOutDate,
		PaidAmount:   m.PaidAmount,
		DueAmount:    m.DueAmount,
		CreatedAt:    m.CreatedAt.UTC(),
	}
}

type propertyModel struct {
	bun.BaseModel `bun:"table:properties"`

	ID      string `bun:"id,pk"`
	Title   string `bun:"title,notnull"`
	MapLink string `bun:"map_link,notnull,default:''"`
}

type outboxModel struct {
	bun.BaseModel `bun:"table:outbox"`

	ID            string     `bun:"id,pk"`
	AggregateType string     `bun:"aggregate_type,notnull"`
	AggregateID   string     `bun:"aggregate_id,notnull"`
	EventType     string     `bun:"event_type,notnull"`
	Payload       []byte     `bun:"payload_json"`
	Status        string     `bun:"status,notnull"`
	Attempts      int        `bun:"attempts,notnull,default:0"`
	LastError     string     `bun:"last_error,notnull,default:''"`
	AvailableAt   time.Time  `bun:"available_at,notnull"`
	CreatedAt     time.Time  `bun:"created_at,notnull"`
	PublishedAt   *time.Time `bun:"published_at,nullzero"`
	DedupeKey     string     `bun:"dedupe_key,notnull,unique"`
}

func newOutboxModel(r outbox.Record) outboxModel {
	return outboxModel{
		ID:            r.ID.String(),
		AggregateType: r.AggregateType,
		AggregateID:   r.AggregateID,
		EventType:     r.EventType,
		Payload:       r.Payload,
		Status:        string(r.Status),
		Attempts:      r.Attempts,
		LastError:     r.LastError,
		AvailableAt:   r.AvailableAt.UTC(),
		CreatedAt:     r.CreatedAt.UTC(),
		PublishedAt:   r.PublishedAt,
		DedupeKey:     r.DedupeKey,
	}
}

func (m outboxModel) toRecord() outbox.Record {
	id, _ := uuid.Parse(m.ID)
	return outbox.Record{
		ID:            id,
		AggregateType: m.AggregateType,
		AggregateID:   m.AggregateID,
		EventType:     m.EventType,
		Payload:       m.Payload,
		Status:        outbox.Status(m.Status),
		Attempts:      m.Attempts,
		LastError:     m.LastError,
		AvailableAt:   m.AvailableAt.UTC(),
		CreatedAt:     m.CreatedAt.UTC(),
		PublishedAt:   m.PublishedAt,
		DedupeKey:     m.DedupeKey,
	}
}
