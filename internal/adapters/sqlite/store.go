package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/looncamp/booking/internal/domain"
	"github.com/looncamp/booking/internal/outbox"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

// Store keeps tickets, properties and the notification outbox in SQLite.
// It backs local runs and tests; production uses the postgres adapter.
type Store struct {
	db *bun.DB
}

func Open(dsn string) (*Store, error) {
	sqldb, err := sql.Open(sqliteshim.ShimName, dsn)
	if err != nil {
		return nil, errors.Wrap(err, "open sqlite")
	}
	// sqlite allows one writer; a single connection also keeps :memory: databases alive.
	sqldb.SetMaxOpenConns(1)
	return New(bun.NewDB(sqldb, sqlitedialect.New())), nil
}

func New(db *bun.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) Migrate(ctx context.Context) error {
	models := []interface{}{
		(*propertyModel)(nil),
		(*ticketModel)(nil),
		(*outboxModel)(nil),
	}
	for _, m := range models {
		if _, err := s.db.NewCreateTable().Model(m).IfNotExists().Exec(ctx); err != nil {
			return errors.Wrapf(err, "create table for %T", m)
		}
	}
	_, err := s.db.NewCreateIndex().
		Model((*outboxModel)(nil)).
		Index("outbox_due_idx").
		IfNotExists().
		Column("status", "available_at").
		Exec(ctx)
	if err != nil {
		return errors.Wrap(err, "create outbox index")
	}
	_, err = s.db.NewCreateIndex().
		Model((*outboxModel)(nil)).
		Index("outbox_aggregate_idx").
		IfNotExists().
		Column("aggregate_type", "aggregate_id").
		Exec(ctx)
	return errors.Wrap(err, "create outbox aggregate index")
}

func (s *Store) CreateTicket(ctx context.Context, t domain.ETicket) error {
	m := &ticketModel{
		TicketID:     t.TicketID,
		PropertyID:   t.PropertyID,
		GuestName:    t.GuestName,
		CheckInDate:  t.CheckInDate,
		CheckOutDate: t.CheckOutDate,
		PaidAmount:   t.PaidAmount,
		DueAmount:    t.DueAmount,
		CreatedAt:    t.CreatedAt.UTC(),
	}
	res, err := s.db.NewInsert().Model(m).On("CONFLICT (ticket_id) DO NOTHING").Exec(ctx)
	if err != nil {
		return errors.Wrap(err, "insert eticket")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return errors.Wrapf(domain.ErrConflict, "ticket %s", t.TicketID)
	}
	return nil
}

func (s *Store) GetTicket(ctx context.Context, ticketID string) (*domain.ETicket, error) {
	var m ticketModel
	err := s.db.NewSelect().Model(&m).Where("ticket_id = ?", ticketID).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errors.Wrapf(domain.ErrNotFound, "ticket %s", ticketID)
	}
	if err != nil {
		return nil, errors.Wrap(err, "select eticket")
	}
	t := m.toDomain()
	return &t, nil
}

func (s *Store) GetProperty(ctx context.Context, id string) (*domain.Property, error) {
	var m propertyModel
	err := s.db.NewSelect().Model(&m).Where("id = ?", id).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errors.Wrapf(domain.ErrNotFound, "property %s", id)
	}
	if err != nil {
		return nil, errors.Wrap(err, "select property")
	}
	return &domain.Property{ID: m.ID, Title: m.Title, MapLink: m.MapLink}, nil
}

func (s *Store) PutProperty(ctx context.Context, p domain.Property) error {
	m := &propertyModel{ID: p.ID, Title: p.Title, MapLink: p.MapLink}
	_, err := s.db.NewInsert().Model(m).
		On("CONFLICT (id) DO UPDATE").
		Set("title = EXCLUDED.title").
		Set("map_link = EXCLUDED.map_link").
		Exec(ctx)
	return errors.Wrap(err, "upsert property")
}

func (s *Store) InsertOutbox(ctx context.Context, records ...outbox.Record) error {
	if len(records) == 0 {
		return nil
	}
	models := make([]outboxModel, len(records))
	for i, r := range records {
		models[i] = newOutboxModel(r)
	}
	return s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		_, err := tx.NewInsert().Model(&models).Exec(ctx)
		return errors.Wrap(err, "insert outbox")
	})
}

func (s *Store) ClaimDueOutbox(ctx context.Context, now time.Time, limit int) ([]outbox.Record, error) {
	var records []outbox.Record
	err := s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		var models []outboxModel
		err := tx.NewSelect().Model(&models).
			Where("status = ?", string(outbox.StatusNew)).
			Where("attempts = 0").
			Where("available_at <= ?", now.UTC()).
			Order("available_at ASC", "created_at ASC").
			Limit(limit).
			Scan(ctx)
		if err != nil {
			return errors.Wrap(err, "select due outbox")
		}
		if len(models) == 0 {
			return nil
		}

		ids := make([]string, len(models))
		for i := range models {
			ids[i] = models[i].ID
		}
		_, err = tx.NewUpdate().Model((*outboxModel)(nil)).
			Set("status = ?", string(outbox.StatusPublishing)).
			Set("attempts = attempts + 1").
			Where("id IN (?)", bun.In(ids)).
			Where("status = ?", string(outbox.StatusNew)).
			Exec(ctx)
		if err != nil {
			return errors.Wrap(err, "claim outbox")
		}

		for _, m := range models {
			rec := m.toRecord()
			rec.Status = outbox.StatusPublishing
			rec.Attempts++
			records = append(records, rec)
		}
		return nil
	})
	return records, err
}

func (s *Store) MarkPublished(ctx context.Context, id uuid.UUID, publishedAt time.Time) error {
	at := publishedAt.UTC()
	_, err := s.db.NewUpdate().Model((*outboxModel)(nil)).
		Set("status = ?", string(outbox.StatusPublished)).
		Set("published_at = ?", at).
		Where("id = ?", id.String()).
		Exec(ctx)
	return errors.Wrap(err, "mark outbox published")
}

func (s *Store) MarkFailed(ctx context.Context, id uuid.UUID, reason string) error {
	_, err := s.db.NewUpdate().Model((*outboxModel)(nil)).
		Set("status = ?", string(outbox.StatusFailed)).
		Set("last_error = ?", reason).
		Where("id = ?", id.String()).
		Exec(ctx)
	return errors.Wrap(err, "mark outbox failed")
}

func (s *Store) ListOutbox(ctx context.Context, aggregateType, aggregateID string) ([]outbox.Record, error) {
	var models []outboxModel
	err := s.db.NewSelect().Model(&models).
		Where("aggregate_type = ?", aggregateType).
		Where("aggregate_id = ?", aggregateID).
		Order("available_at ASC", "created_at ASC").
		Scan(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "list outbox")
	}
	out := make([]outbox.Record, len(models))
	for i, m := range models {
		out[i] = m.toRecord()
	}
	return out, nil
}
