package postgres

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/looncamp/booking/internal/domain"
	"github.com/looncamp/booking/internal/observability"
)

type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func (r *Repository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

func (r *Repository) WithTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	start := time.Now()
	defer func() { observability.DBTxDuration.Observe(time.Since(start).Seconds()) }()

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (r *Repository) CreateTicket(ctx context.Context, t domain.ETicket) error {
	result, err := r.pool.Exec(ctx, `
		INSERT INTO etickets (ticket_id, property_id, guest_name, check_in_date, check_out_date, paid_amount, due_amount, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (ticket_id) DO NOTHING
	`, t.TicketID, t.PropertyID, t.GuestName, t.CheckInDate, t.CheckOutDate, t.PaidAmount, t.DueAmount, t.CreatedAt)
	if err != nil {
		return errors.Wrap(err, "insert eticket")
	}
	if result.RowsAffected() == 0 {
		return errors.Wrapf(domain.ErrConflict, "ticket %s", t.TicketID)
	}
	return nil
}

func (r *Repository) GetTicket(ctx context.Context, ticketID string) (*domain.ETicket, error) {
	var t domain.ETicket
	err := r.pool.QueryRow(ctx, `
		SELECT ticket_id, property_id, guest_name, check_in_date, check_out_date, paid_amount, due_amount, created_at
		FROM etickets WHERE ticket_id = $1
	`, ticketID).Scan(&t.TicketID, &t.PropertyID, &t.GuestName, &t.CheckInDate, &t.CheckOutDate, &t.PaidAmount, &t.DueAmount, &t.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, errors.Wrapf(domain.ErrNotFound, "ticket %s", ticketID)
	}
	if err != nil {
		return nil, errors.Wrap(err, "select eticket")
	}
	t.CreatedAt = t.CreatedAt.UTC()
	return &t, nil
}

func (r *Repository) GetProperty(ctx context.Context, id string) (*domain.Property, error) {
	var p domain.Property
	err := r.pool.QueryRow(ctx, `
		SELECT id, title, map_link FROM properties WHERE id = $1
	`, id).Scan(&p.ID, &p.Title, &p.MapLink)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, errors.Wrapf(domain.ErrNotFound, "property %s", id)
	}
	if err != nil {
		return nil, errors.Wrap(err, "select property")
	}
	return &p, nil
}

func (r *Repository) PutProperty(ctx context.Context, p domain.Property) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO properties (id, title, map_link) VALUES ($1, $2, $3)
		ON CONFLICT (id) DO UPDATE SET title = EXCLUDED.title, map_link = EXCLUDED.map_link
	`, p.ID, p.Title, p.MapLink)
	return errors.Wrap(err, "upsert property")
}
