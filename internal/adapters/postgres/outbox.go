package postgres

import (
	"context"
	"sort"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/looncamp/booking/internal/outbox"
)

const outboxColumns = `id, aggregate_type, aggregate_id, event_type, payload_json, status, attempts, last_error, available_at, created_at, published_at, dedupe_key`

func (r *Repository) InsertOutbox(ctx context.Context, records ...outbox.Record) error {
	if len(records) == 0 {
		return nil
	}
	return r.WithTx(ctx, func(tx pgx.Tx) error {
		batch := &pgx.Batch{}
		for _, rec := range records {
			batch.Queue(`
				INSERT INTO outbox (id, aggregate_type, aggregate_id, event_type, payload_json, status, available_at, created_at, dedupe_key)
				VALUES ($1, $2, $3, $4, $5, 'NEW', $6, $7, $8)
			`, rec.ID, rec.AggregateType, rec.AggregateID, rec.EventType, rec.Payload, rec.AvailableAt, rec.CreatedAt, rec.DedupeKey)
		}
		return errors.Wrap(tx.SendBatch(ctx, batch).Close(), "insert outbox")
	})
}

func (r *Repository) ClaimDueOutbox(ctx context.Context, now time.Time, limit int) ([]outbox.Record, error) {
	var records []outbox.Record
	err := r.WithTx(ctx, func(tx pgx.Tx) error {
		rows, err := tx.Query(ctx, `
			UPDATE outbox SET status = 'PUBLISHING', attempts = attempts + 1
			WHERE status = 'NEW' AND id IN (
				SELECT id FROM outbox
				WHERE status = 'NEW' AND attempts = 0 AND available_at <= $1
				ORDER BY available_at ASC, created_at ASC
				LIMIT $2
				FOR UPDATE SKIP LOCKED
			)
			RETURNING `+outboxColumns, now, limit)
		if err != nil {
			return err
		}
		records, err = scanOutbox(rows)
		return err
	})
	if err != nil {
		return nil, errors.Wrap(err, "claim outbox")
	}
	sortByAvailability(records)
	return records, nil
}

func (r *Repository) MarkPublished(ctx context.Context, id uuid.UUID, publishedAt time.Time) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE outbox SET status = 'PUBLISHED', published_at = $2 WHERE id = $1
	`, id, publishedAt)
	return errors.Wrap(err, "mark outbox published")
}

func (r *Repository) MarkFailed(ctx context.Context, id uuid.UUID, reason string) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE outbox SET status = 'FAILED', last_error = $2 WHERE id = $1
	`, id, reason)
	return errors.Wrap(err, "mark outbox failed")
}

func (r *Repository) ListOutbox(ctx context.Context, aggregateType, aggregateID string) ([]outbox.Record, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+outboxColumns+` FROM outbox
		WHERE aggregate_type = $1 AND aggregate_id = $2
		ORDER BY available_at ASC, created_at ASC
	`, aggregateType, aggregateID)
	if err != nil {
		return nil, errors.Wrap(err, "list outbox")
	}
	return scanOutbox(rows)
}

func scanOutbox(rows pgx.Rows) ([]outbox.Record, error) {
	defer rows.Close()

	var records []outbox.Record
	for rows.Next() {
		var rec outbox.Record
		var status string
		err := rows.Scan(&rec.ID, &rec.AggregateType, &rec.AggregateID, &rec.EventType, &rec.Payload, &status,
			&rec.Attempts, &rec.LastError, &rec.AvailableAt, &rec.CreatedAt, &rec.PublishedAt, &rec.DedupeKey)
		if err != nil {
			return nil, err
		}
		rec.Status = outbox.Status(status)
		records = append(records, rec)
	}
	return records, rows.Err()
}

// UPDATE ... RETURNING does not keep the subquery order.
func sortByAvailability(records []outbox.Record) {
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].AvailableAt.Before(records[j].AvailableAt)
	})
}
