package postgres_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/looncamp/booking/internal/adapters/postgres"
	"github.com/looncamp/booking/internal/domain"
	"github.com/looncamp/booking/internal/outbox"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func setupRepository(t *testing.T) *postgres.Repository {
	t.Helper()
	if testing.Short() {
		t.Skip("postgres container test")
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)

	ctx := context.Background()
	pgContainer, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "postgres:16-alpine",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     "looncamp",
				"POSTGRES_PASSWORD": "looncamp",
				"POSTGRES_DB":       "looncamp",
			},
			WaitingFor: wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(time.Minute),
		},
		Started: true,
	})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { pgContainer.Terminate(ctx) })

	host, err := pgContainer.Host(ctx)
	if err != nil {
		t.Fatal(err)
	}
	port, err := pgContainer.MappedPort(ctx, "5432")
	if err != nil {
		t.Fatal(err)
	}
	dsn := fmt.Sprintf("postgres://looncamp:looncamp@%s:%s/looncamp?sslmode=disable", host, port.Port())

	if err := postgres.Migrate(dsn); err != nil {
		t.Fatal(err)
	}
	// second run is a no-op
	if err := postgres.Migrate(dsn); err != nil {
		t.Fatal(err)
	}

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(pool.Close)

	return postgres.NewRepository(pool)
}

func TestRepository_Tickets(t *testing.T) {
	repo := setupRepository(t)
	ctx := context.Background()

	if err := repo.PutProperty(ctx, domain.Property{ID: "pawna-1", Title: "Pawna Lake Camp", MapLink: "https://maps.app.goo.gl/PawnaLake"}); err != nil {
		t.Fatal(err)
	}

	ticket := domain.ETicket{
		TicketID:     "LC-AB12CD34",
		PropertyID:   "pawna-1",
		GuestName:    "Asha Patil",
		CheckInDate:  "January 15th, 2026",
		CheckOutDate: "January 16th, 2026",
		PaidAmount:   "₹900",
		DueAmount:    "₹2100",
		CreatedAt:    time.Date(2026, 1, 10, 9, 30, 0, 0, time.UTC),
	}
	if err := repo.CreateTicket(ctx, ticket); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if err := repo.CreateTicket(ctx, ticket); !domain.IsConflict(err) {
		t.Errorf("expected conflict error, got %v", err)
	}

	got, err := repo.GetTicket(ctx, ticket.TicketID)
	if err != nil {
		t.Fatal(err)
	}
	if got.GuestName != ticket.GuestName || got.PaidAmount != ticket.PaidAmount || got.CheckInDate != ticket.CheckInDate {
		t.Errorf("round trip mismatch: %+v", got)
	}
	if !got.CreatedAt.Equal(ticket.CreatedAt) {
		t.Errorf("created_at = %v, want %v", got.CreatedAt, ticket.CreatedAt)
	}

	if _, err := repo.GetTicket(ctx, "UNKNOWN-1"); !domain.IsNotFound(err) {
		t.Errorf("expected not found, got %v", err)
	}

	p, err := repo.GetProperty(ctx, "pawna-1")
	if err != nil {
		t.Fatal(err)
	}
	if p.Title != "Pawna Lake Camp" {
		t.Errorf("unexpected property %+v", p)
	}
}

func TestRepository_Outbox(t *testing.T) {
	repo := setupRepository(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Millisecond)

	var recs []outbox.Record
	for i, event := range []string{"notification.guest", "notification.owner", "notification.admin"} {
		at := now.Add(time.Duration(i) * 2 * time.Second)
		recs = append(recs, outbox.Record{
			ID:            uuid.New(),
			AggregateType: "eticket",
			AggregateID:   "LC-1",
			EventType:     event,
			Payload:       []byte(`{"audience":"x"}`),
			AvailableAt:   at,
			CreatedAt:     now,
			DedupeKey:     uuid.NewString(),
		})
	}
	if err := repo.InsertOutbox(ctx, recs...); err != nil {
		t.Fatal(err)
	}

	due, err := repo.ClaimDueOutbox(ctx, now.Add(3*time.Second), 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(due) != 2 || due[0].ID != recs[0].ID || due[1].ID != recs[1].ID {
		t.Fatalf("unexpected due records: %+v", due)
	}
	if due[0].Attempts != 1 || due[0].Status != outbox.StatusPublishing {
		t.Errorf("attempts = %d status = %s, want 1 PUBLISHING", due[0].Attempts, due[0].Status)
	}

	again, err := repo.ClaimDueOutbox(ctx, now.Add(3*time.Second), 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(again) != 0 {
		t.Fatalf("claimed records were handed out again: %+v", again)
	}

	if err := repo.MarkPublished(ctx, recs[0].ID, now); err != nil {
		t.Fatal(err)
	}
	if err := repo.MarkFailed(ctx, recs[1].ID, "broker down"); err != nil {
		t.Fatal(err)
	}

	all, err := repo.ListOutbox(ctx, "eticket", "LC-1")
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 records, got %d", len(all))
	}
	if all[0].Status != outbox.StatusPublished || all[1].Status != outbox.StatusFailed || all[2].Status != outbox.StatusNew {
		t.Errorf("unexpected statuses: %s %s %s", all[0].Status, all[1].Status, all[2].Status)
	}
	if all[1].LastError != "broker down" {
		t.Errorf("last_error = %q", all[1].LastError)
	}
}
