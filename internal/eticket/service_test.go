package eticket_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	redisadapter "github.com/looncamp/booking/internal/adapters/redis"
	"github.com/looncamp/booking/internal/adapters/sqlite"
	"github.com/looncamp/booking/internal/domain"
	"github.com/looncamp/booking/internal/eticket"
	"github.com/looncamp/booking/internal/observability"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockAuditor struct {
	mock.Mock
}

func (m *mockAuditor) LogTicket(ctx context.Context, t domain.ETicket) error {
	args := m.Called(ctx, t)
	return args.Error(0)
}

func setupStore(t *testing.T) *sqlite.Store {
	t.Helper()
	store, err := sqlite.Open("file::memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	ctx := context.Background()
	require.NoError(t, store.Migrate(ctx))
	require.NoError(t, store.PutProperty(ctx, domain.Property{ID: "pawna-1", Title: "Pawna Lake Camp", MapLink: "https://maps.app.goo.gl/PawnaLake"}))
	return store
}

func newTicket(id string) domain.NewETicket {
	return domain.NewETicket{
		TicketID:     id,
		PropertyID:   "pawna-1",
		GuestName:    "Asha Patil",
		CheckInDate:  "January 15th, 2026",
		CheckOutDate: "January 16th, 2026",
		PaidAmount:   "₹900",
		DueAmount:    "₹2100",
	}
}

func TestService_CreateThenGet(t *testing.T) {
	store := setupStore(t)
	audit := &mockAuditor{}
	audit.On("LogTicket", mock.Anything, mock.MatchedBy(func(tk domain.ETicket) bool {
		return tk.TicketID == "LC-AB12CD34"
	})).Return(nil).Once()

	svc := eticket.NewService(store, store, nil, audit, observability.NopLogger())
	ctx := context.Background()

	created, err := svc.Create(ctx, newTicket("LC-AB12CD34"))
	require.NoError(t, err)
	assert.Equal(t, "Pawna Lake Camp", created.PropertyName)
	assert.False(t, created.CreatedAt.IsZero())

	got, err := svc.Get(ctx, "LC-AB12CD34")
	require.NoError(t, err)
	assert.Equal(t, "Asha Patil", got.GuestName)
	assert.Equal(t, "January 15th, 2026", got.CheckInDate)
	assert.Equal(t, "January 16th, 2026", got.CheckOutDate)
	assert.Equal(t, "₹900", got.PaidAmount)
	assert.Equal(t, "₹2100", got.DueAmount)
	assert.Equal(t, "Pawna Lake Camp", got.PropertyName)
	assert.Equal(t, "https://maps.app.goo.gl/PawnaLake", got.MapLink)

	audit.AssertExpectations(t)
}

func TestService_CreateRejectsMissingFields(t *testing.T) {
	store := setupStore(t)
	svc := eticket.NewService(store, store, nil, nil, observability.NopLogger())

	in := newTicket("LC-1")
	in.GuestName = ""
	_, err := svc.Create(context.Background(), in)
	assert.True(t, domain.IsValidation(err))

	_, err = store.GetTicket(context.Background(), "LC-1")
	assert.True(t, domain.IsNotFound(err), "nothing is persisted")
}

func TestService_CreateRejectsDuplicate(t *testing.T) {
	store := setupStore(t)
	svc := eticket.NewService(store, store, nil, nil, observability.NopLogger())
	ctx := context.Background()

	_, err := svc.Create(ctx, newTicket("LC-DUP"))
	require.NoError(t, err)
	_, err = svc.Create(ctx, newTicket("LC-DUP"))
	assert.True(t, domain.IsConflict(err))
}

func TestService_CreateWithUnknownPropertyUsesFallbackName(t *testing.T) {
	store := setupStore(t)
	svc := eticket.NewService(store, store, nil, nil, observability.NopLogger())
	ctx := context.Background()

	in := newTicket("LC-ORPHAN")
	in.PropertyID = "gone"
	created, err := svc.Create(ctx, in)
	require.NoError(t, err)
	assert.Equal(t, "Property", created.PropertyName)

	_, err = svc.Get(ctx, "LC-ORPHAN")
	assert.True(t, domain.IsNotFound(err))
}

func TestService_GetUnknown(t *testing.T) {
	store := setupStore(t)
	svc := eticket.NewService(store, store, nil, nil, observability.NopLogger())

	got, err := svc.Get(context.Background(), "UNKNOWN-1")
	assert.Nil(t, got)
	assert.True(t, domain.IsNotFound(err))
}

func TestService_GetUsesCache(t *testing.T) {
	store := setupStore(t)
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()
	cache := redisadapter.NewCache(client, time.Hour)

	svc := eticket.NewService(store, store, cache, nil, observability.NopLogger())
	ctx := context.Background()

	_, err := svc.Create(ctx, newTicket("LC-CACHED"))
	require.NoError(t, err)

	first, err := svc.Get(ctx, "LC-CACHED")
	require.NoError(t, err)
	assert.True(t, mr.Exists("eticket:LC-CACHED"))

	// with the database gone the cached copy is still served
	require.NoError(t, store.Close())
	second, err := svc.Get(ctx, "LC-CACHED")
	require.NoError(t, err)
	assert.Equal(t, first.GuestName, second.GuestName)
	assert.Equal(t, first.PropertyName, second.PropertyName)
}
