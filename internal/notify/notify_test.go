package notify_test

import (
	"context"
	"net/url"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/looncamp/booking/internal/adapters/sqlite"
	"github.com/looncamp/booking/internal/notify"
	"github.com/looncamp/booking/internal/observability"
	"github.com/looncamp/booking/internal/outbox"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var branding = notify.Branding{
	Brand:      "LOONCAMP",
	HostDomain: "LoonCamp.shop",
	HostPhone:  "918669505727",
	OwnerPhone: "919000000001",
	AdminPhone: "919000000002",
	MapLink:    "https://maps.app.goo.gl/PawnaLake",
}

func sampleBooking() notify.Booking {
	return notify.Booking{
		TicketID:      "LC-AB12CD34",
		TicketURL:     "https://looncamp.shop/ticket/LC-AB12CD34",
		PropertyName:  "Pawna Lake Camp",
		GuestName:     "Asha Patil",
		GuestPhone:    "98765 43210",
		CheckInDate:   "January 15th, 2026",
		Total:         decimal.NewFromInt(3000),
		Advance:       decimal.NewFromInt(900),
		Due:           decimal.NewFromInt(2100),
		OrderID:       "ORD-AB12CD34",
		PaymentMethod: "Google Pay",
	}
}

func TestComposer_GuestMessage(t *testing.T) {
	msgs := notify.NewComposer(branding).Compose(sampleBooking())
	require.Len(t, msgs, 3)

	want := "*🏡 LOONCAMP E-TICKET*\n" +
		"📍 *Property:* Pawna Lake Camp\n" +
		"🔖 *Booking ID:* LC-AB12CD34\n\n" +
		"👤 *Guest:* Asha Patil\n" +
		"📅 *Check-in:* January 15th, 2026\n" +
		"💰 *Paid:* ₹900\n" +
		"🔴 *DUE:* ₹2100\n" +
		"🔗 *Ticket Link:* https://looncamp.shop/ticket/LC-AB12CD34\n" +
		"📍 *Location:* https://maps.app.goo.gl/PawnaLake\n" +
		"Host: LoonCamp.shop | +918669505727"

	assert.Equal(t, notify.AudienceGuest, msgs[0].Audience)
	assert.Equal(t, want, msgs[0].Text)
	assert.Equal(t, "919876543210", msgs[0].Phone)
}

func TestComposer_OwnerAndAdmin(t *testing.T) {
	msgs := notify.NewComposer(branding).Compose(sampleBooking())

	owner, admin := msgs[1], msgs[2]
	assert.Equal(t, notify.AudienceOwner, owner.Audience)
	assert.Equal(t, "919000000001", owner.Phone)
	assert.Contains(t, owner.Text, "*NEW BOOKING ALERT (OWNER)*\n*🏡 LOONCAMP E-TICKET*")
	assert.Contains(t, owner.Text, "💰 *Adv Received:* ₹900")
	assert.Contains(t, owner.Text, "🚩 *Action:* Prepare property for guest Arrival.")

	assert.Equal(t, notify.AudienceAdmin, admin.Audience)
	assert.Equal(t, "919000000002", admin.Phone)
	assert.Contains(t, admin.Text, "💰 *Total:* ₹3000")
	assert.Contains(t, admin.Text, "✅ *Payment:* SUCCESS (Google Pay)")
	assert.Contains(t, admin.Text, "🆔 *Order ID:* ORD-AB12CD34")
}

func TestComposer_FallsBackToHostPhoneAndDefaultMap(t *testing.T) {
	b := sampleBooking()
	b.GuestPhone = "n/a"
	b.MapLink = ""
	msgs := notify.NewComposer(branding).Compose(b)
	assert.Equal(t, "918669505727", msgs[0].Phone)
	assert.Contains(t, msgs[0].Text, "https://maps.app.goo.gl/PawnaLake")

	b.MapLink = "https://maps.app.goo.gl/Other"
	msgs = notify.NewComposer(branding).Compose(b)
	assert.Contains(t, msgs[0].Text, "📍 *Location:* https://maps.app.goo.gl/Other")
}

func TestDeepLink(t *testing.T) {
	link := notify.DeepLink("https://api.whatsapp.com/send", "918669505727", "Hi & welcome + 🏡")
	assert.Equal(t, "https://api.whatsapp.com/send?phone=918669505727&text=Hi%20%26%20welcome%20%2B%20%F0%9F%8F%A1", link)

	u, err := url.Parse(link)
	require.NoError(t, err)
	assert.Equal(t, "Hi & welcome + 🏡", u.Query().Get("text"))
}

func TestNormalizePhone(t *testing.T) {
	assert.Equal(t, "919876543210", notify.NormalizePhone("98765-43210"))
	assert.Equal(t, "919876543210", notify.NormalizePhone("+91 98765 43210"))
	assert.Equal(t, "919876543210", notify.NormalizePhone("09876543210"))
	assert.Equal(t, "", notify.NormalizePhone("12345"))
	assert.Equal(t, "", notify.NormalizePhone(""))
}

func TestDispatcher_QueuesStaggeredMessages(t *testing.T) {
	store, err := sqlite.Open("file::memory:")
	require.NoError(t, err)
	defer store.Close()
	ctx := context.Background()
	require.NoError(t, store.Migrate(ctx))

	d := notify.NewDispatcher(notify.NewComposer(branding), store, 2*time.Second, observability.NopLogger())
	before := time.Now().UTC().Add(-time.Second)
	require.NoError(t, d.Dispatch(ctx, sampleBooking()))

	records, err := store.ListOutbox(ctx, notify.AggregateType, "LC-AB12CD34")
	require.NoError(t, err)
	require.Len(t, records, 3)

	assert.Equal(t, "notification.guest", records[0].EventType)
	assert.Equal(t, "notification.owner", records[1].EventType)
	assert.Equal(t, "notification.admin", records[2].EventType)
	assert.True(t, records[0].AvailableAt.After(before))
	assert.Equal(t, 2*time.Second, records[1].AvailableAt.Sub(records[0].AvailableAt))
	assert.Equal(t, 2*time.Second, records[2].AvailableAt.Sub(records[1].AvailableAt))

	views, err := notify.Views(records)
	require.NoError(t, err)
	assert.Equal(t, outbox.StatusNew, views[0].Status)
	assert.Contains(t, views[0].Link, "https://api.whatsapp.com/send?phone=919876543210&text=")

	// the same ticket cannot be queued twice
	assert.Error(t, d.Dispatch(ctx, sampleBooking()))
}

type recordingSender struct {
	sent []notify.Message
	err  error
}

func (s *recordingSender) Send(_ context.Context, msg notify.Message) error {
	s.sent = append(s.sent, msg)
	return s.err
}

func TestDeliver(t *testing.T) {
	sender := &recordingSender{}
	body := []byte(`{"ticket_id":"LC-1","audience":"guest","phone":"919876543210","text":"hi","link":"https://api.whatsapp.com/send?phone=919876543210&text=hi"}`)

	require.NoError(t, notify.Deliver(context.Background(), sender, observability.NopLogger(), body))
	require.Len(t, sender.sent, 1)
	assert.Equal(t, notify.AudienceGuest, sender.sent[0].Audience)

	sender.err = errors.New("gateway down")
	assert.Error(t, notify.Deliver(context.Background(), sender, observability.NopLogger(), body))

	assert.Error(t, notify.Deliver(context.Background(), sender, observability.NopLogger(), []byte("{")))
	assert.Len(t, sender.sent, 2)
}

func TestDirectBroker_RelayDeliversQueuedMessages(t *testing.T) {
	store, err := sqlite.Open("file::memory:")
	require.NoError(t, err)
	defer store.Close()
	ctx := context.Background()
	require.NoError(t, store.Migrate(ctx))

	logger := observability.NopLogger()
	d := notify.NewDispatcher(notify.NewComposer(branding), store, 0, logger)
	require.NoError(t, d.Dispatch(ctx, sampleBooking()))

	sender := &recordingSender{}
	relay := outbox.NewRelay(store, notify.NewDirectBroker(sender, logger), logger, time.Second, 10)
	n, err := relay.Flush(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	phones := map[notify.Audience]string{}
	for _, m := range sender.sent {
		phones[m.Audience] = m.Phone
	}
	assert.Equal(t, map[notify.Audience]string{
		notify.AudienceGuest: "919876543210",
		notify.AudienceOwner: "919000000001",
		notify.AudienceAdmin: "919000000002",
	}, phones)
}
