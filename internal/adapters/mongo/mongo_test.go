package mongo_test

import (
	"context"
	"testing"
	"time"

	mongoadapter "github.com/looncamp/booking/internal/adapters/mongo"
	"github.com/looncamp/booking/internal/domain"
	"github.com/looncamp/booking/internal/observability"
	"github.com/looncamp/booking/internal/payment"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func setupDatabase(t *testing.T) *mongo.Database {
	t.Helper()
	if testing.Short() {
		t.Skip("mongo container test")
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)

	ctx := context.Background()
	mongoContainer, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "mongo:7",
			ExposedPorts: []string{"27017/tcp"},
			WaitingFor:   wait.ForExec([]string{"mongosh", "--quiet", "--eval", "db.runCommand('ping').ok"}).WithStartupTimeout(time.Minute),
		},
		Started: true,
	})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { mongoContainer.Terminate(ctx) })

	host, err := mongoContainer.Host(ctx)
	if err != nil {
		t.Fatal(err)
	}
	port, err := mongoContainer.MappedPort(ctx, "27017")
	if err != nil {
		t.Fatal(err)
	}

	client, err := mongo.Connect(ctx, options.Client().ApplyURI("mongodb://"+host+":"+port.Port()))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { client.Disconnect(ctx) })
	return client.Database("looncamp_test")
}

func TestCatalogRepository(t *testing.T) {
	db := setupDatabase(t)
	ctx := context.Background()
	catalog := mongoadapter.NewCatalogRepository(db, observability.NopLogger())

	require.NoError(t, catalog.Ping(ctx))

	_, err := catalog.GetProperty(ctx, "pawna-1")
	assert.True(t, domain.IsNotFound(err))

	require.NoError(t, catalog.PutProperty(ctx, domain.Property{ID: "pawna-1", Title: "Pawna Lake Camp", MapLink: "https://maps.app.goo.gl/PawnaLake"}))
	require.NoError(t, catalog.PutProperty(ctx, domain.Property{ID: "pawna-1", Title: "Pawna Lakeside Camp", MapLink: "https://maps.app.goo.gl/PawnaLake"}))

	p, err := catalog.GetProperty(ctx, "pawna-1")
	require.NoError(t, err)
	assert.Equal(t, "Pawna Lakeside Camp", p.Title)
	assert.Equal(t, "https://maps.app.goo.gl/PawnaLake", p.MapLink)
}

func TestAuditLogger(t *testing.T) {
	db := setupDatabase(t)
	ctx := context.Background()
	audit := mongoadapter.NewAuditLogger(db, observability.NopLogger())

	require.NoError(t, audit.LogTicket(ctx, domain.ETicket{TicketID: "LC-AB12CD34", PropertyID: "pawna-1", GuestName: "Asha Patil"}))
	require.NoError(t, audit.LogPayment(ctx, payment.Record{
		OrderID:       "ORD-AB12CD34",
		TransactionID: "TXN000000000042",
		Status:        payment.StatusSuccess,
		Amount:        decimal.NewFromInt(900),
		Method:        payment.MethodGooglePay,
		Timestamp:     time.Now(),
	}))

	n, err := db.Collection("audit_logs").CountDocuments(ctx, bson.M{"subject": bson.M{"$in": []string{"LC-AB12CD34", "ORD-AB12CD34"}}})
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	var entry mongoadapter.AuditLog
	require.NoError(t, db.Collection("audit_logs").FindOne(ctx, bson.M{"subject": "ORD-AB12CD34"}).Decode(&entry))
	assert.Equal(t, "payment.SUCCESS", entry.Action)
	assert.Equal(t, "900", entry.Data["amount"])
}
