package mongo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/looncamp/booking/internal/domain"
	"github.com/looncamp/booking/internal/observability"
	"github.com/looncamp/booking/internal/payment"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

type AuditLogger struct {
	coll   *mongo.Collection
	logger observability.Logger
}

func NewAuditLogger(db *mongo.Database, logger observability.Logger) *AuditLogger {
	return &AuditLogger{
		coll:   db.Collection("audit_logs"),
		logger: logger,
	}
}

type AuditLog struct {
	ID        string    `bson:"_id"`
	Action    string    `bson:"action"`
	Subject   string    `bson:"subject"`
	Timestamp time.Time `bson:"timestamp"`
	Data      bson.M    `bson:"data"`
}

func (a *AuditLogger) LogEvent(ctx context.Context, action, subject string, data map[string]interface{}) error {
	log := AuditLog{
		ID:        uuid.NewString(),
		Action:    action,
		Subject:   subject,
		Timestamp: time.Now().UTC(),
		Data:      bson.M(data),
	}
	_, err := a.coll.InsertOne(ctx, log)
	if err != nil {
		a.logger.WithField("action", action).Error("failed to insert audit log", err)
		return err
	}
	return nil
}

func (a *AuditLogger) LogTicket(ctx context.Context, t domain.ETicket) error {
	data := map[string]interface{}{
		"property_id":    t.PropertyID,
		"guest_name":     t.GuestName,
		"check_in_date":  t.CheckInDate,
		"check_out_date": t.CheckOutDate,
		"paid_amount":    t.PaidAmount,
		"due_amount":     t.DueAmount,
	}
	return a.LogEvent(ctx, "eticket.created", t.TicketID, data)
}

func (a *AuditLogger) LogPayment(ctx context.Context, rec payment.Record) error {
	data := map[string]interface{}{
		"transaction_id": rec.TransactionID,
		"status":         string(rec.Status),
		"amount":         rec.Amount.String(),
		"method":         string(rec.Method),
		"timestamp":      rec.Timestamp.UTC().Format(time.RFC3339),
	}
	return a.LogEvent(ctx, "payment."+string(rec.Status), rec.OrderID, data)
}
