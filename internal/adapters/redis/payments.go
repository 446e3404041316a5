package redis

import (
	"context"
	"encoding/json"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/looncamp/booking/internal/domain"
	"github.com/looncamp/booking/internal/payment"
	"github.com/redis/go-redis/v9"
)

// Payments stores callback-gateway payment states.
type Payments struct {
	client *redis.Client
}

func NewPayments(client *redis.Client) *Payments {
	return &Payments{client: client}
}

func (p *Payments) PutPayment(ctx context.Context, rec payment.Record, ttl time.Duration) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	return p.client.Set(ctx, "payment:"+rec.OrderID, data, ttl).Err()
}

func (p *Payments) GetPayment(ctx context.Context, orderID string) (*payment.Record, error) {
	val, err := p.client.Get(ctx, "payment:"+orderID).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, errors.Wrapf(domain.ErrNotFound, "payment %s", orderID)
	}
	if err != nil {
		return nil, err
	}
	var rec payment.Record
	if err := json.Unmarshal(val, &rec); err != nil {
		return nil, errors.Wrap(err, "decode payment")
	}
	return &rec, nil
}
