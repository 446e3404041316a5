package payment

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
)

// StatusStore keeps the latest known state of a payment between the
// provider callback and the waiting checkout.
type StatusStore interface {
	PutPayment(ctx context.Context, rec Record, ttl time.Duration) error
	GetPayment(ctx context.Context, orderID string) (*Record, error)
}

// Callback is the provider-backed gateway. The provider reports the result
// through a callback which is written to the StatusStore; Await polls it.
type Callback struct {
	store   StatusStore
	poll    time.Duration
	timeout time.Duration
	now     func() time.Time
}

func NewCallback(store StatusStore, poll, timeout time.Duration) *Callback {
	if poll <= 0 {
		poll = 500 * time.Millisecond
	}
	return &Callback{store: store, poll: poll, timeout: timeout, now: time.Now}
}

func (c *Callback) Begin(ctx context.Context, charge Charge) (*Record, error) {
	rec := Record{
		OrderID:   NewOrderID(),
		Status:    StatusPending,
		Amount:    charge.Amount,
		Method:    charge.Method,
		Timestamp: c.now(),
	}
	if err := c.store.PutPayment(ctx, rec, c.ttl()); err != nil {
		return nil, errors.Wrap(err, "register pending payment")
	}
	return &rec, nil
}

func (c *Callback) Await(ctx context.Context, rec *Record) (*Record, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	ticker := time.NewTicker(c.poll)
	defer ticker.Stop()

	for {
		cur, err := c.store.GetPayment(ctx, rec.OrderID)
		if err != nil {
			return nil, errors.Wrapf(err, "poll payment %s", rec.OrderID)
		}
		switch cur.Status {
		case StatusSuccess:
			return cur, nil
		case StatusFailed:
			return cur, errors.Wrapf(ErrDeclined, "order %s", rec.OrderID)
		}

		select {
		case <-ctx.Done():
			return nil, errors.Wrapf(ctx.Err(), "awaiting payment %s", rec.OrderID)
		case <-ticker.C:
		}
	}
}

// Settle applies a provider callback to a pending payment.
func (c *Callback) Settle(ctx context.Context, orderID, transactionID string, succeeded bool) (*Record, error) {
	cur, err := c.store.GetPayment(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if cur.Status != StatusPending {
		return cur, nil
	}
	cur.TransactionID = transactionID
	cur.Status = StatusFailed
	if succeeded {
		cur.Status = StatusSuccess
	}
	cur.Timestamp = c.now()
	if err := c.store.PutPayment(ctx, *cur, c.ttl()); err != nil {
		return nil, errors.Wrap(err, "store payment result")
	}
	return cur, nil
}

func (c *Callback) ttl() time.Duration {
	if c.timeout > 0 {
		return 2 * c.timeout
	}
	return time.Hour
}
