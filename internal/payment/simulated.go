package payment

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
)

// Simulated always succeeds after a fixed latency. It stands in for a real
// provider in demo and staging deployments.
type Simulated struct {
	latency time.Duration
	now     func() time.Time
}

func NewSimulated(latency time.Duration) *Simulated {
	return &Simulated{latency: latency, now: time.Now}
}

func (s *Simulated) Begin(ctx context.Context, charge Charge) (*Record, error) {
	return &Record{
		OrderID:       NewOrderID(),
		TransactionID: NewTransactionID(),
		Status:        StatusPending,
		Amount:        charge.Amount,
		Method:        charge.Method,
		Timestamp:     s.now(),
	}, nil
}

func (s *Simulated) Await(ctx context.Context, rec *Record) (*Record, error) {
	timer := time.NewTimer(s.latency)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return nil, errors.Wrap(ctx.Err(), "awaiting simulated payment")
	case <-timer.C:
	}

	done := *rec
	done.Status = StatusSuccess
	done.Timestamp = s.now()
	return &done, nil
}
