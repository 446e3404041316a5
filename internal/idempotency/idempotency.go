package idempotency

import (
	"context"
	"net/http"
	"time"

	"github.com/cockroachdb/errors"
)

const MinKeyLength = 16

var (
	ErrInProgress = errors.New("request with this idempotency key is in progress")
	ErrInvalidKey = errors.New("invalid Idempotency-Key")
)

type Response struct {
	Status      int    `json:"status"`
	ContentType string `json:"content_type"`
	Result      []byte `json:"result"`
}

type Store interface {
	Get(ctx context.Context, key string) (*Response, error)
	Set(ctx context.Context, key string, resp Response, ttl time.Duration) error
	Lock(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Unlock(ctx context.Context, key string) error
}

// Idempotency replays the first completed response for a key.
type Idempotency struct {
	store   Store
	ttl     time.Duration
	lockTTL time.Duration
}

func NewIdempotency(store Store, ttl time.Duration) *Idempotency {
	return &Idempotency{store: store, ttl: ttl, lockTTL: time.Minute}
}

func ValidateKey(key string) error {
	if len(key) < MinKeyLength {
		return ErrInvalidKey
	}
	return nil
}

// Begin returns the stored response for key, or reserves the key for the
// caller, who must then call Complete or Abort.
func (i *Idempotency) Begin(ctx context.Context, key string) (*Response, error) {
	existing, err := i.store.Get(ctx, key)
	if err != nil {
		return nil, errors.Wrap(err, "idempotency lookup")
	}
	if existing != nil {
		return existing, nil
	}
	ok, err := i.store.Lock(ctx, key, i.lockTTL)
	if err != nil {
		return nil, errors.Wrap(err, "idempotency lock")
	}
	if !ok {
		return nil, ErrInProgress
	}
	return nil, nil
}

// Complete stores resp unless it is a server error, then releases the key.
func (i *Idempotency) Complete(ctx context.Context, key string, resp Response) error {
	defer i.store.Unlock(ctx, key)
	if resp.Status >= http.StatusInternalServerError {
		return nil
	}
	return i.store.Set(ctx, key, resp, i.ttl)
}

func (i *Idempotency) Abort(ctx context.Context, key string) error {
	return i.store.Unlock(ctx, key)
}
