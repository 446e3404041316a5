package redis

import (
	"context"
	"encoding/json"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/looncamp/booking/internal/domain"
	"github.com/redis/go-redis/v9"
)

// Cache holds joined e-tickets. Tickets never change after creation, so
// entries only expire by TTL.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewCache(client *redis.Client, ttl time.Duration) *Cache {
	return &Cache{client: client, ttl: ttl}
}

func (c *Cache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// GetTicket returns nil without error on a cache miss.
func (c *Cache) GetTicket(ctx context.Context, ticketID string) (*domain.ETicket, error) {
	val, err := c.client.Get(ctx, ticketKey(ticketID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "cache get ticket")
	}
	var t domain.ETicket
	if err := json.Unmarshal(val, &t); err != nil {
		return nil, errors.Wrap(err, "decode cached ticket")
	}
	return &t, nil
}

func (c *Cache) SetTicket(ctx context.Context, t domain.ETicket) error {
	data, err := json.Marshal(t)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, ticketKey(t.TicketID), data, c.ttl).Err()
}

func ticketKey(id string) string {
	return "eticket:" + id
}
