package idempotency_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	redisadapter "github.com/looncamp/booking/internal/adapters/redis"
	"github.com/looncamp/booking/internal/idempotency"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newIdempotency(t *testing.T) *idempotency.Idempotency {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return idempotency.NewIdempotency(redisadapter.NewIdempotency(client), time.Hour)
}

func TestIdempotency_ReplaysCompletedResponse(t *testing.T) {
	idemp := newIdempotency(t)
	ctx := context.Background()

	resp, err := idemp.Begin(ctx, "abcdefghijklmnop")
	require.NoError(t, err)
	assert.Nil(t, resp)

	_, err = idemp.Begin(ctx, "abcdefghijklmnop")
	assert.ErrorIs(t, err, idempotency.ErrInProgress)

	require.NoError(t, idemp.Complete(ctx, "abcdefghijklmnop", idempotency.Response{Status: 201, Result: []byte("created")}))

	resp, err = idemp.Begin(ctx, "abcdefghijklmnop")
	require.NoError(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, 201, resp.Status)
	assert.Equal(t, []byte("created"), resp.Result)
}

func TestIdempotency_ServerErrorsAreNotStored(t *testing.T) {
	idemp := newIdempotency(t)
	ctx := context.Background()

	_, err := idemp.Begin(ctx, "key-0000000000000001")
	require.NoError(t, err)
	require.NoError(t, idemp.Complete(ctx, "key-0000000000000001", idempotency.Response{Status: 500}))

	resp, err := idemp.Begin(ctx, "key-0000000000000001")
	require.NoError(t, err)
	assert.Nil(t, resp, "a failed request can be retried")
}

func TestValidateKey(t *testing.T) {
	assert.ErrorIs(t, idempotency.ValidateKey("short"), idempotency.ErrInvalidKey)
	assert.NoError(t, idempotency.ValidateKey("5f0c8a52-1f0e-4c3e-9d7a-0c7b1f3a9e11"))
}
