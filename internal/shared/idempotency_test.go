package shared

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestIdempotencyStore(t *testing.T) (*IdempotencyStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewIdempotencyStore(client, time.Hour), mr
}

func TestIdempotencyStoreReserveCompleteReplay(t *testing.T) {
	store, _ := newTestIdempotencyStore(t)
	ctx := context.Background()

	id, err := store.Reserve(ctx, "checkout", "abc")
	require.NoError(t, err)
	assert.Zero(t, id)

	_, err = store.Reserve(ctx, "checkout", "abc")
	assert.True(t, errors.Is(err, ErrConflict))

	require.NoError(t, store.Complete(ctx, "checkout", "abc", 42))

	id, err = store.Reserve(ctx, "checkout", "abc")
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)
}

func TestIdempotencyStoreReleaseAllowsRetry(t *testing.T) {
	store, _ := newTestIdempotencyStore(t)
	ctx := context.Background()

	_, err := store.Reserve(ctx, "assistant", "k1")
	require.NoError(t, err)
	require.NoError(t, store.Release(ctx, "assistant", "k1"))

	id, err := store.Reserve(ctx, "assistant", "k1")
	require.NoError(t, err)
	assert.Zero(t, id)
}

func TestIdempotencyStoreKeysAreScopedPerModule(t *testing.T) {
	store, _ := newTestIdempotencyStore(t)
	ctx := context.Background()

	_, err := store.Reserve(ctx, "checkout", "same")
	require.NoError(t, err)
	id, err := store.Reserve(ctx, "assistant", "same")
	require.NoError(t, err)
	assert.Zero(t, id)
}

func TestIdempotencyStoreExpiry(t *testing.T) {
	store, mr := newTestIdempotencyStore(t)
	ctx := context.Background()

	_, err := store.Reserve(ctx, "checkout", "ttl")
	require.NoError(t, err)
	mr.FastForward(2 * time.Hour)

	id, err := store.Reserve(ctx, "checkout", "ttl")
	require.NoError(t, err)
	assert.Zero(t, id)
}

func TestIdempotencyStoreRequiresKey(t *testing.T) {
	store, _ := newTestIdempotencyStore(t)
	_, err := store.Reserve(context.Background(), "checkout", "")
	assert.Error(t, err)
}
