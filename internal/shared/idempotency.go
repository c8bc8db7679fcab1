package shared

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const idempotencyPending = "pending"

// ErrIdempotencyConflict indicates the key is reserved by a request still in flight.
var ErrIdempotencyConflict = fmt.Errorf("%w: idempotent request in progress", ErrConflict)

// IdempotencyStore remembers which document a keyed request produced.
type IdempotencyStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewIdempotencyStore constructs the store. Keys expire after ttl.
func NewIdempotencyStore(client *redis.Client, ttl time.Duration) *IdempotencyStore {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &IdempotencyStore{client: client, ttl: ttl}
}

// Reserve claims key for module. It returns the document id recorded by an
// earlier completed request, or 0 when the caller now owns the key.
func (s *IdempotencyStore) Reserve(ctx context.Context, module, key string) (int64, error) {
	if s == nil {
		return 0, errors.New("idempotency store not initialised")
	}
	if key == "" {
		return 0, errors.New("idempotency key required")
	}
	if module == "" {
		return 0, errors.New("idempotency module required")
	}
	redisKey := idempotencyKey(module, key)
	ok, err := s.client.SetNX(ctx, redisKey, idempotencyPending, s.ttl).Result()
	if err != nil {
		return 0, fmt.Errorf("reserve idempotency key: %w", err)
	}
	if ok {
		return 0, nil
	}
	val, err := s.client.Get(ctx, redisKey).Result()
	if errors.Is(err, redis.Nil) {
		// Released between SETNX and GET; let the caller retry.
		return 0, ErrIdempotencyConflict
	}
	if err != nil {
		return 0, fmt.Errorf("read idempotency key: %w", err)
	}
	if val == idempotencyPending {
		return 0, ErrIdempotencyConflict
	}
	id, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("corrupt idempotency value %q: %w", val, err)
	}
	return id, nil
}

// Complete records the document produced under key.
func (s *IdempotencyStore) Complete(ctx context.Context, module, key string, documentID int64) error {
	if s == nil {
		return nil
	}
	return s.client.Set(ctx, idempotencyKey(module, key), strconv.FormatInt(documentID, 10), s.ttl).Err()
}

// Release removes a reservation, typically after the keyed request failed.
func (s *IdempotencyStore) Release(ctx context.Context, module, key string) error {
	if s == nil {
		return nil
	}
	if key == "" {
		return errors.New("idempotency key required")
	}
	return s.client.Del(ctx, idempotencyKey(module, key)).Err()
}

func idempotencyKey(module, key string) string {
	return "idempotency:" + module + ":" + key
}
