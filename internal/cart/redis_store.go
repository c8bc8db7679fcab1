package cart

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// adjustScript applies a delta to an existing hash field, deleting it at or
// below zero. Returns -1 when the field is absent.
var adjustScript = redis.NewScript(`
if redis.call('HEXISTS', KEYS[1], ARGV[1]) == 0 then
	return -1
end
local q = redis.call('HINCRBY', KEYS[1], ARGV[1], ARGV[2])
if q <= 0 then
	redis.call('HDEL', KEYS[1], ARGV[1])
	q = 0
end
redis.call('PEXPIRE', KEYS[1], ARGV[3])
return q
`)

// releaseScript subtracts each (field, qty) pair, deleting fields at or below zero.
var releaseScript = redis.NewScript(`
for i = 1, #ARGV, 2 do
	if redis.call('HEXISTS', KEYS[1], ARGV[i]) == 1 then
		local q = redis.call('HINCRBY', KEYS[1], ARGV[i], -tonumber(ARGV[i + 1]))
		if q <= 0 then
			redis.call('HDEL', KEYS[1], ARGV[i])
		end
	end
end
return 1
`)

// RedisStore keeps one hash per dealer: field product id, value quantity.
type RedisStore struct {
	client redis.Cmdable
	ttl    time.Duration
}

// NewRedisStore constructs the store. Idle carts expire after ttl.
func NewRedisStore(client redis.Cmdable, ttl time.Duration) *RedisStore {
	if ttl <= 0 {
		ttl = 30 * 24 * time.Hour
	}
	return &RedisStore{client: client, ttl: ttl}
}

func cartKey(dealerID int64) string {
	return "cart:" + strconv.FormatInt(dealerID, 10)
}

func (s *RedisStore) Add(ctx context.Context, dealerID, productID int64, qty int) (int, error) {
	key := cartKey(dealerID)
	var incr *redis.IntCmd
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.HIncrBy(ctx, key, strconv.FormatInt(productID, 10), int64(qty))
		pipe.Expire(ctx, key, s.ttl)
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("cart add: %w", err)
	}
	return int(incr.Val()), nil
}

func (s *RedisStore) Adjust(ctx context.Context, dealerID, productID int64, delta int) (int, error) {
	q, err := adjustScript.Run(ctx, s.client, []string{cartKey(dealerID)},
		strconv.FormatInt(productID, 10), delta, s.ttl.Milliseconds()).Int64()
	if err != nil {
		return 0, fmt.Errorf("cart adjust: %w", err)
	}
	if q < 0 {
		return 0, ErrLineNotFound
	}
	return int(q), nil
}

func (s *RedisStore) Quantities(ctx context.Context, dealerID int64) (map[int64]int, error) {
	raw, err := s.client.HGetAll(ctx, cartKey(dealerID)).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("cart read: %w", err)
	}
	out := make(map[int64]int, len(raw))
	for field, val := range raw {
		id, err := strconv.ParseInt(field, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("cart read: bad product field %q", field)
		}
		qty, err := strconv.Atoi(val)
		if err != nil {
			return nil, fmt.Errorf("cart read: bad quantity %q", val)
		}
		if qty > 0 {
			out[id] = qty
		}
	}
	return out, nil
}

func (s *RedisStore) Release(ctx context.Context, dealerID int64, quantities map[int64]int) error {
	if len(quantities) == 0 {
		return nil
	}
	args := make([]any, 0, len(quantities)*2)
	for id, qty := range quantities {
		args = append(args, strconv.FormatInt(id, 10), qty)
	}
	if err := releaseScript.Run(ctx, s.client, []string{cartKey(dealerID)}, args...).Err(); err != nil {
		return fmt.Errorf("cart release: %w", err)
	}
	return nil
}

func (s *RedisStore) Clear(ctx context.Context, dealerID int64) error {
	return s.client.Del(ctx, cartKey(dealerID)).Err()
}
