package numbering

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisSequencer keeps counters as Redis integers incremented with INCR.
type RedisSequencer struct {
	client redis.Cmdable
}

// NewRedisSequencer constructs the sequencer.
func NewRedisSequencer(client redis.Cmdable) *RedisSequencer {
	return &RedisSequencer{client: client}
}

// Next increments and returns the counter.
func (s *RedisSequencer) Next(ctx context.Context, prefix string, year int) (int64, error) {
	return s.client.Incr(ctx, fmt.Sprintf("numbering:%s:%d", prefix, year)).Result()
}
