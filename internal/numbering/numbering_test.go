package numbering

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

func newRedisService(t *testing.T, now time.Time) *Service {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), PoolSize: 64})
	t.Cleanup(func() { _ = client.Close() })
	return NewService(NewRedisSequencer(client)).WithClock(func() time.Time { return now })
}

func TestFormat(t *testing.T) {
	assert.Equal(t, "PO-2026-0041", Format("PO", 2026, 41))
	assert.Equal(t, "INV-2026-12345", Format("INV", 2026, 12345))
}

func TestNextIsPerPrefixAndYear(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	seq := NewRedisSequencer(client)

	svc2026 := NewService(seq).WithClock(func() time.Time { return time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC) })
	svc2027 := NewService(seq).WithClock(func() time.Time { return time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC) })

	n, err := svc2026.Next(ctx, PrefixPurchaseOrder)
	require.NoError(t, err)
	assert.Equal(t, "PO-2026-0001", n)

	n, err = svc2026.Next(ctx, "po")
	require.NoError(t, err)
	assert.Equal(t, "PO-2026-0002", n)

	n, err = svc2026.Next(ctx, PrefixDeliveryOrder)
	require.NoError(t, err)
	assert.Equal(t, "DO-2026-0001", n)

	n, err = svc2027.Next(ctx, PrefixPurchaseOrder)
	require.NoError(t, err)
	assert.Equal(t, "PO-2027-0001", n)
}

func TestNextRequiresPrefix(t *testing.T) {
	svc := newRedisService(t, time.Now())
	_, err := svc.Next(context.Background(), "  ")
	assert.Error(t, err)
}

func TestNextConcurrentCallersGetDistinctContiguousNumbers(t *testing.T) {
	const callers = 1000
	svc := newRedisService(t, time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC))

	var (
		mu   sync.Mutex
		seen = make(map[string]struct{}, callers)
	)
	var g errgroup.Group
	for i := 0; i < callers; i++ {
		g.Go(func() error {
			n, err := svc.Next(context.Background(), PrefixInvoice)
			if err != nil {
				return err
			}
			mu.Lock()
			seen[n] = struct{}{}
			mu.Unlock()
			return nil
		})
	}
	require.NoError(t, g.Wait())
	require.Len(t, seen, callers)

	for i := int64(1); i <= callers; i++ {
		_, ok := seen[Format(PrefixInvoice, 2026, i)]
		assert.Truef(t, ok, "missing sequence %d", i)
	}
}
