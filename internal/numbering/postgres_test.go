package numbering

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/odyssey-b2b/internal/platform/db"
)

type int64Row struct {
	value int64
}

func (r int64Row) Scan(dest ...any) error {
	if len(dest) != 1 {
		return errors.New("expected one destination")
	}
	target, ok := dest[0].(*int64)
	if !ok {
		return errors.New("expected *int64 destination")
	}
	*target = r.value
	return nil
}

// countingConn is a single connection: it only answers while not claimed
// by another caller, like a pool of size one with the connection checked out.
type countingConn struct {
	mu      sync.Mutex
	value   int64
	queries int
	blocked bool
}

func (c *countingConn) Exec(context.Context, string, ...any) (pgconn.CommandTag, error) {
	return pgconn.CommandTag{}, errors.New("unexpected exec")
}

func (c *countingConn) Query(context.Context, string, ...any) (pgx.Rows, error) {
	return nil, errors.New("unexpected query")
}

func (c *countingConn) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.queries++
	if c.blocked {
		return errRow{err: errors.New("connection already checked out")}
	}
	c.value++
	return int64Row{value: c.value}
}

func (c *countingConn) SendBatch(context.Context, *pgx.Batch) pgx.BatchResults {
	return nil
}

type errRow struct{ err error }

func (r errRow) Scan(...any) error { return r.err }

func TestPostgresSequencerJoinsOpenTransaction(t *testing.T) {
	pool := &countingConn{blocked: true}
	tx := &countingConn{value: 40}
	seq := NewPostgresSequencer(pool)

	ctx := db.ContextWithTx(context.Background(), tx)
	n, err := seq.Next(ctx, PrefixDeliveryOrder, 2026)
	require.NoError(t, err)
	assert.Equal(t, int64(41), n)
	assert.Equal(t, 1, tx.queries)
	assert.Zero(t, pool.queries, "the pool must not be asked for a second connection")

	svc := NewService(seq).WithClock(func() time.Time { return time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC) })
	number, err := svc.Next(ctx, PrefixInvoice)
	require.NoError(t, err)
	assert.Equal(t, "INV-2026-0042", number)
	assert.Zero(t, pool.queries)
}

func TestPostgresSequencerUsesPoolOutsideTransaction(t *testing.T) {
	pool := &countingConn{}
	seq := NewPostgresSequencer(pool)

	n, err := seq.Next(context.Background(), PrefixQuotation, 2026)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	assert.Equal(t, 1, pool.queries)
}
