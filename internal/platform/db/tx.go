package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DBTX is satisfied by both *pgxpool.Pool and pgx.Tx.
type DBTX interface {
	Exec(context.Context, string, ...any) (pgconn.CommandTag, error)
	Query(context.Context, string, ...any) (pgx.Rows, error)
	QueryRow(context.Context, string, ...any) pgx.Row
	SendBatch(context.Context, *pgx.Batch) pgx.BatchResults
}

// WithTx executes fn within a READ COMMITTED transaction. Document writers
// serialize on SELECT ... FOR UPDATE of the source row; at this level a
// waiter re-reads the winner's committed rows instead of failing with a
// serialization error.
func WithTx(ctx context.Context, pool *pgxpool.Pool, fn func(pgx.Tx) error) error {
	tx, err := pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return fmt.Errorf("platform/db: begin tx: %w", err)
	}

	defer func() {
		_ = tx.Rollback(ctx)
	}()

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("platform/db: commit tx: %w", err)
	}

	return nil
}

type txKey struct{}

// ContextWithTx returns a copy of ctx carrying q as the open transaction.
// Helpers that issue their own statements, such as the number sequencer,
// pick it up through Querier and stay on the transaction's connection.
func ContextWithTx(ctx context.Context, q DBTX) context.Context {
	return context.WithValue(ctx, txKey{}, q)
}

// Querier returns the transaction carried by ctx, or fallback outside one.
func Querier(ctx context.Context, fallback DBTX) DBTX {
	if q, ok := ctx.Value(txKey{}).(DBTX); ok && q != nil {
		return q
	}
	return fallback
}
