package quotations

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/odyssey-erp/odyssey-b2b/internal/platform/db"
	"github.com/odyssey-erp/odyssey-b2b/internal/sales/orders"
	salesshared "github.com/odyssey-erp/odyssey-b2b/internal/sales/shared"
	"github.com/odyssey-erp/odyssey-b2b/internal/shared"
)

type Repository interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	Get(ctx context.Context, id int64) (*Quotation, error)
	List(ctx context.Context, filter ListFilter) ([]Quotation, int, error)
}

// TxRepository is the transactional view. Orders exposes purchase order
// writes bound to the same transaction.
type TxRepository interface {
	Orders() orders.TxRepository
	Create(ctx context.Context, q Quotation) (int64, error)
	GetForUpdate(ctx context.Context, id int64) (*Quotation, error)
	UpdateStatus(ctx context.Context, id int64, status Status, at time.Time) error
	ExpireSent(ctx context.Context, now time.Time) ([]int64, error)
	RecordEvent(ctx context.Context, ev shared.DocumentEvent) error
}

type queries struct {
	db db.DBTX
}

type txRepository struct {
	queries
	orders orders.TxRepository
}

type repository struct {
	queries
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{queries: queries{db: pool}, pool: pool}
}

func (r *repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(db.ContextWithTx(ctx, tx), &txRepository{queries: queries{db: tx}, orders: orders.NewTxRepository(tx)})
	})
}

func (t *txRepository) Orders() orders.TxRepository {
	return t.orders
}

const selectQuotation = `
	SELECT q.id, q.number, q.dealer_id, q.status, q.discount, q.validity_days, q.expires_at,
	       q.notes, q.terms, po.id, q.created_by, q.sent_at, q.decided_at, q.created_at, q.updated_at
	FROM quotations q
	LEFT JOIN purchase_orders po ON po.quotation_id = q.id`

func (q *queries) Get(ctx context.Context, id int64) (*Quotation, error) {
	return q.fetch(ctx, selectQuotation+` WHERE q.id = $1`, id)
}

func (q *queries) GetForUpdate(ctx context.Context, id int64) (*Quotation, error) {
	return q.fetch(ctx, selectQuotation+` WHERE q.id = $1 FOR UPDATE OF q`, id)
}

func (q *queries) fetch(ctx context.Context, query string, args ...any) (*Quotation, error) {
	quote, err := scanQuotation(q.db.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if err := q.loadItems(ctx, quote); err != nil {
		return nil, err
	}
	return quote, nil
}

func (q *queries) loadItems(ctx context.Context, quote *Quotation) error {
	items, err := salesshared.LoadLines(ctx, q.db, salesshared.QuotationLines, quote.ID)
	if err != nil {
		return fmt.Errorf("load quotation items: %w", err)
	}
	quote.Items = items
	return quote.recompute()
}

func (q *queries) List(ctx context.Context, filter ListFilter) ([]Quotation, int, error) {
	var (
		conditions []string
		args       []any
	)
	if filter.DealerID != nil {
		args = append(args, *filter.DealerID)
		conditions = append(conditions, fmt.Sprintf("q.dealer_id = $%d", len(args)))
	}
	if filter.Status != nil {
		args = append(args, *filter.Status)
		conditions = append(conditions, fmt.Sprintf("q.status = $%d", len(args)))
	}
	if filter.ExcludeDrafts {
		conditions = append(conditions, "q.status <> 'draft'")
	}
	where := ""
	if len(conditions) > 0 {
		where = " WHERE " + strings.Join(conditions, " AND ")
	}

	var total int
	if err := q.db.QueryRow(ctx, `SELECT COUNT(*) FROM quotations q`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	limit, offset := shared.LimitOffset(filter.Page, filter.PerPage)
	args = append(args, limit, offset)
	query := fmt.Sprintf("%s%s ORDER BY q.created_at DESC, q.id DESC LIMIT $%d OFFSET $%d",
		selectQuotation, where, len(args)-1, len(args))
	rows, err := q.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	var out []Quotation
	for rows.Next() {
		quote, err := scanQuotation(rows)
		if err != nil {
			rows.Close()
			return nil, 0, err
		}
		out = append(out, *quote)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	for i := range out {
		if err := q.loadItems(ctx, &out[i]); err != nil {
			return nil, 0, err
		}
	}
	return out, total, nil
}

func (q *queries) Create(ctx context.Context, quote Quotation) (int64, error) {
	var id int64
	err := q.db.QueryRow(ctx, `
		INSERT INTO quotations (number, dealer_id, status, subtotal, discount, total, validity_days,
		                        expires_at, notes, terms, created_by, sent_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id
	`, quote.Number, quote.DealerID, quote.Status, quote.Subtotal, quote.Discount, quote.Total,
		quote.ValidityDays, quote.ExpiresAt, quote.Notes, quote.Terms, quote.CreatedBy, quote.SentAt,
	).Scan(&id)
	if err != nil {
		return 0, err
	}
	if err := salesshared.InsertLines(ctx, q.db, salesshared.QuotationLines, id, quote.Items); err != nil {
		return 0, fmt.Errorf("insert quotation items: %w", err)
	}
	return id, nil
}

func (q *queries) UpdateStatus(ctx context.Context, id int64, status Status, at time.Time) error {
	tag, err := q.db.Exec(ctx, `
		UPDATE quotations
		SET status = $2,
		    sent_at = CASE WHEN $2 = 'sent' THEN $3 ELSE sent_at END,
		    decided_at = CASE WHEN $2 IN ('accepted', 'rejected', 'expired') THEN $3 ELSE decided_at END,
		    updated_at = $3
		WHERE id = $1
	`, id, status, at)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (q *queries) ExpireSent(ctx context.Context, now time.Time) ([]int64, error) {
	rows, err := q.db.Query(ctx, `
		UPDATE quotations
		SET status = 'expired', decided_at = $1, updated_at = $1
		WHERE status = 'sent' AND expires_at < $1
		RETURNING id
	`, now)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowTo[int64])
}

func (q *queries) RecordEvent(ctx context.Context, ev shared.DocumentEvent) error {
	return shared.RecordEvent(ctx, q.db, ev)
}

func scanQuotation(row pgx.Row) (*Quotation, error) {
	var quote Quotation
	err := row.Scan(&quote.ID, &quote.Number, &quote.DealerID, &quote.Status, &quote.Discount,
		&quote.ValidityDays, &quote.ExpiresAt, &quote.Notes, &quote.Terms, &quote.PurchaseOrderID,
		&quote.CreatedBy, &quote.SentAt, &quote.DecidedAt, &quote.CreatedAt, &quote.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &quote, nil
}
