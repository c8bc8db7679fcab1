package ar

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
	Get(ctx context.Context, id int64) (*Invoice, error)
	GetByPurchaseOrderID(ctx context.Context, purchaseOrderID int64) (*Invoice, error)
	List(ctx context.Context, filter ListFilter) ([]Invoice, int, error)
}

// TxRepository is the transactional view. Orders exposes purchase order
// locking bound to the same transaction.
type TxRepository interface {
	Orders() orders.TxRepository
	Create(ctx context.Context, inv Invoice) (int64, error)
	Get(ctx context.Context, id int64) (*Invoice, error)
	GetForUpdate(ctx context.Context, id int64) (*Invoice, error)
	GetByPurchaseOrderID(ctx context.Context, purchaseOrderID int64) (*Invoice, error)
	DeliveryOrderID(ctx context.Context, purchaseOrderID int64) (*int64, error)
	UpdateStatus(ctx context.Context, id int64, status Status, at time.Time) error
	MarkOverdue(ctx context.Context, now time.Time) ([]int64, error)
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

const selectInvoice = `
	SELECT i.id, i.number, i.purchase_order_id, po.number, i.delivery_order_id, po.dealer_id, i.status,
	       i.discount, i.tax_rate, i.payment_terms_days, i.issued_at, i.due_date, i.paid_at, i.voided_at,
	       i.created_by, i.created_at, i.updated_at
	FROM invoices i
	JOIN purchase_orders po ON po.id = i.purchase_order_id`

func (q *queries) Get(ctx context.Context, id int64) (*Invoice, error) {
	return q.fetch(ctx, selectInvoice+` WHERE i.id = $1`, id)
}

func (q *queries) GetForUpdate(ctx context.Context, id int64) (*Invoice, error) {
	return q.fetch(ctx, selectInvoice+` WHERE i.id = $1 FOR UPDATE OF i`, id)
}

func (q *queries) GetByPurchaseOrderID(ctx context.Context, purchaseOrderID int64) (*Invoice, error) {
	return q.fetch(ctx, selectInvoice+` WHERE i.purchase_order_id = $1`, purchaseOrderID)
}

func (q *queries) fetch(ctx context.Context, query string, args ...any) (*Invoice, error) {
	inv, err := scanInvoice(q.db.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if err := q.loadItems(ctx, inv); err != nil {
		return nil, err
	}
	return inv, nil
}

func (q *queries) loadItems(ctx context.Context, inv *Invoice) error {
	items, err := salesshared.LoadLines(ctx, q.db, salesshared.InvoiceLines, inv.ID)
	if err != nil {
		return fmt.Errorf("load invoice items: %w", err)
	}
	inv.Items = items
	return inv.recompute()
}

func (q *queries) List(ctx context.Context, filter ListFilter) ([]Invoice, int, error) {
	var (
		conditions []string
		args       []any
	)
	if filter.DealerID != nil {
		args = append(args, *filter.DealerID)
		conditions = append(conditions, fmt.Sprintf("po.dealer_id = $%d", len(args)))
	}
	if filter.Status != nil {
		args = append(args, *filter.Status)
		conditions = append(conditions, fmt.Sprintf("i.status = $%d", len(args)))
	}
	where := ""
	if len(conditions) > 0 {
		where = " WHERE " + strings.Join(conditions, " AND ")
	}

	var total int
	countQuery := `SELECT COUNT(*) FROM invoices i JOIN purchase_orders po ON po.id = i.purchase_order_id` + where
	if err := q.db.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	limit, offset := shared.LimitOffset(filter.Page, filter.PerPage)
	args = append(args, limit, offset)
	query := fmt.Sprintf("%s%s ORDER BY i.issued_at DESC, i.id DESC LIMIT $%d OFFSET $%d",
		selectInvoice, where, len(args)-1, len(args))
	rows, err := q.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	var out []Invoice
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			rows.Close()
			return nil, 0, err
		}
		out = append(out, *inv)
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

func (q *queries) Create(ctx context.Context, inv Invoice) (int64, error) {
	var id int64
	err := q.db.QueryRow(ctx, `
		INSERT INTO invoices (number, purchase_order_id, delivery_order_id, status, subtotal, discount,
		                      tax_rate, tax, total, payment_terms_days, issued_at, due_date, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING id
	`, inv.Number, inv.PurchaseOrderID, inv.DeliveryOrderID, inv.Status, inv.Subtotal, inv.Discount,
		inv.TaxRate, inv.Tax, inv.Total, inv.PaymentTermsDays, inv.IssuedAt, inv.DueDate, inv.CreatedBy,
	).Scan(&id)
	if err != nil {
		return 0, err
	}
	if err := salesshared.InsertLines(ctx, q.db, salesshared.InvoiceLines, id, inv.Items); err != nil {
		return 0, fmt.Errorf("insert invoice items: %w", err)
	}
	return id, nil
}

func (q *queries) DeliveryOrderID(ctx context.Context, purchaseOrderID int64) (*int64, error) {
	var id int64
	err := q.db.QueryRow(ctx, `SELECT id FROM delivery_orders WHERE purchase_order_id = $1`, purchaseOrderID).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &id, nil
}

func (q *queries) UpdateStatus(ctx context.Context, id int64, status Status, at time.Time) error {
	tag, err := q.db.Exec(ctx, `
		UPDATE invoices
		SET status = $2,
		    paid_at = CASE WHEN $2 = 'paid' THEN $3 ELSE paid_at END,
		    voided_at = CASE WHEN $2 = 'void' THEN $3 ELSE voided_at END,
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

func (q *queries) MarkOverdue(ctx context.Context, now time.Time) ([]int64, error) {
	rows, err := q.db.Query(ctx, `
		UPDATE invoices
		SET status = 'overdue', updated_at = $1
		WHERE status = 'issued' AND due_date < $1
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

func scanInvoice(row pgx.Row) (*Invoice, error) {
	var inv Invoice
	err := row.Scan(&inv.ID, &inv.Number, &inv.PurchaseOrderID, &inv.PurchaseOrderNumber, &inv.DeliveryOrderID,
		&inv.DealerID, &inv.Status, &inv.Discount, &inv.TaxRate, &inv.PaymentTermsDays, &inv.IssuedAt,
		&inv.DueDate, &inv.PaidAt, &inv.VoidedAt, &inv.CreatedBy, &inv.CreatedAt, &inv.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &inv, nil
}
