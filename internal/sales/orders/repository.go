package orders

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/odyssey-erp/odyssey-b2b/internal/platform/db"
	"github.com/odyssey-erp/odyssey-b2b/internal/pricing"
	salesshared "github.com/odyssey-erp/odyssey-b2b/internal/sales/shared"
	"github.com/odyssey-erp/odyssey-b2b/internal/shared"
)

// Repository reads purchase orders and opens write transactions.
type Repository interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	Get(ctx context.Context, id int64) (*PurchaseOrder, error)
	GetByQuotationID(ctx context.Context, quotationID int64) (*PurchaseOrder, error)
	List(ctx context.Context, filter ListFilter) ([]PurchaseOrder, int, error)
}

// TxRepository exposes the purchase order writes available inside a
// transaction. Other document packages compose it through NewTxRepository.
type TxRepository interface {
	Create(ctx context.Context, po PurchaseOrder) (int64, error)
	Get(ctx context.Context, id int64) (*PurchaseOrder, error)
	GetForUpdate(ctx context.Context, id int64) (*PurchaseOrder, error)
	GetByQuotationID(ctx context.Context, quotationID int64) (*PurchaseOrder, error)
	UpdateStatus(ctx context.Context, id int64, status Status) error
	SyncDeliveryOrderStatus(ctx context.Context, purchaseOrderID int64, status string) error
	RecordEvent(ctx context.Context, ev shared.DocumentEvent) error
}

type queries struct {
	db db.DBTX
}

type repository struct {
	queries
	pool *pgxpool.Pool
}

// NewRepository returns a pgx-backed purchase order repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{queries: queries{db: pool}, pool: pool}
}

// NewTxRepository binds the purchase order writes to an open transaction.
func NewTxRepository(tx pgx.Tx) TxRepository {
	return &queries{db: tx}
}

func (r *repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(db.ContextWithTx(ctx, tx), NewTxRepository(tx))
	})
}

const selectOrder = `
	SELECT id, number, dealer_id, quotation_id, status, discount, pricing_tier,
	       dealer_reference, shipping_address, notes, created_by, created_at, updated_at
	FROM purchase_orders`

func (q *queries) Get(ctx context.Context, id int64) (*PurchaseOrder, error) {
	return q.fetch(ctx, selectOrder+` WHERE id = $1`, id)
}

func (q *queries) GetForUpdate(ctx context.Context, id int64) (*PurchaseOrder, error) {
	return q.fetch(ctx, selectOrder+` WHERE id = $1 FOR UPDATE`, id)
}

func (q *queries) GetByQuotationID(ctx context.Context, quotationID int64) (*PurchaseOrder, error) {
	return q.fetch(ctx, selectOrder+` WHERE quotation_id = $1`, quotationID)
}

func (q *queries) fetch(ctx context.Context, query string, args ...any) (*PurchaseOrder, error) {
	po, err := scanOrder(q.db.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if po.Items, err = salesshared.LoadLines(ctx, q.db, salesshared.PurchaseOrderLines, po.ID); err != nil {
		return nil, fmt.Errorf("load purchase order items: %w", err)
	}
	if err := po.recompute(); err != nil {
		return nil, err
	}
	return po, nil
}

func (q *queries) List(ctx context.Context, filter ListFilter) ([]PurchaseOrder, int, error) {
	var (
		conditions []string
		args       []any
	)
	if filter.DealerID != nil {
		args = append(args, *filter.DealerID)
		conditions = append(conditions, fmt.Sprintf("dealer_id = $%d", len(args)))
	}
	if filter.Status != nil {
		args = append(args, *filter.Status)
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)))
	}
	where := ""
	if len(conditions) > 0 {
		where = " WHERE " + strings.Join(conditions, " AND ")
	}

	var total int
	if err := q.db.QueryRow(ctx, `SELECT COUNT(*) FROM purchase_orders`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	limit, offset := shared.LimitOffset(filter.Page, filter.PerPage)
	args = append(args, limit, offset)
	query := fmt.Sprintf("%s%s ORDER BY created_at DESC, id DESC LIMIT $%d OFFSET $%d",
		selectOrder, where, len(args)-1, len(args))
	rows, err := q.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	var out []PurchaseOrder
	for rows.Next() {
		po, err := scanOrder(rows)
		if err != nil {
			rows.Close()
			return nil, 0, err
		}
		out = append(out, *po)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	for i := range out {
		if out[i].Items, err = salesshared.LoadLines(ctx, q.db, salesshared.PurchaseOrderLines, out[i].ID); err != nil {
			return nil, 0, err
		}
		if err := out[i].recompute(); err != nil {
			return nil, 0, err
		}
	}
	return out, total, nil
}

func (q *queries) Create(ctx context.Context, po PurchaseOrder) (int64, error) {
	var id int64
	err := q.db.QueryRow(ctx, `
		INSERT INTO purchase_orders (number, dealer_id, quotation_id, status, subtotal, discount, total,
		                             pricing_tier, dealer_reference, shipping_address, notes, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NULLIF($8, ''), $9, $10, $11, $12)
		RETURNING id
	`, po.Number, po.DealerID, po.QuotationID, po.Status, po.Subtotal, po.Discount, po.Total,
		string(po.PricingTier), po.DealerReference, po.ShippingAddress, po.Notes, po.CreatedBy,
	).Scan(&id)
	if err != nil {
		return 0, err
	}
	if err := salesshared.InsertLines(ctx, q.db, salesshared.PurchaseOrderLines, id, po.Items); err != nil {
		return 0, fmt.Errorf("insert purchase order items: %w", err)
	}
	return id, nil
}

func (q *queries) UpdateStatus(ctx context.Context, id int64, status Status) error {
	tag, err := q.db.Exec(ctx, `UPDATE purchase_orders SET status = $2, updated_at = NOW() WHERE id = $1`, id, status)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (q *queries) SyncDeliveryOrderStatus(ctx context.Context, purchaseOrderID int64, status string) error {
	_, err := q.db.Exec(ctx, `
		UPDATE delivery_orders
		SET status = $2,
		    dispatched_at = CASE WHEN $2 = 'dispatched' THEN NOW() ELSE dispatched_at END,
		    delivered_at = CASE WHEN $2 = 'delivered' THEN NOW() ELSE delivered_at END,
		    updated_at = NOW()
		WHERE purchase_order_id = $1 AND status <> $2
	`, purchaseOrderID, status)
	return err
}

func (q *queries) RecordEvent(ctx context.Context, ev shared.DocumentEvent) error {
	return shared.RecordEvent(ctx, q.db, ev)
}

func scanOrder(row pgx.Row) (*PurchaseOrder, error) {
	var (
		po   PurchaseOrder
		tier *string
	)
	err := row.Scan(&po.ID, &po.Number, &po.DealerID, &po.QuotationID, &po.Status, &po.Discount, &tier,
		&po.DealerReference, &po.ShippingAddress, &po.Notes, &po.CreatedBy, &po.CreatedAt, &po.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if tier != nil {
		po.PricingTier = pricing.Tier(*tier)
	}
	return &po, nil
}
