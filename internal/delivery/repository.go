package delivery

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/odyssey-erp/odyssey-b2b/internal/platform/db"
	"github.com/odyssey-erp/odyssey-b2b/internal/sales/orders"
	"github.com/odyssey-erp/odyssey-b2b/internal/shared"
)

type Repository interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	Get(ctx context.Context, id int64) (*DeliveryOrder, error)
	GetByPurchaseOrderID(ctx context.Context, purchaseOrderID int64) (*DeliveryOrder, error)
	SetPDFURL(ctx context.Context, id int64, url string) error
}

// TxRepository is the transactional view. Orders exposes purchase order
// locking and transitions bound to the same transaction.
type TxRepository interface {
	Orders() orders.TxRepository
	Create(ctx context.Context, do DeliveryOrder) (int64, error)
	Get(ctx context.Context, id int64) (*DeliveryOrder, error)
	GetForUpdate(ctx context.Context, id int64) (*DeliveryOrder, error)
	GetByPurchaseOrderID(ctx context.Context, purchaseOrderID int64) (*DeliveryOrder, error)
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

const selectDelivery = `
	SELECT d.id, d.number, d.purchase_order_id, po.number, po.dealer_id, d.status, d.pdf_url,
	       d.generated_by, d.dispatched_at, d.delivered_at, d.created_at, d.updated_at
	FROM delivery_orders d
	JOIN purchase_orders po ON po.id = d.purchase_order_id`

func (q *queries) Get(ctx context.Context, id int64) (*DeliveryOrder, error) {
	return q.fetch(ctx, selectDelivery+` WHERE d.id = $1`, id)
}

func (q *queries) GetForUpdate(ctx context.Context, id int64) (*DeliveryOrder, error) {
	return q.fetch(ctx, selectDelivery+` WHERE d.id = $1 FOR UPDATE OF d`, id)
}

func (q *queries) GetByPurchaseOrderID(ctx context.Context, purchaseOrderID int64) (*DeliveryOrder, error) {
	return q.fetch(ctx, selectDelivery+` WHERE d.purchase_order_id = $1`, purchaseOrderID)
}

func (q *queries) fetch(ctx context.Context, query string, args ...any) (*DeliveryOrder, error) {
	var do DeliveryOrder
	err := q.db.QueryRow(ctx, query, args...).Scan(
		&do.ID, &do.Number, &do.PurchaseOrderID, &do.PurchaseOrderNumber, &do.DealerID, &do.Status,
		&do.PDFURL, &do.GeneratedBy, &do.DispatchedAt, &do.DeliveredAt, &do.CreatedAt, &do.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &do, nil
}

func (q *queries) Create(ctx context.Context, do DeliveryOrder) (int64, error) {
	var id int64
	err := q.db.QueryRow(ctx, `
		INSERT INTO delivery_orders (number, purchase_order_id, status, generated_by)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`, do.Number, do.PurchaseOrderID, do.Status, do.GeneratedBy).Scan(&id)
	return id, err
}

func (q *queries) SetPDFURL(ctx context.Context, id int64, url string) error {
	tag, err := q.db.Exec(ctx, `UPDATE delivery_orders SET pdf_url = $2, updated_at = NOW() WHERE id = $1`, id, url)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (q *queries) RecordEvent(ctx context.Context, ev shared.DocumentEvent) error {
	return shared.RecordEvent(ctx, q.db, ev)
}
