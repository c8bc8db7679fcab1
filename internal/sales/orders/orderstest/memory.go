// Package orderstest provides an in-memory purchase order repository for
// tests of the packages that compose purchase order transactions.
package orderstest

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/odyssey-erp/odyssey-b2b/internal/pricing"
	"github.com/odyssey-erp/odyssey-b2b/internal/sales/orders"
	"github.com/odyssey-erp/odyssey-b2b/internal/shared"
)

// Memory implements orders.Repository and orders.TxRepository. Transactions
// are serialized by one mutex, which stands in for the row lock, and roll
// back by restoring a copy of the state.
type Memory struct {
	txMu sync.Mutex
	mu   sync.Mutex

	orders map[int64]*orders.PurchaseOrder
	nextID int64
	events []shared.DocumentEvent

	// FailCreate makes Create return this error.
	FailCreate error
	// OnDeliverySync receives delivery order status mirrors.
	OnDeliverySync func(purchaseOrderID int64, status string)
	// OnLock is called for every GetForUpdate.
	OnLock func(id int64)
}

// NewMemory returns an empty repository.
func NewMemory() *Memory {
	return &Memory{orders: make(map[int64]*orders.PurchaseOrder), nextID: 1}
}

// Serialize runs fn as one transaction.
func (m *Memory) Serialize(fn func() error) error {
	m.txMu.Lock()
	defer m.txMu.Unlock()

	m.mu.Lock()
	saved := m.copyState()
	savedEvents := len(m.events)
	savedID := m.nextID
	m.mu.Unlock()

	if err := fn(); err != nil {
		m.mu.Lock()
		m.orders = saved
		m.events = m.events[:savedEvents]
		m.nextID = savedID
		m.mu.Unlock()
		return err
	}
	return nil
}

func (m *Memory) WithTx(ctx context.Context, fn func(context.Context, orders.TxRepository) error) error {
	return m.Serialize(func() error { return fn(ctx, m) })
}

// Seed stores po as is and returns its id.
func (m *Memory) Seed(po orders.PurchaseOrder) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	if po.ID == 0 {
		po.ID = m.nextID
	}
	if po.ID >= m.nextID {
		m.nextID = po.ID + 1
	}
	if po.Status == "" {
		po.Status = orders.StatusPending
	}
	totals, _ := pricing.ComputeFlat(po.Items, po.Discount)
	po.Items = pricing.Derive(po.Items)
	po.Subtotal, po.Total = totals.Subtotal, totals.Total
	m.orders[po.ID] = &po
	return po.ID
}

// Events returns the recorded audit events.
func (m *Memory) Events() []shared.DocumentEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]shared.DocumentEvent(nil), m.events...)
}

// Count returns the number of stored purchase orders.
func (m *Memory) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.orders)
}

func (m *Memory) Get(ctx context.Context, id int64) (*orders.PurchaseOrder, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	po, ok := m.orders[id]
	if !ok {
		return nil, orders.ErrNotFound
	}
	return clone(po), nil
}

func (m *Memory) GetForUpdate(ctx context.Context, id int64) (*orders.PurchaseOrder, error) {
	if m.OnLock != nil {
		m.OnLock(id)
	}
	return m.Get(ctx, id)
}

func (m *Memory) GetByQuotationID(ctx context.Context, quotationID int64) (*orders.PurchaseOrder, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, po := range m.orders {
		if po.QuotationID != nil && *po.QuotationID == quotationID {
			return clone(po), nil
		}
	}
	return nil, orders.ErrNotFound
}

func (m *Memory) List(ctx context.Context, filter orders.ListFilter) ([]orders.PurchaseOrder, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []orders.PurchaseOrder
	for _, po := range m.orders {
		if filter.DealerID != nil && po.DealerID != *filter.DealerID {
			continue
		}
		if filter.Status != nil && po.Status != *filter.Status {
			continue
		}
		out = append(out, *clone(po))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	total := len(out)
	limit, offset := shared.LimitOffset(filter.Page, filter.PerPage)
	if offset >= len(out) {
		return nil, total, nil
	}
	end := offset + limit
	if end > len(out) {
		end = len(out)
	}
	return out[offset:end], total, nil
}

func (m *Memory) Create(ctx context.Context, po orders.PurchaseOrder) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailCreate != nil {
		return 0, m.FailCreate
	}
	if po.QuotationID != nil {
		for _, existing := range m.orders {
			if existing.QuotationID != nil && *existing.QuotationID == *po.QuotationID {
				return 0, &pgconn.PgError{Code: "23505", ConstraintName: "purchase_orders_quotation_id_key"}
			}
		}
	}
	po.ID = m.nextID
	m.nextID++
	now := time.Now()
	po.CreatedAt, po.UpdatedAt = now, now
	m.orders[po.ID] = clone(&po)
	return po.ID, nil
}

func (m *Memory) UpdateStatus(ctx context.Context, id int64, status orders.Status) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	po, ok := m.orders[id]
	if !ok {
		return orders.ErrNotFound
	}
	po.Status = status
	po.UpdatedAt = time.Now()
	return nil
}

func (m *Memory) SyncDeliveryOrderStatus(ctx context.Context, purchaseOrderID int64, status string) error {
	if m.OnDeliverySync != nil {
		m.OnDeliverySync(purchaseOrderID, status)
	}
	return nil
}

func (m *Memory) RecordEvent(ctx context.Context, ev shared.DocumentEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, ev)
	return nil
}

func (m *Memory) copyState() map[int64]*orders.PurchaseOrder {
	out := make(map[int64]*orders.PurchaseOrder, len(m.orders))
	for id, po := range m.orders {
		out[id] = clone(po)
	}
	return out
}

func clone(po *orders.PurchaseOrder) *orders.PurchaseOrder {
	cp := *po
	cp.Items = append([]pricing.LineItem(nil), po.Items...)
	return &cp
}
