package ar

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/odyssey-erp/odyssey-b2b/internal/numbering"
	"github.com/odyssey-erp/odyssey-b2b/internal/pricing"
	"github.com/odyssey-erp/odyssey-b2b/internal/sales/dealers"
	"github.com/odyssey-erp/odyssey-b2b/internal/sales/orders"
	"github.com/odyssey-erp/odyssey-b2b/internal/sales/orders/orderstest"
	"github.com/odyssey-erp/odyssey-b2b/internal/shared"
)

type mockRepository struct {
	mu         sync.Mutex
	invoices   map[int64]*Invoice
	nextID     int64
	orders     *orderstest.Memory
	deliveries map[int64]int64

	// racer is committed by a concurrent transaction while ours inserts,
	// so Create hits the unique constraint.
	racer *Invoice
}

func newMockRepository() *mockRepository {
	return &mockRepository{
		invoices:   map[int64]*Invoice{},
		nextID:     1,
		orders:     orderstest.NewMemory(),
		deliveries: map[int64]int64{},
	}
}

func (m *mockRepository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return m.orders.Serialize(func() error {
		m.mu.Lock()
		saved := make(map[int64]Invoice, len(m.invoices))
		for id, inv := range m.invoices {
			saved[id] = *inv
		}
		m.mu.Unlock()
		if err := fn(ctx, m); err != nil {
			m.mu.Lock()
			m.invoices = make(map[int64]*Invoice, len(saved))
			for id, inv := range saved {
				inv := inv
				m.invoices[id] = &inv
			}
			if m.racer != nil {
				m.racer.ID = m.nextID
				m.nextID++
				m.invoices[m.racer.ID] = m.racer
				m.racer = nil
			}
			m.mu.Unlock()
			return err
		}
		return nil
	})
}

func (m *mockRepository) Orders() orders.TxRepository { return m.orders }

func (m *mockRepository) Get(ctx context.Context, id int64) (*Invoice, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	inv, ok := m.invoices[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *inv
	return &cp, nil
}

func (m *mockRepository) GetForUpdate(ctx context.Context, id int64) (*Invoice, error) {
	return m.Get(ctx, id)
}

func (m *mockRepository) GetByPurchaseOrderID(ctx context.Context, poID int64) (*Invoice, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, inv := range m.invoices {
		if inv.PurchaseOrderID == poID {
			cp := *inv
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (m *mockRepository) List(ctx context.Context, filter ListFilter) ([]Invoice, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Invoice
	for _, inv := range m.invoices {
		if filter.Status != nil && inv.Status != *filter.Status {
			continue
		}
		out = append(out, *inv)
	}
	return out, len(out), nil
}

func (m *mockRepository) Create(ctx context.Context, inv Invoice) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.racer != nil {
		return 0, &pgconn.PgError{Code: "23505", ConstraintName: "invoices_purchase_order_id_key"}
	}
	inv.ID = m.nextID
	m.nextID++
	m.invoices[inv.ID] = &inv
	return inv.ID, nil
}

func (m *mockRepository) DeliveryOrderID(ctx context.Context, poID int64) (*int64, error) {
	if id, ok := m.deliveries[poID]; ok {
		return &id, nil
	}
	return nil, nil
}

func (m *mockRepository) UpdateStatus(ctx context.Context, id int64, status Status, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	inv, ok := m.invoices[id]
	if !ok {
		return ErrNotFound
	}
	inv.Status = status
	switch status {
	case StatusPaid:
		inv.PaidAt = &at
	case StatusVoid:
		inv.VoidedAt = &at
	}
	return nil
}

func (m *mockRepository) MarkOverdue(ctx context.Context, now time.Time) ([]int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var ids []int64
	for id, inv := range m.invoices {
		if inv.Status == StatusIssued && inv.DueDate.Before(now) {
			inv.Status = StatusOverdue
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func (m *mockRepository) RecordEvent(ctx context.Context, ev shared.DocumentEvent) error {
	return m.orders.RecordEvent(ctx, ev)
}

type dealerDirectory map[int64]*dealers.Dealer

func (d dealerDirectory) Get(ctx context.Context, id int64) (*dealers.Dealer, error) {
	dealer, ok := d[id]
	if !ok {
		return nil, dealers.ErrNotFound
	}
	return dealer, nil
}

var issuedAt = time.Date(2026, 4, 1, 12, 0, 0, 0, time.UTC)

func setup(status orders.Status) (*Service, *mockRepository, int64) {
	repo := newMockRepository()
	poID := repo.orders.Seed(orders.PurchaseOrder{
		Number:   "PO-2026-0005",
		DealerID: 4,
		Status:   status,
		Items: []pricing.LineItem{
			{ProductRef: 1, SKU: "A", Name: "A", Quantity: 3, UnitPrice: decimal.RequireFromString("33.35")},
			{ProductRef: 2, SKU: "B", Name: "B", Quantity: 1, UnitPrice: decimal.RequireFromString("0.01")},
		},
		Discount: decimal.RequireFromString("5.00"),
	})
	repo.deliveries[poID] = 77
	dirs := dealerDirectory{4: {ID: 4, Code: "D-4", PaymentTermsDays: 45, IsActive: true}}
	svc := NewService(repo, dirs, numbering.NewService(numbering.NewMemorySequencer()), nil).
		WithClock(func() time.Time { return issuedAt }).
		WithDefaultTaxRate(decimal.RequireFromString("0.11"))
	return svc, repo, poID
}

func TestGenerateComputesTaxAndDueDate(t *testing.T) {
	svc, _, poID := setup(orders.StatusDelivered)
	rate := decimal.RequireFromString("0.075")

	inv, err := svc.Generate(context.Background(), poID, GenerateRequest{TaxRate: &rate})
	require.NoError(t, err)

	// subtotal 100.06, discount 5.00, taxable 95.06, tax 7.1295 -> 7.13
	assert.True(t, decimal.RequireFromString("100.06").Equal(inv.Subtotal), inv.Subtotal.String())
	assert.True(t, decimal.RequireFromString("5").Equal(inv.Discount))
	assert.True(t, decimal.RequireFromString("7.13").Equal(inv.Tax), inv.Tax.String())
	assert.True(t, decimal.RequireFromString("102.19").Equal(inv.Total), inv.Total.String())
	assert.Equal(t, StatusIssued, inv.Status)
	assert.Equal(t, 45, inv.PaymentTermsDays)
	assert.Equal(t, issuedAt.AddDate(0, 0, 45), inv.DueDate)
	require.NotNil(t, inv.DeliveryOrderID)
	assert.Equal(t, int64(77), *inv.DeliveryOrderID)
	assert.Len(t, inv.Items, 2)
}

func TestGenerateUsesDefaultRateAndRequestedTerms(t *testing.T) {
	svc, _, poID := setup(orders.StatusDelivered)
	terms := 14

	inv, err := svc.Generate(context.Background(), poID, GenerateRequest{PaymentTermsDays: &terms})
	require.NoError(t, err)

	assert.True(t, decimal.RequireFromString("0.11").Equal(inv.TaxRate))
	assert.Equal(t, issuedAt.AddDate(0, 0, 14), inv.DueDate)
}

func TestGenerateFallsBackToNet30(t *testing.T) {
	svc, repo, _ := setup(orders.StatusDelivered)
	poID := repo.orders.Seed(orders.PurchaseOrder{
		Number:   "PO-2026-0006",
		DealerID: 99,
		Status:   orders.StatusDelivered,
		Items:    []pricing.LineItem{{ProductRef: 1, SKU: "A", Quantity: 1, UnitPrice: decimal.NewFromInt(10)}},
	})

	inv, err := svc.Generate(context.Background(), poID, GenerateRequest{})
	require.NoError(t, err)
	assert.Equal(t, DefaultPaymentTermsDays, inv.PaymentTermsDays)
}

func TestGenerateReadsBackConcurrentWinner(t *testing.T) {
	svc, repo, poID := setup(orders.StatusDelivered)
	repo.racer = &Invoice{
		Number:          "INV-2026-0300",
		PurchaseOrderID: poID,
		DealerID:        4,
		Status:          StatusIssued,
		Total:           decimal.RequireFromString("102.19"),
	}
	recorder := orderstest.NewRecorder()
	svc.WithMetrics(recorder)

	inv, err := svc.Generate(context.Background(), poID, GenerateRequest{})
	require.NoError(t, err)

	assert.Equal(t, "INV-2026-0300", inv.Number)
	assert.Len(t, repo.invoices, 1)
	assert.Equal(t, 1, recorder.ReusedCount(shared.KindInvoice))
	assert.Zero(t, recorder.CreatedCount(shared.KindInvoice))
}

func TestGenerateRequiresDelivered(t *testing.T) {
	svc, _, poID := setup(orders.StatusShipped)

	_, err := svc.Generate(context.Background(), poID, GenerateRequest{})
	assert.ErrorIs(t, err, shared.ErrInvalidState)
}

func TestGenerateRejectsBadTaxRate(t *testing.T) {
	svc, _, poID := setup(orders.StatusDelivered)
	rate := decimal.RequireFromString("1.5")

	_, err := svc.Generate(context.Background(), poID, GenerateRequest{TaxRate: &rate})
	assert.ErrorIs(t, err, shared.ErrValidation)
}

func TestGenerateConcurrentCallersShareOneInvoice(t *testing.T) {
	svc, repo, poID := setup(orders.StatusDelivered)

	const callers = 20
	ids := make([]int64, callers)
	var g errgroup.Group
	for i := 0; i < callers; i++ {
		i := i
		g.Go(func() error {
			inv, err := svc.Generate(context.Background(), poID, GenerateRequest{})
			if err != nil {
				return err
			}
			ids[i] = inv.ID
			return nil
		})
	}
	require.NoError(t, g.Wait())
	for _, id := range ids {
		assert.Equal(t, ids[0], id)
	}
	all, total, err := repo.List(context.Background(), ListFilter{})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Regexp(t, `^INV-\d{4}-0001$`, all[0].Number)
}

func TestPayAndVoid(t *testing.T) {
	svc, _, poID := setup(orders.StatusDelivered)
	ctx := context.Background()
	inv, err := svc.Generate(ctx, poID, GenerateRequest{})
	require.NoError(t, err)

	paid, err := svc.MarkPaid(ctx, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusPaid, paid.Status)
	require.NotNil(t, paid.PaidAt)

	_, err = svc.Void(ctx, inv.ID)
	assert.ErrorIs(t, err, shared.ErrInvalidState)
	_, err = svc.MarkPaid(ctx, inv.ID)
	assert.ErrorIs(t, err, shared.ErrInvalidState)
}

func TestMarkOverdueThenPay(t *testing.T) {
	svc, _, poID := setup(orders.StatusDelivered)
	ctx := context.Background()
	inv, err := svc.Generate(ctx, poID, GenerateRequest{})
	require.NoError(t, err)

	n, err := svc.MarkOverdue(ctx, inv.DueDate.Add(-time.Hour))
	require.NoError(t, err)
	assert.Zero(t, n)

	n, err = svc.MarkOverdue(ctx, inv.DueDate.Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	stored, err := svc.Get(ctx, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusOverdue, stored.Status)

	paid, err := svc.MarkPaid(ctx, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusPaid, paid.Status)
}
