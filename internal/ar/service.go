package ar

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/odyssey-b2b/internal/numbering"
	"github.com/odyssey-erp/odyssey-b2b/internal/sales/dealers"
	"github.com/odyssey-erp/odyssey-b2b/internal/sales/orders"
	"github.com/odyssey-erp/odyssey-b2b/internal/shared"
)

// DefaultPaymentTermsDays is Net-30.
const DefaultPaymentTermsDays = 30

// DealerDirectory resolves the dealer's payment terms.
type DealerDirectory interface {
	Get(ctx context.Context, id int64) (*dealers.Dealer, error)
}

type Service struct {
	repo           Repository
	dealers        DealerDirectory
	numbers        numbering.Generator
	logger         *slog.Logger
	metrics        shared.DocumentRecorder
	defaultTaxRate decimal.Decimal
	now            func() time.Time
}

func NewService(repo Repository, dealerDir DealerDirectory, numbers numbering.Generator, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		repo:    repo,
		dealers: dealerDir,
		numbers: numbers,
		logger:  logger,
		metrics: shared.NopRecorder{},
		now:     time.Now,
	}
}

func (s *Service) WithMetrics(m shared.DocumentRecorder) *Service {
	if m != nil {
		s.metrics = m
	}
	return s
}

func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// WithDefaultTaxRate sets the rate used when a request carries none.
func (s *Service) WithDefaultTaxRate(rate decimal.Decimal) *Service {
	s.defaultTaxRate = rate
	return s
}

// DefaultTaxRate returns the configured fallback rate.
func (s *Service) DefaultTaxRate() decimal.Decimal {
	return s.defaultTaxRate
}

// Generate invoices a delivered purchase order. Items, subtotal and discount
// come from the purchase order; repeated calls return the first invoice.
func (s *Service) Generate(ctx context.Context, purchaseOrderID int64, req GenerateRequest) (*Invoice, error) {
	rate := s.defaultTaxRate
	if req.TaxRate != nil {
		rate = *req.TaxRate
	}
	if rate.IsNegative() || rate.GreaterThan(decimal.NewFromInt(1)) {
		return nil, fmt.Errorf("%w: tax rate must be between 0 and 1", shared.ErrValidation)
	}
	if req.PaymentTermsDays != nil && *req.PaymentTermsDays <= 0 {
		return nil, fmt.Errorf("%w: payment terms must be positive", shared.ErrValidation)
	}

	inv, created, err := s.generate(ctx, purchaseOrderID, rate, req.PaymentTermsDays)
	if err != nil {
		if !shared.IsUniqueViolation(err) {
			return nil, err
		}
		existing, getErr := s.repo.GetByPurchaseOrderID(ctx, purchaseOrderID)
		if getErr != nil {
			return nil, err
		}
		inv, created = existing, false
	}
	if !created {
		s.metrics.Reused(shared.KindInvoice)
		return inv, nil
	}
	s.metrics.Created(shared.KindInvoice)
	s.logger.Info("invoice issued",
		slog.String("number", inv.Number),
		slog.Int64("purchase_order_id", purchaseOrderID),
		slog.String("total", inv.Total.StringFixed(2)),
		slog.Time("due_date", inv.DueDate))
	return inv, nil
}

func (s *Service) generate(ctx context.Context, purchaseOrderID int64, rate decimal.Decimal, terms *int) (*Invoice, bool, error) {
	var (
		inv     *Invoice
		created bool
	)
	actorID := shared.ActorFromContext(ctx)
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		po, err := tx.Orders().GetForUpdate(ctx, purchaseOrderID)
		if err != nil {
			return err
		}
		existing, err := tx.GetByPurchaseOrderID(ctx, purchaseOrderID)
		if err == nil {
			inv = existing
			return nil
		}
		if !errors.Is(err, ErrNotFound) {
			return err
		}
		if po.Status != orders.StatusDelivered {
			return fmt.Errorf("%w: purchase order %s is %s, invoices need a delivered order",
				shared.ErrInvalidState, po.Number, po.Status)
		}

		termDays, err := s.paymentTerms(ctx, po.DealerID, terms)
		if err != nil {
			return err
		}
		deliveryOrderID, err := tx.DeliveryOrderID(ctx, po.ID)
		if err != nil {
			return err
		}
		number, err := s.numbers.Next(ctx, numbering.PrefixInvoice)
		if err != nil {
			return fmt.Errorf("allocate invoice number: %w", err)
		}
		issued := s.now()
		draft := Invoice{
			Number:           number,
			PurchaseOrderID:  po.ID,
			DeliveryOrderID:  deliveryOrderID,
			DealerID:         po.DealerID,
			Status:           StatusIssued,
			Items:            po.Items,
			Discount:         po.Discount,
			TaxRate:          rate,
			PaymentTermsDays: termDays,
			IssuedAt:         issued,
			DueDate:          issued.AddDate(0, 0, termDays),
		}
		if actorID > 0 {
			draft.CreatedBy = &actorID
		}
		if err := draft.recompute(); err != nil {
			return err
		}
		id, err := tx.Create(ctx, draft)
		if err != nil {
			return fmt.Errorf("create invoice: %w", err)
		}
		err = tx.RecordEvent(ctx, shared.DocumentEvent{
			Kind:       shared.KindInvoice,
			DocumentID: id,
			Action:     "created",
			ToStatus:   string(StatusIssued),
			ActorID:    actorID,
			Meta: map[string]any{
				"number":            number,
				"purchase_order_id": po.ID,
				"total":             draft.Total.StringFixed(2),
			},
		})
		if err != nil {
			return err
		}
		inv, err = tx.Get(ctx, id)
		created = true
		return err
	})
	return inv, created, err
}

func (s *Service) paymentTerms(ctx context.Context, dealerID int64, requested *int) (int, error) {
	if requested != nil {
		return *requested, nil
	}
	if s.dealers != nil {
		dealer, err := s.dealers.Get(ctx, dealerID)
		if err != nil && !errors.Is(err, shared.ErrNotFound) {
			return 0, fmt.Errorf("dealer payment terms: %w", err)
		}
		if dealer != nil {
			return dealer.Terms(), nil
		}
	}
	return DefaultPaymentTermsDays, nil
}

// MarkPaid settles an issued or overdue invoice.
func (s *Service) MarkPaid(ctx context.Context, id int64) (*Invoice, error) {
	return s.transition(ctx, id, StatusPaid, "paid")
}

// Void cancels an unpaid invoice.
func (s *Service) Void(ctx context.Context, id int64) (*Invoice, error) {
	return s.transition(ctx, id, StatusVoid, "voided")
}

func (s *Service) transition(ctx context.Context, id int64, target Status, action string) (*Invoice, error) {
	var inv *Invoice
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		current, err := tx.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if !current.Status.CanTransitionTo(target) {
			return fmt.Errorf("%w: invoice %s is %s, cannot become %s", shared.ErrInvalidState, current.Number, current.Status, target)
		}
		if err := tx.UpdateStatus(ctx, id, target, s.now()); err != nil {
			return fmt.Errorf("update invoice status: %w", err)
		}
		err = tx.RecordEvent(ctx, shared.DocumentEvent{
			Kind:       shared.KindInvoice,
			DocumentID: id,
			Action:     action,
			FromStatus: string(current.Status),
			ToStatus:   string(target),
			ActorID:    shared.ActorFromContext(ctx),
		})
		if err != nil {
			return err
		}
		inv, err = tx.Get(ctx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.metrics.Transitioned(shared.KindInvoice, string(target))
	return inv, nil
}

// MarkOverdue flags issued invoices past their due date and returns how many
// changed.
func (s *Service) MarkOverdue(ctx context.Context, now time.Time) (int, error) {
	var ids []int64
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		var err error
		ids, err = tx.MarkOverdue(ctx, now)
		if err != nil {
			return err
		}
		for _, id := range ids {
			err := tx.RecordEvent(ctx, shared.DocumentEvent{
				Kind:       shared.KindInvoice,
				DocumentID: id,
				Action:     "overdue",
				FromStatus: string(StatusIssued),
				ToStatus:   string(StatusOverdue),
				At:         now,
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	for range ids {
		s.metrics.Transitioned(shared.KindInvoice, string(StatusOverdue))
	}
	return len(ids), nil
}

func (s *Service) Get(ctx context.Context, id int64) (*Invoice, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) GetByPurchaseOrder(ctx context.Context, purchaseOrderID int64) (*Invoice, error) {
	return s.repo.GetByPurchaseOrderID(ctx, purchaseOrderID)
}

func (s *Service) List(ctx context.Context, filter ListFilter) ([]Invoice, int, error) {
	if filter.Status != nil && !filter.Status.IsValid() {
		return nil, 0, fmt.Errorf("%w: unknown invoice status %q", shared.ErrValidation, *filter.Status)
	}
	return s.repo.List(ctx, filter)
}
