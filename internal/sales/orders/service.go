package orders

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/odyssey-erp/odyssey-b2b/internal/cart"
	"github.com/odyssey-erp/odyssey-b2b/internal/numbering"
	"github.com/odyssey-erp/odyssey-b2b/internal/pricing"
	"github.com/odyssey-erp/odyssey-b2b/internal/sales/dealers"
	"github.com/odyssey-erp/odyssey-b2b/internal/shared"
)

const checkoutModule = "checkout"

// CartCheckout is the part of the cart the checkout needs.
type CartCheckout interface {
	Snapshot(ctx context.Context, dealerID int64) (cart.Snapshot, error)
	Release(ctx context.Context, snap cart.Snapshot) error
}

// DealerDirectory resolves the dealer's current tier.
type DealerDirectory interface {
	Get(ctx context.Context, id int64) (*dealers.Dealer, error)
}

// IdempotencyStore remembers which purchase order a keyed request produced.
type IdempotencyStore interface {
	Reserve(ctx context.Context, module, key string) (int64, error)
	Complete(ctx context.Context, module, key string, documentID int64) error
	Release(ctx context.Context, module, key string) error
}

// Service implements the purchase order operations.
type Service struct {
	repo    Repository
	cart    CartCheckout
	dealers DealerDirectory
	numbers numbering.Generator
	idem    IdempotencyStore
	logger  *slog.Logger
	metrics shared.DocumentRecorder
}

// NewService creates the purchase order service.
func NewService(repo Repository, cartSvc CartCheckout, dealerDir DealerDirectory, numbers numbering.Generator, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		repo:    repo,
		cart:    cartSvc,
		dealers: dealerDir,
		numbers: numbers,
		logger:  logger,
		metrics: shared.NopRecorder{},
	}
}

// WithIdempotency enables Idempotency-Key handling on checkout.
func (s *Service) WithIdempotency(store IdempotencyStore) *Service {
	s.idem = store
	return s
}

// WithMetrics sets the document metrics sink.
func (s *Service) WithMetrics(m shared.DocumentRecorder) *Service {
	if m != nil {
		s.metrics = m
	}
	return s
}

// CreateFromCart converts the dealer's cart into a pending purchase order
// priced at the dealer's current tier. The snapshotted quantities leave the
// cart only after the order is committed.
func (s *Service) CreateFromCart(ctx context.Context, dealerID int64, req CheckoutRequest) (po *PurchaseOrder, err error) {
	if req.IdempotencyKey != "" && s.idem != nil {
		key := strconv.FormatInt(dealerID, 10) + ":" + req.IdempotencyKey
		existingID, rErr := s.idem.Reserve(ctx, checkoutModule, key)
		if rErr != nil {
			return nil, rErr
		}
		if existingID > 0 {
			s.metrics.Reused(shared.KindPurchaseOrder)
			return s.repo.Get(ctx, existingID)
		}
		defer func() {
			if err != nil {
				if relErr := s.idem.Release(ctx, checkoutModule, key); relErr != nil {
					s.logger.Warn("release idempotency key", slog.String("key", key), slog.Any("error", relErr))
				}
				return
			}
			if cErr := s.idem.Complete(ctx, checkoutModule, key, po.ID); cErr != nil {
				s.logger.Warn("complete idempotency key", slog.String("key", key), slog.Any("error", cErr))
			}
		}()
	}

	dealer, err := s.dealers.Get(ctx, dealerID)
	if err != nil {
		return nil, fmt.Errorf("checkout dealer: %w", err)
	}
	snap, err := s.cart.Snapshot(ctx, dealerID)
	if err != nil {
		return nil, fmt.Errorf("snapshot cart: %w", err)
	}
	if snap.IsEmpty() {
		return nil, ErrEmptyCart
	}
	totals, err := pricing.Compute(snap.Items, dealer.Tier)
	if err != nil {
		return nil, err
	}

	actorID := shared.ActorFromContext(ctx)
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		number, err := s.numbers.Next(ctx, numbering.PrefixPurchaseOrder)
		if err != nil {
			return fmt.Errorf("allocate purchase order number: %w", err)
		}
		po, err = Place(ctx, tx, PurchaseOrder{
			Number:          number,
			DealerID:        dealerID,
			Status:          StatusPending,
			Items:           snap.Items,
			Discount:        totals.Discount,
			PricingTier:     dealer.Tier,
			DealerReference: req.DealerReference,
			ShippingAddress: req.ShippingAddress,
			Notes:           req.Notes,
		}, actorID)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.metrics.Created(shared.KindPurchaseOrder)

	if err := s.cart.Release(ctx, snap); err != nil {
		s.logger.Error("release checked out cart lines",
			slog.Int64("dealer_id", dealerID),
			slog.String("purchase_order", po.Number),
			slog.Any("error", err))
	}
	s.logger.Info("purchase order placed",
		slog.String("number", po.Number),
		slog.Int64("dealer_id", dealerID),
		slog.String("tier", string(dealer.Tier)),
		slog.String("total", po.Total.StringFixed(2)))
	return po, nil
}

// UpdateStatus moves the purchase order along its state machine. Processing
// is not a manual target: it is entered by generating the delivery order.
func (s *Service) UpdateStatus(ctx context.Context, id int64, target Status) (*PurchaseOrder, error) {
	if target == StatusProcessing {
		return nil, ErrProcessingIsGenerated
	}
	var po *PurchaseOrder
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		var err error
		po, err = Transition(ctx, tx, id, target, shared.ActorFromContext(ctx))
		return err
	})
	if err != nil {
		return nil, err
	}
	s.metrics.Transitioned(shared.KindPurchaseOrder, string(target))
	return po, nil
}

// Get returns a purchase order with its items.
func (s *Service) Get(ctx context.Context, id int64) (*PurchaseOrder, error) {
	return s.repo.Get(ctx, id)
}

// GetByQuotation returns the purchase order created from a quotation.
func (s *Service) GetByQuotation(ctx context.Context, quotationID int64) (*PurchaseOrder, error) {
	return s.repo.GetByQuotationID(ctx, quotationID)
}

// List returns a page of purchase orders.
func (s *Service) List(ctx context.Context, filter ListFilter) ([]PurchaseOrder, int, error) {
	if filter.Status != nil && !filter.Status.IsValid() {
		return nil, 0, fmt.Errorf("%w: %q", ErrBadStatus, *filter.Status)
	}
	return s.repo.List(ctx, filter)
}

