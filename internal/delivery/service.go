package delivery

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/odyssey-erp/odyssey-b2b/internal/delivery/export"
	"github.com/odyssey-erp/odyssey-b2b/internal/numbering"
	"github.com/odyssey-erp/odyssey-b2b/internal/platform/storage"
	"github.com/odyssey-erp/odyssey-b2b/internal/sales/dealers"
	"github.com/odyssey-erp/odyssey-b2b/internal/sales/orders"
	"github.com/odyssey-erp/odyssey-b2b/internal/shared"
)

// TaskQueue schedules the follow-up work of delivery events.
type TaskQueue interface {
	EnqueueRenderDeliveryNote(ctx context.Context, deliveryOrderID int64) error
	EnqueueGenerateInvoice(ctx context.Context, purchaseOrderID int64) error
}

// PurchaseOrderReader loads the purchase order printed on the note.
type PurchaseOrderReader interface {
	Get(ctx context.Context, id int64) (*orders.PurchaseOrder, error)
}

// DealerDirectory loads the dealer printed on the note.
type DealerDirectory interface {
	Get(ctx context.Context, id int64) (*dealers.Dealer, error)
}

type Service struct {
	repo    Repository
	numbers numbering.Generator
	logger  *slog.Logger
	metrics shared.DocumentRecorder

	queue       TaskQueue
	autoInvoice bool

	purchaseOrders PurchaseOrderReader
	dealers        DealerDirectory
	renderer       *export.NoteRenderer
	storage        storage.Storage
	now            func() time.Time
}

func NewService(repo Repository, numbers numbering.Generator, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		repo:    repo,
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

// WithQueue enables background note rendering, and invoice generation on
// delivery when autoInvoice is set.
func (s *Service) WithQueue(queue TaskQueue, autoInvoice bool) *Service {
	s.queue = queue
	s.autoInvoice = autoInvoice
	return s
}

// WithRendering enables RenderPDF.
func (s *Service) WithRendering(pos PurchaseOrderReader, dealerDir DealerDirectory, renderer *export.NoteRenderer, store storage.Storage) *Service {
	s.purchaseOrders = pos
	s.dealers = dealerDir
	s.renderer = renderer
	s.storage = store
	return s
}

// Generate creates the delivery order for a confirmed purchase order and
// moves the purchase order to processing. Repeated and concurrent calls
// for the same purchase order return the one delivery order.
func (s *Service) Generate(ctx context.Context, purchaseOrderID int64) (*DeliveryOrder, error) {
	do, created, err := s.generate(ctx, purchaseOrderID)
	if err != nil {
		if !shared.IsUniqueViolation(err) {
			return nil, err
		}
		existing, getErr := s.repo.GetByPurchaseOrderID(ctx, purchaseOrderID)
		if getErr != nil {
			return nil, err
		}
		do, created = existing, false
	}
	if !created {
		s.metrics.Reused(shared.KindDeliveryOrder)
		return do, nil
	}

	s.metrics.Created(shared.KindDeliveryOrder)
	s.metrics.Transitioned(shared.KindPurchaseOrder, string(orders.StatusProcessing))
	s.logger.Info("delivery order generated",
		slog.String("number", do.Number),
		slog.Int64("purchase_order_id", purchaseOrderID))
	if s.queue != nil {
		if err := s.queue.EnqueueRenderDeliveryNote(ctx, do.ID); err != nil {
			s.logger.Warn("enqueue delivery note render", slog.Int64("delivery_order_id", do.ID), slog.Any("error", err))
		}
	}
	return do, nil
}

func (s *Service) generate(ctx context.Context, purchaseOrderID int64) (*DeliveryOrder, bool, error) {
	var (
		do      *DeliveryOrder
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
			do = existing
			return nil
		}
		if !errors.Is(err, ErrNotFound) {
			return err
		}
		if po.Status != orders.StatusConfirmed {
			return fmt.Errorf("%w: purchase order %s is %s, delivery orders need a confirmed order",
				shared.ErrInvalidState, po.Number, po.Status)
		}

		number, err := s.numbers.Next(ctx, numbering.PrefixDeliveryOrder)
		if err != nil {
			return fmt.Errorf("allocate delivery order number: %w", err)
		}
		draft := DeliveryOrder{
			Number:          number,
			PurchaseOrderID: po.ID,
			DealerID:        po.DealerID,
			Status:          StatusGenerated,
		}
		if actorID > 0 {
			draft.GeneratedBy = &actorID
		}
		id, err := tx.Create(ctx, draft)
		if err != nil {
			return fmt.Errorf("create delivery order: %w", err)
		}
		err = tx.RecordEvent(ctx, shared.DocumentEvent{
			Kind:       shared.KindDeliveryOrder,
			DocumentID: id,
			Action:     "created",
			ToStatus:   string(StatusGenerated),
			ActorID:    actorID,
			Meta:       map[string]any{"number": number, "purchase_order_id": po.ID},
		})
		if err != nil {
			return err
		}
		if _, err := orders.Transition(ctx, tx.Orders(), po.ID, orders.StatusProcessing, actorID); err != nil {
			return err
		}
		do, err = tx.Get(ctx, id)
		created = true
		return err
	})
	return do, created, err
}

// MarkDispatched records that the goods left the warehouse. The purchase
// order moves to shipped and the delivery order follows it.
func (s *Service) MarkDispatched(ctx context.Context, id int64) (*DeliveryOrder, error) {
	do, changed, err := s.advance(ctx, id, StatusGenerated, StatusDispatched, orders.StatusShipped)
	if err != nil {
		return nil, err
	}
	if changed {
		s.metrics.Transitioned(shared.KindDeliveryOrder, string(StatusDispatched))
		s.metrics.Transitioned(shared.KindPurchaseOrder, string(orders.StatusShipped))
	}
	return do, nil
}

// MarkDelivered records receipt by the dealer. The purchase order moves to
// delivered, and an invoice is queued when auto-invoicing is on.
func (s *Service) MarkDelivered(ctx context.Context, id int64) (*DeliveryOrder, error) {
	do, changed, err := s.advance(ctx, id, StatusDispatched, StatusDelivered, orders.StatusDelivered)
	if err != nil {
		return nil, err
	}
	if !changed {
		return do, nil
	}
	s.metrics.Transitioned(shared.KindDeliveryOrder, string(StatusDelivered))
	s.metrics.Transitioned(shared.KindPurchaseOrder, string(orders.StatusDelivered))
	if s.queue != nil && s.autoInvoice {
		if err := s.queue.EnqueueGenerateInvoice(ctx, do.PurchaseOrderID); err != nil {
			s.logger.Warn("enqueue invoice generation", slog.Int64("purchase_order_id", do.PurchaseOrderID), slog.Any("error", err))
		}
	}
	return do, nil
}

// advance drives the purchase order to poTarget, which mirrors the delivery
// order into target. A delivery order already at target is returned as is.
// Locks are taken purchase order first, then delivery order, the same order
// Transition and Generate use.
func (s *Service) advance(ctx context.Context, id int64, from, target Status, poTarget orders.Status) (*DeliveryOrder, bool, error) {
	var (
		do      *DeliveryOrder
		changed bool
	)
	actorID := shared.ActorFromContext(ctx)
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		unlocked, err := tx.Get(ctx, id)
		if err != nil {
			return err
		}
		if _, err := tx.Orders().GetForUpdate(ctx, unlocked.PurchaseOrderID); err != nil {
			return err
		}
		current, err := tx.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if current.Status == target {
			do = current
			return nil
		}
		if current.Status != from {
			return fmt.Errorf("%w: delivery order %s is %s, expected %s", shared.ErrInvalidState, current.Number, current.Status, from)
		}
		if _, err := orders.Transition(ctx, tx.Orders(), current.PurchaseOrderID, poTarget, actorID); err != nil {
			return err
		}
		err = tx.RecordEvent(ctx, shared.DocumentEvent{
			Kind:       shared.KindDeliveryOrder,
			DocumentID: id,
			Action:     string(target),
			FromStatus: string(current.Status),
			ToStatus:   string(target),
			ActorID:    actorID,
		})
		if err != nil {
			return err
		}
		do, err = tx.Get(ctx, id)
		changed = true
		return err
	})
	return do, changed, err
}

// RenderPDF prints the delivery note, stores it and records its URL.
func (s *Service) RenderPDF(ctx context.Context, id int64) (*DeliveryOrder, error) {
	if s.renderer == nil || s.storage == nil || s.purchaseOrders == nil {
		return nil, ErrRenderDisabled
	}
	do, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	po, err := s.purchaseOrders.Get(ctx, do.PurchaseOrderID)
	if err != nil {
		return nil, fmt.Errorf("load purchase order: %w", err)
	}
	payload := notePayload(do, po, s.now())
	if s.dealers != nil {
		if dealer, err := s.dealers.Get(ctx, po.DealerID); err == nil {
			payload.DealerName = dealer.Name
			payload.DealerCode = dealer.Code
			if payload.ShippingAddress == "" && dealer.ShippingAddress != nil {
				payload.ShippingAddress = *dealer.ShippingAddress
			}
		} else {
			s.logger.Warn("delivery note dealer lookup", slog.Int64("dealer_id", po.DealerID), slog.Any("error", err))
		}
	}

	pdf, err := s.renderer.PDF(ctx, payload)
	if err != nil {
		return nil, fmt.Errorf("render delivery note: %w", err)
	}
	key := storage.ObjectKey("delivery-orders", do.Number, ".pdf", s.now())
	url, err := s.storage.Put(ctx, key, "application/pdf", pdf)
	if err != nil {
		return nil, err
	}
	if err := s.repo.SetPDFURL(ctx, id, url); err != nil {
		return nil, err
	}
	do.PDFURL = &url
	s.logger.Info("delivery note rendered", slog.String("number", do.Number), slog.String("url", url))
	return do, nil
}

func (s *Service) Get(ctx context.Context, id int64) (*DeliveryOrder, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) GetByPurchaseOrder(ctx context.Context, purchaseOrderID int64) (*DeliveryOrder, error) {
	return s.repo.GetByPurchaseOrderID(ctx, purchaseOrderID)
}

func notePayload(do *DeliveryOrder, po *orders.PurchaseOrder, now time.Time) export.NotePayload {
	payload := export.NotePayload{
		Number:              do.Number,
		PurchaseOrderNumber: po.Number,
		GeneratedAt:         do.CreatedAt,
		Subtotal:            po.Subtotal,
		Discount:            po.Discount,
		Total:               po.Total,
	}
	if payload.GeneratedAt.IsZero() {
		payload.GeneratedAt = now
	}
	if po.DealerReference != nil {
		payload.DealerReference = *po.DealerReference
	}
	if po.ShippingAddress != nil {
		payload.ShippingAddress = *po.ShippingAddress
	}
	for i, item := range po.Items {
		payload.Lines = append(payload.Lines, export.NoteLine{
			No:        i + 1,
			SKU:       item.SKU,
			Name:      item.Name,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
			LineTotal: item.LineTotal,
		})
	}
	return payload
}
