package assistant

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/odyssey-erp/odyssey-b2b/internal/cart"
	"github.com/odyssey-erp/odyssey-b2b/internal/platform/httpx"
	"github.com/odyssey-erp/odyssey-b2b/internal/sales/orders"
	"github.com/odyssey-erp/odyssey-b2b/internal/shared"
)

// CartWriter is the only cart operation the assistant may call.
type CartWriter interface {
	AddItem(ctx context.Context, dealerID int64, sku string, qty int) (*cart.Cart, error)
}

// OrderPlacer is the only purchase order operation the assistant may call.
type OrderPlacer interface {
	CreateFromCart(ctx context.Context, dealerID int64, req orders.CheckoutRequest) (*orders.PurchaseOrder, error)
}

// Dispatcher validates commands and executes them.
type Dispatcher struct {
	cart   CartWriter
	orders OrderPlacer
	logger *slog.Logger
}

func NewDispatcher(cartSvc CartWriter, orderSvc OrderPlacer, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{cart: cartSvc, orders: orderSvc, logger: logger}
}

// Execute runs one command.
func (d *Dispatcher) Execute(ctx context.Context, cmd Command) (*Result, error) {
	if err := httpx.Validate(cmd); err != nil {
		return nil, err
	}
	res := &Result{CommandID: uuid.NewString(), Type: cmd.Type}
	switch cmd.Type {
	case CommandAddToCart:
		var p AddToCartPayload
		if err := decodePayload(cmd.Payload, &p); err != nil {
			return nil, err
		}
		if err := httpx.Validate(p); err != nil {
			return nil, err
		}
		c, err := d.cart.AddItem(ctx, cmd.DealerID, p.SKU, p.Quantity)
		if err != nil {
			return nil, err
		}
		res.Cart = c
	case CommandPlaceOrder:
		var p PlaceOrderPayload
		if err := decodePayload(cmd.Payload, &p); err != nil {
			return nil, err
		}
		if err := httpx.Validate(p); err != nil {
			return nil, err
		}
		po, err := d.orders.CreateFromCart(ctx, cmd.DealerID, orders.CheckoutRequest{
			DealerReference: p.DealerReference,
			ShippingAddress: p.ShippingAddress,
			Notes:           p.Notes,
			IdempotencyKey:  cmd.IdempotencyKey,
		})
		if err != nil {
			return nil, err
		}
		res.PurchaseOrder = po
	default:
		return nil, fmt.Errorf("%w: unsupported command %q", shared.ErrValidation, cmd.Type)
	}
	d.logger.Info("assistant command executed",
		slog.String("command_id", res.CommandID),
		slog.String("type", string(cmd.Type)),
		slog.Int64("dealer_id", cmd.DealerID))
	return res, nil
}
