package assistant

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/generative-ai-go/genai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/odyssey-b2b/internal/cart"
	"github.com/odyssey-erp/odyssey-b2b/internal/pricing"
	"github.com/odyssey-erp/odyssey-b2b/internal/sales/orders"
	"github.com/odyssey-erp/odyssey-b2b/internal/shared"
)

type fakeCart struct {
	mu    sync.Mutex
	added map[string]int
}

func (f *fakeCart) AddItem(ctx context.Context, dealerID int64, sku string, qty int) (*cart.Cart, error) {
	if sku == "MISSING" {
		return nil, fmt.Errorf("%w: product %s", shared.ErrNotFound, sku)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.added == nil {
		f.added = map[string]int{}
	}
	f.added[sku] += qty
	c := &cart.Cart{DealerID: dealerID}
	for s, q := range f.added {
		c.Items = append(c.Items, pricing.LineItem{SKU: s, Quantity: q})
	}
	return c, nil
}

type fakeOrders struct {
	mu    sync.Mutex
	byKey map[string]*orders.PurchaseOrder
	calls int
}

func (f *fakeOrders) CreateFromCart(ctx context.Context, dealerID int64, req orders.CheckoutRequest) (*orders.PurchaseOrder, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.byKey == nil {
		f.byKey = map[string]*orders.PurchaseOrder{}
	}
	if po, ok := f.byKey[req.IdempotencyKey]; ok && req.IdempotencyKey != "" {
		return po, nil
	}
	po := &orders.PurchaseOrder{ID: int64(len(f.byKey) + 1), DealerID: dealerID, Status: orders.StatusPending, DealerReference: req.DealerReference}
	f.byKey[req.IdempotencyKey] = po
	return po, nil
}

type fakeTranslator struct {
	translation *Translation
	err         error
}

func (f fakeTranslator) Translate(ctx context.Context, dealerID int64, message string) (*Translation, error) {
	return f.translation, f.err
}

func payload(t *testing.T, v any) json.RawMessage {
	t.Helper()
	raw, err := json.Marshal(v)
	require.NoError(t, err)
	return raw
}

func TestExecuteAddToCart(t *testing.T) {
	carts := &fakeCart{}
	d := NewDispatcher(carts, &fakeOrders{}, nil)

	res, err := d.Execute(context.Background(), Command{
		Type:     CommandAddToCart,
		DealerID: 3,
		Payload:  payload(t, AddToCartPayload{SKU: "BOLT-10", Quantity: 4}),
	})
	require.NoError(t, err)
	assert.NotEmpty(t, res.CommandID)
	require.NotNil(t, res.Cart)
	assert.Equal(t, 4, carts.added["BOLT-10"])
	assert.Nil(t, res.PurchaseOrder)
}

func TestExecuteRejectsInvalidCommands(t *testing.T) {
	d := NewDispatcher(&fakeCart{}, &fakeOrders{}, nil)
	ctx := context.Background()

	cases := map[string]Command{
		"unknown type":    {Type: "set_status", DealerID: 1},
		"missing dealer":  {Type: CommandAddToCart, Payload: payload(t, AddToCartPayload{SKU: "A", Quantity: 1})},
		"zero quantity":   {Type: CommandAddToCart, DealerID: 1, Payload: payload(t, AddToCartPayload{SKU: "A"})},
		"malformed body":  {Type: CommandAddToCart, DealerID: 1, Payload: json.RawMessage(`"sku"`)},
		"missing payload": {Type: CommandAddToCart, DealerID: 1},
	}
	for name, cmd := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := d.Execute(ctx, cmd)
			assert.ErrorIs(t, err, shared.ErrValidation)
		})
	}
}

func TestExecutePlaceOrderPassesIdempotencyKey(t *testing.T) {
	placer := &fakeOrders{}
	d := NewDispatcher(&fakeCart{}, placer, nil)
	ref := "DEALER-77"
	cmd := Command{
		Type:           CommandPlaceOrder,
		DealerID:       3,
		Payload:        payload(t, PlaceOrderPayload{DealerReference: &ref}),
		IdempotencyKey: "k-1",
	}

	first, err := d.Execute(context.Background(), cmd)
	require.NoError(t, err)
	second, err := d.Execute(context.Background(), cmd)
	require.NoError(t, err)

	assert.Equal(t, first.PurchaseOrder.ID, second.PurchaseOrder.ID)
	assert.Equal(t, &ref, first.PurchaseOrder.DealerReference)
	assert.NotEqual(t, first.CommandID, second.CommandID)
}

func TestChatRunsTranslatedCommands(t *testing.T) {
	carts := &fakeCart{}
	placer := &fakeOrders{}
	tr := fakeTranslator{translation: &Translation{
		Reply: "Added and ordered.",
		Commands: []Command{
			{Type: CommandAddToCart, Payload: payload(t, AddToCartPayload{SKU: "A", Quantity: 2})},
			{Type: CommandPlaceOrder, Payload: payload(t, PlaceOrderPayload{})},
		},
	}}
	svc := NewService(NewDispatcher(carts, placer, nil), tr, nil)

	reply, err := svc.Chat(context.Background(), 9, "two A and submit")
	require.NoError(t, err)
	assert.Equal(t, "Added and ordered.", reply.Reply)
	require.Len(t, reply.Results, 2)
	assert.Equal(t, int64(9), reply.Results[1].PurchaseOrder.DealerID)
	assert.Equal(t, 2, carts.added["A"])
	for key := range placer.byKey {
		assert.Contains(t, key, "chat:")
	}
}

func TestChatStopsAtFirstFailure(t *testing.T) {
	placer := &fakeOrders{}
	tr := fakeTranslator{translation: &Translation{Commands: []Command{
		{Type: CommandAddToCart, Payload: payload(t, AddToCartPayload{SKU: "MISSING", Quantity: 1})},
		{Type: CommandPlaceOrder},
	}}}
	svc := NewService(NewDispatcher(&fakeCart{}, placer, nil), tr, nil)

	reply, err := svc.Chat(context.Background(), 9, "order the missing thing")
	assert.ErrorIs(t, err, shared.ErrNotFound)
	assert.Empty(t, reply.Results)
	assert.Zero(t, placer.calls)
}

func TestChatWithoutTranslator(t *testing.T) {
	svc := NewService(NewDispatcher(&fakeCart{}, &fakeOrders{}, nil), nil, nil)
	_, err := svc.Chat(context.Background(), 1, "hi")
	assert.ErrorIs(t, err, ErrChatDisabled)

	tr := fakeTranslator{err: errors.New("quota")}
	svc = NewService(NewDispatcher(&fakeCart{}, &fakeOrders{}, nil), tr, nil)
	_, err = svc.Chat(context.Background(), 1, "hi")
	assert.EqualError(t, err, "quota")
}

func TestTranslatePartsMapsFunctionCalls(t *testing.T) {
	parts := []genai.Part{
		genai.Text("Sure."),
		genai.FunctionCall{Name: "add_to_cart", Args: map[string]any{"sku": "A-1", "quantity": float64(5)}},
		genai.FunctionCall{Name: "place_order", Args: map[string]any{"notes": "rush", "dealer_reference": " "}},
	}

	tr, err := translateParts(4, parts)
	require.NoError(t, err)
	assert.Equal(t, "Sure.", tr.Reply)
	require.Len(t, tr.Commands, 2)

	var add AddToCartPayload
	require.NoError(t, json.Unmarshal(tr.Commands[0].Payload, &add))
	assert.Equal(t, AddToCartPayload{SKU: "A-1", Quantity: 5}, add)
	assert.Equal(t, int64(4), tr.Commands[0].DealerID)

	var place PlaceOrderPayload
	require.NoError(t, json.Unmarshal(tr.Commands[1].Payload, &place))
	require.NotNil(t, place.Notes)
	assert.Equal(t, "rush", *place.Notes)
	assert.Nil(t, place.DealerReference)

	_, err = translateParts(4, []genai.Part{genai.FunctionCall{Name: "update_status"}})
	assert.Error(t, err)
}

func TestHandlerCommandStatusCodes(t *testing.T) {
	svc := NewService(NewDispatcher(&fakeCart{}, &fakeOrders{}, nil), nil, nil)
	r := chi.NewRouter()
	NewHandler(slogDiscard(), svc).MountRoutes(r)

	post := func(path string, body any) *httptest.ResponseRecorder {
		raw, _ := json.Marshal(body)
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, path, bytes.NewReader(raw)))
		return rec
	}

	rec := post("/commands", Command{Type: CommandPlaceOrder, DealerID: 2})
	assert.Equal(t, http.StatusCreated, rec.Code)

	rec = post("/commands", Command{Type: CommandAddToCart, DealerID: 2, Payload: payload(t, AddToCartPayload{SKU: "A", Quantity: 1})})
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = post("/commands", Command{Type: "cancel_order", DealerID: 2})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = post("/chat", ChatRequest{DealerID: 2, Message: "hello"})
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func slogDiscard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
