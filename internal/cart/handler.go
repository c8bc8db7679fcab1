package cart

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/odyssey-erp/odyssey-b2b/internal/platform/httpx"
)

// AddItemRequest is the body of POST /cart/items.
type AddItemRequest struct {
	SKU      string `json:"sku" validate:"required"`
	Quantity int    `json:"quantity" validate:"required,gt=0"`
}

// UpdateQuantityRequest is the body of PATCH /cart/items/{productID}.
type UpdateQuantityRequest struct {
	Delta int `json:"delta" validate:"required"`
}

// Handler exposes a dealer's cart over HTTP.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler creates a cart handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers cart routes under /dealers/{dealerID}/cart.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.show)
	r.Delete("/", h.clear)
	r.Post("/items", h.addItem)
	r.Patch("/items/{productID}", h.updateQuantity)
}

func (h *Handler) show(w http.ResponseWriter, r *http.Request) {
	dealerID, err := httpx.IDParam(r, "dealerID")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	c, err := h.service.Get(r.Context(), dealerID)
	if err != nil {
		h.fail(w, "get cart", err)
		return
	}
	httpx.JSON(w, http.StatusOK, c)
}

func (h *Handler) clear(w http.ResponseWriter, r *http.Request) {
	dealerID, err := httpx.IDParam(r, "dealerID")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.service.Clear(r.Context(), dealerID); err != nil {
		h.fail(w, "clear cart", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) addItem(w http.ResponseWriter, r *http.Request) {
	dealerID, err := httpx.IDParam(r, "dealerID")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var req AddItemRequest
	if err := httpx.DecodeAndValidate(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	c, err := h.service.AddItem(r.Context(), dealerID, req.SKU, req.Quantity)
	if err != nil {
		h.fail(w, "add cart item", err)
		return
	}
	httpx.JSON(w, http.StatusOK, c)
}

func (h *Handler) updateQuantity(w http.ResponseWriter, r *http.Request) {
	dealerID, err := httpx.IDParam(r, "dealerID")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	productID, err := httpx.IDParam(r, "productID")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var req UpdateQuantityRequest
	if err := httpx.DecodeAndValidate(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	c, err := h.service.UpdateQuantity(r.Context(), dealerID, productID, req.Delta)
	if err != nil {
		h.fail(w, "update cart quantity", err)
		return
	}
	httpx.JSON(w, http.StatusOK, c)
}

func (h *Handler) fail(w http.ResponseWriter, op string, err error) {
	if httpx.IsServerError(err) {
		h.logger.Error(op, slog.Any("error", err))
	}
	httpx.RespondError(w, err)
}
