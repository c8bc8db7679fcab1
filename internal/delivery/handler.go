package delivery

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/odyssey-erp/odyssey-b2b/internal/platform/httpx"
)

type Handler struct {
	logger  *slog.Logger
	service *Service
}

func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers /api/delivery-orders routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/{id}", h.show)
	r.Post("/{id}/dispatch", h.dispatch)
	r.Post("/{id}/deliver", h.deliver)
	r.Post("/{id}/render", h.render)
}

// MountPurchaseOrderRoutes registers generation under /api/purchase-orders.
func (h *Handler) MountPurchaseOrderRoutes(r chi.Router) {
	r.Post("/{id}/delivery-order", h.generate)
	r.Get("/{id}/delivery-order", h.showForPurchaseOrder)
}

func (h *Handler) generate(w http.ResponseWriter, r *http.Request) {
	poID, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	do, err := h.service.Generate(r.Context(), poID)
	if err != nil {
		h.fail(w, "generate delivery order", err)
		return
	}
	httpx.JSON(w, http.StatusOK, do)
}

func (h *Handler) showForPurchaseOrder(w http.ResponseWriter, r *http.Request) {
	poID, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	do, err := h.service.GetByPurchaseOrder(r.Context(), poID)
	if err != nil {
		h.fail(w, "get delivery order", err)
		return
	}
	httpx.JSON(w, http.StatusOK, do)
}

func (h *Handler) show(w http.ResponseWriter, r *http.Request) {
	h.act(w, r, "get delivery order", h.service.Get)
}

func (h *Handler) dispatch(w http.ResponseWriter, r *http.Request) {
	h.act(w, r, "dispatch delivery order", h.service.MarkDispatched)
}

func (h *Handler) deliver(w http.ResponseWriter, r *http.Request) {
	h.act(w, r, "deliver delivery order", h.service.MarkDelivered)
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request) {
	h.act(w, r, "render delivery note", h.service.RenderPDF)
}

func (h *Handler) act(w http.ResponseWriter, r *http.Request, op string, fn func(ctx context.Context, id int64) (*DeliveryOrder, error)) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	do, err := fn(r.Context(), id)
	if err != nil {
		h.fail(w, op, err)
		return
	}
	httpx.JSON(w, http.StatusOK, do)
}

func (h *Handler) fail(w http.ResponseWriter, op string, err error) {
	if httpx.IsServerError(err) {
		h.logger.Error(op, slog.Any("error", err))
	}
	httpx.RespondError(w, err)
}
