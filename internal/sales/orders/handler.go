package orders

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/odyssey-erp/odyssey-b2b/internal/platform/httpx"
	"github.com/odyssey-erp/odyssey-b2b/internal/shared"
)

// IdempotencyHeader carries the client's retry key on checkout.
const IdempotencyHeader = "Idempotency-Key"

type Handler struct {
	logger  *slog.Logger
	service *Service
}

func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers /api/purchase-orders routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.list)
	r.Get("/{id}", h.show)
	r.Post("/{id}/status", h.updateStatus)
}

// MountDealerRoutes registers checkout under /api/dealers/{dealerID}.
func (h *Handler) MountDealerRoutes(r chi.Router) {
	r.Post("/checkout", h.checkout)
}

func (h *Handler) checkout(w http.ResponseWriter, r *http.Request) {
	dealerID, err := httpx.IDParam(r, "dealerID")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var req CheckoutRequest
	if r.ContentLength != 0 {
		if err := httpx.DecodeAndValidate(r, &req); err != nil {
			httpx.RespondError(w, err)
			return
		}
	}
	req.IdempotencyKey = strings.TrimSpace(r.Header.Get(IdempotencyHeader))

	po, err := h.service.CreateFromCart(r.Context(), dealerID, req)
	if err != nil {
		h.fail(w, "checkout", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, po)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	var filter ListFilter
	filter.Page, filter.PerPage = httpx.PageParams(r)
	if raw := r.URL.Query().Get("dealer_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			httpx.RespondError(w, fmt.Errorf("%w: invalid dealer_id", shared.ErrValidation))
			return
		}
		filter.DealerID = &id
	}
	if raw := r.URL.Query().Get("status"); raw != "" {
		status := Status(raw)
		filter.Status = &status
	}

	items, total, err := h.service.List(r.Context(), filter)
	if err != nil {
		h.fail(w, "list purchase orders", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"data":       items,
		"pagination": shared.NewPagination(filter.Page, filter.PerPage, total),
	})
}

func (h *Handler) show(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	po, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.fail(w, "get purchase order", err)
		return
	}
	httpx.JSON(w, http.StatusOK, po)
}

func (h *Handler) updateStatus(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var req UpdateStatusRequest
	if err := httpx.DecodeAndValidate(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	po, err := h.service.UpdateStatus(r.Context(), id, req.Status)
	if err != nil {
		h.fail(w, "update purchase order status", err)
		return
	}
	httpx.JSON(w, http.StatusOK, po)
}

func (h *Handler) fail(w http.ResponseWriter, op string, err error) {
	if httpx.IsServerError(err) {
		h.logger.Error(op, slog.Any("error", err))
	}
	httpx.RespondError(w, err)
}
