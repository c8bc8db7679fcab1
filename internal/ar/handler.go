package ar

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/odyssey-erp/odyssey-b2b/internal/platform/httpx"
	"github.com/odyssey-erp/odyssey-b2b/internal/shared"
)

type Handler struct {
	logger  *slog.Logger
	service *Service
}

func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers /api/invoices routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.list)
	r.Get("/{id}", h.show)
	r.Post("/{id}/pay", h.pay)
	r.Post("/{id}/void", h.void)
}

// MountPurchaseOrderRoutes registers generation under /api/purchase-orders.
func (h *Handler) MountPurchaseOrderRoutes(r chi.Router) {
	r.Post("/{id}/invoice", h.generate)
	r.Get("/{id}/invoice", h.showForPurchaseOrder)
}

func (h *Handler) generate(w http.ResponseWriter, r *http.Request) {
	poID, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var req GenerateRequest
	if r.ContentLength != 0 {
		if err := httpx.DecodeAndValidate(r, &req); err != nil {
			httpx.RespondError(w, err)
			return
		}
	}
	inv, err := h.service.Generate(r.Context(), poID, req)
	if err != nil {
		h.fail(w, "generate invoice", err)
		return
	}
	httpx.JSON(w, http.StatusOK, inv)
}

func (h *Handler) showForPurchaseOrder(w http.ResponseWriter, r *http.Request) {
	h.act(w, r, "get invoice", h.service.GetByPurchaseOrder)
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
		h.fail(w, "list invoices", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"data":       items,
		"pagination": shared.NewPagination(filter.Page, filter.PerPage, total),
	})
}

func (h *Handler) show(w http.ResponseWriter, r *http.Request) {
	h.act(w, r, "get invoice", h.service.Get)
}

func (h *Handler) pay(w http.ResponseWriter, r *http.Request) {
	h.act(w, r, "pay invoice", h.service.MarkPaid)
}

func (h *Handler) void(w http.ResponseWriter, r *http.Request) {
	h.act(w, r, "void invoice", h.service.Void)
}

func (h *Handler) act(w http.ResponseWriter, r *http.Request, op string, fn func(context.Context, int64) (*Invoice, error)) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	inv, err := fn(r.Context(), id)
	if err != nil {
		h.fail(w, op, err)
		return
	}
	httpx.JSON(w, http.StatusOK, inv)
}

func (h *Handler) fail(w http.ResponseWriter, op string, err error) {
	if httpx.IsServerError(err) {
		h.logger.Error(op, slog.Any("error", err))
	}
	httpx.RespondError(w, err)
}
