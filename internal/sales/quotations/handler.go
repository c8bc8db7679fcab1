package quotations

import (
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

// MountRoutes registers the admin quotation routes under /api/quotations.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.list)
	r.Post("/", h.create)
	r.Get("/{id}", h.show)
	r.Post("/{id}/send", h.send)
	r.Post("/{id}/accept", h.accept)
	r.Post("/{id}/reject", h.reject)
}

// MountDealerRoutes registers the dealer view under /api/dealers/{dealerID}.
func (h *Handler) MountDealerRoutes(r chi.Router) {
	r.Get("/quotations", h.listForDealer)
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
		h.fail(w, "list quotations", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"data":       items,
		"pagination": shared.NewPagination(filter.Page, filter.PerPage, total),
	})
}

func (h *Handler) listForDealer(w http.ResponseWriter, r *http.Request) {
	dealerID, err := httpx.IDParam(r, "dealerID")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	page, perPage := httpx.PageParams(r)
	items, total, err := h.service.ListForDealer(r.Context(), dealerID, page, perPage)
	if err != nil {
		h.fail(w, "list dealer quotations", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"data":       items,
		"pagination": shared.NewPagination(page, perPage, total),
	})
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req CreateRequest
	if err := httpx.DecodeAndValidate(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	quote, err := h.service.Create(r.Context(), req)
	if err != nil {
		h.fail(w, "create quotation", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, quote)
}

func (h *Handler) show(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	quote, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.fail(w, "get quotation", err)
		return
	}
	httpx.JSON(w, http.StatusOK, quote)
}

func (h *Handler) send(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	quote, err := h.service.Send(r.Context(), id)
	if err != nil {
		h.fail(w, "send quotation", err)
		return
	}
	httpx.JSON(w, http.StatusOK, quote)
}

func (h *Handler) accept(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var req AcceptRequest
	if r.ContentLength != 0 {
		if err := httpx.DecodeAndValidate(r, &req); err != nil {
			httpx.RespondError(w, err)
			return
		}
	}
	po, err := h.service.Accept(r.Context(), id, req)
	if err != nil {
		h.fail(w, "accept quotation", err)
		return
	}
	httpx.JSON(w, http.StatusOK, po)
}

func (h *Handler) reject(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	quote, err := h.service.Reject(r.Context(), id)
	if err != nil {
		h.fail(w, "reject quotation", err)
		return
	}
	httpx.JSON(w, http.StatusOK, quote)
}

func (h *Handler) fail(w http.ResponseWriter, op string, err error) {
	if httpx.IsServerError(err) {
		h.logger.Error(op, slog.Any("error", err))
	}
	httpx.RespondError(w, err)
}
