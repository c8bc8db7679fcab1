package dealers

import (
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

// MountRoutes registers dealer registry routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/", h.create)
}

// MountDealerRoutes registers routes under /dealers/{dealerID}. Cart, checkout
// and quotation routes share that subrouter and are mounted by their own
// packages.
func (h *Handler) MountDealerRoutes(r chi.Router) {
	r.Get("/", h.show)
	r.Put("/tier", h.updateTier)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req CreateDealerRequest
	if err := httpx.DecodeAndValidate(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	dealer, err := h.service.Create(r.Context(), req)
	if err != nil {
		h.fail(w, "create dealer", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, dealer)
}

func (h *Handler) show(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "dealerID")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	dealer, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.fail(w, "get dealer", err)
		return
	}
	httpx.JSON(w, http.StatusOK, dealer)
}

func (h *Handler) updateTier(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "dealerID")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var req UpdateTierRequest
	if err := httpx.DecodeAndValidate(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	dealer, err := h.service.UpdateTier(r.Context(), id, req.Tier)
	if err != nil {
		h.fail(w, "update dealer tier", err)
		return
	}
	httpx.JSON(w, http.StatusOK, dealer)
}

func (h *Handler) fail(w http.ResponseWriter, op string, err error) {
	if httpx.IsServerError(err) {
		h.logger.Error(op, slog.Any("error", err))
	}
	httpx.RespondError(w, err)
}
