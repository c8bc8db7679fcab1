package assistant

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/odyssey-erp/odyssey-b2b/internal/platform/httpx"
)

// ChatRequest is the body of POST /api/assistant/chat.
type ChatRequest struct {
	DealerID int64  `json:"dealer_id" validate:"required,gt=0"`
	Message  string `json:"message" validate:"required,max=4000"`
}

type Handler struct {
	logger  *slog.Logger
	service *Service
}

func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers /api/assistant routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/commands", h.command)
	r.Post("/chat", h.chat)
}

func (h *Handler) command(w http.ResponseWriter, r *http.Request) {
	var cmd Command
	if err := httpx.DecodeJSON(r, &cmd); err != nil {
		httpx.RespondError(w, err)
		return
	}
	res, err := h.service.Execute(r.Context(), cmd)
	if err != nil {
		h.fail(w, "assistant command", err)
		return
	}
	status := http.StatusOK
	if res.PurchaseOrder != nil {
		status = http.StatusCreated
	}
	httpx.JSON(w, status, res)
}

func (h *Handler) chat(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	if err := httpx.DecodeAndValidate(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	reply, err := h.service.Chat(r.Context(), req.DealerID, req.Message)
	if err != nil {
		h.fail(w, "assistant chat", err)
		return
	}
	httpx.JSON(w, http.StatusOK, reply)
}

func (h *Handler) fail(w http.ResponseWriter, op string, err error) {
	if httpx.IsServerError(err) {
		h.logger.Error(op, slog.Any("error", err))
	}
	httpx.RespondError(w, err)
}
