package httpadapter

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"zap-dispatch/internal/adapter/usecase"
	"zap-dispatch/internal/core/port"
)

// Handler contains dependencies and routes. It is an inbound adapter for
// HTTP. It holds the campaign and channel usecases to execute business logic
// and a logger for structured logging. Routes are registered on a chi.Router
// for convenient method handling.
type Handler struct {
	campaigns port.CampaignUseCase
	channels  port.ChannelUseCase
	logger    *slog.Logger
	router    chi.Router
}

// NewHandler creates a handler with all routes configured.
func NewHandler(campaigns port.CampaignUseCase, channels port.ChannelUseCase, logger *slog.Logger) *Handler {
	h := &Handler{campaigns: campaigns, channels: channels, logger: logger}
	r := chi.NewRouter()

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/campaigns", func(r chi.Router) {
			r.Post("/webhook/{channelID}", h.handleWebhook)
			r.Get("/", h.handleListCampaigns)
			r.Get("/{campaignID}", h.handleCampaignDetail)
			r.Post("/{campaignID}/action", h.handleCampaignAction)
		})
		r.Route("/channels", func(r chi.Router) {
			r.Post("/", h.handleCreateChannel)
			r.Get("/", h.handleListChannels)
			r.Patch("/{channelID}", h.handleUpdateChannel)
			r.Delete("/{channelID}", h.handleDeleteChannel)
		})
	})
	r.Get("/health", h.handleHealth)

	h.router = r
	return h
}

// Router returns the underlying http.Handler.
func (h *Handler) Router() http.Handler {
	return h.router
}

func (h *Handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "OK"})
}

// writeError maps the usecase error taxonomy onto HTTP statuses: validation
// failures are 400, missing resources 404, lifecycle conflicts 409 and
// anything else an opaque 500.
func (h *Handler) writeError(w http.ResponseWriter, err error) {
	var vErr *usecase.ValidationError
	switch {
	case errors.As(err, &vErr):
		h.writeJSON(w, http.StatusBadRequest, map[string]string{"error": vErr.Message})
	case errors.Is(err, port.ErrChannelNotFound), errors.Is(err, port.ErrCampaignNotFound):
		h.writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
	case errors.Is(err, port.ErrStateConflict):
		h.writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
	default:
		h.logger.Error("request failed", slog.Any("error", err))
		h.writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		// encoding should rarely fail; log and move on
		h.logger.Error("encode response error", slog.Any("error", err))
	}
}
