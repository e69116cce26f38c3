package httpadapter

import (
	"encoding/json"
	"net/http"
	"time"

	"zap-dispatch/internal/core/domain"
	"zap-dispatch/internal/core/port"
)

type channelResponse struct {
	ID                  int64     `json:"id"`
	Name                string    `json:"name"`
	CRMWebhookURL       string    `json:"crm_webhook_url"`
	EvolutionWebhookURL string    `json:"evolution_webhook_url"`
	UserID              int64     `json:"user_id"`
	CreatedAt           time.Time `json:"created_at"`
}

func toChannelResponse(ch domain.Channel) channelResponse {
	return channelResponse{
		ID:                  ch.ID,
		Name:                ch.Name,
		CRMWebhookURL:       ch.CRMWebhookURL,
		EvolutionWebhookURL: ch.EvolutionWebhookURL,
		UserID:              ch.UserID,
		CreatedAt:           ch.CreatedAt,
	}
}

func (h *Handler) handleCreateChannel(w http.ResponseWriter, r *http.Request) {
	var req port.ChannelRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	ch, err := h.channels.CreateChannel(r.Context(), req)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, toChannelResponse(*ch))
}

func (h *Handler) handleListChannels(w http.ResponseWriter, r *http.Request) {
	channels, err := h.channels.ListChannels(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	out := make([]channelResponse, 0, len(channels))
	for _, ch := range channels {
		out = append(out, toChannelResponse(ch))
	}
	h.writeJSON(w, http.StatusOK, out)
}

func (h *Handler) handleUpdateChannel(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "channelID")
	if !ok {
		return
	}
	var upd struct {
		CRMWebhookURL       *string `json:"crm_webhook_url"`
		EvolutionWebhookURL *string `json:"evolution_webhook_url"`
	}
	if err := json.NewDecoder(r.Body).Decode(&upd); err != nil {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	ch, err := h.channels.UpdateChannel(r.Context(), id, port.ChannelUpdate{
		CRMWebhookURL:       upd.CRMWebhookURL,
		EvolutionWebhookURL: upd.EvolutionWebhookURL,
	})
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, toChannelResponse(*ch))
}

func (h *Handler) handleDeleteChannel(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "channelID")
	if !ok {
		return
	}
	if err := h.channels.DeleteChannel(r.Context(), id); err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"message": "channel deleted"})
}
