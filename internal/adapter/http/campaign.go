package httpadapter

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"zap-dispatch/internal/core/domain"
	"zap-dispatch/internal/core/port"
)

// campaignResponse is the JSON shape of a campaign. Timestamps are RFC3339;
// optional ones are omitted when unset.
type campaignResponse struct {
	ID                    int64                 `json:"id"`
	ChannelID             int64                 `json:"channel_id"`
	ChannelName           string                `json:"channel_name,omitempty"`
	Message               string                `json:"message"`
	Status                domain.CampaignStatus `json:"status"`
	ScheduledAt           *time.Time            `json:"scheduled_at,omitempty"`
	LastContactReceivedAt *time.Time            `json:"last_contact_received_at,omitempty"`
	CreatedAt             time.Time             `json:"created_at"`
	Contacts              []contactResponse     `json:"contacts,omitempty"`
}

type contactResponse struct {
	ID          int64                `json:"id"`
	PhoneNumber string               `json:"phone_number"`
	Status      domain.ContactStatus `json:"status"`
	SentAt      *time.Time           `json:"sent_at,omitempty"`
	CreatedAt   time.Time            `json:"created_at"`
}

func toCampaignResponse(c domain.Campaign, channelName string) campaignResponse {
	return campaignResponse{
		ID:                    c.ID,
		ChannelID:             c.ChannelID,
		ChannelName:           channelName,
		Message:               c.Message,
		Status:                c.Status,
		ScheduledAt:           c.ScheduledAt,
		LastContactReceivedAt: c.LastContactReceivedAt,
		CreatedAt:             c.CreatedAt,
	}
}

// handleWebhook receives a contact batch from the CRM for the channel bound
// in the path and merges it into the channel's collecting campaign. The
// response carries the campaign the batch landed in.
func (h *Handler) handleWebhook(w http.ResponseWriter, r *http.Request) {
	channelID, ok := pathID(w, r, "channelID")
	if !ok {
		return
	}
	var req port.IngestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	campaign, err := h.campaigns.Ingest(r.Context(), channelID, req)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, toCampaignResponse(*campaign, ""))
}

// handleListCampaigns returns all campaigns, newest first, with their
// channel names.
func (h *Handler) handleListCampaigns(w http.ResponseWriter, r *http.Request) {
	summaries, err := h.campaigns.ListCampaigns(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	out := make([]campaignResponse, 0, len(summaries))
	for _, s := range summaries {
		out = append(out, toCampaignResponse(s.Campaign, s.ChannelName))
	}
	h.writeJSON(w, http.StatusOK, out)
}

// handleCampaignDetail returns one campaign with its contact rows.
func (h *Handler) handleCampaignDetail(w http.ResponseWriter, r *http.Request) {
	campaignID, ok := pathID(w, r, "campaignID")
	if !ok {
		return
	}
	detail, err := h.campaigns.GetCampaignDetail(r.Context(), campaignID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	resp := toCampaignResponse(detail.Campaign, detail.ChannelName)
	resp.Contacts = make([]contactResponse, 0, len(detail.Contacts))
	for _, ct := range detail.Contacts {
		resp.Contacts = append(resp.Contacts, contactResponse{
			ID:          ct.ID,
			PhoneNumber: ct.PhoneNumber,
			Status:      ct.Status,
			SentAt:      ct.SentAt,
			CreatedAt:   ct.CreatedAt,
		})
	}
	h.writeJSON(w, http.StatusOK, resp)
}

// handleCampaignAction applies a lifecycle action (schedule or start) to a
// collecting campaign.
func (h *Handler) handleCampaignAction(w http.ResponseWriter, r *http.Request) {
	campaignID, ok := pathID(w, r, "campaignID")
	if !ok {
		return
	}
	var req port.ActionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	campaign, err := h.campaigns.Apply(r.Context(), campaignID, req)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, toCampaignResponse(*campaign, ""))
}

// pathID parses a positive int64 path parameter, answering 400 itself when
// the value is malformed.
func pathID(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		http.Error(w, "invalid "+name, http.StatusBadRequest)
		return 0, false
	}
	return id, true
}
