package port

import (
	"context"
	"time"

	"zap-dispatch/internal/core/domain"
)

// Lifecycle actions accepted by CampaignUseCase.Apply.
const (
	ActionSchedule = "schedule"
	ActionStart    = "start"
)

// CampaignUseCase defines the business operations exposed by the dispatch
// engine. This interface represents the primary port into the application
// domain; the HTTP adapter depends on it rather than on concrete services.
type CampaignUseCase interface {
	// Ingest merges an inbound contact batch into the channel's open
	// collecting campaign, creating one when absent. Each phone number is
	// appended as a new pending contact; duplicates are not collapsed.
	// Returns ErrChannelNotFound when the channel does not exist and a
	// validation error for an empty batch.
	Ingest(ctx context.Context, channelID int64, req IngestRequest) (*domain.Campaign, error)

	// Apply performs a forward-only lifecycle transition on a collecting
	// campaign: "schedule" (requires ScheduledAt) or "start". Returns a
	// validation error before touching storage for a malformed action,
	// ErrCampaignNotFound for an unknown id and ErrStateConflict when the
	// campaign already left collecting.
	Apply(ctx context.Context, campaignID int64, req ActionRequest) (*domain.Campaign, error)

	// ListCampaigns returns all campaigns with their channel names.
	ListCampaigns(ctx context.Context) ([]CampaignSummary, error)
	// GetCampaignDetail returns a campaign with its contacts, or
	// ErrCampaignNotFound.
	GetCampaignDetail(ctx context.Context, id int64) (*CampaignDetail, error)
}

// IngestRequest is the inbound webhook payload: a CRM user pushing a batch
// of phone numbers with the campaign message text.
type IngestRequest struct {
	UserID   int64    `json:"userId"`
	Contacts []string `json:"contacts"`
	Message  string   `json:"message"`
}

// ActionRequest carries a lifecycle action for a campaign.
type ActionRequest struct {
	Action      string     `json:"action"`
	ScheduledAt *time.Time `json:"scheduled_at,omitempty"`
}

// CampaignDetail is a campaign with its channel name and contact rows.
type CampaignDetail struct {
	domain.Campaign
	ChannelName string
	Contacts    []domain.Contact
}
