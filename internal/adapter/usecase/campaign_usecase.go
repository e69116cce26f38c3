package usecase

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"zap-dispatch/internal/core/domain"
	"zap-dispatch/internal/core/port"
)

// CampaignUseCase provides the ingestion, lifecycle and query operations of
// the dispatch engine. It orchestrates the repository to implement the
// port.CampaignUseCase interface.
type CampaignUseCase struct {
	repo   port.CampaignRepository
	logger *slog.Logger

	// now is the clock used for lifecycle validation; overridable in tests.
	now func() time.Time
}

// NewCampaignUseCase creates a new usecase with the provided repository.
func NewCampaignUseCase(repo port.CampaignRepository, logger *slog.Logger) *CampaignUseCase {
	return &CampaignUseCase{repo: repo, logger: logger, now: time.Now}
}

// Ingest merges an inbound contact batch into the channel's open collecting
// campaign, creating one when absent. Duplicate phone numbers within or
// across calls are appended as-is; ingestion is at-least-once and dedup is
// deliberately not attempted here. The inbound webhook is recorded in the
// audit log with status 200 once the batch is stored.
func (u *CampaignUseCase) Ingest(ctx context.Context, channelID int64, req port.IngestRequest) (*domain.Campaign, error) {
	if len(req.Contacts) == 0 {
		return nil, &ValidationError{Message: "contacts must not be empty"}
	}

	ch, err := u.repo.GetChannel(ctx, channelID)
	if err != nil {
		return nil, err
	}
	if ch == nil {
		return nil, port.ErrChannelNotFound
	}

	campaign, err := u.repo.IngestBatch(ctx, channelID, req.Message, req.Contacts)
	if err != nil {
		return nil, err
	}

	// Audit trail is a write-only side effect; a failure here must not
	// undo an already accepted batch.
	body, _ := json.Marshal(req)
	logEntry := &domain.WebhookLog{
		ChannelID:   channelID,
		WebhookType: domain.WebhookCRM,
		RequestBody: body,
		StatusCode:  http.StatusOK,
	}
	if err := u.repo.InsertWebhookLog(ctx, logEntry); err != nil {
		u.logger.Error("insert inbound webhook log",
			slog.Int64("channel_id", channelID), slog.Any("error", err))
	}

	return campaign, nil
}

// Apply performs a forward-only lifecycle transition on a collecting
// campaign. The action is validated before storage is touched; the status
// precondition is re-checked inside the repository update so a concurrent
// actor moving the campaign first surfaces as ErrStateConflict.
func (u *CampaignUseCase) Apply(ctx context.Context, campaignID int64, req port.ActionRequest) (*domain.Campaign, error) {
	switch req.Action {
	case port.ActionSchedule:
		if req.ScheduledAt == nil {
			return nil, &ValidationError{Message: "schedule requires scheduled_at"}
		}
		if req.ScheduledAt.Before(u.now()) {
			return nil, &ValidationError{Message: "scheduled_at must not be in the past"}
		}
		return u.repo.TransitionFromCollecting(ctx, campaignID, domain.CampaignScheduled, req.ScheduledAt)
	case port.ActionStart:
		return u.repo.TransitionFromCollecting(ctx, campaignID, domain.CampaignRunning, nil)
	default:
		return nil, &ValidationError{Message: "action must be schedule or start"}
	}
}

// ListCampaigns returns all campaigns with their channel names.
func (u *CampaignUseCase) ListCampaigns(ctx context.Context) ([]port.CampaignSummary, error) {
	return u.repo.ListCampaigns(ctx)
}

// GetCampaignDetail returns a campaign with its channel name and contacts.
func (u *CampaignUseCase) GetCampaignDetail(ctx context.Context, id int64) (*port.CampaignDetail, error) {
	campaign, err := u.repo.GetCampaign(ctx, id)
	if err != nil {
		return nil, err
	}
	if campaign == nil {
		return nil, port.ErrCampaignNotFound
	}
	ch, err := u.repo.GetChannel(ctx, campaign.ChannelID)
	if err != nil {
		return nil, err
	}
	contacts, err := u.repo.ListContacts(ctx, id)
	if err != nil {
		return nil, err
	}
	detail := &port.CampaignDetail{Campaign: *campaign, Contacts: contacts}
	if ch != nil {
		detail.ChannelName = ch.Name
	}
	return detail, nil
}
