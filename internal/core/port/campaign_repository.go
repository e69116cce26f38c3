package port

import (
	"context"
	"errors"
	"time"

	"zap-dispatch/internal/core/domain"
)

var (
	// ErrChannelNotFound is returned when a referenced channel does not exist.
	ErrChannelNotFound = errors.New("channel not found")
	// ErrCampaignNotFound is returned when a referenced campaign does not exist.
	ErrCampaignNotFound = errors.New("campaign not found")
	// ErrStateConflict is returned when a lifecycle transition is attempted
	// from a status that does not allow it, typically because another actor
	// already moved the campaign. Callers should re-fetch.
	ErrStateConflict = errors.New("campaign state conflict")
)

// CampaignRepository defines the persistence layer for the dispatch engine.
// It is an outbound port in hexagonal architecture. Implementations must be
// concurrency-safe and enforce the one-collecting-campaign-per-channel
// invariant and the write-once terminal contact statuses atomically.
type CampaignRepository interface {
	// GetChannel returns a channel by id, or nil when absent.
	GetChannel(ctx context.Context, id int64) (*domain.Channel, error)
	// CreateChannel stores a new channel and fills its ID and CreatedAt.
	CreateChannel(ctx context.Context, ch *domain.Channel) error
	// ListChannels returns all channels, newest first.
	ListChannels(ctx context.Context) ([]domain.Channel, error)
	// UpdateChannelURLs patches a channel's webhook URLs. Nil fields are
	// left untouched. Returns nil when the channel is absent.
	UpdateChannelURLs(ctx context.Context, id int64, upd ChannelUpdate) (*domain.Channel, error)
	// DeleteChannel removes a channel. It reports whether a row existed.
	DeleteChannel(ctx context.Context, id int64) (bool, error)

	// IngestBatch appends a batch of contacts to the channel's collecting
	// campaign, creating the campaign when none is open, and bumps
	// last_contact_received_at. Find-or-create and the contact inserts run
	// in a single transaction so concurrent calls cannot create two
	// collecting campaigns for one channel.
	IngestBatch(ctx context.Context, channelID int64, message string, phones []string) (*domain.Campaign, error)

	// GetCampaign returns a campaign by id, or nil when absent.
	GetCampaign(ctx context.Context, id int64) (*domain.Campaign, error)
	// ListCampaigns returns all campaigns joined with their channel name,
	// newest first.
	ListCampaigns(ctx context.Context) ([]CampaignSummary, error)
	// ListContacts returns all contacts of a campaign ordered by id.
	ListContacts(ctx context.Context, campaignID int64) ([]domain.Contact, error)

	// TransitionFromCollecting moves a campaign out of collecting with an
	// optimistic status check. It returns ErrCampaignNotFound when the id
	// is unknown and ErrStateConflict when the campaign is no longer
	// collecting.
	TransitionFromCollecting(ctx context.Context, id int64, next domain.CampaignStatus, scheduledAt *time.Time) (*domain.Campaign, error)

	// ClaimDueScheduled atomically promotes the scheduled campaign with
	// the smallest scheduled_at not after now (ties by smallest id) to
	// running and returns it, or nil when none is due.
	ClaimDueScheduled(ctx context.Context, now time.Time) (*domain.Campaign, error)
	// NextRunning returns the running campaign with the smallest
	// created_at (ties by smallest id), or nil when none is running.
	NextRunning(ctx context.Context) (*domain.Campaign, error)
	// NextPendingContact returns the pending contact with the smallest id
	// in the campaign, or nil when none remain.
	NextPendingContact(ctx context.Context, campaignID int64) (*domain.Contact, error)
	// MarkContactSent records a successful delivery. It only applies to a
	// contact still pending; sent and failed are terminal.
	MarkContactSent(ctx context.Context, id int64, sentAt time.Time) error
	// MarkContactFailed records a failed delivery, same pending guard.
	MarkContactFailed(ctx context.Context, id int64) error
	// CompleteCampaign moves a running campaign to completed.
	CompleteCampaign(ctx context.Context, id int64) error

	// InsertWebhookLog appends an audit log entry.
	InsertWebhookLog(ctx context.Context, log *domain.WebhookLog) error
}

// ChannelUpdate carries a partial update of a channel's webhook URLs.
type ChannelUpdate struct {
	CRMWebhookURL       *string
	EvolutionWebhookURL *string
}

// CampaignSummary is a campaign joined with its channel name for listing.
type CampaignSummary struct {
	domain.Campaign
	ChannelName string
}
