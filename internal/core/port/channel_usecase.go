package port

import (
	"context"

	"zap-dispatch/internal/core/domain"
)

// ChannelUseCase exposes channel administration. Channels are immutable from
// the engine's point of view except through these explicit admin operations.
type ChannelUseCase interface {
	// CreateChannel validates and stores a new channel.
	CreateChannel(ctx context.Context, req ChannelRequest) (*domain.Channel, error)
	// ListChannels returns all channels, newest first.
	ListChannels(ctx context.Context) ([]domain.Channel, error)
	// UpdateChannel patches a channel's webhook URLs. Returns
	// ErrChannelNotFound for an unknown id and a validation error when no
	// valid field is present.
	UpdateChannel(ctx context.Context, id int64, upd ChannelUpdate) (*domain.Channel, error)
	// DeleteChannel removes a channel, or returns ErrChannelNotFound.
	DeleteChannel(ctx context.Context, id int64) error
}

// ChannelRequest is the admin payload for creating a channel.
type ChannelRequest struct {
	Name                string `json:"name"`
	CRMWebhookURL       string `json:"crm_webhook_url"`
	EvolutionWebhookURL string `json:"evolution_webhook_url"`
	UserID              int64  `json:"user_id"`
}
