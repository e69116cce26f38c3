package usecase

import (
	"context"
	"net/url"

	"zap-dispatch/internal/core/domain"
	"zap-dispatch/internal/core/port"
)

// ChannelUseCase implements port.ChannelUseCase: plain admin CRUD on
// channels with URL validation.
type ChannelUseCase struct {
	repo port.CampaignRepository
}

// NewChannelUseCase creates a new channel admin usecase.
func NewChannelUseCase(repo port.CampaignRepository) *ChannelUseCase {
	return &ChannelUseCase{repo: repo}
}

// CreateChannel validates and stores a new channel.
func (u *ChannelUseCase) CreateChannel(ctx context.Context, req port.ChannelRequest) (*domain.Channel, error) {
	if req.Name == "" {
		return nil, &ValidationError{Message: "name is required"}
	}
	if !validURL(req.CRMWebhookURL) {
		return nil, &ValidationError{Message: "crm_webhook_url must be a valid URL"}
	}
	if !validURL(req.EvolutionWebhookURL) {
		return nil, &ValidationError{Message: "evolution_webhook_url must be a valid URL"}
	}
	ch := &domain.Channel{
		Name:                req.Name,
		CRMWebhookURL:       req.CRMWebhookURL,
		EvolutionWebhookURL: req.EvolutionWebhookURL,
		UserID:              req.UserID,
	}
	if err := u.repo.CreateChannel(ctx, ch); err != nil {
		return nil, err
	}
	return ch, nil
}

// ListChannels returns all channels, newest first.
func (u *ChannelUseCase) ListChannels(ctx context.Context) ([]domain.Channel, error) {
	return u.repo.ListChannels(ctx)
}

// UpdateChannel patches a channel's webhook URLs.
func (u *ChannelUseCase) UpdateChannel(ctx context.Context, id int64, upd port.ChannelUpdate) (*domain.Channel, error) {
	if upd.CRMWebhookURL == nil && upd.EvolutionWebhookURL == nil {
		return nil, &ValidationError{Message: "no valid fields to update"}
	}
	if upd.CRMWebhookURL != nil && !validURL(*upd.CRMWebhookURL) {
		return nil, &ValidationError{Message: "crm_webhook_url must be a valid URL"}
	}
	if upd.EvolutionWebhookURL != nil && !validURL(*upd.EvolutionWebhookURL) {
		return nil, &ValidationError{Message: "evolution_webhook_url must be a valid URL"}
	}
	ch, err := u.repo.UpdateChannelURLs(ctx, id, upd)
	if err != nil {
		return nil, err
	}
	if ch == nil {
		return nil, port.ErrChannelNotFound
	}
	return ch, nil
}

// DeleteChannel removes a channel.
func (u *ChannelUseCase) DeleteChannel(ctx context.Context, id int64) error {
	ok, err := u.repo.DeleteChannel(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return port.ErrChannelNotFound
	}
	return nil
}

func validURL(raw string) bool {
	parsed, err := url.Parse(raw)
	return err == nil && (parsed.Scheme == "http" || parsed.Scheme == "https") && parsed.Host != ""
}
