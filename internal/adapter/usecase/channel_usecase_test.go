package usecase

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"zap-dispatch/internal/core/domain"
	"zap-dispatch/internal/core/port"
)

type fakeChannelRepo struct {
	port.CampaignRepository

	mu       sync.Mutex
	channels map[int64]*domain.Channel
	nextID   int64
}

func newFakeChannelRepo() *fakeChannelRepo {
	return &fakeChannelRepo{channels: make(map[int64]*domain.Channel)}
}

func (r *fakeChannelRepo) CreateChannel(_ context.Context, ch *domain.Channel) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	ch.ID = r.nextID
	stored := *ch
	r.channels[ch.ID] = &stored
	return nil
}

func (r *fakeChannelRepo) ListChannels(_ context.Context) ([]domain.Channel, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.Channel, 0, len(r.channels))
	for _, ch := range r.channels {
		out = append(out, *ch)
	}
	return out, nil
}

func (r *fakeChannelRepo) UpdateChannelURLs(_ context.Context, id int64, upd port.ChannelUpdate) (*domain.Channel, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ch, ok := r.channels[id]
	if !ok {
		return nil, nil
	}
	if upd.CRMWebhookURL != nil {
		ch.CRMWebhookURL = *upd.CRMWebhookURL
	}
	if upd.EvolutionWebhookURL != nil {
		ch.EvolutionWebhookURL = *upd.EvolutionWebhookURL
	}
	out := *ch
	return &out, nil
}

func (r *fakeChannelRepo) DeleteChannel(_ context.Context, id int64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.channels[id]
	delete(r.channels, id)
	return ok, nil
}

func TestCreateChannelValidation(t *testing.T) {
	u := NewChannelUseCase(newFakeChannelRepo())
	ctx := context.Background()

	cases := []port.ChannelRequest{
		{Name: "", CRMWebhookURL: "https://a.example.com", EvolutionWebhookURL: "https://b.example.com"},
		{Name: "c", CRMWebhookURL: "not a url", EvolutionWebhookURL: "https://b.example.com"},
		{Name: "c", CRMWebhookURL: "https://a.example.com", EvolutionWebhookURL: "ftp://b.example.com"},
	}
	for _, req := range cases {
		_, err := u.CreateChannel(ctx, req)
		var vErr *ValidationError
		assert.ErrorAsf(t, err, &vErr, "request %+v", req)
	}
}

func TestChannelCRUD(t *testing.T) {
	repo := newFakeChannelRepo()
	u := NewChannelUseCase(repo)
	ctx := context.Background()

	ch, err := u.CreateChannel(ctx, port.ChannelRequest{
		Name:                "main",
		CRMWebhookURL:       "https://crm.example.com/hook",
		EvolutionWebhookURL: "https://evolution.example.com/send",
		UserID:              7,
	})
	require.NoError(t, err)
	assert.NotZero(t, ch.ID)

	list, err := u.ListChannels(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	newURL := "https://evolution.example.com/send/v2"
	updated, err := u.UpdateChannel(ctx, ch.ID, port.ChannelUpdate{EvolutionWebhookURL: &newURL})
	require.NoError(t, err)
	assert.Equal(t, newURL, updated.EvolutionWebhookURL)
	assert.Equal(t, "https://crm.example.com/hook", updated.CRMWebhookURL)

	_, err = u.UpdateChannel(ctx, ch.ID, port.ChannelUpdate{})
	var vErr *ValidationError
	assert.ErrorAs(t, err, &vErr)

	_, err = u.UpdateChannel(ctx, 999, port.ChannelUpdate{EvolutionWebhookURL: &newURL})
	assert.ErrorIs(t, err, port.ErrChannelNotFound)

	require.NoError(t, u.DeleteChannel(ctx, ch.ID))
	assert.ErrorIs(t, u.DeleteChannel(ctx, ch.ID), port.ErrChannelNotFound)
}
