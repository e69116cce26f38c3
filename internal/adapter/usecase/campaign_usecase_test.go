package usecase

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"zap-dispatch/internal/core/domain"
	"zap-dispatch/internal/core/port"
)

// fakeRepo is an in-memory port.CampaignRepository for the slice the
// usecases touch. Find-or-create is serialized under one mutex, mirroring
// what the partial unique index gives the real store.
type fakeRepo struct {
	port.CampaignRepository

	mu         sync.Mutex
	channels   map[int64]domain.Channel
	campaigns  map[int64]*domain.Campaign
	contacts   []domain.Contact
	logs       []domain.WebhookLog
	nextCampID int64
	calls      int
}

func newFakeRepo(channels ...domain.Channel) *fakeRepo {
	r := &fakeRepo{
		channels:  make(map[int64]domain.Channel),
		campaigns: make(map[int64]*domain.Campaign),
	}
	for _, ch := range channels {
		r.channels[ch.ID] = ch
	}
	return r
}

func (r *fakeRepo) GetChannel(_ context.Context, id int64) (*domain.Channel, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	ch, ok := r.channels[id]
	if !ok {
		return nil, nil
	}
	return &ch, nil
}

func (r *fakeRepo) IngestBatch(_ context.Context, channelID int64, message string, phones []string) (*domain.Campaign, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	var campaign *domain.Campaign
	for _, c := range r.campaigns {
		if c.ChannelID == channelID && c.Status == domain.CampaignCollecting {
			campaign = c
			break
		}
	}
	if campaign == nil {
		r.nextCampID++
		campaign = &domain.Campaign{
			ID:        r.nextCampID,
			ChannelID: channelID,
			Message:   message,
			Status:    domain.CampaignCollecting,
			CreatedAt: time.Now(),
		}
		r.campaigns[campaign.ID] = campaign
	}
	for _, phone := range phones {
		r.contacts = append(r.contacts, domain.Contact{
			ID:          int64(len(r.contacts) + 1),
			CampaignID:  campaign.ID,
			PhoneNumber: phone,
			Status:      domain.ContactPending,
		})
	}
	now := time.Now()
	campaign.LastContactReceivedAt = &now
	out := *campaign
	return &out, nil
}

func (r *fakeRepo) InsertWebhookLog(_ context.Context, log *domain.WebhookLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	r.logs = append(r.logs, *log)
	return nil
}

func (r *fakeRepo) GetCampaign(_ context.Context, id int64) (*domain.Campaign, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	c, ok := r.campaigns[id]
	if !ok {
		return nil, nil
	}
	out := *c
	return &out, nil
}

func (r *fakeRepo) ListContacts(_ context.Context, campaignID int64) ([]domain.Contact, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	var out []domain.Contact
	for _, ct := range r.contacts {
		if ct.CampaignID == campaignID {
			out = append(out, ct)
		}
	}
	return out, nil
}

func (r *fakeRepo) TransitionFromCollecting(_ context.Context, id int64, next domain.CampaignStatus, scheduledAt *time.Time) (*domain.Campaign, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	c, ok := r.campaigns[id]
	if !ok {
		return nil, port.ErrCampaignNotFound
	}
	if c.Status != domain.CampaignCollecting {
		return nil, port.ErrStateConflict
	}
	c.Status = next
	if scheduledAt != nil {
		c.ScheduledAt = scheduledAt
	}
	out := *c
	return &out, nil
}

func (r *fakeRepo) collectingCount(channelID int64) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, c := range r.campaigns {
		if c.ChannelID == channelID && c.Status == domain.CampaignCollecting {
			n++
		}
	}
	return n
}

func newTestUseCase(repo *fakeRepo) *CampaignUseCase {
	return NewCampaignUseCase(repo, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestIngestUnknownChannel(t *testing.T) {
	repo := newFakeRepo()
	u := newTestUseCase(repo)

	_, err := u.Ingest(context.Background(), 42, port.IngestRequest{
		Contacts: []string{"+5511999990000"}, Message: "hi",
	})
	assert.ErrorIs(t, err, port.ErrChannelNotFound)
}

func TestIngestEmptyBatch(t *testing.T) {
	repo := newFakeRepo(domain.Channel{ID: 1})
	u := newTestUseCase(repo)

	_, err := u.Ingest(context.Background(), 1, port.IngestRequest{Message: "hi"})
	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Zero(t, repo.calls, "validation must run before storage is touched")
}

func TestIngestAppendsContactsAndLogs(t *testing.T) {
	repo := newFakeRepo(domain.Channel{ID: 1, Name: "main"})
	u := newTestUseCase(repo)
	ctx := context.Background()

	campaign, err := u.Ingest(ctx, 1, port.IngestRequest{
		UserID:   7,
		Contacts: []string{"+5511999990001", "+5511999990001", "+5511999990002"},
		Message:  "promo",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.CampaignCollecting, campaign.Status)
	assert.NotNil(t, campaign.LastContactReceivedAt)

	// a second batch lands in the same collector; duplicates are kept as-is
	again, err := u.Ingest(ctx, 1, port.IngestRequest{
		Contacts: []string{"+5511999990001"}, Message: "promo",
	})
	require.NoError(t, err)
	assert.Equal(t, campaign.ID, again.ID)

	assert.Len(t, repo.contacts, 4)
	for _, ct := range repo.contacts {
		assert.Equal(t, domain.ContactPending, ct.Status)
	}

	require.Len(t, repo.logs, 2)
	for _, l := range repo.logs {
		assert.Equal(t, domain.WebhookCRM, l.WebhookType)
		assert.Equal(t, 200, l.StatusCode)
		assert.Contains(t, string(l.RequestBody), "promo")
	}
}

func TestConcurrentIngestCreatesOneCollector(t *testing.T) {
	repo := newFakeRepo(domain.Channel{ID: 1})
	u := newTestUseCase(repo)

	const n = 16
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func() {
			defer wg.Done()
			_, err := u.Ingest(context.Background(), 1, port.IngestRequest{
				Contacts: []string{"+5511999990000"}, Message: "burst",
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, repo.collectingCount(1))
	assert.Len(t, repo.contacts, n)
}

func TestApplyRejectsMalformedActions(t *testing.T) {
	repo := newFakeRepo()
	u := newTestUseCase(repo)
	ctx := context.Background()
	past := time.Now().Add(-time.Hour)

	cases := []port.ActionRequest{
		{Action: "pause"},
		{Action: ""},
		{Action: port.ActionSchedule},
		{Action: port.ActionSchedule, ScheduledAt: &past},
	}
	for _, req := range cases {
		_, err := u.Apply(ctx, 1, req)
		var vErr *ValidationError
		assert.ErrorAsf(t, err, &vErr, "action %q", req.Action)
	}
	assert.Zero(t, repo.calls, "validation must run before storage is touched")
}

func TestApplySchedule(t *testing.T) {
	repo := newFakeRepo()
	repo.campaigns[1] = &domain.Campaign{ID: 1, Status: domain.CampaignCollecting}
	u := newTestUseCase(repo)

	at := time.Now().Add(time.Hour)
	campaign, err := u.Apply(context.Background(), 1, port.ActionRequest{
		Action: port.ActionSchedule, ScheduledAt: &at,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.CampaignScheduled, campaign.Status)
	require.NotNil(t, campaign.ScheduledAt)
	assert.True(t, campaign.ScheduledAt.Equal(at))
}

func TestApplyStart(t *testing.T) {
	repo := newFakeRepo()
	repo.campaigns[1] = &domain.Campaign{ID: 1, Status: domain.CampaignCollecting}
	u := newTestUseCase(repo)

	campaign, err := u.Apply(context.Background(), 1, port.ActionRequest{Action: port.ActionStart})
	require.NoError(t, err)
	assert.Equal(t, domain.CampaignRunning, campaign.Status)
	assert.Nil(t, campaign.ScheduledAt)
}

func TestApplyStateConflict(t *testing.T) {
	repo := newFakeRepo()
	repo.campaigns[1] = &domain.Campaign{ID: 1, Status: domain.CampaignScheduled}
	u := newTestUseCase(repo)

	_, err := u.Apply(context.Background(), 1, port.ActionRequest{Action: port.ActionStart})
	assert.ErrorIs(t, err, port.ErrStateConflict)
}

func TestApplyUnknownCampaign(t *testing.T) {
	repo := newFakeRepo()
	u := newTestUseCase(repo)

	_, err := u.Apply(context.Background(), 99, port.ActionRequest{Action: port.ActionStart})
	assert.ErrorIs(t, err, port.ErrCampaignNotFound)
}

func TestGetCampaignDetail(t *testing.T) {
	repo := newFakeRepo(domain.Channel{ID: 1, Name: "main"})
	repo.campaigns[5] = &domain.Campaign{ID: 5, ChannelID: 1, Status: domain.CampaignRunning}
	repo.contacts = append(repo.contacts, domain.Contact{ID: 1, CampaignID: 5, PhoneNumber: "+5511999990000", Status: domain.ContactSent})
	u := newTestUseCase(repo)

	detail, err := u.GetCampaignDetail(context.Background(), 5)
	require.NoError(t, err)
	assert.Equal(t, "main", detail.ChannelName)
	require.Len(t, detail.Contacts, 1)
	assert.Equal(t, "+5511999990000", detail.Contacts[0].PhoneNumber)

	_, err = u.GetCampaignDetail(context.Background(), 404)
	assert.ErrorIs(t, err, port.ErrCampaignNotFound)
}
