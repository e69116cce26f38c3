package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"zap-dispatch/internal/core/domain"
	"zap-dispatch/internal/core/port"
)

const campaignColumns = `id, channel_id, message, status, scheduled_at, last_contact_received_at, created_at`

// CampaignRepository implements port.CampaignRepository using pgxpool for
// PostgreSQL. The one-collecting-campaign-per-channel invariant is backed by
// a partial unique index on campaigns(channel_id) WHERE status='collecting';
// contact terminality and lifecycle transitions are enforced with status
// guards in the UPDATE statements.
type CampaignRepository struct {
	pool *pgxpool.Pool
}

// NewCampaignRepository returns a new repository instance.
func NewCampaignRepository(pool *pgxpool.Pool) *CampaignRepository {
	return &CampaignRepository{pool: pool}
}

// GetChannel returns a channel by id, or nil when absent.
func (r *CampaignRepository) GetChannel(ctx context.Context, id int64) (*domain.Channel, error) {
	var ch domain.Channel
	err := r.pool.QueryRow(ctx, `SELECT id, name, crm_webhook_url, evolution_webhook_url, user_id, created_at FROM channels WHERE id = $1`, id).
		Scan(&ch.ID, &ch.Name, &ch.CRMWebhookURL, &ch.EvolutionWebhookURL, &ch.UserID, &ch.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &ch, nil
}

// CreateChannel stores a new channel and fills its ID and CreatedAt.
func (r *CampaignRepository) CreateChannel(ctx context.Context, ch *domain.Channel) error {
	return r.pool.QueryRow(ctx, `INSERT INTO channels (name, crm_webhook_url, evolution_webhook_url, user_id)
VALUES ($1, $2, $3, $4) RETURNING id, created_at`,
		ch.Name, ch.CRMWebhookURL, ch.EvolutionWebhookURL, ch.UserID).
		Scan(&ch.ID, &ch.CreatedAt)
}

// ListChannels returns all channels, newest first.
func (r *CampaignRepository) ListChannels(ctx context.Context) ([]domain.Channel, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, name, crm_webhook_url, evolution_webhook_url, user_id, created_at FROM channels ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.Channel, error) {
		var ch domain.Channel
		err := row.Scan(&ch.ID, &ch.Name, &ch.CRMWebhookURL, &ch.EvolutionWebhookURL, &ch.UserID, &ch.CreatedAt)
		return ch, err
	})
}

// UpdateChannelURLs patches a channel's webhook URLs. Nil fields are left
// untouched. Returns nil when the channel is absent.
func (r *CampaignRepository) UpdateChannelURLs(ctx context.Context, id int64, upd port.ChannelUpdate) (*domain.Channel, error) {
	var ch domain.Channel
	err := r.pool.QueryRow(ctx, `UPDATE channels SET
    crm_webhook_url = COALESCE($2, crm_webhook_url),
    evolution_webhook_url = COALESCE($3, evolution_webhook_url)
WHERE id = $1
RETURNING id, name, crm_webhook_url, evolution_webhook_url, user_id, created_at`,
		id, upd.CRMWebhookURL, upd.EvolutionWebhookURL).
		Scan(&ch.ID, &ch.Name, &ch.CRMWebhookURL, &ch.EvolutionWebhookURL, &ch.UserID, &ch.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &ch, nil
}

// DeleteChannel removes a channel. It reports whether a row existed.
func (r *CampaignRepository) DeleteChannel(ctx context.Context, id int64) (bool, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM channels WHERE id = $1`, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// IngestBatch appends a contact batch to the channel's collecting campaign,
// creating one when absent, inside a single transaction. The insert races
// through the partial unique index: a concurrent creator wins and the loser
// falls back to selecting the existing collector.
func (r *CampaignRepository) IngestBatch(ctx context.Context, channelID int64, message string, phones []string) (*domain.Campaign, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		} else {
			_ = tx.Commit(ctx)
		}
	}()

	var c domain.Campaign
	err = tx.QueryRow(ctx, `INSERT INTO campaigns (channel_id, message, status)
VALUES ($1, $2, 'collecting')
ON CONFLICT (channel_id) WHERE status = 'collecting' DO NOTHING
RETURNING `+campaignColumns,
		channelID, message).
		Scan(&c.ID, &c.ChannelID, &c.Message, &c.Status, &c.ScheduledAt, &c.LastContactReceivedAt, &c.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		// lost the create race or a collector already exists
		err = tx.QueryRow(ctx, `SELECT `+campaignColumns+` FROM campaigns WHERE channel_id = $1 AND status = 'collecting'`, channelID).
			Scan(&c.ID, &c.ChannelID, &c.Message, &c.Status, &c.ScheduledAt, &c.LastContactReceivedAt, &c.CreatedAt)
	}
	if err != nil {
		return nil, fmt.Errorf("find or create collecting campaign: %w", err)
	}

	for _, phone := range phones {
		if _, err = tx.Exec(ctx, `INSERT INTO contacts (campaign_id, phone_number) VALUES ($1, $2)`, c.ID, phone); err != nil {
			return nil, fmt.Errorf("insert contact: %w", err)
		}
	}

	err = tx.QueryRow(ctx, `UPDATE campaigns SET last_contact_received_at = now() WHERE id = $1 RETURNING last_contact_received_at`, c.ID).
		Scan(&c.LastContactReceivedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// GetCampaign returns a campaign by id, or nil when absent.
func (r *CampaignRepository) GetCampaign(ctx context.Context, id int64) (*domain.Campaign, error) {
	return r.scanOne(ctx, `SELECT `+campaignColumns+` FROM campaigns WHERE id = $1`, id)
}

// ListCampaigns returns all campaigns joined with their channel name.
func (r *CampaignRepository) ListCampaigns(ctx context.Context) ([]port.CampaignSummary, error) {
	rows, err := r.pool.Query(ctx, `SELECT c.id, c.channel_id, c.message, c.status, c.scheduled_at, c.last_contact_received_at, c.created_at, ch.name
FROM campaigns c
JOIN channels ch ON c.channel_id = ch.id
ORDER BY c.created_at DESC, c.id DESC`)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (port.CampaignSummary, error) {
		var s port.CampaignSummary
		err := row.Scan(&s.ID, &s.ChannelID, &s.Message, &s.Status, &s.ScheduledAt, &s.LastContactReceivedAt, &s.CreatedAt, &s.ChannelName)
		return s, err
	})
}

// ListContacts returns all contacts of a campaign ordered by id.
func (r *CampaignRepository) ListContacts(ctx context.Context, campaignID int64) ([]domain.Contact, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, campaign_id, phone_number, status, sent_at, created_at FROM contacts WHERE campaign_id = $1 ORDER BY id`, campaignID)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.Contact, error) {
		var ct domain.Contact
		err := row.Scan(&ct.ID, &ct.CampaignID, &ct.PhoneNumber, &ct.Status, &ct.SentAt, &ct.CreatedAt)
		return ct, err
	})
}

// TransitionFromCollecting moves a campaign out of collecting with an
// optimistic status check in the UPDATE itself.
func (r *CampaignRepository) TransitionFromCollecting(ctx context.Context, id int64, next domain.CampaignStatus, scheduledAt *time.Time) (*domain.Campaign, error) {
	c, err := r.scanOne(ctx, `UPDATE campaigns SET status = $2, scheduled_at = COALESCE($3, scheduled_at)
WHERE id = $1 AND status = 'collecting'
RETURNING `+campaignColumns,
		id, next, scheduledAt)
	if err != nil {
		return nil, err
	}
	if c != nil {
		return c, nil
	}
	// no row updated: distinguish missing from already moved
	var exists bool
	if err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM campaigns WHERE id = $1)`, id).Scan(&exists); err != nil {
		return nil, err
	}
	if !exists {
		return nil, port.ErrCampaignNotFound
	}
	return nil, port.ErrStateConflict
}

// ClaimDueScheduled promotes the earliest due scheduled campaign to running.
// SKIP LOCKED keeps a second dispatcher instance from claiming the same row.
func (r *CampaignRepository) ClaimDueScheduled(ctx context.Context, now time.Time) (*domain.Campaign, error) {
	return r.scanOne(ctx, `UPDATE campaigns SET status = 'running'
WHERE id = (
    SELECT id FROM campaigns
    WHERE status = 'scheduled' AND scheduled_at <= $1
    ORDER BY scheduled_at, id
    LIMIT 1
    FOR UPDATE SKIP LOCKED
)
RETURNING `+campaignColumns, now)
}

// NextRunning returns the oldest running campaign.
func (r *CampaignRepository) NextRunning(ctx context.Context) (*domain.Campaign, error) {
	return r.scanOne(ctx, `SELECT `+campaignColumns+` FROM campaigns WHERE status = 'running' ORDER BY created_at, id LIMIT 1`)
}

// NextPendingContact returns the pending contact with the smallest id in the
// campaign, or nil when none remain.
func (r *CampaignRepository) NextPendingContact(ctx context.Context, campaignID int64) (*domain.Contact, error) {
	var ct domain.Contact
	err := r.pool.QueryRow(ctx, `SELECT id, campaign_id, phone_number, status, sent_at, created_at
FROM contacts WHERE campaign_id = $1 AND status = 'pending' ORDER BY id LIMIT 1`, campaignID).
		Scan(&ct.ID, &ct.CampaignID, &ct.PhoneNumber, &ct.Status, &ct.SentAt, &ct.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &ct, nil
}

// MarkContactSent records a successful delivery. The pending guard makes the
// terminal statuses write-once.
func (r *CampaignRepository) MarkContactSent(ctx context.Context, id int64, sentAt time.Time) error {
	_, err := r.pool.Exec(ctx, `UPDATE contacts SET status = 'sent', sent_at = $2 WHERE id = $1 AND status = 'pending'`, id, sentAt)
	return err
}

// MarkContactFailed records a failed delivery.
func (r *CampaignRepository) MarkContactFailed(ctx context.Context, id int64) error {
	_, err := r.pool.Exec(ctx, `UPDATE contacts SET status = 'failed' WHERE id = $1 AND status = 'pending'`, id)
	return err
}

// CompleteCampaign moves a running campaign to completed.
func (r *CampaignRepository) CompleteCampaign(ctx context.Context, id int64) error {
	_, err := r.pool.Exec(ctx, `UPDATE campaigns SET status = 'completed' WHERE id = $1 AND status = 'running'`, id)
	return err
}

// InsertWebhookLog appends an audit log entry.
func (r *CampaignRepository) InsertWebhookLog(ctx context.Context, log *domain.WebhookLog) error {
	_, err := r.pool.Exec(ctx, `INSERT INTO webhook_logs (channel_id, webhook_type, request_body, status_code) VALUES ($1, $2, $3, $4)`,
		log.ChannelID, log.WebhookType, log.RequestBody, log.StatusCode)
	return err
}

// scanOne runs a query expected to yield at most one campaign row and maps
// pgx.ErrNoRows to nil.
func (r *CampaignRepository) scanOne(ctx context.Context, query string, args ...any) (*domain.Campaign, error) {
	var c domain.Campaign
	err := r.pool.QueryRow(ctx, query, args...).
		Scan(&c.ID, &c.ChannelID, &c.Message, &c.Status, &c.ScheduledAt, &c.LastContactReceivedAt, &c.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}
