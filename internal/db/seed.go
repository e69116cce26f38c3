package db

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Seed inserts demo data: a couple of channels, each with a collecting
// campaign and some pending contacts, plus a few inbound webhook log rows.
func Seed(ctx context.Context, db *pgxpool.Pool) error {
	r := rand.New(rand.NewSource(time.Now().UnixNano()))

	for i := 1; i <= 2; i++ {
		name := fmt.Sprintf("Channel %d", i)
		crmURL := fmt.Sprintf("https://crm.example.com/webhooks/%d", i)
		deliveryURL := fmt.Sprintf("https://evolution.example.com/send/%d", i)
		_, err := db.Exec(ctx, `INSERT INTO channels (id, name, crm_webhook_url, evolution_webhook_url, user_id)
VALUES ($1, $2, $3, $4, $5) ON CONFLICT DO NOTHING`,
			i, name, crmURL, deliveryURL, 1)
		if err != nil {
			return err
		}

		var campaignID int64
		err = db.QueryRow(ctx, `INSERT INTO campaigns (channel_id, message, status, last_contact_received_at)
VALUES ($1, $2, 'collecting', now())
ON CONFLICT (channel_id) WHERE status = 'collecting' DO NOTHING
RETURNING id`, i, fmt.Sprintf("Hello from channel %d!", i)).Scan(&campaignID)
		if err != nil {
			// a collector already exists for this channel
			continue
		}

		for j := 0; j < 5+r.Intn(5); j++ {
			phone := fmt.Sprintf("+55119999%05d", r.Intn(100000))
			if _, err = db.Exec(ctx, `INSERT INTO contacts (campaign_id, phone_number) VALUES ($1, $2)`, campaignID, phone); err != nil {
				return err
			}
		}

		body, _ := json.Marshal(map[string]any{
			"userId":   1,
			"contacts": []string{"+5511999990000"},
			"message":  fmt.Sprintf("Hello from channel %d!", i),
			"batch":    uuid.NewString(),
		})
		if _, err = db.Exec(ctx, `INSERT INTO webhook_logs (channel_id, webhook_type, request_body, status_code)
VALUES ($1, 'crm', $2, 200)`, i, body); err != nil {
			return err
		}
	}
	return nil
}
