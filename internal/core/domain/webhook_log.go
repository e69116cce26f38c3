package domain

import "time"

// WebhookType distinguishes audit log entries: crm for inbound contact
// batches, evolution for outbound delivery attempts.
type WebhookType string

const (
	WebhookCRM       WebhookType = "crm"
	WebhookEvolution WebhookType = "evolution"
)

// WebhookLog is an append-only audit record of a webhook exchange. The core
// only ever writes these; nothing reads them back.
type WebhookLog struct {
	ID          int64
	ChannelID   int64
	WebhookType WebhookType
	RequestBody []byte
	StatusCode  int
	CreatedAt   time.Time
}
