package domain

import "time"

// Channel is an outbound messaging channel. CRMWebhookURL is where the CRM
// posts contact batches to us; EvolutionWebhookURL is the delivery endpoint
// messages are pushed to.
type Channel struct {
	ID                  int64
	Name                string
	CRMWebhookURL       string
	EvolutionWebhookURL string
	UserID              int64
	CreatedAt           time.Time
}
