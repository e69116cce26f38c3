package domain

import "time"

// ContactStatus is the delivery state of a single contact. Once sent or
// failed the status is terminal and never revisited.
type ContactStatus string

const (
	ContactPending ContactStatus = "pending"
	ContactSent    ContactStatus = "sent"
	ContactFailed  ContactStatus = "failed"
)

// Contact is one phone number queued inside a campaign. SentAt is only set
// on successful delivery.
type Contact struct {
	ID          int64
	CampaignID  int64
	PhoneNumber string
	Status      ContactStatus
	SentAt      *time.Time
	CreatedAt   time.Time
}
