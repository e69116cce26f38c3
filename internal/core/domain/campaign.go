package domain

import "time"

// CampaignStatus is the lifecycle state of a campaign. Transitions are
// forward-only; see CanTransition.
type CampaignStatus string

const (
	// CampaignCollecting is the initial state: the campaign is the
	// channel's open collector accumulating inbound contacts. At most one
	// campaign per channel may be in this state.
	CampaignCollecting CampaignStatus = "collecting"
	CampaignScheduled  CampaignStatus = "scheduled"
	CampaignRunning    CampaignStatus = "running"
	CampaignCompleted  CampaignStatus = "completed"
)

// Campaign groups contacts collected for a channel with the message text to
// dispatch to them.
type Campaign struct {
	ID                    int64
	ChannelID             int64
	Message               string
	Status                CampaignStatus
	ScheduledAt           *time.Time
	LastContactReceivedAt *time.Time
	CreatedAt             time.Time
}

// CanTransition reports whether moving from the campaign's current status to
// next is a valid forward step. Valid steps are collecting→scheduled,
// collecting→running, scheduled→running and running→completed.
func (c *Campaign) CanTransition(next CampaignStatus) bool {
	switch c.Status {
	case CampaignCollecting:
		return next == CampaignScheduled || next == CampaignRunning
	case CampaignScheduled:
		return next == CampaignRunning
	case CampaignRunning:
		return next == CampaignCompleted
	default:
		return false
	}
}
