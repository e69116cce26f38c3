package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCampaignTransitions(t *testing.T) {
	cases := []struct {
		from CampaignStatus
		to   CampaignStatus
		ok   bool
	}{
		{CampaignCollecting, CampaignScheduled, true},
		{CampaignCollecting, CampaignRunning, true},
		{CampaignScheduled, CampaignRunning, true},
		{CampaignRunning, CampaignCompleted, true},

		// backwards or skipping moves are rejected
		{CampaignScheduled, CampaignCollecting, false},
		{CampaignRunning, CampaignScheduled, false},
		{CampaignRunning, CampaignCollecting, false},
		{CampaignCompleted, CampaignRunning, false},
		{CampaignCompleted, CampaignCollecting, false},
		{CampaignCollecting, CampaignCompleted, false},
		{CampaignScheduled, CampaignCompleted, false},
		{CampaignCollecting, CampaignCollecting, false},
		{CampaignCompleted, CampaignCompleted, false},
	}

	for _, tc := range cases {
		c := Campaign{Status: tc.from}
		assert.Equalf(t, tc.ok, c.CanTransition(tc.to), "%s -> %s", tc.from, tc.to)
	}
}
