package models

import "time"

// CampaignRef identifies one campaign attached to a published flow. The
// campaign system owns these records; this module only reads them to decide
// whether a flow is usage-locked.
type CampaignRef struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Status      string     `json:"status"`
	CreatedAt   time.Time  `json:"created_at"`
	CreatedBy   string     `json:"created_by"`
	ScheduledAt *time.Time `json:"scheduled_at,omitempty"`
	FirstSentAt *time.Time `json:"first_sent_at,omitempty"`
}

// CampaignUsage is the read-only usage-lock view for a published flow.
type CampaignUsage struct {
	Locked    bool          `json:"locked"`
	Campaigns []CampaignRef `json:"campaigns"`
}
