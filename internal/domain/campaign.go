package domain

import "time"

// Campaign represents a marketing campaign.
// Corresponds to marketing_campaigns table in PostgreSQL.
type Campaign struct {
	CampaignID     string
	StartDate      time.Time
	EndDate        time.Time
	ConversionRate float64 // used as a proxy for discount impact
}

// IsActive reports whether start <= now <= end.
func (c Campaign) IsActive(now time.Time) bool {
	return !c.StartDate.After(now) && !c.EndDate.Before(now)
}
