package aggregation

import (
	"time"

	"dynamic-pricing/internal/domain"
)

// ResolveCampaignDiscount returns the mean ConversionRate of campaigns active
// at now (start <= now <= end), or 0 when none are active. The result applies
// to every product in the run.
func ResolveCampaignDiscount(campaigns []*domain.Campaign, now time.Time) float64 {
	var sum float64
	var n int
	for _, c := range campaigns {
		if c == nil || !c.IsActive(now) {
			continue
		}
		sum += c.ConversionRate
		n++
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}
