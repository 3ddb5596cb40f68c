package aggregation

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"dynamic-pricing/internal/domain"
)

func TestAggregateCompetitors(t *testing.T) {
	nan := math.NaN()
	snaps := []domain.CompetitorSnapshot{
		{ProductID: "P1", FinalPrice: 20, StockAvailability: 10},
		{ProductID: "P1", FinalPrice: 30, StockAvailability: nan},
		{ProductID: "P2", FinalPrice: nan, StockAvailability: 5},
	}

	prices, stock := AggregateCompetitors(snaps)

	assert.Equal(t, map[string]float64{"P1": 25}, prices)
	assert.Equal(t, map[string]float64{"P1": 10, "P2": 5}, stock)
}

func TestAggregateCompetitors_Empty(t *testing.T) {
	prices, stock := AggregateCompetitors(nil)
	assert.Empty(t, prices)
	assert.Empty(t, stock)
}

func TestCompetitorPriceOrBase(t *testing.T) {
	prices := map[string]float64{"P1": 25}
	assert.Equal(t, 25.0, CompetitorPriceOrBase(prices, "P1", 18))
	assert.Equal(t, 18.0, CompetitorPriceOrBase(prices, "P2", 18))
}

func TestResolveCampaignDiscount(t *testing.T) {
	now := time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)
	day := func(d int) time.Time { return time.Date(2024, 3, d, 0, 0, 0, 0, time.UTC) }

	tests := []struct {
		name      string
		campaigns []*domain.Campaign
		want      float64
	}{
		{
			name: "no campaigns",
			want: 0,
		},
		{
			name: "none active",
			campaigns: []*domain.Campaign{
				{CampaignID: "A", StartDate: day(1), EndDate: day(10), ConversionRate: 0.5},
			},
			want: 0,
		},
		{
			name: "mean of active",
			campaigns: []*domain.Campaign{
				{CampaignID: "A", StartDate: day(1), EndDate: day(31), ConversionRate: 0.1},
				{CampaignID: "B", StartDate: day(10), EndDate: day(20), ConversionRate: 0.2},
				{CampaignID: "C", StartDate: day(1), EndDate: day(2), ConversionRate: 0.9},
			},
			want: 0.15,
		},
		{
			name: "bounds inclusive",
			campaigns: []*domain.Campaign{
				{CampaignID: "A", StartDate: now, EndDate: now, ConversionRate: 0.3},
			},
			want: 0.3,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, ResolveCampaignDiscount(tt.campaigns, now), 1e-12)
		})
	}
}
