package dataset

import (
	"context"
	"time"

	"dynamic-pricing/internal/domain"
	"dynamic-pricing/internal/storage"
)

// FixtureNow is the reference clock for the fixture data set.
var FixtureNow = time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)

// Fixtures returns a small merged data set covering the interesting cases:
// a product with a multi-week history, a single-row product, a product whose
// rows share one date, and customers for each personalization rule.
func Fixtures() []*domain.Transaction {
	day := func(d int) time.Time {
		return time.Date(2024, 2, 1, 10, 0, 0, 0, time.UTC).AddDate(0, 0, d)
	}
	price := func(v float64) *float64 { return &v }

	var rows []*domain.Transaction

	// P100: 28 daily rows alternating between three customers and two prices.
	customers := []struct {
		id          string
		sensitivity string
		loyalty     float64
	}{
		{"C1", domain.SensitivityHigh, 40},
		{"C2", domain.SensitivityLow, 85},
		{"C3", domain.SensitivityMedium, 50},
	}
	for i := 0; i < 28; i++ {
		c := customers[i%len(customers)]
		base := 20.0
		qty := 5.0 + float64(i%7)
		if i%2 == 1 {
			base = 22.0
			qty -= 1
		}
		rows = append(rows, &domain.Transaction{
			ProductID:                   "P100",
			CustomerID:                  c.id,
			DateTime:                    day(i),
			QuantityPurchased:           qty,
			BasePrice:                   base,
			CostPrice:                   10,
			StorageCost:                 1,
			ShippingCost:                1,
			StockLevel:                  100,
			CompetitorFinalPrice:        price(25),
			CompetitorStockAvailability: price(40),
			DiscountSensitivity:         c.sensitivity,
			LoyaltyScore:                c.loyalty,
		})
	}

	// P200: one row; forecast and elasticity fall back.
	rows = append(rows, &domain.Transaction{
		ProductID:           "P200",
		CustomerID:          "C2",
		DateTime:            day(3),
		QuantityPurchased:   2,
		BasePrice:           50,
		CostPrice:           30,
		StorageCost:         2,
		ShippingCost:        3,
		StockLevel:          10,
		DiscountSensitivity: domain.SensitivityLow,
		LoyaltyScore:        85,
	})

	// P300: two rows on the same date; no competitor data.
	for _, c := range []string{"C3", "C1"} {
		sens, loyalty := domain.SensitivityMedium, 50.0
		if c == "C1" {
			sens, loyalty = domain.SensitivityHigh, 40
		}
		rows = append(rows, &domain.Transaction{
			ProductID:           "P300",
			CustomerID:          c,
			DateTime:            day(5),
			QuantityPurchased:   1,
			BasePrice:           8,
			CostPrice:           4,
			StorageCost:         0.5,
			ShippingCost:        0.5,
			StockLevel:          0,
			DiscountSensitivity: sens,
			LoyaltyScore:        loyalty,
		})
	}

	return rows
}

// FixtureCampaigns returns campaigns around FixtureNow: two active, one expired.
func FixtureCampaigns() []*domain.Campaign {
	return []*domain.Campaign{
		{
			CampaignID:     "CMP1",
			StartDate:      time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
			EndDate:        time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC),
			ConversionRate: 0.10,
		},
		{
			CampaignID:     "CMP2",
			StartDate:      time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC),
			EndDate:        time.Date(2024, 3, 20, 0, 0, 0, 0, time.UTC),
			ConversionRate: 0.20,
		},
		{
			CampaignID:     "CMP3",
			StartDate:      time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
			EndDate:        time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC),
			ConversionRate: 0.90,
		},
	}
}

// LoadFixtures populates stores with the fixture data set.
func LoadFixtures(ctx context.Context, txStore storage.TransactionStore, campaignStore storage.CampaignStore) error {
	if err := txStore.InsertBulk(ctx, Fixtures()); err != nil {
		return err
	}
	for _, c := range FixtureCampaigns() {
		if err := campaignStore.Insert(ctx, c); err != nil {
			return err
		}
	}
	return nil
}
