// Package aggregation reduces competitor snapshots and marketing campaigns to
// the per-product and run-wide scalars consumed by the optimizer.
package aggregation

import (
	"math"

	"dynamic-pricing/internal/domain"
)

// AggregateCompetitors returns the mean competitor final price and mean
// competitor stock per product. NaN values are skipped. A product with no
// usable value for a measure is absent from that map.
func AggregateCompetitors(snapshots []domain.CompetitorSnapshot) (prices, stock map[string]float64) {
	type acc struct {
		priceSum, stockSum float64
		priceN, stockN     int
	}
	accs := make(map[string]*acc)
	for _, s := range snapshots {
		a, ok := accs[s.ProductID]
		if !ok {
			a = &acc{}
			accs[s.ProductID] = a
		}
		if !math.IsNaN(s.FinalPrice) {
			a.priceSum += s.FinalPrice
			a.priceN++
		}
		if !math.IsNaN(s.StockAvailability) {
			a.stockSum += s.StockAvailability
			a.stockN++
		}
	}

	prices = make(map[string]float64, len(accs))
	stock = make(map[string]float64, len(accs))
	for id, a := range accs {
		if a.priceN > 0 {
			prices[id] = a.priceSum / float64(a.priceN)
		}
		if a.stockN > 0 {
			stock[id] = a.stockSum / float64(a.stockN)
		}
	}
	return prices, stock
}

// CompetitorPriceOrBase returns the product's competitor price, or
// basePriceMean when the product has none.
func CompetitorPriceOrBase(prices map[string]float64, productID string, basePriceMean float64) float64 {
	if p, ok := prices[productID]; ok {
		return p
	}
	return basePriceMean
}
