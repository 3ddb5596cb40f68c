// Package elasticity estimates per-product price elasticity of demand from
// observed (price, quantity) pairs.
package elasticity

import (
	"math"
	"sort"

	"dynamic-pricing/internal/domain"
)

// Default is returned when a product has too little data or the estimate is not finite.
const Default = 0.0

// Estimate returns the elasticity of every product present in obs.
func Estimate(obs []domain.ElasticityObservation) map[string]float64 {
	byProduct := make(map[string][]domain.ElasticityObservation)
	for _, o := range obs {
		byProduct[o.ProductID] = append(byProduct[o.ProductID], o)
	}

	result := make(map[string]float64, len(byProduct))
	for id, rows := range byProduct {
		result[id] = ForProduct(rows)
	}
	return result
}

// ForProduct estimates elasticity for one product's observations.
//
// Rows are stably sorted by price. For each row after the first, the ratio
// pct_change(quantity) / pct_change(price) is taken. Undefined ratios (0/0)
// are skipped; any infinite ratio makes the estimate non-finite. The result
// is the mean of the remaining ratios, or Default when fewer than two rows
// exist, no ratio remains, or the mean is not finite.
func ForProduct(obs []domain.ElasticityObservation) float64 {
	if len(obs) < 2 {
		return Default
	}

	sorted := make([]domain.ElasticityObservation, len(obs))
	copy(sorted, obs)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].BasePrice < sorted[j].BasePrice
	})

	var sum float64
	var n int
	for i := 1; i < len(sorted); i++ {
		dq := pctChange(sorted[i-1].Quantity, sorted[i].Quantity)
		dp := pctChange(sorted[i-1].BasePrice, sorted[i].BasePrice)
		ratio := dq / dp
		if math.IsNaN(ratio) {
			continue
		}
		sum += ratio
		n++
	}
	if n == 0 {
		return Default
	}

	mean := sum / float64(n)
	if math.IsNaN(mean) || math.IsInf(mean, 0) {
		return Default
	}
	return mean
}

// pctChange returns (cur-prev)/prev with IEEE semantics: 0/0 is NaN, x/0 is ±Inf.
func pctChange(prev, cur float64) float64 {
	return (cur - prev) / prev
}
