package reporting

import (
	"sort"
	"time"

	"dynamic-pricing/internal/dataset"
	"dynamic-pricing/internal/domain"
	"dynamic-pricing/internal/orchestrator"
)

// Generator builds the pricing report from a completed run.
type Generator struct {
	now func() time.Time // Injectable clock for deterministic output
}

// NewGenerator creates a new report generator.
func NewGenerator() *Generator {
	return &Generator{
		now: func() time.Time { return time.Now().UTC() },
	}
}

// WithClock sets a custom clock function for deterministic output.
func (g *Generator) WithClock(now func() time.Time) *Generator {
	g.now = now
	return g
}

// Generate builds the report for res. rows are the input rows of the run.
func (g *Generator) Generate(res *orchestrator.RunResult, rows []*domain.Transaction) *Report {
	ds := dataset.New(rows)

	return &Report{
		GeneratedAt:       g.now(),
		Run:               res.Run,
		DataSummary:       generateDataSummary(ds),
		Products:          generateProductRows(ds, res.Products),
		PriceFallbacks:    countPriceFallbacks(res.OptimalPrices),
		ForecastFallbacks: countForecastFallbacks(res.Products),
		RuleCounts:        countRules(res.PersonalizedPrices),
	}
}

// generateDataSummary describes the input rows.
func generateDataSummary(ds *dataset.Dataset) DataSummary {
	customers := make(map[string]struct{})
	for _, r := range ds.Rows() {
		customers[r.CustomerID] = struct{}{}
	}
	from, to := ds.DateRange()

	return DataSummary{
		TotalRows:      ds.Len(),
		Products:       len(ds.ProductIDs()),
		Customers:      len(customers),
		Pairs:          len(ds.Pairs()),
		DateRangeStart: from,
		DateRangeEnd:   to,
	}
}

// generateProductRows joins per-product results with the static product record.
func generateProductRows(ds *dataset.Dataset, products []orchestrator.ProductResult) []ProductRow {
	rows := make([]ProductRow, 0, len(products))
	for _, p := range products {
		product, _ := ds.Product(p.ProductID)
		row := ProductRow{
			ProductID:        p.ProductID,
			BasePrice:        product.BasePrice,
			TotalCost:        product.TotalCost(),
			Elasticity:       p.Elasticity,
			DemandForecast:   p.DemandForecast,
			CompetitorPrice:  p.CompetitorPrice,
			ForecastFallback: p.ForecastFallback,
		}
		if p.Optimal != nil {
			row.OptimalPrice = p.Optimal.Price
			row.PriceFallback = p.Optimal.Reason
		}
		rows = append(rows, row)
	}
	return rows
}

func countPriceFallbacks(prices []*domain.OptimalPrice) []CountRow {
	counts := make(map[string]int)
	for _, p := range prices {
		if p.Fallback {
			counts[p.Reason]++
		}
	}
	return sortedCounts(counts)
}

func countForecastFallbacks(products []orchestrator.ProductResult) []CountRow {
	counts := make(map[string]int)
	for _, p := range products {
		if p.ForecastFallback != "" {
			counts[p.ForecastFallback]++
		}
	}
	return sortedCounts(counts)
}

func countRules(prices []*domain.PersonalizedPrice) []CountRow {
	counts := make(map[string]int)
	for _, p := range prices {
		counts[p.Rule]++
	}
	return sortedCounts(counts)
}

// sortedCounts flattens counts sorted by key.
func sortedCounts(counts map[string]int) []CountRow {
	if len(counts) == 0 {
		return nil
	}
	rows := make([]CountRow, 0, len(counts))
	for k, n := range counts {
		rows = append(rows, CountRow{Key: k, Count: n})
	}
	sort.Slice(rows, func(i, j int) bool {
		return rows[i].Key < rows[j].Key
	})
	return rows
}
