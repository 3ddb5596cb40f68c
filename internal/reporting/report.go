package reporting

import (
	"time"

	"dynamic-pricing/internal/domain"
)

// Output file names written into the run output directory.
const (
	OptimalPricesFile      = "optimal_prices.csv"
	PersonalizedPricesFile = "personalized_prices.csv"
	ReportFile             = "PRICING_REPORT.md"
	ManifestFile           = "pricing_run.yaml"
)

// Report represents the pricing run report structure.
type Report struct {
	// Metadata
	GeneratedAt time.Time
	Run         domain.PricingRun

	// Data Summary
	DataSummary DataSummary

	// Data Quality (coverage checks)
	DataQuality DataQualitySection

	// Per-product derived inputs and prices, in first-appearance order
	Products []ProductRow

	// Fallback and rule breakdowns, sorted by key
	PriceFallbacks    []CountRow
	ForecastFallbacks []CountRow
	RuleCounts        []CountRow
}

// DataQualitySection contains data coverage checks and integrity errors.
// Failed checks are informational: affected products fall back to defaults.
type DataQualitySection struct {
	SufficiencyChecks []SufficiencyCheckRow
	IntegrityErrors   []string
	AllChecksPassed   bool
}

// SufficiencyCheckRow represents one coverage criterion.
type SufficiencyCheckRow struct {
	Name      string
	Threshold string
	Actual    string
	Pass      bool
}

// DataSummary contains input data description.
type DataSummary struct {
	TotalRows      int
	Products       int
	Customers      int
	Pairs          int
	DateRangeStart time.Time
	DateRangeEnd   time.Time
}

// ProductRow represents one row in the optimal prices table.
type ProductRow struct {
	ProductID        string
	BasePrice        float64
	TotalCost        float64
	Elasticity       float64
	DemandForecast   float64
	CompetitorPrice  float64
	OptimalPrice     float64
	ForecastFallback string
	PriceFallback    string
}

// CountRow is a key with an occurrence count.
type CountRow struct {
	Key   string
	Count int
}
