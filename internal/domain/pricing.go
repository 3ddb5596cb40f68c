package domain

import "time"

// OptimalPrice is the solved price for one product in one pricing run.
// Corresponds to optimal_prices table in PostgreSQL.
type OptimalPrice struct {
	RunID     string
	ProductID string
	Price     float64
	Fallback  bool   // true when Price is the base-price fallback
	Reason    string // fallback reason code, empty on solver success
}

// PersonalizedPrice is the per-customer price derived from an OptimalPrice.
// Corresponds to personalized_prices table in ClickHouse.
type PersonalizedPrice struct {
	RunID      string
	ProductID  string
	CustomerID string
	Price      float64
	Rule       string // rule code that produced Price
}

// PricingRun is the header row for one pricing run.
// Corresponds to pricing_runs table in PostgreSQL.
type PricingRun struct {
	RunID             string
	DatasetHash       string  // hex SHA256 over the input rows
	CampaignDiscount  float64 // run-wide campaign scalar
	ProductCount      int
	PersonalizedCount int
	FallbackCount     int
	StartedAt         time.Time
	CompletedAt       time.Time
}

// Fallback reason codes.
const (
	FallbackSolverFailed = "SOLVER_FAILED"
	FallbackTimeout      = "TIMEOUT"
	FallbackInvalidInput = "INVALID_INPUT"
	FallbackNonFinite    = "NON_FINITE"
)

// Personalized pricing rule codes.
const (
	RuleHighSensitivity = "HIGH_SENSITIVITY"
	RuleLoyalty         = "LOYALTY"
	RuleNone            = "NONE"
)
