package domain

// Customer holds the per-customer attributes used by personalized pricing.
type Customer struct {
	CustomerID          string
	DiscountSensitivity string  // categorical; only SensitivityHigh is matched
	LoyaltyScore        float64 // 0-100 scale
}

// Discount sensitivity values seen in the customer table.
const (
	SensitivityHigh   = "High"
	SensitivityMedium = "Medium"
	SensitivityLow    = "Low"
)
