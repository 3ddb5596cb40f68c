// Package personalization derives per-customer prices from optimal prices.
package personalization

import "dynamic-pricing/internal/domain"

// Rule is one personalized pricing rule. Rules are evaluated in order and the
// first match applies.
type Rule struct {
	Code       string
	Multiplier float64
	Match      func(c domain.Customer) bool
}

// Loyalty threshold above which a customer earns the loyalty discount.
const LoyaltyThreshold = 80.0

// DefaultRules returns the standard rule set:
// high discount sensitivity ×0.90, else loyalty above 80 ×0.95, else unchanged.
func DefaultRules() []Rule {
	return []Rule{
		{
			Code:       domain.RuleHighSensitivity,
			Multiplier: 0.90,
			Match: func(c domain.Customer) bool {
				return c.DiscountSensitivity == domain.SensitivityHigh
			},
		},
		{
			Code:       domain.RuleLoyalty,
			Multiplier: 0.95,
			Match: func(c domain.Customer) bool {
				return c.LoyaltyScore > LoyaltyThreshold
			},
		},
		{
			Code:       domain.RuleNone,
			Multiplier: 1,
			Match:      func(domain.Customer) bool { return true },
		},
	}
}
