package personalization

import (
	"dynamic-pricing/internal/dataset"
	"dynamic-pricing/internal/domain"
)

// Engine applies an ordered rule set to (product, customer) pairs.
type Engine struct {
	rules []Rule
}

// NewEngine creates an engine. A nil or empty rule set uses DefaultRules.
func NewEngine(rules []Rule) *Engine {
	if len(rules) == 0 {
		rules = DefaultRules()
	}
	return &Engine{rules: rules}
}

// Apply returns the adjusted price and the code of the rule that produced it.
// When no rule matches the price is unchanged under domain.RuleNone.
func (e *Engine) Apply(price float64, c domain.Customer) (float64, string) {
	for _, r := range e.rules {
		if r.Match(c) {
			return price * r.Multiplier, r.Code
		}
	}
	return price, domain.RuleNone
}

// Price computes one personalized price per pair, in pair order. The starting
// price is the product's optimal price, or basePrice(productID) when absent.
func (e *Engine) Price(
	runID string,
	pairs []dataset.Pair,
	optimal map[string]float64,
	basePrice func(productID string) float64,
) []*domain.PersonalizedPrice {
	out := make([]*domain.PersonalizedPrice, 0, len(pairs))
	for _, p := range pairs {
		out = append(out, e.PriceOne(runID, p, optimal, basePrice))
	}
	return out
}

// PriceOne computes the personalized price of a single pair.
func (e *Engine) PriceOne(
	runID string,
	pair dataset.Pair,
	optimal map[string]float64,
	basePrice func(productID string) float64,
) *domain.PersonalizedPrice {
	start, ok := optimal[pair.ProductID]
	if !ok {
		start = basePrice(pair.ProductID)
	}
	price, rule := e.Apply(start, pair.Customer)
	return &domain.PersonalizedPrice{
		RunID:      runID,
		ProductID:  pair.ProductID,
		CustomerID: pair.Customer.CustomerID,
		Price:      price,
		Rule:       rule,
	}
}
