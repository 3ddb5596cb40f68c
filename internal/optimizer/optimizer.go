// Package optimizer solves for the profit-maximizing price of one product.
package optimizer

import (
	"context"
	"errors"
	"math"

	"dynamic-pricing/internal/domain"
	"dynamic-pricing/internal/platform/logger"
	"dynamic-pricing/internal/solver"
)

// Pricing model constants.
const (
	ScarcityPremium  = 1.1 // demand multiplier when forecast exceeds stock
	CompetitorCap    = 1.2 // price must not exceed CompetitorCap × competitor price
	LowerBoundFactor = 1.1 // lower bound is LowerBoundFactor × cost price
	UpperBoundFactor = 1.5 // upper bound is UpperBoundFactor × competitor price
)

// Input holds everything the optimizer needs for one product.
type Input struct {
	Product          domain.Product
	Elasticity       float64
	CompetitorPrice  float64
	DemandForecast   float64
	StockLevel       float64
	CampaignDiscount float64
}

// Result is the optimizer outcome. On fallback Price is the base price.
type Result struct {
	Price      float64
	Fallback   bool
	Reason     string // domain.Fallback* code when Fallback
	Err        error  // underlying cause when Fallback
	Iterations int
}

// Optimizer maximizes (p - total_cost) × demand(p) subject to
//
//	p >= total_cost
//	p <= CompetitorCap × competitor
//	stock >= d·(1+g)·(1 + e·(p-base)/base)
//	LowerBoundFactor × cost <= p <= UpperBoundFactor × competitor
//
// where demand(p) = d·(1+g)·m·(1 + e·(p-base)/base) and m is the scarcity
// premium when d exceeds stock. The stock constraint intentionally leaves m out.
type Optimizer struct {
	solver solver.Solver
	log    *logger.Logger
}

// New creates an optimizer. A nil solver uses solver.NewSQP().
func New(s solver.Solver, log *logger.Logger) *Optimizer {
	if s == nil {
		s = solver.NewSQP()
	}
	return &Optimizer{
		solver: s,
		log:    logger.OrNop(log).With("component", "optimizer"),
	}
}

// ScarcityModifier returns ScarcityPremium when forecast demand exceeds stock, else 1.
func ScarcityModifier(demandForecast, stock float64) float64 {
	if demandForecast > stock {
		return ScarcityPremium
	}
	return 1
}

// Demand returns modeled demand at price p, scarcity premium included.
func Demand(in Input, p float64) float64 {
	m := ScarcityModifier(in.DemandForecast, in.StockLevel)
	return baseDemand(in, p) * m
}

func baseDemand(in Input, p float64) float64 {
	base := in.Product.BasePrice
	return in.DemandForecast * (1 + in.CampaignDiscount) * (1 + in.Elasticity*((p-base)/base))
}

// Bounds returns the [lower, upper] price box.
func Bounds(in Input) (lower, upper float64) {
	return LowerBoundFactor * in.Product.CostPrice, UpperBoundFactor * in.CompetitorPrice
}

// Problem builds the solver problem for in.
func Problem(in Input) solver.Problem {
	totalCost := in.Product.TotalCost()
	lower, upper := Bounds(in)
	m := ScarcityModifier(in.DemandForecast, in.StockLevel)

	return solver.Problem{
		Objective: func(x []float64) float64 {
			return -(x[0] - totalCost) * baseDemand(in, x[0]) * m
		},
		Inequalities: []solver.Func{
			func(x []float64) float64 { return x[0] - totalCost },
			func(x []float64) float64 { return CompetitorCap*in.CompetitorPrice - x[0] },
			func(x []float64) float64 { return in.StockLevel - baseDemand(in, x[0]) },
		},
		Lower: []float64{lower},
		Upper: []float64{upper},
		X0:    []float64{in.Product.BasePrice},
	}
}

// Optimize returns the solved price, or the base price with a reason when
// the inputs are unusable, the solver fails, or ctx expires.
func (o *Optimizer) Optimize(ctx context.Context, in Input) Result {
	if !validInput(in) {
		return o.fallback(in, domain.FallbackInvalidInput, errInvalidInput)
	}

	res, err := o.solver.Solve(ctx, Problem(in))
	if err != nil {
		reason := domain.FallbackSolverFailed
		switch {
		case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
			reason = domain.FallbackTimeout
		case errors.Is(err, solver.ErrInvalidProblem):
			reason = domain.FallbackInvalidInput
		}
		return o.fallback(in, reason, err)
	}

	price := res.X[0]
	if math.IsNaN(price) || math.IsInf(price, 0) {
		return o.fallback(in, domain.FallbackNonFinite, errNonFinitePrice)
	}
	return Result{Price: price, Iterations: res.Iterations}
}

func (o *Optimizer) fallback(in Input, reason string, err error) Result {
	o.log.Debug("price fallback",
		"product_id", in.Product.ProductID,
		"reason", reason,
		"error", err,
		"base_price", in.Product.BasePrice,
	)
	return Result{
		Price:    in.Product.BasePrice,
		Fallback: true,
		Reason:   reason,
		Err:      err,
	}
}

var (
	errInvalidInput   = errors.New("non-finite or zero base price in optimizer input")
	errNonFinitePrice = errors.New("solver returned non-finite price")
)

func validInput(in Input) bool {
	for _, v := range []float64{
		in.Product.BasePrice, in.Product.CostPrice, in.Product.StorageCost, in.Product.ShippingCost,
		in.Elasticity, in.CompetitorPrice, in.DemandForecast, in.StockLevel, in.CampaignDiscount,
	} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return in.Product.BasePrice != 0
}
