package optimizer

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dynamic-pricing/internal/domain"
	"dynamic-pricing/internal/solver"
)

// scenarioP is the reference product: cost 10/1/1, base 20.
func scenarioP() Input {
	return Input{
		Product: domain.Product{
			ProductID:    "P",
			CostPrice:    10,
			StorageCost:  1,
			ShippingCost: 1,
			BasePrice:    20,
			StockLevel:   100,
		},
		Elasticity:       -0.5,
		CompetitorPrice:  25,
		DemandForecast:   50,
		StockLevel:       100,
		CampaignDiscount: 0,
	}
}

type failingSolver struct{ err error }

func (f failingSolver) Solve(context.Context, solver.Problem) (solver.Result, error) {
	return solver.Result{}, f.err
}

type fixedSolver struct{ x float64 }

func (f fixedSolver) Solve(context.Context, solver.Problem) (solver.Result, error) {
	return solver.Result{X: []float64{f.x}, Iterations: 1}, nil
}

func TestOptimize_ScenarioP(t *testing.T) {
	in := scenarioP()
	res := New(nil, nil).Optimize(context.Background(), in)

	require.False(t, res.Fallback, "reason=%s err=%v", res.Reason, res.Err)
	assert.Greater(t, res.Price, 12.0)
	// Unconstrained optimum is 36; the 1.2 × competitor cap binds at 30.
	assert.LessOrEqual(t, res.Price, 30.0+1e-6)
	assert.InDelta(t, 30.0, res.Price, 1e-3)
	assert.LessOrEqual(t, Demand(in, res.Price), 100.0)
}

func TestOptimize_InteriorOptimum(t *testing.T) {
	// Elastic demand: profit (p-12)(50 - 2.5(p-20)) peaks at p = 26 < 1.2 × 40.
	in := scenarioP()
	in.Elasticity = -1
	in.CompetitorPrice = 40

	res := New(nil, nil).Optimize(context.Background(), in)
	require.False(t, res.Fallback, "reason=%s err=%v", res.Reason, res.Err)
	assert.InDelta(t, 26.0, res.Price, 1e-3)
}

func TestOptimize_CapJustAboveTotalCost(t *testing.T) {
	// Feasible band [13, 13.512]: the competitor cap sits just above total
	// cost and parallel to the 1.5 × competitor upper bound.
	in := Input{
		Product: domain.Product{
			ProductID:    "P",
			CostPrice:    10.47,
			StorageCost:  1.5,
			ShippingCost: 1.03,
			BasePrice:    12,
			StockLevel:   1000,
		},
		Elasticity:      -0.5,
		CompetitorPrice: 11.26,
		DemandForecast:  50,
		StockLevel:      1000,
	}

	res := New(nil, nil).Optimize(context.Background(), in)
	require.False(t, res.Fallback, "reason=%s err=%v", res.Reason, res.Err)
	assert.InDelta(t, 1.2*11.26, res.Price, 1e-4)
}

func TestOptimize_Properties(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Input)
	}{
		{"reference", func(*Input) {}},
		{"scarcity", func(in *Input) { in.DemandForecast = 150 }},
		{"campaign", func(in *Input) { in.CampaignDiscount = 0.2 }},
		{"positive elasticity", func(in *Input) { in.Elasticity = 0.3 }},
		{"zero elasticity", func(in *Input) { in.Elasticity = 0 }},
		{"low competitor", func(in *Input) { in.CompetitorPrice = 11 }},
		{"tiny stock", func(in *Input) { in.StockLevel = 1 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := scenarioP()
			tt.mutate(&in)
			res := New(nil, nil).Optimize(context.Background(), in)

			if res.Fallback {
				assert.Equal(t, in.Product.BasePrice, res.Price)
				assert.NotEmpty(t, res.Reason)
				return
			}
			lower, upper := Bounds(in)
			assert.GreaterOrEqual(t, res.Price, lower)
			assert.LessOrEqual(t, res.Price, upper)
			assert.GreaterOrEqual(t, res.Price, in.Product.TotalCost()-1e-6)
		})
	}
}

func TestOptimize_Fallbacks(t *testing.T) {
	tests := []struct {
		name       string
		solver     solver.Solver
		mutate     func(*Input)
		wantReason string
	}{
		{
			name:       "crossed bounds",
			solver:     solver.NewSQP(),
			mutate:     func(in *Input) { in.CompetitorPrice = 5 }, // 11 > 7.5
			wantReason: domain.FallbackSolverFailed,
		},
		{
			name:       "incompatible constraints",
			solver:     solver.NewSQP(),
			mutate:     func(in *Input) { in.CompetitorPrice = 9 }, // p >= 12 but p <= 10.8
			wantReason: domain.FallbackSolverFailed,
		},
		{
			name:       "zero base price",
			solver:     solver.NewSQP(),
			mutate:     func(in *Input) { in.Product.BasePrice = 0 },
			wantReason: domain.FallbackInvalidInput,
		},
		{
			name:       "nan elasticity",
			solver:     solver.NewSQP(),
			mutate:     func(in *Input) { in.Elasticity = math.NaN() },
			wantReason: domain.FallbackInvalidInput,
		},
		{
			name:       "solver not converged",
			solver:     failingSolver{err: solver.ErrNotConverged},
			wantReason: domain.FallbackSolverFailed,
		},
		{
			name:       "solver timeout",
			solver:     failingSolver{err: context.DeadlineExceeded},
			wantReason: domain.FallbackTimeout,
		},
		{
			name:       "non-finite solution",
			solver:     fixedSolver{x: math.Inf(1)},
			wantReason: domain.FallbackNonFinite,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := scenarioP()
			if tt.mutate != nil {
				tt.mutate(&in)
			}
			res := New(tt.solver, nil).Optimize(context.Background(), in)
			assert.True(t, res.Fallback)
			assert.Equal(t, tt.wantReason, res.Reason)
			assert.Equal(t, in.Product.BasePrice, res.Price)
			assert.Error(t, res.Err)
		})
	}
}

func TestOptimize_ExpiredContext(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Nanosecond)
	defer cancel()
	time.Sleep(time.Millisecond)

	res := New(nil, nil).Optimize(ctx, scenarioP())
	assert.True(t, res.Fallback)
	assert.Equal(t, domain.FallbackTimeout, res.Reason)
	assert.True(t, errors.Is(res.Err, context.DeadlineExceeded))
}

func TestDemandAndScarcity(t *testing.T) {
	in := scenarioP()
	assert.Equal(t, 1.0, ScarcityModifier(50, 100))
	assert.Equal(t, 1.0, ScarcityModifier(100, 100))
	assert.Equal(t, ScarcityPremium, ScarcityModifier(101, 100))

	assert.InDelta(t, 50.0, Demand(in, 20), 1e-12)
	assert.InDelta(t, 37.5, Demand(in, 30), 1e-12)

	in.DemandForecast = 150
	in.CampaignDiscount = 0.1
	// 150 × 1.1 × 1.1 at base price
	assert.InDelta(t, 181.5, Demand(in, 20), 1e-9)
}

func TestProblem_StockConstraintOmitsScarcity(t *testing.T) {
	in := scenarioP()
	in.DemandForecast = 150 // above stock, m = 1.1
	p := Problem(in)

	// stock - d·(1+g)·(1+e(p-b)/b) at p = base: 100 - 150
	assert.InDelta(t, -50.0, p.Inequalities[2]([]float64{20}), 1e-12)
	// objective includes m: -(20-12) × 150 × 1.1
	assert.InDelta(t, -1320.0, p.Objective([]float64{20}), 1e-9)
	assert.Equal(t, []float64{11}, p.Lower)
	assert.Equal(t, []float64{37.5}, p.Upper)
	assert.Equal(t, []float64{20}, p.X0)
}
