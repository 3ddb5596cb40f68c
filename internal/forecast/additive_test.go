package forecast

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dynamic-pricing/internal/domain"
)

func series(n int, f func(i int) float64) []domain.DailyDemand {
	out := make([]domain.DailyDemand, n)
	for i := range out {
		out[i] = domain.DailyDemand{Date: day0.AddDate(0, 0, i), Quantity: f(i)}
	}
	return out
}

func TestAdditiveModel_Constant(t *testing.T) {
	s := series(60, func(int) float64 { return 5 })
	got, err := NewAdditiveModel().Forecast(context.Background(), s, DefaultHorizon)
	require.NoError(t, err)
	assert.InDelta(t, 5.0, got, 0.25)
}

func TestAdditiveModel_LinearTrend(t *testing.T) {
	s := series(60, func(i int) float64 { return 10 + 0.5*float64(i) })
	got, err := NewAdditiveModel().Forecast(context.Background(), s, DefaultHorizon)
	require.NoError(t, err)

	// mean of 10 + 0.5*d for d = 60..89
	assert.InDelta(t, 47.25, got, 1.0)
}

func TestAdditiveModel_WeeklySeason(t *testing.T) {
	weekly := func(d float64) float64 {
		return 10 + 3*math.Sin(2*math.Pi*d/weeklyPeriod)
	}
	absDay := func(i int) float64 {
		return float64(day0.AddDate(0, 0, i).Unix()) / secondsPerDay
	}
	s := series(56, func(i int) float64 { return weekly(absDay(i)) })

	var want float64
	for i := 56; i < 56+DefaultHorizon; i++ {
		want += weekly(absDay(i))
	}
	want /= DefaultHorizon

	got, err := NewAdditiveModel().Forecast(context.Background(), s, DefaultHorizon)
	require.NoError(t, err)
	assert.InDelta(t, want, got, 0.5)
}

func TestAdditiveModel_TwoPoints(t *testing.T) {
	s := series(2, func(i int) float64 { return float64(3 + 2*i) })
	got, err := NewAdditiveModel().Forecast(context.Background(), s, DefaultHorizon)
	require.NoError(t, err)
	assert.False(t, math.IsNaN(got) || math.IsInf(got, 0))
}

func TestAdditiveModel_ZeroSeries(t *testing.T) {
	s := series(10, func(int) float64 { return 0 })
	got, err := NewAdditiveModel().Forecast(context.Background(), s, DefaultHorizon)
	require.NoError(t, err)
	assert.InDelta(t, 0, got, 1e-9)
}

func TestAdditiveModel_Errors(t *testing.T) {
	m := NewAdditiveModel()

	_, err := m.Forecast(context.Background(), series(1, func(int) float64 { return 1 }), DefaultHorizon)
	assert.ErrorIs(t, err, ErrInsufficientData)

	_, err = m.Forecast(context.Background(), series(5, func(int) float64 { return 1 }), 0)
	assert.Error(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = m.Forecast(ctx, series(5, func(int) float64 { return 1 }), DefaultHorizon)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestAdditiveModel_Deterministic(t *testing.T) {
	s := series(40, func(i int) float64 { return float64(i%7) + 2 })
	m := NewAdditiveModel()
	a, err := m.Forecast(context.Background(), s, DefaultHorizon)
	require.NoError(t, err)
	b, err := m.Forecast(context.Background(), s, DefaultHorizon)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestAdditiveModel_Changepoints(t *testing.T) {
	m := NewAdditiveModel()
	s := series(60, func(int) float64 { return 1 })
	f := &fitted{model: m, start: s[0].Date, spanDays: 59}

	cps := m.changepoints(s, f)
	// histSize = 48, so 25 changepoints in (0, 47/59]
	require.Len(t, cps, 25)
	assert.Greater(t, cps[0], 0.0)
	assert.InDelta(t, 47.0/59.0, cps[len(cps)-1], 1e-12)
	for i := 1; i < len(cps); i++ {
		assert.Greater(t, cps[i], cps[i-1])
	}

	assert.Empty(t, m.changepoints(series(2, func(int) float64 { return 1 }), f))
}
