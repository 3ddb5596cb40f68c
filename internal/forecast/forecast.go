// Package forecast predicts mean daily demand per product over a future horizon.
package forecast

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"dynamic-pricing/internal/domain"
)

const (
	// Default is the demand used when a product cannot be forecast.
	Default = 1.0

	// DefaultHorizon is the number of daily periods averaged after the last observed date.
	DefaultHorizon = 30

	minDistinctDates = 2
)

var (
	// ErrInsufficientData is returned when fewer than two distinct dates are observed.
	ErrInsufficientData = errors.New("insufficient demand history")

	// ErrDegenerateSeries is returned when the model cannot be fit to the series.
	ErrDegenerateSeries = errors.New("degenerate demand series")

	// ErrNonFinite is returned when the forecast is NaN or infinite.
	ErrNonFinite = errors.New("non-finite forecast")
)

// SeasonalForecaster fits a daily series and returns the mean prediction
// over the next horizon days.
type SeasonalForecaster interface {
	Forecast(ctx context.Context, series []domain.DailyDemand, horizon int) (float64, error)
}

// BuildDailySeries sums observations per UTC calendar day and orders them by date.
func BuildDailySeries(obs []domain.DemandObservation) []domain.DailyDemand {
	totals := make(map[time.Time]float64)
	for _, o := range obs {
		totals[truncateDay(o.Date)] += o.Quantity
	}

	series := make([]domain.DailyDemand, 0, len(totals))
	for d, q := range totals {
		series = append(series, domain.DailyDemand{Date: d, Quantity: q})
	}
	sort.Slice(series, func(i, j int) bool {
		return series[i].Date.Before(series[j].Date)
	})
	return series
}

// ForProduct forecasts one product's demand. On any failure it returns
// Default together with the reason.
func ForProduct(ctx context.Context, f SeasonalForecaster, obs []domain.DemandObservation, horizon int) (float64, error) {
	series := BuildDailySeries(obs)
	if len(series) < minDistinctDates {
		return Default, ErrInsufficientData
	}
	if err := ctx.Err(); err != nil {
		return Default, err
	}

	v, err := f.Forecast(ctx, series, horizon)
	if err != nil {
		return Default, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return Default, fmt.Errorf("%w: %v", ErrNonFinite, v)
	}
	if v < 0 {
		v = 0
	}
	return v, nil
}

func truncateDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// Fallback reason codes reported when Default is used.
const (
	ReasonInsufficientData = "INSUFFICIENT_DATA"
	ReasonTimeout          = "TIMEOUT"
	ReasonNonFinite        = "NON_FINITE"
	ReasonFitFailed        = "FIT_FAILED"
)

// FallbackReason classifies an error returned by ForProduct.
func FallbackReason(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrInsufficientData):
		return ReasonInsufficientData
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return ReasonTimeout
	case errors.Is(err, ErrNonFinite):
		return ReasonNonFinite
	default:
		return ReasonFitFailed
	}
}
