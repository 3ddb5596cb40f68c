package forecast

import (
	"context"
	"fmt"
	"math"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"dynamic-pricing/internal/domain"
)

const secondsPerDay = 86400.0

// AdditiveModel is a decomposable time-series model:
//
//	y(t) = trend(t) + yearly(t) + weekly(t)
//
// The trend is piecewise linear with potential changepoints spread over the
// first ChangepointRange of history. Seasonal terms are Fourier series.
// Parameters are the MAP estimate under Gaussian priors, which reduces to
// ridge-regularized least squares solved by Cholesky factorization.
type AdditiveModel struct {
	YearlyOrder           int     // Fourier order of the yearly term; 0 disables it
	WeeklyOrder           int     // Fourier order of the weekly term; 0 disables it
	NChangepoints         int     // maximum number of trend changepoints
	ChangepointRange      float64 // share of history eligible for changepoints
	ChangepointPriorScale float64 // prior scale of trend rate changes
	SeasonalityPriorScale float64 // prior scale of Fourier coefficients
	TrendPriorScale       float64 // prior scale of base rate and offset
	ObservationNoise      float64 // assumed noise std dev on the scaled series
}

// NewAdditiveModel returns a model with yearly and weekly seasonality and
// no daily term.
func NewAdditiveModel() *AdditiveModel {
	return &AdditiveModel{
		YearlyOrder:           10,
		WeeklyOrder:           3,
		NChangepoints:         25,
		ChangepointRange:      0.8,
		ChangepointPriorScale: 0.05,
		SeasonalityPriorScale: 10,
		TrendPriorScale:       100,
		ObservationNoise:      0.1,
	}
}

const (
	yearlyPeriod = 365.25
	weeklyPeriod = 7.0
)

// Forecast fits the series and returns the mean prediction over the horizon
// daily periods following the last observed date.
func (m *AdditiveModel) Forecast(ctx context.Context, series []domain.DailyDemand, horizon int) (float64, error) {
	if len(series) < minDistinctDates {
		return 0, ErrInsufficientData
	}
	if horizon < 1 {
		return 0, fmt.Errorf("horizon must be >= 1, got %d", horizon)
	}

	fit, err := m.fit(ctx, series)
	if err != nil {
		return 0, err
	}
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	last := series[len(series)-1].Date
	preds := make([]float64, horizon)
	for i := range preds {
		preds[i] = fit.predict(last.AddDate(0, 0, i+1))
	}
	return stat.Mean(preds, nil), nil
}

// fitted holds the estimated parameters and the scaling used during fit.
type fitted struct {
	model       *AdditiveModel
	start       time.Time
	spanDays    float64
	yScale      float64
	changepoint []float64 // in scaled time
	beta        []float64
}

func (m *AdditiveModel) fit(ctx context.Context, series []domain.DailyDemand) (*fitted, error) {
	n := len(series)
	start := series[0].Date
	span := series[n-1].Date.Sub(start).Hours() / 24
	if span <= 0 {
		return nil, fmt.Errorf("%w: zero time span", ErrDegenerateSeries)
	}

	ys := make([]float64, n)
	for i, d := range series {
		ys[i] = d.Quantity
	}
	scale := floats.Norm(ys, math.Inf(1))
	if scale == 0 {
		scale = 1
	}
	floats.Scale(1/scale, ys)

	f := &fitted{
		model:    m,
		start:    start,
		spanDays: span,
		yScale:   scale,
	}
	f.changepoint = m.changepoints(series, f)

	p := f.numFeatures()
	x := mat.NewDense(n, p, nil)
	row := make([]float64, p)
	for i, d := range series {
		f.features(d.Date, row)
		x.SetRow(i, row)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// (XᵀX + Λ) β = Xᵀy
	a := mat.NewSymDense(p, nil)
	a.SymOuterK(1, x.T())
	for j, lambda := range f.penalties() {
		a.SetSym(j, j, a.At(j, j)+lambda)
	}
	var xty mat.VecDense
	xty.MulVec(x.T(), mat.NewVecDense(n, ys))

	var chol mat.Cholesky
	if ok := chol.Factorize(a); !ok {
		return nil, fmt.Errorf("%w: normal equations not positive definite", ErrDegenerateSeries)
	}
	var beta mat.VecDense
	if err := chol.SolveVecTo(&beta, &xty); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDegenerateSeries, err)
	}

	f.beta = make([]float64, p)
	for j := range f.beta {
		f.beta[j] = beta.AtVec(j)
	}
	return f, nil
}

// changepoints places up to NChangepoints at evenly spaced observed dates
// within the first ChangepointRange of history, excluding the first date.
func (m *AdditiveModel) changepoints(series []domain.DailyDemand, f *fitted) []float64 {
	histSize := int(math.Floor(float64(len(series)) * m.ChangepointRange))
	k := m.NChangepoints
	if histSize-1 < k {
		k = histSize - 1
	}
	if k <= 0 {
		return nil
	}

	cps := make([]float64, 0, k)
	for i := 1; i <= k; i++ {
		idx := int(math.RoundToEven(float64(i) * float64(histSize-1) / float64(k)))
		cps = append(cps, f.scaledTime(series[idx].Date))
	}
	return cps
}

func (f *fitted) numFeatures() int {
	return 2 + len(f.changepoint) + 2*f.model.YearlyOrder + 2*f.model.WeeklyOrder
}

// penalties returns the ridge weight of each feature: noise² / prior_scale².
func (f *fitted) penalties() []float64 {
	m := f.model
	noise := m.ObservationNoise * m.ObservationNoise
	out := make([]float64, 0, f.numFeatures())
	trend := noise / (m.TrendPriorScale * m.TrendPriorScale)
	out = append(out, trend, trend)
	for range f.changepoint {
		out = append(out, noise/(m.ChangepointPriorScale*m.ChangepointPriorScale))
	}
	season := noise / (m.SeasonalityPriorScale * m.SeasonalityPriorScale)
	for i := 0; i < 2*(m.YearlyOrder+m.WeeklyOrder); i++ {
		out = append(out, season)
	}
	return out
}

// features writes the design row for date d into dst.
// Layout: [offset, rate, changepoint hinges..., yearly sin/cos..., weekly sin/cos...].
func (f *fitted) features(d time.Time, dst []float64) {
	t := f.scaledTime(d)
	dst[0] = 1
	dst[1] = t
	i := 2
	for _, s := range f.changepoint {
		dst[i] = math.Max(t-s, 0)
		i++
	}

	// Seasonal terms use absolute days so phase does not depend on history start.
	days := float64(d.Unix()) / secondsPerDay
	i = fourier(days, yearlyPeriod, f.model.YearlyOrder, dst, i)
	fourier(days, weeklyPeriod, f.model.WeeklyOrder, dst, i)
}

func fourier(days, period float64, order int, dst []float64, i int) int {
	for k := 1; k <= order; k++ {
		arg := 2 * math.Pi * float64(k) * days / period
		dst[i] = math.Sin(arg)
		dst[i+1] = math.Cos(arg)
		i += 2
	}
	return i
}

func (f *fitted) scaledTime(d time.Time) float64 {
	return d.Sub(f.start).Hours() / 24 / f.spanDays
}

func (f *fitted) predict(d time.Time) float64 {
	row := make([]float64, len(f.beta))
	f.features(d, row)
	return floats.Dot(row, f.beta) * f.yScale
}

var _ SeasonalForecaster = (*AdditiveModel)(nil)
