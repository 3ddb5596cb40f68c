// Package orchestrator runs one pricing pass over a merged data set.
// It coordinates: campaign resolution → per-product elasticity, forecast and
// optimization → personalized pricing.
package orchestrator

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	"dynamic-pricing/internal/aggregation"
	"dynamic-pricing/internal/dataset"
	"dynamic-pricing/internal/domain"
	"dynamic-pricing/internal/elasticity"
	"dynamic-pricing/internal/forecast"
	"dynamic-pricing/internal/idhash"
	"dynamic-pricing/internal/observability"
	"dynamic-pricing/internal/optimizer"
	"dynamic-pricing/internal/personalization"
	"dynamic-pricing/internal/platform/logger"
	"dynamic-pricing/internal/solver"
)

// DefaultProductTimeout bounds the forecast and solve of a single product.
const DefaultProductTimeout = 5 * time.Second

// Orchestrator coordinates one pricing run.
type Orchestrator struct {
	forecaster     forecast.SeasonalForecaster
	optimizer      *optimizer.Optimizer
	engine         *personalization.Engine
	workers        int
	productTimeout time.Duration
	horizon        int
	clock          func() time.Time
	log            *logger.Logger
}

// Options for creating Orchestrator. Zero values select defaults.
type Options struct {
	Forecaster     forecast.SeasonalForecaster // default forecast.NewAdditiveModel()
	Solver         solver.Solver               // default solver.NewSQP()
	Rules          []personalization.Rule      // default personalization.DefaultRules()
	Workers        int                         // default runtime.NumCPU()
	ProductTimeout time.Duration               // default DefaultProductTimeout
	Horizon        int                         // default forecast.DefaultHorizon
	Clock          func() time.Time            // wall clock for run timestamps
	Logger         *logger.Logger
}

// New creates a new Orchestrator.
func New(opts Options) *Orchestrator {
	log := logger.OrNop(opts.Logger)
	if opts.Forecaster == nil {
		opts.Forecaster = forecast.NewAdditiveModel()
	}
	if opts.Workers < 1 {
		opts.Workers = runtime.NumCPU()
	}
	if opts.ProductTimeout <= 0 {
		opts.ProductTimeout = DefaultProductTimeout
	}
	if opts.Horizon < 1 {
		opts.Horizon = forecast.DefaultHorizon
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	return &Orchestrator{
		forecaster:     opts.Forecaster,
		optimizer:      optimizer.New(opts.Solver, log),
		engine:         personalization.NewEngine(opts.Rules),
		workers:        opts.Workers,
		productTimeout: opts.ProductTimeout,
		horizon:        opts.Horizon,
		clock:          opts.Clock,
		log:            log.With("component", "orchestrator"),
	}
}

// Input is the data for one run.
type Input struct {
	Rows []*domain.Transaction

	// Campaigns, when non-nil, are resolved at Now and the resulting scalar
	// replaces every row's CampaignDiscount. When nil, row values are kept.
	Campaigns []*domain.Campaign

	// Now is the reference instant for campaign activity and the run ID.
	Now time.Time
}

// ProductResult holds the derived inputs and the price of one product.
type ProductResult struct {
	ProductID        string
	Elasticity       float64
	DemandForecast   float64
	ForecastFallback string // empty when the model was used
	CompetitorPrice  float64
	CampaignDiscount float64
	Optimal          *domain.OptimalPrice
	Iterations       int
}

// RunResult contains results from orchestrator execution.
// Slices are in first-appearance order of product and (product, customer) pair.
type RunResult struct {
	Run                domain.PricingRun
	Products           []ProductResult
	OptimalPrices      []*domain.OptimalPrice
	PersonalizedPrices []*domain.PersonalizedPrice
	CompetitorStock    map[string]float64
}

// OptimalPriceMap returns product_id → optimal price.
func (r *RunResult) OptimalPriceMap() map[string]float64 {
	m := make(map[string]float64, len(r.OptimalPrices))
	for _, p := range r.OptimalPrices {
		m[p.ProductID] = p.Price
	}
	return m
}

// Run executes the pricing pass. No per-product condition is fatal: products
// that cannot be forecast or solved receive documented defaults. Run only
// fails when ctx is canceled.
func (o *Orchestrator) Run(ctx context.Context, in Input) (*RunResult, error) {
	startedAt := o.clock().UTC()
	rows := cloneRows(in.Rows)
	ds := dataset.New(rows)

	campaign := 0.0
	if in.Campaigns != nil {
		campaign = aggregation.ResolveCampaignDiscount(in.Campaigns, in.Now)
		ds.BroadcastCampaignDiscount(campaign)
		o.log.Info("campaign discount resolved", "campaigns", len(in.Campaigns), "discount", campaign)
	} else if ids := ds.ProductIDs(); len(ids) > 0 {
		campaign = ds.CampaignDiscount(ids[0])
	}

	datasetHash := idhash.ComputeDatasetHash(rows)
	runID := idhash.ComputeRunID(datasetHash, in.Now)
	log := o.log.With("run_id", runID)
	log.Info("pricing run started", "rows", ds.Len(), "products", len(ds.ProductIDs()), "workers", o.workers)

	competitorPrices, competitorStock := aggregation.AggregateCompetitors(ds.CompetitorSnapshots())

	elasticities := elasticity.Estimate(ds.AllElasticityObservations())

	products, err := o.priceProducts(ctx, runID, ds, elasticities, competitorPrices)
	if err != nil {
		return nil, err
	}

	result := &RunResult{
		Products:        products,
		OptimalPrices:   make([]*domain.OptimalPrice, len(products)),
		CompetitorStock: competitorStock,
	}
	fallbacks := 0
	for i := range products {
		result.OptimalPrices[i] = products[i].Optimal
		if products[i].Optimal.Fallback {
			fallbacks++
		}
	}

	personalized, err := o.personalize(ctx, runID, ds, result.OptimalPriceMap())
	if err != nil {
		return nil, err
	}
	result.PersonalizedPrices = personalized

	result.Run = domain.PricingRun{
		RunID:             runID,
		DatasetHash:       datasetHash,
		CampaignDiscount:  campaign,
		ProductCount:      len(products),
		PersonalizedCount: len(personalized),
		FallbackCount:     fallbacks,
		StartedAt:         startedAt,
		CompletedAt:       o.clock().UTC(),
	}

	log.Info("pricing run completed",
		"products", len(products),
		"personalized", len(personalized),
		"fallbacks", fallbacks,
	)
	return result, nil
}

// priceProducts computes forecast and optimal price per product on a
// bounded worker pool. Worker i writes only slot i.
func (o *Orchestrator) priceProducts(
	ctx context.Context,
	runID string,
	ds *dataset.Dataset,
	elasticities map[string]float64,
	competitorPrices map[string]float64,
) ([]ProductResult, error) {
	ids := ds.ProductIDs()
	results := make([]ProductResult, len(ids))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.workers)
	for i, id := range ids {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = o.priceProduct(gctx, runID, ds, id, elasticities[id], competitorPrices)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("price products: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("price products: %w", err)
	}
	return results, nil
}

func (o *Orchestrator) priceProduct(
	ctx context.Context,
	runID string,
	ds *dataset.Dataset,
	productID string,
	e float64,
	competitorPrices map[string]float64,
) ProductResult {
	pctx, cancel := context.WithTimeout(ctx, o.productTimeout)
	defer cancel()

	product, _ := ds.Product(productID)
	res := ProductResult{
		ProductID:        productID,
		Elasticity:       e,
		CompetitorPrice:  aggregation.CompetitorPriceOrBase(competitorPrices, productID, ds.BasePriceMean(productID)),
		CampaignDiscount: ds.CampaignDiscount(productID),
	}

	start := time.Now()
	demand, err := forecast.ForProduct(pctx, o.forecaster, ds.DemandObservations(productID), o.horizon)
	if err != nil {
		res.ForecastFallback = forecast.FallbackReason(err)
		o.log.Debug("forecast fallback", "product_id", productID, "reason", res.ForecastFallback, "error", err)
	}
	res.DemandForecast = demand
	observability.RecordForecast(res.ForecastFallback, time.Since(start).Seconds())

	start = time.Now()
	opt := o.optimizer.Optimize(pctx, optimizer.Input{
		Product:          product,
		Elasticity:       res.Elasticity,
		CompetitorPrice:  res.CompetitorPrice,
		DemandForecast:   res.DemandForecast,
		StockLevel:       product.StockLevel,
		CampaignDiscount: res.CampaignDiscount,
	})
	observability.RecordPriced(opt.Reason, time.Since(start).Seconds(), opt.Iterations)

	res.Iterations = opt.Iterations
	res.Optimal = &domain.OptimalPrice{
		RunID:     runID,
		ProductID: productID,
		Price:     opt.Price,
		Fallback:  opt.Fallback,
		Reason:    opt.Reason,
	}
	return res
}

// personalize prices every observed pair on the worker pool, reading the
// completed optimal price map.
func (o *Orchestrator) personalize(
	ctx context.Context,
	runID string,
	ds *dataset.Dataset,
	optimal map[string]float64,
) ([]*domain.PersonalizedPrice, error) {
	pairs := ds.Pairs()
	out := make([]*domain.PersonalizedPrice, len(pairs))
	basePrice := func(productID string) float64 {
		p, _ := ds.Product(productID)
		return p.BasePrice
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.workers)
	for i, pair := range pairs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			out[i] = o.engine.PriceOne(runID, pair, optimal, basePrice)
			observability.RecordPersonalized(out[i].Rule)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("personalize: %w", err)
	}
	return out, nil
}

func cloneRows(rows []*domain.Transaction) []*domain.Transaction {
	out := make([]*domain.Transaction, len(rows))
	for i, r := range rows {
		c := *r
		out[i] = &c
	}
	return out
}
