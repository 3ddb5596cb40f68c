package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"dynamic-pricing/internal/dataset"
	"dynamic-pricing/internal/domain"
	"dynamic-pricing/internal/observability"
	"dynamic-pricing/internal/orchestrator"
	"dynamic-pricing/internal/platform/logger"
	"dynamic-pricing/internal/reporting"
	"dynamic-pricing/internal/storage"
)

// Pipeline phases reported to metrics.
const (
	PhaseLoad    = "load"
	PhasePrice   = "price"
	PhasePersist = "persist"
	PhaseReport  = "report"
)

// PricingPipeline loads inputs, runs the orchestrator, persists results and
// writes the output directory.
type PricingPipeline struct {
	orch          *orchestrator.Orchestrator
	reportGen     *reporting.Generator
	txStore       storage.TransactionStore
	campaignStore storage.CampaignStore // optional; nil keeps row campaign values

	// Optional result persistence
	runStore          storage.PricingRunStore
	optimalStore      storage.OptimalPriceStore
	personalizedStore storage.PersonalizedPriceStore

	outputDir string
	now       time.Time // reference instant for campaigns and the run ID
	clock     func() time.Time
	log       *logger.Logger
}

// NewPricingPipeline creates a new pipeline reading transactions from txStore.
func NewPricingPipeline(
	orch *orchestrator.Orchestrator,
	txStore storage.TransactionStore,
	outputDir string,
) *PricingPipeline {
	return &PricingPipeline{
		orch:      orch,
		reportGen: reporting.NewGenerator(),
		txStore:   txStore,
		outputDir: outputDir,
		clock:     func() time.Time { return time.Now().UTC() },
		log:       logger.Nop(),
	}
}

// WithCampaigns resolves the campaign discount from store and broadcasts it
// over every row.
func (p *PricingPipeline) WithCampaigns(store storage.CampaignStore) *PricingPipeline {
	p.campaignStore = store
	return p
}

// WithResultStores persists the run header and both price tables.
func (p *PricingPipeline) WithResultStores(
	runStore storage.PricingRunStore,
	optimalStore storage.OptimalPriceStore,
	personalizedStore storage.PersonalizedPriceStore,
) *PricingPipeline {
	p.runStore = runStore
	p.optimalStore = optimalStore
	p.personalizedStore = personalizedStore
	return p
}

// WithNow fixes the reference instant. Zero uses the clock at Run.
func (p *PricingPipeline) WithNow(now time.Time) *PricingPipeline {
	p.now = now
	return p
}

// WithClock sets a custom clock function for deterministic output.
func (p *PricingPipeline) WithClock(clock func() time.Time) *PricingPipeline {
	p.clock = clock
	p.reportGen = p.reportGen.WithClock(clock)
	return p
}

// WithLogger sets the pipeline logger.
func (p *PricingPipeline) WithLogger(log *logger.Logger) *PricingPipeline {
	p.log = logger.OrNop(log).With("component", "pipeline")
	return p
}

// Run executes the full pipeline and writes output files:
// - optimal_prices.csv
// - personalized_prices.csv
// - pricing_run.yaml
// - PRICING_REPORT.md
func (p *PricingPipeline) Run(ctx context.Context) (*orchestrator.RunResult, error) {
	started := time.Now()

	// 1. Load inputs
	rows, campaigns, err := p.load(ctx)
	p.record(PhaseLoad, started, err)
	if err != nil {
		return nil, err
	}

	// 2. Price
	now := p.now
	if now.IsZero() {
		now = p.clock()
	}
	phaseStart := time.Now()
	result, err := p.orch.Run(ctx, orchestrator.Input{Rows: rows, Campaigns: campaigns, Now: now})
	p.record(PhasePrice, phaseStart, err)
	if err != nil {
		return nil, fmt.Errorf("price: %w", err)
	}

	// 3. Persist (if configured)
	if p.runStore != nil {
		phaseStart = time.Now()
		err = p.persist(ctx, result)
		p.record(PhasePersist, phaseStart, err)
		if err != nil {
			return nil, err
		}
	}

	// 4. Write output directory
	phaseStart = time.Now()
	err = p.writeOutputs(rows, result)
	p.record(PhaseReport, phaseStart, err)
	if err != nil {
		return nil, err
	}

	observability.RecordPipelineSuccess(float64(p.clock().Unix()))
	p.log.Info("pipeline completed",
		"run_id", result.Run.RunID,
		"output_dir", p.outputDir,
		"duration", time.Since(started).String(),
	)
	return result, nil
}

func (p *PricingPipeline) load(ctx context.Context) ([]*domain.Transaction, []*domain.Campaign, error) {
	rows, err := p.txStore.GetAll(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("load transactions: %w", err)
	}

	var campaigns []*domain.Campaign
	if p.campaignStore != nil {
		campaigns, err = p.campaignStore.GetAll(ctx)
		if err != nil {
			return nil, nil, fmt.Errorf("load campaigns: %w", err)
		}
		if campaigns == nil {
			campaigns = []*domain.Campaign{}
		}
	}

	p.log.Info("inputs loaded", "rows", len(rows), "campaigns", len(campaigns))
	return rows, campaigns, nil
}

func (p *PricingPipeline) persist(ctx context.Context, result *orchestrator.RunResult) error {
	run := result.Run
	if err := p.runStore.Insert(ctx, &run); err != nil {
		return fmt.Errorf("persist run: %w", err)
	}
	if p.optimalStore != nil {
		if err := p.optimalStore.InsertBulk(ctx, result.OptimalPrices); err != nil {
			return fmt.Errorf("persist optimal prices: %w", err)
		}
	}
	if p.personalizedStore != nil {
		if err := p.personalizedStore.InsertBulk(ctx, result.PersonalizedPrices); err != nil {
			return fmt.Errorf("persist personalized prices: %w", err)
		}
	}
	p.log.Info("results persisted", "run_id", run.RunID)
	return nil
}

func (p *PricingPipeline) writeOutputs(rows []*domain.Transaction, result *orchestrator.RunResult) error {
	if err := os.MkdirAll(p.outputDir, 0755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	report := p.reportGen.Generate(result, rows)
	report.DataQuality = convertToDataQuality(CheckSufficiency(dataset.New(rows)))

	manifest, err := reporting.RenderManifest(result.Run)
	if err != nil {
		return err
	}

	files := []struct {
		name    string
		content []byte
	}{
		{reporting.OptimalPricesFile, []byte(reporting.RenderOptimalPricesCSV(result.OptimalPrices))},
		{reporting.PersonalizedPricesFile, []byte(reporting.RenderPersonalizedPricesCSV(result.PersonalizedPrices))},
		{reporting.ManifestFile, manifest},
		{reporting.ReportFile, []byte(reporting.RenderMarkdown(report))},
	}
	for _, f := range files {
		path := filepath.Join(p.outputDir, f.name)
		if err := os.WriteFile(path, f.content, 0644); err != nil {
			return fmt.Errorf("write %s: %w", f.name, err)
		}
	}

	observability.RecordReportGenerated()
	return nil
}

func (p *PricingPipeline) record(phase string, start time.Time, err error) {
	status := "success"
	if err != nil {
		status = "error"
		p.log.Error("pipeline phase failed", "phase", phase, "error", err)
	}
	observability.RecordPipelineRun(phase, status, time.Since(start).Seconds())
}
