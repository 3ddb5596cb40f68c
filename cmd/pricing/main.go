// Package main runs one batch pricing run:
// load → forecast/elasticity/optimize → personalize → persist → report.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"dynamic-pricing/internal/config"
	"dynamic-pricing/internal/dataset"
	"dynamic-pricing/internal/orchestrator"
	"dynamic-pricing/internal/pipeline"
	"dynamic-pricing/internal/platform/logger"
	"dynamic-pricing/internal/reporting"
	"dynamic-pricing/internal/solver"
	"dynamic-pricing/internal/storage"
	chstore "dynamic-pricing/internal/storage/clickhouse"
	"dynamic-pricing/internal/storage/memory"
	"dynamic-pricing/internal/storage/migrations"
	pgstore "dynamic-pricing/internal/storage/postgres"
)

func main() {
	configPath := flag.String("config", "", "YAML config file (optional)")
	envFile := flag.String("env-file", ".env", "dotenv file loaded before PRICING_* overrides")
	input := flag.String("input", "", "Merged transactions CSV (memory storage)")
	campaigns := flag.String("campaigns", "", "Marketing campaigns CSV (memory storage, optional)")
	outputDir := flag.String("output-dir", "", "Output directory for CSVs and report")
	storageMode := flag.String("storage", "", "Storage backend: memory | db")
	workers := flag.Int("workers", 0, "Concurrent product workers")
	now := flag.String("now", "", "Reference time (RFC3339) for campaigns and the run ID")
	verbose := flag.Bool("verbose", false, "Debug logging")
	flag.Parse()

	cfg, err := loadConfig(*configPath, *envFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}
	applyFlags(&cfg, *input, *campaigns, *outputDir, *storageMode, *workers, *now, *verbose)
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}

	os.Exit(execute(cfg))
}

// execute owns the logger and signal context so their cleanup runs before
// the process exits. It returns the exit code.
func execute(cfg config.Config) int {
	log, err := logger.New(cfg.Log.Mode, cfg.Log.Level)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Logger error: %v\n", err)
		return 1
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("pricing run failed", "error", err)
		return 1
	}
	return 0
}

func loadConfig(path, envFile string) (config.Config, error) {
	cfg, err := config.LoadOrDefault(path)
	if err != nil {
		return config.Config{}, err
	}
	if err := config.LoadEnvFile(envFile); err != nil {
		return config.Config{}, fmt.Errorf("load env file: %w", err)
	}
	config.ApplyEnv(&cfg)
	return cfg, nil
}

// applyFlags overrides cfg with explicitly set flags only.
func applyFlags(cfg *config.Config, input, campaigns, outputDir, storageMode string, workers int, now string, verbose bool) {
	if input != "" {
		cfg.InputPath = input
	}
	if campaigns != "" {
		cfg.CampaignsPath = campaigns
	}
	if outputDir != "" {
		cfg.OutputDir = outputDir
	}
	if storageMode != "" {
		cfg.Storage = config.StorageBackend(storageMode)
	}
	if workers > 0 {
		cfg.Workers = workers
	}
	if now != "" {
		cfg.Now = now
	}
	if verbose {
		cfg.Log.Level = "debug"
	}
}

func run(ctx context.Context, cfg config.Config, log *logger.Logger) error {
	nowTime, err := cfg.NowTime()
	if err != nil {
		return err
	}

	stores, cleanup, err := createStores(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("create stores: %w", err)
	}
	defer cleanup()

	sqp := solver.NewSQP()
	sqp.MaxIterations = cfg.Solver.MaxIterations
	sqp.Tolerance = cfg.Solver.Tolerance

	orch := orchestrator.New(orchestrator.Options{
		Solver:         sqp,
		Workers:        cfg.Workers,
		ProductTimeout: cfg.ProductTimeout,
		Horizon:        cfg.Forecast.HorizonDays,
		Logger:         log,
	})

	p := pipeline.NewPricingPipeline(orch, stores.transactions, cfg.OutputDir).
		WithResultStores(stores.runs, stores.optimal, stores.personalized).
		WithNow(nowTime).
		WithLogger(log)
	if stores.campaigns != nil {
		p = p.WithCampaigns(stores.campaigns)
	}

	result, err := p.Run(ctx)
	if err != nil {
		return err
	}

	log.Info("pricing run completed",
		"run_id", result.Run.RunID,
		"products", result.Run.ProductCount,
		"personalized", result.Run.PersonalizedCount,
		"fallbacks", result.Run.FallbackCount,
		"campaign_discount", result.Run.CampaignDiscount,
	)
	for _, name := range []string{
		reporting.OptimalPricesFile,
		reporting.PersonalizedPricesFile,
		reporting.ManifestFile,
		reporting.ReportFile,
	} {
		log.Info("wrote output", "path", filepath.Join(cfg.OutputDir, name))
	}
	return nil
}

// allStores holds the inputs and result stores for one run. campaigns is nil
// when no campaign source is configured.
type allStores struct {
	transactions storage.TransactionStore
	campaigns    storage.CampaignStore
	runs         storage.PricingRunStore
	optimal      storage.OptimalPriceStore
	personalized storage.PersonalizedPriceStore
}

func createStores(ctx context.Context, cfg config.Config, log *logger.Logger) (*allStores, func(), error) {
	if cfg.Storage == config.StorageDB {
		return createDBStores(ctx, cfg, log)
	}
	stores, err := createMemoryStores(ctx, cfg)
	return stores, func() {}, err
}

// createMemoryStores reads the input CSVs into memory stores.
func createMemoryStores(ctx context.Context, cfg config.Config) (*allStores, error) {
	if cfg.InputPath == "" {
		return nil, fmt.Errorf("memory storage requires -input")
	}
	rows, err := dataset.ReadCSVFile(cfg.InputPath)
	if err != nil {
		return nil, err
	}

	stores := &allStores{
		transactions: memory.NewTransactionStore(),
		runs:         memory.NewPricingRunStore(),
		optimal:      memory.NewOptimalPriceStore(),
		personalized: memory.NewPersonalizedPriceStore(),
	}
	if err := stores.transactions.InsertBulk(ctx, rows); err != nil {
		return nil, fmt.Errorf("load transactions: %w", err)
	}

	if cfg.CampaignsPath != "" {
		campaigns, err := dataset.ReadCampaignsCSVFile(cfg.CampaignsPath)
		if err != nil {
			return nil, err
		}
		campaignStore := memory.NewCampaignStore()
		for _, c := range campaigns {
			if err := campaignStore.Insert(ctx, c); err != nil {
				return nil, fmt.Errorf("load campaign %s: %w", c.CampaignID, err)
			}
		}
		stores.campaigns = campaignStore
	}
	return stores, nil
}

// createDBStores connects to PostgreSQL and ClickHouse and applies the
// embedded migrations. Campaigns always come from marketing_campaigns.
func createDBStores(ctx context.Context, cfg config.Config, log *logger.Logger) (*allStores, func(), error) {
	pool, err := pgstore.NewPool(ctx, cfg.DB.PostgresDSN)
	if err != nil {
		return nil, nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("postgres migrations: %w", err)
	}
	log.Info("postgres migrations applied")

	chConn, err := migrations.RunClickhouseMigrations(ctx, cfg.DB.ClickhouseDSN)
	if err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("clickhouse migrations: %w", err)
	}
	log.Info("clickhouse migrations applied")

	cleanup := func() {
		chConn.Close()
		pool.Close()
	}
	return &allStores{
		transactions: pgstore.NewTransactionStore(pool),
		campaigns:    pgstore.NewCampaignStore(pool),
		runs:         pgstore.NewPricingRunStore(pool),
		optimal:      pgstore.NewOptimalPriceStore(pool),
		personalized: chstore.NewPersonalizedPriceStore(chConn),
	}, cleanup, nil
}
