// Package main serves the latest pricing results over HTTP:
// JSON tables, CSV downloads, health and Prometheus metrics.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"dynamic-pricing/internal/api"
	"dynamic-pricing/internal/config"
	"dynamic-pricing/internal/platform/logger"
	"dynamic-pricing/internal/reporting"
	chstore "dynamic-pricing/internal/storage/clickhouse"
	pgstore "dynamic-pricing/internal/storage/postgres"
)

const shutdownTimeout = 10 * time.Second

func main() {
	configPath := flag.String("config", "", "YAML config file (optional)")
	envFile := flag.String("env-file", ".env", "dotenv file loaded before PRICING_* overrides")
	outputDir := flag.String("output-dir", "", "Pipeline output directory to serve (memory storage)")
	storageMode := flag.String("storage", "", "Result source: memory (output dir) | db")
	listen := flag.String("listen", "", "HTTP listen address")
	flag.Parse()

	cfg, err := config.LoadOrDefault(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}
	if err := config.LoadEnvFile(*envFile); err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}
	config.ApplyEnv(&cfg)
	if *outputDir != "" {
		cfg.OutputDir = *outputDir
	}
	if *storageMode != "" {
		cfg.Storage = config.StorageBackend(*storageMode)
	}
	if *listen != "" {
		cfg.ServerListen = *listen
	}
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

	if cfg.Log.Mode == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := serve(ctx, stop, cfg, log); err != nil {
		log.Error("results server failed", "error", err)
		return 1
	}
	return 0
}

// serve runs the HTTP server until ctx is done, then shuts it down.
// stop cancels ctx when the listener fails.
func serve(ctx context.Context, stop context.CancelFunc, cfg config.Config, log *logger.Logger) error {
	source, cleanup, err := createSource(ctx, cfg)
	if err != nil {
		return fmt.Errorf("create result source: %w", err)
	}
	defer cleanup()

	srv := &http.Server{
		Addr:    cfg.ServerListen,
		Handler: api.NewRouter(api.NewHandler(source, log)),
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info("results server listening", "addr", cfg.ServerListen, "storage", cfg.Storage)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
			stop()
		}
	}()

	<-ctx.Done()
	select {
	case err := <-serveErr:
		return fmt.Errorf("listen: %w", err)
	default:
	}
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// createSource returns the output directory reader, or the latest run from
// PostgreSQL and ClickHouse in db mode.
func createSource(ctx context.Context, cfg config.Config) (reporting.Source, func(), error) {
	if cfg.Storage != config.StorageDB {
		return reporting.NewDirSource(cfg.OutputDir), func() {}, nil
	}

	pool, err := pgstore.NewPool(ctx, cfg.DB.PostgresDSN)
	if err != nil {
		return nil, nil, fmt.Errorf("connect postgres: %w", err)
	}
	chConn, err := chstore.NewConn(ctx, cfg.DB.ClickhouseDSN)
	if err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("connect clickhouse: %w", err)
	}

	source := reporting.NewStoreSource(
		pgstore.NewPricingRunStore(pool),
		pgstore.NewOptimalPriceStore(pool),
		chstore.NewPersonalizedPriceStore(chConn),
	)
	return source, func() {
		chConn.Close()
		pool.Close()
	}, nil
}
