package config

import (
	"errors"
	"fmt"
	"runtime"
	"time"
)

type StorageBackend string

const (
	StorageMemory StorageBackend = "memory"
	StorageDB     StorageBackend = "db"
)

type LogConfig struct {
	Mode  string `yaml:"mode"`  // dev | prod
	Level string `yaml:"level"` // debug | info | warn | error
}

type DBConfig struct {
	PostgresDSN   string `yaml:"postgresDSN"`
	ClickhouseDSN string `yaml:"clickhouseDSN"`
}

type SolverConfig struct {
	MaxIterations int     `yaml:"maxIterations"`
	Tolerance     float64 `yaml:"tolerance"`
}

type ForecastConfig struct {
	HorizonDays int `yaml:"horizonDays"`
}

type Config struct {
	Storage        StorageBackend `yaml:"storage"`
	InputPath      string         `yaml:"input"`
	CampaignsPath  string         `yaml:"campaigns"`
	OutputDir      string         `yaml:"outputDir"`
	Workers        int            `yaml:"workers"`
	ProductTimeout time.Duration  `yaml:"productTimeout"`
	Now            string         `yaml:"now"` // RFC3339; empty means wall clock
	ServerListen   string         `yaml:"serverListen"`
	Log            LogConfig      `yaml:"log"`
	DB             DBConfig       `yaml:"db"`
	Solver         SolverConfig   `yaml:"solver"`
	Forecast       ForecastConfig `yaml:"forecast"`
}

func Default() Config {
	return Config{
		Storage:        StorageMemory,
		InputPath:      "",
		CampaignsPath:  "",
		OutputDir:      "output",
		Workers:        runtime.NumCPU(),
		ProductTimeout: 5 * time.Second,
		ServerListen:   ":8080",
		Log: LogConfig{
			Mode:  "dev",
			Level: "info",
		},
		Solver: SolverConfig{
			MaxIterations: 100,
			Tolerance:     1e-6,
		},
		Forecast: ForecastConfig{
			HorizonDays: 30,
		},
	}
}

// NowTime resolves the configured clock. Empty Now means time.Now().UTC().
func (c Config) NowTime() (time.Time, error) {
	if c.Now == "" {
		return time.Now().UTC(), nil
	}
	t, err := time.Parse(time.RFC3339, c.Now)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse now %q: %w", c.Now, err)
	}
	return t.UTC(), nil
}

var ErrInvalid = errors.New("invalid config")

func (c Config) Validate() error {
	switch c.Storage {
	case StorageMemory:
	case StorageDB:
		if c.DB.PostgresDSN == "" || c.DB.ClickhouseDSN == "" {
			return fmt.Errorf("%w: db storage requires postgres and clickhouse DSNs", ErrInvalid)
		}
	default:
		return fmt.Errorf("%w: unknown storage %q", ErrInvalid, c.Storage)
	}
	if c.Workers < 1 {
		return fmt.Errorf("%w: workers must be >= 1, got %d", ErrInvalid, c.Workers)
	}
	if c.ProductTimeout <= 0 {
		return fmt.Errorf("%w: productTimeout must be positive", ErrInvalid)
	}
	if c.Solver.MaxIterations < 1 || c.Solver.Tolerance <= 0 {
		return fmt.Errorf("%w: solver maxIterations and tolerance must be positive", ErrInvalid)
	}
	if c.Forecast.HorizonDays < 1 {
		return fmt.Errorf("%w: forecast horizonDays must be >= 1", ErrInvalid)
	}
	if _, err := c.NowTime(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	return nil
}
