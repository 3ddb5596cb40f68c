package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

var ErrNotFound = errors.New("config not found")

// Load reads a YAML config file on top of Default().
func Load(path string) (Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Config{}, ErrNotFound
		}
		return Config{}, err
	}

	cfg := Default()
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// LoadOrDefault is Load, falling back to Default() when path is empty or missing.
func LoadOrDefault(path string) (Config, error) {
	if path == "" {
		return Default(), nil
	}
	cfg, err := Load(path)
	if err == nil {
		return cfg, nil
	}
	if errors.Is(err, ErrNotFound) {
		return Default(), nil
	}
	return Config{}, err
}

// LoadEnvFile loads a .env file into the process environment without
// overriding variables that are already set. A missing file is not an error.
func LoadEnvFile(path string) error {
	err := godotenv.Load(path)
	if err != nil && errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

// ApplyEnv overrides cfg with PRICING_* and DSN environment variables.
func ApplyEnv(cfg *Config) {
	if v := env("PRICING_STORAGE"); v != "" {
		cfg.Storage = StorageBackend(strings.ToLower(v))
	}
	if v := env("PRICING_INPUT"); v != "" {
		cfg.InputPath = v
	}
	if v := env("PRICING_CAMPAIGNS"); v != "" {
		cfg.CampaignsPath = v
	}
	if v := env("PRICING_OUTPUT_DIR"); v != "" {
		cfg.OutputDir = v
	}
	if v, ok := envInt("PRICING_WORKERS"); ok {
		cfg.Workers = v
	}
	if v, ok := envDuration("PRICING_PRODUCT_TIMEOUT"); ok {
		cfg.ProductTimeout = v
	}
	if v := env("PRICING_NOW"); v != "" {
		cfg.Now = v
	}
	if v := env("PRICING_SERVER_LISTEN"); v != "" {
		cfg.ServerListen = v
	}
	if v := env("PRICING_LOG_MODE"); v != "" {
		cfg.Log.Mode = v
	}
	if v := env("PRICING_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := env("POSTGRES_DSN"); v != "" {
		cfg.DB.PostgresDSN = v
	}
	if v := env("CLICKHOUSE_DSN"); v != "" {
		cfg.DB.ClickhouseDSN = v
	}
}

func env(name string) string {
	return strings.TrimSpace(os.Getenv(name))
}

func envInt(name string) (int, bool) {
	v := env(name)
	if v == "" {
		return 0, false
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return 0, false
	}
	return i, true
}

func envDuration(name string) (time.Duration, bool) {
	v := env(name)
	if v == "" {
		return 0, false
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, false
	}
	return d, true
}
