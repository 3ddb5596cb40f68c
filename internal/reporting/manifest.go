package reporting

import (
	"fmt"
	"time"

	"gopkg.in/yaml.v3"

	"dynamic-pricing/internal/domain"
)

// Manifest is the run header written next to the output tables so that
// readers of an output directory can identify the run.
type Manifest struct {
	RunID             string    `yaml:"run_id"`
	DatasetHash       string    `yaml:"dataset_hash"`
	CampaignDiscount  float64   `yaml:"campaign_discount"`
	ProductCount      int       `yaml:"product_count"`
	PersonalizedCount int       `yaml:"personalized_count"`
	FallbackCount     int       `yaml:"fallback_count"`
	StartedAt         time.Time `yaml:"started_at"`
	CompletedAt       time.Time `yaml:"completed_at"`
}

// RenderManifest encodes the run header as YAML.
func RenderManifest(run domain.PricingRun) ([]byte, error) {
	m := Manifest{
		RunID:             run.RunID,
		DatasetHash:       run.DatasetHash,
		CampaignDiscount:  run.CampaignDiscount,
		ProductCount:      run.ProductCount,
		PersonalizedCount: run.PersonalizedCount,
		FallbackCount:     run.FallbackCount,
		StartedAt:         run.StartedAt.UTC(),
		CompletedAt:       run.CompletedAt.UTC(),
	}
	data, err := yaml.Marshal(&m)
	if err != nil {
		return nil, fmt.Errorf("encode manifest: %w", err)
	}
	return data, nil
}

// ParseManifest decodes a run header written by RenderManifest.
func ParseManifest(data []byte) (domain.PricingRun, error) {
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return domain.PricingRun{}, fmt.Errorf("decode manifest: %w", err)
	}
	if m.RunID == "" {
		return domain.PricingRun{}, fmt.Errorf("decode manifest: missing run_id")
	}
	return domain.PricingRun{
		RunID:             m.RunID,
		DatasetHash:       m.DatasetHash,
		CampaignDiscount:  m.CampaignDiscount,
		ProductCount:      m.ProductCount,
		PersonalizedCount: m.PersonalizedCount,
		FallbackCount:     m.FallbackCount,
		StartedAt:         m.StartedAt,
		CompletedAt:       m.CompletedAt,
	}, nil
}
