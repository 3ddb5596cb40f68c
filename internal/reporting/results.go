package reporting

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"dynamic-pricing/internal/domain"
	"dynamic-pricing/internal/storage"
)

// Results are the published tables of one pricing run.
type Results struct {
	Run          domain.PricingRun
	Optimal      []*domain.OptimalPrice
	Personalized []*domain.PersonalizedPrice
}

// Overview is the headline summary of Results.
type Overview struct {
	RunID             string  `json:"run_id"`
	DatasetHash       string  `json:"dataset_hash"`
	CampaignDiscount  float64 `json:"campaign_discount"`
	TotalProducts     int     `json:"total_products"`
	PersonalizedRules int     `json:"personalized_rules"`
	Fallbacks         int     `json:"fallbacks"`
}

// Overview counts products and personalized price rows.
func (r *Results) Overview() Overview {
	return Overview{
		RunID:             r.Run.RunID,
		DatasetHash:       r.Run.DatasetHash,
		CampaignDiscount:  r.Run.CampaignDiscount,
		TotalProducts:     len(r.Optimal),
		PersonalizedRules: len(r.Personalized),
		Fallbacks:         r.Run.FallbackCount,
	}
}

// Source loads published results. Implementations never write.
type Source interface {
	Load(ctx context.Context) (*Results, error)
}

// DirSource reads results from a run output directory.
type DirSource struct {
	dir string
}

// NewDirSource creates a source over dir.
func NewDirSource(dir string) *DirSource {
	return &DirSource{dir: dir}
}

// Load reads the manifest and both tables. A missing manifest yields an
// empty run header so directories produced by other tools remain readable.
func (s *DirSource) Load(_ context.Context) (*Results, error) {
	var run domain.PricingRun
	data, err := os.ReadFile(filepath.Join(s.dir, ManifestFile))
	switch {
	case err == nil:
		if run, err = ParseManifest(data); err != nil {
			return nil, err
		}
	case !os.IsNotExist(err):
		return nil, fmt.Errorf("read manifest: %w", err)
	}

	optimal, err := parseFile(filepath.Join(s.dir, OptimalPricesFile), func(f *os.File) ([]*domain.OptimalPrice, error) {
		return ParseOptimalPricesCSV(f, run.RunID)
	})
	if err != nil {
		return nil, err
	}
	personalized, err := parseFile(filepath.Join(s.dir, PersonalizedPricesFile), func(f *os.File) ([]*domain.PersonalizedPrice, error) {
		return ParsePersonalizedPricesCSV(f, run.RunID)
	})
	if err != nil {
		return nil, err
	}

	return &Results{Run: run, Optimal: optimal, Personalized: personalized}, nil
}

func parseFile[T any](path string, parse func(*os.File) ([]T, error)) ([]T, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", filepath.Base(path), err)
	}
	defer f.Close()

	rows, err := parse(f)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", filepath.Base(path), err)
	}
	return rows, nil
}

// StoreSource reads the latest run from the result stores.
type StoreSource struct {
	runs         storage.PricingRunStore
	optimal      storage.OptimalPriceStore
	personalized storage.PersonalizedPriceStore
}

// NewStoreSource creates a source over the result stores.
func NewStoreSource(
	runs storage.PricingRunStore,
	optimal storage.OptimalPriceStore,
	personalized storage.PersonalizedPriceStore,
) *StoreSource {
	return &StoreSource{runs: runs, optimal: optimal, personalized: personalized}
}

// Load returns the most recently started run. Returns storage.ErrNotFound
// when no run was persisted.
func (s *StoreSource) Load(ctx context.Context) (*Results, error) {
	run, err := s.runs.GetLatest(ctx)
	if err != nil {
		return nil, fmt.Errorf("latest run: %w", err)
	}
	optimal, err := s.optimal.GetByRunID(ctx, run.RunID)
	if err != nil {
		return nil, fmt.Errorf("optimal prices: %w", err)
	}
	personalized, err := s.personalized.GetByRunID(ctx, run.RunID)
	if err != nil {
		return nil, fmt.Errorf("personalized prices: %w", err)
	}
	return &Results{Run: *run, Optimal: optimal, Personalized: personalized}, nil
}

var (
	_ Source = (*DirSource)(nil)
	_ Source = (*StoreSource)(nil)
)
