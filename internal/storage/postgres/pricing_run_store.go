package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"dynamic-pricing/internal/domain"
	"dynamic-pricing/internal/storage"
)

// PricingRunStore implements storage.PricingRunStore using PostgreSQL.
type PricingRunStore struct {
	pool *Pool
}

// NewPricingRunStore creates a new PricingRunStore.
func NewPricingRunStore(pool *Pool) *PricingRunStore {
	return &PricingRunStore{pool: pool}
}

// Compile-time interface check.
var _ storage.PricingRunStore = (*PricingRunStore)(nil)

// Insert adds a new run header. Returns ErrDuplicateKey if run_id exists.
func (s *PricingRunStore) Insert(ctx context.Context, r *domain.PricingRun) error {
	if r == nil || r.RunID == "" {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO pricing_runs (
			run_id, dataset_hash, campaign_discount,
			product_count, personalized_count, fallback_count,
			started_at, completed_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := s.pool.Exec(ctx, query,
		r.RunID, r.DatasetHash, r.CampaignDiscount,
		r.ProductCount, r.PersonalizedCount, r.FallbackCount,
		r.StartedAt.UTC(), r.CompletedAt.UTC(),
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert pricing run: %w", err)
	}
	return nil
}

// GetByID retrieves a run by its ID. Returns ErrNotFound if not exists.
func (s *PricingRunStore) GetByID(ctx context.Context, runID string) (*domain.PricingRun, error) {
	query := `
		SELECT
			run_id, dataset_hash, campaign_discount,
			product_count, personalized_count, fallback_count,
			started_at, completed_at
		FROM pricing_runs
		WHERE run_id = $1
	`

	r, err := scanPricingRun(s.pool.QueryRow(ctx, query, runID))
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get pricing run by id: %w", err)
	}
	return r, nil
}

// GetLatest retrieves the most recently started run, ties broken by run_id.
func (s *PricingRunStore) GetLatest(ctx context.Context) (*domain.PricingRun, error) {
	query := `
		SELECT
			run_id, dataset_hash, campaign_discount,
			product_count, personalized_count, fallback_count,
			started_at, completed_at
		FROM pricing_runs
		ORDER BY started_at DESC, run_id DESC
		LIMIT 1
	`

	r, err := scanPricingRun(s.pool.QueryRow(ctx, query))
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get latest pricing run: %w", err)
	}
	return r, nil
}

// scanPricingRun scans a single row into a PricingRun.
func scanPricingRun(row pgx.Row) (*domain.PricingRun, error) {
	var r domain.PricingRun

	err := row.Scan(
		&r.RunID, &r.DatasetHash, &r.CampaignDiscount,
		&r.ProductCount, &r.PersonalizedCount, &r.FallbackCount,
		&r.StartedAt, &r.CompletedAt,
	)
	if err != nil {
		return nil, err
	}

	r.StartedAt = r.StartedAt.UTC()
	r.CompletedAt = r.CompletedAt.UTC()
	return &r, nil
}
