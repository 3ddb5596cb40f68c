package storage

import (
	"context"
	"time"

	"dynamic-pricing/internal/domain"
)

// TransactionStore provides access to the merged transactions dataset.
type TransactionStore interface {
	// InsertBulk adds multiple rows atomically.
	InsertBulk(ctx context.Context, rows []*domain.Transaction) error

	// GetAll retrieves all rows in insertion order (id ASC).
	GetAll(ctx context.Context) ([]*domain.Transaction, error)

	// GetByProductID retrieves all rows for a product in insertion order.
	GetByProductID(ctx context.Context, productID string) ([]*domain.Transaction, error)
}

// CampaignStore provides access to marketing_campaigns storage.
type CampaignStore interface {
	// Insert adds a new campaign. Returns ErrDuplicateKey if campaign_id exists.
	Insert(ctx context.Context, c *domain.Campaign) error

	// GetAll retrieves all campaigns ordered by campaign_id ASC.
	GetAll(ctx context.Context) ([]*domain.Campaign, error)

	// GetActive retrieves campaigns with start_date <= now <= end_date.
	GetActive(ctx context.Context, now time.Time) ([]*domain.Campaign, error)
}

// PricingRunStore provides access to pricing_runs storage.
type PricingRunStore interface {
	// Insert adds a new run header. Returns ErrDuplicateKey if run_id exists.
	Insert(ctx context.Context, r *domain.PricingRun) error

	// GetByID retrieves a run by its ID. Returns ErrNotFound if not exists.
	GetByID(ctx context.Context, runID string) (*domain.PricingRun, error)

	// GetLatest retrieves the most recently started run. Returns ErrNotFound if none.
	GetLatest(ctx context.Context) (*domain.PricingRun, error)
}

// OptimalPriceStore provides access to optimal_prices storage.
// Rows are immutable once written.
type OptimalPriceStore interface {
	// InsertBulk adds all prices of a run atomically. Fails entire batch on
	// duplicate (run_id, product_id).
	InsertBulk(ctx context.Context, prices []*domain.OptimalPrice) error

	// GetByRunID retrieves all prices for a run, ordered by product_id ASC.
	GetByRunID(ctx context.Context, runID string) ([]*domain.OptimalPrice, error)

	// GetByKey retrieves one price. Returns ErrNotFound if not exists.
	GetByKey(ctx context.Context, runID, productID string) (*domain.OptimalPrice, error)
}

// PersonalizedPriceStore provides access to personalized_prices storage.
// Rows are immutable once written.
type PersonalizedPriceStore interface {
	// InsertBulk adds all prices of a run atomically. Fails entire batch on
	// duplicate (run_id, product_id, customer_id).
	InsertBulk(ctx context.Context, prices []*domain.PersonalizedPrice) error

	// GetByRunID retrieves all prices for a run, ordered by (product_id, customer_id) ASC.
	GetByRunID(ctx context.Context, runID string) ([]*domain.PersonalizedPrice, error)

	// GetByProduct retrieves all customer prices for one product in a run.
	GetByProduct(ctx context.Context, runID, productID string) ([]*domain.PersonalizedPrice, error)
}
