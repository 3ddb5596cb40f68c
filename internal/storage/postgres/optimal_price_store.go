package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"dynamic-pricing/internal/domain"
	"dynamic-pricing/internal/storage"
)

// OptimalPriceStore implements storage.OptimalPriceStore using PostgreSQL.
type OptimalPriceStore struct {
	pool *Pool
}

// NewOptimalPriceStore creates a new OptimalPriceStore.
func NewOptimalPriceStore(pool *Pool) *OptimalPriceStore {
	return &OptimalPriceStore{pool: pool}
}

// Compile-time interface check.
var _ storage.OptimalPriceStore = (*OptimalPriceStore)(nil)

// InsertBulk adds all prices of a run atomically. Fails entire batch on any
// duplicate. Prices for an unknown run return ErrInvalidInput.
func (s *OptimalPriceStore) InsertBulk(ctx context.Context, prices []*domain.OptimalPrice) (err error) {
	if len(prices) == 0 {
		return nil
	}
	for _, p := range prices {
		if p == nil || p.RunID == "" || p.ProductID == "" {
			return storage.ErrInvalidInput
		}
	}
	start := time.Now()
	defer func() { observe("insert_optimal_prices", start, err) }()

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO optimal_prices (
			run_id, product_id, price, fallback, reason
		) VALUES ($1, $2, $3, $4, $5)
	`

	for _, p := range prices {
		_, err := tx.Exec(ctx, query, p.RunID, p.ProductID, p.Price, p.Fallback, p.Reason)
		if err != nil {
			if isDuplicateKeyError(err) {
				return storage.ErrDuplicateKey
			}
			if isInvalidInputError(err) {
				return storage.ErrInvalidInput
			}
			return fmt.Errorf("insert optimal price in bulk: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}

	return nil
}

// GetByRunID retrieves all prices for a run, ordered by product_id ASC.
func (s *OptimalPriceStore) GetByRunID(ctx context.Context, runID string) ([]*domain.OptimalPrice, error) {
	query := `
		SELECT run_id, product_id, price, fallback, reason
		FROM optimal_prices
		WHERE run_id = $1
		ORDER BY product_id ASC
	`

	rows, err := s.pool.Query(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("get optimal prices by run id: %w", err)
	}
	defer rows.Close()

	var prices []*domain.OptimalPrice
	for rows.Next() {
		p, err := scanOptimalPrice(rows)
		if err != nil {
			return nil, fmt.Errorf("scan optimal price row: %w", err)
		}
		prices = append(prices, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate optimal price rows: %w", err)
	}

	return prices, nil
}

// GetByKey retrieves one price. Returns ErrNotFound if not exists.
func (s *OptimalPriceStore) GetByKey(ctx context.Context, runID, productID string) (*domain.OptimalPrice, error) {
	query := `
		SELECT run_id, product_id, price, fallback, reason
		FROM optimal_prices
		WHERE run_id = $1 AND product_id = $2
	`

	p, err := scanOptimalPrice(s.pool.QueryRow(ctx, query, runID, productID))
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get optimal price by key: %w", err)
	}
	return p, nil
}

// scanOptimalPrice scans a single row into an OptimalPrice.
func scanOptimalPrice(row pgx.Row) (*domain.OptimalPrice, error) {
	var p domain.OptimalPrice
	if err := row.Scan(&p.RunID, &p.ProductID, &p.Price, &p.Fallback, &p.Reason); err != nil {
		return nil, err
	}
	return &p, nil
}
