package clickhouse

import (
	"context"
	"fmt"
	"time"

	"dynamic-pricing/internal/domain"
	"dynamic-pricing/internal/observability"
	"dynamic-pricing/internal/storage"
)

// PersonalizedPriceStore implements storage.PersonalizedPriceStore using ClickHouse.
type PersonalizedPriceStore struct {
	conn *Conn
}

// NewPersonalizedPriceStore creates a new PersonalizedPriceStore.
func NewPersonalizedPriceStore(conn *Conn) *PersonalizedPriceStore {
	return &PersonalizedPriceStore{conn: conn}
}

// Compile-time interface check.
var _ storage.PersonalizedPriceStore = (*PersonalizedPriceStore)(nil)

// InsertBulk adds all prices of a run atomically. Fails entire batch on any duplicate.
func (s *PersonalizedPriceStore) InsertBulk(ctx context.Context, prices []*domain.PersonalizedPrice) (err error) {
	if len(prices) == 0 {
		return nil
	}
	start := time.Now()
	defer func() { observability.RecordDBQuery("clickhouse", "insert_personalized_prices", time.Since(start).Seconds(), err) }()

	// Check for intra-batch duplicates
	seen := make(map[string]struct{}, len(prices))
	runs := make(map[string]struct{})
	for _, p := range prices {
		if p == nil || p.RunID == "" || p.ProductID == "" || p.CustomerID == "" {
			return storage.ErrInvalidInput
		}
		key := p.RunID + "|" + p.ProductID + "|" + p.CustomerID
		if _, exists := seen[key]; exists {
			return storage.ErrDuplicateKey
		}
		seen[key] = struct{}{}
		runs[p.RunID] = struct{}{}
	}

	// Rows of a run are written once; any existing row for the run is a duplicate
	for runID := range runs {
		exists, err := s.runExists(ctx, runID)
		if err != nil {
			return fmt.Errorf("check exists: %w", err)
		}
		if exists {
			return storage.ErrDuplicateKey
		}
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO personalized_prices (
			run_id, product_id, customer_id, price, rule
		)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, p := range prices {
		if err := batch.Append(p.RunID, p.ProductID, p.CustomerID, p.Price, p.Rule); err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}

	return nil
}

// GetByRunID retrieves all prices for a run, ordered by (product_id, customer_id) ASC.
func (s *PersonalizedPriceStore) GetByRunID(ctx context.Context, runID string) ([]*domain.PersonalizedPrice, error) {
	query := `
		SELECT run_id, product_id, customer_id, price, rule
		FROM personalized_prices FINAL
		WHERE run_id = ?
		ORDER BY product_id ASC, customer_id ASC
	`

	rows, err := s.conn.Query(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("query by run: %w", err)
	}
	defer rows.Close()

	return scanPersonalizedPrices(rows)
}

// GetByProduct retrieves all customer prices for one product in a run.
func (s *PersonalizedPriceStore) GetByProduct(ctx context.Context, runID, productID string) ([]*domain.PersonalizedPrice, error) {
	query := `
		SELECT run_id, product_id, customer_id, price, rule
		FROM personalized_prices FINAL
		WHERE run_id = ? AND product_id = ?
		ORDER BY customer_id ASC
	`

	rows, err := s.conn.Query(ctx, query, runID, productID)
	if err != nil {
		return nil, fmt.Errorf("query by product: %w", err)
	}
	defer rows.Close()

	return scanPersonalizedPrices(rows)
}

// runExists checks if any price was written for runID.
func (s *PersonalizedPriceStore) runExists(ctx context.Context, runID string) (bool, error) {
	query := `SELECT count(*) FROM personalized_prices WHERE run_id = ?`

	var count uint64
	if err := s.conn.QueryRow(ctx, query, runID).Scan(&count); err != nil {
		return false, err
	}
	return count > 0, nil
}

// Rows interface for scanning
type chRows interface {
	Next() bool
	Scan(dest ...interface{}) error
	Err() error
}

// scanPersonalizedPrices scans multiple rows into a slice.
func scanPersonalizedPrices(rows chRows) ([]*domain.PersonalizedPrice, error) {
	var prices []*domain.PersonalizedPrice

	for rows.Next() {
		var p domain.PersonalizedPrice
		if err := rows.Scan(&p.RunID, &p.ProductID, &p.CustomerID, &p.Price, &p.Rule); err != nil {
			return nil, fmt.Errorf("scan personalized price row: %w", err)
		}
		prices = append(prices, &p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate personalized price rows: %w", err)
	}

	return prices, nil
}
