package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"dynamic-pricing/internal/domain"
	"dynamic-pricing/internal/storage"
)

// TransactionStore implements storage.TransactionStore using PostgreSQL.
type TransactionStore struct {
	pool *Pool
}

// NewTransactionStore creates a new TransactionStore.
func NewTransactionStore(pool *Pool) *TransactionStore {
	return &TransactionStore{pool: pool}
}

// Compile-time interface check.
var _ storage.TransactionStore = (*TransactionStore)(nil)

var transactionColumns = []string{
	"product_id", "customer_id", "date_time", "quantity_purchased",
	"base_price", "cost_price", "storage_cost", "shipping_cost", "stock_level",
	"competitor_final_price", "competitor_stock_availability",
	"discount_sensitivity", "loyalty_score", "campaign_discount",
}

// InsertBulk adds multiple rows atomically using COPY. IDs are assigned by
// the database in input order.
func (s *TransactionStore) InsertBulk(ctx context.Context, rows []*domain.Transaction) (err error) {
	if len(rows) == 0 {
		return nil
	}
	for _, r := range rows {
		if r == nil || r.ProductID == "" || r.CustomerID == "" {
			return storage.ErrInvalidInput
		}
	}
	start := time.Now()
	defer func() { observe("insert_transactions", start, err) }()

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	src := pgx.CopyFromSlice(len(rows), func(i int) ([]any, error) {
		r := rows[i]
		return []any{
			r.ProductID, r.CustomerID, r.DateTime.UTC(), r.QuantityPurchased,
			r.BasePrice, r.CostPrice, r.StorageCost, r.ShippingCost, r.StockLevel,
			r.CompetitorFinalPrice, r.CompetitorStockAvailability,
			r.DiscountSensitivity, r.LoyaltyScore, r.CampaignDiscount,
		}, nil
	})
	if _, err := tx.CopyFrom(ctx, pgx.Identifier{"transactions"}, transactionColumns, src); err != nil {
		if isInvalidInputError(err) {
			return storage.ErrInvalidInput
		}
		return fmt.Errorf("copy transactions: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}

	return nil
}

// GetAll retrieves all rows in insertion order (id ASC).
func (s *TransactionStore) GetAll(ctx context.Context) ([]*domain.Transaction, error) {
	query := `
		SELECT
			id, product_id, customer_id, date_time, quantity_purchased,
			base_price, cost_price, storage_cost, shipping_cost, stock_level,
			competitor_final_price, competitor_stock_availability,
			discount_sensitivity, loyalty_score, campaign_discount
		FROM transactions
		ORDER BY id ASC
	`

	start := time.Now()
	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		observe("get_all_transactions", start, err)
		return nil, fmt.Errorf("get all transactions: %w", err)
	}
	defer rows.Close()

	result, err := scanTransactions(rows)
	observe("get_all_transactions", start, err)
	return result, err
}

// GetByProductID retrieves all rows for a product in insertion order.
func (s *TransactionStore) GetByProductID(ctx context.Context, productID string) ([]*domain.Transaction, error) {
	query := `
		SELECT
			id, product_id, customer_id, date_time, quantity_purchased,
			base_price, cost_price, storage_cost, shipping_cost, stock_level,
			competitor_final_price, competitor_stock_availability,
			discount_sensitivity, loyalty_score, campaign_discount
		FROM transactions
		WHERE product_id = $1
		ORDER BY id ASC
	`

	rows, err := s.pool.Query(ctx, query, productID)
	if err != nil {
		return nil, fmt.Errorf("get transactions by product id: %w", err)
	}
	defer rows.Close()

	return scanTransactions(rows)
}

// scanTransactions scans multiple rows into a slice of Transaction.
func scanTransactions(rows pgx.Rows) ([]*domain.Transaction, error) {
	var result []*domain.Transaction

	for rows.Next() {
		var t domain.Transaction

		err := rows.Scan(
			&t.ID, &t.ProductID, &t.CustomerID, &t.DateTime, &t.QuantityPurchased,
			&t.BasePrice, &t.CostPrice, &t.StorageCost, &t.ShippingCost, &t.StockLevel,
			&t.CompetitorFinalPrice, &t.CompetitorStockAvailability,
			&t.DiscountSensitivity, &t.LoyaltyScore, &t.CampaignDiscount,
		)
		if err != nil {
			return nil, fmt.Errorf("scan transaction row: %w", err)
		}
		t.DateTime = t.DateTime.UTC()
		result = append(result, &t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transaction rows: %w", err)
	}

	return result, nil
}
