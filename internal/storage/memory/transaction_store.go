package memory

import (
	"context"
	"sync"

	"dynamic-pricing/internal/domain"
	"dynamic-pricing/internal/storage"
)

// TransactionStore is an in-memory implementation of storage.TransactionStore.
type TransactionStore struct {
	mu     sync.RWMutex
	rows   []*domain.Transaction // insertion order
	nextID int64
}

// NewTransactionStore creates a new in-memory transaction store.
func NewTransactionStore() *TransactionStore {
	return &TransactionStore{nextID: 1}
}

// InsertBulk adds multiple rows atomically. Assigns IDs to rows without one.
func (s *TransactionStore) InsertBulk(_ context.Context, rows []*domain.Transaction) error {
	if len(rows) == 0 {
		return nil
	}

	for _, r := range rows {
		if r == nil || r.ProductID == "" || r.CustomerID == "" {
			return storage.ErrInvalidInput
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, r := range rows {
		copy := *r
		if copy.ID == 0 {
			copy.ID = s.nextID
		}
		if copy.ID >= s.nextID {
			s.nextID = copy.ID + 1
		}
		s.rows = append(s.rows, &copy)
	}
	return nil
}

// GetAll retrieves all rows in insertion order.
func (s *TransactionStore) GetAll(_ context.Context) ([]*domain.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.Transaction, 0, len(s.rows))
	for _, r := range s.rows {
		copy := *r
		result = append(result, &copy)
	}
	return result, nil
}

// GetByProductID retrieves all rows for a product in insertion order.
func (s *TransactionStore) GetByProductID(_ context.Context, productID string) ([]*domain.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.Transaction
	for _, r := range s.rows {
		if r.ProductID == productID {
			copy := *r
			result = append(result, &copy)
		}
	}
	return result, nil
}

var _ storage.TransactionStore = (*TransactionStore)(nil)
