package memory

import (
	"context"
	"sort"
	"sync"

	"dynamic-pricing/internal/domain"
	"dynamic-pricing/internal/storage"
)

type optimalPriceKey struct {
	runID     string
	productID string
}

// OptimalPriceStore is an in-memory implementation of storage.OptimalPriceStore.
type OptimalPriceStore struct {
	mu   sync.RWMutex
	data map[optimalPriceKey]*domain.OptimalPrice
}

// NewOptimalPriceStore creates a new in-memory optimal price store.
func NewOptimalPriceStore() *OptimalPriceStore {
	return &OptimalPriceStore{
		data: make(map[optimalPriceKey]*domain.OptimalPrice),
	}
}

// InsertBulk adds all prices atomically. Fails entire batch on any duplicate.
func (s *OptimalPriceStore) InsertBulk(_ context.Context, prices []*domain.OptimalPrice) error {
	if len(prices) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Track keys in this batch to detect intra-batch duplicates
	batchKeys := make(map[optimalPriceKey]struct{}, len(prices))

	for _, p := range prices {
		if p == nil || p.RunID == "" || p.ProductID == "" {
			return storage.ErrInvalidInput
		}
		k := optimalPriceKey{p.RunID, p.ProductID}
		if _, exists := s.data[k]; exists {
			return storage.ErrDuplicateKey
		}
		if _, exists := batchKeys[k]; exists {
			return storage.ErrDuplicateKey
		}
		batchKeys[k] = struct{}{}
	}

	for _, p := range prices {
		copy := *p
		s.data[optimalPriceKey{p.RunID, p.ProductID}] = &copy
	}
	return nil
}

// GetByRunID retrieves all prices for a run, ordered by product_id ASC.
func (s *OptimalPriceStore) GetByRunID(_ context.Context, runID string) ([]*domain.OptimalPrice, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.OptimalPrice
	for k, p := range s.data {
		if k.runID == runID {
			copy := *p
			result = append(result, &copy)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].ProductID < result[j].ProductID
	})
	return result, nil
}

// GetByKey retrieves one price. Returns ErrNotFound if not exists.
func (s *OptimalPriceStore) GetByKey(_ context.Context, runID, productID string) (*domain.OptimalPrice, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, exists := s.data[optimalPriceKey{runID, productID}]
	if !exists {
		return nil, storage.ErrNotFound
	}

	copy := *p
	return &copy, nil
}

var _ storage.OptimalPriceStore = (*OptimalPriceStore)(nil)
