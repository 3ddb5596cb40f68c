package memory

import (
	"context"
	"sort"
	"sync"

	"dynamic-pricing/internal/domain"
	"dynamic-pricing/internal/storage"
)

type personalizedPriceKey struct {
	runID      string
	productID  string
	customerID string
}

// PersonalizedPriceStore is an in-memory implementation of storage.PersonalizedPriceStore.
type PersonalizedPriceStore struct {
	mu   sync.RWMutex
	data map[personalizedPriceKey]*domain.PersonalizedPrice
}

// NewPersonalizedPriceStore creates a new in-memory personalized price store.
func NewPersonalizedPriceStore() *PersonalizedPriceStore {
	return &PersonalizedPriceStore{
		data: make(map[personalizedPriceKey]*domain.PersonalizedPrice),
	}
}

// InsertBulk adds all prices atomically. Fails entire batch on any duplicate.
func (s *PersonalizedPriceStore) InsertBulk(_ context.Context, prices []*domain.PersonalizedPrice) error {
	if len(prices) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	batchKeys := make(map[personalizedPriceKey]struct{}, len(prices))

	for _, p := range prices {
		if p == nil || p.RunID == "" || p.ProductID == "" || p.CustomerID == "" {
			return storage.ErrInvalidInput
		}
		k := personalizedPriceKey{p.RunID, p.ProductID, p.CustomerID}
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
		s.data[personalizedPriceKey{p.RunID, p.ProductID, p.CustomerID}] = &copy
	}
	return nil
}

// GetByRunID retrieves all prices for a run, ordered by (product_id, customer_id) ASC.
func (s *PersonalizedPriceStore) GetByRunID(_ context.Context, runID string) ([]*domain.PersonalizedPrice, error) {
	return s.collect(func(k personalizedPriceKey) bool { return k.runID == runID }), nil
}

// GetByProduct retrieves all customer prices for one product in a run.
func (s *PersonalizedPriceStore) GetByProduct(_ context.Context, runID, productID string) ([]*domain.PersonalizedPrice, error) {
	return s.collect(func(k personalizedPriceKey) bool {
		return k.runID == runID && k.productID == productID
	}), nil
}

func (s *PersonalizedPriceStore) collect(match func(personalizedPriceKey) bool) []*domain.PersonalizedPrice {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.PersonalizedPrice
	for k, p := range s.data {
		if match(k) {
			copy := *p
			result = append(result, &copy)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].ProductID != result[j].ProductID {
			return result[i].ProductID < result[j].ProductID
		}
		return result[i].CustomerID < result[j].CustomerID
	})
	return result
}

var _ storage.PersonalizedPriceStore = (*PersonalizedPriceStore)(nil)
