package memory

import (
	"context"
	"sync"

	"dynamic-pricing/internal/domain"
	"dynamic-pricing/internal/storage"
)

// PricingRunStore is an in-memory implementation of storage.PricingRunStore.
type PricingRunStore struct {
	mu   sync.RWMutex
	data map[string]*domain.PricingRun // keyed by run_id
}

// NewPricingRunStore creates a new in-memory pricing run store.
func NewPricingRunStore() *PricingRunStore {
	return &PricingRunStore{
		data: make(map[string]*domain.PricingRun),
	}
}

// Insert adds a new run header. Returns ErrDuplicateKey if run_id exists.
func (s *PricingRunStore) Insert(_ context.Context, r *domain.PricingRun) error {
	if r == nil || r.RunID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[r.RunID]; exists {
		return storage.ErrDuplicateKey
	}

	copy := *r
	s.data[r.RunID] = &copy
	return nil
}

// GetByID retrieves a run by its ID. Returns ErrNotFound if not exists.
func (s *PricingRunStore) GetByID(_ context.Context, runID string) (*domain.PricingRun, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, exists := s.data[runID]
	if !exists {
		return nil, storage.ErrNotFound
	}

	copy := *r
	return &copy, nil
}

// GetLatest retrieves the most recently started run, ties broken by run_id.
func (s *PricingRunStore) GetLatest(_ context.Context) (*domain.PricingRun, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var latest *domain.PricingRun
	for _, r := range s.data {
		if latest == nil ||
			r.StartedAt.After(latest.StartedAt) ||
			(r.StartedAt.Equal(latest.StartedAt) && r.RunID > latest.RunID) {
			latest = r
		}
	}
	if latest == nil {
		return nil, storage.ErrNotFound
	}

	copy := *latest
	return &copy, nil
}

var _ storage.PricingRunStore = (*PricingRunStore)(nil)
