package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"dynamic-pricing/internal/domain"
	"dynamic-pricing/internal/storage"
)

// CampaignStore is an in-memory implementation of storage.CampaignStore.
type CampaignStore struct {
	mu   sync.RWMutex
	data map[string]*domain.Campaign // keyed by campaign_id
}

// NewCampaignStore creates a new in-memory campaign store.
func NewCampaignStore() *CampaignStore {
	return &CampaignStore{
		data: make(map[string]*domain.Campaign),
	}
}

// Insert adds a new campaign. Returns ErrDuplicateKey if campaign_id exists.
func (s *CampaignStore) Insert(_ context.Context, c *domain.Campaign) error {
	if c == nil || c.CampaignID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[c.CampaignID]; exists {
		return storage.ErrDuplicateKey
	}

	copy := *c
	s.data[c.CampaignID] = &copy
	return nil
}

// GetAll retrieves all campaigns ordered by campaign_id ASC.
func (s *CampaignStore) GetAll(_ context.Context) ([]*domain.Campaign, error) {
	return s.filter(func(*domain.Campaign) bool { return true }), nil
}

// GetActive retrieves campaigns with start_date <= now <= end_date.
func (s *CampaignStore) GetActive(_ context.Context, now time.Time) ([]*domain.Campaign, error) {
	return s.filter(func(c *domain.Campaign) bool { return c.IsActive(now) }), nil
}

func (s *CampaignStore) filter(keep func(*domain.Campaign) bool) []*domain.Campaign {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.Campaign
	for _, c := range s.data {
		if keep(c) {
			copy := *c
			result = append(result, &copy)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].CampaignID < result[j].CampaignID
	})
	return result
}

var _ storage.CampaignStore = (*CampaignStore)(nil)
