package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"dynamic-pricing/internal/domain"
	"dynamic-pricing/internal/storage"
)

// CampaignStore implements storage.CampaignStore using PostgreSQL.
type CampaignStore struct {
	pool *Pool
}

// NewCampaignStore creates a new CampaignStore.
func NewCampaignStore(pool *Pool) *CampaignStore {
	return &CampaignStore{pool: pool}
}

// Compile-time interface check.
var _ storage.CampaignStore = (*CampaignStore)(nil)

// Insert adds a new campaign. Returns ErrDuplicateKey if campaign_id exists.
func (s *CampaignStore) Insert(ctx context.Context, c *domain.Campaign) error {
	if c == nil || c.CampaignID == "" {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO marketing_campaigns (
			campaign_id, start_date, end_date, conversion_rate
		) VALUES ($1, $2, $3, $4)
	`

	_, err := s.pool.Exec(ctx, query, c.CampaignID, c.StartDate.UTC(), c.EndDate.UTC(), c.ConversionRate)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		if isInvalidInputError(err) {
			return storage.ErrInvalidInput
		}
		return fmt.Errorf("insert campaign: %w", err)
	}
	return nil
}

// GetAll retrieves all campaigns ordered by campaign_id ASC.
func (s *CampaignStore) GetAll(ctx context.Context) ([]*domain.Campaign, error) {
	query := `
		SELECT campaign_id, start_date, end_date, conversion_rate
		FROM marketing_campaigns
		ORDER BY campaign_id ASC
	`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("get all campaigns: %w", err)
	}
	defer rows.Close()

	return scanCampaigns(rows)
}

// GetActive retrieves campaigns with start_date <= now <= end_date.
func (s *CampaignStore) GetActive(ctx context.Context, now time.Time) ([]*domain.Campaign, error) {
	query := `
		SELECT campaign_id, start_date, end_date, conversion_rate
		FROM marketing_campaigns
		WHERE start_date <= $1 AND end_date >= $1
		ORDER BY campaign_id ASC
	`

	rows, err := s.pool.Query(ctx, query, now.UTC())
	if err != nil {
		return nil, fmt.Errorf("get active campaigns: %w", err)
	}
	defer rows.Close()

	return scanCampaigns(rows)
}

// scanCampaigns scans multiple rows into a slice of Campaign.
func scanCampaigns(rows pgx.Rows) ([]*domain.Campaign, error) {
	var campaigns []*domain.Campaign

	for rows.Next() {
		var c domain.Campaign
		if err := rows.Scan(&c.CampaignID, &c.StartDate, &c.EndDate, &c.ConversionRate); err != nil {
			return nil, fmt.Errorf("scan campaign row: %w", err)
		}
		c.StartDate = c.StartDate.UTC()
		c.EndDate = c.EndDate.UTC()
		campaigns = append(campaigns, &c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate campaign rows: %w", err)
	}

	return campaigns, nil
}
