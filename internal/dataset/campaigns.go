package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"

	"dynamic-pricing/internal/domain"
)

// Marketing campaign columns.
const (
	ColCampaignID     = "Campaign_ID"
	ColStartDate      = "Start_Date"
	ColEndDate        = "End_Date"
	ColConversionRate = "Conversion_Rate"
)

var campaignColumns = []string{ColCampaignID, ColStartDate, ColEndDate, ColConversionRate}

// ReadCampaignsCSVFile opens path and reads it with ReadCampaignsCSV.
func ReadCampaignsCSVFile(path string) ([]*domain.Campaign, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open campaigns: %w", err)
	}
	defer f.Close()
	return ReadCampaignsCSV(f)
}

// ReadCampaignsCSV reads marketing campaigns in file order.
func ReadCampaignsCSV(r io.Reader) ([]*domain.Campaign, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: empty input", ErrMissingColumn)
		}
		return nil, fmt.Errorf("read header: %w", err)
	}
	cols, err := indexColumns(header, campaignColumns)
	if err != nil {
		return nil, err
	}

	var campaigns []*domain.Campaign
	line := 1
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("read line %d: %w", line, err)
		}

		p := &fieldParser{rec: rec, cols: cols}
		c := &domain.Campaign{
			CampaignID:     p.str(ColCampaignID),
			StartDate:      p.timestamp(ColStartDate),
			EndDate:        p.timestamp(ColEndDate),
			ConversionRate: p.float(ColConversionRate),
		}
		if p.err != nil {
			return nil, fmt.Errorf("line %d: %w", line, p.err)
		}
		campaigns = append(campaigns, c)
	}
	return campaigns, nil
}
