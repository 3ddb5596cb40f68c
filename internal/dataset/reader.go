package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"dynamic-pricing/internal/domain"
)

// Merged dataset columns.
const (
	ColProductID                   = "Product_ID"
	ColCustomerID                  = "Customer_ID"
	ColDateTime                    = "DateTime"
	ColQuantityPurchased           = "Quantity_Purchased"
	ColBasePrice                   = "Base_Price"
	ColCostPrice                   = "Cost_Price"
	ColStorageCost                 = "Storage_Cost"
	ColShippingCost                = "Shipping_Cost"
	ColStockLevel                  = "Stock_Level"
	ColCompetitorFinalPrice        = "Competitor_Final_Price"
	ColCompetitorStockAvailability = "Competitor_Stock_Availability"
	ColDiscountSensitivity         = "Discount_Sensitivity"
	ColLoyaltyScore                = "Loyalty_Score"
	ColCampaignDiscount            = "Campaign_Discount"
)

var requiredColumns = []string{
	ColProductID,
	ColCustomerID,
	ColDateTime,
	ColQuantityPurchased,
	ColBasePrice,
	ColCostPrice,
	ColStorageCost,
	ColShippingCost,
	ColStockLevel,
	ColCompetitorFinalPrice,
	ColCompetitorStockAvailability,
	ColDiscountSensitivity,
	ColLoyaltyScore,
}

// ReadCSVFile opens path and reads it with ReadCSV.
func ReadCSVFile(path string) ([]*domain.Transaction, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open dataset: %w", err)
	}
	defer f.Close()
	return ReadCSV(f)
}

// ReadCSV reads the merged per-transaction dataset.
// Rows are returned in file order. Blank Competitor_Final_Price takes the
// row's Base_Price; blank Competitor_Stock_Availability stays nil; a missing
// or blank Campaign_Discount is 0.
func ReadCSV(r io.Reader) ([]*domain.Transaction, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: empty input", ErrMissingColumn)
		}
		return nil, fmt.Errorf("read header: %w", err)
	}
	cols, err := indexColumns(header, requiredColumns)
	if err != nil {
		return nil, err
	}

	var rows []*domain.Transaction
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

		tx, err := parseTransaction(rec, cols)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		rows = append(rows, tx)
	}
	return rows, nil
}

func parseTransaction(rec []string, cols map[string]int) (*domain.Transaction, error) {
	p := &fieldParser{rec: rec, cols: cols}

	tx := &domain.Transaction{
		ProductID:           p.str(ColProductID),
		CustomerID:          p.str(ColCustomerID),
		DateTime:            p.timestamp(ColDateTime),
		QuantityPurchased:   p.float(ColQuantityPurchased),
		BasePrice:           p.float(ColBasePrice),
		CostPrice:           p.float(ColCostPrice),
		StorageCost:         p.float(ColStorageCost),
		ShippingCost:        p.float(ColShippingCost),
		StockLevel:          p.float(ColStockLevel),
		DiscountSensitivity: p.str(ColDiscountSensitivity),
		LoyaltyScore:        p.float(ColLoyaltyScore),
	}
	tx.CompetitorFinalPrice = p.optionalFloat(ColCompetitorFinalPrice)
	tx.CompetitorStockAvailability = p.optionalFloat(ColCompetitorStockAvailability)
	if g := p.optionalFloat(ColCampaignDiscount); g != nil {
		tx.CampaignDiscount = *g
	}
	if p.err != nil {
		return nil, p.err
	}

	if tx.ProductID == "" {
		return nil, fmt.Errorf("%w: empty %s", ErrInvalidValue, ColProductID)
	}
	if tx.CustomerID == "" {
		return nil, fmt.Errorf("%w: empty %s", ErrInvalidValue, ColCustomerID)
	}
	if tx.CompetitorFinalPrice == nil {
		base := tx.BasePrice
		tx.CompetitorFinalPrice = &base
	}
	return tx, nil
}

func indexColumns(header, required []string) (map[string]int, error) {
	cols := make(map[string]int, len(header))
	for i, h := range header {
		cols[strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))] = i
	}
	for _, name := range required {
		if _, ok := cols[name]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrMissingColumn, name)
		}
	}
	return cols, nil
}

// fieldParser reads typed cells from one record, keeping the first error.
type fieldParser struct {
	rec  []string
	cols map[string]int
	err  error
}

func (p *fieldParser) raw(col string) (string, bool) {
	i, ok := p.cols[col]
	if !ok || i >= len(p.rec) {
		return "", false
	}
	return strings.TrimSpace(p.rec[i]), true
}

func (p *fieldParser) str(col string) string {
	s, _ := p.raw(col)
	return s
}

func (p *fieldParser) float(col string) float64 {
	s, _ := p.raw(col)
	if p.err != nil {
		return 0
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		p.err = fmt.Errorf("%w: %s=%q", ErrInvalidValue, col, s)
		return 0
	}
	return v
}

func (p *fieldParser) optionalFloat(col string) *float64 {
	s, ok := p.raw(col)
	if !ok || s == "" || p.err != nil {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		p.err = fmt.Errorf("%w: %s=%q", ErrInvalidValue, col, s)
		return nil
	}
	return &v
}

func (p *fieldParser) timestamp(col string) time.Time {
	s, _ := p.raw(col)
	if p.err != nil {
		return time.Time{}
	}
	t, err := ParseTime(s)
	if err != nil {
		p.err = fmt.Errorf("%s: %w", col, err)
		return time.Time{}
	}
	return t
}
