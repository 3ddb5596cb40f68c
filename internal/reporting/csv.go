package reporting

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/shopspring/decimal"

	"dynamic-pricing/internal/domain"
)

// CSV headers of the two output tables.
const (
	optimalPricesHeader      = "Product_ID,Optimal_Price"
	personalizedPricesHeader = "Product_ID,Customer_ID,Personalized_Price"
)

// ErrMalformedCSV is returned when an output table cannot be parsed back.
var ErrMalformedCSV = errors.New("malformed csv")

// FormatPrice renders a price as the shortest decimal that round-trips.
func FormatPrice(p float64) string {
	return decimal.NewFromFloat(p).String()
}

// formatMoney renders a value with two decimals for human-facing tables.
func formatMoney(v float64) string {
	return decimal.NewFromFloat(v).StringFixed(2)
}

// RenderOptimalPricesCSV renders optimal prices as CSV string.
func RenderOptimalPricesCSV(prices []*domain.OptimalPrice) string {
	rows := make([][]string, 0, len(prices))
	for _, p := range prices {
		rows = append(rows, []string{p.ProductID, FormatPrice(p.Price)})
	}
	return renderTable(optimalPricesHeader, rows)
}

// RenderPersonalizedPricesCSV renders personalized prices as CSV string.
func RenderPersonalizedPricesCSV(prices []*domain.PersonalizedPrice) string {
	rows := make([][]string, 0, len(prices))
	for _, p := range prices {
		rows = append(rows, []string{p.ProductID, p.CustomerID, FormatPrice(p.Price)})
	}
	return renderTable(personalizedPricesHeader, rows)
}

// renderTable quotes IDs containing commas, quotes or newlines.
// Writes into a strings.Builder cannot fail.
func renderTable(header string, rows [][]string) string {
	var sb strings.Builder

	w := csv.NewWriter(&sb)
	_ = w.Write(strings.Split(header, ","))
	_ = w.WriteAll(rows)

	return sb.String()
}

// ParseOptimalPricesCSV reads a table written by RenderOptimalPricesCSV.
// Rows are stamped with runID.
func ParseOptimalPricesCSV(r io.Reader, runID string) ([]*domain.OptimalPrice, error) {
	records, err := readTable(r, optimalPricesHeader)
	if err != nil {
		return nil, err
	}

	out := make([]*domain.OptimalPrice, 0, len(records))
	for i, rec := range records {
		price, err := parsePrice(rec[1])
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", ErrMalformedCSV, i+2, err)
		}
		out = append(out, &domain.OptimalPrice{
			RunID:     runID,
			ProductID: rec[0],
			Price:     price,
		})
	}
	return out, nil
}

// ParsePersonalizedPricesCSV reads a table written by RenderPersonalizedPricesCSV.
// Rows are stamped with runID; the rule code is not part of the table.
func ParsePersonalizedPricesCSV(r io.Reader, runID string) ([]*domain.PersonalizedPrice, error) {
	records, err := readTable(r, personalizedPricesHeader)
	if err != nil {
		return nil, err
	}

	out := make([]*domain.PersonalizedPrice, 0, len(records))
	for i, rec := range records {
		price, err := parsePrice(rec[2])
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", ErrMalformedCSV, i+2, err)
		}
		out = append(out, &domain.PersonalizedPrice{
			RunID:      runID,
			ProductID:  rec[0],
			CustomerID: rec[1],
			Price:      price,
		})
	}
	return out, nil
}

func readTable(r io.Reader, header string) ([][]string, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = strings.Count(header, ",") + 1

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedCSV, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: missing header", ErrMalformedCSV)
	}
	if got := strings.Join(records[0], ","); got != header {
		return nil, fmt.Errorf("%w: header %q, want %q", ErrMalformedCSV, got, header)
	}
	return records[1:], nil
}

func parsePrice(s string) (float64, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, err
	}
	return d.InexactFloat64(), nil
}
