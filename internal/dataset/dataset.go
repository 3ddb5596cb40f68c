package dataset

import (
	"math"
	"time"

	"dynamic-pricing/internal/domain"
)

// Pair is one observed (product, customer) combination. Customer attributes
// come from the pair's first row.
type Pair struct {
	ProductID string
	Customer  domain.Customer
}

// Dataset is a read-only, product-indexed view over the merged rows.
// All orderings are by first appearance in the input.
type Dataset struct {
	rows      []*domain.Transaction
	products  []string
	byProduct map[string][]*domain.Transaction
	pairs     []Pair
}

// New indexes rows. The slice is retained, not copied.
func New(rows []*domain.Transaction) *Dataset {
	d := &Dataset{
		rows:      rows,
		byProduct: make(map[string][]*domain.Transaction),
	}
	seenPair := make(map[[2]string]struct{})
	for _, r := range rows {
		if _, ok := d.byProduct[r.ProductID]; !ok {
			d.products = append(d.products, r.ProductID)
		}
		d.byProduct[r.ProductID] = append(d.byProduct[r.ProductID], r)

		key := [2]string{r.ProductID, r.CustomerID}
		if _, ok := seenPair[key]; !ok {
			seenPair[key] = struct{}{}
			d.pairs = append(d.pairs, Pair{ProductID: r.ProductID, Customer: r.Customer()})
		}
	}
	return d
}

// Rows returns all rows in input order.
func (d *Dataset) Rows() []*domain.Transaction {
	return d.rows
}

// Len returns the number of rows.
func (d *Dataset) Len() int {
	return len(d.rows)
}

// ProductIDs returns distinct product IDs in first-appearance order.
func (d *Dataset) ProductIDs() []string {
	return d.products
}

// ProductRows returns the rows of one product in input order.
func (d *Dataset) ProductRows(productID string) []*domain.Transaction {
	return d.byProduct[productID]
}

// Product returns the static product record from the product's first row.
func (d *Dataset) Product(productID string) (domain.Product, bool) {
	rows := d.byProduct[productID]
	if len(rows) == 0 {
		return domain.Product{}, false
	}
	return rows[0].Product(), true
}

// CampaignDiscount returns the campaign scalar carried by the product's first row.
func (d *Dataset) CampaignDiscount(productID string) float64 {
	rows := d.byProduct[productID]
	if len(rows) == 0 {
		return 0
	}
	return rows[0].CampaignDiscount
}

// BasePriceMean returns the mean Base_Price over the product's rows.
func (d *Dataset) BasePriceMean(productID string) float64 {
	rows := d.byProduct[productID]
	if len(rows) == 0 {
		return 0
	}
	var sum float64
	for _, r := range rows {
		sum += r.BasePrice
	}
	return sum / float64(len(rows))
}

// Pairs returns observed (product, customer) pairs in first-appearance order.
func (d *Dataset) Pairs() []Pair {
	return d.pairs
}

// DemandObservations returns the product's (date, quantity) samples in input order.
func (d *Dataset) DemandObservations(productID string) []domain.DemandObservation {
	rows := d.byProduct[productID]
	out := make([]domain.DemandObservation, 0, len(rows))
	for _, r := range rows {
		out = append(out, domain.DemandObservation{
			ProductID: r.ProductID,
			Date:      r.DateTime,
			Quantity:  r.QuantityPurchased,
		})
	}
	return out
}

// AllElasticityObservations returns (price, quantity) samples for every row in input order.
func (d *Dataset) AllElasticityObservations() []domain.ElasticityObservation {
	out := make([]domain.ElasticityObservation, 0, len(d.rows))
	for _, r := range d.rows {
		out = append(out, domain.ElasticityObservation{
			ProductID: r.ProductID,
			BasePrice: r.BasePrice,
			Quantity:  r.QuantityPurchased,
		})
	}
	return out
}

// CompetitorSnapshots returns one snapshot per row that carries competitor data.
// A row contributes when either competitor column is present; a missing column
// is reported as NaN so the aggregator skips it.
func (d *Dataset) CompetitorSnapshots() []domain.CompetitorSnapshot {
	out := make([]domain.CompetitorSnapshot, 0, len(d.rows))
	for _, r := range d.rows {
		if r.CompetitorFinalPrice == nil && r.CompetitorStockAvailability == nil {
			continue
		}
		out = append(out, domain.CompetitorSnapshot{
			ProductID:         r.ProductID,
			Date:              r.DateTime,
			FinalPrice:        valueOrNaN(r.CompetitorFinalPrice),
			StockAvailability: valueOrNaN(r.CompetitorStockAvailability),
		})
	}
	return out
}

// BroadcastCampaignDiscount sets CampaignDiscount on every row to g.
func (d *Dataset) BroadcastCampaignDiscount(g float64) {
	for _, r := range d.rows {
		r.CampaignDiscount = g
	}
}

// DateRange returns the earliest and latest row timestamps.
func (d *Dataset) DateRange() (from, to time.Time) {
	for i, r := range d.rows {
		if i == 0 || r.DateTime.Before(from) {
			from = r.DateTime
		}
		if i == 0 || r.DateTime.After(to) {
			to = r.DateTime
		}
	}
	return from, to
}

func valueOrNaN(v *float64) float64 {
	if v == nil {
		return math.NaN()
	}
	return *v
}
