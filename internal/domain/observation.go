package domain

import "time"

// DemandObservation is a single (product, date, quantity) sample.
type DemandObservation struct {
	ProductID string
	Date      time.Time
	Quantity  float64
}

// DailyDemand is the total quantity for one product on one calendar day.
// Same-date observations are summed before forecasting.
type DailyDemand struct {
	Date     time.Time // truncated to midnight UTC
	Quantity float64
}

// ElasticityObservation is a (price, quantity) pair for one product.
type ElasticityObservation struct {
	ProductID string
	BasePrice float64
	Quantity  float64
}

// CompetitorSnapshot is a competitor price/stock observation for one product.
type CompetitorSnapshot struct {
	ProductID         string
	Date              time.Time
	FinalPrice        float64
	StockAvailability float64
}
