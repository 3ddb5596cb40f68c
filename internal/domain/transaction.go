package domain

import "time"

// Transaction is one row of the merged, row-per-transaction dataset.
// Corresponds to the transactions table in PostgreSQL.
type Transaction struct {
	ID                          int64     // BIGSERIAL primary key (0 when not persisted)
	ProductID                   string    // product key
	CustomerID                  string    // customer key
	DateTime                    time.Time // transaction timestamp
	QuantityPurchased           float64   // units purchased
	BasePrice                   float64   // product base price at transaction time
	CostPrice                   float64   // product cost price
	StorageCost                 float64   // product storage cost
	ShippingCost                float64   // product shipping cost
	StockLevel                  float64   // product stock level
	CompetitorFinalPrice        *float64  // competitor final price (nullable)
	CompetitorStockAvailability *float64  // competitor stock availability (nullable)
	DiscountSensitivity         string    // "High" | "Medium" | "Low" | ...
	LoyaltyScore                float64   // 0-100
	CampaignDiscount            float64   // resolved run-wide campaign scalar
}

// Product extracts the static product record carried by this row.
func (t *Transaction) Product() Product {
	return Product{
		ProductID:    t.ProductID,
		CostPrice:    t.CostPrice,
		StorageCost:  t.StorageCost,
		ShippingCost: t.ShippingCost,
		BasePrice:    t.BasePrice,
		StockLevel:   t.StockLevel,
	}
}

// Customer extracts the customer attributes carried by this row.
func (t *Transaction) Customer() Customer {
	return Customer{
		CustomerID:          t.CustomerID,
		DiscountSensitivity: t.DiscountSensitivity,
		LoyaltyScore:        t.LoyaltyScore,
	}
}
