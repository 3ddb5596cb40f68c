package domain

// Product represents the static record of a catalog product for one pricing run.
// Values are taken from the product's first transaction row in the merged dataset.
type Product struct {
	ProductID    string  // unique key
	CostPrice    float64 // unit purchase cost
	StorageCost  float64 // unit storage cost
	ShippingCost float64 // unit shipping cost
	BasePrice    float64 // list price before optimization
	StockLevel   float64 // units available, >= 0
}

// TotalCost returns cost + storage + shipping.
func (p Product) TotalCost() float64 {
	return p.CostPrice + p.StorageCost + p.ShippingCost
}
