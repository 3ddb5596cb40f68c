package idhash

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"time"

	"dynamic-pricing/internal/domain"
)

// ComputeDatasetHash computes a deterministic hash over the merged input rows.
// Formula: SHA256(row_1 \n row_2 \n ...), each row serialized as
// product|customer|datetime|qty|base|cost|storage|shipping|stock|cprice|cstock|sensitivity|loyalty|campaign
// Row order matters. Returns hex-encoded hash (64 characters).
func ComputeDatasetHash(rows []*domain.Transaction) string {
	h := sha256.New()
	for _, r := range rows {
		fmt.Fprintf(h, "%s|%s|%s|%s|%s|%s|%s|%s|%s|%s|%s|%s|%s|%s\n",
			r.ProductID,
			r.CustomerID,
			r.DateTime.UTC().Format(time.RFC3339Nano),
			formatFloat(r.QuantityPurchased),
			formatFloat(r.BasePrice),
			formatFloat(r.CostPrice),
			formatFloat(r.StorageCost),
			formatFloat(r.ShippingCost),
			formatFloat(r.StockLevel),
			formatOptional(r.CompetitorFinalPrice),
			formatOptional(r.CompetitorStockAvailability),
			r.DiscountSensitivity,
			formatFloat(r.LoyaltyScore),
			formatFloat(r.CampaignDiscount),
		)
	}
	return hex.EncodeToString(h.Sum(nil))
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func formatOptional(v *float64) string {
	if v == nil {
		return ""
	}
	return formatFloat(*v)
}
