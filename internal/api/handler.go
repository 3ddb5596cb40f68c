package api

import (
	"errors"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"

	"dynamic-pricing/internal/observability"
	"dynamic-pricing/internal/platform/logger"
	"dynamic-pricing/internal/reporting"
	"dynamic-pricing/internal/storage"
)

// Handler answers result requests from a reporting.Source. Results are
// loaded per request so a new pipeline run is picked up without restart.
type Handler struct {
	source reporting.Source
	log    *logger.Logger
}

// NewHandler creates a handler over source.
func NewHandler(source reporting.Source, log *logger.Logger) *Handler {
	return &Handler{
		source: source,
		log:    logger.OrNop(log).With("component", "api"),
	}
}

// OptimalPriceJSON is one row of GET /api/optimal-prices.
type OptimalPriceJSON struct {
	ProductID    string  `json:"product_id"`
	OptimalPrice float64 `json:"optimal_price"`
	Fallback     bool    `json:"fallback,omitempty"`
	Reason       string  `json:"reason,omitempty"`
}

// PersonalizedPriceJSON is one row of GET /api/personalized-prices.
type PersonalizedPriceJSON struct {
	ProductID         string  `json:"product_id"`
	CustomerID        string  `json:"customer_id"`
	PersonalizedPrice float64 `json:"personalized_price"`
	Rule              string  `json:"rule,omitempty"`
}

// Health handles GET /health.
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Overview handles GET /api/overview.
func (h *Handler) Overview(c *gin.Context) {
	res, ok := h.load(c, "overview")
	if !ok {
		return
	}
	c.JSON(http.StatusOK, res.Overview())
}

// OptimalPrices handles GET /api/optimal-prices. An optional product_id
// query parameter narrows the result.
func (h *Handler) OptimalPrices(c *gin.Context) {
	res, ok := h.load(c, "optimal_prices")
	if !ok {
		return
	}
	productID := c.Query("product_id")

	out := make([]OptimalPriceJSON, 0, len(res.Optimal))
	for _, p := range res.Optimal {
		if productID != "" && p.ProductID != productID {
			continue
		}
		out = append(out, OptimalPriceJSON{
			ProductID:    p.ProductID,
			OptimalPrice: p.Price,
			Fallback:     p.Fallback,
			Reason:       p.Reason,
		})
	}
	c.JSON(http.StatusOK, out)
}

// PersonalizedPrices handles GET /api/personalized-prices. Optional
// product_id and customer_id query parameters narrow the result.
func (h *Handler) PersonalizedPrices(c *gin.Context) {
	res, ok := h.load(c, "personalized_prices")
	if !ok {
		return
	}
	productID := c.Query("product_id")
	customerID := c.Query("customer_id")

	out := make([]PersonalizedPriceJSON, 0, len(res.Personalized))
	for _, p := range res.Personalized {
		if productID != "" && p.ProductID != productID {
			continue
		}
		if customerID != "" && p.CustomerID != customerID {
			continue
		}
		out = append(out, PersonalizedPriceJSON{
			ProductID:         p.ProductID,
			CustomerID:        p.CustomerID,
			PersonalizedPrice: p.Price,
			Rule:              p.Rule,
		})
	}
	c.JSON(http.StatusOK, out)
}

// DownloadOptimal handles GET /download/optimal_prices.csv.
func (h *Handler) DownloadOptimal(c *gin.Context) {
	res, ok := h.load(c, "download_optimal")
	if !ok {
		return
	}
	h.attachment(c, reporting.OptimalPricesFile, reporting.RenderOptimalPricesCSV(res.Optimal))
}

// DownloadPersonalized handles GET /download/personalized_prices.csv.
func (h *Handler) DownloadPersonalized(c *gin.Context) {
	res, ok := h.load(c, "download_personalized")
	if !ok {
		return
	}
	h.attachment(c, reporting.PersonalizedPricesFile, reporting.RenderPersonalizedPricesCSV(res.Personalized))
}

func (h *Handler) attachment(c *gin.Context, name, body string) {
	c.Header("Content-Disposition", `attachment; filename="`+name+`"`)
	c.Data(http.StatusOK, "text/csv; charset=utf-8", []byte(body))
}

// load fetches the current results, writing the error response itself when
// none are available.
func (h *Handler) load(c *gin.Context, endpoint string) (*reporting.Results, bool) {
	observability.RecordResultServed(endpoint)

	res, err := h.source.Load(c.Request.Context())
	if err != nil {
		if errors.Is(err, os.ErrNotExist) || errors.Is(err, storage.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "no pricing results available"})
			return nil, false
		}
		h.log.Error("load results failed", "endpoint", endpoint, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load pricing results"})
		return nil, false
	}
	return res, true
}
