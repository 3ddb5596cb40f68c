// Package api serves pricing results over HTTP. All routes are read-only.
package api

import (
	"github.com/gin-gonic/gin"

	"dynamic-pricing/internal/observability"
)

// NewRouter wires the health, metrics, JSON and CSV download routes.
func NewRouter(h *Handler) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/health", h.Health)
	router.GET("/metrics", gin.WrapH(observability.Handler()))

	api := router.Group("/api")
	{
		api.GET("/overview", h.Overview)
		api.GET("/optimal-prices", h.OptimalPrices)
		api.GET("/personalized-prices", h.PersonalizedPrices)
	}

	download := router.Group("/download")
	{
		download.GET("/optimal_prices.csv", h.DownloadOptimal)
		download.GET("/personalized_prices.csv", h.DownloadPersonalized)
	}

	return router
}
