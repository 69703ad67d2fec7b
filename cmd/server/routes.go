package main

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"calibrator.backend/internal/api"
)

type routeDeps struct {
	quoteHandler *api.QuoteHandler
}

// registerRoutes wires the single QuoteApi operation (§4.8/§6) plus the
// Prometheus scrape endpoint (D4).
func registerRoutes(r *gin.Engine, d routeDeps) {
	r.POST("/quote", d.quoteHandler.Quote)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
}
