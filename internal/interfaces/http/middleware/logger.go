package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"calibrator.backend/pkg/logger"
)

// noisyRoutes are polled by infrastructure (Prometheus, load balancers)
// often enough that logging every hit just drowns out quote traffic.
var noisyRoutes = map[string]bool{
	"/metrics": true,
	"/health":  true,
}

// LoggerMiddleware logs each request once it completes, tagged with the
// request id and - once QuoteHandler.Quote has decoded a body - the chain
// pair it quoted, via pkg/logger.WithContext.
func LoggerMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		raw := c.Request.URL.RawQuery

		c.Next()

		if noisyRoutes[path] {
			return
		}

		latency := time.Since(start)
		if raw != "" {
			path = path + "?" + raw
		}

		logger.LogRequest(c.Request.Context(), c.Request.Method, path, c.Writer.Status(), latency, c.ClientIP())
	}
}
