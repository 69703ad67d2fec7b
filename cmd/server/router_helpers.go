package main

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// applyCORSMiddleware allows any origin to call the API (the quote form and
// third-party filler dashboards are both served cross-origin in practice),
// echoing the request's Origin header and short-circuiting preflight
// OPTIONS requests with 204.
func applyCORSMiddleware(r *gin.Engine) {
	r.Use(func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		if origin != "" {
			c.Header("Access-Control-Allow-Origin", origin)
			c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")
		}
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	})
}

// registerHealthRoute exposes a liveness check for process supervisors
// (§6: `GET /health` → 200 `{"status":"ok","timestamp":<unix-ms>}`).
func registerHealthRoute(r *gin.Engine) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "ok",
			"timestamp": time.Now().UnixMilli(),
		})
	})
}
