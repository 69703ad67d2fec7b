package middleware

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"calibrator.backend/pkg/logger"
)

const requestIDHeader = "X-Request-ID"

// RequestIDMiddleware assigns a correlation id to every request: the
// caller's own X-Request-ID if it sent one (quote requests are often
// relayed by a filler or solver that already tracks one), otherwise a
// fresh uuid. The id is echoed back on the response and carried on the
// request's context under pkg/logger's typed key, so log lines written
// through pkg/logger with that context (the access log line
// LoggerMiddleware writes) carry it.
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.New().String()
		}

		c.Set(string(logger.RequestIDKey), id)
		c.Writer.Header().Set(requestIDHeader, id)

		ctx := context.WithValue(c.Request.Context(), logger.RequestIDKey, id)
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}
