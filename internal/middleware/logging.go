package middleware

import (
	"strconv"
	"time"

	"github.com/ElSrJuez/notare/internal/logger"
	"github.com/ElSrJuez/notare/internal/metrics"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Logging writes one access log entry per request and records the HTTP
// metrics. Unmatched routes are labelled "unmatched" to bound cardinality.
func Logging() gin.HandlerFunc {
	return func(c *gin.Context) {
		started := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := c.Writer.Status()
		duration := time.Since(started)

		metrics.RecordHTTPRequest(c.Request.Method, route, strconv.Itoa(status), duration)

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", route),
			zap.Int("status", status),
			zap.Int64("duration_ms", duration.Milliseconds()),
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.String("errors", c.Errors.String()))
		}

		log := logger.FromContext(c.Request.Context())
		switch {
		case status >= 500:
			log.Error("request", fields...)
		case status >= 400:
			log.Warn("request", fields...)
		default:
			log.Info("request", fields...)
		}
	}
}
