package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

const defaultConnectorRateLimitPerMinute = 60

type connectorRequestLimiter interface {
	Allow() bool
}

// newConnectorRateLimiter returns nil when perMinute is zero, which disables
// limiting. A burst below one is raised to one.
func newConnectorRateLimiter(perMinute int, burst int) connectorRequestLimiter {
	if perMinute < 0 {
		perMinute = defaultConnectorRateLimitPerMinute
	}
	if perMinute == 0 {
		return nil
	}
	if burst < 1 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(float64(perMinute)/60), burst)
}

func enforceConnectorRateLimit(c *gin.Context, limiter connectorRequestLimiter) bool {
	if limiter == nil {
		return true
	}

	if limiter.Allow() {
		return true
	}

	c.Header("Retry-After", "1")
	writeError(c, http.StatusTooManyRequests, "connector_rate_limited", "connector rate limit exceeded")
	return false
}
