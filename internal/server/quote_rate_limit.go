package server

import (
	"math"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/adpricing/internal/observability/logger"
	"github.com/smallbiznis/adpricing/internal/ratelimit"
	"go.uber.org/zap"
)

// QuoteRateLimit throttles pricing requests per client IP.
func (s *Server) QuoteRateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		result, err := s.guard.AllowQuote(ctx, c.ClientIP())
		if err != nil {
			logger.FromContext(ctx).Warn("quote rate limit check failed", zap.Error(err))
			AbortWithError(c, ErrServiceUnavailable)
			return
		}
		if result.Limit > 0 {
			c.Header("X-RateLimit-Limit", strconv.Itoa(result.Limit))
			c.Header("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
		}
		if !result.Allowed {
			denyQuote(c, result)
			return
		}
		c.Next()
	}
}

func denyQuote(c *gin.Context, result *ratelimit.RateLimitResult) {
	logger.FromContext(c.Request.Context()).Warn("quote rate limit exceeded",
		zap.String("client_ip", c.ClientIP()),
		zap.String("endpoint", normalizeRateLimitEndpoint(c)),
	)

	retryAfter := int(math.Ceil(result.RetryAfter.Seconds()))
	if retryAfter < 1 {
		retryAfter = 1
	}
	c.Header("Retry-After", strconv.Itoa(retryAfter))
	AbortWithError(c, ErrRateLimited)
}

func normalizeRateLimitEndpoint(c *gin.Context) string {
	if endpoint := c.FullPath(); endpoint != "" {
		return endpoint
	}
	if endpoint := c.Request.URL.Path; endpoint != "" {
		return endpoint
	}
	return "unknown"
}
