package middleware

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/aarongarrett/quorum/internal/redis"
	"github.com/aarongarrett/quorum/internal/transport/httpdto"
)

// LimitScope names a rate-limited endpoint category.
type LimitScope int

const (
	ScopeCheckin LimitScope = iota
	ScopeVote
	ScopeAuth
)

// RateLimitMiddleware applies per-IP fixed-window limiting for one scope.
// Applied ahead of the handler so limited requests never reach the core.
func RateLimitMiddleware(limiter *redis.RateLimiter, scope LimitScope) gin.HandlerFunc {
	return func(c *gin.Context) {
		clientIP := c.ClientIP()

		var result *redis.RateLimitResult
		var err error
		switch scope {
		case ScopeCheckin:
			result, err = limiter.AllowCheckin(c.Request.Context(), clientIP)
		case ScopeVote:
			result, err = limiter.AllowVote(c.Request.Context(), clientIP)
		case ScopeAuth:
			result, err = limiter.AllowAuth(c.Request.Context(), clientIP)
		default:
			c.Next()
			return
		}
		if err != nil {
			c.JSON(http.StatusInternalServerError, httpdto.NewErrorResponse("rate limit error", "INTERNAL_ERROR"))
			c.Abort()
			return
		}

		setRateLimitHeaders(c, result)

		if !result.Allowed {
			c.JSON(http.StatusTooManyRequests, httpdto.NewErrorResponse("rate limit exceeded", "RATE_LIMITED"))
			c.Abort()
			return
		}
		c.Next()
	}
}

func setRateLimitHeaders(c *gin.Context, result *redis.RateLimitResult) {
	c.Header("X-RateLimit-Limit", strconv.Itoa(result.Limit))
	c.Header("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
	c.Header("X-RateLimit-Reset", strconv.FormatInt(int64(result.ResetIn.Seconds()), 10))
}
