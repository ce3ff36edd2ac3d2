package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"gamegscore/cache"
	"gamegscore/utils"

	"github.com/gin-gonic/gin"
)

// RateLimitMiddleware implements per-client rate limiting using Redis.
// Requests pass untouched while Redis is unavailable.
func RateLimitMiddleware(maxRequests int, window time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if maxRequests <= 0 {
			c.Next()
			return
		}

		client := c.ClientIP()
		if owner, exists := c.Get(OwnerKey); exists {
			client = fmt.Sprintf("owner:%v", owner)
		}

		allowed, remaining, err := cache.CheckRateLimit(c.Request.Context(), client, maxRequests, window)
		if err != nil {
			if !errors.Is(err, cache.ErrRedisUnavailable) {
				utils.LogWarn("rate limit check failed", map[string]interface{}{"error": err.Error(), "client": client})
			}
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(maxRequests))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(remaining))
		c.Header("X-RateLimit-Window", window.String())

		if !allowed {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": fmt.Sprintf("Too many requests. Retry after %v", window),
			})
			return
		}

		c.Next()
	}
}
