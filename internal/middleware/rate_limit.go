package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// RateLimit allows limit requests per client IP per window, counted in Redis so every replica
// shares the budget. If Redis cannot be reached the request is let through.
func RateLimit(client redis.Cmdable, limit int, window time.Duration, logger zerolog.Logger) gin.HandlerFunc {
	l := logger.With().Str("module", "http").Str("component", "rate_limit").Logger()
	return func(c *gin.Context) {
		key := "rate_limit:" + c.ClientIP()

		pipe := client.Pipeline()
		incr := pipe.Incr(c.Request.Context(), key)
		pipe.ExpireNX(c.Request.Context(), key, window)
		if _, err := pipe.Exec(c.Request.Context()); err != nil {
			l.Warn().Err(err).Msg("rate limit check skipped")
			c.Next()
			return
		}

		count := incr.Val()
		remaining := int64(limit) - count
		if remaining < 0 {
			remaining = 0
		}
		c.Header("X-RateLimit-Limit", strconv.Itoa(limit))
		c.Header("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))
		if count > int64(limit) {
			c.Header("Retry-After", strconv.Itoa(int(window.Seconds())))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"success": false,
				"message": "rate limit exceeded",
				"error":   "rate_limited",
			})
			return
		}
		c.Next()
	}
}
