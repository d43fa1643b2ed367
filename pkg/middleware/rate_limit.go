package middleware

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

type RateLimiterConfig struct {
	RedisClient *redis.Client
	Limit       int
	Window      time.Duration
	KeyPrefix   string
	Extractor   func(c *gin.Context) string
}

// NewRateLimiter is a fixed-window limiter keyed by client address. Redis
// errors fail open: a broken limiter must not take the API down.
func NewRateLimiter(cfg RateLimiterConfig) gin.HandlerFunc {
	if cfg.KeyPrefix == "" {
		cfg.KeyPrefix = "rl:"
	}
	if cfg.Extractor == nil {
		cfg.Extractor = func(c *gin.Context) string {
			xff := c.Request.Header.Get("X-Forwarded-For")
			if xff != "" {
				parts := strings.Split(xff, ",")
				return strings.TrimSpace(parts[0])
			}
			return c.Request.RemoteAddr
		}
	}

	return func(c *gin.Context) {
		ctx := c.Request.Context()
		id := cfg.Extractor(c)
		if id == "" {
			id = "anonymous"
		}
		key := cfg.KeyPrefix + id

		count, err := cfg.RedisClient.Incr(ctx, key).Result()
		if err != nil {
			c.Next()
			return
		}

		if count == 1 {
			cfg.RedisClient.Expire(ctx, key, cfg.Window)
		}

		ttl, _ := cfg.RedisClient.TTL(ctx, key).Result()
		reset := int(ttl.Seconds())
		if reset < 0 {
			reset = 0
		}

		if count > int64(cfg.Limit) {
			c.Header("X-RateLimit-Limit", fmt.Sprintf("%d", cfg.Limit))
			c.Header("X-RateLimit-Remaining", "0")
			c.Header("X-RateLimit-Reset", fmt.Sprintf("%d", reset))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":           "rate limit exceeded",
				"retry_after_sec": reset,
			})
			return
		}

		c.Header("X-RateLimit-Limit", fmt.Sprintf("%d", cfg.Limit))
		c.Header("X-RateLimit-Remaining", fmt.Sprintf("%d", cfg.Limit-int(count)))
		c.Header("X-RateLimit-Reset", fmt.Sprintf("%d", reset))

		c.Next()
	}
}
