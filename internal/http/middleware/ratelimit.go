package middleware

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// RateLimit bounds requests per client address for one route using a
// redis fixed window: INCR + EXPIRE on rl:{route}:{ip}. Redis being down
// must never take checkout down, so errors fail open with a warning.
func RateLimit(rdb *redis.Client, l *slog.Logger, route string, limit int, window time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := fmt.Sprintf("rl:%s:%s", route, c.ClientIP())
		ctx := c.Request.Context()

		n, err := rdb.Incr(ctx, key).Result()
		if err != nil {
			l.WarnContext(ctx, "rate limiter unavailable, failing open",
				"route", route, "err", err)
			c.Next()
			return
		}
		if n == 1 {
			if err := rdb.Expire(ctx, key, window).Err(); err != nil {
				l.WarnContext(ctx, "rate limiter expire failed", "route", route, "err", err)
			}
		}

		if n > int64(limit) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":      "too many requests",
				"request_id": GetRequestID(c),
			})
			return
		}
		c.Next()
	}
}
