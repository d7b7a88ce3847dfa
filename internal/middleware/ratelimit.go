package middleware

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/farewellhq/event-pass-api/pkg/config"
)

// RateLimit returns a sliding-window limiter keyed by client IP, backed
// by a Redis sorted set per client. When Redis is unreachable the
// limiter fails open: a broken cache must not lock staff out of the
// scanner during the event.
func RateLimit(client *redis.Client, cfg config.RateLimitConfig, logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(c *gin.Context) {
		if !cfg.Enabled || client == nil {
			c.Next()
			return
		}

		key := "ratelimit:scanner:" + c.ClientIP()
		ctx := c.Request.Context()
		now := time.Now()
		windowStart := now.Add(-cfg.Window)

		pipe := client.TxPipeline()
		pipe.ZRemRangeByScore(ctx, key, "0", fmt.Sprintf("%d", windowStart.UnixNano()))
		countCmd := pipe.ZCard(ctx, key)
		if _, err := pipe.Exec(ctx); err != nil {
			logger.Warn("rate limiter unavailable, allowing request", zap.Error(err))
			c.Next()
			return
		}

		if countCmd.Val() >= int64(cfg.Limit) {
			c.Header("Retry-After", fmt.Sprintf("%d", int(cfg.Window.Seconds())))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"success": false,
				"message": "Too many verification attempts, slow down",
			})
			return
		}

		member := fmt.Sprintf("%d-%s", now.UnixNano(), uuid.NewString())
		record := client.TxPipeline()
		record.ZAdd(ctx, key, redis.Z{Score: float64(now.UnixNano()), Member: member})
		record.Expire(ctx, key, cfg.Window)
		if _, err := record.Exec(ctx); err != nil {
			logger.Warn("failed to record rate limit sample", zap.Error(err))
		}

		c.Next()
	}
}
