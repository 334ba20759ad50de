package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	cfgpkg "github.com/snapcal/billing/pkg/config"
	"github.com/snapcal/billing/pkg/metrics"
)

const webhookRateLimitPrefix = "billing:ratelimit:webhook:"

// WebhookRateLimit bounds webhook deliveries per source IP per hour. The
// counter lives in redis so the limit holds across all worker processes; the
// limiter fails open on redis errors.
func WebhookRateLimit(rdb *redis.Client, cfg *cfgpkg.Config, log *zap.SugaredLogger) gin.HandlerFunc {
	limit := cfg.RateLimit.WebhookPerHour
	return func(c *gin.Context) {
		if limit <= 0 {
			c.Next()
			return
		}
		ip := WebhookClientIP(c)
		key := webhookRateLimitPrefix + ip

		pipe := rdb.Pipeline()
		incr := pipe.Incr(c.Request.Context(), key)
		pipe.Expire(c.Request.Context(), key, time.Hour)
		if _, err := pipe.Exec(c.Request.Context()); err != nil {
			log.Errorw("rate limiter redis error, failing open", "err", err)
			c.Next()
			return
		}

		if incr.Val() > int64(limit) {
			metrics.WebhookRejections.WithLabelValues("rate_limit").Inc()
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"status": "too_many_requests"})
			return
		}
		c.Next()
	}
}
