package middleware

import (
	"net"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	cfgpkg "github.com/snapcal/billing/pkg/config"
	"github.com/snapcal/billing/pkg/metrics"
)

const webhookClientIPKey = "webhookClientIP"

// SourceIPAllowlist rejects webhook calls whose source address is outside the
// provider-published CIDR allowlist. X-Forwarded-For is honored only when the
// trust-proxy flag is set. An empty allowlist fails closed.
func SourceIPAllowlist(cfg *cfgpkg.Config, log *zap.SugaredLogger) gin.HandlerFunc {
	nets := make([]*net.IPNet, 0, len(cfg.Provider.AllowedIPRanges))
	for _, cidr := range cfg.Provider.AllowedIPRanges {
		_, n, err := net.ParseCIDR(cidr)
		if err != nil {
			log.Errorw("invalid CIDR in provider allowlist, skipping", "cidr", cidr, "err", err)
			continue
		}
		nets = append(nets, n)
	}
	if len(nets) == 0 {
		log.Warnw("provider IP allowlist is empty, all webhook calls will be rejected")
	}

	return func(c *gin.Context) {
		ip := resolveSourceIP(c, cfg.Provider.TrustProxyHeader)
		parsed := net.ParseIP(ip)
		allowed := false
		if parsed != nil {
			for _, n := range nets {
				if n.Contains(parsed) {
					allowed = true
					break
				}
			}
		}
		if !allowed {
			// Only the offending IP is logged, never the payload.
			log.Warnw("webhook source rejected", "client_ip", ip)
			metrics.WebhookRejections.WithLabelValues("ip").Inc()
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"status": "forbidden"})
			return
		}
		c.Set(webhookClientIPKey, ip)
		c.Next()
	}
}

func resolveSourceIP(c *gin.Context, trustProxy bool) string {
	if trustProxy {
		return c.ClientIP()
	}
	host, _, err := net.SplitHostPort(c.Request.RemoteAddr)
	if err != nil {
		return c.Request.RemoteAddr
	}
	return host
}

// WebhookClientIP returns the source address resolved by SourceIPAllowlist.
func WebhookClientIP(c *gin.Context) string {
	if v, ok := c.Get(webhookClientIPKey); ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return c.ClientIP()
}
