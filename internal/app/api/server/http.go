package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/snapcal/billing/internal/app/api/handlers"
	mw "github.com/snapcal/billing/internal/app/api/middleware"
	payment "github.com/snapcal/billing/internal/app/service/payment"
	subsvc "github.com/snapcal/billing/internal/app/service/subscription"
	usagesvc "github.com/snapcal/billing/internal/app/service/usage"
	gw "github.com/snapcal/billing/internal/app/service/webhook_gateway"
	webhooklog "github.com/snapcal/billing/internal/app/service/webhook_log"
	cfgpkg "github.com/snapcal/billing/pkg/config"
	metrics "github.com/snapcal/billing/pkg/metrics"
)

func newEngine() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	// Request tracing only; request logger & access log are attached per group
	r.Use(mw.TraceMiddleware())
	return r
}

func registerRoutes(
	r *gin.Engine,
	log *zap.SugaredLogger,
	cfg *cfgpkg.Config,
	rdb *goredis.Client,
	gateway *gw.Gateway,
	paySvc *payment.Service,
	sub *subsvc.Service,
	usage *usagesvc.Service,
	ledger *webhooklog.Service,
) {
	// Prometheus metrics
	if cfg != nil && cfg.MetricsAddr != "" {
		p := metrics.NewPrometheus(metrics.NewPrometheusOptions{
			ReqCntURLLabelMappingFn: func(c *gin.Context) string {
				if fp := c.FullPath(); fp != "" {
					return fp
				}
				return c.Request.URL.Path
			},
			Logger: log,
		})
		p.SetListenAddress(cfg.MetricsAddr)
		p.Use(r)

		log.Infow("metrics started", "addr", cfg.MetricsAddr)
	}

	// Public group: request logger + access log
	pub := r.Group("/")
	pub.Use(mw.RequestLoggerMiddleware(log), mw.AccessLogMiddleware())
	handlers.RegisterHealthRoutes(pub)

	// Provider webhooks: the only surface open to the internet. Trust is
	// established by source IP, then the shared rate limit applies.
	webhooks := r.Group("/webhooks")
	webhooks.Use(
		mw.RequestLoggerMiddleware(log),
		mw.AccessLogMiddleware(),
		mw.SourceIPAllowlist(cfg, log),
		mw.WebhookRateLimit(rdb, cfg, log),
	)
	handlers.RegisterWebhookRoutes(webhooks, gateway, log)

	// Account-scoped APIs behind the fronting auth layer's identity header.
	apiV1 := r.Group("/api/v1")
	apiV1.Use(mw.RequestLoggerMiddleware(log), mw.AccessLogMiddleware(), mw.Identity())
	handlers.RegisterPaymentRoutes(apiV1, paySvc)
	handlers.RegisterSubscriptionRoutes(apiV1, sub, usage, cfg)
	handlers.RegisterUsageRoutes(apiV1, sub, usage, cfg)

	// Admin APIs
	handlers.RegisterAdminRoutes(apiV1.Group("/admin"), cfg, paySvc, sub, ledger)
}

func runServer(lc fx.Lifecycle, log *zap.SugaredLogger, cfg *cfgpkg.Config, r *gin.Engine) {
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{Addr: addr, Handler: r, ReadHeaderTimeout: 5 * time.Second}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Infow("starting HTTP server", "addr", addr)
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					log.Errorf("server error: %v", err)
					panic(err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Infow("stopping HTTP server")
			shutdownCtx, cancel := context.WithTimeout(ctx, 120*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

var Module = fx.Options(
	fx.Provide(newEngine),
	fx.Invoke(registerRoutes),
	fx.Invoke(runServer),
)
