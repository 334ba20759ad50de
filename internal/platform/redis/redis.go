package redis

import (
	"context"

	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
	"go.uber.org/zap"

	cfgpkg "github.com/snapcal/billing/pkg/config"
)

// NewClient connects to the shared redis backing the webhook rate limiter.
// The counter must be visible to every worker process; per-process memory
// would be ineffective under multi-worker deployment.
func NewClient(l *zap.SugaredLogger, cfg *cfgpkg.Config) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := client.Ping(context.Background()).Err(); err != nil {
		l.Errorf("failed to connect redis: %v", err)
		return nil, err
	}
	l.Infow("connected to redis", "addr", cfg.Redis.Addr)
	return client, nil
}

func registerClose(lc fx.Lifecycle, l *zap.SugaredLogger, client *redis.Client) {
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			l.Infow("closing redis connection")
			return client.Close()
		},
	})
}

var Module = fx.Options(
	fx.Provide(NewClient),
	fx.Invoke(registerClose),
)
