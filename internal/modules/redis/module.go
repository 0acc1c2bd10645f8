package redis

import (
	"context"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/fx"

	"vrz_bot/internal/modules/config"
	delta "vrz_bot/internal/modules/delta_client/service"
	"vrz_bot/internal/modules/redis/service"
	"vrz_bot/internal/strategy/entry"
	"vrz_bot/pkg/logger"
)

// Module provides the market data source used by the scanners. Without
// redis.addr candles go straight to the exchange.
func Module() fx.Option {
	return fx.Module("redis",
		fx.Provide(
			func(lc fx.Lifecycle, cfg *config.Config) *goredis.Client {
				if cfg.Redis.Addr == "" {
					logger.Warn("redis.addr is empty, candle cache disabled")
					return nil
				}
				rdb := goredis.NewClient(&goredis.Options{
					Addr:         cfg.Redis.Addr,
					Password:     cfg.Redis.Password,
					DB:           cfg.Redis.DB,
					DialTimeout:  5 * time.Second,
					ReadTimeout:  3 * time.Second,
					WriteTimeout: 3 * time.Second,
				})
				lc.Append(fx.Hook{
					OnStart: func(ctx context.Context) error {
						if err := rdb.Ping(ctx).Err(); err != nil {
							logger.Warn("redis ping %s: %v, cache degraded", cfg.Redis.Addr, err)
						}
						return nil
					},
					OnStop: func(ctx context.Context) error {
						return rdb.Close()
					},
				})
				return rdb
			},
			func(rdb *goredis.Client, cfg *config.Config, c *delta.Client) *service.CandleCache {
				return service.NewCandleCache(rdb, c, cfg.Redis.CandleTTL)
			},
			func(cc *service.CandleCache) entry.MarketDataSource { return cc },
		),
	)
}
