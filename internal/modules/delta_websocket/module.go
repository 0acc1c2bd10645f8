package delta_websocket

import (
	"context"

	"go.uber.org/fx"

	"vrz_bot/internal/modules/delta_websocket/service"
	delta "vrz_bot/internal/modules/delta_client/service"
	health "vrz_bot/internal/modules/health/service"
)

// Module streams mark prices for symbols the sessions watch.
func Module() fx.Option {
	return fx.Module("delta_websocket",
		fx.Provide(
			func(c *delta.Client) service.CandleSource { return c },
			func(s *health.State) service.ConnState { return s },
			service.NewFeed,
		),
		fx.Invoke(func(lc fx.Lifecycle, feed *service.Feed) {
			ctx, cancel := context.WithCancel(context.Background())
			lc.Append(fx.Hook{
				OnStart: func(_ context.Context) error {
					go feed.Run(ctx)
					return nil
				},
				OnStop: func(_ context.Context) error {
					cancel()
					return nil
				},
			})
		}),
	)
}
