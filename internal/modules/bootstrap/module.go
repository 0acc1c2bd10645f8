package bootstrap

import (
	"context"

	"go.uber.org/fx"

	bootstrap "vrz_bot/internal/modules/bootstrap/service"
	"vrz_bot/pkg/logger"
)

func Module() fx.Option {
	return fx.Module("bootstrap",
		fx.Provide(
			bootstrap.NewWarmuper,
		),
		fx.Invoke(func(lc fx.Lifecycle, wu *bootstrap.Warmuper) {
			ctx, cancel := context.WithCancel(context.Background())
			lc.Append(fx.Hook{
				OnStart: func(start context.Context) error {
					// seeding is synchronous so the first scan sees the users
					n, err := wu.Seed(start)
					if err != nil {
						cancel()
						return err
					}
					logger.Info("[BOOT] %d users seeded", n)

					go func() {
						saved, err := wu.Warmup(ctx)
						if err != nil {
							logger.Warn("[BOOT] warmup error: %v", err)
							return
						}
						logger.Info("[BOOT] warmup done: %d zones", saved)
					}()
					return nil
				},
				OnStop: func(context.Context) error {
					cancel()
					return nil
				},
			})
		}),
	)
}
