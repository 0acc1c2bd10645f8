package delta_client

import (
	"go.uber.org/fx"

	"vrz_bot/internal/modules/delta_client/service"
	"vrz_bot/internal/strategy/reconcile"
)

func Module() fx.Option {
	return fx.Module("delta_client",
		fx.Provide(
			service.NewClient,
			func(c *service.Client) reconcile.ExchangePositions {
				return c
			},
		),
	)
}
