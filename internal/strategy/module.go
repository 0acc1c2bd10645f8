package strategy

import (
	"go.uber.org/fx"

	"vrz_bot/internal/modules/config"
	"vrz_bot/internal/storage"
	"vrz_bot/internal/strategy/entry"
	"vrz_bot/internal/strategy/exits"
	"vrz_bot/internal/strategy/patterns"
	"vrz_bot/internal/strategy/reconcile"
	"vrz_bot/internal/strategy/risk"
	"vrz_bot/internal/strategy/zones"
)

func Module() fx.Option {
	return fx.Module("strategy",
		fx.Provide(
			func(cfg *config.Config) *risk.Engine {
				return risk.NewEngine(cfg.Risk.MinRR)
			},
			func(cfg *config.Config, re *risk.Engine) (*exits.Manager, error) {
				basis, err := exits.ParseBasis(cfg.Risk.ExitBasis)
				if err != nil {
					return nil, err
				}
				return exits.NewManager(basis, re), nil
			},
			patterns.NewLibrary,
			func(cfg *config.Config, store storage.ZoneStore) *zones.Manager {
				return zones.NewManager(store, zones.Config{
					BufferPct:    cfg.Zones.BufferPct,
					ProximityPct: cfg.Zones.ProximityPct,
				})
			},
			entry.NewGenerator,
			reconcile.NewReconciler,
			func(cfg *config.Config, market entry.MarketDataSource, zm *zones.Manager) *ZoneRefresher {
				return NewZoneRefresher(market, zm, cfg.Zones.BaseBars)
			},
		),
	)
}
