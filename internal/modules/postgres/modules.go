package postgres

import (
	"context"
	"fmt"

	"go.uber.org/fx"

	"vrz_bot/internal/modules/config"
	"vrz_bot/internal/modules/postgres/service"
	"vrz_bot/internal/storage"
	"vrz_bot/internal/storage/memory"
	"vrz_bot/internal/strategy/reconcile"
	"vrz_bot/pkg/db"
	"vrz_bot/pkg/logger"
)

type Stores struct {
	fx.Out

	Zones     storage.ZoneStore
	Positions storage.PositionStore
	Users     storage.UserStore
	Source    reconcile.PositionSource
}

func newStores(z storage.ZoneStore, p storage.PositionStore, u storage.UserStore) Stores {
	return Stores{Zones: z, Positions: p, Users: u, Source: p}
}

// Module falls back to in-memory stores when db_dsn is empty (dry runs).
func Module() fx.Option {
	return fx.Module("postgres",
		fx.Provide(
			func(lc fx.Lifecycle, cfg *config.Config) (Stores, error) {
				if cfg.DB == "" {
					logger.Warn("db_dsn is empty, using in-memory stores")
					return newStores(memory.NewZones(), memory.NewPositions(), memory.NewUsers()), nil
				}

				ctx := context.Background()
				poolMaster, err := db.NewPool(ctx, db.PoolConfig{
					DSN: cfg.DB,
				})
				if err != nil {
					return Stores{}, fmt.Errorf("failed to create poolMaster: %w", err)
				}

				err = poolMaster.Ping(ctx)
				if err != nil {
					poolMaster.Close()
					return Stores{}, err
				}

				tx := db.NewPgTxManager(poolMaster)
				lc.Append(fx.Hook{
					OnStop: func(context.Context) error {
						tx.Close()
						return nil
					},
				})
				return newStores(service.NewZones(tx), service.NewPositions(tx), service.NewUsers(tx)), nil
			},
		),
	)
}
