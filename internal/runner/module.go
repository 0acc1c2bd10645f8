package runner

import (
	"context"

	"go.uber.org/fx"

	"vrz_bot/internal/modules/config"
	delta "vrz_bot/internal/modules/delta_client/service"
	ws "vrz_bot/internal/modules/delta_websocket/service"
	health "vrz_bot/internal/modules/health/service"
	journal "vrz_bot/internal/modules/journal/service"
	"vrz_bot/internal/notify"
	"vrz_bot/internal/runner/router"
	"vrz_bot/internal/runner/sessions"
	"vrz_bot/internal/storage"
	"vrz_bot/internal/strategy"
	"vrz_bot/internal/strategy/entry"
	"vrz_bot/internal/strategy/exits"
	"vrz_bot/internal/strategy/reconcile"
	"vrz_bot/internal/strategy/risk"
	"vrz_bot/internal/strategy/zones"
)

type DepsParams struct {
	fx.In

	Cfg        *config.Config
	Client     *delta.Client
	Feed       *ws.Feed
	Generator  *entry.Generator
	Refresher  *strategy.ZoneRefresher
	Exits      *exits.Manager
	Reconciler *reconcile.Reconciler
	Risk       *risk.Engine
	Positions  storage.PositionStore
	Journal    journal.Recorder
	Notifier   notify.Notifier
}

func NewDeps(p DepsParams) sessions.Deps {
	return sessions.Deps{
		Exchange:         p.Client,
		Feed:             p.Feed,
		Scanner:          p.Generator,
		Zones:            p.Refresher,
		Exits:            p.Exits,
		Reconciler:       p.Reconciler,
		Risk:             p.Risk,
		Positions:        p.Positions,
		Journal:          p.Journal,
		Notifier:         p.Notifier,
		DryRun:           p.Cfg.Scan.DryRun,
		TopMoversLimit:   p.Cfg.TopMoversLimit,
		AssetConcurrency: p.Cfg.Scan.AssetConcurrency,
		SettleAsset:      p.Cfg.Delta.SettleAsset,
		EntryTimeout:     p.Cfg.Scan.EntryTimeout,
	}
}

func Module() fx.Option {
	return fx.Module("runner",
		fx.Provide(
			NewDeps,
			router.NewRouter,
			func(cfg *config.Config, r *router.Router, users storage.UserStore, zm *zones.Manager, positions storage.PositionStore, state *health.State) *ScanLoop {
				return NewScanLoop(cfg, r, users, zm, positions, state)
			},
		),
		fx.Invoke(func(lc fx.Lifecycle, loop *ScanLoop) error {
			if err := loop.Register(); err != nil {
				return err
			}
			lc.Append(fx.Hook{
				OnStart: func(_ context.Context) error {
					loop.Start()
					return nil
				},
				OnStop: func(ctx context.Context) error {
					return loop.Stop(ctx)
				},
			})
			return nil
		}),
	)
}
