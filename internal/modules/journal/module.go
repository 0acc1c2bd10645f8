package journal

import (
	"context"

	"go.uber.org/fx"

	"vrz_bot/internal/modules/config"
	"vrz_bot/internal/modules/journal/service"
	"vrz_bot/pkg/logger"
)

// Module keeps a local sqlite trail of signals, exits and discrepancies.
func Module() fx.Option {
	return fx.Module("journal",
		fx.Provide(
			func(lc fx.Lifecycle, cfg *config.Config) (service.Recorder, error) {
				if cfg.Journal.Path == "" {
					logger.Info("journal.path is empty, journal disabled")
					return service.Noop{}, nil
				}
				rec, err := service.NewSQLiteRecorder(cfg.Journal.Path)
				if err != nil {
					return nil, err
				}
				lc.Append(fx.Hook{
					OnStop: func(context.Context) error {
						return rec.Close()
					},
				})
				return rec, nil
			},
		),
	)
}
