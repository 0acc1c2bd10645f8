package config

import (
	"go.uber.org/fx"

	"vrz_bot/pkg/logger"
)

func Module() fx.Option {
	return fx.Module("config",
		fx.Provide(
			NewConfig,
		),
		fx.Invoke(func(cfg *Config) error {
			return logger.Init(cfg.LogLevel)
		}),
	)
}
