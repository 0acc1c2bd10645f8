package main

import (
	"context"

	"go.uber.org/fx"

	"vrz_bot/internal/modules/bootstrap"
	"vrz_bot/internal/modules/config"
	"vrz_bot/internal/modules/delta_client"
	"vrz_bot/internal/modules/delta_websocket"
	"vrz_bot/internal/modules/health"
	"vrz_bot/internal/modules/journal"
	"vrz_bot/internal/modules/postgres"
	"vrz_bot/internal/modules/redis"
	telegram "vrz_bot/internal/modules/telegram_bot"
	"vrz_bot/internal/runner"
	"vrz_bot/internal/strategy"
	"vrz_bot/pkg/logger"
	"vrz_bot/pkg/tracing"
)

const serviceName = "vrz-bot"

func main() {
	logger.SetServiceName(serviceName)
	tracing.SetServiceName(serviceName)

	app := fx.New(
		config.Module(),
		health.Module(),
		postgres.Module(),
		delta_client.Module(),
		delta_websocket.Module(),
		redis.Module(),
		journal.Module(),
		telegram.Module(),
		strategy.Module(),
		// seeds users in OnStart, so its hook must run before the scan loop starts
		bootstrap.Module(),
		runner.Module(),
		fx.Invoke(initTracing),
	)
	app.Run()
	logger.Sync()
}

func initTracing(lc fx.Lifecycle, cfg *config.Config) error {
	if !cfg.Tracing.Enabled {
		return nil
	}
	_, closer, err := tracing.InitTracer(tracing.Config{
		Host:       cfg.Tracing.Host,
		Port:       cfg.Tracing.Port,
		SampleRate: cfg.Tracing.SampleRate,
	})
	if err != nil {
		return err
	}
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			closer()
			return nil
		},
	})
	return nil
}
