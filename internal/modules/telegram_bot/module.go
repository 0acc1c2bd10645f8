package telegram

import (
	"go.uber.org/fx"

	"vrz_bot/internal/modules/config"
	"vrz_bot/internal/modules/telegram_bot/service"
	"vrz_bot/internal/notify"
	"vrz_bot/pkg/logger"
)

// Module provides the notifier. Without a token alerts go to the log.
func Module() fx.Option {
	return fx.Module("telegram",
		fx.Provide(
			func(cfg *config.Config) notify.Notifier {
				if cfg.Telegram.Token == "" {
					logger.Warn("telegram token is empty, notifications go to stdout")
					return notify.NewStdout()
				}
				t, err := service.NewTelegram(cfg)
				if err != nil {
					logger.Error("telegram init: %v, notifications go to stdout", err)
					return notify.NewStdout()
				}
				return t
			},
		),
	)
}
