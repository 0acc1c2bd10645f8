package service

import (
	"context"
	"fmt"

	tgbot "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"vrz_bot/internal/modules/config"
)

type sender interface {
	Send(c tgbot.Chattable) (tgbot.Message, error)
}

// Telegram pushes alerts to the user chat and mirrors them to the service chat.
type Telegram struct {
	bot    sender
	mirror int64
}

func NewTelegram(cfg *config.Config) (*Telegram, error) {
	b, err := tgbot.NewBotAPI(cfg.Telegram.Token)
	if err != nil {
		return nil, fmt.Errorf("telegram: %w", err)
	}
	return &Telegram{bot: b, mirror: cfg.Telegram.ChatID}, nil
}

func (t *Telegram) Send(ctx context.Context, chatID int64, msg string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	var firstErr error
	for _, id := range t.targets(chatID) {
		m := tgbot.NewMessage(id, msg)
		m.ParseMode = tgbot.ModeMarkdown
		m.DisableWebPagePreview = true
		if _, err := t.bot.Send(m); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("telegram send %d: %w", id, err)
		}
	}
	return firstErr
}

func (t *Telegram) targets(chatID int64) []int64 {
	ids := make([]int64, 0, 2)
	if chatID != 0 {
		ids = append(ids, chatID)
	}
	if t.mirror != 0 && t.mirror != chatID {
		ids = append(ids, t.mirror)
	}
	return ids
}
