package notify

import (
	"context"
	"fmt"
	"strings"

	"vrz_bot/internal/models"
	"vrz_bot/pkg/logger"
)

// Notifier delivers plain markdown messages to a user chat.
type Notifier interface {
	Send(ctx context.Context, chatID int64, msg string) error
}

func Sendf(ctx context.Context, n Notifier, chatID int64, format string, args ...any) error {
	return n.Send(ctx, chatID, fmt.Sprintf(format, args...))
}

// Stdout is used when no telegram token is configured.
type Stdout struct{}

func NewStdout() *Stdout { return &Stdout{} }

func (s *Stdout) Send(_ context.Context, chatID int64, msg string) error {
	logger.Info("notify [%d]: %s", chatID, strings.ReplaceAll(msg, "\n", " | "))
	return nil
}

func FormatSignal(sig models.EntrySignal) string {
	var b strings.Builder
	fmt.Fprintf(&b, "*🎯 %s %s* `%s`\n\n", sideEmoji(sig.Side), strings.ToUpper(string(sig.Side)), sig.Symbol)
	fmt.Fprintf(&b, "Entry: `%s`\n", f4(sig.EntryPrice))
	fmt.Fprintf(&b, "Stop: `%s`\n", f4(sig.StopLoss))
	for _, t := range sig.Targets {
		fmt.Fprintf(&b, "T%d: `%s` (%sR, %s%%)\n", t.Level, f4(t.Price), f2(t.RiskReward), f2(t.ExitPercentage))
	}
	fmt.Fprintf(&b, "\nPattern: %s (%s)\n", sig.PatternName, f2(sig.PatternConfidence))
	fmt.Fprintf(&b, "Zone: %s @ `%s` [%s]\n", sig.Zone.Type, f4(sig.Zone.PriceLevel), sig.Timeframe)
	fmt.Fprintf(&b, "Size: `%d`", sig.Size)
	return b.String()
}

func FormatExit(pos models.Position, a models.ExitAction) string {
	var title string
	switch a.Kind {
	case models.ExitStopLoss:
		title = "🛑 Stop loss"
	case models.ExitTrailStop:
		return fmt.Sprintf("*🧲 Trail* `%s`\nStop moved to `%s`", pos.Symbol, f4(a.NewStopLoss))
	case models.ExitManual:
		title = "✋ Manual close"
	case models.ExitEntryCancelled:
		title = "⌛ Entry cancelled"
	default:
		title = fmt.Sprintf("✅ Target %d", a.TargetLevel)
	}
	return fmt.Sprintf(
		"*%s* `%s`\n\n"+
			"Price: `%s`\n"+
			"Qty: `%d`, left `%d`\n"+
			"PnL: `%s`",
		title, pos.Symbol,
		f4(a.Price),
		a.Quantity, a.Remaining,
		f2(a.PnL),
	)
}

func FormatDiscrepancy(d models.Discrepancy) string {
	return fmt.Sprintf(
		"*⚠️ Position mismatch* `%s`\n\n"+
			"Type: %s\n"+
			"Local: `%d`\n"+
			"Exchange: `%d`",
		d.Symbol, d.Kind, d.LocalSize, d.ExchangeSize,
	)
}

func FormatReport(user models.UserSettings, st models.PositionStats) string {
	name := user.Name
	if name == "" {
		name = fmt.Sprintf("%d", user.UserID)
	}
	return fmt.Sprintf(
		"*📊 Daily report* %s\n\n"+
			"Trades: `%d` (%d / %d)\n"+
			"Win rate: `%s%%`\n"+
			"PnL: `%s`\n"+
			"Profit factor: `%s`\n"+
			"Best / worst: `%s` / `%s`",
		name,
		st.Total, st.Winning, st.Losing,
		f2(st.WinRate),
		f2(st.TotalPnL),
		f2(st.ProfitFactor),
		f2(st.Best), f2(st.Worst),
	)
}

func sideEmoji(s models.Side) string {
	if s == models.SideBuy {
		return "🟢"
	}
	return "🔴"
}

func f2(v float64) string { return fmt.Sprintf("%.2f", v) }
func f4(v float64) string { return fmt.Sprintf("%.4f", v) }
