package notify

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"vrz_bot/internal/models"
)

func TestFormatSignal(t *testing.T) {
	msg := FormatSignal(models.EntrySignal{
		Symbol:      "BTCUSD",
		Side:        models.SideSell,
		EntryPrice:  100,
		StopLoss:    101,
		PatternName: "bearish_engulfing",
		Targets: []models.Target{
			{Level: 1, Price: 98.5, RiskReward: 1.5, ExitPercentage: 50},
			{Level: 2, Price: 98, RiskReward: 2, ExitPercentage: 50},
		},
		Size: 2,
	})
	assert.Contains(t, msg, "SELL")
	assert.Contains(t, msg, "`BTCUSD`")
	assert.Contains(t, msg, "T1: `98.5000` (1.50R, 50.00%)")
	assert.Contains(t, msg, "T2: `98.0000`")
	assert.Contains(t, msg, "bearish_engulfing")
}

func TestFormatExit(t *testing.T) {
	pos := models.Position{Symbol: "ETHUSD"}

	msg := FormatExit(pos, models.ExitAction{Kind: models.ExitPartial, TargetLevel: 2, Price: 10, Quantity: 1, Remaining: 3, PnL: 1.25})
	assert.Contains(t, msg, "Target 2")
	assert.Contains(t, msg, "left `3`")
	assert.Contains(t, msg, "`1.25`")

	msg = FormatExit(pos, models.ExitAction{Kind: models.ExitStopLoss, Price: 9})
	assert.Contains(t, msg, "Stop loss")

	msg = FormatExit(pos, models.ExitAction{Kind: models.ExitTrailStop, NewStopLoss: 10.5})
	assert.Contains(t, msg, "`10.5000`")
}

func TestFormatReport(t *testing.T) {
	msg := FormatReport(models.UserSettings{UserID: 42}, models.PositionStats{Total: 4, Winning: 3, Losing: 1, WinRate: 75})
	assert.Contains(t, msg, "42")
	assert.Contains(t, msg, "`4` (3 / 1)")
	assert.Contains(t, msg, "`75.00%`")
}

func TestStdout(t *testing.T) {
	assert.NoError(t, Sendf(context.Background(), NewStdout(), 1, "hello %s", "there"))
}
