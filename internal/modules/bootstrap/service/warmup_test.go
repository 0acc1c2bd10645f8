package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vrz_bot/internal/models"
	"vrz_bot/internal/modules/config"
	"vrz_bot/internal/runner/router"
	"vrz_bot/internal/runner/sessions"
	"vrz_bot/internal/storage/memory"
	"vrz_bot/internal/strategy/zones"
)

type stubExchange struct{ sessions.Exchange }

func (stubExchange) Products(context.Context) ([]models.Product, error) {
	return []models.Product{
		{ID: 27, Symbol: "BTCUSD", ContractType: "perpetual_futures"},
		{ID: 3, Symbol: "ETHUSD", ContractType: "perpetual_futures"},
	}, nil
}

type countingZones struct{ calls int }

func (c *countingZones) Refresh(context.Context, string, int64, models.TradingSettings) (zones.RefreshResult, error) {
	c.calls++
	return zones.RefreshResult{Saved: 3}, nil
}

func TestSeedAndWarmup(t *testing.T) {
	cfg := &config.Config{Defaults: models.DefaultTradingSettings()}
	cfg.Users = []config.UserSeed{
		{UserID: 1, Name: "a", Active: true, Preset: "safe", Settings: models.TradingSettings{SelectedAssets: []string{"BTCUSD", "ETHUSD"}}},
		{UserID: 2, Name: "b", Active: false},
	}

	users := memory.NewUsers()
	zs := &countingZones{}
	r := router.NewRouter(sessions.Deps{Exchange: stubExchange{}, Zones: zs, AssetConcurrency: 1})
	w := NewWarmuper(cfg, users, r)

	n, err := w.Seed(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	u, err := users.Get(context.Background(), 1)
	require.NoError(t, err)
	assert.True(t, u.IsActive)
	assert.Equal(t, []float64{1.5, 2.0}, u.Settings.TargetLevels)

	saved, err := w.Warmup(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 6, saved)
	assert.Equal(t, 2, zs.calls)
	assert.Len(t, r.Sessions(), 1)
}
