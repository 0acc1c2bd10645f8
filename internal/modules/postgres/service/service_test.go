package service

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"vrz_bot/internal/models"
	"vrz_bot/pkg/db"
)

// testDB connects to VRZ_TEST_DSN and applies the schema. Tests skip without it.
func testDB(t *testing.T) *db.PgTxManager {
	t.Helper()
	dsn := os.Getenv("VRZ_TEST_DSN")
	if dsn == "" {
		t.Skip("VRZ_TEST_DSN is not set")
	}

	ctx := context.Background()
	pool, err := db.NewPool(ctx, db.PoolConfig{DSN: dsn, MaxConns: 8})
	require.NoError(t, err)
	tx := db.NewPgTxManager(pool)
	t.Cleanup(tx.Close)

	schema, err := os.ReadFile(filepath.Join("..", "..", "..", "..", "migrations", "0001_init.sql"))
	require.NoError(t, err)
	_, err = tx.Conn().Exec(ctx, string(schema))
	require.NoError(t, err)
	return tx
}

// symbols are unique per run so reruns against one database do not collide
func testSymbol() string {
	return "T" + uuid.NewString()[:8]
}

func TestZoneSaveIsIdempotent(t *testing.T) {
	tx := testDB(t)
	ctx := context.Background()
	store := NewZones(tx)

	swingAt := time.Now().UTC().Truncate(time.Second)
	z := models.Zone{
		Symbol: testSymbol(), ProductID: 27, Timeframe: "1h", Type: models.ZoneResistance,
		PriceLevel: 100, ZoneUpper: 100.3, ZoneLower: 99.7, BarIndex: 4, Timestamp: swingAt,
	}
	first, err := store.Save(ctx, z)
	require.NoError(t, err)

	z.ID = uuid.NewString()
	second, err := store.Save(ctx, z)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	changed, err := store.Invalidate(ctx, first, models.BreachDetails{Price: 101, Time: swingAt.Add(time.Hour), Timeframe: "1h"})
	require.NoError(t, err)
	assert.True(t, changed)
	changed, err = store.Invalidate(ctx, first, models.BreachDetails{Price: 105})
	require.NoError(t, err)
	assert.False(t, changed)

	// saving the same swing again does not bring the zone back
	third, err := store.Save(ctx, z)
	require.NoError(t, err)
	assert.Equal(t, first, third)
	active, err := store.ActiveZones(ctx, z.Symbol, "", nil)
	require.NoError(t, err)
	assert.Empty(t, active)

	_, err = store.Invalidate(ctx, uuid.NewString(), models.BreachDetails{})
	assert.True(t, errors.Is(err, models.ErrNotFound))
}

func TestApplyExitSerializesConcurrentExits(t *testing.T) {
	tx := testDB(t)
	ctx := context.Background()
	store := NewPositions(tx)

	sig := models.EntrySignal{Symbol: testSymbol(), ProductID: 27, Side: models.SideBuy, EntryPrice: 100, StopLoss: 99}
	id, err := store.Create(ctx, models.NewPosition("", 42, sig, "ord-1", 4, time.Now().UTC()))
	require.NoError(t, err)

	var g errgroup.Group
	for i := 0; i < 4; i++ {
		g.Go(func() error {
			_, err := store.ApplyExit(ctx, id, models.ExitAction{Kind: models.ExitManual, Price: 101, Quantity: 1, PnL: 1, Time: time.Now().UTC()})
			return err
		})
	}
	require.NoError(t, g.Wait())

	pos, err := store.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, models.PositionClosed, pos.Status)
	assert.Equal(t, int64(0), pos.RemainingSize)
	assert.Len(t, pos.ExitDetails, 4)
	assert.InDelta(t, 4.0, pos.PnL, 1e-9)

	applied, err := store.ApplyExit(ctx, id, models.ExitAction{Kind: models.ExitManual, Quantity: 1})
	require.NoError(t, err)
	assert.False(t, applied)

	_, err = store.ApplyExit(ctx, uuid.NewString(), models.ExitAction{Kind: models.ExitManual, Quantity: 1})
	assert.True(t, errors.Is(err, models.ErrNotFound))
}

func TestUserUpsertOverwrites(t *testing.T) {
	tx := testDB(t)
	ctx := context.Background()
	store := NewUsers(tx)
	userID := time.Now().UnixNano() % 1_000_000_000

	u := &models.UserSettings{UserID: userID, Name: "alice", IsActive: true, Settings: models.DefaultTradingSettings()}
	require.NoError(t, store.Upsert(ctx, u))

	u.Name = "alice2"
	u.IsActive = false
	u.Settings.MaxZones = 1
	require.NoError(t, store.Upsert(ctx, u))

	got, err := store.Get(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, "alice2", got.Name)
	assert.False(t, got.IsActive)
	assert.Equal(t, 1, got.Settings.MaxZones)

	_, err = store.Get(ctx, -userID)
	assert.True(t, errors.Is(err, models.ErrNotFound))
}
