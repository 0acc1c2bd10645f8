package router

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vrz_bot/internal/models"
	"vrz_bot/internal/runner/sessions"
	"vrz_bot/internal/storage/memory"
)

func user(id int64, active bool) models.UserSettings {
	return models.UserSettings{UserID: id, IsActive: active, Settings: models.TradingSettings{LotSize: id}}
}

func TestEnableDisable(t *testing.T) {
	r := NewRouter(sessions.Deps{Positions: memory.NewPositions()})

	u := user(1, true)
	assert.True(t, r.EnableUser(&u))
	assert.False(t, r.EnableUser(&u))
	assert.False(t, r.EnableUser(nil))

	sess, ok := r.GetSession(1)
	require.True(t, ok)

	assert.True(t, r.DisableUser(1))
	assert.False(t, r.DisableUser(1))
	assert.Error(t, sess.Ctx.Err())
}

func TestSync(t *testing.T) {
	r := NewRouter(sessions.Deps{Positions: memory.NewPositions()})

	on, off := r.Sync([]models.UserSettings{user(2, true), user(1, true), user(5, false)})
	assert.Equal(t, 2, on)
	assert.Equal(t, 0, off)
	list := r.Sessions()
	require.Len(t, list, 2)
	assert.Equal(t, int64(1), list[0].UserID)
	assert.Equal(t, int64(2), list[1].UserID)

	updated := user(2, true)
	updated.Settings.LotSize = 9
	on, off = r.Sync([]models.UserSettings{updated})
	assert.Equal(t, 0, on)
	assert.Equal(t, 1, off)

	sess, ok := r.GetSession(2)
	require.True(t, ok)
	assert.Equal(t, int64(9), sess.Settings().LotSize)
	_, ok = r.GetSession(1)
	assert.False(t, ok)
}

func TestStatusForUser(t *testing.T) {
	positions := memory.NewPositions()
	_, err := positions.Create(context.Background(), models.Position{
		UserID: 3, Symbol: "BTCUSD", Size: 1, RemainingSize: 1, Status: models.PositionOpen, OpenedAt: time.Now(),
	})
	require.NoError(t, err)

	r := NewRouter(sessions.Deps{Positions: positions})
	_, err = r.StatusForUser(context.Background(), 3)
	assert.True(t, errors.Is(err, models.ErrNotFound))

	u := user(3, true)
	r.EnableUser(&u)
	open, err := r.StatusForUser(context.Background(), 3)
	require.NoError(t, err)
	require.Len(t, open, 1)
	assert.Equal(t, "BTCUSD", open[0].Symbol)

	_, err = r.ClosePosition(context.Background(), 4, "x", "manual")
	assert.True(t, errors.Is(err, models.ErrNotFound))
}
