package storage

import (
	"context"
	"time"

	"vrz_bot/internal/models"
	"vrz_bot/internal/strategy/zones"
)

// ZoneStore is shared by the zone manager and maintenance.
type ZoneStore interface {
	zones.Store
	zones.Purger
}

type PositionStore interface {
	Create(ctx context.Context, pos models.Position) (string, error)
	Get(ctx context.Context, id string) (*models.Position, error)
	OpenPositions(ctx context.Context, userID int64) ([]models.Position, error)
	ClosedPositions(ctx context.Context, userID int64, since time.Time) ([]models.Position, error)
	// ApplyExit returns false when the position was already closed.
	ApplyExit(ctx context.Context, id string, action models.ExitAction) (bool, error)
	PurgeClosed(ctx context.Context, before time.Time) (int64, error)
}

type UserStore interface {
	Upsert(ctx context.Context, user *models.UserSettings) error
	Get(ctx context.Context, userID int64) (*models.UserSettings, error)
	Active(ctx context.Context) ([]models.UserSettings, error)
	SetActive(ctx context.Context, userID int64, active bool) error
}
