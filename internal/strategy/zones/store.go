package zones

import (
	"context"
	"time"

	"vrz_bot/internal/models"
)

// Store persists zones. Save is idempotent per Zone.Key and never
// reactivates an invalidated zone.
type Store interface {
	Save(ctx context.Context, zone models.Zone) (string, error)
	// ActiveZones with empty timeframe returns every timeframe; nil zoneType every type.
	ActiveZones(ctx context.Context, symbol, timeframe string, zoneType *models.ZoneType) ([]models.Zone, error)
	// Nearest sorts by |PriceLevel-price|; limit <= 0 means no limit.
	Nearest(ctx context.Context, symbol, timeframe string, price float64, zoneType models.ZoneType, limit int) ([]models.Zone, error)
	// Invalidate reports false when the zone was already invalidated.
	Invalidate(ctx context.Context, id string, breach models.BreachDetails) (bool, error)
}

// Purger is implemented by stores that support retention cleanup.
type Purger interface {
	PurgeInvalidated(ctx context.Context, before time.Time) (int64, error)
}
