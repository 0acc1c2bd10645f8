package zones

import (
	"context"
	"fmt"
	"sort"
	"time"

	"vrz_bot/internal/models"
	"vrz_bot/internal/strategy/swing"
	"vrz_bot/pkg/logger"
)

const (
	DefaultBufferPct    = 0.3
	DefaultProximityPct = 0.5
)

type Config struct {
	BufferPct    float64
	ProximityPct float64
}

type Manager struct {
	store        Store
	bufferPct    float64
	proximityPct float64
}

func NewManager(store Store, cfg Config) *Manager {
	if cfg.BufferPct <= 0 {
		cfg.BufferPct = DefaultBufferPct
	}
	if cfg.ProximityPct <= 0 {
		cfg.ProximityPct = DefaultProximityPct
	}
	return &Manager{store: store, bufferPct: cfg.BufferPct, proximityPct: cfg.ProximityPct}
}

func (m *Manager) BufferPct() float64    { return m.bufferPct }
func (m *Manager) ProximityPct() float64 { return m.proximityPct }

func (m *Manager) CreateZone(ctx context.Context, symbol string, productID int64, sp models.SwingPoint, timeframe string) (models.Zone, error) {
	z := NewZone(symbol, productID, sp, timeframe, m.bufferPct)
	id, err := m.store.Save(ctx, z)
	if err != nil {
		return models.Zone{}, fmt.Errorf("save zone %s: %w", z.Key(), err)
	}
	z.ID = id
	return z, nil
}

// CheckBreach invalidates every active zone of symbol pierced by candle.
// Empty timeframe checks zones of all timeframes. Returns the invalidated zones.
func (m *Manager) CheckBreach(ctx context.Context, symbol, timeframe string, c models.Candle) ([]models.Zone, error) {
	active, err := m.store.ActiveZones(ctx, symbol, timeframe, nil)
	if err != nil {
		return nil, fmt.Errorf("active zones %s: %w", symbol, err)
	}

	var out []models.Zone
	for _, z := range active {
		if !z.Active() || !Breached(z, c) {
			continue
		}
		bd := models.BreachDetails{Price: c.Close, Time: c.Time, Timeframe: z.Timeframe}
		changed, err := m.store.Invalidate(ctx, z.ID, bd)
		if err != nil {
			return out, fmt.Errorf("invalidate zone %s: %w", z.ID, err)
		}
		if !changed {
			continue
		}
		z.Status = models.ZoneInvalidated
		z.Breach = &bd
		out = append(out, z)
		logger.Info("zone invalidated: %s %s %s level=%.6f close=%.6f", symbol, z.Timeframe, z.Type, z.PriceLevel, c.Close)
	}
	return out, nil
}

// NearestZones returns up to limit active zones on the far side of price:
// resistance entirely above (lower > price), support entirely below (upper < price).
func (m *Manager) NearestZones(ctx context.Context, symbol, timeframe string, price float64, zt models.ZoneType, limit int) ([]models.Zone, error) {
	all, err := m.store.Nearest(ctx, symbol, timeframe, price, zt, 0)
	if err != nil {
		return nil, fmt.Errorf("nearest zones %s: %w", symbol, err)
	}

	out := make([]models.Zone, 0, len(all))
	for _, z := range all {
		if !z.Active() || z.Type != zt {
			continue
		}
		if zt == models.ZoneResistance && z.ZoneLower > price {
			out = append(out, z)
		}
		if zt == models.ZoneSupport && z.ZoneUpper < price {
			out = append(out, z)
		}
	}
	SortByDistance(out, price)

	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *Manager) IsNear(price float64, z models.Zone) bool {
	return IsNear(price, z, m.proximityPct)
}

type RefreshResult struct {
	Saved       int
	Invalidated int
}

// Refresh turns the swings of candles into zones and replays later candles
// against each new zone so a level already broken inside the window does not
// come back as active. The last candle is then checked against every zone.
func (m *Manager) Refresh(ctx context.Context, symbol string, productID int64, timeframe string, candles []models.Candle, det *swing.Detector) (RefreshResult, error) {
	var res RefreshResult
	if len(candles) == 0 {
		return res, nil
	}
	if det == nil {
		det = swing.NewDetector(0, 0)
	}

	sw := det.DetectAll(candles)
	points := append(append([]models.SwingPoint{}, sw.Highs...), sw.Lows...)
	for _, sp := range points {
		z, err := m.CreateZone(ctx, symbol, productID, sp, timeframe)
		if err != nil {
			return res, err
		}
		res.Saved++

		for i := sp.BarIndex + 1; i < len(candles)-1; i++ {
			if !Breached(z, candles[i]) {
				continue
			}
			bd := models.BreachDetails{Price: candles[i].Close, Time: candles[i].Time, Timeframe: timeframe}
			changed, err := m.store.Invalidate(ctx, z.ID, bd)
			if err != nil {
				return res, fmt.Errorf("invalidate zone %s: %w", z.ID, err)
			}
			if changed {
				res.Invalidated++
			}
			break
		}
	}

	broken, err := m.CheckBreach(ctx, symbol, timeframe, candles[len(candles)-1])
	res.Invalidated += len(broken)
	if err != nil {
		return res, err
	}

	logger.Debug("zones refreshed: %s %s saved=%d invalidated=%d", symbol, timeframe, res.Saved, res.Invalidated)
	return res, nil
}

// Purge drops invalidated zones created before the cutoff when the store supports it.
func (m *Manager) Purge(ctx context.Context, before time.Time) (int64, error) {
	p, ok := m.store.(Purger)
	if !ok {
		return 0, nil
	}
	n, err := p.PurgeInvalidated(ctx, before)
	if err != nil {
		return 0, fmt.Errorf("purge zones: %w", err)
	}
	if n > 0 {
		logger.Info("purged %d invalidated zones older than %s", n, before.Format(time.RFC3339))
	}
	return n, nil
}

// SortByDistance orders zones by |PriceLevel-price|, stable for equal distances.
func SortByDistance(zs []models.Zone, price float64) {
	sort.SliceStable(zs, func(i, j int) bool {
		return dist(zs[i].PriceLevel, price) < dist(zs[j].PriceLevel, price)
	})
}

func dist(a, b float64) float64 {
	if a > b {
		return a - b
	}
	return b - a
}
