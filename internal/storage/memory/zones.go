package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"vrz_bot/internal/models"
)

// Zones is a map-backed zone store for tests and dry runs.
type Zones struct {
	mu    sync.RWMutex
	byID  map[string]*models.Zone
	byKey map[string]string
}

func NewZones() *Zones {
	return &Zones{
		byID:  make(map[string]*models.Zone),
		byKey: make(map[string]string),
	}
}

func (s *Zones) Save(_ context.Context, zone models.Zone) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if id, ok := s.byKey[zone.Key()]; ok {
		return id, nil
	}
	if zone.ID == "" {
		zone.ID = uuid.NewString()
	}
	if zone.CreatedAt.IsZero() {
		zone.CreatedAt = time.Now().UTC()
	}
	z := zone
	s.byID[z.ID] = &z
	s.byKey[z.Key()] = z.ID
	return z.ID, nil
}

func (s *Zones) ActiveZones(_ context.Context, symbol, timeframe string, zoneType *models.ZoneType) ([]models.Zone, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Zone, 0)
	for _, z := range s.byID {
		if z.Symbol != symbol || !z.Active() {
			continue
		}
		if timeframe != "" && z.Timeframe != timeframe {
			continue
		}
		if zoneType != nil && z.Type != *zoneType {
			continue
		}
		out = append(out, *z)
	}
	// newest first
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].Timestamp.After(out[j].Timestamp)
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (s *Zones) Nearest(ctx context.Context, symbol, timeframe string, price float64, zoneType models.ZoneType, limit int) ([]models.Zone, error) {
	zs, err := s.ActiveZones(ctx, symbol, timeframe, &zoneType)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(zs, func(i, j int) bool {
		return abs(zs[i].PriceLevel-price) < abs(zs[j].PriceLevel-price)
	})
	if limit > 0 && len(zs) > limit {
		zs = zs[:limit]
	}
	return zs, nil
}

// Invalidate keeps the first breach; repeated calls are no-ops and report false.
func (s *Zones) Invalidate(_ context.Context, id string, breach models.BreachDetails) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	z, ok := s.byID[id]
	if !ok {
		return false, fmt.Errorf("memory.Invalidate %s: %w", id, models.ErrNotFound)
	}
	if !z.Active() {
		return false, nil
	}
	bd := breach
	z.Status = models.ZoneInvalidated
	z.Breach = &bd
	return true, nil
}

func (s *Zones) Get(_ context.Context, id string) (models.Zone, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	z, ok := s.byID[id]
	if !ok {
		return models.Zone{}, fmt.Errorf("memory.GetZone %s: %w", id, models.ErrNotFound)
	}
	return *z, nil
}

func (s *Zones) PurgeInvalidated(_ context.Context, before time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int64
	for id, z := range s.byID {
		if z.Active() || !z.CreatedAt.Before(before) {
			continue
		}
		delete(s.byKey, z.Key())
		delete(s.byID, id)
		n++
	}
	return n, nil
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
