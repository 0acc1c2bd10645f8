package zones

import (
	"time"

	"vrz_bot/internal/models"
)

// NewZone builds an active zone around a swing pivot.
// Swing highs become resistance, swing lows support.
func NewZone(symbol string, productID int64, sp models.SwingPoint, timeframe string, bufferPct float64) models.Zone {
	zt := models.ZoneSupport
	if sp.Kind == models.SwingHigh {
		zt = models.ZoneResistance
	}

	buf := sp.Price * bufferPct / 100
	return models.Zone{
		Symbol:     symbol,
		ProductID:  productID,
		Timeframe:  timeframe,
		Type:       zt,
		PriceLevel: sp.Price,
		ZoneUpper:  sp.Price + buf,
		ZoneLower:  sp.Price - buf,
		BarIndex:   sp.BarIndex,
		Timestamp:  sp.Timestamp,
		Status:     models.ZoneActive,
		CreatedAt:  time.Now().UTC(),
	}
}

// Breached reports whether candle pierces the outer bound of z.
func Breached(z models.Zone, c models.Candle) bool {
	if z.Type == models.ZoneResistance {
		return c.High > z.ZoneUpper
	}
	return c.Low < z.ZoneLower
}

// IsNear: price within [lower-b, upper+b], b = level*proximityPct/100.
func IsNear(price float64, z models.Zone, proximityPct float64) bool {
	b := z.PriceLevel * proximityPct / 100
	return price >= z.ZoneLower-b && price <= z.ZoneUpper+b
}

// FirstNear returns the first zone in order that price is near.
func FirstNear(price float64, zs []models.Zone, proximityPct float64) (models.Zone, bool) {
	for _, z := range zs {
		if IsNear(price, z, proximityPct) {
			return z, true
		}
	}
	return models.Zone{}, false
}
