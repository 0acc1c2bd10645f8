package models

import "time"

type ZoneType string

const (
	ZoneResistance ZoneType = "resistance"
	ZoneSupport    ZoneType = "support"
)

type ZoneStatus string

const (
	ZoneActive      ZoneStatus = "active"
	ZoneInvalidated ZoneStatus = "invalidated"
)

type BreachDetails struct {
	Price     float64   `json:"breach_price"`
	Time      time.Time `json:"breach_time"`
	Timeframe string    `json:"breach_timeframe"`
}

// Zone is a VRZ around a swing pivot. active -> invalidated happens once.
type Zone struct {
	ID         string         `json:"id"`
	Symbol     string         `json:"symbol"`
	ProductID  int64          `json:"product_id"`
	Timeframe  string         `json:"timeframe"`
	Type       ZoneType       `json:"type"`
	PriceLevel float64        `json:"price_level"`
	ZoneUpper  float64        `json:"zone_upper"`
	ZoneLower  float64        `json:"zone_lower"`
	BarIndex   int            `json:"bar_index"`
	Timestamp  time.Time      `json:"timestamp"`
	Status     ZoneStatus     `json:"status"`
	Breach     *BreachDetails `json:"breach_details,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
}

func (z Zone) Active() bool { return z.Status == ZoneActive }

// Key is the natural key: one swing produces one zone.
func (z Zone) Key() string {
	return z.Symbol + "|" + z.Timeframe + "|" + string(z.Type) + "|" + z.Timestamp.UTC().Format(time.RFC3339)
}
