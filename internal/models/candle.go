package models

import "time"

// Candle is one OHLCV bar. Never mutated after fetch.
type Candle struct {
	Time   time.Time `json:"time"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume float64   `json:"volume"`
}

func (c Candle) Body() float64 {
	if c.Close >= c.Open {
		return c.Close - c.Open
	}
	return c.Open - c.Close
}

func (c Candle) Range() float64 { return c.High - c.Low }

func (c Candle) IsBullish() bool { return c.Close > c.Open }
func (c Candle) IsBearish() bool { return c.Close < c.Open }

// UpperShadow and LowerShadow are measured from the body edges.
func (c Candle) UpperShadow() float64 {
	return c.High - max(c.Open, c.Close)
}

func (c Candle) LowerShadow() float64 {
	return min(c.Open, c.Close) - c.Low
}

// BodyMid is (open+close)/2.
func (c Candle) BodyMid() float64 { return (c.Open + c.Close) / 2 }

type SwingKind string

const (
	SwingHigh SwingKind = "high"
	SwingLow  SwingKind = "low"
)

// SwingPoint is derived from candles and never persisted on its own.
type SwingPoint struct {
	Price     float64   `json:"price"`
	BarIndex  int       `json:"bar_index"`
	Timestamp time.Time `json:"timestamp"`
	Kind      SwingKind `json:"kind"`
}
