package swing

import (
	"vrz_bot/internal/models"
	"vrz_bot/pkg/logger"
)

const defaultBars = 3

// Swings holds pivots in bar order.
type Swings struct {
	Highs []models.SwingPoint
	Lows  []models.SwingPoint
}

// FindPivot checks candles[index] against left/right neighbours.
// Any neighbour with an equal-or-better extreme disqualifies the candidate.
func FindPivot(candles []models.Candle, index, left, right int, kind models.SwingKind) (bool, float64) {
	if index < left || index >= len(candles)-right {
		return false, 0
	}

	pick := func(c models.Candle) float64 { return c.High }
	beats := func(n, pivot float64) bool { return n >= pivot }
	if kind == models.SwingLow {
		pick = func(c models.Candle) float64 { return c.Low }
		beats = func(n, pivot float64) bool { return n <= pivot }
	}

	pivot := pick(candles[index])
	for i := index - left; i <= index+right; i++ {
		if i == index {
			continue
		}
		if beats(pick(candles[i]), pivot) {
			return false, 0
		}
	}
	return true, pivot
}

func SwingHigh(candles []models.Candle, index, left, right int) (bool, float64) {
	return FindPivot(candles, index, left, right, models.SwingHigh)
}

func SwingLow(candles []models.Candle, index, left, right int) (bool, float64) {
	return FindPivot(candles, index, left, right, models.SwingLow)
}

type Detector struct {
	Left  int
	Right int
}

func NewDetector(left, right int) *Detector {
	if left <= 0 {
		left = defaultBars
	}
	if right <= 0 {
		right = defaultBars
	}
	return &Detector{Left: left, Right: right}
}

func (d *Detector) DetectAll(candles []models.Candle) Swings {
	var out Swings
	for i := d.Left; i < len(candles)-d.Right; i++ {
		if ok, px := SwingHigh(candles, i, d.Left, d.Right); ok {
			out.Highs = append(out.Highs, models.SwingPoint{
				Price: px, BarIndex: i, Timestamp: candles[i].Time, Kind: models.SwingHigh,
			})
		}
		if ok, px := SwingLow(candles, i, d.Left, d.Right); ok {
			out.Lows = append(out.Lows, models.SwingPoint{
				Price: px, BarIndex: i, Timestamp: candles[i].Time, Kind: models.SwingLow,
			})
		}
	}
	logger.Debug("swings detected: highs=%d lows=%d bars=%d", len(out.Highs), len(out.Lows), len(candles))
	return out
}
