package patterns

import "vrz_bot/internal/models"

const (
	dojiRatio        = 0.1
	smallBodyRatio   = 0.3
	tweezerTolerance = 0.001
)

func isDoji(c models.Candle) bool {
	r := c.Range()
	if r <= 0 {
		return false
	}
	return c.Body()/r < dojiRatio
}

func maxHigh(cs ...models.Candle) float64 {
	v := cs[0].High
	for _, c := range cs[1:] {
		v = max(v, c.High)
	}
	return v
}

func minLow(cs ...models.Candle) float64 {
	v := cs[0].Low
	for _, c := range cs[1:] {
		v = min(v, c.Low)
	}
	return v
}

// shortShadows: both shadows within 30% of the body.
func shortShadows(c models.Candle) bool {
	b := c.Body()
	return c.UpperShadow() <= b*smallBodyRatio && c.LowerShadow() <= b*smallBodyRatio
}

func nearlyEqual(a, b float64) bool {
	avg := (a + b) / 2
	if avg <= 0 {
		return false
	}
	d := a - b
	if d < 0 {
		d = -d
	}
	return d/avg < tweezerTolerance
}
