package patterns

import "vrz_bot/internal/models"

var threeCandle = []rule{
	{
		name: "morning_star", window: 3, direction: models.Bullish, confidence: 0.80,
		check: func(cs []models.Candle) (float64, float64, bool) {
			a, star, c := cs[0], cs[1], cs[2]
			ok := a.IsBearish() &&
				star.Body() <= a.Body()*smallBodyRatio &&
				c.IsBullish() &&
				c.Close > a.BodyMid()
			return c.High, minLow(cs...), ok
		},
	},
	{
		name: "evening_star", window: 3, direction: models.Bearish, confidence: 0.80,
		check: func(cs []models.Candle) (float64, float64, bool) {
			a, star, c := cs[0], cs[1], cs[2]
			ok := a.IsBullish() &&
				star.Body() <= a.Body()*smallBodyRatio &&
				c.IsBearish() &&
				c.Close < a.BodyMid()
			return maxHigh(cs...), c.Low, ok
		},
	},
	{
		name: "three_white_soldiers", window: 3, direction: models.Bullish, confidence: 0.85,
		check: func(cs []models.Candle) (float64, float64, bool) {
			a, b, c := cs[0], cs[1], cs[2]
			if !a.IsBullish() || !b.IsBullish() || !c.IsBullish() {
				return 0, 0, false
			}
			// each opens inside the prior body and closes higher
			ok := b.Open > a.Open && b.Open < a.Close &&
				c.Open > b.Open && c.Open < b.Close &&
				b.Close > a.Close && c.Close > b.Close &&
				shortShadows(a) && shortShadows(b) && shortShadows(c)
			return c.High, minLow(cs...), ok
		},
	},
	{
		name: "three_black_crows", window: 3, direction: models.Bearish, confidence: 0.85,
		check: func(cs []models.Candle) (float64, float64, bool) {
			a, b, c := cs[0], cs[1], cs[2]
			if !a.IsBearish() || !b.IsBearish() || !c.IsBearish() {
				return 0, 0, false
			}
			ok := b.Open < a.Open && b.Open > a.Close &&
				c.Open < b.Open && c.Open > b.Close &&
				b.Close < a.Close && c.Close < b.Close &&
				shortShadows(a) && shortShadows(b) && shortShadows(c)
			return maxHigh(cs...), c.Low, ok
		},
	},
	{
		name: "three_outside_up", window: 3, direction: models.Bullish, confidence: 0.78,
		check: func(cs []models.Candle) (float64, float64, bool) {
			a, b, c := cs[0], cs[1], cs[2]
			ok := a.IsBearish() &&
				b.IsBullish() && b.Open <= a.Close && b.Close >= a.Open &&
				c.IsBullish() && c.Close > b.Close
			return c.High, minLow(cs...), ok
		},
	},
	{
		name: "three_outside_down", window: 3, direction: models.Bearish, confidence: 0.78,
		check: func(cs []models.Candle) (float64, float64, bool) {
			a, b, c := cs[0], cs[1], cs[2]
			ok := a.IsBullish() &&
				b.IsBearish() && b.Open >= a.Close && b.Close <= a.Open &&
				c.IsBearish() && c.Close < b.Close
			return maxHigh(cs...), c.Low, ok
		},
	},
	{
		name: "abandoned_baby_bullish", window: 3, direction: models.Bullish, confidence: 0.90,
		check: func(cs []models.Candle) (float64, float64, bool) {
			a, baby, c := cs[0], cs[1], cs[2]
			// baby sits entirely below both neighbours' lows
			ok := a.IsBearish() && isDoji(baby) && c.IsBullish() &&
				baby.High < a.Low && baby.High < c.Low
			return c.High, baby.Low, ok
		},
	},
	{
		name: "abandoned_baby_bearish", window: 3, direction: models.Bearish, confidence: 0.90,
		check: func(cs []models.Candle) (float64, float64, bool) {
			a, baby, c := cs[0], cs[1], cs[2]
			ok := a.IsBullish() && isDoji(baby) && c.IsBearish() &&
				baby.Low > a.High && baby.Low > c.High
			return baby.High, c.Low, ok
		},
	},
}
