package patterns

import "vrz_bot/internal/models"

var twoCandle = []rule{
	{
		name: "bullish_engulfing", window: 2, direction: models.Bullish, confidence: 0.75,
		check: func(cs []models.Candle) (float64, float64, bool) {
			p, c := cs[0], cs[1]
			if !p.IsBearish() || !c.IsBullish() {
				return 0, 0, false
			}
			ok := c.Open <= p.Close && c.Close >= p.Open && c.Body() > p.Body()
			return c.High, minLow(p, c), ok
		},
	},
	{
		name: "bearish_engulfing", window: 2, direction: models.Bearish, confidence: 0.75,
		check: func(cs []models.Candle) (float64, float64, bool) {
			p, c := cs[0], cs[1]
			if !p.IsBullish() || !c.IsBearish() {
				return 0, 0, false
			}
			ok := c.Open >= p.Close && c.Close <= p.Open && c.Body() > p.Body()
			return maxHigh(p, c), c.Low, ok
		},
	},
	{
		name: "piercing_line", window: 2, direction: models.Bullish, confidence: 0.70,
		check: func(cs []models.Candle) (float64, float64, bool) {
			p, c := cs[0], cs[1]
			if !p.IsBearish() || !c.IsBullish() {
				return 0, 0, false
			}
			ok := c.Open < p.Close && c.Close > p.BodyMid() && c.Close < p.Open
			return c.High, minLow(p, c), ok
		},
	},
	{
		name: "dark_cloud_cover", window: 2, direction: models.Bearish, confidence: 0.70,
		check: func(cs []models.Candle) (float64, float64, bool) {
			p, c := cs[0], cs[1]
			if !p.IsBullish() || !c.IsBearish() {
				return 0, 0, false
			}
			ok := c.Open > p.Close && c.Close < p.BodyMid() && c.Close > p.Open
			return maxHigh(p, c), c.Low, ok
		},
	},
	{
		name: "bullish_harami", window: 2, direction: models.Bullish, confidence: 0.65,
		check: func(cs []models.Candle) (float64, float64, bool) {
			p, c := cs[0], cs[1]
			if !p.IsBearish() || !c.IsBullish() {
				return 0, 0, false
			}
			ok := c.Open >= p.Close && c.Close <= p.Open && c.Body() < p.Body()
			return p.High, p.Low, ok
		},
	},
	{
		name: "bearish_harami", window: 2, direction: models.Bearish, confidence: 0.65,
		check: func(cs []models.Candle) (float64, float64, bool) {
			p, c := cs[0], cs[1]
			if !p.IsBullish() || !c.IsBearish() {
				return 0, 0, false
			}
			ok := c.Open <= p.Close && c.Close >= p.Open && c.Body() < p.Body()
			return p.High, p.Low, ok
		},
	},
	{
		name: "tweezer_bottom", window: 2, direction: models.Bullish, confidence: 0.60,
		check: func(cs []models.Candle) (float64, float64, bool) {
			return maxHigh(cs...), minLow(cs...), nearlyEqual(cs[0].Low, cs[1].Low)
		},
	},
	{
		name: "tweezer_top", window: 2, direction: models.Bearish, confidence: 0.60,
		check: func(cs []models.Candle) (float64, float64, bool) {
			return maxHigh(cs...), minLow(cs...), nearlyEqual(cs[0].High, cs[1].High)
		},
	},
}
