package patterns

import "vrz_bot/internal/models"

// Long lower shadow: hammer at support, hanging man at resistance.
// Same shape, direction comes from context.
func longLowerShadow(c models.Candle) bool {
	r := c.Range()
	if r <= 0 {
		return false
	}
	b := c.Body()
	return c.LowerShadow() >= b*2 && c.UpperShadow() < b*smallBodyRatio && b/r < smallBodyRatio
}

func longUpperShadow(c models.Candle) bool {
	r := c.Range()
	if r <= 0 {
		return false
	}
	b := c.Body()
	return c.UpperShadow() >= b*2 && c.LowerShadow() < b*smallBodyRatio && b/r < smallBodyRatio
}

func single(shape func(models.Candle) bool) func(cs []models.Candle) (float64, float64, bool) {
	return func(cs []models.Candle) (float64, float64, bool) {
		c := cs[0]
		return c.High, c.Low, shape(c)
	}
}

var singleCandle = []rule{
	{name: "hammer", window: 1, direction: models.Bullish, confidence: 0.70, check: single(longLowerShadow)},
	{name: "inverted_hammer", window: 1, direction: models.Bullish, confidence: 0.65, check: single(longUpperShadow)},
	{name: "hanging_man", window: 1, direction: models.Bearish, confidence: 0.70, check: single(longLowerShadow)},
	{name: "shooting_star", window: 1, direction: models.Bearish, confidence: 0.70, check: single(longUpperShadow)},
}
