package patterns

import (
	"vrz_bot/internal/models"
	"vrz_bot/pkg/logger"
)

// Matcher recognizes one candlestick pattern ending at index.
type Matcher interface {
	Name() string
	Window() int
	Match(candles []models.Candle, index int) (models.PatternMatch, bool)
}

// rule is a fixed-window matcher. check gets exactly window candles, oldest first.
type rule struct {
	name       string
	window     int
	direction  models.Direction
	confidence float64
	check      func(cs []models.Candle) (high, low float64, ok bool)
}

func (r rule) Name() string { return r.name }
func (r rule) Window() int  { return r.window }

func (r rule) Match(candles []models.Candle, index int) (models.PatternMatch, bool) {
	if index < r.window-1 || index >= len(candles) {
		return models.PatternMatch{}, false
	}
	hi, lo, ok := r.check(candles[index-r.window+1 : index+1])
	if !ok {
		return models.PatternMatch{}, false
	}
	return models.PatternMatch{
		Name:       r.name,
		Direction:  r.direction,
		Confidence: r.confidence,
		Candles:    r.window,
		High:       hi,
		Low:        lo,
		Index:      index,
	}, true
}

// registry order is the evaluation order and breaks confidence ties.
func registry() []Matcher {
	out := make([]Matcher, 0, len(twoCandle)+len(threeCandle)+len(singleCandle))
	for _, group := range [][]rule{twoCandle, threeCandle, singleCandle} {
		for _, r := range group {
			out = append(out, r)
		}
	}
	return out
}

type Library struct {
	matchers []Matcher
}

func NewLibrary() *Library {
	return &Library{matchers: registry()}
}

// Matchers returns a copy of the registry.
func (l *Library) Matchers() []Matcher {
	return append([]Matcher(nil), l.matchers...)
}

func (l *Library) ScanAll(candles []models.Candle, index int) []models.PatternMatch {
	var out []models.PatternMatch
	for _, m := range l.matchers {
		if pm, ok := m.Match(candles, index); ok {
			out = append(out, pm)
		}
	}
	return out
}

// Best is the highest-confidence match; the earlier matcher wins ties.
func (l *Library) Best(candles []models.Candle, index int) (models.PatternMatch, bool) {
	all := l.ScanAll(candles, index)
	if len(all) == 0 {
		return models.PatternMatch{}, false
	}
	best := all[0]
	for _, pm := range all[1:] {
		if pm.Confidence > best.Confidence {
			best = pm
		}
	}
	logger.Debug("pattern %s %s conf=%.2f at %d (%d matched)", best.Name, best.Direction, best.Confidence, index, len(all))
	return best, true
}
