package helper

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

var timeframeMinutes = map[string]int{
	"1m":  1,
	"3m":  3,
	"5m":  5,
	"15m": 15,
	"30m": 30,
	"1h":  60,
	"2h":  120,
	"4h":  240,
	"6h":  360,
	"1d":  1440,
	"1w":  10080,
	"1M":  43200,
}

// ascending by minutes
var timeframeOrder = []string{"1m", "3m", "5m", "15m", "30m", "1h", "2h", "4h", "6h", "1d", "1w", "1M"}

func NormTF(raw string) string {
	s := strings.TrimSpace(raw)
	if s == "1M" {
		return s
	}
	s = strings.ToLower(s)
	switch s {
	case "60m", "1h":
		return "1h"
	case "120m":
		return "2h"
	case "240m":
		return "4h"
	case "360m":
		return "6h"
	case "1440m", "24h":
		return "1d"
	default:
		return s
	}
}

func TimeframeMinutes(tf string) (int, bool) {
	m, ok := timeframeMinutes[NormTF(tf)]
	return m, ok
}

// TimeframeSeconds falls back to one hour for unknown timeframes.
func TimeframeSeconds(tf string) int64 {
	m, ok := TimeframeMinutes(tf)
	if !ok {
		m = 60
	}
	return int64(m) * 60
}

// HigherTimeframe returns the smallest listed timeframe >= tf*multiplier.
func HigherTimeframe(tf string, multiplier int) (string, error) {
	base, ok := TimeframeMinutes(tf)
	if !ok {
		return "", fmt.Errorf("invalid timeframe: %q", tf)
	}
	target := base * multiplier
	for _, name := range timeframeOrder {
		if timeframeMinutes[name] >= target {
			return name, nil
		}
	}
	return "1d", nil
}

// BaseTimeframe resolves "auto" (or empty) to 4x the trading timeframe.
func BaseTimeframe(base, trading string) (string, error) {
	b := strings.TrimSpace(base)
	if b == "" || strings.EqualFold(b, "auto") {
		return HigherTimeframe(trading, 4)
	}
	if _, ok := TimeframeMinutes(b); !ok {
		return "", fmt.Errorf("invalid base timeframe: %q", base)
	}
	return NormTF(b), nil
}

// CandleWindow is the [start, end] unix range covering the last bars candles of tf.
func CandleWindow(tf string, bars int, now time.Time) (int64, int64) {
	end := now.Unix()
	return end - int64(bars)*TimeframeSeconds(tf), end
}

// RoundDownToTick snaps px to the tick grid at or below it.
func RoundDownToTick(px, tick float64) float64 {
	if tick <= 0 {
		return px
	}
	steps := math.Floor(px/tick + 1e-9)
	return onGrid(steps, tick)
}

// RoundUpToTick snaps px to the tick grid at or above it.
func RoundUpToTick(px, tick float64) float64 {
	if tick <= 0 {
		return px
	}
	steps := math.Ceil(px/tick - 1e-9)
	return onGrid(steps, tick)
}

// onGrid multiplies in decimal so 3 x 0.1 prints as 0.3.
func onGrid(steps, tick float64) float64 {
	return decimal.NewFromFloat(steps).Mul(decimal.NewFromFloat(tick)).InexactFloat64()
}

// FormatPrice prints a price without exponent and trailing zeros.
func FormatPrice(px float64) string {
	return strconv.FormatFloat(px, 'f', -1, 64)
}

// ParseFloat is lenient: empty or broken strings become 0.
func ParseFloat(s string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0
	}
	return v
}

func PendingKey(kind, id string) string { return kind + ":" + id }
