package models

type Direction string

const (
	Bullish Direction = "bullish"
	Bearish Direction = "bearish"
)

// PatternMatch is produced per scan by a single matcher.
type PatternMatch struct {
	Name       string    `json:"pattern_name"`
	Direction  Direction `json:"direction"`
	Confidence float64   `json:"confidence"`
	Candles    int       `json:"candles_involved"`
	High       float64   `json:"pattern_high"`
	Low        float64   `json:"pattern_low"`
	Index      int       `json:"index"`
}
