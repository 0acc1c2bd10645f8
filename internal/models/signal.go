package models

import "time"

type Side string

const (
	SideBuy  Side = "buy"
	SideSell Side = "sell"
)

// Opposite is the side of the order that reduces a position opened with s.
func (s Side) Opposite() Side {
	if s == SideBuy {
		return SideSell
	}
	return SideBuy
}

type OrderType string

const (
	OrderMarket OrderType = "market_order"
	OrderLimit  OrderType = "limit_order"
)

type TargetKind string

const (
	TargetRR   TargetKind = "rr"
	TargetZone TargetKind = "zone"
)

// Target is one take-profit level. Level is 1-based.
type Target struct {
	Level          int        `json:"level"`
	Kind           TargetKind `json:"type"`
	Price          float64    `json:"price"`
	RiskReward     float64    `json:"rr_ratio"`
	ExitPercentage float64    `json:"exit_percentage"`
	ZonePrice      float64    `json:"zone_price,omitempty"`
}

type EntrySignal struct {
	Symbol            string    `json:"symbol"`
	ProductID         int64     `json:"product_id"`
	Side              Side      `json:"side"`
	EntryPrice        float64   `json:"entry_price"`
	StopLoss          float64   `json:"stop_loss"`
	Targets           []Target  `json:"targets"`
	RiskReward        float64   `json:"risk_reward"`
	PatternName       string    `json:"pattern"`
	PatternConfidence float64   `json:"pattern_confidence"`
	Zone              Zone      `json:"entry_zone"`
	Timeframe         string    `json:"timeframe"`
	Size              int64     `json:"lot_size"`
	OrderType         OrderType `json:"order_type"`
	CreatedAt         time.Time `json:"timestamp"`
}
