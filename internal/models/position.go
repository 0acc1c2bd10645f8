package models

import "time"

type PositionStatus string

const (
	PositionOpen   PositionStatus = "open"
	PositionClosed PositionStatus = "closed"
)

type ExitKind string

const (
	ExitPartial   ExitKind = "partial_exit"
	ExitStopLoss  ExitKind = "stop_loss_exit"
	ExitTrailStop ExitKind = "trail_stop"
	ExitManual    ExitKind = "manual_close"

	// the unfilled part of a resting entry order was cancelled
	ExitEntryCancelled ExitKind = "entry_cancelled"
)

// ExitAction is an append-only entry of Position.ExitDetails.
type ExitAction struct {
	Kind        ExitKind  `json:"action"`
	TargetLevel int       `json:"target_level,omitempty"`
	Price       float64   `json:"exit_price"`
	Quantity    int64     `json:"exit_quantity,omitempty"`
	Remaining   int64     `json:"remaining_quantity"`
	NewStopLoss float64   `json:"new_stop_loss,omitempty"`
	PnL         float64   `json:"pnl"`
	OrderID     string    `json:"order_id,omitempty"`
	Reason      string    `json:"reason,omitempty"`
	Time        time.Time `json:"timestamp"`
}

// ReducesSize reports whether the action closes contracts on the exchange.
func (a ExitAction) ReducesSize() bool {
	return a.Kind == ExitPartial || a.Kind == ExitStopLoss || a.Kind == ExitManual
}

type Position struct {
	ID            string         `json:"id"`
	UserID        int64          `json:"telegram_user_id"`
	Symbol        string         `json:"symbol"`
	ProductID     int64          `json:"product_id"`
	OrderID       string         `json:"order_id"`
	Side          Side           `json:"side"`
	EntryPrice    float64        `json:"entry_price"`
	StopLoss      float64        `json:"stop_loss"`
	Targets       []Target       `json:"targets"`
	Size          int64          `json:"position_size"`
	RemainingSize int64          `json:"remaining_size"`
	Status        PositionStatus `json:"status"`
	ExitDetails   []ExitAction   `json:"exit_details"`
	PnL           float64        `json:"pnl"`
	EntryPattern  string         `json:"entry_pattern"`
	EntryZone     *Zone          `json:"entry_vrz_zone,omitempty"`
	OpenedAt      time.Time      `json:"entry_time"`
	ClosedAt      time.Time      `json:"exit_time"`
}

func (p *Position) IsOpen() bool { return p.Status == PositionOpen && p.RemainingSize > 0 }

// HasExitForLevel reports whether the target level was already partially exited.
func (p *Position) HasExitForLevel(level int) bool {
	for _, a := range p.ExitDetails {
		if a.Kind == ExitPartial && a.TargetLevel == level {
			return true
		}
	}
	return false
}

func (p *Position) PartialCount() int {
	n := 0
	for _, a := range p.ExitDetails {
		if a.Kind == ExitPartial {
			n++
		}
	}
	return n
}

// Apply is the only place a position changes after creation.
// RemainingSize never grows and the status flips to closed once.
func (p *Position) Apply(a ExitAction) {
	if p.Status == PositionClosed {
		return
	}

	switch a.Kind {
	case ExitTrailStop:
		p.StopLoss = a.NewStopLoss
	case ExitPartial, ExitStopLoss, ExitManual, ExitEntryCancelled:
		qty := a.Quantity
		if qty > p.RemainingSize || qty < 0 {
			qty = p.RemainingSize
		}
		// PnL was computed for the requested quantity
		if a.Quantity > 0 && qty != a.Quantity {
			a.PnL = a.PnL * float64(qty) / float64(a.Quantity)
		}
		a.Quantity = qty
		p.RemainingSize -= qty
		a.Remaining = p.RemainingSize
		p.PnL += a.PnL
	}

	p.ExitDetails = append(p.ExitDetails, a)

	if p.RemainingSize == 0 {
		p.Status = PositionClosed
		p.ClosedAt = a.Time
	}
}

// NewPosition builds an open position from an executed signal.
func NewPosition(id string, userID int64, sig EntrySignal, orderID string, size int64, at time.Time) Position {
	zone := sig.Zone
	targets := make([]Target, len(sig.Targets))
	copy(targets, sig.Targets)

	return Position{
		ID:            id,
		UserID:        userID,
		Symbol:        sig.Symbol,
		ProductID:     sig.ProductID,
		OrderID:       orderID,
		Side:          sig.Side,
		EntryPrice:    sig.EntryPrice,
		StopLoss:      sig.StopLoss,
		Targets:       targets,
		Size:          size,
		RemainingSize: size,
		Status:        PositionOpen,
		ExitDetails:   []ExitAction{},
		EntryPattern:  sig.PatternName,
		EntryZone:     &zone,
		OpenedAt:      at,
	}
}

type DiscrepancyKind string

const (
	DiscrepancySizeMismatch      DiscrepancyKind = "size_mismatch"
	DiscrepancyMissingOnExchange DiscrepancyKind = "missing_on_exchange"
)

type Discrepancy struct {
	Kind         DiscrepancyKind `json:"type"`
	PositionID   string          `json:"position_id"`
	Symbol       string          `json:"symbol"`
	ProductID    int64           `json:"product_id"`
	LocalSize    int64           `json:"local_size"`
	ExchangeSize int64           `json:"exchange_size"`
}

type PositionStats struct {
	Total        int     `json:"total_trades"`
	Winning      int     `json:"winning_trades"`
	Losing       int     `json:"losing_trades"`
	WinRate      float64 `json:"win_rate"`
	TotalPnL     float64 `json:"total_pnl"`
	AvgWin       float64 `json:"avg_win"`
	AvgLoss      float64 `json:"avg_loss"`
	ProfitFactor float64 `json:"profit_factor"`
	Best         float64 `json:"best_trade"`
	Worst        float64 `json:"worst_trade"`
}

// CalcStats aggregates closed positions.
func CalcStats(closed []Position) PositionStats {
	var st PositionStats
	if len(closed) == 0 {
		return st
	}

	var wins, losses float64
	st.Total = len(closed)
	st.Best = closed[0].PnL
	st.Worst = closed[0].PnL
	for _, p := range closed {
		st.TotalPnL += p.PnL
		switch {
		case p.PnL > 0:
			st.Winning++
			wins += p.PnL
		case p.PnL < 0:
			st.Losing++
			losses -= p.PnL
		}
		st.Best = max(st.Best, p.PnL)
		st.Worst = min(st.Worst, p.PnL)
	}

	st.WinRate = float64(st.Winning) / float64(st.Total) * 100
	if st.Winning > 0 {
		st.AvgWin = wins / float64(st.Winning)
	}
	if st.Losing > 0 {
		st.AvgLoss = losses / float64(st.Losing)
	}
	if losses > 0 {
		st.ProfitFactor = wins / losses
	}
	return st
}
