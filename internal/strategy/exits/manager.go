package exits

import (
	"fmt"
	"time"

	"vrz_bot/internal/models"
	"vrz_bot/internal/strategy/risk"
	"vrz_bot/pkg/logger"
)

// Basis selects what partial-exit percentages apply to.
type Basis string

const (
	// BasisOriginal splits the opening size so the schedule fills exactly.
	BasisOriginal Basis = "original"
	// BasisRemaining takes each percentage of what is still open.
	BasisRemaining Basis = "remaining"
)

func ParseBasis(s string) (Basis, error) {
	switch Basis(s) {
	case "", BasisOriginal:
		return BasisOriginal, nil
	case BasisRemaining:
		return BasisRemaining, nil
	}
	return "", fmt.Errorf("unknown exit basis %q", s)
}

type Manager struct {
	Basis Basis
	risk  *risk.Engine
}

func NewManager(basis Basis, re *risk.Engine) *Manager {
	if basis == "" {
		basis = BasisOriginal
	}
	if re == nil {
		re = risk.NewEngine(0)
	}
	return &Manager{Basis: basis, risk: re}
}

// Evaluate returns the actions one price update triggers. pos is not modified.
//
// A stop-loss hit wins over everything else in the same update and closes the
// whole remainder. Otherwise untouched targets reached by price exit in level
// order, then the stop moves to breakeven once a partial exists.
func (m *Manager) Evaluate(pos models.Position, price float64, now time.Time) []models.ExitAction {
	if !pos.IsOpen() {
		return nil
	}

	if stopHit(pos.Side, price, pos.StopLoss) {
		logger.Warn("stop loss hit: %s %s closing %d at %.6f", pos.ID, pos.Symbol, pos.RemainingSize, price)
		return []models.ExitAction{{
			Kind:      models.ExitStopLoss,
			Price:     price,
			Quantity:  pos.RemainingSize,
			Remaining: 0,
			PnL:       risk.RealizedPnL(pos.Side, pos.EntryPrice, price, pos.RemainingSize),
			Reason:    "stop loss",
			Time:      now,
		}}
	}

	var actions []models.ExitAction
	remaining := pos.RemainingSize
	schedule := m.risk.PartialExitQuantities(pos.Size, len(pos.Targets))

	for i, t := range pos.Targets {
		if remaining <= 0 {
			break
		}
		if pos.HasExitForLevel(t.Level) || !targetHit(pos.Side, price, t.Price) {
			continue
		}

		qty := m.quantity(i, len(pos.Targets), remaining, t.ExitPercentage, schedule)
		remaining -= qty
		actions = append(actions, models.ExitAction{
			Kind:        models.ExitPartial,
			TargetLevel: t.Level,
			Price:       price,
			Quantity:    qty,
			Remaining:   remaining,
			PnL:         risk.RealizedPnL(pos.Side, pos.EntryPrice, price, qty),
			Reason:      fmt.Sprintf("target %d", t.Level),
			Time:        now,
		})
		logger.Info("target hit: %s %s T%d qty=%d at %.6f", pos.ID, pos.Symbol, t.Level, qty, price)
	}

	partials := pos.PartialCount() + len(actions)
	if partials > 0 && remaining > 0 && shouldTrail(pos.Side, price, pos.EntryPrice, pos.StopLoss) {
		actions = append(actions, models.ExitAction{
			Kind:        models.ExitTrailStop,
			Price:       price,
			Remaining:   remaining,
			NewStopLoss: pos.EntryPrice,
			Reason:      "breakeven",
			Time:        now,
		})
		logger.Info("trailing stop to breakeven: %s %s %.6f", pos.ID, pos.Symbol, pos.EntryPrice)
	}

	return actions
}

func (m *Manager) quantity(i, n int, remaining int64, pct float64, schedule []int64) int64 {
	var qty int64
	switch m.Basis {
	case BasisRemaining:
		qty = max(1, risk.PercentOf(remaining, pct))
	default:
		if i == n-1 {
			qty = remaining
		} else {
			qty = schedule[i]
		}
	}
	return min(qty, remaining)
}

// ManualClose builds the action that flattens pos at price.
func ManualClose(pos models.Position, price float64, reason string, now time.Time) models.ExitAction {
	return models.ExitAction{
		Kind:     models.ExitManual,
		Price:    price,
		Quantity: pos.RemainingSize,
		PnL:      risk.RealizedPnL(pos.Side, pos.EntryPrice, price, pos.RemainingSize),
		Reason:   reason,
		Time:     now,
	}
}

func targetHit(side models.Side, price, target float64) bool {
	if side == models.SideBuy {
		return price >= target
	}
	return price <= target
}

func stopHit(side models.Side, price, sl float64) bool {
	if side == models.SideBuy {
		return price <= sl
	}
	return price >= sl
}

func shouldTrail(side models.Side, price, entry, sl float64) bool {
	if side == models.SideBuy {
		return price > entry && sl < entry
	}
	return price < entry && sl > entry
}
