package risk

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"vrz_bot/internal/models"
	"vrz_bot/pkg/logger"
)

const (
	DefaultMinRR = 1.5
	pipFactor    = 0.0001
)

var (
	hundred = decimal.NewFromInt(100)

	exitTable = map[int][]float64{
		1: {100},
		2: {50, 50},
		3: {33, 33, 34},
		4: {25, 25, 25, 25},
	}
)

type Engine struct {
	MinRR float64
}

func NewEngine(minRR float64) *Engine {
	if minRR <= 0 {
		minRR = DefaultMinRR
	}
	return &Engine{MinRR: minRR}
}

// StopLoss puts the stop pips*0.0001*entry beyond the pattern extreme.
func (e *Engine) StopLoss(entry float64, side models.Side, patternHigh, patternLow float64, pips int) float64 {
	dist := entry * pipFactor * float64(pips)
	if side == models.SideBuy {
		return patternLow - dist
	}
	return patternHigh + dist
}

func (e *Engine) Risk(entry, sl float64) float64 {
	return math.Abs(entry - sl)
}

// RiskRewardRatio is 0 when the stop sits on the entry.
func (e *Engine) RiskRewardRatio(entry, sl, target float64) float64 {
	r := e.Risk(entry, sl)
	if r == 0 {
		return 0
	}
	return math.Abs(target-entry) / r
}

func (e *Engine) TargetByRR(entry, sl float64, side models.Side, rr float64) float64 {
	reward := e.Risk(entry, sl) * rr
	if side == models.SideBuy {
		return entry + reward
	}
	return entry - reward
}

// TargetByZone aims at the near edge of the opposite zone.
func (e *Engine) TargetByZone(side models.Side, z models.Zone) float64 {
	if side == models.SideBuy {
		return z.ZoneLower
	}
	return z.ZoneUpper
}

// ExitPercentages returns a schedule summing to 100.
func ExitPercentages(n int) []float64 {
	if n <= 0 {
		return nil
	}
	if p, ok := exitTable[n]; ok {
		return append([]float64(nil), p...)
	}
	each := math.Floor(100 / float64(n))
	out := make([]float64, n)
	for i := range out {
		out[i] = each
	}
	out[n-1] = 100 - each*float64(n-1)
	return out
}

func (e *Engine) MultipleTargetsRR(entry, sl float64, side models.Side, levels []float64) []models.Target {
	pct := ExitPercentages(len(levels))
	out := make([]models.Target, 0, len(levels))
	for i, rr := range levels {
		out = append(out, models.Target{
			Level:          i + 1,
			Kind:           models.TargetRR,
			Price:          e.TargetByRR(entry, sl, side, rr),
			RiskReward:     rr,
			ExitPercentage: pct[i],
		})
	}
	return out
}

func (e *Engine) MultipleTargetsZone(entry, sl float64, side models.Side, zones []models.Zone) []models.Target {
	pct := ExitPercentages(len(zones))
	out := make([]models.Target, 0, len(zones))
	for i, z := range zones {
		px := e.TargetByZone(side, z)
		out = append(out, models.Target{
			Level:          i + 1,
			Kind:           models.TargetZone,
			Price:          px,
			RiskReward:     e.RiskRewardRatio(entry, sl, px),
			ExitPercentage: pct[i],
			ZonePrice:      z.PriceLevel,
		})
	}
	return out
}

// Validate never errors: a rejected setup is a normal outcome with a reason.
func (e *Engine) Validate(entry, sl, target float64, side models.Side) (bool, string, float64) {
	rr := e.RiskRewardRatio(entry, sl, target)
	if rr < e.MinRR {
		return false, fmt.Sprintf("RR %.2f below minimum %g", rr, e.MinRR), rr
	}

	if side == models.SideBuy {
		if sl >= entry {
			return false, "Stop loss must be below entry for long positions", rr
		}
		if target <= entry {
			return false, "Target must be above entry for long positions", rr
		}
	} else {
		if sl <= entry {
			return false, "Stop loss must be above entry for short positions", rr
		}
		if target >= entry {
			return false, "Target must be below entry for short positions", rr
		}
	}
	return true, "Trade setup valid", rr
}

// PositionSize = floor(balance*riskPct/100 / (risk*contractSize)), at least 1.
func (e *Engine) PositionSize(balance, riskPct, entry, sl, contractSize float64) int64 {
	if contractSize <= 0 {
		contractSize = 1
	}
	perContract := decimal.NewFromFloat(e.Risk(entry, sl)).Mul(decimal.NewFromFloat(contractSize))
	if !perContract.IsPositive() {
		return 1
	}
	budget := decimal.NewFromFloat(balance).Mul(decimal.NewFromFloat(riskPct)).Div(hundred)
	size := budget.Div(perContract).IntPart()

	logger.Debug("position size: balance=%.2f risk%%=%.2f risk/unit=%.6f size=%d", balance, riskPct, e.Risk(entry, sl), size)
	return max(1, size)
}

// PartialExitQuantities splits size across n targets. Every non-final slice is
// at least 1 while contracts remain; the final slice takes the rest, so the sum
// is always size and no slice is negative.
func (e *Engine) PartialExitQuantities(size int64, n int) []int64 {
	pct := ExitPercentages(n)
	if len(pct) == 0 {
		return nil
	}

	out := make([]int64, len(pct))
	remaining := size
	for i, p := range pct {
		if i == len(pct)-1 {
			out[i] = max(0, remaining)
			break
		}
		qty := PercentOf(size, p)
		qty = min(max(1, qty), max(0, remaining))
		out[i] = qty
		remaining -= qty
	}
	return out
}

// PercentOf is floor(size*pct/100).
func PercentOf(size int64, pct float64) int64 {
	return decimal.NewFromInt(size).Mul(decimal.NewFromFloat(pct)).Div(hundred).IntPart()
}

// RealizedPnL for closing qty contracts at exit.
func RealizedPnL(side models.Side, entry, exit float64, qty int64) float64 {
	diff := decimal.NewFromFloat(exit).Sub(decimal.NewFromFloat(entry))
	if side == models.SideSell {
		diff = diff.Neg()
	}
	return diff.Mul(decimal.NewFromInt(qty)).InexactFloat64()
}

// NearestOppositeZone picks the closest zone beyond entry in the trade direction.
func (e *Engine) NearestOppositeZone(entry float64, side models.Side, zones []models.Zone) (models.Zone, bool) {
	valid := make([]models.Zone, 0, len(zones))
	for _, z := range zones {
		if side == models.SideBuy && z.ZoneLower > entry {
			valid = append(valid, z)
		}
		if side == models.SideSell && z.ZoneUpper < entry {
			valid = append(valid, z)
		}
	}
	if len(valid) == 0 {
		return models.Zone{}, false
	}
	sort.SliceStable(valid, func(i, j int) bool {
		return math.Abs(valid[i].PriceLevel-entry) < math.Abs(valid[j].PriceLevel-entry)
	})
	return valid[0], true
}

func (e *Engine) Summary(entry, sl float64, targets []models.Target, side models.Side, size int64) string {
	risk := e.Risk(entry, sl)
	riskPct := 0.0
	if entry != 0 {
		riskPct = risk / entry * 100
	}

	line := strings.Repeat("=", 50)
	var b strings.Builder
	fmt.Fprintf(&b, "\n%s\nRISK MANAGEMENT SUMMARY\n%s\n", line, line)
	fmt.Fprintf(&b, "Side: %s\n", strings.ToUpper(string(side)))
	fmt.Fprintf(&b, "Entry Price: %.2f\n", entry)
	fmt.Fprintf(&b, "Stop Loss: %.2f\n", sl)
	fmt.Fprintf(&b, "Risk per Unit: %.2f (%.2f%%)\n", risk, riskPct)
	fmt.Fprintf(&b, "Position Size: %d contracts\n", size)
	b.WriteString("\nTargets:\n")
	for _, t := range targets {
		fmt.Fprintf(&b, "  T%d: %.2f (RR: 1:%.2f, Exit: %g%%)\n", t.Level, t.Price, t.RiskReward, t.ExitPercentage)
	}
	b.WriteString(line + "\n")
	return b.String()
}
