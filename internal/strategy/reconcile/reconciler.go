package reconcile

import (
	"context"
	"fmt"

	"vrz_bot/internal/models"
	"vrz_bot/pkg/logger"
)

type PositionSource interface {
	OpenPositions(ctx context.Context, userID int64) ([]models.Position, error)
}

type ExchangePositions interface {
	GetPositions(ctx context.Context) ([]models.ExchangePosition, error)
}

// Reconciler reports drift between local positions and the exchange.
// It never writes.
type Reconciler struct {
	positions PositionSource
	exchange  ExchangePositions
}

func NewReconciler(positions PositionSource, exchange ExchangePositions) *Reconciler {
	return &Reconciler{positions: positions, exchange: exchange}
}

func (r *Reconciler) Reconcile(ctx context.Context, userID int64) ([]models.Discrepancy, error) {
	local, err := r.positions.OpenPositions(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("open positions %d: %w", userID, err)
	}
	if len(local) == 0 {
		return nil, nil
	}

	remote, err := r.exchange.GetPositions(ctx)
	if err != nil {
		return nil, fmt.Errorf("exchange positions: %w", err)
	}

	out := Diff(local, remote)
	if len(out) > 0 {
		logger.Warn("user %d: %d position discrepancies", userID, len(out))
	}
	return out, nil
}

// Diff matches by product id, or by symbol when the local id is unknown.
// Several local positions on one instrument are compared by their total,
// since the exchange reports a net position.
func Diff(local []models.Position, remote []models.ExchangePosition) []models.Discrepancy {
	byID := make(map[int64]models.ExchangePosition, len(remote))
	bySymbol := make(map[string]models.ExchangePosition, len(remote))
	for _, p := range remote {
		if p.Size == 0 {
			continue
		}
		if p.ProductID != 0 {
			byID[p.ProductID] = p
		}
		if p.Symbol != "" {
			bySymbol[p.Symbol] = p
		}
	}

	totals := make(map[string]int64, len(local))
	for _, p := range local {
		totals[instrumentKey(p)] += p.RemainingSize
	}

	var out []models.Discrepancy
	for _, p := range local {
		ex, found := byID[p.ProductID]
		if !found || p.ProductID == 0 {
			ex, found = bySymbol[p.Symbol]
		}

		if !found {
			out = append(out, models.Discrepancy{
				Kind:       models.DiscrepancyMissingOnExchange,
				PositionID: p.ID,
				Symbol:     p.Symbol,
				ProductID:  p.ProductID,
				LocalSize:  p.RemainingSize,
			})
			continue
		}

		localSize := totals[instrumentKey(p)]
		if localSize != ex.AbsSize() {
			out = append(out, models.Discrepancy{
				Kind:         models.DiscrepancySizeMismatch,
				PositionID:   p.ID,
				Symbol:       p.Symbol,
				ProductID:    p.ProductID,
				LocalSize:    localSize,
				ExchangeSize: ex.AbsSize(),
			})
		}
	}
	return out
}

func instrumentKey(p models.Position) string {
	if p.ProductID != 0 {
		return fmt.Sprintf("id:%d", p.ProductID)
	}
	return "sym:" + p.Symbol
}
