package sessions

import (
	"context"
	"fmt"

	"vrz_bot/internal/helper"
	"vrz_bot/internal/models"
	"vrz_bot/pkg/logger"
)

// CancelStaleEntries cancels entry orders still resting on the exchange after
// EntryTimeout and shrinks the position to what was filled. A fully unfilled
// entry closes the position without PnL. Returns the number of cancelled entries.
func (s *UserSession) CancelStaleEntries(ctx context.Context) (int, error) {
	positions, err := s.deps.Positions.OpenPositions(ctx, s.UserID)
	if err != nil {
		return 0, err
	}

	byProduct := make(map[int64][]models.Position)
	for _, p := range positions {
		if p.OrderID == "" || len(p.ExitDetails) > 0 {
			continue
		}
		byProduct[p.ProductID] = append(byProduct[p.ProductID], p)
	}

	now := s.now().UTC()
	cancelled := 0
	for productID, list := range byProduct {
		if ctx.Err() != nil {
			break
		}
		orders, err := s.deps.Exchange.GetOrders(ctx, productID)
		if err != nil {
			logger.Warn("user %d: open orders %d: %v", s.UserID, productID, err)
			continue
		}
		resting := make(map[string]models.Order, len(orders))
		for _, o := range orders {
			resting[o.ID] = o
		}

		for _, pos := range list {
			o, ok := resting[pos.OrderID]
			if !ok || o.UnfilledSize <= 0 {
				continue
			}
			if age := now.Sub(pos.OpenedAt); age < s.deps.EntryTimeout {
				logger.Debug("user %d: entry %s %s waiting %s, unfilled %d", s.UserID, pos.Symbol, o.ID, age, o.UnfilledSize)
				continue
			}
			if err := s.cancelEntry(ctx, pos, o); err != nil {
				logger.Error("user %d: cancel entry %s: %v", s.UserID, pos.Symbol, err)
				continue
			}
			cancelled++
		}
	}
	return cancelled, ctx.Err()
}

func (s *UserSession) cancelEntry(ctx context.Context, pos models.Position, o models.Order) error {
	key := helper.PendingKey("position", pos.ID)
	if !s.tryAcquire(key) {
		return fmt.Errorf("position %s is busy", pos.ID)
	}
	defer s.release(key)

	if !s.deps.DryRun {
		if err := s.deps.Exchange.CancelOrder(ctx, pos.ProductID, o.ID); err != nil {
			return fmt.Errorf("cancel order %s: %w", o.ID, err)
		}
	}
	a := models.ExitAction{
		Kind:     models.ExitEntryCancelled,
		Price:    pos.EntryPrice,
		Quantity: o.UnfilledSize,
		OrderID:  o.ID,
		Reason:   fmt.Sprintf("entry unfilled after %s", s.deps.EntryTimeout),
		Time:     s.now().UTC(),
	}
	logger.Info("user %d: entry %s %s cancelled, unfilled %d of %d", s.UserID, pos.Symbol, o.ID, o.UnfilledSize, pos.Size)
	_, err := s.execute(ctx, pos, a)
	return err
}
