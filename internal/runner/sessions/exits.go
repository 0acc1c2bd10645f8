package sessions

import (
	"context"
	"fmt"

	"vrz_bot/internal/helper"
	"vrz_bot/internal/models"
	"vrz_bot/internal/notify"
	"vrz_bot/internal/strategy/exits"
	"vrz_bot/pkg/logger"
)

// ManageExits prices every open position of the user and executes the exit
// actions it produces. Returns the number of actions applied.
func (s *UserSession) ManageExits(ctx context.Context) (int, error) {
	ctx, cancel := s.scope(ctx)
	defer cancel()

	positions, err := s.deps.Positions.OpenPositions(ctx, s.UserID)
	if err != nil {
		return 0, err
	}
	if len(positions) == 0 {
		return 0, nil
	}

	symbols := make([]string, 0, len(positions))
	for _, p := range positions {
		symbols = append(symbols, p.Symbol)
	}
	s.deps.Feed.Watch(symbols...)

	applied := 0
	for _, pos := range positions {
		if ctx.Err() != nil {
			break
		}
		applied += s.manageExit(ctx, pos)
	}
	return applied, ctx.Err()
}

func (s *UserSession) manageExit(ctx context.Context, pos models.Position) int {
	key := helper.PendingKey("position", pos.ID)
	if !s.tryAcquire(key) {
		return 0
	}
	defer s.release(key)

	price, err := s.deps.Feed.LastPrice(ctx, pos.Symbol)
	if err != nil {
		logger.Warn("user %d: price %s: %v", s.UserID, pos.Symbol, err)
		return 0
	}

	n := 0
	for _, a := range s.deps.Exits.Evaluate(pos, price, s.now().UTC()) {
		ok, err := s.execute(ctx, pos, a)
		if err != nil {
			logger.Error("user %d: exit %s %s: %v", s.UserID, pos.ID, a.Kind, err)
			break
		}
		if !ok {
			break
		}
		n++
	}
	return n
}

// ClosePosition flattens one position at the current price.
func (s *UserSession) ClosePosition(ctx context.Context, positionID, reason string) (models.ExitAction, error) {
	pos, err := s.deps.Positions.Get(ctx, positionID)
	if err != nil {
		return models.ExitAction{}, err
	}
	if pos.UserID != s.UserID {
		return models.ExitAction{}, fmt.Errorf("position %s of user %d: %w", positionID, s.UserID, models.ErrNotFound)
	}
	if !pos.IsOpen() {
		return models.ExitAction{}, fmt.Errorf("position %s is already closed", positionID)
	}

	key := helper.PendingKey("position", pos.ID)
	if !s.tryAcquire(key) {
		return models.ExitAction{}, fmt.Errorf("position %s is busy", positionID)
	}
	defer s.release(key)

	price, err := s.deps.Feed.LastPrice(ctx, pos.Symbol)
	if err != nil {
		return models.ExitAction{}, err
	}
	a := exits.ManualClose(*pos, price, reason, s.now().UTC())
	if _, err := s.execute(ctx, *pos, a); err != nil {
		return models.ExitAction{}, err
	}
	return a, nil
}

// execute sends the reduce-only order for a and then persists it.
// It reports false when the position was closed concurrently.
func (s *UserSession) execute(ctx context.Context, pos models.Position, a models.ExitAction) (bool, error) {
	if a.ReducesSize() && a.Quantity > 0 && !s.deps.DryRun {
		res, err := s.deps.Exchange.PlaceOrder(ctx, models.OrderRequest{
			ProductID:  pos.ProductID,
			Symbol:     pos.Symbol,
			Size:       a.Quantity,
			Side:       pos.Side.Opposite(),
			OrderType:  models.OrderMarket,
			ReduceOnly: true,
		})
		switch {
		case err == nil:
			a.OrderID = res.OrderID
		case a.Kind == models.ExitStopLoss:
			// the stop attached at entry may already have filled
			logger.Warn("user %d: stop exit order %s failed, relying on exchange stop: %v", s.UserID, pos.Symbol, err)
		default:
			return false, fmt.Errorf("exit order: %w", err)
		}
	}

	applied, err := s.deps.Positions.ApplyExit(ctx, pos.ID, a)
	if err != nil {
		return false, fmt.Errorf("store exit: %w", err)
	}
	if !applied {
		return false, nil
	}

	if err := s.deps.Journal.RecordExit(s.UserID, pos.ID, a); err != nil {
		logger.Warn("journal exit: %v", err)
	}
	s.notify(ctx, notify.FormatExit(pos, a))
	return true, nil
}
