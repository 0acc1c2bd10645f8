package sessions

import (
	"context"
	"fmt"

	"vrz_bot/internal/helper"
	"vrz_bot/internal/models"
	"vrz_bot/internal/notify"
	"vrz_bot/pkg/logger"
)

// openPosition places the entry with its attached stop and stores the position.
func (s *UserSession) openPosition(ctx context.Context, sig models.EntrySignal, a models.Asset, st models.TradingSettings) error {
	if err := snapToTick(&sig, a.TickSize); err != nil {
		return err
	}
	size, err := s.positionSize(ctx, sig, a, st)
	if err != nil {
		return err
	}
	sig.Size = size

	if s.deps.DryRun {
		logger.Info("[dry-run] user %d %s %s size=%d entry=%.6f sl=%.6f",
			s.UserID, sig.Symbol, sig.Side, sig.Size, sig.EntryPrice, sig.StopLoss)
		s.notify(ctx, notify.FormatSignal(sig)+"\n\n_dry run, no order placed_")
		return nil
	}

	req := models.OrderRequest{
		ProductID: sig.ProductID,
		Symbol:    sig.Symbol,
		Size:      sig.Size,
		Side:      sig.Side,
		OrderType: sig.OrderType,
		StopPrice: sig.StopLoss,
	}
	if sig.OrderType == models.OrderLimit {
		req.LimitPrice = sig.EntryPrice
	}

	res, err := s.deps.Exchange.PlaceOrder(ctx, req)
	if err != nil {
		return fmt.Errorf("place order: %w", err)
	}
	if !res.Success {
		return fmt.Errorf("place order rejected: %s", res.Error)
	}

	pos := models.NewPosition("", s.UserID, sig, res.OrderID, sig.Size, s.now().UTC())
	id, err := s.deps.Positions.Create(ctx, pos)
	if err != nil {
		// the order is live on the exchange, reconciliation will report it
		return fmt.Errorf("order %s placed but position not stored: %w", res.OrderID, err)
	}

	s.deps.Feed.Watch(sig.Symbol)
	logger.Info("user %d opened %s %s %s size=%d order=%s", s.UserID, id, sig.Symbol, sig.Side, sig.Size, res.OrderID)
	s.notify(ctx, notify.FormatSignal(sig))
	return nil
}

// positionSize is the fixed lot unless the user sizes by risk.
func (s *UserSession) positionSize(ctx context.Context, sig models.EntrySignal, a models.Asset, st models.TradingSettings) (int64, error) {
	if st.RiskPct <= 0 || s.deps.Risk == nil {
		return sig.Size, nil
	}

	balance, err := s.deps.Exchange.WalletBalance(ctx, s.deps.SettleAsset)
	if err != nil {
		return 0, fmt.Errorf("wallet balance: %w", err)
	}
	if balance <= 0 {
		return 0, fmt.Errorf("no available %s balance", s.deps.SettleAsset)
	}
	cv := a.ContractValue
	if cv <= 0 {
		cv = 1
	}
	size := s.deps.Risk.PositionSize(balance, st.RiskPct, sig.EntryPrice, sig.StopLoss, cv)
	if size <= 0 {
		return 0, fmt.Errorf("risk %.2f%% of %.2f %s buys no contracts", st.RiskPct, balance, s.deps.SettleAsset)
	}
	return size, nil
}

// snapToTick moves the limit price and the stop onto the product tick grid.
// Limits round in the trader's favour, stops round towards the entry.
func snapToTick(sig *models.EntrySignal, tick float64) error {
	if tick <= 0 {
		return nil
	}
	if sig.Side == models.SideBuy {
		if sig.OrderType == models.OrderLimit {
			sig.EntryPrice = helper.RoundDownToTick(sig.EntryPrice, tick)
		}
		sig.StopLoss = helper.RoundUpToTick(sig.StopLoss, tick)
		if sig.StopLoss >= sig.EntryPrice {
			return fmt.Errorf("%s stop %s within one tick of entry", sig.Symbol, helper.FormatPrice(sig.StopLoss))
		}
		return nil
	}
	if sig.OrderType == models.OrderLimit {
		sig.EntryPrice = helper.RoundUpToTick(sig.EntryPrice, tick)
	}
	sig.StopLoss = helper.RoundDownToTick(sig.StopLoss, tick)
	if sig.StopLoss <= sig.EntryPrice {
		return fmt.Errorf("%s stop %s within one tick of entry", sig.Symbol, helper.FormatPrice(sig.StopLoss))
	}
	return nil
}
