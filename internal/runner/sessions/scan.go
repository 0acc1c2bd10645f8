package sessions

import (
	"context"
	"errors"
	"sync"

	"golang.org/x/sync/errgroup"

	"vrz_bot/internal/helper"
	"vrz_bot/internal/models"
	"vrz_bot/internal/strategy/entry"
	"vrz_bot/pkg/logger"
)

// ScanResult counts what one scan pass did for a user.
type ScanResult struct {
	Assets  int
	Signals int
	Opened  int
}

// openBook tracks symbols with an open position during one scan pass.
type openBook struct {
	mu      sync.Mutex
	symbols map[string]struct{}
	limit   int
}

func newOpenBook(open []models.Position, limit int) *openBook {
	b := &openBook{symbols: make(map[string]struct{}, len(open)), limit: limit}
	for _, p := range open {
		b.symbols[p.Symbol] = struct{}{}
	}
	return b
}

func (b *openBook) has(symbol string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.symbols[symbol]
	return ok
}

func (b *openBook) reserve(symbol string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.symbols[symbol]; ok {
		return false
	}
	if b.limit > 0 && len(b.symbols) >= b.limit {
		return false
	}
	b.symbols[symbol] = struct{}{}
	return true
}

func (b *openBook) drop(symbol string) {
	b.mu.Lock()
	delete(b.symbols, symbol)
	b.mu.Unlock()
}

// Scan refreshes base timeframe zones and looks for entries on every asset.
// Per-asset failures are logged and do not stop the pass.
func (s *UserSession) Scan(ctx context.Context) (ScanResult, error) {
	ctx, cancel := s.scope(ctx)
	defer cancel()

	var res ScanResult
	assets, err := s.ResolveAssets(ctx)
	if err != nil {
		return res, err
	}
	open, err := s.deps.Positions.OpenPositions(ctx, s.UserID)
	if err != nil {
		return res, err
	}

	st := s.Settings()
	book := newOpenBook(open, st.MaxOpenPositions)
	res.Assets = len(assets)

	var (
		mu sync.Mutex
		g  errgroup.Group
	)
	g.SetLimit(s.deps.AssetConcurrency)
	for _, a := range assets {
		g.Go(func() error {
			signal, opened := s.scanAsset(ctx, a, st, book)
			mu.Lock()
			if signal {
				res.Signals++
			}
			if opened {
				res.Opened++
			}
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	logger.Info("user %d scan: assets=%d signals=%d opened=%d", s.UserID, res.Assets, res.Signals, res.Opened)
	return res, ctx.Err()
}

func (s *UserSession) scanAsset(ctx context.Context, a models.Asset, st models.TradingSettings, book *openBook) (signal, opened bool) {
	if ctx.Err() != nil {
		return false, false
	}
	if _, err := s.deps.Zones.Refresh(ctx, a.Symbol, a.ProductID, st); err != nil {
		logger.Warn("user %d: zones %s: %v", s.UserID, a.Symbol, err)
		return false, false
	}
	if book.has(a.Symbol) {
		logger.Debug("user %d: %s already has an open position", s.UserID, a.Symbol)
		return false, false
	}

	out, err := s.deps.Scanner.Scan(ctx, entry.Request{Symbol: a.Symbol, ProductID: a.ProductID, Settings: st})
	if err != nil {
		if errors.Is(err, entry.ErrDataUnavailable) {
			logger.Debug("user %d: %v", s.UserID, err)
		} else {
			logger.Warn("user %d: scan %s: %v", s.UserID, a.Symbol, err)
		}
		return false, false
	}
	if out.Signal == nil {
		logger.Debug("user %d: %s no signal: %s", s.UserID, a.Symbol, out.Reason)
		return false, false
	}
	sig := *out.Signal

	if err := s.deps.Journal.RecordSignal(s.UserID, sig); err != nil {
		logger.Warn("journal signal: %v", err)
	}

	if !book.reserve(a.Symbol) {
		logger.Info("user %d: %s signal skipped, max open positions %d reached", s.UserID, a.Symbol, st.MaxOpenPositions)
		return true, false
	}

	key := helper.PendingKey("symbol", a.Symbol)
	if !s.tryAcquire(key) {
		book.drop(a.Symbol)
		return true, false
	}
	defer s.release(key)

	if err := s.openPosition(ctx, sig, a, st); err != nil {
		book.drop(a.Symbol)
		logger.Error("user %d: open %s: %v", s.UserID, a.Symbol, err)
		s.notify(ctx, "⚠️ "+a.Symbol+": entry failed: "+err.Error())
		return true, false
	}
	return true, !s.deps.DryRun
}
