package sessions

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vrz_bot/internal/models"
)

func TestScanOpensPositionWithAttachedStop(t *testing.T) {
	h := newHarness()
	h.scanner.signals["BTCUSD"] = buySignal("BTCUSD", 27)
	s := h.session(models.TradingSettings{AssetMode: models.AssetsIndividual, SelectedAssets: []string{"btcusd", "XRPUSD"}, LotSize: 2})

	res, err := s.Scan(context.Background())
	require.NoError(t, err)
	assert.Equal(t, ScanResult{Assets: 1, Signals: 1, Opened: 1}, res)

	orders := h.ex.placed()
	require.Len(t, orders, 1)
	assert.Equal(t, int64(27), orders[0].ProductID)
	assert.Equal(t, int64(2), orders[0].Size)
	assert.Equal(t, models.SideBuy, orders[0].Side)
	assert.Equal(t, 99.0, orders[0].StopPrice)
	assert.False(t, orders[0].ReduceOnly)

	open, err := h.positions.OpenPositions(context.Background(), 42)
	require.NoError(t, err)
	require.Len(t, open, 1)
	assert.Equal(t, "ord-BTCUSD", open[0].OrderID)
	assert.Equal(t, int64(2), open[0].RemainingSize)
	assert.Equal(t, t0, open[0].OpenedAt)

	assert.Equal(t, []string{"BTCUSD"}, h.feed.watched)
	assert.Equal(t, 1, h.journal.signals)
	require.Len(t, h.notifier.msgs, 1)
	assert.Contains(t, h.notifier.msgs[0], "BTCUSD")
}

func TestScanRespectsOpenSymbolsAndLimit(t *testing.T) {
	h := newHarness()
	_, err := h.positions.Create(context.Background(), openPosition("ETHUSD", 3, 1))
	require.NoError(t, err)

	for _, sym := range []string{"BTCUSD", "ETHUSD", "SOLUSD"} {
		h.scanner.signals[sym] = buySignal(sym, 0)
	}
	s := h.session(models.TradingSettings{
		AssetMode:        models.AssetsIndividual,
		SelectedAssets:   []string{"BTCUSD", "ETHUSD", "SOLUSD"},
		MaxOpenPositions: 2,
	})

	res, err := s.Scan(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, res.Signals)
	assert.Equal(t, 1, res.Opened)

	assert.Equal(t, []string{"BTCUSD", "ETHUSD", "SOLUSD"}, h.zones.calls)
	assert.Equal(t, []string{"BTCUSD", "SOLUSD"}, h.scanner.scanned)
	orders := h.ex.placed()
	require.Len(t, orders, 1)
	assert.Equal(t, "BTCUSD", orders[0].Symbol)
}

func TestScanRiskSizing(t *testing.T) {
	h := newHarness()
	h.ex.balance = 1000
	h.scanner.signals["SOLUSD"] = buySignal("SOLUSD", 5)
	s := h.session(models.TradingSettings{SelectedAssets: []string{"SOLUSD"}, RiskPct: 1})

	_, err := s.Scan(context.Background())
	require.NoError(t, err)

	orders := h.ex.placed()
	require.Len(t, orders, 1)
	// 1% of 1000 over a 1.0 stop distance on a 1-unit contract
	assert.Equal(t, int64(10), orders[0].Size)
}

func TestScanRiskSizingWithoutBalance(t *testing.T) {
	h := newHarness()
	h.scanner.signals["SOLUSD"] = buySignal("SOLUSD", 5)
	s := h.session(models.TradingSettings{SelectedAssets: []string{"SOLUSD"}, RiskPct: 1})

	res, err := s.Scan(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, res.Opened)
	assert.Empty(t, h.ex.placed())
	require.Len(t, h.notifier.msgs, 1)
	assert.Contains(t, h.notifier.msgs[0], "entry failed")
}

func TestScanDryRun(t *testing.T) {
	h := newHarness()
	h.deps.DryRun = true
	h.scanner.signals["BTCUSD"] = buySignal("BTCUSD", 27)
	s := h.session(models.TradingSettings{AssetMode: models.AssetsIndividual, SelectedAssets: []string{"BTCUSD"}})

	res, err := s.Scan(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, res.Signals)
	assert.Equal(t, 0, res.Opened)
	assert.Empty(t, h.ex.placed())

	open, err := h.positions.OpenPositions(context.Background(), 42)
	require.NoError(t, err)
	assert.Empty(t, open)
	require.Len(t, h.notifier.msgs, 1)
	assert.Contains(t, h.notifier.msgs[0], "dry run")
}

func TestScanOrderFailureReleasesSlot(t *testing.T) {
	h := newHarness()
	h.ex.orderErr = errExchange
	h.scanner.signals["BTCUSD"] = buySignal("BTCUSD", 27)
	s := h.session(models.TradingSettings{AssetMode: models.AssetsIndividual, SelectedAssets: []string{"BTCUSD"}})

	res, err := s.Scan(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, res.Opened)
	assert.True(t, s.tryAcquire("symbol:BTCUSD"))

	open, err := h.positions.OpenPositions(context.Background(), 42)
	require.NoError(t, err)
	assert.Empty(t, open)
}

func TestScanContinuesAfterAssetFailure(t *testing.T) {
	h := newHarness()
	h.scanner.errs["BTCUSD"] = models.ErrExternalService
	h.scanner.signals["ETHUSD"] = buySignal("ETHUSD", 3)
	s := h.session(models.TradingSettings{AssetMode: models.AssetsIndividual, SelectedAssets: []string{"BTCUSD", "ETHUSD"}})

	res, err := s.Scan(context.Background())
	require.NoError(t, err)
	assert.Equal(t, ScanResult{Assets: 2, Signals: 1, Opened: 1}, res)
	assert.ElementsMatch(t, []string{"BTCUSD", "ETHUSD"}, h.scanner.scanned)

	orders := h.ex.placed()
	require.Len(t, orders, 1)
	assert.Equal(t, "ETHUSD", orders[0].Symbol)
}

func TestScanSnapsPricesToTick(t *testing.T) {
	h := newHarness()
	h.ex.products[0].TickSize = 0.5
	sig := buySignal("BTCUSD", 27)
	sig.OrderType = models.OrderLimit
	sig.EntryPrice = 100.3
	sig.StopLoss = 99.2
	h.scanner.signals["BTCUSD"] = sig
	s := h.session(models.TradingSettings{AssetMode: models.AssetsIndividual, SelectedAssets: []string{"BTCUSD"}})

	_, err := s.Scan(context.Background())
	require.NoError(t, err)

	orders := h.ex.placed()
	require.Len(t, orders, 1)
	assert.Equal(t, 100.0, orders[0].LimitPrice)
	assert.Equal(t, 99.5, orders[0].StopPrice)

	open, err := h.positions.OpenPositions(context.Background(), 42)
	require.NoError(t, err)
	require.Len(t, open, 1)
	assert.Equal(t, 100.0, open[0].EntryPrice)
	assert.Equal(t, 99.5, open[0].StopLoss)
}

func TestSnapToTickRejectsStopAtEntry(t *testing.T) {
	sig := models.EntrySignal{Symbol: "BTCUSD", Side: models.SideSell, EntryPrice: 100, StopLoss: 100.2, OrderType: models.OrderMarket}
	assert.Error(t, snapToTick(&sig, 0.5))

	sig = models.EntrySignal{Symbol: "BTCUSD", Side: models.SideSell, EntryPrice: 100, StopLoss: 101.3, OrderType: models.OrderMarket}
	require.NoError(t, snapToTick(&sig, 0.5))
	assert.Equal(t, 101.0, sig.StopLoss)
	assert.Equal(t, 100.0, sig.EntryPrice)

	sig = models.EntrySignal{Side: models.SideBuy, EntryPrice: 100.03, StopLoss: 99.01}
	require.NoError(t, snapToTick(&sig, 0))
	assert.Equal(t, 99.01, sig.StopLoss)
}

func TestManageExitsPartialThenTrail(t *testing.T) {
	h := newHarness()
	id, err := h.positions.Create(context.Background(), openPosition("BTCUSD", 27, 4))
	require.NoError(t, err)
	h.feed.prices["BTCUSD"] = 101.6
	s := h.session(models.TradingSettings{})

	n, err := s.ManageExits(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	orders := h.ex.placed()
	require.Len(t, orders, 1)
	assert.Equal(t, models.SideSell, orders[0].Side)
	assert.Equal(t, int64(2), orders[0].Size)
	assert.True(t, orders[0].ReduceOnly)

	pos, err := h.positions.Get(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, int64(2), pos.RemainingSize)
	assert.Equal(t, 100.0, pos.StopLoss)
	require.Len(t, pos.ExitDetails, 2)
	assert.Equal(t, models.ExitPartial, pos.ExitDetails[0].Kind)
	assert.Equal(t, "ord-BTCUSD", pos.ExitDetails[0].OrderID)
	assert.Equal(t, models.ExitTrailStop, pos.ExitDetails[1].Kind)

	assert.Equal(t, 2, h.journal.exits)
	assert.Len(t, h.notifier.msgs, 2)
	assert.Equal(t, []string{"BTCUSD"}, h.feed.watched)
}

func TestManageExitsStopLossReliesOnExchangeStop(t *testing.T) {
	h := newHarness()
	id, err := h.positions.Create(context.Background(), openPosition("BTCUSD", 27, 3))
	require.NoError(t, err)
	h.feed.prices["BTCUSD"] = 98.5
	h.ex.orderErr = errExchange
	s := h.session(models.TradingSettings{})

	n, err := s.ManageExits(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	pos, err := h.positions.Get(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, models.PositionClosed, pos.Status)
	assert.Equal(t, int64(0), pos.RemainingSize)
	assert.InDelta(t, -4.5, pos.PnL, 1e-9)
	assert.Equal(t, t0, pos.ClosedAt)
}

func TestManageExitsKeepsPositionWhenPartialOrderFails(t *testing.T) {
	h := newHarness()
	id, err := h.positions.Create(context.Background(), openPosition("BTCUSD", 27, 4))
	require.NoError(t, err)
	h.feed.prices["BTCUSD"] = 101.6
	h.ex.orderErr = errExchange
	s := h.session(models.TradingSettings{})

	n, err := s.ManageExits(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	pos, err := h.positions.Get(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, int64(4), pos.RemainingSize)
	assert.Equal(t, 99.0, pos.StopLoss)
	assert.Empty(t, pos.ExitDetails)
}

func TestManageExitsSkipsWithoutPrice(t *testing.T) {
	h := newHarness()
	_, err := h.positions.Create(context.Background(), openPosition("BTCUSD", 27, 4))
	require.NoError(t, err)
	s := h.session(models.TradingSettings{})

	n, err := s.ManageExits(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, n)
	assert.Empty(t, h.ex.placed())
}

func TestClosePosition(t *testing.T) {
	h := newHarness()
	id, err := h.positions.Create(context.Background(), openPosition("BTCUSD", 27, 2))
	require.NoError(t, err)
	h.feed.prices["BTCUSD"] = 100.5
	s := h.session(models.TradingSettings{})

	a, err := s.ClosePosition(context.Background(), id, "operator")
	require.NoError(t, err)
	assert.Equal(t, models.ExitManual, a.Kind)
	assert.InDelta(t, 1.0, a.PnL, 1e-9)

	pos, err := h.positions.Get(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, models.PositionClosed, pos.Status)

	_, err = s.ClosePosition(context.Background(), id, "again")
	assert.Error(t, err)

	other := openPosition("ETHUSD", 3, 1)
	other.UserID = 7
	otherID, err := h.positions.Create(context.Background(), other)
	require.NoError(t, err)
	_, err = s.ClosePosition(context.Background(), otherID, "x")
	assert.True(t, errors.Is(err, models.ErrNotFound))
}

func TestReconcileReportsOnly(t *testing.T) {
	h := newHarness()
	_, err := h.positions.Create(context.Background(), openPosition("BTCUSD", 27, 2))
	require.NoError(t, err)
	_, err = h.positions.Create(context.Background(), openPosition("ETHUSD", 3, 1))
	require.NoError(t, err)
	h.ex.remote = []models.ExchangePosition{{ProductID: 27, Symbol: "BTCUSD", Size: 1}}
	s := h.session(models.TradingSettings{})

	ds, err := s.Reconcile(context.Background())
	require.NoError(t, err)
	require.Len(t, ds, 2)
	assert.Equal(t, 2, h.journal.discrepancies)
	assert.Len(t, h.notifier.msgs, 2)

	open, err := h.positions.OpenPositions(context.Background(), 42)
	require.NoError(t, err)
	assert.Len(t, open, 2)
}

func TestReconcileCancelsStaleEntry(t *testing.T) {
	h := newHarness()
	staleID, err := h.positions.Create(context.Background(), openPosition("BTCUSD", 27, 4))
	require.NoError(t, err)
	fresh := openPosition("ETHUSD", 3, 1)
	fresh.OrderID = "ord-eth"
	fresh.OpenedAt = t0
	freshID, err := h.positions.Create(context.Background(), fresh)
	require.NoError(t, err)

	h.ex.resting = []models.Order{
		{ID: "ord-0", ProductID: 27, Size: 4, UnfilledSize: 3, State: "open"},
		{ID: "ord-eth", ProductID: 3, Size: 1, UnfilledSize: 1, State: "open"},
	}
	h.ex.remote = []models.ExchangePosition{{ProductID: 27, Symbol: "BTCUSD", Size: 1}}
	s := h.session(models.TradingSettings{})

	ds, err := s.Reconcile(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"ord-0"}, h.ex.cancelled)

	stale, err := h.positions.Get(context.Background(), staleID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stale.RemainingSize)
	assert.Equal(t, models.PositionOpen, stale.Status)
	require.Len(t, stale.ExitDetails, 1)
	assert.Equal(t, models.ExitEntryCancelled, stale.ExitDetails[0].Kind)
	assert.Equal(t, 0.0, stale.PnL)
	assert.Equal(t, 1, h.journal.exits)

	// the filled part now matches the exchange; only the missing ETHUSD entry is reported
	require.Len(t, ds, 1)
	assert.Equal(t, freshID, ds[0].PositionID)
	assert.Len(t, h.notifier.msgs, 2)
}

func TestReconcileClosesUnfilledEntry(t *testing.T) {
	h := newHarness()
	id, err := h.positions.Create(context.Background(), openPosition("BTCUSD", 27, 2))
	require.NoError(t, err)
	h.ex.resting = []models.Order{{ID: "ord-0", ProductID: 27, Size: 2, UnfilledSize: 2, State: "open"}}
	s := h.session(models.TradingSettings{})

	n, err := s.CancelStaleEntries(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	pos, err := h.positions.Get(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, models.PositionClosed, pos.Status)
	assert.Equal(t, int64(0), pos.RemainingSize)
	assert.Empty(t, h.ex.placed())
}

func TestReport(t *testing.T) {
	h := newHarness()
	id, err := h.positions.Create(context.Background(), openPosition("BTCUSD", 27, 2))
	require.NoError(t, err)
	_, err = h.positions.ApplyExit(context.Background(), id, models.ExitAction{
		Kind: models.ExitStopLoss, Price: 99, Quantity: 2, PnL: -2, Time: t0,
	})
	require.NoError(t, err)
	s := h.session(models.TradingSettings{})

	st, err := s.Report(context.Background(), t0.Add(-24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 1, st.Total)
	assert.Equal(t, 1, st.Losing)
	require.Len(t, h.notifier.msgs, 1)
	assert.Contains(t, h.notifier.msgs[0], "alice")

	h.notifier.msgs = nil
	st, err = s.Report(context.Background(), t0.Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 0, st.Total)
	assert.Empty(t, h.notifier.msgs)
}

func TestResolveAssets(t *testing.T) {
	h := newHarness()
	h.ex.movers = models.Movers{
		Gainers: []models.Ticker{{Symbol: "SOLUSD"}, {Symbol: "BTC_USDT"}},
		Losers:  []models.Ticker{{Symbol: "ETHUSD"}, {Symbol: "SOLUSD"}},
	}
	s := h.session(models.TradingSettings{AssetMode: models.AssetsBoth})

	assets, err := s.ResolveAssets(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []models.Asset{
		{Symbol: "SOLUSD", ProductID: 5, ContractValue: 1},
		{Symbol: "ETHUSD", ProductID: 3, ContractValue: 0.01},
	}, assets)

	s.SetSettings(models.TradingSettings{AssetMode: models.AssetsLosers})
	assets, err = s.ResolveAssets(context.Background())
	require.NoError(t, err)
	require.Len(t, assets, 2)
	assert.Equal(t, "ETHUSD", assets[0].Symbol)

	s.SetSettings(models.TradingSettings{AssetMode: models.AssetsAll})
	assets, err = s.ResolveAssets(context.Background())
	require.NoError(t, err)
	require.Len(t, assets, 3)
	assert.Equal(t, "BTCUSD", assets[0].Symbol)
	assert.Equal(t, "SOLUSD", assets[2].Symbol)

	assert.Equal(t, 1, h.ex.prodCalls)

	s.SetSettings(models.TradingSettings{AssetMode: "random"})
	_, err = s.ResolveAssets(context.Background())
	assert.Error(t, err)
}

func TestWarmZones(t *testing.T) {
	h := newHarness()
	s := h.session(models.TradingSettings{AssetMode: models.AssetsIndividual, SelectedAssets: []string{"BTCUSD", "ETHUSD"}})

	saved, err := s.WarmZones(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 4, saved)
	assert.Empty(t, h.scanner.scanned)
}

func TestPendingGuard(t *testing.T) {
	s := newHarness().session(models.TradingSettings{})
	assert.True(t, s.tryAcquire("position:1"))
	assert.False(t, s.tryAcquire("position:1"))
	s.release("position:1")
	assert.True(t, s.tryAcquire("position:1"))
}

func TestCancelledSessionStopsWork(t *testing.T) {
	h := newHarness()
	h.scanner.signals["BTCUSD"] = buySignal("BTCUSD", 27)
	s := h.session(models.TradingSettings{AssetMode: models.AssetsIndividual, SelectedAssets: []string{"BTCUSD"}})
	s.Cancel()

	_, err := s.Scan(context.Background())
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, h.ex.placed())
}
