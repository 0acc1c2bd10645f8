package sessions

import (
	"context"
	"errors"
	"sync"
	"time"

	"vrz_bot/internal/models"
	"vrz_bot/internal/storage/memory"
	"vrz_bot/internal/strategy/entry"
	"vrz_bot/internal/strategy/exits"
	"vrz_bot/internal/strategy/reconcile"
	"vrz_bot/internal/strategy/risk"
	"vrz_bot/internal/strategy/zones"
)

var errExchange = errors.New("exchange down")

type fakeExchange struct {
	mu        sync.Mutex
	products  []models.Product
	movers    models.Movers
	balance   float64
	remote    []models.ExchangePosition
	orders    []models.OrderRequest
	orderErr  error
	prodCalls int

	resting   []models.Order
	cancelled []string
}

func (f *fakeExchange) PlaceOrder(_ context.Context, req models.OrderRequest) (models.OrderResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.orderErr != nil {
		return models.OrderResult{}, f.orderErr
	}
	f.orders = append(f.orders, req)
	return models.OrderResult{Success: true, OrderID: "ord-" + req.Symbol}, nil
}

func (f *fakeExchange) CancelOrder(_ context.Context, _ int64, orderID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cancelled = append(f.cancelled, orderID)
	return nil
}

func (f *fakeExchange) GetOrders(_ context.Context, productID int64) ([]models.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Order
	for _, o := range f.resting {
		if o.ProductID == productID {
			out = append(out, o)
		}
	}
	return out, nil
}

func (f *fakeExchange) Products(context.Context) ([]models.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.prodCalls++
	return f.products, nil
}

func (f *fakeExchange) TopMovers(context.Context, int) (models.Movers, error) {
	return f.movers, nil
}

func (f *fakeExchange) WalletBalance(context.Context, string) (float64, error) {
	return f.balance, nil
}

func (f *fakeExchange) GetPositions(context.Context) ([]models.ExchangePosition, error) {
	return f.remote, nil
}

func (f *fakeExchange) placed() []models.OrderRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.OrderRequest(nil), f.orders...)
}

type fakeFeed struct {
	mu      sync.Mutex
	prices  map[string]float64
	watched []string
}

func (f *fakeFeed) LastPrice(_ context.Context, symbol string) (float64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	px, ok := f.prices[symbol]
	if !ok {
		return 0, models.ErrExternalService
	}
	return px, nil
}

func (f *fakeFeed) Watch(symbols ...string) {
	f.mu.Lock()
	f.watched = append(f.watched, symbols...)
	f.mu.Unlock()
}

type fakeScanner struct {
	mu      sync.Mutex
	signals map[string]models.EntrySignal
	errs    map[string]error
	scanned []string
}

func (f *fakeScanner) Scan(_ context.Context, req entry.Request) (entry.Outcome, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.scanned = append(f.scanned, req.Symbol)
	if err := f.errs[req.Symbol]; err != nil {
		return entry.Outcome{}, err
	}
	sig, ok := f.signals[req.Symbol]
	if !ok {
		return entry.Outcome{Reason: "no pattern"}, nil
	}
	sig.Size = req.Settings.LotSize
	return entry.Outcome{Signal: &sig}, nil
}

type fakeZones struct {
	mu    sync.Mutex
	calls []string
}

func (f *fakeZones) Refresh(_ context.Context, symbol string, _ int64, _ models.TradingSettings) (zones.RefreshResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, symbol)
	return zones.RefreshResult{Saved: 2}, nil
}

type fakeNotifier struct {
	mu   sync.Mutex
	msgs []string
}

func (f *fakeNotifier) Send(_ context.Context, _ int64, msg string) error {
	f.mu.Lock()
	f.msgs = append(f.msgs, msg)
	f.mu.Unlock()
	return nil
}

type fakeJournal struct {
	mu            sync.Mutex
	signals       int
	exits         int
	discrepancies int
}

func (f *fakeJournal) RecordSignal(int64, models.EntrySignal) error {
	f.mu.Lock()
	f.signals++
	f.mu.Unlock()
	return nil
}

func (f *fakeJournal) RecordExit(int64, string, models.ExitAction) error {
	f.mu.Lock()
	f.exits++
	f.mu.Unlock()
	return nil
}

func (f *fakeJournal) RecordDiscrepancy(int64, models.Discrepancy) error {
	f.mu.Lock()
	f.discrepancies++
	f.mu.Unlock()
	return nil
}

func (f *fakeJournal) Close() error { return nil }

type harness struct {
	ex        *fakeExchange
	feed      *fakeFeed
	scanner   *fakeScanner
	zones     *fakeZones
	notifier  *fakeNotifier
	journal   *fakeJournal
	positions *memory.Positions
	deps      Deps
}

var t0 = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func newHarness() *harness {
	h := &harness{
		ex: &fakeExchange{products: []models.Product{
			{ID: 27, Symbol: "BTCUSD", ContractType: "perpetual_futures", ContractValue: 0.001, State: "live"},
			{ID: 3, Symbol: "ETHUSD", ContractType: "perpetual_futures", ContractValue: 0.01, State: "live"},
			{ID: 5, Symbol: "SOLUSD", ContractType: "perpetual_futures", ContractValue: 1, State: "live"},
			{ID: 9, Symbol: "BTC_USDT", ContractType: "spot", State: "live"},
		}},
		feed:      &fakeFeed{prices: map[string]float64{}},
		scanner:   &fakeScanner{signals: map[string]models.EntrySignal{}, errs: map[string]error{}},
		zones:     &fakeZones{},
		notifier:  &fakeNotifier{},
		journal:   &fakeJournal{},
		positions: memory.NewPositions(),
	}
	re := risk.NewEngine(1.5)
	h.deps = Deps{
		Exchange:         h.ex,
		Feed:             h.feed,
		Scanner:          h.scanner,
		Zones:            h.zones,
		Exits:            exits.NewManager(exits.BasisOriginal, re),
		Reconciler:       reconcile.NewReconciler(h.positions, h.ex),
		Risk:             re,
		Positions:        h.positions,
		Journal:          h.journal,
		Notifier:         h.notifier,
		AssetConcurrency: 1,
	}
	return h
}

func (h *harness) session(st models.TradingSettings) *UserSession {
	s := New(models.UserSettings{UserID: 42, Name: "alice", IsActive: true, Settings: st}, h.deps)
	s.now = func() time.Time { return t0 }
	return s
}

func buySignal(symbol string, productID int64) models.EntrySignal {
	return models.EntrySignal{
		Symbol:     symbol,
		ProductID:  productID,
		Side:       models.SideBuy,
		EntryPrice: 100,
		StopLoss:   99,
		Targets: []models.Target{
			{Level: 1, Price: 101.5, RiskReward: 1.5, ExitPercentage: 50},
			{Level: 2, Price: 102, RiskReward: 2, ExitPercentage: 50},
		},
		PatternName: "hammer",
		OrderType:   models.OrderMarket,
		Timeframe:   "15m",
	}
}

func openPosition(symbol string, productID int64, size int64) models.Position {
	sig := buySignal(symbol, productID)
	return models.NewPosition("", 42, sig, "ord-0", size, t0.Add(-time.Hour))
}
