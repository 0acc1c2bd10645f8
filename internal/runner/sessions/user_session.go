package sessions

import (
	"context"
	"sync"
	"time"

	"vrz_bot/internal/models"
	journal "vrz_bot/internal/modules/journal/service"
	"vrz_bot/internal/notify"
	"vrz_bot/internal/storage"
	"vrz_bot/internal/strategy/entry"
	"vrz_bot/internal/strategy/risk"
	"vrz_bot/internal/strategy/zones"
	"vrz_bot/pkg/logger"
)

type Exchange interface {
	PlaceOrder(ctx context.Context, req models.OrderRequest) (models.OrderResult, error)
	CancelOrder(ctx context.Context, productID int64, orderID string) error
	GetOrders(ctx context.Context, productID int64) ([]models.Order, error)
	Products(ctx context.Context) ([]models.Product, error)
	TopMovers(ctx context.Context, limit int) (models.Movers, error)
	WalletBalance(ctx context.Context, asset string) (float64, error)
}

type PriceFeed interface {
	LastPrice(ctx context.Context, symbol string) (float64, error)
	Watch(symbols ...string)
}

type SignalScanner interface {
	Scan(ctx context.Context, req entry.Request) (entry.Outcome, error)
}

type ZoneRefresher interface {
	Refresh(ctx context.Context, symbol string, productID int64, st models.TradingSettings) (zones.RefreshResult, error)
}

type ExitEvaluator interface {
	Evaluate(pos models.Position, price float64, now time.Time) []models.ExitAction
}

type Reconciler interface {
	Reconcile(ctx context.Context, userID int64) ([]models.Discrepancy, error)
}

// Deps is shared by every session of the process.
type Deps struct {
	Exchange   Exchange
	Feed       PriceFeed
	Scanner    SignalScanner
	Zones      ZoneRefresher
	Exits      ExitEvaluator
	Reconciler Reconciler
	Risk       *risk.Engine
	Positions  storage.PositionStore
	Journal    journal.Recorder
	Notifier   notify.Notifier

	DryRun           bool
	TopMoversLimit   int
	AssetConcurrency int
	SettleAsset      string

	// resting entry orders older than this are cancelled on reconcile
	EntryTimeout time.Duration
}

type UserSession struct {
	Ctx    context.Context
	Cancel context.CancelFunc

	UserID int64
	Name   string

	mu       sync.RWMutex
	settings models.TradingSettings

	deps Deps
	now  func() time.Time

	// one order-affecting action per symbol or position at a time
	pendMu  sync.Mutex
	pending map[string]struct{}

	prodMu     sync.Mutex
	products   map[string]models.Product
	productsAt time.Time
}

func New(user models.UserSettings, deps Deps) *UserSession {
	if deps.AssetConcurrency <= 0 {
		deps.AssetConcurrency = 4
	}
	if deps.SettleAsset == "" {
		deps.SettleAsset = "USD"
	}
	if deps.EntryTimeout <= 0 {
		deps.EntryTimeout = 15 * time.Minute
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &UserSession{
		Ctx:      ctx,
		Cancel:   cancel,
		UserID:   user.UserID,
		Name:     user.Name,
		settings: user.Settings.WithDefaults(models.DefaultTradingSettings()),
		deps:     deps,
		now:      time.Now,
		pending:  make(map[string]struct{}),
	}
}

func (s *UserSession) Settings() models.TradingSettings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st := s.settings
	st.SelectedAssets = append([]string(nil), s.settings.SelectedAssets...)
	st.TargetLevels = append([]float64(nil), s.settings.TargetLevels...)
	return st
}

func (s *UserSession) SetSettings(st models.TradingSettings) {
	s.mu.Lock()
	s.settings = st.WithDefaults(models.DefaultTradingSettings())
	s.mu.Unlock()
}

// scope ties a loop context to the session lifetime.
func (s *UserSession) scope(parent context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)
	if s.Ctx.Err() != nil {
		cancel()
	}
	stop := context.AfterFunc(s.Ctx, cancel)
	return ctx, func() {
		stop()
		cancel()
	}
}

func (s *UserSession) tryAcquire(key string) bool {
	s.pendMu.Lock()
	defer s.pendMu.Unlock()
	if _, busy := s.pending[key]; busy {
		return false
	}
	s.pending[key] = struct{}{}
	return true
}

func (s *UserSession) release(key string) {
	s.pendMu.Lock()
	delete(s.pending, key)
	s.pendMu.Unlock()
}

func (s *UserSession) notify(ctx context.Context, msg string) {
	if s.deps.Notifier == nil {
		return
	}
	if err := s.deps.Notifier.Send(ctx, s.UserID, msg); err != nil {
		logger.Warn("notify user %d: %v", s.UserID, err)
	}
}

// Status returns the open positions of the user.
func (s *UserSession) Status(ctx context.Context) ([]models.Position, error) {
	return s.deps.Positions.OpenPositions(ctx, s.UserID)
}
