package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gorilla/websocket"
	"github.com/pkg/errors"

	"vrz_bot/internal/helper"
	"vrz_bot/internal/models"
	"vrz_bot/internal/modules/config"
	"vrz_bot/pkg/logger"
)

const (
	pingEvery  = 20 * time.Second
	maxBackoff = 30 * time.Second
	staleAfter = 2 * time.Minute
)

// CandleSource is the REST fallback when the stream has no fresh price.
type CandleSource interface {
	GetCandles(ctx context.Context, symbol, timeframe string, start, end int64) ([]models.Candle, error)
}

// ConnState receives connection and tick events (health endpoint).
type ConnState interface {
	SetWSConnected(v bool)
	TouchTick(t time.Time)
}

type quote struct {
	price float64
	at    time.Time
}

// Feed keeps the last mark price per symbol from the v2/ticker channel.
type Feed struct {
	url    string
	dialer *websocket.Dialer
	rest   CandleSource
	state  ConnState
	now    func() time.Time

	mu      sync.RWMutex
	prices  map[string]quote
	symbols map[string]struct{}
	resub   chan struct{}
}

func NewFeed(cfg *config.Config, rest CandleSource, state ConnState) *Feed {
	return &Feed{
		url:     cfg.Delta.WSURL,
		dialer:  &websocket.Dialer{HandshakeTimeout: 10 * time.Second},
		rest:    rest,
		state:   state,
		now:     time.Now,
		prices:  make(map[string]quote),
		symbols: make(map[string]struct{}),
		resub:   make(chan struct{}, 1),
	}
}

// Watch adds symbols to the subscription; the stream resubscribes on change.
func (f *Feed) Watch(symbols ...string) {
	f.mu.Lock()
	added := false
	for _, s := range symbols {
		if _, ok := f.symbols[s]; !ok && s != "" {
			f.symbols[s] = struct{}{}
			added = true
		}
	}
	f.mu.Unlock()

	if added {
		select {
		case f.resub <- struct{}{}:
		default:
		}
	}
}

func (f *Feed) SetPrice(symbol string, price float64, at time.Time) {
	f.mu.Lock()
	f.prices[symbol] = quote{price: price, at: at}
	f.mu.Unlock()
	if f.state != nil {
		f.state.TouchTick(at)
	}
}

// LastPrice prefers a fresh streamed mark price and falls back to the close
// of the latest 1m candle.
func (f *Feed) LastPrice(ctx context.Context, symbol string) (float64, error) {
	f.mu.RLock()
	q, ok := f.prices[symbol]
	f.mu.RUnlock()
	if ok && q.price > 0 && f.now().Sub(q.at) < staleAfter {
		return q.price, nil
	}

	if f.rest == nil {
		return 0, errors.Wrapf(models.ErrExternalService, "no price for %s", symbol)
	}
	start, end := helper.CandleWindow("1m", 5, f.now())
	candles, err := f.rest.GetCandles(ctx, symbol, "1m", start, end)
	if err != nil {
		return 0, err
	}
	if len(candles) == 0 {
		return 0, errors.Wrapf(models.ErrExternalService, "no recent candles for %s", symbol)
	}
	return candles[len(candles)-1].Close, nil
}

func (f *Feed) watched() []string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	out := make([]string, 0, len(f.symbols))
	for s := range f.symbols {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

// Run reconnects with backoff until ctx is done.
func (f *Feed) Run(ctx context.Context) {
	retry := 0
	for {
		if ctx.Err() != nil {
			return
		}
		connected, err := f.session(ctx)
		if f.state != nil {
			f.state.SetWSConnected(false)
		}
		if ctx.Err() != nil {
			return
		}

		if connected {
			retry = 0
		}
		retry++
		wait := time.Duration(retry) * time.Second
		if wait > maxBackoff {
			wait = maxBackoff
		}
		logger.Warn("delta ws: %v, reconnect in %s", err, wait)
		select {
		case <-ctx.Done():
			return
		case <-time.After(wait):
		}
	}
}

type tickerMsg struct {
	Type      string `json:"type"`
	Symbol    string `json:"symbol"`
	MarkPrice string `json:"mark_price"`
}

func (f *Feed) session(ctx context.Context) (bool, error) {
	conn, _, err := f.dialer.DialContext(ctx, f.url, nil)
	if err != nil {
		return false, errors.Wrap(err, "dial")
	}
	defer conn.Close()

	if err := f.subscribe(conn); err != nil {
		return false, err
	}
	if f.state != nil {
		f.state.SetWSConnected(true)
	}
	logger.Info("delta ws connected, %d symbols", len(f.watched()))

	var writeMu sync.Mutex
	done := make(chan struct{})
	defer close(done)

	go func() {
		t := time.NewTicker(pingEvery)
		defer t.Stop()
		for {
			select {
			case <-done:
				return
			case <-ctx.Done():
				_ = conn.Close()
				return
			case <-f.resub:
				writeMu.Lock()
				_ = f.subscribe(conn)
				writeMu.Unlock()
			case <-t.C:
				writeMu.Lock()
				_ = conn.WriteJSON(map[string]string{"type": "ping"})
				writeMu.Unlock()
			}
		}
	}()

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			return true, errors.Wrap(err, "read")
		}
		f.handle(msg)
	}
}

func (f *Feed) subscribe(conn *websocket.Conn) error {
	symbols := f.watched()
	if len(symbols) == 0 {
		return nil
	}
	sub := map[string]any{
		"type": "subscribe",
		"payload": map[string]any{
			"channels": []map[string]any{{"name": "v2/ticker", "symbols": symbols}},
		},
	}
	return errors.Wrap(conn.WriteJSON(sub), "subscribe")
}

func (f *Feed) handle(msg []byte) {
	var m tickerMsg
	if err := sonic.Unmarshal(msg, &m); err != nil {
		return
	}
	if m.Type != "v2/ticker" || m.Symbol == "" {
		return
	}
	px := helper.ParseFloat(m.MarkPrice)
	if px <= 0 {
		return
	}
	f.SetPrice(m.Symbol, px, f.now())
}
