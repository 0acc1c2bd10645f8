package service

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vrz_bot/internal/models"
	"vrz_bot/internal/modules/config"
)

type fakeCandles struct {
	candles []models.Candle
	err     error
	calls   int
}

func (f *fakeCandles) GetCandles(_ context.Context, _, _ string, _, _ int64) ([]models.Candle, error) {
	f.calls++
	return f.candles, f.err
}

type fakeState struct {
	connected atomic.Bool
	ticks     atomic.Int64
}

func (s *fakeState) SetWSConnected(v bool) { s.connected.Store(v) }
func (s *fakeState) TouchTick(time.Time)   { s.ticks.Add(1) }

func newFeed(url string, rest CandleSource, st ConnState) *Feed {
	cfg := &config.Config{}
	cfg.Delta.WSURL = url
	return NewFeed(cfg, rest, st)
}

func TestLastPricePrefersFreshStream(t *testing.T) {
	rest := &fakeCandles{candles: []models.Candle{{Close: 90}, {Close: 91}}}
	f := newFeed("", rest, nil)
	now := time.Unix(1_700_000_000, 0)
	f.now = func() time.Time { return now }

	f.handle([]byte(`{"type":"v2/ticker","symbol":"BTCUSD","mark_price":"100.5"}`))
	px, err := f.LastPrice(context.Background(), "BTCUSD")
	require.NoError(t, err)
	assert.Equal(t, 100.5, px)
	assert.Equal(t, 0, rest.calls)

	now = now.Add(staleAfter + time.Second)
	px, err = f.LastPrice(context.Background(), "BTCUSD")
	require.NoError(t, err)
	assert.Equal(t, 91.0, px)
	assert.Equal(t, 1, rest.calls)
}

func TestLastPriceFallbackErrors(t *testing.T) {
	f := newFeed("", &fakeCandles{}, nil)
	_, err := f.LastPrice(context.Background(), "ETHUSD")
	assert.True(t, errors.Is(err, models.ErrExternalService))

	f = newFeed("", &fakeCandles{err: models.ErrExternalService}, nil)
	_, err = f.LastPrice(context.Background(), "ETHUSD")
	assert.Error(t, err)
}

func TestHandleIgnoresOtherMessages(t *testing.T) {
	f := newFeed("", nil, nil)
	f.handle([]byte(`{"type":"heartbeat"}`))
	f.handle([]byte(`{"type":"v2/ticker","symbol":"BTCUSD","mark_price":"bad"}`))
	f.handle([]byte(`not json`))
	assert.Empty(t, f.prices)
}

func TestWatchSignalsResubscribeOnce(t *testing.T) {
	f := newFeed("", nil, nil)
	f.Watch("BTCUSD", "ETHUSD")
	f.Watch("BTCUSD")
	assert.Equal(t, []string{"BTCUSD", "ETHUSD"}, f.watched())
	assert.Len(t, f.resub, 1)
}

func TestRunStreamsTickers(t *testing.T) {
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		var sub map[string]any
		if err := conn.ReadJSON(&sub); err != nil || sub["type"] != "subscribe" {
			return
		}
		_ = conn.WriteMessage(websocket.TextMessage,
			[]byte(`{"type":"v2/ticker","symbol":"BTCUSD","mark_price":"101.25"}`))
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	defer srv.Close()

	st := &fakeState{}
	f := newFeed("ws"+strings.TrimPrefix(srv.URL, "http"), nil, st)
	f.Watch("BTCUSD")

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		f.Run(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool {
		px, err := f.LastPrice(ctx, "BTCUSD")
		return err == nil && px == 101.25
	}, 2*time.Second, 10*time.Millisecond)
	assert.True(t, st.connected.Load())
	assert.GreaterOrEqual(t, st.ticks.Load(), int64(1))

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("feed did not stop")
	}
	assert.False(t, st.connected.Load())
}
