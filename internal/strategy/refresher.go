package strategy

import (
	"context"
	"fmt"
	"time"

	"vrz_bot/internal/helper"
	"vrz_bot/internal/models"
	"vrz_bot/internal/strategy/entry"
	"vrz_bot/internal/strategy/swing"
	"vrz_bot/internal/strategy/zones"
)

const defaultBaseBars = 150

// ZoneRefresher rebuilds the base timeframe zones of one symbol from fresh candles.
type ZoneRefresher struct {
	market entry.MarketDataSource
	zones  *zones.Manager
	bars   int
	now    func() time.Time
}

func NewZoneRefresher(market entry.MarketDataSource, zm *zones.Manager, bars int) *ZoneRefresher {
	if bars <= 0 {
		bars = defaultBaseBars
	}
	return &ZoneRefresher{market: market, zones: zm, bars: bars, now: time.Now}
}

func (r *ZoneRefresher) Refresh(ctx context.Context, symbol string, productID int64, st models.TradingSettings) (zones.RefreshResult, error) {
	st = st.WithDefaults(models.DefaultTradingSettings())
	baseTF, err := helper.BaseTimeframe(st.BaseTimeframe, helper.NormTF(st.TradingTimeframe))
	if err != nil {
		return zones.RefreshResult{}, err
	}

	start, end := helper.CandleWindow(baseTF, r.bars, r.now())
	candles, err := r.market.GetCandles(ctx, symbol, baseTF, start, end)
	if err != nil {
		return zones.RefreshResult{}, fmt.Errorf("base candles %s %s: %w", symbol, baseTF, err)
	}

	det := swing.NewDetector(st.SwingLeftBars, st.SwingRightBars)
	return r.zones.Refresh(ctx, symbol, productID, baseTF, candles, det)
}
