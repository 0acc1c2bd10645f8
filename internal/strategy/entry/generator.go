package entry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"vrz_bot/internal/helper"
	"vrz_bot/internal/models"
	"vrz_bot/internal/strategy/patterns"
	"vrz_bot/internal/strategy/risk"
	"vrz_bot/internal/strategy/zones"
	"vrz_bot/pkg/logger"
)

const (
	scanBars = 50
	minBars  = 10
)

// ErrDataUnavailable: not enough trading-timeframe history to scan.
var ErrDataUnavailable = errors.New("insufficient candle data")

// MarketDataSource returns candles ordered ascending by time.
type MarketDataSource interface {
	GetCandles(ctx context.Context, symbol, timeframe string, start, end int64) ([]models.Candle, error)
}

type Request struct {
	Symbol    string
	ProductID int64
	Settings  models.TradingSettings
}

// Outcome carries either a signal or the reason there is none.
type Outcome struct {
	Signal *models.EntrySignal
	Reason string
}

type Generator struct {
	market   MarketDataSource
	zones    *zones.Manager
	patterns *patterns.Library
	risk     *risk.Engine
	now      func() time.Time
}

func NewGenerator(market MarketDataSource, zm *zones.Manager, lib *patterns.Library, re *risk.Engine) *Generator {
	return &Generator{
		market:   market,
		zones:    zm,
		patterns: lib,
		risk:     re,
		now:      time.Now,
	}
}

// ScanForSignal drops the skip reason.
func (g *Generator) ScanForSignal(ctx context.Context, req Request) (*models.EntrySignal, error) {
	out, err := g.Scan(ctx, req)
	if err != nil {
		return nil, err
	}
	return out.Signal, nil
}

func (g *Generator) Scan(ctx context.Context, req Request) (Outcome, error) {
	st := req.Settings.WithDefaults(models.DefaultTradingSettings())
	tf := helper.NormTF(st.TradingTimeframe)
	baseTF, err := helper.BaseTimeframe(st.BaseTimeframe, tf)
	if err != nil {
		return Outcome{}, err
	}

	start, end := helper.CandleWindow(tf, scanBars, g.now())
	candles, err := g.market.GetCandles(ctx, req.Symbol, tf, start, end)
	if err != nil {
		return Outcome{}, fmt.Errorf("candles %s %s: %w", req.Symbol, tf, err)
	}
	if len(candles) < minBars {
		return Outcome{}, fmt.Errorf("%s %s: %d bars: %w", req.Symbol, tf, len(candles), ErrDataUnavailable)
	}

	price := candles[len(candles)-1].Close

	resistance, err := g.zones.NearestZones(ctx, req.Symbol, baseTF, price, models.ZoneResistance, st.MaxZones)
	if err != nil {
		return Outcome{}, err
	}
	support, err := g.zones.NearestZones(ctx, req.Symbol, baseTF, price, models.ZoneSupport, st.MaxZones)
	if err != nil {
		return Outcome{}, err
	}
	logger.Debug("%s active zones: %d resistance, %d support", req.Symbol, len(resistance), len(support))

	nearRes, okRes := zones.FirstNear(price, resistance, g.zones.ProximityPct())
	nearSup, okSup := zones.FirstNear(price, support, g.zones.ProximityPct())
	if !okRes && !okSup {
		return skip("price not near any zone"), nil
	}

	pm, ok := g.patterns.Best(candles, len(candles)-1)
	if !ok {
		return skip("no pattern"), nil
	}

	var (
		side      models.Side
		entryZone models.Zone
		opposite  []models.Zone
	)
	switch {
	case pm.Direction == models.Bullish && okSup:
		side, entryZone, opposite = models.SideBuy, nearSup, resistance
	case pm.Direction == models.Bearish && okRes:
		side, entryZone, opposite = models.SideSell, nearRes, support
	default:
		return skip(fmt.Sprintf("%s %s pattern not at a matching zone", pm.Name, pm.Direction)), nil
	}

	sl := g.risk.StopLoss(price, side, pm.High, pm.Low, st.StopLossPips)

	var targets []models.Target
	switch {
	case st.TargetType == models.TargetZone && st.MaxZones == 1:
		if z, ok := g.risk.NearestOppositeZone(price, side, opposite); ok {
			targets = g.risk.MultipleTargetsZone(price, sl, side, []models.Zone{z})
		}
	case st.TargetType == models.TargetZone:
		if len(opposite) > st.MaxZones {
			opposite = opposite[:st.MaxZones]
		}
		targets = g.risk.MultipleTargetsZone(price, sl, side, opposite)
	default:
		targets = g.risk.MultipleTargetsRR(price, sl, side, st.TargetLevels)
	}
	if len(targets) == 0 {
		return skip("no valid targets"), nil
	}

	valid, reason, rr := g.risk.Validate(price, sl, targets[0].Price, side)
	if !valid {
		logger.Info("%s setup rejected: %s", req.Symbol, reason)
		return skip(reason), nil
	}

	sig := &models.EntrySignal{
		Symbol:            req.Symbol,
		ProductID:         req.ProductID,
		Side:              side,
		EntryPrice:        price,
		StopLoss:          sl,
		Targets:           targets,
		RiskReward:        rr,
		PatternName:       pm.Name,
		PatternConfidence: pm.Confidence,
		Zone:              entryZone,
		Timeframe:         tf,
		Size:              st.LotSize,
		OrderType:         st.OrderType,
		CreatedAt:         g.now().UTC(),
	}
	logger.Info("entry signal %s %s @ %.6f sl=%.6f rr=%.2f pattern=%s%s",
		sig.Symbol, sig.Side, sig.EntryPrice, sig.StopLoss, sig.RiskReward, sig.PatternName,
		g.risk.Summary(price, sl, targets, side, sig.Size))
	return Outcome{Signal: sig}, nil
}

func skip(reason string) Outcome { return Outcome{Reason: reason} }
