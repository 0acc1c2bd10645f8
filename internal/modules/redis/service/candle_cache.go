package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bytedance/sonic"
	"github.com/redis/go-redis/v9"

	"vrz_bot/internal/helper"
	"vrz_bot/internal/models"
	"vrz_bot/pkg/logger"
)

const keyPrefix = "vrz:candles"

type CandleSource interface {
	GetCandles(ctx context.Context, symbol, timeframe string, start, end int64) ([]models.Candle, error)
}

// CandleCache puts candle windows in redis for ttl. Redis failures fall
// through to the source.
type CandleCache struct {
	rdb    *redis.Client
	source CandleSource
	ttl    time.Duration
}

func NewCandleCache(rdb *redis.Client, source CandleSource, ttl time.Duration) *CandleCache {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &CandleCache{rdb: rdb, source: source, ttl: ttl}
}

// key buckets the window end by ttl so one scan cycle shares an entry.
func (c *CandleCache) key(symbol, timeframe string, start, end int64) string {
	tf := helper.NormTF(timeframe)
	bars := (end - start) / helper.TimeframeSeconds(tf)
	bucket := end / max(int64(c.ttl/time.Second), 1)
	return fmt.Sprintf("%s:%s:%s:%d:%d", keyPrefix, symbol, tf, bars, bucket)
}

func (c *CandleCache) GetCandles(ctx context.Context, symbol, timeframe string, start, end int64) ([]models.Candle, error) {
	if c.rdb == nil {
		return c.source.GetCandles(ctx, symbol, timeframe, start, end)
	}

	key := c.key(symbol, timeframe, start, end)
	raw, err := c.rdb.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var out []models.Candle
		if err := sonic.Unmarshal(raw, &out); err == nil {
			return out, nil
		}
		logger.Warn("candle cache: bad entry %s", key)
	case !errors.Is(err, redis.Nil):
		logger.Warn("candle cache get %s: %v", key, err)
	}

	out, err := c.source.GetCandles(ctx, symbol, timeframe, start, end)
	if err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return out, nil
	}

	if data, err := sonic.Marshal(out); err == nil {
		if err := c.rdb.Set(ctx, key, data, c.ttl).Err(); err != nil {
			logger.Warn("candle cache set %s: %v", key, err)
		}
	}
	return out, nil
}
