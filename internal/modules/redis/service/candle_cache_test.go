package service

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vrz_bot/internal/models"
)

type countingSource struct {
	calls int
}

func (s *countingSource) GetCandles(_ context.Context, _, _ string, _, _ int64) ([]models.Candle, error) {
	s.calls++
	return []models.Candle{{Time: time.Unix(0, 0).UTC(), Close: 100}}, nil
}

func TestKeySharedWithinTTL(t *testing.T) {
	c := NewCandleCache(nil, &countingSource{}, 30*time.Second)

	end := int64(1_700_000_010)
	k1 := c.key("BTCUSD", "15m", end-50*900, end)
	k2 := c.key("BTCUSD", "15m", end+5-50*900, end+5)
	assert.Equal(t, k1, k2)
	assert.Contains(t, k1, "vrz:candles:BTCUSD:15m:50:")

	k3 := c.key("BTCUSD", "15m", end+3600-50*900, end+3600)
	assert.NotEqual(t, k1, k3)
}

func TestNilClientPassesThrough(t *testing.T) {
	src := &countingSource{}
	c := NewCandleCache(nil, src, 0)
	_, err := c.GetCandles(context.Background(), "BTCUSD", "1m", 0, 60)
	require.NoError(t, err)
	_, err = c.GetCandles(context.Background(), "BTCUSD", "1m", 0, 60)
	require.NoError(t, err)
	assert.Equal(t, 2, src.calls)
}

func TestUnreachableRedisFallsBack(t *testing.T) {
	rdb := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer rdb.Close()

	src := &countingSource{}
	c := NewCandleCache(rdb, src, time.Second)
	out, err := c.GetCandles(context.Background(), "BTCUSD", "1m", 0, 60)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, 1, src.calls)
}
