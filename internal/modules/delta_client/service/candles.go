package service

import (
	"context"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"time"

	"github.com/pkg/errors"

	"vrz_bot/internal/helper"
	"vrz_bot/internal/models"
)

// GetCandles returns bars in [start, end] sorted ascending by time.
func (c *Client) GetCandles(ctx context.Context, symbol, timeframe string, start, end int64) ([]models.Candle, error) {
	resolution := helper.NormTF(timeframe)
	if _, ok := helper.TimeframeMinutes(resolution); !ok {
		return nil, errors.Errorf("unsupported resolution %q", timeframe)
	}

	q := url.Values{}
	q.Set("symbol", symbol)
	q.Set("resolution", resolution)
	q.Set("start", strconv.FormatInt(start, 10))
	q.Set("end", strconv.FormatInt(end, 10))

	var rows []candleRow
	if err := c.do(ctx, http.MethodGet, "/v2/history/candles", q, nil, false, &rows); err != nil {
		return nil, err
	}

	out := make([]models.Candle, 0, len(rows))
	for _, r := range rows {
		if r.Close <= 0 {
			continue
		}
		out = append(out, models.Candle{
			Time:   time.Unix(r.Time, 0).UTC(),
			Open:   float64(r.Open),
			High:   float64(r.High),
			Low:    float64(r.Low),
			Close:  float64(r.Close),
			Volume: float64(r.Volume),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Time.Before(out[j].Time) })
	return out, nil
}
