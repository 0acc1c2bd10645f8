package service

import (
	"context"
	"net/http"
	"sort"

	"vrz_bot/internal/models"
)

func (c *Client) Products(ctx context.Context) ([]models.Product, error) {
	var rows []productRow
	if err := c.do(ctx, http.MethodGet, "/v2/products", nil, nil, false, &rows); err != nil {
		return nil, err
	}
	out := make([]models.Product, 0, len(rows))
	for _, r := range rows {
		out = append(out, models.Product{
			ID:            r.ID,
			Symbol:        r.Symbol,
			ContractType:  r.ContractType,
			ContractValue: float64(r.ContractValue),
			TickSize:      float64(r.TickSize),
			State:         r.State,
		})
	}
	return out, nil
}

func (c *Client) Tickers(ctx context.Context) ([]models.Ticker, error) {
	var rows []tickerRow
	if err := c.do(ctx, http.MethodGet, "/v2/tickers", nil, nil, false, &rows); err != nil {
		return nil, err
	}
	out := make([]models.Ticker, 0, len(rows))
	for _, r := range rows {
		out = append(out, models.Ticker{
			Symbol:      r.Symbol,
			ProductID:   r.ProductID,
			ProductType: r.ContractType,
			MarkPrice:   float64(r.MarkPrice),
			Close:       float64(r.Close),
			Change24h:   float64(r.Change24h),
			Volume:      float64(r.Volume),
		})
	}
	return out, nil
}

// TopMovers ranks futures tickers by 24h change.
func (c *Client) TopMovers(ctx context.Context, limit int) (models.Movers, error) {
	tickers, err := c.Tickers(ctx)
	if err != nil {
		return models.Movers{}, err
	}
	return RankMovers(tickers, limit), nil
}

func RankMovers(tickers []models.Ticker, limit int) models.Movers {
	futures := make([]models.Ticker, 0, len(tickers))
	for _, t := range tickers {
		if (models.Product{ContractType: t.ProductType}).IsFuture() {
			futures = append(futures, t)
		}
	}
	sort.SliceStable(futures, func(i, j int) bool { return futures[i].Change24h > futures[j].Change24h })

	if limit <= 0 || limit > len(futures) {
		limit = len(futures)
	}
	gainers := append([]models.Ticker(nil), futures[:limit]...)
	losers := make([]models.Ticker, 0, limit)
	for i := len(futures) - 1; i >= len(futures)-limit; i-- {
		losers = append(losers, futures[i])
	}
	return models.Movers{Gainers: gainers, Losers: losers}
}
