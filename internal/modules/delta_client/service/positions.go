package service

import (
	"context"
	"net/http"

	"vrz_bot/internal/models"
)

// GetPositions lists every open exchange position (signed size).
func (c *Client) GetPositions(ctx context.Context) ([]models.ExchangePosition, error) {
	var rows []positionRow
	if err := c.do(ctx, http.MethodGet, "/v2/positions/margined", nil, nil, true, &rows); err != nil {
		return nil, err
	}
	out := make([]models.ExchangePosition, 0, len(rows))
	for _, r := range rows {
		out = append(out, models.ExchangePosition{
			ProductID:  r.ProductID,
			Symbol:     r.ProductSymbol,
			Size:       r.Size,
			EntryPrice: float64(r.EntryPrice),
		})
	}
	return out, nil
}
