package service

import (
	"context"
	"net/http"
	"strings"

	"github.com/pkg/errors"

	"vrz_bot/internal/models"
)

// WalletBalance is the available balance of one settlement asset.
func (c *Client) WalletBalance(ctx context.Context, asset string) (float64, error) {
	var rows []balanceRow
	if err := c.do(ctx, http.MethodGet, "/v2/wallet/balances", nil, nil, true, &rows); err != nil {
		return 0, err
	}
	for _, r := range rows {
		if strings.EqualFold(r.AssetSymbol, asset) {
			return float64(r.AvailableBalance), nil
		}
	}
	return 0, errors.Wrapf(models.ErrNotFound, "wallet asset %s", asset)
}
