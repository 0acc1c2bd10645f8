package service

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/pkg/errors"

	"vrz_bot/internal/helper"
	"vrz_bot/internal/models"
	"vrz_bot/pkg/logger"
)

// PlaceOrder sends one order. A non-zero StopPrice attaches a stop-market
// bracket; the exchange may accept the entry and still drop the stop.
func (c *Client) PlaceOrder(ctx context.Context, req models.OrderRequest) (models.OrderResult, error) {
	if req.Size <= 0 {
		return models.OrderResult{}, errors.Errorf("order size must be positive, got %d", req.Size)
	}

	body := orderBody{
		ProductID:     req.ProductID,
		ProductSymbol: req.Symbol,
		Size:          req.Size,
		Side:          string(req.Side),
		OrderType:     string(req.OrderType),
		ReduceOnly:    req.ReduceOnly,
	}
	if body.OrderType == "" {
		body.OrderType = string(models.OrderMarket)
	}
	if req.OrderType == models.OrderLimit && req.LimitPrice > 0 {
		body.LimitPrice = helper.FormatPrice(req.LimitPrice)
	}
	if req.StopPrice > 0 {
		body.StopLossOrder = &stopLossOrder{
			OrderType: "market_order",
			StopPrice: helper.FormatPrice(req.StopPrice),
		}
	}

	var row orderRow
	if err := c.do(ctx, http.MethodPost, "/v2/orders", nil, body, true, &row); err != nil {
		return models.OrderResult{Success: false, Error: err.Error()}, err
	}

	id := strconv.FormatInt(row.ID, 10)
	logger.Info("order placed id=%s %s %s size=%d type=%s", id, req.Symbol, req.Side, req.Size, body.OrderType)
	return models.OrderResult{Success: true, OrderID: id}, nil
}

// CancelOrder cancels one resting order.
func (c *Client) CancelOrder(ctx context.Context, productID int64, orderID string) error {
	id, err := strconv.ParseInt(orderID, 10, 64)
	if err != nil {
		return errors.Wrapf(err, "order id %q", orderID)
	}
	body := map[string]int64{"id": id, "product_id": productID}
	return c.do(ctx, http.MethodDelete, "/v2/orders", nil, body, true, nil)
}

// GetOrders lists open and pending orders, of one product when productID is set.
func (c *Client) GetOrders(ctx context.Context, productID int64) ([]models.Order, error) {
	q := url.Values{}
	if productID != 0 {
		q.Set("product_ids", strconv.FormatInt(productID, 10))
	}
	q.Set("states", "open,pending")

	var rows []orderRow
	if err := c.do(ctx, http.MethodGet, "/v2/orders", q, nil, true, &rows); err != nil {
		return nil, err
	}
	out := make([]models.Order, 0, len(rows))
	for _, r := range rows {
		out = append(out, models.Order{
			ID:           strconv.FormatInt(r.ID, 10),
			ProductID:    r.ProductID,
			Symbol:       r.ProductSymbol,
			Side:         models.Side(r.Side),
			Size:         r.Size,
			UnfilledSize: r.UnfilledSize,
			State:        r.State,
			LimitPrice:   float64(r.LimitPrice),
		})
	}
	return out, nil
}
