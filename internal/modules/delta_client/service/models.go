package service

import (
	"bytes"
	"strconv"
)

// number accepts both 12.5 and "12.5"; Delta mixes the two.
type number float64

func (n *number) UnmarshalJSON(b []byte) error {
	b = bytes.Trim(b, `"`)
	if len(b) == 0 || string(b) == "null" {
		*n = 0
		return nil
	}
	v, err := strconv.ParseFloat(string(b), 64)
	if err != nil {
		return err
	}
	*n = number(v)
	return nil
}

type candleRow struct {
	Time   int64  `json:"time"`
	Open   number `json:"open"`
	High   number `json:"high"`
	Low    number `json:"low"`
	Close  number `json:"close"`
	Volume number `json:"volume"`
}

type productRow struct {
	ID            int64  `json:"id"`
	Symbol        string `json:"symbol"`
	ContractType  string `json:"contract_type"`
	ContractValue number `json:"contract_value"`
	TickSize      number `json:"tick_size"`
	State         string `json:"state"`
}

type tickerRow struct {
	Symbol       string `json:"symbol"`
	ProductID    int64  `json:"product_id"`
	ContractType string `json:"contract_type"`
	MarkPrice    number `json:"mark_price"`
	Close        number `json:"close"`
	Change24h    number `json:"ltp_change_24h"`
	Volume       number `json:"volume"`
}

type positionRow struct {
	ProductID     int64  `json:"product_id"`
	ProductSymbol string `json:"product_symbol"`
	Size          int64  `json:"size"`
	EntryPrice    number `json:"entry_price"`
}

type orderRow struct {
	ID            int64  `json:"id"`
	ProductID     int64  `json:"product_id"`
	ProductSymbol string `json:"product_symbol"`
	Side          string `json:"side"`
	Size          int64  `json:"size"`
	UnfilledSize  int64  `json:"unfilled_size"`
	State         string `json:"state"`
	LimitPrice    number `json:"limit_price"`
}

type balanceRow struct {
	AssetSymbol      string `json:"asset_symbol"`
	Balance          number `json:"balance"`
	AvailableBalance number `json:"available_balance"`
}

type stopLossOrder struct {
	OrderType string `json:"order_type"`
	StopPrice string `json:"stop_price"`
}

type orderBody struct {
	ProductID     int64          `json:"product_id"`
	ProductSymbol string         `json:"product_symbol,omitempty"`
	Size          int64          `json:"size"`
	Side          string         `json:"side"`
	OrderType     string         `json:"order_type"`
	LimitPrice    string         `json:"limit_price,omitempty"`
	ReduceOnly    bool           `json:"reduce_only,omitempty"`
	StopLossOrder *stopLossOrder `json:"stop_loss_order,omitempty"`
}
