package models

type ExchangePosition struct {
	ProductID  int64   `json:"product_id"`
	Symbol     string  `json:"product_symbol"`
	Size       int64   `json:"size"` // signed: >0 long, <0 short
	EntryPrice float64 `json:"entry_price"`
}

func (p ExchangePosition) AbsSize() int64 {
	if p.Size < 0 {
		return -p.Size
	}
	return p.Size
}

type OrderRequest struct {
	ProductID  int64
	Symbol     string
	Size       int64
	Side       Side
	OrderType  OrderType
	LimitPrice float64 // only for limit orders
	StopPrice  float64 // attached stop-market, 0 = none
	ReduceOnly bool
}

type OrderResult struct {
	Success bool
	OrderID string
	Error   string
}

type Order struct {
	ID           string  `json:"id"`
	ProductID    int64   `json:"product_id"`
	Symbol       string  `json:"product_symbol"`
	Side         Side    `json:"side"`
	Size         int64   `json:"size"`
	UnfilledSize int64   `json:"unfilled_size"`
	State        string  `json:"state"`
	LimitPrice   float64 `json:"limit_price"`
}

type Product struct {
	ID            int64   `json:"id"`
	Symbol        string  `json:"symbol"`
	ContractType  string  `json:"contract_type"`
	ContractValue float64 `json:"contract_value"`
	TickSize      float64 `json:"tick_size"`
	State         string  `json:"state"`
}

// IsFuture mirrors the exchange product types that can be traded by the bot.
func (p Product) IsFuture() bool {
	return p.ContractType == "perpetual_futures" || p.ContractType == "futures"
}

type Ticker struct {
	Symbol      string  `json:"symbol"`
	ProductID   int64   `json:"product_id"`
	ProductType string  `json:"contract_type"`
	MarkPrice   float64 `json:"mark_price"`
	Close       float64 `json:"close"`
	Change24h   float64 `json:"change_24h"`
	Volume      float64 `json:"volume"`
}

// Asset is what the scan loop iterates over for one user.
type Asset struct {
	Symbol        string
	ProductID     int64
	ContractValue float64
	TickSize      float64
}

type Movers struct {
	Gainers []Ticker
	Losers  []Ticker
}
