package models

import "time"

type AssetMode string

const (
	AssetsIndividual AssetMode = "individual"
	AssetsGainers    AssetMode = "top_gainers"
	AssetsLosers     AssetMode = "top_losers"
	AssetsBoth       AssetMode = "both"
	AssetsAll        AssetMode = "all"
)

// UserSettings is one bot user with trading preferences.
type UserSettings struct {
	UserID    int64           `json:"user_id"` // Telegram chat/user ID
	Name      string          `json:"name"`
	IsActive  bool            `json:"is_active"`
	Settings  TradingSettings `json:"settings"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

type TradingSettings struct {
	AssetMode      AssetMode `json:"asset_selection_mode" yaml:"asset_mode"`
	SelectedAssets []string  `json:"selected_assets" yaml:"assets"`

	// "auto" = 4x trading timeframe
	BaseTimeframe    string `json:"base_timeframe" yaml:"base_timeframe"`
	TradingTimeframe string `json:"trading_timeframe" yaml:"trading_timeframe"`

	LotSize      int64      `json:"lot_size" yaml:"lot_size"`
	StopLossPips int        `json:"stop_loss_pips" yaml:"stop_loss_pips"`
	TargetType   TargetKind `json:"target_type" yaml:"target_type"`
	TargetLevels []float64  `json:"target_levels" yaml:"target_levels"`
	OrderType    OrderType  `json:"order_type" yaml:"order_type"`
	MaxZones     int        `json:"max_vrz_zones" yaml:"max_zones"`

	SwingLeftBars  int `json:"swing_left_bars" yaml:"swing_left_bars"`
	SwingRightBars int `json:"swing_right_bars" yaml:"swing_right_bars"`

	// risk sizing from wallet balance, 0 = fixed LotSize
	RiskPct          float64 `json:"risk_pct" yaml:"risk_pct"`
	MaxOpenPositions int     `json:"max_open_positions" yaml:"max_open_positions"`
}

func DefaultTradingSettings() TradingSettings {
	return TradingSettings{
		AssetMode:        AssetsIndividual,
		BaseTimeframe:    "auto",
		TradingTimeframe: "15m",
		LotSize:          1,
		StopLossPips:     10,
		TargetType:       TargetRR,
		TargetLevels:     []float64{1.5, 2.0, 2.5},
		OrderType:        OrderMarket,
		MaxZones:         3,
		SwingLeftBars:    3,
		SwingRightBars:   3,
		MaxOpenPositions: 10,
	}
}

// WithDefaults fills zero values from def.
func (ts TradingSettings) WithDefaults(def TradingSettings) TradingSettings {
	if ts.AssetMode == "" {
		ts.AssetMode = def.AssetMode
	}
	if ts.BaseTimeframe == "" {
		ts.BaseTimeframe = def.BaseTimeframe
	}
	if ts.TradingTimeframe == "" {
		ts.TradingTimeframe = def.TradingTimeframe
	}
	if ts.LotSize <= 0 {
		ts.LotSize = def.LotSize
	}
	if ts.StopLossPips <= 0 {
		ts.StopLossPips = def.StopLossPips
	}
	if ts.TargetType == "" {
		ts.TargetType = def.TargetType
	}
	if len(ts.TargetLevels) == 0 {
		ts.TargetLevels = append([]float64(nil), def.TargetLevels...)
	}
	if ts.OrderType == "" {
		ts.OrderType = def.OrderType
	}
	if ts.MaxZones <= 0 {
		ts.MaxZones = def.MaxZones
	}
	if ts.SwingLeftBars <= 0 {
		ts.SwingLeftBars = def.SwingLeftBars
	}
	if ts.SwingRightBars <= 0 {
		ts.SwingRightBars = def.SwingRightBars
	}
	if ts.RiskPct <= 0 {
		ts.RiskPct = def.RiskPct
	}
	if ts.MaxOpenPositions <= 0 {
		ts.MaxOpenPositions = def.MaxOpenPositions
	}
	return ts
}
