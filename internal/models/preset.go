package models

type Preset struct {
	Name        string
	Description string
	Apply       func(ts *TradingSettings)
}

// Presets can be referenced from the users section of the config.
var Presets = map[string]Preset{
	"safe": {
		Name:        "Conservative",
		Description: "Wide stop, early partials, fixed lot",
		Apply: func(ts *TradingSettings) {
			ts.StopLossPips = 10
			ts.TargetType = TargetRR
			ts.TargetLevels = []float64{1.5, 2.0}
			ts.MaxZones = 2
			ts.RiskPct = 0
		},
	},
	"mid": {
		Name:        "Balanced",
		Description: "Three RR targets, 1% risk per trade",
		Apply: func(ts *TradingSettings) {
			ts.StopLossPips = 10
			ts.TargetType = TargetRR
			ts.TargetLevels = []float64{1.5, 2.0, 2.5}
			ts.MaxZones = 3
			ts.RiskPct = 1.0
		},
	},
	"aggr": {
		Name:        "Aggressive",
		Description: "Tight stop, zone targets, 2% risk per trade",
		Apply: func(ts *TradingSettings) {
			ts.StopLossPips = 5
			ts.TargetType = TargetZone
			ts.MaxZones = 4
			ts.RiskPct = 2.0
		},
	},
}
