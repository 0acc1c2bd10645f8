package config

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v2"

	"vrz_bot/internal/models"
)

const (
	configFilePathENV = "CONFIG_FILE"
	tokenTelegramENV  = "TELEGRAM_TOKEN"
	databaseDSN       = "DATABASE_DSN"
	deltaAPIKeyENV    = "DELTA_API_KEY"
	deltaAPISecretENV = "DELTA_API_SECRET"
	redisAddrENV      = "REDIS_ADDR"
)

// UserSeed is written to the user store at boot.
type UserSeed struct {
	UserID   int64                  `yaml:"user_id"`
	Name     string                 `yaml:"name"`
	Active   bool                   `yaml:"active"`
	Preset   string                 `yaml:"preset"`
	Settings models.TradingSettings `yaml:"settings"`
}

// Config ...
type Config struct {
	LogLevel string `yaml:"log_level"`

	Telegram struct {
		Token  string `yaml:"token"`
		ChatID int64  `yaml:"chat_id"` // service channel, 0 = per-user chats only
	} `yaml:"telegram"`
	DB      string `yaml:"db_dsn"`
	Service struct {
		Host string `yaml:"host"`
		Port int    `yaml:"port"`
	} `yaml:"service"`

	Delta struct {
		BaseURL     string        `yaml:"base_url"`
		WSURL       string        `yaml:"ws_url"`
		APIKey      string        `yaml:"api_key"`
		APISecret   string        `yaml:"api_secret"`
		Timeout     time.Duration `yaml:"timeout"`
		SettleAsset string        `yaml:"settle_asset"` // wallet asset used for risk sizing
	} `yaml:"delta"`

	Redis struct {
		Addr      string        `yaml:"addr"`
		Password  string        `yaml:"password"`
		DB        int           `yaml:"db"`
		CandleTTL time.Duration `yaml:"candle_ttl"`
	} `yaml:"redis"`

	Journal struct {
		Path string `yaml:"path"`
	} `yaml:"journal"`

	Tracing struct {
		Enabled    bool    `yaml:"enabled"`
		Host       string  `yaml:"host"`
		Port       int     `yaml:"port"`
		SampleRate float64 `yaml:"sample_rate"`
	} `yaml:"tracing"`

	Scan struct {
		Interval          time.Duration `yaml:"interval"`
		ReconcileInterval time.Duration `yaml:"reconcile_interval"`
		UserConcurrency   int           `yaml:"user_concurrency"`
		AssetConcurrency  int           `yaml:"asset_concurrency"`
		MaintenanceCron   string        `yaml:"maintenance_cron"`
		ReportCron        string        `yaml:"report_cron"`
		DryRun            bool          `yaml:"dry_run"`
		EntryTimeout      time.Duration `yaml:"entry_timeout"`
	} `yaml:"scan"`

	Risk struct {
		MinRR     float64 `yaml:"min_rr"`
		ExitBasis string  `yaml:"exit_basis"` // original | remaining
	} `yaml:"risk"`

	Zones struct {
		BufferPct     float64 `yaml:"buffer_pct"`
		ProximityPct  float64 `yaml:"proximity_pct"`
		RetentionDays int     `yaml:"retention_days"`
		BaseBars      int     `yaml:"base_bars"`
	} `yaml:"zones"`

	TradeRetentionDays int `yaml:"trade_retention_days"`
	TopMoversLimit     int `yaml:"top_movers_limit"`

	Defaults models.TradingSettings `yaml:"defaults"`
	Users    []UserSeed             `yaml:"users"`
}

func NewConfig() (*Config, error) {
	_ = godotenv.Load()

	configFileName := os.Getenv(configFilePathENV)
	if configFileName == "" {
		configFileName = "values_local.yaml"
	}
	file, err := os.Open("configs/" + configFileName)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}

	defer func() {
		_ = file.Close()
	}()

	return Decode(file)
}

// Decode reads YAML over the defaults and then applies env overrides.
func Decode(r io.Reader) (*Config, error) {
	config := defaults()

	if err := yaml.NewDecoder(r).Decode(&config); err != nil && err != io.EOF {
		return nil, fmt.Errorf("failed to decode config file: %w", err)
	}

	applyEnv(&config)
	config.Defaults = config.Defaults.WithDefaults(models.DefaultTradingSettings())

	if err := config.validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

// SeedSettings resolves the preset first so explicit settings win over it.
func (c *Config) SeedSettings(seed UserSeed) models.TradingSettings {
	st := seed.Settings
	if p, ok := models.Presets[seed.Preset]; ok {
		base := c.Defaults
		base.TargetLevels = append([]float64(nil), c.Defaults.TargetLevels...)
		p.Apply(&base)
		return st.WithDefaults(base)
	}
	return st.WithDefaults(c.Defaults)
}

func (c *Config) ZoneRetention() time.Duration {
	return time.Duration(c.Zones.RetentionDays) * 24 * time.Hour
}

func (c *Config) TradeRetention() time.Duration {
	return time.Duration(c.TradeRetentionDays) * 24 * time.Hour
}

func (c *Config) HTTPAddr() string {
	return fmt.Sprintf("%s:%d", c.Service.Host, c.Service.Port)
}

func defaults() Config {
	var c Config

	c.LogLevel = getenvDefault("LOG_LEVEL", "info")
	c.Service.Host = "0.0.0.0"
	c.Service.Port = intFromEnv("SERVICE_PORT", 10000)

	c.Delta.BaseURL = getenvDefault("DELTA_BASE_URL", "https://api.india.delta.exchange")
	c.Delta.WSURL = getenvDefault("DELTA_WS_URL", "wss://socket.india.delta.exchange")
	c.Delta.Timeout = durationFromEnv("DELTA_TIMEOUT", "10s")
	c.Delta.SettleAsset = getenvDefault("DELTA_SETTLE_ASSET", "USD")

	c.Redis.CandleTTL = durationFromEnv("REDIS_CANDLE_TTL", "30s")

	c.Tracing.Host = "localhost"
	c.Tracing.Port = 6831

	c.Scan.Interval = durationFromEnv("SCAN_INTERVAL", "60s")
	c.Scan.ReconcileInterval = durationFromEnv("RECONCILE_INTERVAL", "5m")
	c.Scan.UserConcurrency = intFromEnv("SCAN_USER_CONCURRENCY", 4)
	c.Scan.AssetConcurrency = intFromEnv("SCAN_ASSET_CONCURRENCY", 8)
	c.Scan.MaintenanceCron = getenvDefault("MAINTENANCE_CRON", "0 3 * * *")
	c.Scan.ReportCron = getenvDefault("REPORT_CRON", "0 0 * * *")
	c.Scan.DryRun = boolFromEnv("DRY_RUN", false)
	c.Scan.EntryTimeout = durationFromEnv("ENTRY_TIMEOUT", "15m")

	c.Risk.MinRR = floatFromEnv("MIN_RR", 1.5)
	c.Risk.ExitBasis = getenvDefault("EXIT_BASIS", "original")

	c.Zones.BufferPct = floatFromEnv("VRZ_BUFFER_PCT", 0.3)
	c.Zones.ProximityPct = floatFromEnv("VRZ_PROXIMITY_PCT", 0.5)
	c.Zones.RetentionDays = intFromEnv("VRZ_RETENTION_DAYS", 30)
	c.Zones.BaseBars = intFromEnv("VRZ_BASE_BARS", 150)

	c.TradeRetentionDays = intFromEnv("TRADE_RETENTION_DAYS", 90)
	c.TopMoversLimit = intFromEnv("TOP_MOVERS_LIMIT", 10)

	c.Defaults = models.DefaultTradingSettings()
	return c
}

func applyEnv(c *Config) {
	if token := os.Getenv(tokenTelegramENV); token != "" {
		c.Telegram.Token = token
	}
	if dsn := os.Getenv(databaseDSN); dsn != "" {
		c.DB = dsn
	}
	if key := os.Getenv(deltaAPIKeyENV); key != "" {
		c.Delta.APIKey = key
	}
	if secret := os.Getenv(deltaAPISecretENV); secret != "" {
		c.Delta.APISecret = secret
	}
	if addr := os.Getenv(redisAddrENV); addr != "" {
		c.Redis.Addr = addr
	}
}

func (c *Config) validate() error {
	if c.Scan.Interval <= 0 {
		return fmt.Errorf("scan.interval must be positive")
	}
	if c.Risk.MinRR <= 0 {
		return fmt.Errorf("risk.min_rr must be positive")
	}
	if c.Zones.BufferPct < 0 || c.Zones.ProximityPct < 0 {
		return fmt.Errorf("zones: negative percentages")
	}
	for _, u := range c.Users {
		if u.UserID == 0 {
			return fmt.Errorf("users: user_id is required")
		}
		if u.Preset != "" {
			if _, ok := models.Presets[u.Preset]; !ok {
				return fmt.Errorf("users: unknown preset %q for %d", u.Preset, u.UserID)
			}
		}
	}
	return nil
}

func intFromEnv(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func floatFromEnv(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func boolFromEnv(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		if v == "1" || v == "true" || v == "TRUE" {
			return true
		}
		if v == "0" || v == "false" || v == "FALSE" {
			return false
		}
	}
	return def
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func durationFromEnv(key, def string) time.Duration {
	val := getenvDefault(key, def)
	d, err := time.ParseDuration(val)
	if err != nil {
		d, _ = time.ParseDuration(def)
	}
	return d
}
