package store

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	NewsProviderNewsAPI    = "newsapi"
	NewsProviderGoogleNews = "googlenews"

	DefaultNewsAPIURL = "https://newsapi.org/v2/everything"
)

type Config struct {
	Env    string `yaml:"env"`
	Server struct {
		Addr             string   `yaml:"addr"`
		CORSAllowOrigins []string `yaml:"cors_allow_origins"`
	} `yaml:"server"`
	Scheduler struct {
		Enabled            *bool `yaml:"enabled"`
		IntervalSeconds    int   `yaml:"interval_seconds"`
		StopTimeoutSeconds int   `yaml:"stop_timeout_seconds"`
	} `yaml:"scheduler"`
	Database struct {
		Path string `yaml:"path"`
	} `yaml:"database"`
	Risk struct {
		MaxDailyLoss     float64  `yaml:"max_daily_loss"`
		MaxTradeRisk     float64  `yaml:"max_trade_risk"`
		DefaultTradeRisk *float64 `yaml:"default_trade_risk"`
	} `yaml:"risk"`
	Trading struct {
		Symbols      []string `yaml:"symbols"`
		PositionSize int      `yaml:"position_size"`
		Exchange     string   `yaml:"exchange"`
		Product      string   `yaml:"product"`
		Timezone     string   `yaml:"timezone"`
	} `yaml:"trading"`
	Zerodha struct {
		RedirectURL         string `yaml:"redirect_url"`
		OrderTimeoutSeconds int    `yaml:"order_timeout_seconds"`
		// Credentials are read from the environment only
		APIKey      string `yaml:"-"`
		APISecret   string `yaml:"-"`
		AccessToken string `yaml:"-"`
	} `yaml:"zerodha"`
	News struct {
		Provider       string `yaml:"provider"`
		Language       string `yaml:"language"`
		TimeoutSeconds int    `yaml:"timeout_seconds"`
		CacheMinutes   int    `yaml:"cache_minutes"`
		BaseURL        string `yaml:"base_url"`
		APIKey         string `yaml:"-"`
	} `yaml:"news"`
	TradeLog struct {
		Dir           string `yaml:"dir"`
		RetentionDays int    `yaml:"retention_days"`
	} `yaml:"tradelog"`
}

func (c *Config) Validate() error {
	if c.Server.Addr == "" {
		return errors.New("server.addr cannot be empty")
	}
	if c.Scheduler.IntervalSeconds <= 0 {
		return fmt.Errorf("scheduler.interval_seconds must be positive, got %d", c.Scheduler.IntervalSeconds)
	}
	if c.Database.Path == "" {
		return errors.New("database.path cannot be empty")
	}
	if c.Risk.MaxTradeRisk < 0 {
		return fmt.Errorf("risk.max_trade_risk must be >= 0, got %.2f", c.Risk.MaxTradeRisk)
	}
	if c.Trading.PositionSize < 1 {
		return fmt.Errorf("trading.position_size must be >= 1, got %d", c.Trading.PositionSize)
	}
	if _, err := time.LoadLocation(c.Trading.Timezone); err != nil {
		return fmt.Errorf("trading.timezone %q: %w", c.Trading.Timezone, err)
	}
	if c.News.Provider != NewsProviderNewsAPI && c.News.Provider != NewsProviderGoogleNews {
		return fmt.Errorf("news.provider must be '%s' or '%s', got '%s'",
			NewsProviderNewsAPI, NewsProviderGoogleNews, c.News.Provider)
	}
	return nil
}

// LoadConfig reads the YAML file at path, applies defaults and environment
// overrides, and validates the result. A missing file yields the defaults.
func LoadConfig(path string) (*Config, error) {
	c := baseConfig()
	b, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(b, &c); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return nil, err
	}

	c.applyEnv()
	c.applyDefaults()

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &c, nil
}

// DefaultConfig returns the configuration used when no file or env is present.
func DefaultConfig() *Config {
	c := baseConfig()
	c.applyDefaults()
	return &c
}

// baseConfig presets the fields where zero is a meaningful setting, so an
// explicit 0 from YAML or env survives applyDefaults.
func baseConfig() Config {
	var c Config
	c.Risk.MaxDailyLoss = 1000
	c.Risk.MaxTradeRisk = 250
	return c
}

func (c *Config) applyDefaults() {
	if c.Env == "" {
		c.Env = "development"
	}
	if c.Server.Addr == "" {
		c.Server.Addr = ":3001"
	}
	if len(c.Server.CORSAllowOrigins) == 0 {
		c.Server.CORSAllowOrigins = []string{"*"}
	}
	if c.Scheduler.Enabled == nil {
		enabled := true
		c.Scheduler.Enabled = &enabled
	}
	if c.Scheduler.IntervalSeconds == 0 {
		c.Scheduler.IntervalSeconds = 300
	}
	if c.Scheduler.StopTimeoutSeconds == 0 {
		c.Scheduler.StopTimeoutSeconds = 5
	}
	if c.Database.Path == "" {
		c.Database.Path = "trading_bot.db"
	}
	if c.Risk.DefaultTradeRisk == nil {
		d := c.Risk.MaxTradeRisk
		c.Risk.DefaultTradeRisk = &d
	}
	if c.Trading.Symbols == nil {
		c.Trading.Symbols = []string{"NIFTY", "BANKNIFTY"}
	}
	if c.Trading.PositionSize == 0 {
		c.Trading.PositionSize = 1
	}
	if c.Trading.Exchange == "" {
		c.Trading.Exchange = "NFO"
	}
	if c.Trading.Product == "" {
		c.Trading.Product = "NRML"
	}
	if c.Trading.Timezone == "" {
		c.Trading.Timezone = "UTC"
	}
	if c.Zerodha.OrderTimeoutSeconds == 0 {
		c.Zerodha.OrderTimeoutSeconds = 10
	}
	if c.News.Provider == "" {
		c.News.Provider = NewsProviderNewsAPI
	}
	if c.News.Language == "" {
		c.News.Language = "en"
	}
	if c.News.TimeoutSeconds == 0 {
		c.News.TimeoutSeconds = 10
	}
	if c.News.CacheMinutes == 0 {
		c.News.CacheMinutes = 10
	}
	if c.News.BaseURL == "" {
		c.News.BaseURL = DefaultNewsAPIURL
	}
	if c.TradeLog.Dir == "" {
		c.TradeLog.Dir = "logs"
	}
}

func (c *Config) applyEnv() {
	if v := os.Getenv("ENV"); v != "" {
		c.Env = v
	}
	if v := os.Getenv("SERVER_ADDR"); v != "" {
		c.Server.Addr = v
	}
	if v := os.Getenv("CORS_ALLOW_ORIGINS"); v != "" {
		c.Server.CORSAllowOrigins = splitCSV(v)
	}
	if v, err := strconv.ParseBool(os.Getenv("SCHEDULER_ENABLED")); err == nil {
		c.Scheduler.Enabled = &v
	}
	if v, err := strconv.Atoi(os.Getenv("SCHEDULER_INTERVAL_SECONDS")); err == nil {
		c.Scheduler.IntervalSeconds = v
	}
	if v := os.Getenv("DB_PATH"); v != "" {
		c.Database.Path = v
	}
	if v, err := strconv.ParseFloat(os.Getenv("MAX_DAILY_LOSS"), 64); err == nil {
		c.Risk.MaxDailyLoss = v
	}
	if v, err := strconv.ParseFloat(os.Getenv("MAX_TRADE_RISK"), 64); err == nil {
		c.Risk.MaxTradeRisk = v
	}
	if v, err := strconv.Atoi(os.Getenv("POSITION_SIZE")); err == nil {
		c.Trading.PositionSize = v
	}
	if v := os.Getenv("SYMBOLS"); v != "" {
		c.Trading.Symbols = splitCSV(v)
	}
	c.Zerodha.APIKey = os.Getenv("ZERODHA_API_KEY")
	c.Zerodha.APISecret = os.Getenv("ZERODHA_API_SECRET")
	c.Zerodha.AccessToken = os.Getenv("ZERODHA_ACCESS_TOKEN")
	c.News.APIKey = os.Getenv("NEWSAPI_KEY")
}

func splitCSV(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func (c *Config) SchedulerEnabled() bool {
	return c.Scheduler.Enabled == nil || *c.Scheduler.Enabled
}

func (c *Config) Interval() time.Duration {
	return time.Duration(c.Scheduler.IntervalSeconds) * time.Second
}

func (c *Config) StopTimeout() time.Duration {
	return time.Duration(c.Scheduler.StopTimeoutSeconds) * time.Second
}

// Location returns the trading timezone; Validate guarantees it loads.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Trading.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// Summary returns the non-secret settings exposed by the health endpoint.
func (c *Config) Summary() map[string]any {
	return map[string]any{
		"env":                c.Env,
		"cors_allow_origins": c.Server.CORSAllowOrigins,
		"scheduler_enabled":  c.SchedulerEnabled(),
		"scheduler_interval": c.Scheduler.IntervalSeconds,
		"max_daily_loss":     c.Risk.MaxDailyLoss,
		"max_trade_risk":     c.Risk.MaxTradeRisk,
		"symbols":            c.Trading.Symbols,
		"position_size":      c.Trading.PositionSize,
		"news_provider":      c.News.Provider,
		"zerodha_configured": c.Zerodha.APIKey != "" && c.Zerodha.APISecret != "" && c.Zerodha.AccessToken != "",
	}
}
