package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"market-keeper-go/infrastructure/logger"
)

// AppConfig holds the main runtime configuration.
type AppConfig struct {
	Env    string        `yaml:"env"`
	Pair   PairConfig    `yaml:"pair"`
	Venue  VenueConfig   `yaml:"venue"`
	Feed   FeedConfig    `yaml:"feed"`
	Keeper KeeperConfig  `yaml:"keeper"`
	Log    logger.Config `yaml:"log"`
}

type PairConfig struct {
	Base  string `yaml:"base"`
	Quote string `yaml:"quote"`
}

type VenueConfig struct {
	BaseURL   string  `yaml:"baseURL"`
	APIKey    string  `yaml:"apiKey"`
	APISecret string  `yaml:"apiSecret"`
	Account   string  `yaml:"account"`   // 订单归属账户，用于过滤自有订单
	RateLimit float64 `yaml:"rateLimit"` // REST 限流：每秒令牌数
	RateBurst int     `yaml:"rateBurst"` // REST 限流：最大突发令牌数
}

type FeedConfig struct {
	URL          string `yaml:"url"`
	StaleAfterMs int    `yaml:"staleAfterMs"` // 超过该时长未更新视为价格不可用
}

type KeeperConfig struct {
	BandsFile      string `yaml:"bandsFile"`
	RoundPlaces    int    `yaml:"roundPlaces"`    // 补单价格保留的小数位
	TickIntervalMs int    `yaml:"tickIntervalMs"` // 对账周期（毫秒）
	MetricsAddr    string `yaml:"metricsAddr"`    // 留空则关闭
}

// Load reads YAML config from path and applies basic validation.
func Load(path string) (AppConfig, error) {
	cfg, err := parse(path)
	if err != nil {
		return cfg, err
	}
	return cfg, Validate(cfg)
}

// LoadWithEnvOverrides 先应用环境变量覆盖再做校验，
// 因此配置文件里的 apiKey/apiSecret 允许留空。
func LoadWithEnvOverrides(path string) (AppConfig, error) {
	cfg, err := parse(path)
	if err != nil {
		return cfg, err
	}
	if v := os.Getenv("MK_VENUE_API_KEY"); v != "" {
		cfg.Venue.APIKey = v
	}
	if v := os.Getenv("MK_VENUE_API_SECRET"); v != "" {
		cfg.Venue.APISecret = v
	}
	return cfg, Validate(cfg)
}

func parse(path string) (AppConfig, error) {
	var cfg AppConfig
	raw, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return cfg, fmt.Errorf("parse yaml: %w", err)
	}
	return cfg, nil
}

// Validate ensures required fields are present.
func Validate(cfg AppConfig) error {
	if cfg.Env == "" {
		return errors.New("env is required")
	}
	if cfg.Pair.Base == "" || cfg.Pair.Quote == "" {
		return errors.New("pair.base/pair.quote is required")
	}
	if cfg.Pair.Base == cfg.Pair.Quote {
		return errors.New("pair.base and pair.quote must differ")
	}
	if cfg.Venue.BaseURL == "" {
		return errors.New("venue.baseURL is required")
	}
	if cfg.Venue.APIKey == "" || cfg.Venue.APISecret == "" {
		return errors.New("venue.apiKey/apiSecret is required (or env overrides)")
	}
	if cfg.Venue.Account == "" {
		return errors.New("venue.account is required")
	}
	if cfg.Venue.RateLimit < 0 {
		return errors.New("venue.rateLimit must be >= 0")
	}
	if cfg.Feed.URL == "" {
		return errors.New("feed.url is required")
	}
	if cfg.Feed.StaleAfterMs < 0 {
		return errors.New("feed.staleAfterMs must be >= 0")
	}
	if cfg.Keeper.BandsFile == "" {
		return errors.New("keeper.bandsFile is required")
	}
	if cfg.Keeper.RoundPlaces < 0 {
		return errors.New("keeper.roundPlaces must be >= 0")
	}
	if cfg.Keeper.TickIntervalMs < 0 {
		return errors.New("keeper.tickIntervalMs must be >= 0")
	}
	return nil
}
