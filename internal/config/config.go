// Package config loads and validates the application configuration from a
// YAML file with environment variable overrides.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config represents the complete application configuration.
type Config struct {
	Polymarket PolymarketConfig `mapstructure:"polymarket"`
	Scoring    ScoringConfig    `mapstructure:"scoring"`
	Storage    StorageConfig    `mapstructure:"storage"`
	Telegram   TelegramConfig   `mapstructure:"telegram"`
	Logging    LoggingConfig    `mapstructure:"logging"`
	Validation ValidationConfig `mapstructure:"validation"`
}

// PolymarketConfig holds the activity feed and market catalog API settings.
type PolymarketConfig struct {
	DataAPIURL        string        `mapstructure:"data_api_url"`
	GammaAPIURL       string        `mapstructure:"gamma_api_url"`
	Timeout           time.Duration `mapstructure:"timeout"`
	PageSize          int           `mapstructure:"page_size"`
	MaxRetries        int           `mapstructure:"max_retries"`
	RetryDelayBase    time.Duration `mapstructure:"retry_delay_base"`
	RequestsPerSecond float64       `mapstructure:"requests_per_second"`
}

// ScoringConfig mirrors the detection engine's weights, tier thresholds, and
// band parameters. The engine revalidates it at construction time.
type ScoringConfig struct {
	Weights   WeightsConfig   `mapstructure:"weights"`
	Tiers     TiersConfig     `mapstructure:"tiers"`
	Freshness FreshnessConfig `mapstructure:"freshness"`
	Certainty CertaintyConfig `mapstructure:"certainty"`
	Timing    TimingConfig    `mapstructure:"timing"`
	Size      SizeConfig      `mapstructure:"size"`
	Surgical  SurgicalConfig  `mapstructure:"surgical"`
}

// WeightsConfig holds the per-signal composite weights (must sum to 1.0).
type WeightsConfig struct {
	Freshness float64 `mapstructure:"freshness"`
	Certainty float64 `mapstructure:"certainty"`
	Timing    float64 `mapstructure:"timing"`
	Focus     float64 `mapstructure:"focus"`
	Size      float64 `mapstructure:"size"`
	Surgical  float64 `mapstructure:"surgical"`
}

// TiersConfig holds the risk tier thresholds (strictly descending).
type TiersConfig struct {
	Critical float64 `mapstructure:"critical"`
	High     float64 `mapstructure:"high"`
	Medium   float64 `mapstructure:"medium"`
}

// FreshnessConfig holds the deposit-to-trade gap bands.
type FreshnessConfig struct {
	CriticalGap   time.Duration `mapstructure:"critical_gap"`
	SuspiciousGap time.Duration `mapstructure:"suspicious_gap"`
	ModerateGap   time.Duration `mapstructure:"moderate_gap"`
}

// CertaintyConfig holds the cheap long-shot entry parameters.
type CertaintyConfig struct {
	MinPrice       float64 `mapstructure:"min_price"`
	MaxPrice       float64 `mapstructure:"max_price"`
	MinPayoutRatio float64 `mapstructure:"min_payout_ratio"`
}

// TimingConfig holds the final-fraction-of-lifecycle bands.
type TimingConfig struct {
	CriticalPct   float64 `mapstructure:"critical_pct"`
	SuspiciousPct float64 `mapstructure:"suspicious_pct"`
	ModeratePct   float64 `mapstructure:"moderate_pct"`
}

// SizeConfig holds the single-market notional bands.
type SizeConfig struct {
	LargeUSD  float64 `mapstructure:"large_usd"`
	MediumUSD float64 `mapstructure:"medium_usd"`
	SmallUSD  float64 `mapstructure:"small_usd"`
}

// SurgicalConfig holds the fund→bet→win→exit pattern thresholds.
type SurgicalConfig struct {
	WithdrawPct    float64 `mapstructure:"withdraw_pct"`
	MinProfitRatio float64 `mapstructure:"min_profit_ratio"`
}

// StorageConfig holds persistence configuration.
type StorageConfig struct {
	DBPath     string `mapstructure:"db_path"`
	MaxReports int    `mapstructure:"max_reports"`
}

// TelegramConfig holds the high-risk report notifier configuration.
type TelegramConfig struct {
	BotToken       string        `mapstructure:"bot_token"`
	ChatID         string        `mapstructure:"chat_id"`
	Enabled        bool          `mapstructure:"enabled"`
	MinTier        string        `mapstructure:"min_tier"`
	MaxRetries     int           `mapstructure:"max_retries"`
	RetryDelayBase time.Duration `mapstructure:"retry_delay_base"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
}

// ValidationConfig holds the labeled wallet cohorts for the validation
// harness: confirmed insider wallets and an ordinary-trader control group.
type ValidationConfig struct {
	InsiderWallets []string `mapstructure:"insider_wallets"`
	ControlWallets []string `mapstructure:"control_wallets"`
}

// Load reads configuration from file and environment variables.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	setDefaults(v)

	v.SetEnvPrefix("INSIDER_DETECT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return &cfg, nil
}

// setDefaults configures default values for all configuration options.
func setDefaults(v *viper.Viper) {
	// Polymarket defaults
	v.SetDefault("polymarket.data_api_url", "https://data-api.polymarket.com")
	v.SetDefault("polymarket.gamma_api_url", "https://gamma-api.polymarket.com")
	v.SetDefault("polymarket.timeout", "30s")
	v.SetDefault("polymarket.page_size", 100)
	v.SetDefault("polymarket.max_retries", 3)
	v.SetDefault("polymarket.retry_delay_base", "1s")
	v.SetDefault("polymarket.requests_per_second", 5.0)

	// Scoring defaults (reference weights and bands)
	v.SetDefault("scoring.weights.freshness", 0.15)
	v.SetDefault("scoring.weights.certainty", 0.25)
	v.SetDefault("scoring.weights.timing", 0.20)
	v.SetDefault("scoring.weights.focus", 0.15)
	v.SetDefault("scoring.weights.size", 0.10)
	v.SetDefault("scoring.weights.surgical", 0.15)
	v.SetDefault("scoring.tiers.critical", 0.85)
	v.SetDefault("scoring.tiers.high", 0.70)
	v.SetDefault("scoring.tiers.medium", 0.50)
	v.SetDefault("scoring.freshness.critical_gap", "2h")
	v.SetDefault("scoring.freshness.suspicious_gap", "24h")
	v.SetDefault("scoring.freshness.moderate_gap", "168h")
	v.SetDefault("scoring.certainty.min_price", 0.05)
	v.SetDefault("scoring.certainty.max_price", 0.50)
	v.SetDefault("scoring.certainty.min_payout_ratio", 2.0)
	v.SetDefault("scoring.timing.critical_pct", 0.05)
	v.SetDefault("scoring.timing.suspicious_pct", 0.15)
	v.SetDefault("scoring.timing.moderate_pct", 0.30)
	v.SetDefault("scoring.size.large_usd", 10000.0)
	v.SetDefault("scoring.size.medium_usd", 5000.0)
	v.SetDefault("scoring.size.small_usd", 1000.0)
	v.SetDefault("scoring.surgical.withdraw_pct", 0.80)
	v.SetDefault("scoring.surgical.min_profit_ratio", 1.5)

	// Storage defaults
	v.SetDefault("storage.db_path", "./data/insider-detect.db")
	v.SetDefault("storage.max_reports", 10000)

	// Telegram defaults
	v.SetDefault("telegram.enabled", false)
	v.SetDefault("telegram.min_tier", "HIGH")
	v.SetDefault("telegram.max_retries", 3)
	v.SetDefault("telegram.retry_delay_base", "1s")

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.max_size_mb", 50)
	v.SetDefault("logging.max_backups", 3)
	v.SetDefault("logging.max_age_days", 14)
}

// Validate checks all non-scoring configuration values. Scoring parameters
// are validated by the detection engine at construction time; both run before
// any command executes.
func (c *Config) Validate() error {
	if c.Polymarket.DataAPIURL == "" {
		return fmt.Errorf("polymarket.data_api_url is required")
	}
	if c.Polymarket.GammaAPIURL == "" {
		return fmt.Errorf("polymarket.gamma_api_url is required")
	}
	if c.Polymarket.Timeout < time.Second {
		return fmt.Errorf("polymarket.timeout must be at least 1 second")
	}
	if c.Polymarket.PageSize < 1 || c.Polymarket.PageSize > 500 {
		return fmt.Errorf("polymarket.page_size must be between 1 and 500")
	}
	if c.Polymarket.MaxRetries < 1 {
		return fmt.Errorf("polymarket.max_retries must be at least 1")
	}
	if c.Polymarket.RequestsPerSecond <= 0 {
		return fmt.Errorf("polymarket.requests_per_second must be positive")
	}

	if c.Storage.DBPath == "" {
		return fmt.Errorf("storage.db_path is required")
	}
	if c.Storage.MaxReports < 1 {
		return fmt.Errorf("storage.max_reports must be at least 1")
	}

	if c.Telegram.Enabled {
		if c.Telegram.BotToken == "" {
			return fmt.Errorf("telegram.bot_token is required when telegram is enabled")
		}
		if c.Telegram.ChatID == "" {
			return fmt.Errorf("telegram.chat_id is required when telegram is enabled")
		}
		validTiers := map[string]bool{"LOW": true, "MEDIUM": true, "HIGH": true, "CRITICAL": true}
		if !validTiers[c.Telegram.MinTier] {
			return fmt.Errorf("telegram.min_tier must be one of: LOW, MEDIUM, HIGH, CRITICAL")
		}
	}

	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[c.Logging.Level] {
		return fmt.Errorf("logging.level must be one of: debug, info, warn, error")
	}
	validFormats := map[string]bool{"json": true, "text": true}
	if !validFormats[c.Logging.Format] {
		return fmt.Errorf("logging.format must be one of: json, text")
	}

	return nil
}
