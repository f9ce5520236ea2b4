package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, "telegram:\n  enabled: false\n")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.Polymarket.DataAPIURL != "https://data-api.polymarket.com" {
		t.Errorf("DataAPIURL = %s", cfg.Polymarket.DataAPIURL)
	}
	if cfg.Polymarket.Timeout != 30*time.Second {
		t.Errorf("Timeout = %v, want 30s", cfg.Polymarket.Timeout)
	}
	if cfg.Scoring.Weights.Certainty != 0.25 {
		t.Errorf("Certainty weight = %v, want 0.25", cfg.Scoring.Weights.Certainty)
	}
	if cfg.Scoring.Freshness.CriticalGap != 2*time.Hour {
		t.Errorf("CriticalGap = %v, want 2h", cfg.Scoring.Freshness.CriticalGap)
	}
	if cfg.Scoring.Tiers.Critical != 0.85 {
		t.Errorf("Critical tier = %v, want 0.85", cfg.Scoring.Tiers.Critical)
	}
	if cfg.Storage.MaxReports != 10000 {
		t.Errorf("MaxReports = %d, want 10000", cfg.Storage.MaxReports)
	}
	if cfg.Logging.Level != "info" || cfg.Logging.Format != "json" {
		t.Errorf("Logging defaults = %s/%s", cfg.Logging.Level, cfg.Logging.Format)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Default config failed validation: %v", err)
	}
}

func TestLoadOverridesFromFile(t *testing.T) {
	path := writeConfig(t, `
polymarket:
  page_size: 250
scoring:
  weights:
    freshness: 0.20
    certainty: 0.20
  freshness:
    critical_gap: 1h
storage:
  db_path: "/tmp/override.db"
logging:
  level: debug
validation:
  insider_wallets: ["0xaaa", "0xbbb"]
  control_wallets: ["0xccc"]
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}
	if cfg.Polymarket.PageSize != 250 {
		t.Errorf("PageSize = %d, want 250", cfg.Polymarket.PageSize)
	}
	if cfg.Scoring.Weights.Freshness != 0.20 {
		t.Errorf("Freshness weight = %v, want 0.20", cfg.Scoring.Weights.Freshness)
	}
	if cfg.Scoring.Weights.Timing != 0.20 {
		t.Errorf("Timing weight default lost: %v", cfg.Scoring.Weights.Timing)
	}
	if cfg.Scoring.Freshness.CriticalGap != time.Hour {
		t.Errorf("CriticalGap = %v, want 1h", cfg.Scoring.Freshness.CriticalGap)
	}
	if cfg.Storage.DBPath != "/tmp/override.db" {
		t.Errorf("DBPath = %s", cfg.Storage.DBPath)
	}
	if len(cfg.Validation.InsiderWallets) != 2 || len(cfg.Validation.ControlWallets) != 1 {
		t.Errorf("Validation cohorts = %d/%d, want 2/1",
			len(cfg.Validation.InsiderWallets), len(cfg.Validation.ControlWallets))
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("Expected error for missing config file")
	}
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		path := writeConfig(t, "telegram:\n  enabled: false\n")
		cfg, err := Load(path)
		if err != nil {
			t.Fatalf("Failed to load config: %v", err)
		}
		return cfg
	}

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"missing data api url", func(c *Config) { c.Polymarket.DataAPIURL = "" }},
		{"missing gamma api url", func(c *Config) { c.Polymarket.GammaAPIURL = "" }},
		{"timeout too small", func(c *Config) { c.Polymarket.Timeout = 100 * time.Millisecond }},
		{"page size too large", func(c *Config) { c.Polymarket.PageSize = 1000 }},
		{"zero retries", func(c *Config) { c.Polymarket.MaxRetries = 0 }},
		{"zero rate limit", func(c *Config) { c.Polymarket.RequestsPerSecond = 0 }},
		{"empty db path", func(c *Config) { c.Storage.DBPath = "" }},
		{"zero report cap", func(c *Config) { c.Storage.MaxReports = 0 }},
		{"telegram enabled without token", func(c *Config) { c.Telegram.Enabled = true }},
		{"telegram bad min tier", func(c *Config) {
			c.Telegram.Enabled = true
			c.Telegram.BotToken = "token"
			c.Telegram.ChatID = "123"
			c.Telegram.MinTier = "SEVERE"
		}},
		{"bad log level", func(c *Config) { c.Logging.Level = "verbose" }},
		{"bad log format", func(c *Config) { c.Logging.Format = "xml" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("Expected validation error, got nil")
			}
		})
	}
}
