package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Database struct {
		Path string `yaml:"path"`
	} `yaml:"database"`
	MarketData struct {
		BaseURL          string `yaml:"base_url"`
		TimeoutMs        int    `yaml:"timeout_ms"`
		MaxAttempts      int    `yaml:"max_attempts"`
		InitialBackoffMs int    `yaml:"initial_backoff_ms"`
	} `yaml:"market_data"`
	Enrichment struct {
		BatchSize         int `yaml:"batch_size"`
		BatchDelayMs      int `yaml:"batch_delay_ms"`
		MaxCoins          int `yaml:"max_coins"`
		StaleAfterMinutes int `yaml:"stale_after_minutes"`
	} `yaml:"enrichment"`
	Discovery struct {
		WSEndpoint string `yaml:"ws_endpoint"`
	} `yaml:"discovery"`
	Daemon struct {
		CronSpec string `yaml:"cron_spec"`
	} `yaml:"daemon"`
	Logging struct {
		Level string `yaml:"level"`
	} `yaml:"logging"`
}

// Default returns the configuration used when no file or key is provided.
func Default() *Config {
	var cfg Config
	cfg.Database.Path = "coins.db"
	cfg.MarketData.BaseURL = "https://api.dexscreener.com/latest/dex/tokens"
	cfg.MarketData.TimeoutMs = 12000
	cfg.MarketData.MaxAttempts = 3
	cfg.MarketData.InitialBackoffMs = 500
	cfg.Enrichment.BatchSize = 10
	cfg.Enrichment.BatchDelayMs = 1000
	cfg.Enrichment.MaxCoins = 100
	cfg.Enrichment.StaleAfterMinutes = 30
	cfg.Discovery.WSEndpoint = "wss://pumpportal.fun/api/data"
	cfg.Daemon.CronSpec = "0 */5 * * * *"
	cfg.Logging.Level = "info"
	return &cfg
}

// Load reads a YAML config file on top of the defaults.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	cfg := Default()
	decoder := yaml.NewDecoder(f)
	if err := decoder.Decode(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) HTTPTimeout() time.Duration {
	return time.Duration(c.MarketData.TimeoutMs) * time.Millisecond
}

func (c *Config) InitialBackoff() time.Duration {
	return time.Duration(c.MarketData.InitialBackoffMs) * time.Millisecond
}

func (c *Config) BatchDelay() time.Duration {
	return time.Duration(c.Enrichment.BatchDelayMs) * time.Millisecond
}

func (c *Config) StaleAfter() time.Duration {
	return time.Duration(c.Enrichment.StaleAfterMinutes) * time.Minute
}
