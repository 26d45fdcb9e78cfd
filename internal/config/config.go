// Package config loads application settings from a YAML file with
// environment variable overrides.
package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config holds all application configuration.
type Config struct {
	Listings struct {
		BaseURL     string `yaml:"base_url"`
		ZipCode     string `yaml:"zip_code"`
		RadiusMiles int    `yaml:"radius_miles"`
		CachePath   string `yaml:"cache_path"`
		CacheTTL    string `yaml:"cache_ttl"`
	} `yaml:"listings"`
	Providers struct {
		VINDecodeURL string `yaml:"vin_decode_url"`
		APIKey       string `yaml:"api_key"`
	} `yaml:"providers"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path"`
		Enabled    bool   `yaml:"enabled"`
	} `yaml:"database"`
	Schedule struct {
		WatchCron string `yaml:"watch_cron"`
	} `yaml:"schedule"`
	RateLimit struct {
		RequestsPerMinute int `yaml:"requests_per_minute"`
	} `yaml:"rate_limit"`
	Proxy string `yaml:"proxy"`
}

// Load reads config from a YAML file, then applies environment
// variable overrides. A missing file is not an error; overrides and
// defaults still apply.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// Environment variable overrides
	if v := os.Getenv("DEALERVAL_LISTINGS_URL"); v != "" {
		cfg.Listings.BaseURL = v
	}
	if v := os.Getenv("DEALERVAL_ZIP"); v != "" {
		cfg.Listings.ZipCode = v
	}
	if v := os.Getenv("DEALERVAL_RADIUS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Listings.RadiusMiles = n
		}
	}
	if v := os.Getenv("DEALERVAL_API_KEY"); v != "" {
		cfg.Providers.APIKey = v
	}
	if v := os.Getenv("DEALERVAL_VIN_DECODE_URL"); v != "" {
		cfg.Providers.VINDecodeURL = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Database.SQLitePath = v
		cfg.Database.Enabled = true
	}
	if v := os.Getenv("DEALERVAL_WATCH_CRON"); v != "" {
		cfg.Schedule.WatchCron = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		cfg.Proxy = v
	}

	// Defaults
	if cfg.Listings.RadiusMiles == 0 {
		cfg.Listings.RadiusMiles = 100
	}
	if cfg.Listings.CachePath == "" {
		cfg.Listings.CachePath = "data/listings_cache.json"
	}
	if cfg.Listings.CacheTTL == "" {
		cfg.Listings.CacheTTL = "6h"
	}
	if cfg.Database.SQLitePath == "" {
		cfg.Database.SQLitePath = "data/valuations.db"
	}
	if cfg.Schedule.WatchCron == "" {
		cfg.Schedule.WatchCron = "0 0 7 * * *"
	}
	if cfg.RateLimit.RequestsPerMinute == 0 {
		cfg.RateLimit.RequestsPerMinute = 10
	}

	return cfg, nil
}

// Validate checks that fields needed for live lookups are set. A
// config used only with pre-assembled bundle files passes with
// everything blank.
func (c *Config) Validate() error {
	if c.Listings.RadiusMiles < 0 {
		return fmt.Errorf("listings.radius_miles must not be negative")
	}
	if c.RateLimit.RequestsPerMinute <= 0 {
		return fmt.Errorf("rate_limit.requests_per_minute must be positive")
	}
	if c.Listings.ZipCode != "" && len(c.Listings.ZipCode) != 5 {
		return fmt.Errorf("listings.zip_code must be a 5-digit zip")
	}
	return nil
}
