package config

import (
	"errors"
	"strings"

	"github.com/BurntSushi/toml"
)

type Config struct {
	App struct {
		LogLevel            string `toml:"log_level"`
		CheckEveryMin       int    `toml:"check_every_min"`
		CatalogRefreshHours int    `toml:"catalog_refresh_hours"`
	} `toml:"app"`

	Oracle struct {
		BaseURL    string `toml:"base_url"`
		TimeoutSec int    `toml:"timeout_sec"`
	} `toml:"oracle"`

	Storage struct {
		Driver string `toml:"driver"` // "sqlite" or "postgres"
		Path   string `toml:"path"`   // sqlite file
		DSN    string `toml:"dsn"`    // postgres connection string
	} `toml:"storage"`

	Redis struct {
		Enabled     bool   `toml:"enabled"`
		Addr        string `toml:"addr"`
		DB          int    `toml:"db"`
		QuoteTTLSec int    `toml:"quote_ttl_sec"`
		Channel     string `toml:"channel"`
	} `toml:"redis"`

	Notify struct {
		WebhookURL string `toml:"webhook_url"`
		TimeoutSec int    `toml:"timeout_sec"`
	} `toml:"notify"`

	Server struct {
		Enabled bool   `toml:"enabled"`
		Addr    string `toml:"addr"`
	} `toml:"server"`
}

func Load(path string) (*Config, error) {
	var cfg Config
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, err
	}
	applyDefaults(&cfg)
	if err := validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.App.LogLevel == "" {
		cfg.App.LogLevel = "info"
	}
	if cfg.App.CheckEveryMin <= 0 {
		cfg.App.CheckEveryMin = 5
	}
	if cfg.App.CatalogRefreshHours <= 0 {
		cfg.App.CatalogRefreshHours = 24
	}
	if cfg.Oracle.BaseURL == "" {
		cfg.Oracle.BaseURL = "https://api.coingecko.com/api/v3"
	}
	if cfg.Oracle.TimeoutSec <= 0 {
		cfg.Oracle.TimeoutSec = 10
	}
	if cfg.Storage.Driver == "" {
		cfg.Storage.Driver = "sqlite"
	}
	if cfg.Storage.Path == "" {
		cfg.Storage.Path = "data/coinsentry.db"
	}
	if cfg.Redis.Addr == "" {
		cfg.Redis.Addr = "localhost:6379"
	}
	if cfg.Redis.QuoteTTLSec <= 0 {
		cfg.Redis.QuoteTTLSec = 60
	}
	if cfg.Redis.Channel == "" {
		cfg.Redis.Channel = "coinsentry:alerts"
	}
	if cfg.Notify.TimeoutSec <= 0 {
		cfg.Notify.TimeoutSec = 10
	}
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = ":8080"
	}
}

func validate(cfg *Config) error {
	switch strings.ToLower(strings.TrimSpace(cfg.Storage.Driver)) {
	case "sqlite":
	case "postgres":
		if strings.TrimSpace(cfg.Storage.DSN) == "" {
			return errors.New("storage.dsn empty but driver is postgres")
		}
	default:
		return errors.New("storage.driver must be sqlite or postgres")
	}
	return nil
}
