package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"

	"herd-alerts/internal/logging"
)

// Config materialises application configuration.
type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Logging   logging.Config  `mapstructure:"logging"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Stream    StreamConfig    `mapstructure:"stream"`
	Alerts    AlertsConfig    `mapstructure:"alerts"`
	Catalog   CatalogConfig   `mapstructure:"catalog"`
	Events    EventsConfig    `mapstructure:"events"`
	Analytics AnalyticsConfig `mapstructure:"analytics"`
	Export    ExportConfig    `mapstructure:"export"`
}

// AppConfig general metadata.
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"`
}

// DatabaseConfig encapsulates PostgreSQL connectivity for the journal.
type DatabaseConfig struct {
	DSN             string        `mapstructure:"dsn"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// StreamConfig covers the push-channel subscription.
type StreamConfig struct {
	URL              string        `mapstructure:"url"`
	HandshakeTimeout time.Duration `mapstructure:"handshake_timeout"`
}

// AlertsConfig governs the alert lifecycle.
type AlertsConfig struct {
	TTL        time.Duration `mapstructure:"ttl"`
	ToastLimit int           `mapstructure:"toast_limit"`
}

// CatalogConfig locates the static product catalog.
type CatalogConfig struct {
	Path string `mapstructure:"path"`
}

// EventsConfig tunes interaction-event logging and forwarding.
type EventsConfig struct {
	CollectorURL   string        `mapstructure:"collector_url"`
	HistoryLimit   int           `mapstructure:"history_limit"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
}

// AnalyticsConfig covers the per-product analytics query endpoint.
type AnalyticsConfig struct {
	BaseURL        string        `mapstructure:"base_url"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
}

// ExportConfig sets CLI export behaviour.
type ExportConfig struct {
	MaxDataPoints int `mapstructure:"max_data_points"`
}

// Load builds configuration from file, environment, and defaults.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("HERDWATCH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	if err := readConfig(v); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, decodeHook()); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func readConfig(v *viper.Viper) error {
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "herdwatch")
	v.SetDefault("app.environment", "development")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	v.SetDefault("stream.url", "ws://localhost:8000/ws")
	v.SetDefault("stream.handshake_timeout", "10s")

	v.SetDefault("alerts.ttl", "5s")
	v.SetDefault("alerts.toast_limit", 5)

	v.SetDefault("catalog.path", "products.json")

	v.SetDefault("events.collector_url", "http://localhost:8000/event")
	v.SetDefault("events.history_limit", 10000)
	v.SetDefault("events.request_timeout", "10s")

	v.SetDefault("analytics.base_url", "http://localhost:8000")
	v.SetDefault("analytics.request_timeout", "10s")

	v.SetDefault("export.max_data_points", 100000)

	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", "30m")
}

func decodeHook() viper.DecoderConfigOption {
	return func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "mapstructure"
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		)
	}
}

// Validate performs basic sanity checks on the configuration values.
func (c *Config) Validate() error {
	if c.Stream.URL == "" {
		return fmt.Errorf("stream.url is required")
	}
	if c.Alerts.TTL <= 0 {
		return fmt.Errorf("alerts.ttl must be greater than zero")
	}
	if c.Alerts.ToastLimit <= 0 {
		return fmt.Errorf("alerts.toast_limit must be greater than zero")
	}
	if c.Events.HistoryLimit <= 0 {
		return fmt.Errorf("events.history_limit must be greater than zero")
	}
	if c.Export.MaxDataPoints <= 0 {
		return fmt.Errorf("export.max_data_points must be greater than zero")
	}
	return nil
}

// ResolveMaxPoints returns either the CLI override or config default.
func (c *Config) ResolveMaxPoints(override int) int {
	if override > 0 {
		return override
	}
	return c.Export.MaxDataPoints
}
