// Package config provides configuration management for the terminal client.
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Backend BackendConfig `mapstructure:"backend"`
	Cache   CacheConfig   `mapstructure:"cache"`
	Stream  StreamConfig  `mapstructure:"stream"`
	Chart   ChartConfig   `mapstructure:"chart"`
	UI      UIConfig      `mapstructure:"ui"`
	Alerts  AlertConfig   `mapstructure:"alerts"`
}

// BackendConfig holds backend connection configuration.
type BackendConfig struct {
	BaseURL       string        `mapstructure:"base_url"`
	WSURL         string        `mapstructure:"ws_url"` // derived from base_url when empty
	Timeout       time.Duration `mapstructure:"timeout"`
	RetryAttempts int           `mapstructure:"retry_attempts"`
}

// CacheConfig holds local cache configuration.
type CacheConfig struct {
	Enabled bool          `mapstructure:"enabled"`
	TTL     time.Duration `mapstructure:"ttl"`
	Path    string        `mapstructure:"path"` // default under the config dir when empty
}

// StreamConfig holds WebSocket stream configuration.
type StreamConfig struct {
	ReconnectBase time.Duration `mapstructure:"reconnect_base"`
	ReconnectMax  int           `mapstructure:"reconnect_max"` // 0 = retry forever
	PingInterval  time.Duration `mapstructure:"ping_interval"`
}

// ChartConfig holds chart rendering configuration.
type ChartConfig struct {
	Width    int      `mapstructure:"width"` // 0 = auto
	Height   int      `mapstructure:"height"`
	Overlays []string `mapstructure:"overlays"`
}

// UIConfig holds UI-related configuration.
type UIConfig struct {
	ColorEnabled bool   `mapstructure:"color_enabled"`
	DateFormat   string `mapstructure:"date_format"`
	TimeFormat   string `mapstructure:"time_format"`
}

// AlertConfig holds price alert configuration.
type AlertConfig struct {
	Enabled bool `mapstructure:"enabled"`
	Bell    bool `mapstructure:"bell"`
}

// DefaultConfigDir returns the default configuration directory.
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".config/starkterm"
	}
	return filepath.Join(home, ".config", "starkterm")
}

// Load loads configuration from the specified directory.
// If configDir is empty, uses the default config directory.
func Load(configDir string) (*Config, error) {
	if configDir == "" {
		configDir = DefaultConfigDir()
	}

	cfg := &Config{}

	if err := loadConfigFile(configDir, "config", cfg); err != nil {
		return nil, fmt.Errorf("loading config.toml: %w", err)
	}

	// Apply environment variable overrides
	applyEnvOverrides(cfg)

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

func loadConfigFile(configDir, name string, target interface{}) error {
	v := viper.New()
	v.SetConfigName(name)
	v.SetConfigType("toml")
	v.AddConfigPath(configDir)

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			// Config file not found, create template
			return createTemplateConfig(configDir, name)
		}
		return err
	}

	return v.Unmarshal(target)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("backend.base_url", "http://localhost:8000")
	v.SetDefault("backend.timeout", "10s")
	v.SetDefault("backend.retry_attempts", 3)
	v.SetDefault("cache.enabled", true)
	v.SetDefault("cache.ttl", "15m")
	v.SetDefault("stream.reconnect_base", "1s")
	v.SetDefault("stream.reconnect_max", 0)
	v.SetDefault("stream.ping_interval", "30s")
	v.SetDefault("chart.width", 0)
	v.SetDefault("chart.height", 20)
	v.SetDefault("chart.overlays", []string{"sma20", "sma50"})
	v.SetDefault("ui.color_enabled", true)
	v.SetDefault("ui.date_format", "02-Jan-2006")
	v.SetDefault("ui.time_format", "15:04:05")
	v.SetDefault("alerts.enabled", true)
	v.SetDefault("alerts.bell", true)
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("STARKTERM_BACKEND_URL"); v != "" {
		cfg.Backend.BaseURL = v
	}
	if v := os.Getenv("STARKTERM_WS_URL"); v != "" {
		cfg.Backend.WSURL = v
	}
	if v := os.Getenv("STARKTERM_CACHE_PATH"); v != "" {
		cfg.Cache.Path = v
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Backend.BaseURL == "" {
		return fmt.Errorf("backend base_url must not be empty")
	}
	u, err := url.Parse(c.Backend.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("invalid backend base_url: %s", c.Backend.BaseURL)
	}
	if c.Backend.Timeout <= 0 {
		return fmt.Errorf("backend timeout must be positive")
	}
	if c.Backend.RetryAttempts < 0 {
		return fmt.Errorf("backend retry_attempts must be non-negative")
	}
	if c.Cache.TTL < 0 {
		return fmt.Errorf("cache ttl must be non-negative")
	}
	if c.Stream.ReconnectBase <= 0 {
		return fmt.Errorf("stream reconnect_base must be positive")
	}
	if c.Chart.Height != 0 && (c.Chart.Height < 5 || c.Chart.Height > 100) {
		return fmt.Errorf("chart height must be between 5 and 100")
	}
	return nil
}

// WSBaseURL returns the WebSocket base URL, deriving it from the
// backend base URL when no explicit ws_url is configured.
func (c *Config) WSBaseURL() string {
	if c.Backend.WSURL != "" {
		return strings.TrimRight(c.Backend.WSURL, "/")
	}
	u := c.Backend.BaseURL
	switch {
	case strings.HasPrefix(u, "https://"):
		u = "wss://" + strings.TrimPrefix(u, "https://")
	case strings.HasPrefix(u, "http://"):
		u = "ws://" + strings.TrimPrefix(u, "http://")
	}
	return strings.TrimRight(u, "/")
}

// CachePath returns the SQLite cache path, defaulting under the config dir.
func (c *Config) CachePath() string {
	if c.Cache.Path != "" {
		return c.Cache.Path
	}
	return filepath.Join(DefaultConfigDir(), "starkterm.db")
}
