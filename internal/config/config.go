// Package config loads jammy settings from defaults, an optional TOML file
// and the environment, in that order.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration.
type Config struct {
	Server   ServerConfig   `toml:"server"`
	Database DatabaseConfig `toml:"database"`
	Spotify  SpotifyConfig  `toml:"spotify"`
	LastFM   LastFMConfig   `toml:"lastfm"`
	Redis    RedisConfig    `toml:"redis"`
	Log      LogConfig      `toml:"log"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Addr            string `toml:"addr"`
	ShutdownTimeout string `toml:"shutdown_timeout"`
}

// DatabaseConfig selects the song store. URL wins over SQLitePath.
type DatabaseConfig struct {
	URL        string `toml:"url"`
	SQLitePath string `toml:"sqlite_path"`
}

// SpotifyConfig contains Spotify app credentials.
type SpotifyConfig struct {
	ClientID     string `toml:"client_id"`
	ClientSecret string `toml:"client_secret"`
}

// LastFMConfig contains Last.fm API settings.
type LastFMConfig struct {
	APIKey            string  `toml:"api_key"`
	RequestsPerSecond float64 `toml:"requests_per_second"`
	CacheTTL          string  `toml:"cache_ttl"`
}

// RedisConfig enables the shared Last.fm response cache.
type RedisConfig struct {
	Addr string `toml:"addr"`
}

// LogConfig sets the log level.
type LogConfig struct {
	Level string `toml:"level"`
}

// envOverrides maps environment variables onto config fields.
var envOverrides = []struct {
	name  string
	field func(*Config) *string
}{
	{"JAMMY_ADDR", func(c *Config) *string { return &c.Server.Addr }},
	{"DATABASE_URL", func(c *Config) *string { return &c.Database.URL }},
	{"JAMMY_SQLITE_PATH", func(c *Config) *string { return &c.Database.SQLitePath }},
	{"SPOTIFY_CLIENT_ID", func(c *Config) *string { return &c.Spotify.ClientID }},
	{"SPOTIFY_CLIENT_SECRET", func(c *Config) *string { return &c.Spotify.ClientSecret }},
	{"LASTFM_API_KEY", func(c *Config) *string { return &c.LastFM.APIKey }},
	{"REDIS_ADDR", func(c *Config) *string { return &c.Redis.Addr }},
	{"LOG_LEVEL", func(c *Config) *string { return &c.Log.Level }},
}

// DefaultConfig returns a Config with defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// Load builds the configuration. path may be empty, in which case only
// defaults and the environment apply. Missing credentials are not an
// error; the features that need them report that they are not configured.
func Load(path string) (*Config, error) {
	config := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	for _, o := range envOverrides {
		if v, ok := os.LookupEnv(o.name); ok && v != "" {
			*o.field(config) = v
		}
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// Validate checks values that cannot be defaulted.
func (c *Config) Validate() error {
	if c.Server.Addr == "" {
		return errors.New("server.addr is required")
	}
	if c.Database.URL == "" && c.Database.SQLitePath == "" {
		return errors.New("one of database.url or database.sqlite_path is required")
	}
	if _, err := c.ShutdownTimeout(); err != nil {
		return err
	}
	if _, err := c.CacheTTL(); err != nil {
		return err
	}
	return nil
}

// ShutdownTimeout returns the graceful shutdown limit.
func (c *Config) ShutdownTimeout() (time.Duration, error) {
	return parseDuration("server.shutdown_timeout", c.Server.ShutdownTimeout, 10*time.Second)
}

// CacheTTL returns how long Last.fm responses are cached.
func (c *Config) CacheTTL() (time.Duration, error) {
	return parseDuration("lastfm.cache_ttl", c.LastFM.CacheTTL, time.Hour)
}

func parseDuration(name, value string, fallback time.Duration) (time.Duration, error) {
	if value == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", name, value, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("invalid %s %q: must be positive", name, value)
	}
	return d, nil
}

// CreateConfigFile writes the example config to path. It refuses to
// overwrite an existing file.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.WriteFile(path, exampleConf, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
