// Package config resolves server settings from defaults, an optional YAML
// file, a .env file and the process environment, in that order.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pfrederiksen/concert-server/internal/cache"
	"github.com/pfrederiksen/concert-server/internal/logger"
	"github.com/pfrederiksen/concert-server/internal/scraper"
	"gopkg.in/yaml.v3"
)

const DefaultPort = "4000"

type Server struct {
	Port            string        `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

type Upstream struct {
	ListingURL    string        `yaml:"listing_url"`
	TicketOpenURL string        `yaml:"ticket_open_url"`
	Timeout       time.Duration `yaml:"timeout"`
}

type Cache struct {
	TTL         time.Duration `yaml:"ttl"`
	SnapshotDir string        `yaml:"snapshot_dir"`
}

type Config struct {
	Server   Server   `yaml:"server"`
	Upstream Upstream `yaml:"upstream"`
	Cache    Cache    `yaml:"cache"`
	LogLevel string   `yaml:"log_level"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Server: Server{
			Port:            DefaultPort,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Upstream: Upstream{
			ListingURL:    scraper.ListingURL,
			TicketOpenURL: scraper.TicketOpenURL,
			Timeout:       scraper.Timeout,
		},
		Cache: Cache{
			TTL: cache.DefaultTTL,
		},
		LogLevel: "info",
	}
}

// Load builds a Config. path may be empty, in which case no file is read.
// A missing .env file is ignored.
func Load(path string) (Config, error) {
	c := Default()

	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(b, &c); err != nil {
			return Config{}, fmt.Errorf("parse yaml: %w", err)
		}
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		logger.Warn("Ignoring unreadable .env file", logger.Fields{"error": err.Error()})
	}

	c.applyEnv()
	c.fillDefaults()

	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

func (c *Config) applyEnv() {
	c.Server.Port = getString("PORT", c.Server.Port)
	c.LogLevel = getString("LOG_LEVEL", c.LogLevel)
	c.Cache.TTL = getDuration("CACHE_TTL", c.Cache.TTL)
	c.Cache.SnapshotDir = getString("SNAPSHOT_DIR", c.Cache.SnapshotDir)
	c.Upstream.Timeout = getDuration("UPSTREAM_TIMEOUT", c.Upstream.Timeout)
	c.Upstream.ListingURL = getString("LISTING_URL", c.Upstream.ListingURL)
	c.Upstream.TicketOpenURL = getString("TICKET_OPEN_URL", c.Upstream.TicketOpenURL)
}

// fillDefaults restores defaults for fields a YAML file zeroed out.
func (c *Config) fillDefaults() {
	d := Default()
	if c.Server.Port == "" {
		c.Server.Port = d.Server.Port
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = d.Server.ReadTimeout
	}
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = d.Server.WriteTimeout
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = d.Server.ShutdownTimeout
	}
	if c.Upstream.ListingURL == "" {
		c.Upstream.ListingURL = d.Upstream.ListingURL
	}
	if c.Upstream.TicketOpenURL == "" {
		c.Upstream.TicketOpenURL = d.Upstream.TicketOpenURL
	}
	if c.Upstream.Timeout == 0 {
		c.Upstream.Timeout = d.Upstream.Timeout
	}
	if c.Cache.TTL == 0 {
		c.Cache.TTL = d.Cache.TTL
	}
	if c.LogLevel == "" {
		c.LogLevel = d.LogLevel
	}
}

// Validate rejects settings the server cannot run with.
func (c Config) Validate() error {
	if _, err := strconv.Atoi(c.Server.Port); err != nil {
		return fmt.Errorf("invalid port %q", c.Server.Port)
	}
	if c.Cache.TTL < 0 {
		return fmt.Errorf("cache ttl must not be negative: %s", c.Cache.TTL)
	}
	if c.Upstream.Timeout < 0 {
		return fmt.Errorf("upstream timeout must not be negative: %s", c.Upstream.Timeout)
	}
	if _, ok := logger.ParseLevel(c.LogLevel); !ok {
		return fmt.Errorf("invalid log level %q", c.LogLevel)
	}
	return nil
}

// Addr returns the listen address for the configured port.
func (c Config) Addr() string {
	return ":" + c.Server.Port
}

func getString(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

// getDuration accepts Go durations ("90s") or a bare number of seconds.
func getDuration(key string, def time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	if n, err := strconv.Atoi(v); err == nil {
		return time.Duration(n) * time.Second
	}
	logger.Warn("Ignoring malformed duration", logger.Fields{"key": key, "value": v})
	return def
}
