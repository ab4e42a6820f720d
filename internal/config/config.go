package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"githubActivity/internal/events"
	"githubActivity/internal/github"
	"githubActivity/internal/store"

	"github.com/BurntSushi/toml"
)

type Config struct {
	Token             string        `toml:"token"`
	APIURL            string        `toml:"api_url"`
	Timeout           time.Duration `toml:"timeout"`
	PerPage           int           `toml:"per_page"`
	Timezone          string        `toml:"timezone"`
	NoColor           bool          `toml:"no_color"`
	RequestsPerSecond float64       `toml:"requests_per_second"`

	RedisAddr        string        `toml:"redis_addr"`
	CacheTTL         time.Duration `toml:"cache_ttl"`
	HistoryDB        string        `toml:"history_db"`
	HistoryDriver    string        `toml:"history_driver"`
	HistoryRetention int           `toml:"history_retention"`

	ListenAddr string `toml:"listen_addr"`
	Debug      bool   `toml:"debug"`
	LogFile    string `toml:"log_file"`
}

func Default() *Config {
	return &Config{
		APIURL:            github.DefaultBaseURL,
		Timeout:           github.DefaultTimeout,
		PerPage:           github.DefaultPerPage,
		RequestsPerSecond: 1,
		CacheTTL:          events.DefaultCacheTTL,
		HistoryDriver:     store.DriverPure,
		HistoryRetention:  events.DefaultRetention,
		ListenAddr:        ":3000",
		LogFile:           "github-activity.log",
	}
}

func (c *Config) OK() error {
	errs := []string{}

	if u, err := url.Parse(c.APIURL); err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, fmt.Sprintf("invalid api_url %q", c.APIURL))
	}
	if c.Timeout < 0 {
		errs = append(errs, "timeout must not be negative")
	}
	if c.PerPage < 1 || c.PerPage > 100 {
		errs = append(errs, fmt.Sprintf("per_page must be between 1 and 100, got %d", c.PerPage))
	}
	if c.RequestsPerSecond < 0 {
		errs = append(errs, "requests_per_second must not be negative")
	}
	if c.CacheTTL < 0 {
		errs = append(errs, "cache_ttl must not be negative")
	}
	if c.HistoryDriver != store.DriverPure && c.HistoryDriver != store.DriverCgo {
		errs = append(errs, fmt.Sprintf("history_driver must be %q or %q", store.DriverPure, store.DriverCgo))
	}
	if c.HistoryRetention < 0 {
		errs = append(errs, "history_retention must not be negative")
	}
	if _, err := c.Location(); err != nil {
		errs = append(errs, err.Error())
	}

	if len(errs) > 0 {
		return fmt.Errorf("config error: %s", strings.Join(errs, "; "))
	}
	return nil
}

// Location resolves Timezone; empty or "Local" is the runtime's local zone.
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" || c.Timezone == "Local" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("unknown timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// Load reads the TOML file at path over the defaults. A missing file is only
// an error when the path was given explicitly.
func Load(path string, explicit bool) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = DefaultConfigPath()
	}
	if path == "" {
		return cfg, nil
	}

	md, err := toml.DecodeFile(path, cfg)
	if errors.Is(err, fs.ErrNotExist) {
		if explicit {
			return nil, fmt.Errorf("config file %q does not exist", path)
		}
		return cfg, nil
	} else if err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, k := range undecoded {
			keys = append(keys, k.String())
		}
		return nil, fmt.Errorf("unknown config keys in %s: %s", path, strings.Join(keys, ", "))
	}

	return cfg, nil
}

// DefaultConfigDir returns $HOME/.config/github-activity
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}

	return filepath.Join(home, ".config", "github-activity")
}

// DefaultConfigPath returns $HOME/.config/github-activity/config.toml
func DefaultConfigPath() string {
	dir := DefaultConfigDir()
	if dir == "" {
		return ""
	}

	return filepath.Join(dir, "config.toml")
}
