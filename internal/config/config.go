// Package config loads the browser configuration: in-code defaults, then
// an optional YAML file, then OTTO_* environment variables (a .env file is
// honoured), then validation.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/hammamikhairi/ottobrowse/internal/validation"
)

// DefaultFile is read when no explicit path is given and it exists.
const DefaultFile = "ottobrowse.yaml"

// Provider kinds.
const (
	ProviderMemory = "memory"
	ProviderSQLite = "sqlite"
	ProviderHTTP   = "http"
)

// Config is the complete application configuration.
type Config struct {
	Provider ProviderConfig `yaml:"provider"`
	Browse   BrowseConfig   `yaml:"browse"`
	Cache    CacheConfig    `yaml:"cache"`
	Server   ServerConfig   `yaml:"server"`
	Log      LogConfig      `yaml:"log"`
}

// ProviderConfig selects where recipes come from.
type ProviderConfig struct {
	Kind    string        `yaml:"kind" validate:"oneof=memory sqlite http"`
	URL     string        `yaml:"url" validate:"required_if=Kind http,omitempty,url"`
	DBPath  string        `yaml:"db_path" validate:"required_if=Kind sqlite"`
	Timeout time.Duration `yaml:"timeout" validate:"gt=0"`
}

// BrowseConfig tunes the browsing engine.
type BrowseConfig struct {
	Debounce        time.Duration `yaml:"debounce" validate:"gte=0"`
	RefreshInterval time.Duration `yaml:"refresh_interval" validate:"gte=0"`
	Locale          string        `yaml:"locale" validate:"required,bcp47_language_tag"`
}

// CacheConfig bounds the page cache.
type CacheConfig struct {
	TTL        time.Duration `yaml:"ttl" validate:"gte=0"`
	MaxEntries int           `yaml:"max_entries" validate:"gte=0"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Addr string `yaml:"addr" validate:"required,hostname_port"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level string `yaml:"level" validate:"oneof=off quiet none normal info verbose debug"`
	File  string `yaml:"file"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Provider: ProviderConfig{
			Kind:    ProviderMemory,
			DBPath:  "ottobrowse.db",
			Timeout: 10 * time.Second,
		},
		Browse: BrowseConfig{
			Debounce:        500 * time.Millisecond,
			RefreshInterval: 60 * time.Second,
			Locale:          "en",
		},
		Cache: CacheConfig{
			TTL:        60 * time.Second,
			MaxEntries: 256,
		},
		Server: ServerConfig{Addr: ":8080"},
		Log: LogConfig{
			Level: "normal",
			File:  ".otto-logs/ottobrowse.log",
		},
	}
}

// Load builds the configuration from path (or DefaultFile when path is
// empty and the file exists) and the environment.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = DefaultFile
	}
	if err := cfg.loadFile(path); err != nil {
		if explicit || !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
	}

	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate checks every field.
func (c *Config) Validate() error {
	return validation.New("yaml").Struct(c)
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parsing config %s: %w", path, err)
	}
	return nil
}

type lookupFunc func(string) (string, bool)

func (c *Config) applyEnv(lookup lookupFunc) error {
	strs := map[string]*string{
		"OTTO_PROVIDER_KIND":    &c.Provider.Kind,
		"OTTO_PROVIDER_URL":     &c.Provider.URL,
		"OTTO_PROVIDER_DB_PATH": &c.Provider.DBPath,
		"OTTO_LOCALE":           &c.Browse.Locale,
		"OTTO_SERVER_ADDR":      &c.Server.Addr,
		"OTTO_LOG_LEVEL":        &c.Log.Level,
		"OTTO_LOG_FILE":         &c.Log.File,
	}
	for name, dst := range strs {
		if v, ok := lookup(name); ok {
			*dst = v
		}
	}

	durations := map[string]*time.Duration{
		"OTTO_PROVIDER_TIMEOUT": &c.Provider.Timeout,
		"OTTO_DEBOUNCE":         &c.Browse.Debounce,
		"OTTO_REFRESH_INTERVAL": &c.Browse.RefreshInterval,
		"OTTO_CACHE_TTL":        &c.Cache.TTL,
	}
	for name, dst := range durations {
		if v, ok := lookup(name); ok {
			d, err := time.ParseDuration(v)
			if err != nil {
				return fmt.Errorf("parsing %s: %w", name, err)
			}
			*dst = d
		}
	}

	if v, ok := lookup("OTTO_CACHE_MAX_ENTRIES"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("parsing OTTO_CACHE_MAX_ENTRIES: %w", err)
		}
		c.Cache.MaxEntries = n
	}
	return nil
}
