package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
)

// Storage backends.
const (
	BackendSQLite = "sqlite"
	BackendBadger = "badger"
	BackendMemory = "memory"
)

// DefaultDeliveryDelay is how long a sent message waits before it is marked
// delivered.
const DefaultDeliveryDelay = time.Second

// Config represents the global ~/.chatapp/config.toml.
type Config struct {
	DefaultProfile string   `toml:"default_profile"`
	Storage        Storage  `toml:"storage"`
	Delivery       Delivery `toml:"delivery"`
	Log            Log      `toml:"log"`
}

type Storage struct {
	Backend string `toml:"backend"`
}

type Delivery struct {
	Delay Duration `toml:"delay"`
}

type Log struct {
	Level string `toml:"level"`
}

// Duration is a time.Duration written as a Go duration string ("1s").
type Duration struct {
	time.Duration
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

func (c *Config) applyDefaults() {
	if c.Storage.Backend == "" {
		c.Storage.Backend = BackendSQLite
	}
	if c.Delivery.Delay.Duration <= 0 {
		c.Delivery.Delay.Duration = DefaultDeliveryDelay
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
}

// Validate rejects unknown storage backends.
func (c *Config) Validate() error {
	switch c.Storage.Backend {
	case BackendSQLite, BackendBadger, BackendMemory:
		return nil
	default:
		return fmt.Errorf("unknown storage backend %q", c.Storage.Backend)
	}
}

// Load reads config from the given path and fills unset fields with
// defaults. Returns nil config and error if file missing.
func Load(path string) (*Config, error) {
	var cfg Config
	_, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	return &cfg, nil
}

// LoadOrDefault is Load, except that a missing file yields Default().
func LoadOrDefault(path string) (*Config, error) {
	cfg, err := Load(path)
	if os.IsNotExist(err) {
		return Default(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("load config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Save writes config to the given path, creating parent dirs as needed.
func Save(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}
	encErr := toml.NewEncoder(f).Encode(cfg)
	if closeErr := f.Close(); closeErr != nil && encErr == nil {
		return closeErr
	}
	return encErr
}
