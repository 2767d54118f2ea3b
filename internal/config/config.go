// Package config loads xsdmodel configuration from YAML.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"

	"github.com/jacoelho/xsdmodel/internal/catalog"
	"github.com/jacoelho/xsdmodel/internal/model"
	"github.com/jacoelho/xsdmodel/internal/watch"
)

// FileName is the configuration file looked up in the working directory.
const FileName = "xsdmodel.yaml"

// Config is the complete configuration.
type Config struct {
	Catalog CatalogConfig `yaml:"catalog"`
	Cache   CacheConfig   `yaml:"cache"`
	Watch   WatchConfig   `yaml:"watch"`
	Log     LogConfig     `yaml:"log"`
}

// CatalogConfig locates schema documents.
type CatalogConfig struct {
	// Root is the directory schema locations are resolved against.
	Root string `yaml:"root"`
	// Schemas are doublestar patterns selecting the documents to load.
	Schemas []string `yaml:"schemas"`
	// Entries map import namespaces to documents.
	Entries []catalog.Entry `yaml:"entries"`
}

// CacheConfig tunes the directive cache.
type CacheConfig struct {
	NegativeTTL time.Duration `yaml:"negative_ttl"`
}

// WatchConfig configures file watching.
type WatchConfig struct {
	Enabled  bool          `yaml:"enabled"`
	Debounce time.Duration `yaml:"debounce"`
}

// LogConfig configures logging.
type LogConfig struct {
	// Level is a zap level name: debug, info, warn, error.
	Level string `yaml:"level"`
}

// DefaultConfig returns a Config with defaults.
func DefaultConfig() *Config {
	return &Config{
		Catalog: CatalogConfig{
			Root:    ".",
			Schemas: []string{"**/*.xsd"},
		},
		Cache: CacheConfig{NegativeTTL: model.DefaultNegativeTTL},
		Watch: WatchConfig{Enabled: true, Debounce: watch.DefaultDebounce},
		Log:   LogConfig{Level: "info"},
	}
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if c.Catalog.Root == "" {
		return fmt.Errorf("catalog.root is required")
	}
	for _, p := range c.Catalog.Schemas {
		if !doublestar.ValidatePattern(p) {
			return fmt.Errorf("catalog.schemas: invalid pattern %q", p)
		}
	}
	seen := make(map[string]bool, len(c.Catalog.Entries))
	for i, e := range c.Catalog.Entries {
		if e.Location == "" {
			return fmt.Errorf("catalog.entries[%d]: location is required", i)
		}
		if seen[e.Namespace] {
			return fmt.Errorf("catalog.entries[%d]: duplicate namespace %q", i, e.Namespace)
		}
		seen[e.Namespace] = true
		if _, err := catalog.SystemID("", e.Location); err != nil {
			return fmt.Errorf("catalog.entries[%d]: %w", i, err)
		}
	}
	if c.Cache.NegativeTTL < 0 {
		return fmt.Errorf("cache.negative_ttl must not be negative")
	}
	if c.Watch.Debounce < 0 {
		return fmt.Errorf("watch.debounce must not be negative")
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	return nil
}

// Level parses the configured log level.
func (c *Config) Level() (zapcore.Level, error) {
	lvl, err := zapcore.ParseLevel(c.Log.Level)
	if err != nil {
		return zapcore.InfoLevel, fmt.Errorf("log.level: %w", err)
	}
	return lvl, nil
}

// Parse decodes YAML over the defaults.
func Parse(data []byte) (*Config, error) {
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}

// LoadFromFile loads configuration from a YAML file.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Merge applies the non-zero fields of other over c.
func (c *Config) Merge(other *Config) {
	if other == nil {
		return
	}
	if other.Catalog.Root != "" {
		c.Catalog.Root = other.Catalog.Root
	}
	if len(other.Catalog.Schemas) > 0 {
		c.Catalog.Schemas = other.Catalog.Schemas
	}
	if len(other.Catalog.Entries) > 0 {
		c.Catalog.Entries = other.Catalog.Entries
	}
	if other.Cache.NegativeTTL != 0 {
		c.Cache.NegativeTTL = other.Cache.NegativeTTL
	}
	if other.Watch.Enabled {
		c.Watch.Enabled = true
	}
	if other.Watch.Debounce != 0 {
		c.Watch.Debounce = other.Watch.Debounce
	}
	if other.Log.Level != "" {
		c.Log.Level = other.Log.Level
	}
}
