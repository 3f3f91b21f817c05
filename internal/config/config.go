// Package config loads export settings from TOML files with environment
// overrides and an optional per-environment overlay.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
)

const (
	// BaseConfigFile is the primary configuration file name.
	BaseConfigFile = "config.toml"

	// OverlayConfigPattern is the file name pattern for environment-specific overlays.
	OverlayConfigPattern = "config.%s.toml"

	// EnvConfigEnv selects the overlay.
	EnvConfigEnv = "DOCEXPORT_ENV"
)

// Config is the root configuration.
type Config struct {
	Layout  LayoutConfig  `toml:"layout"`
	Render  RenderConfig  `toml:"render"`
	Output  OutputConfig  `toml:"output"`
	Storage StorageConfig `toml:"storage"`
	HTTP    HTTPConfig    `toml:"http"`
	Logging LoggingConfig `toml:"logging"`
}

// Load reads path (BaseConfigFile when empty) and applies the overlay
// selected by DOCEXPORT_ENV from the same directory. A missing file yields an empty configuration
// so defaults apply. The result is not finalized.
func Load(path string) (*Config, error) {
	if path == "" {
		path = BaseConfigFile
	}

	cfg, err := load(path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
		cfg = &Config{}
	}

	if overlay := overlayPath(path); overlay != "" {
		o, err := load(overlay)
		if err != nil {
			return nil, fmt.Errorf("load overlay %s: %w", overlay, err)
		}
		cfg.Merge(o)
	}
	return cfg, nil
}

// Parse decodes TOML data without touching the filesystem.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return &cfg, nil
}

// Finalize applies defaults, loads environment overrides, and validates the configuration.
func (c *Config) Finalize() error {
	if err := c.Layout.Finalize(); err != nil {
		return fmt.Errorf("layout: %w", err)
	}
	if err := c.Render.Finalize(); err != nil {
		return fmt.Errorf("render: %w", err)
	}
	if err := c.Output.Finalize(); err != nil {
		return fmt.Errorf("output: %w", err)
	}
	if err := c.Storage.Finalize(); err != nil {
		return fmt.Errorf("storage: %w", err)
	}
	if err := c.HTTP.Finalize(); err != nil {
		return fmt.Errorf("http: %w", err)
	}
	if err := c.Logging.Finalize(); err != nil {
		return fmt.Errorf("logging: %w", err)
	}
	return nil
}

// Merge applies values from overlay configuration that differ from zero values.
func (c *Config) Merge(overlay *Config) {
	c.Layout.Merge(&overlay.Layout)
	c.Render.Merge(&overlay.Render)
	c.Output.Merge(&overlay.Output)
	c.Storage.Merge(&overlay.Storage)
	c.HTTP.Merge(&overlay.HTTP)
	c.Logging.Merge(&overlay.Logging)
}

func load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(data)
}

// overlayPath is the overlay next to the base config file at path.
func overlayPath(path string) string {
	if env := os.Getenv(EnvConfigEnv); env != "" {
		overlayPath := filepath.Join(filepath.Dir(path), fmt.Sprintf(OverlayConfigPattern, env))
		if _, err := os.Stat(overlayPath); err == nil {
			return overlayPath
		}
	}
	return ""
}
