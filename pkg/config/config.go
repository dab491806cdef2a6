// Package config reads and writes config.toml and layers it with flags,
// environment and defaults through viper.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/papercomputeco/gongwen/pkg/dotdir"
)

const (
	configFile = "config.toml"

	// CurrentV is the config.toml schema version this build writes.
	CurrentV = 0
)

// Configer reads and writes the config.toml of one .gongwen/ directory.
type Configer struct {
	// path is empty when no .gongwen/ directory exists. Loads then return
	// defaults and saves fail.
	path string
}

// NewConfiger resolves the .gongwen/ directory from override without
// creating it.
func NewConfiger(override string) (*Configer, error) {
	dir, err := dotdir.NewManager().Target(override)
	if err != nil {
		return nil, err
	}
	if dir == "" {
		return &Configer{}, nil
	}

	path := filepath.Join(dir, configFile)
	if _, err := os.Stat(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	return &Configer{path: path}, nil
}

// GetTarget returns the path of config.toml, or "" without a config dir.
func (c *Configer) GetTarget() string {
	return c.path
}

// LoadConfig returns the stored configuration with defaults filled in, or
// the defaults alone when there is no config.toml.
func (c *Configer) LoadConfig() (*Config, error) {
	if c.path == "" {
		return NewDefaultConfig(), nil
	}

	data, err := os.ReadFile(c.path)
	if errors.Is(err, os.ErrNotExist) {
		return NewDefaultConfig(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	return ParseConfigTOML(data)
}

// SaveConfig writes cfg to config.toml.
func (c *Configer) SaveConfig(cfg *Config) error {
	if cfg == nil {
		return errors.New("cannot save nil config")
	}
	if c.path == "" {
		return errors.New("cannot save empty target path")
	}

	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	if err := os.WriteFile(c.path, buf.Bytes(), 0o600); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// SetConfigValue validates value and stores it under key.
func (c *Configer) SetConfigValue(key, value string) error {
	k, err := lookupKey(key)
	if err != nil {
		return err
	}

	cfg, err := c.LoadConfig()
	if err != nil {
		return err
	}
	if err := k.set(cfg, value); err != nil {
		return err
	}
	return c.SaveConfig(cfg)
}

// GetConfigValue returns the effective value of key as a string.
func (c *Configer) GetConfigValue(key string) (string, error) {
	k, err := lookupKey(key)
	if err != nil {
		return "", err
	}

	cfg, err := c.LoadConfig()
	if err != nil {
		return "", err
	}
	return k.get(cfg), nil
}

// ValidConfigKeys returns every supported key in TOML section order.
func ValidConfigKeys() []string {
	names := make([]string, len(configKeys))
	for i, k := range configKeys {
		names[i] = k.name
	}
	return names
}

// IsValidConfigKey reports whether key is a supported config key.
func IsValidConfigKey(key string) bool {
	_, err := lookupKey(key)
	return err == nil
}

// presets are the named starting points of "gongwen init --preset".
var presets = []struct {
	name  string
	apply func(*Config)
}{
	{name: "local", apply: func(*Config) {}},
	{name: "mock", apply: func(c *Config) {
		c.Server.BaseURL = "http://localhost" + DefaultMockListen
		c.Server.Timeout = "5s"
	}},
}

// PresetConfig returns the defaults adjusted for the named preset: "local"
// for a backend on this machine, "mock" for the backend started by
// "gongwen mock".
func PresetConfig(name string) (*Config, error) {
	for _, p := range presets {
		if strings.EqualFold(p.name, name) {
			cfg := NewDefaultConfig()
			p.apply(cfg)
			return cfg, nil
		}
	}
	return nil, fmt.Errorf("unknown preset: %q (available: %s)", name, strings.Join(ValidPresetNames(), ", "))
}

// ValidPresetNames returns the preset names in display order.
func ValidPresetNames() []string {
	names := make([]string, len(presets))
	for i, p := range presets {
		names[i] = p.name
	}
	return names
}

// ParseConfigTOML decodes data and fills every unset field with its default.
// An explicit false for a boolean survives.
func ParseConfigTOML(data []byte) (*Config, error) {
	cfg := &Config{}
	meta, err := toml.Decode(string(data), cfg)
	if err != nil {
		return nil, fmt.Errorf("parsing config TOML: %w", err)
	}
	if cfg.Version != CurrentV {
		return nil, fmt.Errorf("unsupported config version %d (expected %d)", cfg.Version, CurrentV)
	}

	d := NewDefaultConfig()
	fill := func(dst *string, def string) {
		if *dst == "" {
			*dst = def
		}
	}
	fill(&cfg.Server.BaseURL, d.Server.BaseURL)
	fill(&cfg.Server.Timeout, d.Server.Timeout)
	fill(&cfg.Generate.DocType, d.Generate.DocType)
	fill(&cfg.EventStream.Provider, d.EventStream.Provider)
	fill(&cfg.EventStream.Topic, d.EventStream.Topic)

	if !meta.IsDefined("ui", "pretty") {
		cfg.UI.Pretty = d.UI.Pretty
	}
	if !meta.IsDefined("ui", "markdown") {
		cfg.UI.Markdown = d.UI.Markdown
	}
	return cfg, nil
}
