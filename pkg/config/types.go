package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Config represents the persistent gongwen configuration stored as
// config.toml in the .gongwen/ directory. The TOML layout uses sections for
// logical grouping.
type Config struct {
	Version     int               `toml:"version"`
	Server      ServerConfig      `toml:"server"`
	Generate    GenerateConfig    `toml:"generate"`
	Storage     StorageConfig     `toml:"storage"`
	EventStream EventStreamConfig `toml:"eventstream"`
	UI          UIConfig          `toml:"ui"`
}

// ServerConfig holds the backend connection settings.
type ServerConfig struct {
	BaseURL string `toml:"base_url,omitempty"`

	// Timeout bounds request/response calls and the wait for the first
	// byte of a generation stream, as a Go duration string.
	Timeout string `toml:"timeout,omitempty"`
}

// TimeoutDuration parses Timeout, returning zero for an empty value.
func (s ServerConfig) TimeoutDuration() (time.Duration, error) {
	if s.Timeout == "" {
		return 0, nil
	}
	return time.ParseDuration(s.Timeout)
}

// GenerateConfig holds defaults for new generations.
type GenerateConfig struct {
	DocType    string `toml:"doc_type,omitempty"`
	TemplateID string `toml:"template_id,omitempty"`
}

// StorageConfig holds the archive settings. A PostgresDSN selects a shared
// PostgreSQL archive. Otherwise an empty SQLitePath uses gongwen.sqlite in
// the config directory and StorageInMemory keeps the archive in memory.
type StorageConfig struct {
	SQLitePath  string `toml:"sqlite_path,omitempty"`
	PostgresDSN string `toml:"postgres_dsn,omitempty"`
}

// EventStreamConfig selects where generation events are published.
type EventStreamConfig struct {
	// Provider is "nop" or "kafka".
	Provider string `toml:"provider,omitempty"`

	// Brokers is a comma separated list of host:port pairs.
	Brokers string `toml:"brokers,omitempty"`
	Topic   string `toml:"topic,omitempty"`
}

// BrokerList splits Brokers into its non-empty entries.
func (e EventStreamConfig) BrokerList() []string {
	var out []string
	for b := range strings.SplitSeq(e.Brokers, ",") {
		if b = strings.TrimSpace(b); b != "" {
			out = append(out, b)
		}
	}
	return out
}

// UIConfig holds terminal rendering settings.
type UIConfig struct {
	Pretty   bool `toml:"pretty"`
	Markdown bool `toml:"markdown"`
}

// configKey is one user-facing dotted key of config.toml.
type configKey struct {
	name string
	get  func(c *Config) string
	set  func(c *Config, v string) error
}

// stringKey binds name to the string field returned by field. validate, when
// non-nil, vets a value before it is stored.
func stringKey(name string, field func(*Config) *string, validate func(string) error) configKey {
	return configKey{
		name: name,
		get:  func(c *Config) string { return *field(c) },
		set: func(c *Config, v string) error {
			if validate != nil {
				if err := validate(v); err != nil {
					return fmt.Errorf("invalid value for %s: %w", name, err)
				}
			}
			*field(c) = v
			return nil
		},
	}
}

// boolKey binds name to the bool field returned by field.
func boolKey(name string, field func(*Config) *bool) configKey {
	return configKey{
		name: name,
		get:  func(c *Config) string { return strconv.FormatBool(*field(c)) },
		set: func(c *Config, v string) error {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("invalid value for %s: %w", name, err)
			}
			*field(c) = b
			return nil
		},
	}
}

func validateURL(v string) error {
	if v != "" && !strings.HasPrefix(v, "http://") && !strings.HasPrefix(v, "https://") {
		return fmt.Errorf("%q must start with http:// or https://", v)
	}
	return nil
}

func validateDuration(v string) error {
	_, err := time.ParseDuration(v)
	return err
}

func validateProvider(v string) error {
	switch v {
	case ProviderNop, ProviderKafka:
		return nil
	}
	return fmt.Errorf("%q (available: %s, %s)", v, ProviderNop, ProviderKafka)
}

// configKeys lists every supported key in the order of the TOML layout.
var configKeys = []configKey{
	stringKey("server.base_url", func(c *Config) *string { return &c.Server.BaseURL }, validateURL),
	stringKey("server.timeout", func(c *Config) *string { return &c.Server.Timeout }, validateDuration),
	stringKey("generate.doc_type", func(c *Config) *string { return &c.Generate.DocType }, nil),
	stringKey("generate.template_id", func(c *Config) *string { return &c.Generate.TemplateID }, nil),
	stringKey("storage.sqlite_path", func(c *Config) *string { return &c.Storage.SQLitePath }, nil),
	stringKey("storage.postgres_dsn", func(c *Config) *string { return &c.Storage.PostgresDSN }, nil),
	stringKey("eventstream.provider", func(c *Config) *string { return &c.EventStream.Provider }, validateProvider),
	stringKey("eventstream.brokers", func(c *Config) *string { return &c.EventStream.Brokers }, nil),
	stringKey("eventstream.topic", func(c *Config) *string { return &c.EventStream.Topic }, nil),
	boolKey("ui.pretty", func(c *Config) *bool { return &c.UI.Pretty }),
	boolKey("ui.markdown", func(c *Config) *bool { return &c.UI.Markdown }),
}

func lookupKey(name string) (configKey, error) {
	for _, k := range configKeys {
		if k.name == name {
			return k, nil
		}
	}
	return configKey{}, fmt.Errorf("unknown config key: %q", name)
}
