// control/config.go
// Author: momentics <momentics@gmail.com>
//
// Client configuration: endpoint, timeouts, batching, logging and metrics.
// Files are TOML or YAML, selected by extension.

package control

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// Defaults applied to unset fields.
const (
	DefaultConnectTimeout = 10 * time.Second
	DefaultDataTimeout    = 60 * time.Second
	DefaultBatchCount     = 100
	DefaultBatchSize      = 1 << 20
	DefaultLogLevel       = "info"
	DefaultLogFormat      = "text"
)

// ErrInvalidConfig is wrapped by every validation failure.
var ErrInvalidConfig = errors.New("invalid configuration")

// Duration wraps time.Duration for text-based config formats.
type Duration struct {
	time.Duration
}

// UnmarshalText parses a duration string such as "1m30s".
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// MarshalText formats the duration as a string.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// UnmarshalYAML accepts the same strings as UnmarshalText.
func (d *Duration) UnmarshalYAML(n *yaml.Node) error {
	return d.UnmarshalText([]byte(n.Value))
}

// BatchConfig bounds outbound batches.
type BatchConfig struct {
	MaxCount int `toml:"max_count" yaml:"max_count"`
	MaxSize  int `toml:"max_size" yaml:"max_size"`
}

// LogConfig selects the log level and handler.
type LogConfig struct {
	Level  string `toml:"level" yaml:"level"`
	Format string `toml:"format" yaml:"format"`
}

// MetricsConfig toggles Prometheus instrumentation.
type MetricsConfig struct {
	Enabled bool `toml:"enabled" yaml:"enabled"`
}

// Config is the complete client configuration.
type Config struct {
	Endpoint       string        `toml:"endpoint" yaml:"endpoint"`
	Port           int           `toml:"port" yaml:"port"`
	TLS            bool          `toml:"tls" yaml:"tls"`
	Compression    bool          `toml:"compression" yaml:"compression"`
	ConnectTimeout Duration      `toml:"connect_timeout" yaml:"connect_timeout"`
	DataTimeout    Duration      `toml:"data_timeout" yaml:"data_timeout"`
	Auth           string        `toml:"auth" yaml:"auth"`
	UserAgent      string        `toml:"user_agent" yaml:"user_agent"`
	Batch          BatchConfig   `toml:"batch" yaml:"batch"`
	Log            LogConfig     `toml:"log" yaml:"log"`
	Metrics        MetricsConfig `toml:"metrics" yaml:"metrics"`
}

// Load reads a TOML or YAML file, applies defaults and validates.
func Load(path string) (*Config, error) {
	cfg, err := ReadFile(path)
	if err != nil {
		return nil, err
	}
	return finish(cfg)
}

// ReadFile decodes a TOML or YAML file as written, without defaults or
// validation, so callers can layer overrides first.
func ReadFile(path string) (*Config, error) {
	path = os.ExpandEnv(path)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return Decode(data, "yaml")
	case ".toml", "":
		return Decode(data, "toml")
	default:
		return nil, fmt.Errorf("%w: unknown config format %q", ErrInvalidConfig, filepath.Ext(path))
	}
}

// Parse decodes data in the given format ("toml" or "yaml"), applies
// defaults and validates.
func Parse(data []byte, format string) (*Config, error) {
	cfg, err := Decode(data, format)
	if err != nil {
		return nil, err
	}
	return finish(cfg)
}

func finish(cfg *Config) (*Config, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Decode decodes data without defaults or validation.
func Decode(data []byte, format string) (*Config, error) {
	var cfg Config
	switch format {
	case "toml":
		if _, err := toml.Decode(string(data), &cfg); err != nil {
			return nil, fmt.Errorf("parse toml config: %w", err)
		}
	case "yaml":
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse yaml config: %w", err)
		}
	default:
		return nil, fmt.Errorf("%w: unknown config format %q", ErrInvalidConfig, format)
	}
	return &cfg, nil
}

// ApplyDefaults fills zero-valued fields.
func (c *Config) ApplyDefaults() {
	if c.Port == 0 {
		if c.TLS {
			c.Port = 443
		} else {
			c.Port = 80
		}
	}
	if c.ConnectTimeout.Duration == 0 {
		c.ConnectTimeout.Duration = DefaultConnectTimeout
	}
	if c.DataTimeout.Duration == 0 {
		c.DataTimeout.Duration = DefaultDataTimeout
	}
	if c.Batch.MaxCount == 0 {
		c.Batch.MaxCount = DefaultBatchCount
	}
	if c.Batch.MaxSize == 0 {
		c.Batch.MaxSize = DefaultBatchSize
	}
	if c.Log.Level == "" {
		c.Log.Level = DefaultLogLevel
	}
	if c.Log.Format == "" {
		c.Log.Format = DefaultLogFormat
	}
}

// Validate reports the first invalid field.
func (c *Config) Validate() error {
	switch {
	case c.Endpoint == "":
		return fmt.Errorf("%w: endpoint is required", ErrInvalidConfig)
	case c.Port <= 0 || c.Port > 65535:
		return fmt.Errorf("%w: port %d out of range", ErrInvalidConfig, c.Port)
	case c.ConnectTimeout.Duration < 0:
		return fmt.Errorf("%w: negative connect_timeout", ErrInvalidConfig)
	case c.DataTimeout.Duration < 0:
		return fmt.Errorf("%w: negative data_timeout", ErrInvalidConfig)
	}
	if _, err := ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("%w: log format %q", ErrInvalidConfig, c.Log.Format)
	}
	return nil
}
