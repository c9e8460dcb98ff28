package config

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/vango-dev/rendertree/internal/errors"
	"github.com/vango-dev/rendertree/pkg/layout"
	"github.com/vango-dev/rendertree/pkg/tree"
)

const (
	// ConfigBaseName is the configuration file name without extension.
	ConfigBaseName = "rendertree"

	// DefaultAddr is the default debug server address.
	DefaultAddr = "localhost:7070"

	// DefaultNamespace is the default metrics namespace.
	DefaultNamespace = "rendertree"
)

// Extensions lists the supported configuration file extensions in lookup order.
var Extensions = []string{".json", ".yaml", ".yml", ".toml"}

// Config represents the complete rendertree configuration.
type Config struct {
	// Builder contains frame builder settings.
	Builder BuilderConfig `json:"builder" yaml:"builder" toml:"builder"`

	// Layout contains packed image limits.
	Layout LayoutConfig `json:"layout" yaml:"layout" toml:"layout"`

	// Log contains logging settings.
	Log LogConfig `json:"log" yaml:"log" toml:"log"`

	// Metrics contains Prometheus settings.
	Metrics MetricsConfig `json:"metrics" yaml:"metrics" toml:"metrics"`

	// Serve contains debug server settings.
	Serve ServeConfig `json:"serve" yaml:"serve" toml:"serve"`

	// configPath stores the path where the config was loaded from.
	configPath string
}

// BuilderConfig contains frame builder settings.
type BuilderConfig struct {
	// InitialCapacity is the initial frame capacity of each builder.
	InitialCapacity int `json:"initialCapacity,omitempty" yaml:"initialCapacity,omitempty" toml:"initialCapacity,omitempty"`

	// KeepFalseAttributes keeps false and nil element attributes.
	KeepFalseAttributes bool `json:"keepFalseAttributes,omitempty" yaml:"keepFalseAttributes,omitempty" toml:"keepFalseAttributes,omitempty"`
}

// LayoutConfig contains packed image limits.
type LayoutConfig struct {
	// MaxFrames is the maximum number of records per image.
	MaxFrames int `json:"maxFrames,omitempty" yaml:"maxFrames,omitempty" toml:"maxFrames,omitempty"`

	// MaxStringBytes is the maximum size of the string table and value heap.
	MaxStringBytes int `json:"maxStringBytes,omitempty" yaml:"maxStringBytes,omitempty" toml:"maxStringBytes,omitempty"`
}

// LogConfig contains logging settings.
type LogConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `json:"level,omitempty" yaml:"level,omitempty" toml:"level,omitempty"`

	// Format is text or json.
	Format string `json:"format,omitempty" yaml:"format,omitempty" toml:"format,omitempty"`
}

// MetricsConfig contains Prometheus settings.
type MetricsConfig struct {
	// Enabled registers builder and store collectors.
	Enabled bool `json:"enabled,omitempty" yaml:"enabled,omitempty" toml:"enabled,omitempty"`

	// Namespace is the metrics namespace.
	Namespace string `json:"namespace,omitempty" yaml:"namespace,omitempty" toml:"namespace,omitempty"`
}

// ServeConfig contains debug server settings.
type ServeConfig struct {
	// Addr is the listen address.
	Addr string `json:"addr,omitempty" yaml:"addr,omitempty" toml:"addr,omitempty"`
}

// New creates a new Config with default values.
func New() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// Load reads configuration from the specified directory, trying each
// supported extension in order.
func Load(dir string) (*Config, error) {
	for _, ext := range Extensions {
		path := filepath.Join(dir, ConfigBaseName+ext)
		if _, err := os.Stat(path); err == nil {
			return LoadFile(path)
		}
	}
	return nil, errors.New("F301").
		WithDetail("No " + ConfigBaseName + " configuration found in " + dir)
}

// LoadFile reads configuration from the specified file path.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New("F301").WithDetail(path)
		}
		return nil, errors.New("F302").Wrap(err)
	}

	cfg := &Config{}
	if err := unmarshal(path, data, cfg); err != nil {
		return nil, errors.New("F302").
			WithDetail("Failed to parse " + filepath.Base(path) + ": " + err.Error())
	}

	cfg.configPath = path
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func unmarshal(path string, data []byte, cfg *Config) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return yaml.Unmarshal(data, cfg)
	case ".toml":
		_, err := toml.Decode(string(data), cfg)
		return err
	default:
		return json.Unmarshal(data, cfg)
	}
}

// SaveTo writes the configuration to the specified path in the format given
// by its extension.
func (c *Config) SaveTo(path string) error {
	var (
		data []byte
		err  error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		data, err = yaml.Marshal(c)
	case ".toml":
		var buf bytes.Buffer
		err = toml.NewEncoder(&buf).Encode(c)
		data = buf.Bytes()
	default:
		data, err = json.MarshalIndent(c, "", "  ")
		data = append(data, '\n')
	}
	if err != nil {
		return errors.New("F302").Wrap(err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.New("F302").Wrap(err)
	}

	c.configPath = path
	return nil
}

// Path returns the path where the config was loaded from.
func (c *Config) Path() string {
	return c.configPath
}

// applyDefaults fills in default values for empty fields.
func (c *Config) applyDefaults() {
	if c.Builder.InitialCapacity == 0 {
		c.Builder.InitialCapacity = tree.DefaultCapacity
	}
	if c.Layout.MaxFrames == 0 {
		c.Layout.MaxFrames = layout.DefaultMaxFrames
	}
	if c.Layout.MaxStringBytes == 0 {
		c.Layout.MaxStringBytes = layout.DefaultMaxStringBytes
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
	if c.Metrics.Namespace == "" {
		c.Metrics.Namespace = DefaultNamespace
	}
	if c.Serve.Addr == "" {
		c.Serve.Addr = DefaultAddr
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Builder.InitialCapacity < 0 {
		return errors.New("F303").WithDetail("builder.initialCapacity must not be negative")
	}
	if c.Layout.MaxFrames < 0 || c.Layout.MaxStringBytes < 0 {
		return errors.New("F303").WithDetail("layout limits must not be negative")
	}
	if _, err := c.SlogLevel(); err != nil {
		return err
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return errors.New("F303").WithDetailf("log.format %q is not text or json", c.Log.Format)
	}
	return nil
}

// SlogLevel parses the configured log level.
func (c *Config) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Log.Level)); err != nil {
		return 0, errors.New("F303").WithDetailf("log.level %q", c.Log.Level).Wrap(err)
	}
	return level, nil
}

// LayoutLimits returns the configured packing limits.
func (c *Config) LayoutLimits() *layout.Limits {
	return &layout.Limits{
		MaxFrames:      c.Layout.MaxFrames,
		MaxStringBytes: c.Layout.MaxStringBytes,
	}
}

// BuilderOptions returns the configured builder options.
func (c *Config) BuilderOptions() []tree.BuilderOption {
	return []tree.BuilderOption{
		tree.WithCapacity(c.Builder.InitialCapacity),
		tree.WithKeepFalseAttributes(c.Builder.KeepFalseAttributes),
	}
}

// Exists reports whether a configuration file exists in dir.
func Exists(dir string) bool {
	for _, ext := range Extensions {
		if _, err := os.Stat(filepath.Join(dir, ConfigBaseName+ext)); err == nil {
			return true
		}
	}
	return false
}
