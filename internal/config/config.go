package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/strandui/strand/internal/errors"
)

const (
	// ConfigFileName is the name of the configuration file.
	ConfigFileName = "strand.yaml"

	// DefaultInspectorHost is the default inspector bind host.
	DefaultInspectorHost = "localhost"

	// DefaultInspectorPort is the default inspector port.
	DefaultInspectorPort = 7430

	// DefaultLogLevel is the default log verbosity.
	DefaultLogLevel = "info"
)

// Config represents the complete strand.yaml configuration.
type Config struct {
	// Name is the application name, used in logs and metric labels.
	Name string `yaml:"name,omitempty"`

	// Log contains logging configuration.
	Log LogConfig `yaml:"log,omitempty"`

	// Inspector contains the debug inspector's settings.
	Inspector InspectorConfig `yaml:"inspector,omitempty"`

	// Engine contains runtime tuning.
	Engine EngineConfig `yaml:"engine,omitempty"`

	// configPath stores the path where the config was loaded from.
	configPath string
}

// LogConfig contains logging settings.
type LogConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `yaml:"level,omitempty"`

	// Format is "text" or "json".
	Format string `yaml:"format,omitempty"`
}

// InspectorConfig contains the debug inspector's settings.
type InspectorConfig struct {
	// Enabled turns the inspector HTTP server on.
	Enabled bool `yaml:"enabled,omitempty"`

	// Host is the bind host.
	Host string `yaml:"host,omitempty"`

	// Port is the bind port.
	Port int `yaml:"port,omitempty"`
}

// EngineConfig contains runtime tuning.
type EngineConfig struct {
	// TickInterval batches deferred invalidations; zero means run on
	// the next available tick.
	TickInterval time.Duration `yaml:"tickInterval,omitempty"`

	// Metrics enables Prometheus instrumentation.
	Metrics bool `yaml:"metrics,omitempty"`
}

// Default returns a Config with every default applied.
func Default() *Config {
	c := &Config{}
	c.applyDefaults()
	return c
}

// Load reads strand.yaml from dir, walking up parent directories until
// it finds one. A missing file yields the defaults, not an error.
func Load(dir string) (*Config, error) {
	for {
		path := filepath.Join(dir, ConfigFileName)
		if _, err := os.Stat(path); err == nil {
			return LoadFile(path)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return Default(), nil
		}
		dir = parent
	}
}

// LoadFile reads and validates the config at path.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New("E080").
				WithDetail(fmt.Sprintf("no config file at %s", path))
		}
		return nil, errors.New("E060").Wrap(err)
	}

	var c Config
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, errors.New("E060").Wrap(err).
			WithDetail(fmt.Sprintf("could not parse %s", path))
	}
	c.configPath = path
	c.applyDefaults()
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Path returns where the config was loaded from, or "" for defaults.
func (c *Config) Path() string {
	return c.configPath
}

func (c *Config) applyDefaults() {
	if c.Log.Level == "" {
		c.Log.Level = DefaultLogLevel
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
	if c.Inspector.Host == "" {
		c.Inspector.Host = DefaultInspectorHost
	}
	if c.Inspector.Port == 0 {
		c.Inspector.Port = DefaultInspectorPort
	}
}

// Validate checks field values after defaults were applied.
func (c *Config) Validate() error {
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return errors.New("E060").
			WithDetail(fmt.Sprintf("unknown log level %q", c.Log.Level))
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return errors.New("E060").
			WithDetail(fmt.Sprintf("unknown log format %q", c.Log.Format))
	}
	if c.Inspector.Port < 1 || c.Inspector.Port > 65535 {
		return errors.New("E062").
			WithDetail(fmt.Sprintf("port %d out of range", c.Inspector.Port))
	}
	if c.Engine.TickInterval < 0 {
		return errors.New("E060").
			WithDetail("engine.tickInterval must not be negative")
	}
	return nil
}

// InspectorAddress returns the host:port the inspector binds to.
func (c *Config) InspectorAddress() string {
	return fmt.Sprintf("%s:%d", c.Inspector.Host, c.Inspector.Port)
}
