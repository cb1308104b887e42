package config

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/weftdom/weft/internal/errors"
)

const (
	// ConfigFileName is the name of the configuration file.
	ConfigFileName = "weft.yaml"

	// DefaultPort is the default server port.
	DefaultPort = 8420

	// DefaultHost is the default bind host.
	DefaultHost = "0.0.0.0"

	// DefaultTickInterval is the default scheduler batching window.
	DefaultTickInterval = "16ms"

	// DefaultMaxDepth is the default tree depth limit.
	DefaultMaxDepth = 4096

	// DefaultHistoryCapacity is the default patch replay window.
	DefaultHistoryCapacity = 128

	// DefaultMetricsNamespace prefixes prometheus metric names.
	DefaultMetricsNamespace = "weft"
)

// Config represents the complete weft.yaml configuration.
type Config struct {
	// Server contains listener settings.
	Server ServerConfig `yaml:"server,omitempty"`

	// Scheduler contains commit batching settings.
	Scheduler SchedulerConfig `yaml:"scheduler,omitempty"`

	// History contains patch replay settings.
	History HistoryConfig `yaml:"history,omitempty"`

	// Metrics contains prometheus settings.
	Metrics MetricsConfig `yaml:"metrics,omitempty"`

	// Log contains logging settings.
	Log LogConfig `yaml:"log,omitempty"`

	// configPath stores the path where the config was loaded from.
	configPath string
}

// ServerConfig contains listener settings.
type ServerConfig struct {
	// Host is the bind host.
	Host string `yaml:"host,omitempty"`

	// Port is the listen port.
	Port int `yaml:"port,omitempty"`

	// ShutdownTimeout bounds graceful shutdown (e.g., "10s").
	ShutdownTimeout string `yaml:"shutdownTimeout,omitempty"`
}

// SchedulerConfig contains commit batching settings.
type SchedulerConfig struct {
	// TickInterval is the batching window (e.g., "16ms").
	TickInterval string `yaml:"tickInterval,omitempty"`

	// MaxDepth bounds submitted tree nesting.
	MaxDepth int `yaml:"maxDepth,omitempty"`
}

// HistoryConfig contains patch replay settings.
type HistoryConfig struct {
	// Capacity is how many patch frames are kept for resync.
	Capacity int `yaml:"capacity,omitempty"`
}

// MetricsConfig contains prometheus settings.
type MetricsConfig struct {
	// Namespace prefixes metric names.
	Namespace string `yaml:"namespace,omitempty"`
}

// LogConfig contains logging settings.
type LogConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `yaml:"level,omitempty"`

	// Format is "text" or "json".
	Format string `yaml:"format,omitempty"`
}

// New returns a config populated with defaults.
func New() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            DefaultHost,
			Port:            DefaultPort,
			ShutdownTimeout: "10s",
		},
		Scheduler: SchedulerConfig{
			TickInterval: DefaultTickInterval,
			MaxDepth:     DefaultMaxDepth,
		},
		History: HistoryConfig{
			Capacity: DefaultHistoryCapacity,
		},
		Metrics: MetricsConfig{
			Namespace: DefaultMetricsNamespace,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads configuration from weft.yaml in the specified directory.
func Load(dir string) (*Config, error) {
	return LoadFile(filepath.Join(dir, ConfigFileName))
}

// LoadFile reads configuration from the specified file path.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New("E080").
				WithDetail("No " + ConfigFileName + " found in " + filepath.Dir(path)).
				WithSuggestion("Run 'weft serve' without a config to use defaults, or create " + ConfigFileName)
		}
		return nil, errors.New("E080").Wrap(err)
	}

	cfg := New()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.New("E080").
			WithDetail("Failed to parse " + ConfigFileName + ": " + err.Error()).
			WithSuggestion("Check that " + ConfigFileName + " is valid YAML")
	}

	cfg.configPath = path
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the configuration to the file it was loaded from.
func (c *Config) Save() error {
	if c.configPath == "" {
		return errors.Newf(errors.CategoryConfig, "no config path set")
	}
	return c.SaveTo(c.configPath)
}

// SaveTo writes the configuration to the specified path.
func (c *Config) SaveTo(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return errors.New("E080").Wrap(err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.New("E080").Wrap(err)
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
	d := New()
	if c.Server.Host == "" {
		c.Server.Host = d.Server.Host
	}
	if c.Server.Port == 0 {
		c.Server.Port = d.Server.Port
	}
	if c.Server.ShutdownTimeout == "" {
		c.Server.ShutdownTimeout = d.Server.ShutdownTimeout
	}
	if c.Scheduler.TickInterval == "" {
		c.Scheduler.TickInterval = d.Scheduler.TickInterval
	}
	if c.Scheduler.MaxDepth == 0 {
		c.Scheduler.MaxDepth = d.Scheduler.MaxDepth
	}
	if c.History.Capacity == 0 {
		c.History.Capacity = d.History.Capacity
	}
	if c.Metrics.Namespace == "" {
		c.Metrics.Namespace = d.Metrics.Namespace
	}
	if c.Log.Level == "" {
		c.Log.Level = d.Log.Level
	}
	if c.Log.Format == "" {
		c.Log.Format = d.Log.Format
	}
}

// Validate checks field ranges.
func (c *Config) Validate() error {
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return errors.New("E081").
			WithDetail("server.port must be between 0 and 65535")
	}
	if _, err := time.ParseDuration(c.Server.ShutdownTimeout); err != nil {
		return errors.New("E081").
			WithDetail("server.shutdownTimeout is not a duration: " + c.Server.ShutdownTimeout).
			WithSuggestion(`Use a Go duration string like "10s"`)
	}
	if d, err := time.ParseDuration(c.Scheduler.TickInterval); err != nil || d <= 0 {
		return errors.New("E081").
			WithDetail("scheduler.tickInterval must be a positive duration, got " + c.Scheduler.TickInterval).
			WithSuggestion(`Use a Go duration string like "16ms"`)
	}
	if c.Scheduler.MaxDepth < 1 {
		return errors.New("E081").
			WithDetail("scheduler.maxDepth must be at least 1")
	}
	if c.History.Capacity < 1 {
		return errors.New("E081").
			WithDetail("history.capacity must be at least 1")
	}
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return errors.New("E081").
			WithDetail("log.level must be one of debug, info, warn, error")
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return errors.New("E081").
			WithDetail(`log.format must be "text" or "json"`)
	}
	return nil
}

// Address returns the host:port listen address.
func (c *Config) Address() string {
	return c.Server.Host + ":" + itoa(c.Server.Port)
}

// TickInterval returns the parsed batching window. Call Validate first;
// an unparsable value falls back to the default.
func (c *Config) TickInterval() time.Duration {
	d, err := time.ParseDuration(c.Scheduler.TickInterval)
	if err != nil || d <= 0 {
		d, _ = time.ParseDuration(DefaultTickInterval)
	}
	return d
}

// ShutdownTimeout returns the parsed shutdown bound.
func (c *Config) ShutdownTimeout() time.Duration {
	d, err := time.ParseDuration(c.Server.ShutdownTimeout)
	if err != nil || d <= 0 {
		return 10 * time.Second
	}
	return d
}

// Logger builds a slog.Logger per the Log section, writing to w.
func (c *Config) Logger(w io.Writer) *slog.Logger {
	var level slog.Level
	switch c.Log.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	if c.Log.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// Exists reports whether weft.yaml exists in the directory.
func Exists(dir string) bool {
	_, err := os.Stat(filepath.Join(dir, ConfigFileName))
	return err == nil
}

// itoa converts a non-negative port number to its decimal string.
func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	var buf [6]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	return string(buf[i:])
}
