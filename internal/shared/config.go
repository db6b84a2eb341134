package shared

import (
	_ "embed"
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Source   SourceConfig   `toml:"source"`
	Player   PlayerConfig   `toml:"player"`
	UI       UIConfig       `toml:"ui"`
	Database DatabaseConfig `toml:"database"`
	Log      LogConfig      `toml:"log"`
}

// SourceConfig contains settings for the Invidious metadata backend.
type SourceConfig struct {
	Servers           []string `toml:"servers"`
	Region            string   `toml:"region"`
	TimeoutSeconds    int      `toml:"timeout_seconds"`
	RequestsPerSecond float64  `toml:"requests_per_second"`
	UserAgent         string   `toml:"user_agent"`
}

// PlayerConfig contains settings for the mpv playback process.
type PlayerConfig struct {
	MpvPath      string   `toml:"mpv_path"`
	SocketPath   string   `toml:"socket_path"`
	StreamPrefix string   `toml:"stream_prefix"`
	QueueSize    int      `toml:"queue_size"`
	ExtraArgs    []string `toml:"extra_args"`
}

// UIConfig contains terminal UI settings.
type UIConfig struct {
	RefreshMillis int `toml:"refresh_millis"`
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// LogConfig contains the log file location and level.
type LogConfig struct {
	Path  string `toml:"path"`
	Level string `toml:"level"`
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
//
// Keys missing from the file keep the values of [DefaultConfig].
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate reports the first setting that would leave the client unusable.
func (c *Config) Validate() error {
	switch {
	case len(c.Source.Servers) == 0:
		return fmt.Errorf("%w: source.servers is empty", ErrInvalidConfig)
	case c.Source.TimeoutSeconds <= 0:
		return fmt.Errorf("%w: source.timeout_seconds must be positive", ErrInvalidConfig)
	case c.Source.RequestsPerSecond <= 0:
		return fmt.Errorf("%w: source.requests_per_second must be positive", ErrInvalidConfig)
	case c.Player.QueueSize < 0:
		return fmt.Errorf("%w: player.queue_size cannot be negative", ErrInvalidConfig)
	case c.UI.RefreshMillis <= 0:
		return fmt.Errorf("%w: ui.refresh_millis must be positive", ErrInvalidConfig)
	}
	return nil
}

// SourceTimeout is the per-call bound applied to every backend request.
func (c *Config) SourceTimeout() time.Duration {
	return time.Duration(c.Source.TimeoutSeconds) * time.Second
}

// RefreshInterval is how long the render loop waits for new data before redrawing anyway.
func (c *Config) RefreshInterval() time.Duration {
	return time.Duration(c.UI.RefreshMillis) * time.Millisecond
}
