// Package config handles application configuration.
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/alienxp03/debatecast/internal/client"
	"github.com/alienxp03/debatecast/internal/reveal"
	"github.com/alienxp03/debatecast/internal/storage"
)

// Config represents the application configuration.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Display DisplayConfig `yaml:"display"`
	Storage StorageConfig `yaml:"storage"`
	Log     LogConfig     `yaml:"log"`
}

// ServerConfig describes the debate server to watch.
type ServerConfig struct {
	URL      string `yaml:"url"`
	NumTurns int    `yaml:"num_turns,omitempty"` // 0 = server default
}

// DisplayConfig holds rendering settings.
type DisplayConfig struct {
	RevealInterval time.Duration `yaml:"reveal_interval"`
	Plain          bool          `yaml:"plain"`
}

// StorageConfig holds session history settings.
type StorageConfig struct {
	Enabled bool   `yaml:"enabled"`
	DBPath  string `yaml:"db_path,omitempty"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Path  string `yaml:"path,omitempty"`
	Level string `yaml:"level"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			URL: client.DefaultURL,
		},
		Display: DisplayConfig{
			RevealInterval: reveal.DefaultInterval,
		},
		Storage: StorageConfig{
			Enabled: true,
			DBPath:  storage.DefaultDBPath(),
		},
		Log: LogConfig{
			Path:  DefaultLogPath(),
			Level: "info",
		},
	}
}

// Load loads configuration from the default path.
func Load() (*Config, error) {
	return LoadFrom(DefaultConfigPath())
}

// LoadFrom loads configuration from a specific path.
func LoadFrom(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		// No config file, proceed with defaults
	} else {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	// Apply .env overrides if file exists
	if env, err := LoadEnv(".env"); err == nil {
		ApplyEnvOverrides(cfg, env)
	}

	cfg.fillDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// fillDefaults restores zero values a partial config file may leave behind.
func (c *Config) fillDefaults() {
	d := Default()
	if c.Server.URL == "" {
		c.Server.URL = d.Server.URL
	}
	if c.Display.RevealInterval < 0 {
		c.Display.RevealInterval = d.Display.RevealInterval
	}
	if c.Storage.DBPath == "" {
		c.Storage.DBPath = d.Storage.DBPath
	}
	if c.Log.Path == "" {
		c.Log.Path = d.Log.Path
	}
	if c.Log.Level == "" {
		c.Log.Level = d.Log.Level
	}
	if c.Server.NumTurns < 0 {
		c.Server.NumTurns = 0
	}
}

// Validate checks settings that cannot be defaulted.
func (c *Config) Validate() error {
	u, err := url.Parse(c.Server.URL)
	if err != nil {
		return fmt.Errorf("invalid server url %q: %w", c.Server.URL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("invalid server url %q: scheme must be http or https", c.Server.URL)
	}
	if u.Host == "" {
		return fmt.Errorf("invalid server url %q: missing host", c.Server.URL)
	}
	return nil
}

// SaveTo saves the configuration to a specific path.
func (c *Config) SaveTo(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// DefaultConfigPath returns the default configuration file path.
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "debatecast.yaml"
	}
	return filepath.Join(home, ".debatecast", "config.yaml")
}

// DefaultLogPath returns where the interactive viewer writes its log.
func DefaultLogPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "debatecast.log"
	}
	return filepath.Join(home, ".debatecast", "debatecast.log")
}

// GenerateExample generates an example configuration file.
func GenerateExample() string {
	example := `# debatecast configuration file
# Place this file at ~/.debatecast/config.yaml

server:
  url: http://127.0.0.1:8000/debate   # Debate server endpoint (POST, text/event-stream)
  num_turns: 3                         # Times each agent speaks (0 = server default)

display:
  reveal_interval: 20ms   # Typewriter speed; 0 shows arguments at once
  plain: false            # Line output instead of the interactive viewer

storage:
  enabled: true           # Record watched debates for history/show/export
  db_path: ""             # Default: ~/.debatecast/debatecast.db

log:
  path: ""                # Default: ~/.debatecast/debatecast.log
  level: info             # debug, info, warn, error
`
	return example
}
