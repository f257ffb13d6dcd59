// Package config handles configuration loading for ampd.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/PierreRust/ampdclient/mpdprotocol"
)

// LogConfig represents logging configuration.
type LogConfig struct {
	// Level is the console log level (debug, info, warn, error)
	Level string
	// File is an optional rotated log file
	File string
	// MaxSizeMB is the rotation size of File (default: 10)
	MaxSizeMB int
	// MaxBackups is the number of rotated files kept (default: 3)
	MaxBackups int
	// JSON enables JSON output
	JSON bool
}

// Config represents the complete ampd configuration.
type Config struct {
	// Host is the MPD server host (default: localhost)
	Host string
	// Port is the MPD server port (default: 6600)
	Port int
	// Socket is a Unix socket path. It takes precedence over Host and Port.
	Socket string
	// Password is sent right after connecting when non-empty
	Password string
	// DialTimeout bounds connecting and reading the greeting
	DialTimeout time.Duration
	// CommandTimeout bounds each command issued by the CLI
	CommandTimeout time.Duration
	// MetricsAddr is the listen address of the Prometheus endpoint used by
	// the watch command. Empty disables it.
	MetricsAddr string
	// IdleSubsystems restricts change notifications. Empty means all.
	IdleSubsystems []string
	// Log contains logging configuration
	Log LogConfig
}

// rawConfig is used for YAML unmarshaling. Durations are written as
// strings such as "5s".
type rawConfig struct {
	Host           string   `yaml:"host"`
	Port           int      `yaml:"port"`
	Socket         string   `yaml:"socket"`
	Password       string   `yaml:"password"`
	DialTimeout    string   `yaml:"dial_timeout"`
	CommandTimeout string   `yaml:"command_timeout"`
	MetricsAddr    string   `yaml:"metrics_addr"`
	IdleSubsystems []string `yaml:"idle_subsystems"`
	Log            struct {
		Level      string `yaml:"level"`
		File       string `yaml:"file"`
		MaxSizeMB  int    `yaml:"max_size_mb"`
		MaxBackups int    `yaml:"max_backups"`
		JSON       bool   `yaml:"json"`
	} `yaml:"log"`
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	return &Config{
		Host:           mpdprotocol.DefaultHost,
		Port:           mpdprotocol.DefaultPort,
		DialTimeout:    mpdprotocol.DialTimeout,
		CommandTimeout: 10 * time.Second,
		Log: LogConfig{
			Level:      "warn",
			MaxSizeMB:  10,
			MaxBackups: 3,
		},
	}
}

// DefaultConfigPath returns the default configuration file path.
func DefaultConfigPath() string {
	// Check for environment variable override first
	if envPath := os.Getenv("AMPD_CONFIG"); envPath != "" {
		return envPath
	}

	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		home, _ := os.UserHomeDir()
		configDir = filepath.Join(home, ".config")
	}
	return filepath.Join(configDir, "ampd", "config.yaml")
}

// Load reads the configuration file at path. A missing file yields the
// defaults; any other read or parse error is returned.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Default(), nil
		}
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	return Parse(data)
}

// Parse parses YAML configuration data on top of the defaults.
func Parse(data []byte) (*Config, error) {
	var raw rawConfig
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg := Default()
	if raw.Host != "" {
		cfg.Host = raw.Host
	}
	if raw.Port != 0 {
		cfg.Port = raw.Port
	}
	cfg.Socket = raw.Socket
	cfg.Password = raw.Password
	cfg.MetricsAddr = raw.MetricsAddr
	cfg.IdleSubsystems = raw.IdleSubsystems

	if raw.DialTimeout != "" {
		d, err := time.ParseDuration(raw.DialTimeout)
		if err != nil {
			return nil, fmt.Errorf("invalid dial_timeout: %w", err)
		}
		cfg.DialTimeout = d
	}
	if raw.CommandTimeout != "" {
		d, err := time.ParseDuration(raw.CommandTimeout)
		if err != nil {
			return nil, fmt.Errorf("invalid command_timeout: %w", err)
		}
		cfg.CommandTimeout = d
	}

	if raw.Log.Level != "" {
		cfg.Log.Level = raw.Log.Level
	}
	cfg.Log.File = raw.Log.File
	if raw.Log.MaxSizeMB != 0 {
		cfg.Log.MaxSizeMB = raw.Log.MaxSizeMB
	}
	if raw.Log.MaxBackups != 0 {
		cfg.Log.MaxBackups = raw.Log.MaxBackups
	}
	cfg.Log.JSON = raw.Log.JSON

	return cfg, nil
}

// ApplyEnv applies the variables used by the standard MPD clients.
// MPD_HOST may carry a password as "password@host"; a value starting with
// '/' or '@' is a socket. MPD_PORT overrides the port.
func (c *Config) ApplyEnv(getenv func(string) string) error {
	if host := getenv("MPD_HOST"); host != "" {
		if i := strings.LastIndex(host, "@"); i > 0 {
			c.Password = host[:i]
			host = host[i+1:]
		}
		if strings.HasPrefix(host, "/") || strings.HasPrefix(host, "@") {
			c.Socket = host
		} else {
			c.Host = host
			c.Socket = ""
		}
	}
	if port := getenv("MPD_PORT"); port != "" {
		p, err := strconv.Atoi(port)
		if err != nil {
			return fmt.Errorf("invalid MPD_PORT %q: %w", port, err)
		}
		c.Port = p
	}
	return nil
}

// Validate checks that the configuration values are usable.
func (c *Config) Validate() error {
	if c.Socket == "" && c.Host == "" {
		return fmt.Errorf("host must not be empty")
	}
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("port %d out of range", c.Port)
	}
	if c.DialTimeout <= 0 {
		return fmt.Errorf("dial_timeout must be positive")
	}
	if c.CommandTimeout <= 0 {
		return fmt.Errorf("command_timeout must be positive")
	}
	if c.Log.MaxSizeMB < 0 || c.Log.MaxBackups < 0 {
		return fmt.Errorf("log rotation settings must not be negative")
	}
	if c.MetricsAddr != "" {
		if _, _, err := net.SplitHostPort(c.MetricsAddr); err != nil {
			return fmt.Errorf("invalid metrics_addr %q: %w", c.MetricsAddr, err)
		}
	}
	return nil
}

// Address returns the address to pass to mpdprotocol.Dial.
func (c *Config) Address() string {
	if c.Socket != "" {
		return c.Socket
	}
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}
