package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, "localhost", cfg.Host)
	assert.Equal(t, 6600, cfg.Port)
	assert.Equal(t, 5*time.Second, cfg.DialTimeout)
	assert.Equal(t, "localhost:6600", cfg.Address())
	assert.NoError(t, cfg.Validate())
}

func TestParse(t *testing.T) {
	yaml := `
host: music.local
port: 6601
password: secret
dial_timeout: 2s
command_timeout: 30s
metrics_addr: 127.0.0.1:9101
idle_subsystems: [player, mixer]
log:
  level: debug
  file: /tmp/ampd.log
  max_size_mb: 5
  json: true
`
	cfg, err := Parse([]byte(yaml))
	require.NoError(t, err)

	assert.Equal(t, "music.local", cfg.Host)
	assert.Equal(t, 6601, cfg.Port)
	assert.Equal(t, "secret", cfg.Password)
	assert.Equal(t, 2*time.Second, cfg.DialTimeout)
	assert.Equal(t, 30*time.Second, cfg.CommandTimeout)
	assert.Equal(t, "127.0.0.1:9101", cfg.MetricsAddr)
	assert.Equal(t, []string{"player", "mixer"}, cfg.IdleSubsystems)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "/tmp/ampd.log", cfg.Log.File)
	assert.Equal(t, 5, cfg.Log.MaxSizeMB)
	assert.Equal(t, 3, cfg.Log.MaxBackups)
	assert.True(t, cfg.Log.JSON)
	assert.Equal(t, "music.local:6601", cfg.Address())
	assert.NoError(t, cfg.Validate())
}

func TestParseSocket(t *testing.T) {
	cfg, err := Parse([]byte("socket: /run/mpd/socket\n"))
	require.NoError(t, err)
	assert.Equal(t, "/run/mpd/socket", cfg.Address())
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"invalid yaml", "host: [unclosed"},
		{"invalid dial timeout", "dial_timeout: soon"},
		{"invalid command timeout", "command_timeout: 5 minutes"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			assert.Error(t, err)
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("port: 7000\n"), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 7000, cfg.Port)
}

func TestDefaultConfigPath(t *testing.T) {
	t.Setenv("AMPD_CONFIG", "")
	t.Setenv("XDG_CONFIG_HOME", "/xdg")
	assert.Equal(t, "/xdg/ampd/config.yaml", DefaultConfigPath())

	t.Setenv("AMPD_CONFIG", "/etc/ampd.yaml")
	assert.Equal(t, "/etc/ampd.yaml", DefaultConfigPath())
}

func TestApplyEnv(t *testing.T) {
	tests := []struct {
		name     string
		env      map[string]string
		address  string
		password string
		wantErr  bool
	}{
		{"none", nil, "localhost:6600", "", false},
		{"host", map[string]string{"MPD_HOST": "music.local"}, "music.local:6600", "", false},
		{"host and port", map[string]string{"MPD_HOST": "music.local", "MPD_PORT": "6700"}, "music.local:6700", "", false},
		{"password", map[string]string{"MPD_HOST": "pw@music.local"}, "music.local:6600", "pw", false},
		{"socket", map[string]string{"MPD_HOST": "/run/mpd/socket"}, "/run/mpd/socket", "", false},
		{"abstract socket", map[string]string{"MPD_HOST": "@mpd"}, "@mpd", "", false},
		{"bad port", map[string]string{"MPD_PORT": "x"}, "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			err := cfg.ApplyEnv(func(k string) string { return tt.env[k] })
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.address, cfg.Address())
			assert.Equal(t, tt.password, cfg.Password)
		})
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{"empty host", func(c *Config) { c.Host = "" }},
		{"port zero", func(c *Config) { c.Port = 0 }},
		{"port too large", func(c *Config) { c.Port = 70000 }},
		{"no dial timeout", func(c *Config) { c.DialTimeout = 0 }},
		{"no command timeout", func(c *Config) { c.CommandTimeout = -time.Second }},
		{"negative backups", func(c *Config) { c.Log.MaxBackups = -1 }},
		{"bad metrics address", func(c *Config) { c.MetricsAddr = "9101" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
