package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/DoyleJ11/connect-four/internal/engine"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var envKeys = []string{
	"C4_ROLE", "C4_LISTEN_ADDR", "C4_PEER_ADDR", "C4_CONTROL_ADDR",
	"C4_LOG_LEVEL", "C4_ROWS", "C4_COLUMNS", "C4_WIN_RUN",
}

// clearEnv unsets every variable Load reads; t.Setenv restores them after.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range envKeys {
		t.Setenv(k, "")
		require.NoError(t, os.Unsetenv(k))
	}
}

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(p, []byte(body), 0o600))
	return p
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load("", filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.Equal(t, ":45000", cfg.ListenAddr)
	assert.Equal(t, "127.0.0.1:45000", cfg.PeerAddr)
	assert.Equal(t, engine.DefaultConfig(), cfg.Board.Engine())
	require.NoError(t, cfg.Validate())
}

func TestLoad_Precedence(t *testing.T) {
	clearEnv(t)

	yml := writeFile(t, "peer.yaml", `
role: guest
peer_addr: 10.0.0.2:45000
log_level: debug
board:
  rows: 5
  columns: 8
  win_run: 4
`)
	env := writeFile(t, ".env", "C4_PEER_ADDR=10.0.0.3:45000\nC4_ROWS=7\n")
	t.Setenv("C4_ROWS", "9")

	cfg, err := Load(yml, env)
	require.NoError(t, err)

	assert.Equal(t, RoleGuest, cfg.Role, "from yaml")
	assert.Equal(t, "debug", cfg.LogLevel, "from yaml")
	assert.Equal(t, 8, cfg.Board.Columns, "from yaml")
	assert.Equal(t, "10.0.0.3:45000", cfg.PeerAddr, ".env beats yaml")
	assert.Equal(t, 9, cfg.Board.Rows, "environment beats .env")
	assert.Equal(t, ":45000", cfg.ListenAddr, "untouched default")
}

func TestLoad_Errors(t *testing.T) {
	clearEnv(t)

	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	bad := writeFile(t, "bad.yaml", "role: host\nunknown_key: 1\n")
	_, err = Load(bad)
	assert.ErrorIs(t, err, ErrInvalidConfig)

	t.Setenv("C4_WIN_RUN", "four")
	_, err = Load("")
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		ok     bool
	}{
		{"default", func(*Config) {}, true},
		{"guest", func(c *Config) { c.Role = RoleGuest }, true},
		{"unknown role", func(c *Config) { c.Role = "spectator" }, false},
		{"host without listen addr", func(c *Config) { c.ListenAddr = "" }, false},
		{"guest without peer addr", func(c *Config) { c.Role = RoleGuest; c.PeerAddr = "" }, false},
		{"control disabled", func(c *Config) { c.ControlAddr = "" }, true},
		{"zero rows", func(c *Config) { c.Board.Rows = 0 }, false},
		{"run longer than board", func(c *Config) { c.Board.WinRun = 8 }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, ErrInvalidConfig)
			}
		})
	}
}

func TestRoleColor(t *testing.T) {
	assert.Equal(t, engine.Red, RoleHost.Color())
	assert.Equal(t, engine.Yellow, RoleGuest.Color())
}
