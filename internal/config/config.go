package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/DoyleJ11/connect-four/internal/engine"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v2"
)

var ErrInvalidConfig = errors.New("invalid config")

type Role string

const (
	RoleHost  Role = "host"
	RoleGuest Role = "guest"
)

// Color is the chip a role plays. The host always plays red and moves first.
func (r Role) Color() engine.Cell {
	if r == RoleHost {
		return engine.Red
	}
	return engine.Yellow
}

type Board struct {
	Rows    int `yaml:"rows"`
	Columns int `yaml:"columns"`
	WinRun  int `yaml:"win_run"`
}

func (b Board) Engine() engine.Config {
	return engine.Config{Rows: b.Rows, Columns: b.Columns, WinRun: b.WinRun}
}

type Config struct {
	Role        Role   `yaml:"role"`
	ListenAddr  string `yaml:"listen_addr"`
	PeerAddr    string `yaml:"peer_addr"`
	ControlAddr string `yaml:"control_addr"`
	LogLevel    string `yaml:"log_level"`
	Board       Board  `yaml:"board"`
}

func Default() Config {
	d := engine.DefaultConfig()
	return Config{
		Role:        RoleHost,
		ListenAddr:  ":45000",
		PeerAddr:    "127.0.0.1:45000",
		ControlAddr: "127.0.0.1:8080",
		LogLevel:    "info",
		Board:       Board{Rows: d.Rows, Columns: d.Columns, WinRun: d.WinRun},
	}
}

// Load layers the configuration: defaults, then the YAML file at path (if
// path is not empty), then each .env file that exists, then the process
// environment. Flags are applied by the caller on top.
func Load(path string, envFiles ...string) (Config, error) {
	cfg := Default()

	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.UnmarshalStrict(raw, &cfg); err != nil {
			return cfg, fmt.Errorf("%w: parse %s: %w", ErrInvalidConfig, path, err)
		}
	}

	for _, f := range envFiles {
		vars, err := godotenv.Read(f)
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			return cfg, fmt.Errorf("read env file %s: %w", f, err)
		}
		if err := cfg.apply(func(k string) (string, bool) {
			v, ok := vars[k]
			return v, ok
		}); err != nil {
			return cfg, err
		}
	}

	if err := cfg.apply(os.LookupEnv); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c *Config) apply(lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok {
			*dst = strings.TrimSpace(v)
		}
	}
	num := func(key string, dst *int) error {
		v, ok := lookup(key)
		if !ok {
			return nil
		}
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("%w: %s=%q is not a number", ErrInvalidConfig, key, v)
		}
		*dst = n
		return nil
	}

	if v, ok := lookup("C4_ROLE"); ok {
		c.Role = Role(strings.ToLower(strings.TrimSpace(v)))
	}
	str("C4_LISTEN_ADDR", &c.ListenAddr)
	str("C4_PEER_ADDR", &c.PeerAddr)
	str("C4_CONTROL_ADDR", &c.ControlAddr)
	str("C4_LOG_LEVEL", &c.LogLevel)
	if err := num("C4_ROWS", &c.Board.Rows); err != nil {
		return err
	}
	if err := num("C4_COLUMNS", &c.Board.Columns); err != nil {
		return err
	}
	return num("C4_WIN_RUN", &c.Board.WinRun)
}

func (c Config) Validate() error {
	switch c.Role {
	case RoleHost:
		if c.ListenAddr == "" {
			return fmt.Errorf("%w: host needs a listen address", ErrInvalidConfig)
		}
	case RoleGuest:
		if c.PeerAddr == "" {
			return fmt.Errorf("%w: guest needs a peer address", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: role %q, want host or guest", ErrInvalidConfig, c.Role)
	}
	if err := c.Board.Engine().Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}
