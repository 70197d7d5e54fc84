package config

import (
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/faucetdb/fixturebake/internal/connector"
	"github.com/faucetdb/fixturebake/internal/model"
)

// DefaultConnection is the connection used when none is named.
const DefaultConnection = "default"

// YAMLConfig represents the top-level fixturebake configuration file.
type YAMLConfig struct {
	Connections map[string]ConnectionYAML `yaml:"connections"`
	Fixtures    FixturesConfig            `yaml:"fixtures"`
	Server      ServerConfig              `yaml:"server"`
	Logging     LoggingConfig             `yaml:"logging"`
}

// ConnectionYAML defines a database connection in the configuration file.
type ConnectionYAML struct {
	Driver         string          `yaml:"driver"`
	DSN            string          `yaml:"dsn"`
	Schema         string          `yaml:"schema,omitempty"`
	PrivateKeyPath string          `yaml:"private_key_path,omitempty"`
	Pool           *PoolYAMLConfig `yaml:"pool,omitempty"`
}

// PoolYAMLConfig controls the connection pool for a connection.
type PoolYAMLConfig struct {
	MaxOpenConns    int    `yaml:"max_open_conns"`
	MaxIdleConns    int    `yaml:"max_idle_conns"`
	ConnMaxLifetime string `yaml:"conn_max_lifetime"`
	ConnMaxIdleTime string `yaml:"conn_max_idle_time"`
}

// FixturesConfig controls where and how fixture files are written.
type FixturesConfig struct {
	Path      string `yaml:"path"`
	Namespace string `yaml:"namespace"`
	Count     int    `yaml:"count"`
}

// ServerConfig controls the HTTP preview server.
type ServerConfig struct {
	Host              string   `yaml:"host"`
	Port              int      `yaml:"port"`
	CORSOrigins       []string `yaml:"cors_origins"`
	RequestsPerMinute int      `yaml:"requests_per_minute"`
}

// LoggingConfig controls log output.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// LoadYAMLConfig reads and parses a YAML configuration file on top of the
// defaults. Environment variables referenced as ${VAR_NAME} in the file are
// expanded before parsing.
func LoadYAMLConfig(path string) (*YAMLConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	// Expand environment variables: ${VAR_NAME}
	content := os.ExpandEnv(string(data))

	cfg := DefaultYAMLConfig()
	if err := yaml.Unmarshal([]byte(content), cfg); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}
	if cfg.Connections == nil {
		cfg.Connections = map[string]ConnectionYAML{}
	}
	return cfg, nil
}

// DefaultYAMLConfig returns a YAMLConfig pre-filled with sensible defaults.
func DefaultYAMLConfig() *YAMLConfig {
	return &YAMLConfig{
		Connections: map[string]ConnectionYAML{},
		Fixtures: FixturesConfig{
			Path:      "tests/Fixture",
			Namespace: "App",
			Count:     10,
		},
		Server: ServerConfig{
			Host:              "127.0.0.1",
			Port:              8089,
			CORSOrigins:       []string{"*"},
			RequestsPerMinute: 600,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// WriteDefaultConfig writes the default configuration to a YAML file.
func WriteDefaultConfig(path string) error {
	cfg := DefaultYAMLConfig()
	cfg.Connections[DefaultConnection] = ConnectionYAML{
		Driver: "mysql",
		DSN:    "${DATABASE_URL}",
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Connection returns the named connection, or ErrNotFound.
func (c *YAMLConfig) Connection(name string) (ConnectionYAML, error) {
	if name == "" {
		name = DefaultConnection
	}
	conn, ok := c.Connections[name]
	if !ok {
		return ConnectionYAML{}, fmt.Errorf("connection %q: %w", name, ErrNotFound)
	}
	return conn, nil
}

// ConnectionNames returns the configured connection names, sorted.
func (c *YAMLConfig) ConnectionNames() []string {
	names := make([]string, 0, len(c.Connections))
	for name := range c.Connections {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ConnectionConfig converts the file entry into connector settings. Pool
// settings left unset take the model defaults.
func (c ConnectionYAML) ConnectionConfig() (connector.ConnectionConfig, error) {
	if c.Driver == "" {
		return connector.ConnectionConfig{}, fmt.Errorf("driver is required")
	}
	if c.DSN == "" {
		return connector.ConnectionConfig{}, fmt.Errorf("dsn is required")
	}

	pool := model.DefaultPoolConfig()
	if p := c.Pool; p != nil {
		if p.MaxOpenConns > 0 {
			pool.MaxOpenConns = p.MaxOpenConns
		}
		if p.MaxIdleConns > 0 {
			pool.MaxIdleConns = p.MaxIdleConns
		}
		if p.ConnMaxLifetime != "" {
			d, err := time.ParseDuration(p.ConnMaxLifetime)
			if err != nil {
				return connector.ConnectionConfig{}, fmt.Errorf("conn_max_lifetime: %w", err)
			}
			pool.ConnMaxLifetime = d
		}
		if p.ConnMaxIdleTime != "" {
			d, err := time.ParseDuration(p.ConnMaxIdleTime)
			if err != nil {
				return connector.ConnectionConfig{}, fmt.Errorf("conn_max_idle_time: %w", err)
			}
			pool.ConnMaxIdleTime = d
		}
	}

	return connector.ConnectionConfig{
		Driver:          c.Driver,
		DSN:             connector.SanitizeDSN(c.Driver, c.DSN),
		SchemaName:      c.Schema,
		PrivateKeyPath:  c.PrivateKeyPath,
		MaxOpenConns:    pool.MaxOpenConns,
		MaxIdleConns:    pool.MaxIdleConns,
		ConnMaxLifetime: pool.ConnMaxLifetime,
		ConnMaxIdleTime: pool.ConnMaxIdleTime,
	}, nil
}

// SlogLevel maps the configured level name to a slog.Level. Unknown names
// fall back to info.
func (l LoggingConfig) SlogLevel() slog.Level {
	switch strings.ToLower(l.Level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}
