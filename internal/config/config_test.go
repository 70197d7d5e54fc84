package config

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestLoadYAMLConfig(t *testing.T) {
	t.Setenv("FB_TEST_DSN", "root:secret@tcp(localhost:3306)/app")

	path := writeFile(t, "fixturebake.yaml", `
connections:
  default:
    driver: mysql
    dsn: "${FB_TEST_DSN}"
    schema: app
    pool:
      max_open_conns: 5
      conn_max_lifetime: 10m
  reporting:
    driver: postgres
    dsn: postgres://localhost/reports
fixtures:
  path: tests/Fixture
  namespace: Shop
logging:
  level: debug
`)

	cfg, err := LoadYAMLConfig(path)
	if err != nil {
		t.Fatalf("LoadYAMLConfig: %v", err)
	}

	conn, err := cfg.Connection("")
	if err != nil {
		t.Fatalf("Connection: %v", err)
	}
	if conn.DSN != "root:secret@tcp(localhost:3306)/app" {
		t.Errorf("dsn not expanded: %q", conn.DSN)
	}
	if cfg.Fixtures.Namespace != "Shop" {
		t.Errorf("namespace = %q, want Shop", cfg.Fixtures.Namespace)
	}
	// Unset keys keep their defaults.
	if cfg.Fixtures.Count != 10 {
		t.Errorf("count = %d, want default 10", cfg.Fixtures.Count)
	}
	if cfg.Server.Port != 8089 {
		t.Errorf("port = %d, want default 8089", cfg.Server.Port)
	}
	if got := cfg.Logging.SlogLevel(); got != slog.LevelDebug {
		t.Errorf("SlogLevel = %v, want debug", got)
	}

	names := cfg.ConnectionNames()
	if len(names) != 2 || names[0] != "default" || names[1] != "reporting" {
		t.Errorf("ConnectionNames = %v", names)
	}

	cc, err := conn.ConnectionConfig()
	if err != nil {
		t.Fatalf("ConnectionConfig: %v", err)
	}
	if cc.MaxOpenConns != 5 {
		t.Errorf("MaxOpenConns = %d, want 5", cc.MaxOpenConns)
	}
	if cc.MaxIdleConns != 2 {
		t.Errorf("MaxIdleConns = %d, want pool default 2", cc.MaxIdleConns)
	}
	if cc.ConnMaxLifetime != 10*time.Minute {
		t.Errorf("ConnMaxLifetime = %v, want 10m", cc.ConnMaxLifetime)
	}
	if cc.SchemaName != "app" {
		t.Errorf("SchemaName = %q, want app", cc.SchemaName)
	}
}

func TestLoadYAMLConfig_Errors(t *testing.T) {
	if _, err := LoadYAMLConfig(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}

	path := writeFile(t, "bad.yaml", "connections: [not, a, map]\n")
	if _, err := LoadYAMLConfig(path); err == nil {
		t.Error("expected error for malformed file")
	}
}

func TestConnection_NotFound(t *testing.T) {
	cfg := DefaultYAMLConfig()
	_, err := cfg.Connection("nope")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestConnectionConfig_Validation(t *testing.T) {
	tests := []struct {
		name string
		conn ConnectionYAML
	}{
		{"missing driver", ConnectionYAML{DSN: "x"}},
		{"missing dsn", ConnectionYAML{Driver: "mysql"}},
		{"bad duration", ConnectionYAML{Driver: "mysql", DSN: "x", Pool: &PoolYAMLConfig{ConnMaxIdleTime: "soon"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := tt.conn.ConnectionConfig(); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestSlogLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"INFO":    slog.LevelInfo,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"verbose": slog.LevelInfo,
	}
	for in, want := range tests {
		if got := (LoggingConfig{Level: in}).SlogLevel(); got != want {
			t.Errorf("SlogLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestWriteDefaultConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fixturebake.yaml")
	if err := WriteDefaultConfig(path); err != nil {
		t.Fatalf("WriteDefaultConfig: %v", err)
	}

	t.Setenv("DATABASE_URL", "root@tcp(db)/app")
	cfg, err := LoadYAMLConfig(path)
	if err != nil {
		t.Fatalf("LoadYAMLConfig: %v", err)
	}
	conn, err := cfg.Connection(DefaultConnection)
	if err != nil {
		t.Fatalf("Connection: %v", err)
	}
	if conn.Driver != "mysql" || conn.DSN != "root@tcp(db)/app" {
		t.Errorf("unexpected default connection %+v", conn)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	path := writeFile(t, "fixturebake.yaml", `
connections:
  default:
    driver: mysql
    dsn: root@tcp(localhost)/app
fixtures:
  count: 3
`)
	t.Setenv("FIXTUREBAKE_FIXTURES_COUNT", "25")
	t.Setenv("FIXTUREBAKE_DSN", "root@tcp(other)/app")
	t.Setenv("FIXTUREBAKE_LOGGING_LEVEL", "warn")

	v := viper.New()
	v.SetConfigFile(path)
	BindEnv(v)
	if err := v.ReadInConfig(); err != nil {
		t.Fatalf("ReadInConfig: %v", err)
	}

	cfg, err := Load(v)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Fixtures.Count != 25 {
		t.Errorf("count = %d, want 25", cfg.Fixtures.Count)
	}
	conn := cfg.Connections[DefaultConnection]
	if conn.Driver != "mysql" {
		t.Errorf("driver = %q, want mysql from file", conn.Driver)
	}
	if conn.DSN != "root@tcp(other)/app" {
		t.Errorf("dsn = %q, want env override", conn.DSN)
	}
	if cfg.Logging.SlogLevel() != slog.LevelWarn {
		t.Errorf("level = %q, want warn", cfg.Logging.Level)
	}
}

func TestLoad_NoFile(t *testing.T) {
	t.Setenv("FIXTUREBAKE_DRIVER", "sqlite")
	t.Setenv("FIXTUREBAKE_DSN", ":memory:")

	v := viper.New()
	BindEnv(v)
	cfg, err := Load(v)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	conn, err := cfg.Connection("")
	if err != nil {
		t.Fatalf("Connection: %v", err)
	}
	if conn.Driver != "sqlite" || conn.DSN != ":memory:" {
		t.Errorf("unexpected connection %+v", conn)
	}
}

func TestLoadDotEnv(t *testing.T) {
	if err := LoadDotEnv(filepath.Join(t.TempDir(), ".env")); err != nil {
		t.Errorf("missing .env should be ignored, got %v", err)
	}

	path := writeFile(t, ".env", "FB_DOTENV_VALUE=from-file\n")
	t.Setenv("FB_DOTENV_VALUE", "")
	os.Unsetenv("FB_DOTENV_VALUE")
	if err := LoadDotEnv(path); err != nil {
		t.Fatalf("LoadDotEnv: %v", err)
	}
	t.Cleanup(func() { os.Unsetenv("FB_DOTENV_VALUE") })
	if got := os.Getenv("FB_DOTENV_VALUE"); got != "from-file" {
		t.Errorf("FB_DOTENV_VALUE = %q, want from-file", got)
	}
}
