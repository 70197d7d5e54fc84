package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/viper"

	"github.com/faucetdb/fixturebake/internal/bake"
	"github.com/faucetdb/fixturebake/internal/config"
	"github.com/faucetdb/fixturebake/internal/connector"
	"github.com/faucetdb/fixturebake/internal/connector/mssql"
	"github.com/faucetdb/fixturebake/internal/connector/mysql"
	"github.com/faucetdb/fixturebake/internal/connector/oracle"
	"github.com/faucetdb/fixturebake/internal/connector/postgres"
	"github.com/faucetdb/fixturebake/internal/connector/snowflake"
	"github.com/faucetdb/fixturebake/internal/connector/sqlite"
)

// newRegistry creates a connector registry with all supported database drivers registered.
func newRegistry() *connector.Registry {
	registry := connector.NewRegistry()
	registry.RegisterDriver("postgres", postgres.New)
	registry.RegisterDriver("mysql", mysql.New)
	registry.RegisterDriver("mssql", mssql.New)
	registry.RegisterDriver("snowflake", snowflake.New)
	registry.RegisterDriver("sqlite", sqlite.New)
	registry.RegisterDriver("oracle", oracle.New)
	return registry
}

// loadConfig resolves the effective configuration from the config file,
// FIXTUREBAKE_* variables and bound flags.
func loadConfig() (*config.YAMLConfig, error) {
	if cfgFile != "" {
		if _, err := os.Stat(cfgFile); err != nil {
			return nil, fmt.Errorf("config file: %w", err)
		}
	}
	cfg, err := config.Load(viper.GetViper())
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

// newLogger builds the stderr logger. --verbose forces debug level.
func newLogger(cfg *config.YAMLConfig) *slog.Logger {
	return newLoggerTo(os.Stderr, cfg)
}

func newLoggerTo(w io.Writer, cfg *config.YAMLConfig) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.Logging.SlogLevel()}
	if verbose {
		opts.Level = slog.LevelDebug
	}
	if strings.EqualFold(cfg.Logging.Format, "json") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// runtimeEnv is what every command that touches a database needs.
type runtimeEnv struct {
	cfg      *config.YAMLConfig
	registry *connector.Registry
	baker    *bake.Baker
	logger   *slog.Logger
}

// newRuntime loads the configuration and wires a Baker over a fresh
// registry. Callers must call close.
func newRuntime() (*runtimeEnv, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	logger := newLogger(cfg)
	registry := newRegistry()
	return &runtimeEnv{
		cfg:      cfg,
		registry: registry,
		baker:    bake.New(cfg, registry, logger),
		logger:   logger,
	}, nil
}

func (e *runtimeEnv) close() {
	e.registry.CloseAll()
}

// versionString returns a display version string.
func versionString() string {
	if appVersion == "" || appVersion == "dev" {
		return "dev"
	}
	if strings.HasPrefix(appVersion, "v") {
		return appVersion
	}
	return "v" + appVersion
}
