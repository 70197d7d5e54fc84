package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. FIXTUREBAKE_FIXTURES_COUNT.
const EnvPrefix = "FIXTUREBAKE"

// LoadDotEnv loads KEY=value pairs from path into the process environment.
// Variables that are already set win. A missing file is not an error.
func LoadDotEnv(path string) error {
	if path == "" {
		path = ".env"
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

// Load builds the effective configuration. The file viper resolved, if
// any, is read first; scalar settings found in v (flags, environment) are
// then applied on top. FIXTUREBAKE_DRIVER and FIXTUREBAKE_DSN define or
// override the default connection without a config file.
func Load(v *viper.Viper) (*YAMLConfig, error) {
	cfg := DefaultYAMLConfig()
	if path := v.ConfigFileUsed(); path != "" {
		loaded, err := LoadYAMLConfig(path)
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
		if loaded != nil {
			cfg = loaded
		}
	}

	if s := v.GetString("fixtures.path"); s != "" {
		cfg.Fixtures.Path = s
	}
	if s := v.GetString("fixtures.namespace"); s != "" {
		cfg.Fixtures.Namespace = s
	}
	if n := v.GetInt("fixtures.count"); n > 0 {
		cfg.Fixtures.Count = n
	}
	if s := v.GetString("server.host"); s != "" {
		cfg.Server.Host = s
	}
	if n := v.GetInt("server.port"); n > 0 {
		cfg.Server.Port = n
	}
	if s := v.GetString("logging.level"); s != "" {
		cfg.Logging.Level = s
	}
	if s := v.GetString("logging.format"); s != "" {
		cfg.Logging.Format = s
	}

	dsn := v.GetString("dsn")
	driver := v.GetString("driver")
	if dsn != "" || driver != "" {
		conn := cfg.Connections[DefaultConnection]
		if dsn != "" {
			conn.DSN = os.ExpandEnv(dsn)
		}
		if driver != "" {
			conn.Driver = driver
		}
		if s := v.GetString("schema"); s != "" {
			conn.Schema = s
		}
		cfg.Connections[DefaultConnection] = conn
	}
	return cfg, nil
}

// BindEnv configures v to read FIXTUREBAKE_* variables, mapping nested keys
// such as fixtures.count to FIXTUREBAKE_FIXTURES_COUNT.
func BindEnv(v *viper.Viper) {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for _, key := range []string{
		"dsn", "driver", "schema",
		"fixtures.path", "fixtures.namespace", "fixtures.count",
		"server.host", "server.port",
		"logging.level", "logging.format",
	} {
		_ = v.BindEnv(key)
	}
}
