package connector

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"
	mysqldriver "github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"

	"github.com/faucetdb/fixturebake/internal/model"
)

// ErrIntrospectionUnsupported is returned when a connection cannot describe
// its tables, so no fixture can be generated from it.
var ErrIntrospectionUnsupported = errors.New("connection does not support schema introspection")

// ConnectionConfig holds database connection parameters.
type ConnectionConfig struct {
	Driver          string
	DSN             string
	SchemaName      string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
	PrivateKeyPath  string // Path to PEM-encoded private key file (Snowflake JWT auth)
}

// Connector is the interface that all database connectors must implement.
type Connector interface {
	// Connection management
	Connect(cfg ConnectionConfig) error
	Disconnect() error
	Ping(ctx context.Context) error
	DB() *sqlx.DB

	GetTableNames(ctx context.Context) ([]string, error)

	// Metadata
	DriverName() string
	QuoteIdentifier(name string) string
	PlaceholderFormat() squirrel.PlaceholderFormat
}

// Describer is implemented by connectors that can introspect a single
// table into a model.TableSchema.
type Describer interface {
	DescribeTable(ctx context.Context, tableName string) (*model.TableSchema, error)
}

// Describe returns the schema of tableName, or ErrIntrospectionUnsupported
// when conn cannot introspect.
func Describe(ctx context.Context, conn Connector, tableName string) (*model.TableSchema, error) {
	d, ok := conn.(Describer)
	if !ok {
		return nil, fmt.Errorf("%s: %w", conn.DriverName(), ErrIntrospectionUnsupported)
	}
	table, err := d.DescribeTable(ctx, tableName)
	if err != nil {
		return nil, fmt.Errorf("describe %q: %w", tableName, err)
	}
	return table, nil
}

// SanitizeDSN normalizes a DSN before it reaches the driver. URL-style
// DSNs (postgres, mssql, oracle) get their credentials percent-encoded so passwords
// with @, # or % survive URL parsing. MySQL DSNs are rewritten into the
// user:pass@tcp(host:port)/db form go-sql-driver expects. Other drivers
// use their own formats and pass through unchanged.
func SanitizeDSN(driver, dsn string) string {
	switch driver {
	case "postgres", "mssql", "oracle":
		return encodeURLCredentials(dsn)
	case "mysql":
		return normalizeMySQLDSN(dsn)
	}
	return dsn
}

// mysqlHostPort matches user:pass@host:port/db written without tcp().
var mysqlHostPort = regexp.MustCompile(`^(.+)@([^(@]+:\d+)(/.*)?$`)

func normalizeMySQLDSN(dsn string) string {
	if cfg, err := mysqldriver.ParseDSN(dsn); err == nil && (cfg.Net == "tcp" || cfg.Net == "unix") {
		return cfg.FormatDSN()
	}

	candidates := []string{}
	// user:pass@(host:port)/db
	if i := strings.LastIndex(dsn, "@("); i >= 0 {
		candidates = append(candidates, dsn[:i]+"@tcp"+dsn[i+1:])
	}
	// user:pass@host:port/db
	if m := mysqlHostPort.FindStringSubmatch(dsn); m != nil {
		candidates = append(candidates, m[1]+"@tcp("+m[2]+")"+m[3])
	}
	for _, c := range candidates {
		if cfg, err := mysqldriver.ParseDSN(c); err == nil {
			return cfg.FormatDSN()
		}
	}
	// Leave it to the driver to report a useful error.
	return dsn
}

func encodeURLCredentials(dsn string) string {
	scheme, rest, ok := strings.Cut(dsn, "://")
	if !ok {
		return dsn
	}

	query := ""
	if i := strings.IndexByte(rest, '?'); i >= 0 {
		rest, query = rest[:i], rest[i:]
	}

	// The last @ separates credentials from the host, so passwords may
	// contain @ themselves.
	at := strings.LastIndex(rest, "@")
	if at < 0 {
		return dsn
	}
	user, pass, _ := strings.Cut(rest[:at], ":")

	return scheme + "://" + url.PathEscape(user) + ":" + url.PathEscape(pass) + "@" + rest[at+1:] + query
}
