// Package bake drives a fixture bake end to end: it resolves the
// connection, describes the table, runs the fixture builders and renders
// and writes the result.
package bake

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"regexp"
	"sync"

	"github.com/fatih/color"

	"github.com/faucetdb/fixturebake/internal/config"
	"github.com/faucetdb/fixturebake/internal/connector"
	"github.com/faucetdb/fixturebake/internal/fixture"
	"github.com/faucetdb/fixturebake/internal/model"
	"github.com/faucetdb/fixturebake/internal/render"
)

// ErrInvalidPlugin is returned for plugin names that are not a plain
// Plugin or Vendor/Plugin identifier.
var ErrInvalidPlugin = errors.New("invalid plugin name")

var pluginPattern = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_]*(/[A-Za-z][A-Za-z0-9_]*)?$`)

// Options are the per-run settings of a bake.
type Options struct {
	// Connection names the configured connection. Empty means
	// config.DefaultConnection.
	Connection string
	// Table overrides the conventional table of the model.
	Table string
	// Plugin bakes into the plugin's namespace and fixture path.
	Plugin string
	// Count is the explicit record count, nil for the mode default.
	Count *int
	// ImportSchema imports the schema from the model instead of embedding it.
	ImportSchema bool
	// Records samples live rows instead of generating placeholders.
	Records bool
	// Conditions filters sampled rows.
	Conditions string
	// Force overwrites existing fixture files.
	Force bool
	// Stdout prints the fixture instead of writing it.
	Stdout bool

	// importRecords adds 'records' => true to the import directive. Only
	// interactive bakes set it.
	importRecords bool
}

func (o Options) connection() string {
	if o.Connection == "" {
		return config.DefaultConnection
	}
	return o.Connection
}

// Result describes one baked fixture.
type Result struct {
	Model    string
	Table    string
	Plugin   string
	Artifact model.Artifact
	Content  []byte
	// Path is where the fixture was written, empty when it was not.
	Path string
}

// Baker bakes fixtures against the connections of a configuration.
type Baker struct {
	cfg       *config.YAMLConfig
	registry  *connector.Registry
	generator *fixture.Generator
	logger    *slog.Logger
	out       io.Writer

	connectMu sync.Mutex
}

// New creates a Baker. Connections are opened lazily through registry.
func New(cfg *config.YAMLConfig, registry *connector.Registry, logger *slog.Logger) *Baker {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Baker{
		cfg:       cfg,
		registry:  registry,
		generator: fixture.NewGenerator(),
		logger:    logger,
		out:       os.Stdout,
	}
}

// SetOutput redirects status lines and --stdout fixtures.
func (b *Baker) SetOutput(w io.Writer) { b.out = w }

// SetGenerator replaces the record generator, e.g. to pin the clock.
func (b *Baker) SetGenerator(g *fixture.Generator) { b.generator = g }

// Connector returns the open connector for name, connecting it from the
// configuration on first use.
func (b *Baker) Connector(name string) (connector.Connector, error) {
	if name == "" {
		name = config.DefaultConnection
	}
	if conn, err := b.registry.Get(name); err == nil {
		return conn, nil
	}

	b.connectMu.Lock()
	defer b.connectMu.Unlock()
	if conn, err := b.registry.Get(name); err == nil {
		return conn, nil
	}

	entry, err := b.cfg.Connection(name)
	if err != nil {
		return nil, err
	}
	cc, err := entry.ConnectionConfig()
	if err != nil {
		return nil, fmt.Errorf("connection %q: %w", name, err)
	}
	if err := b.registry.Connect(name, cc); err != nil {
		return nil, err
	}
	b.logger.Debug("connected", "connection", name, "driver", cc.Driver)
	return b.registry.Get(name)
}

// Tables lists the tables of a connection.
func (b *Baker) Tables(ctx context.Context, connection string) ([]string, error) {
	conn, err := b.Connector(connection)
	if err != nil {
		return nil, err
	}
	names, err := conn.GetTableNames(ctx)
	if err != nil {
		return nil, fmt.Errorf("list tables: %w", err)
	}
	return names, nil
}

// Describe returns the schema of a table.
func (b *Baker) Describe(ctx context.Context, connection, table string) (*model.TableSchema, error) {
	conn, err := b.Connector(connection)
	if err != nil {
		return nil, err
	}
	return connector.Describe(ctx, conn, table)
}

// Build produces the fixture for name without writing it. name may be
// plugin-qualified ("Blog.Posts"), which sets opts.Plugin.
func (b *Baker) Build(ctx context.Context, name string, mode fixture.Mode, opts Options) (*Result, error) {
	plugin, modelName := fixture.SplitPlugin(name)
	if plugin != "" {
		opts.Plugin = plugin
	}
	if opts.Plugin != "" && !pluginPattern.MatchString(opts.Plugin) {
		return nil, fmt.Errorf("plugin %q: %w", opts.Plugin, ErrInvalidPlugin)
	}
	modelName = fixture.Camelize(modelName)
	if modelName == "" {
		return nil, fmt.Errorf("bake: model name required")
	}

	table := opts.Table
	if table == "" {
		table = fixture.Tableize(modelName)
	}

	conn, err := b.Connector(opts.Connection)
	if err != nil {
		return nil, err
	}
	schema, err := connector.Describe(ctx, conn, table)
	if err != nil {
		return nil, err
	}

	in := fixture.AssembleInput{
		Model:      modelName,
		Table:      table,
		Connection: opts.connection(),
		Namespace:  b.namespace(opts.Plugin),
	}
	if opts.ImportSchema || opts.importRecords {
		in.Import = &model.ImportDirective{
			IncludeRecords: opts.importRecords,
			FromTable:      opts.importRecords,
		}
		if opts.ImportSchema {
			in.Import.SourceModel = modelName
		}
	}
	if !opts.ImportSchema {
		in.Schema = fixture.BuildSchema(schema)
	}

	var records []model.Record
	if opts.Records {
		count := b.count(fixture.ModeSample, opts.Count)
		rows, err := connector.Sample(ctx, conn, schema, connector.SampleRequest{
			Condition: opts.Conditions,
			Limit:     count,
		})
		if err != nil {
			return nil, err
		}
		records = fixture.RecordsFromRows(schema, rows)
		b.logger.Debug("sampled records", "table", table, "count", len(records))
	} else {
		records = b.generator.Generate(schema, b.count(mode, opts.Count))
	}
	in.Records = fixture.BuildRecords(records)

	art, err := fixture.Assemble(in)
	if err != nil {
		return nil, fmt.Errorf("assemble %s: %w", modelName, err)
	}
	content, err := render.Render(art)
	if err != nil {
		return nil, err
	}
	return &Result{Model: modelName, Table: table, Plugin: opts.Plugin, Artifact: art, Content: content}, nil
}

// Bake builds the fixture for name and writes it, or prints it with
// opts.Stdout.
func (b *Baker) Bake(ctx context.Context, name string, opts Options) (*Result, error) {
	return b.bake(ctx, name, fixture.ModeSingle, opts)
}

// BakeAll bakes a fixture for every table of the connection. Models import
// their own schema when opts.ImportSchema is set. A table that fails is
// logged and skipped; the joined errors are returned.
func (b *Baker) BakeAll(ctx context.Context, opts Options) ([]*Result, error) {
	tables, err := b.Tables(ctx, opts.Connection)
	if err != nil {
		return nil, err
	}

	var results []*Result
	var errs []error
	for _, table := range tables {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		o := opts
		o.Table = table
		res, err := b.bake(ctx, fixture.ModelName(table), fixture.ModeBatch, o)
		if err != nil {
			b.logger.Error("bake failed", "table", table, "error", err)
			errs = append(errs, fmt.Errorf("%s: %w", table, err))
			continue
		}
		results = append(results, res)
	}
	return results, errors.Join(errs...)
}

func (b *Baker) bake(ctx context.Context, name string, mode fixture.Mode, opts Options) (*Result, error) {
	res, err := b.Build(ctx, name, mode, opts)
	if err != nil {
		return nil, err
	}

	if opts.Stdout {
		_, err := b.out.Write(res.Content)
		return res, err
	}

	_, _ = color.New(color.FgCyan).Fprintf(b.out, "\nBaking test fixture for %s...\n", res.Model)

	w := render.Writer{Dir: render.Path(b.cfg.Fixtures.Path, res.Plugin), Force: opts.Force}
	path, err := w.Write(res.Artifact, res.Content)
	if err != nil {
		if errors.Is(err, render.ErrFileExists) {
			_, _ = color.New(color.FgYellow).Fprintf(b.out, "Skipped %s (exists, use --force to overwrite)\n", path)
		}
		return nil, err
	}
	res.Path = path
	_, _ = color.New(color.FgGreen).Fprintf(b.out, "Wrote `%s`\n", path)
	b.logger.Info("fixture written", "model", res.Model, "table", res.Table, "path", path)
	return res, nil
}

// count resolves the record count. fixtures.count replaces the default of
// the batch and sampling paths; a single bake still defaults to one record.
func (b *Baker) count(mode fixture.Mode, explicit *int) int {
	if explicit == nil && mode != fixture.ModeSingle && b.cfg.Fixtures.Count > 0 {
		return b.cfg.Fixtures.Count
	}
	return fixture.DefaultCount(mode, explicit)
}

func (b *Baker) namespace(plugin string) string {
	if plugin != "" {
		return plugin
	}
	if b.cfg.Fixtures.Namespace != "" {
		return b.cfg.Fixtures.Namespace
	}
	return render.DefaultNamespace
}
