package mcp

import (
	"context"
	"errors"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/faucetdb/fixturebake/internal/bake"
	"github.com/faucetdb/fixturebake/internal/config"
	"github.com/faucetdb/fixturebake/internal/connector"
	"github.com/faucetdb/fixturebake/internal/fixture"
	"github.com/faucetdb/fixturebake/internal/render"
)

// maxCount caps the records a single tool call may generate or sample.
const maxCount = 1000

// registerTools registers all fixturebake MCP tools on the given server.
func (s *MCPServer) registerTools(srv *server.MCPServer) {

	// ----- Discovery tools -----

	srv.AddTool(
		mcp.NewTool("fixturebake_list_connections",
			mcp.WithDescription(
				"List the database connections configured for fixturebake, with their "+
					"driver. Use this first to discover which connection to bake from.",
			),
			mcp.WithToolAnnotation(readOnlyAnnotation()),
		),
		s.handleListConnections,
	)

	srv.AddTool(
		mcp.NewTool("fixturebake_list_tables",
			mcp.WithDescription(
				"List all tables of a connection. Each table can be baked into a "+
					"test fixture.",
			),
			mcp.WithToolAnnotation(readOnlyAnnotation()),
			mcp.WithString("connection",
				mcp.Description("Connection name (default: \"default\")"),
			),
		),
		s.handleListTables,
	)

	srv.AddTool(
		mcp.NewTool("fixturebake_describe_table",
			mcp.WithDescription(
				"Describe a table: its columns with abstract types, lengths, nullability "+
					"and defaults, its primary key, and the fixture schema literal that a "+
					"baked fixture would embed.",
			),
			mcp.WithToolAnnotation(readOnlyAnnotation()),
			mcp.WithString("connection",
				mcp.Description("Connection name (default: \"default\")"),
			),
			mcp.WithString("table",
				mcp.Required(),
				mcp.Description("Name of the table to describe"),
			),
		),
		s.handleDescribeTable,
	)

	// ----- Bake tool -----

	srv.AddTool(
		mcp.NewTool("fixturebake_bake",
			mcp.WithDescription(
				"Bake a test fixture class for a model. Returns the fixture file content. "+
					"Records are generated placeholders unless 'records' is set, in which "+
					"case live rows matching 'conditions' are copied. Set 'write' to store "+
					"the file in the fixture directory.",
			),
			mcp.WithToolAnnotation(mutatingAnnotation()),
			mcp.WithString("model",
				mcp.Required(),
				mcp.Description("Model name, e.g. \"BlogPosts\" or \"Blog.Posts\" for a plugin"),
			),
			mcp.WithString("connection",
				mcp.Description("Connection name (default: \"default\")"),
			),
			mcp.WithString("table",
				mcp.Description("Table to read when it differs from the model's conventional table"),
			),
			mcp.WithNumber("count",
				mcp.Description("Number of records (default 1, or 10 when sampling; max 1000)"),
			),
			mcp.WithBoolean("import_schema",
				mcp.Description("Import the schema from the model instead of embedding it"),
			),
			mcp.WithBoolean("records",
				mcp.Description("Copy records from the live table"),
			),
			mcp.WithString("conditions",
				mcp.Description("SQL condition for sampled records (default \"1=1\")"),
			),
			mcp.WithBoolean("write",
				mcp.Description("Write the fixture file instead of only returning it"),
			),
			mcp.WithBoolean("force",
				mcp.Description("Overwrite an existing fixture file when writing"),
			),
		),
		s.handleBake,
	)
}

// =========================================================================
// Tool handlers
// =========================================================================

// handleListConnections returns the configured connections.
func (s *MCPServer) handleListConnections(
	ctx context.Context,
	request mcp.CallToolRequest,
) (*mcp.CallToolResult, error) {
	return successJSON(s.connections())
}

type connectionInfo struct {
	Name    string `json:"name"`
	Driver  string `json:"driver"`
	Schema  string `json:"schema,omitempty"`
	Default bool   `json:"default,omitempty"`
}

func (s *MCPServer) connections() []connectionInfo {
	names := s.cfg.ConnectionNames()
	items := make([]connectionInfo, 0, len(names))
	for _, name := range names {
		conn := s.cfg.Connections[name]
		items = append(items, connectionInfo{
			Name:    name,
			Driver:  conn.Driver,
			Schema:  conn.Schema,
			Default: name == config.DefaultConnection,
		})
	}
	return items
}

// handleListTables returns the table names of a connection.
func (s *MCPServer) handleListTables(
	ctx context.Context,
	request mcp.CallToolRequest,
) (*mcp.CallToolResult, error) {

	connection := optionalString(request, "connection")
	tables, err := s.baker.Tables(ctx, connection)
	if err != nil {
		return s.connectionError(connection, err)
	}

	return successJSON(map[string]interface{}{
		"connection": connectionName(connection),
		"tables":     tables,
	})
}

// handleDescribeTable returns the columns and schema literal of a table.
func (s *MCPServer) handleDescribeTable(
	ctx context.Context,
	request mcp.CallToolRequest,
) (*mcp.CallToolResult, error) {

	tableName, err := requireString(request, "table")
	if err != nil {
		return toolError("%v", err)
	}
	connection := optionalString(request, "connection")

	table, err := s.baker.Describe(ctx, connection, tableName)
	if err != nil {
		if errors.Is(err, config.ErrNotFound) {
			return s.connectionError(connection, err)
		}
		if errors.Is(err, connector.ErrIntrospectionUnsupported) {
			return toolError("Connection %q cannot describe tables: %v", connectionName(connection), err)
		}
		// Provide available table names to help the LLM self-correct.
		names, _ := s.baker.Tables(ctx, connection)
		return toolError("Table %q not found in connection %q: %v\n\nAvailable tables: %v",
			tableName, connectionName(connection), err, names)
	}

	type columnInfo struct {
		Name   string `json:"name"`
		Type   string `json:"type"`
		DBType string `json:"db_type,omitempty"`
		Length *int64 `json:"length,omitempty"`
		Null   bool   `json:"null"`
	}
	cols := make([]columnInfo, len(table.Columns))
	for i, c := range table.Columns {
		cols[i] = columnInfo{
			Name:   c.Name,
			Type:   string(c.Type),
			DBType: c.DBType,
			Length: c.Length,
			Null:   c.Null,
		}
	}

	return successJSON(map[string]interface{}{
		"table":       table.Name,
		"primary_key": table.PrimaryKey,
		"columns":     cols,
		"schema":      fixture.BuildSchema(table),
	})
}

// handleBake builds a fixture and optionally writes it.
func (s *MCPServer) handleBake(
	ctx context.Context,
	request mcp.CallToolRequest,
) (*mcp.CallToolResult, error) {

	modelName, err := requireString(request, "model")
	if err != nil {
		return toolError("%v", err)
	}

	opts := bake.Options{
		Connection:   optionalString(request, "connection"),
		Table:        optionalString(request, "table"),
		Count:        optionalCount(request, "count"),
		ImportSchema: request.GetBool("import_schema", false),
		Records:      request.GetBool("records", false),
		Conditions:   optionalString(request, "conditions"),
		Force:        request.GetBool("force", false),
	}

	res, err := s.baker.Build(ctx, modelName, fixture.ModeSingle, opts)
	if err != nil {
		if errors.Is(err, config.ErrNotFound) {
			return s.connectionError(opts.Connection, err)
		}
		return toolError("Failed to bake %q: %v", modelName, err)
	}

	out := map[string]interface{}{
		"model":     res.Model,
		"table":     res.Table,
		"file_name": res.Artifact.FileName,
		"content":   string(res.Content),
	}

	if request.GetBool("write", false) {
		w := render.Writer{Dir: render.Path(s.cfg.Fixtures.Path, res.Plugin), Force: opts.Force}
		path, err := w.Write(res.Artifact, res.Content)
		if err != nil {
			if errors.Is(err, render.ErrFileExists) {
				return toolError("%v. Pass force=true to overwrite.", err)
			}
			return toolError("Failed to write fixture: %v", err)
		}
		s.logger.Info("fixture written", "model", res.Model, "path", path)
		out["path"] = path
	}

	return successJSON(out)
}

func (s *MCPServer) connectionError(connection string, err error) (*mcp.CallToolResult, error) {
	names := s.cfg.ConnectionNames()
	if errors.Is(err, config.ErrNotFound) {
		return toolError("Connection %q is not configured. Available connections: %v",
			connectionName(connection), names)
	}
	return toolError("Connection %q failed: %v. Available connections: %v",
		connectionName(connection), err, names)
}

func connectionName(name string) string {
	if name == "" {
		return config.DefaultConnection
	}
	return name
}
