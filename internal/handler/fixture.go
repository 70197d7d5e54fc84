package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/faucetdb/fixturebake/internal/bake"
	"github.com/faucetdb/fixturebake/internal/config"
	"github.com/faucetdb/fixturebake/internal/fixture"
)

// maxPreviewCount caps the records a preview may generate or sample.
const maxPreviewCount = 1000

// FixtureHandler serves the read-only fixture preview API. Nothing it does
// writes to disk.
type FixtureHandler struct {
	baker *bake.Baker
	cfg   *config.YAMLConfig
}

// NewFixtureHandler creates a FixtureHandler.
func NewFixtureHandler(baker *bake.Baker, cfg *config.YAMLConfig) *FixtureHandler {
	return &FixtureHandler{baker: baker, cfg: cfg}
}

type connectionInfo struct {
	Name   string `json:"name"`
	Driver string `json:"driver"`
	Schema string `json:"schema,omitempty"`
}

// ListConnections handles GET /api/v1/connections.
func (h *FixtureHandler) ListConnections(w http.ResponseWriter, r *http.Request) {
	names := h.cfg.ConnectionNames()
	items := make([]connectionInfo, 0, len(names))
	for _, name := range names {
		c := h.cfg.Connections[name]
		items = append(items, connectionInfo{Name: name, Driver: c.Driver, Schema: c.Schema})
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"resource": items})
}

// ListTables handles GET /api/v1/{connection}/tables.
func (h *FixtureHandler) ListTables(w http.ResponseWriter, r *http.Request) {
	connection := chi.URLParam(r, "connection")

	tables, err := h.baker.Tables(r.Context(), connection)
	if err != nil {
		status, msg := classifyError(err, "Failed to list tables")
		writeError(w, status, msg)
		return
	}

	resources := make([]map[string]interface{}, len(tables))
	for i, t := range tables {
		resources[i] = map[string]interface{}{
			"name":  t,
			"model": fixture.ModelName(t),
		}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"resource": resources})
}

// DescribeTable handles GET /api/v1/{connection}/tables/{table}.
func (h *FixtureHandler) DescribeTable(w http.ResponseWriter, r *http.Request) {
	connection := chi.URLParam(r, "connection")
	tableName := chi.URLParam(r, "table")

	table, err := h.baker.Describe(r.Context(), connection, tableName)
	if err != nil {
		status, msg := classifyError(err, "Failed to describe table")
		writeError(w, status, msg, map[string]interface{}{"table": tableName})
		return
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

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"name":        table.Name,
		"model":       fixture.ModelName(table.Name),
		"primary_key": table.PrimaryKey,
		"columns":     cols,
		"schema":      fixture.BuildSchema(table),
	})
}

// PreviewFixture handles GET /api/v1/{connection}/fixtures/{model}.
//
// Query parameters: table, count, records, conditions, import_schema.
// The rendered fixture file is returned as text; add format=json to get
// the fixture sections instead.
func (h *FixtureHandler) PreviewFixture(w http.ResponseWriter, r *http.Request) {
	connection := chi.URLParam(r, "connection")
	modelName := chi.URLParam(r, "model")

	opts := bake.Options{
		Connection:   connection,
		Table:        queryString(r, "table"),
		Count:        queryCount(r, "count", maxPreviewCount),
		Records:      queryBool(r, "records"),
		Conditions:   queryString(r, "conditions"),
		ImportSchema: queryBool(r, "import_schema"),
	}

	res, err := h.baker.Build(r.Context(), modelName, fixture.ModeSingle, opts)
	if err != nil {
		status, msg := classifyError(err, "Failed to bake fixture")
		writeError(w, status, msg, map[string]interface{}{"model": modelName})
		return
	}

	if queryString(r, "format") == "json" {
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"model":     res.Model,
			"table":     res.Table,
			"file_name": res.Artifact.FileName,
			"namespace": res.Artifact.Namespace,
			"schema":    res.Artifact.Schema,
			"records":   res.Artifact.Records,
			"import":    res.Artifact.Import,
			"content":   string(res.Content),
		})
		return
	}

	w.Header().Set("Content-Type", "text/x-php; charset=utf-8")
	w.Header().Set("Content-Disposition", `inline; filename="`+res.Artifact.FileName+`"`)
	w.WriteHeader(http.StatusOK)
	w.Write(res.Content)
}
