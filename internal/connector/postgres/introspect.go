package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/faucetdb/fixturebake/internal/connector"
	"github.com/faucetdb/fixturebake/internal/model"
)

// columnRow holds the result of querying information_schema.columns.
type columnRow struct {
	ColumnName string  `db:"column_name"`
	DataType   string  `db:"data_type"`
	UDTName    string  `db:"udt_name"`
	IsNullable string  `db:"is_nullable"`
	IsIdentity string  `db:"is_identity"`
	Default    *string `db:"column_default"`
	MaxLength  *int64  `db:"character_maximum_length"`
	Precision  *int64  `db:"numeric_precision"`
	Scale      *int64  `db:"numeric_scale"`
	Comment    *string `db:"column_comment"`
}

// DescribeTable returns the columns, keys, indexes and foreign keys of a
// single table in the configured schema.
func (c *PostgresConnector) DescribeTable(ctx context.Context, tableName string) (*model.TableSchema, error) {
	const tableQuery = `SELECT table_name FROM information_schema.tables
		WHERE table_schema = $1 AND table_name = $2`

	var name string
	if err := c.db.GetContext(ctx, &name, tableQuery, c.schemaName, tableName); err != nil {
		return nil, fmt.Errorf("table %q not found in schema %q: %w", tableName, c.schemaName, err)
	}

	// ordinal_position is the attribute number, so it doubles as the
	// pg_description sub-object id.
	const columnQuery = `SELECT
			c.column_name,
			c.data_type,
			c.udt_name,
			c.is_nullable,
			c.is_identity,
			c.column_default,
			c.character_maximum_length,
			c.numeric_precision,
			c.numeric_scale,
			d.description AS column_comment
		FROM information_schema.columns c
		LEFT JOIN pg_catalog.pg_statio_all_tables st
			ON st.schemaname = c.table_schema AND st.relname = c.table_name
		LEFT JOIN pg_catalog.pg_description d
			ON d.objoid = st.relid AND d.objsubid = c.ordinal_position
		WHERE c.table_schema = $1 AND c.table_name = $2
		ORDER BY c.ordinal_position`

	var columns []columnRow
	if err := c.db.SelectContext(ctx, &columns, columnQuery, c.schemaName, tableName); err != nil {
		return nil, fmt.Errorf("introspect columns for %q: %w", tableName, err)
	}

	table := &model.TableSchema{Name: tableName}
	for _, col := range columns {
		table.Columns = append(table.Columns, buildColumn(col))
	}

	if err := c.describeIndexes(ctx, table); err != nil {
		return nil, err
	}
	if err := c.describeForeignKeys(ctx, table); err != nil {
		return nil, err
	}
	return table, nil
}

func buildColumn(col columnRow) model.Column {
	typ := mapPostgresType(col.UDTName, col.DataType)

	var length, precision *int64
	switch typ {
	case model.TypeString:
		length = col.MaxLength
	case model.TypeFloat:
		if strings.EqualFold(col.UDTName, "numeric") {
			length, precision = col.Precision, col.Scale
		}
	}

	autoIncrement := col.IsIdentity == "YES" ||
		(col.Default != nil && strings.HasPrefix(*col.Default, "nextval("))

	var extra connector.ExtraProperties
	extra.Set("autoIncrement", autoIncrement)
	extra.Set("precision", precision)
	if col.Comment != nil {
		extra.Set("comment", *col.Comment)
	}

	return model.Column{
		Name:    col.ColumnName,
		Type:    typ,
		DBType:  col.UDTName,
		Length:  length,
		Null:    col.IsNullable == "YES",
		Default: connector.DefaultValue(col.Default, typ),
		Extra:   extra.Map(),
	}
}

func (c *PostgresConnector) describeIndexes(ctx context.Context, table *model.TableSchema) error {
	const query = `SELECT
			i.relname AS index_name,
			a.attname AS column_name,
			ix.indisprimary AS is_primary,
			ix.indisunique AS is_unique
		FROM pg_catalog.pg_index ix
		JOIN pg_catalog.pg_class t ON t.oid = ix.indrelid
		JOIN pg_catalog.pg_class i ON i.oid = ix.indexrelid
		JOIN pg_catalog.pg_namespace n ON n.oid = t.relnamespace
		JOIN pg_catalog.pg_attribute a ON a.attrelid = t.oid AND a.attnum = ANY(ix.indkey)
		WHERE n.nspname = $1 AND t.relname = $2
		ORDER BY ix.indisprimary DESC, i.relname, array_position(ix.indkey::int2[], a.attnum)`

	var rows []connector.IndexColumn
	if err := c.db.SelectContext(ctx, &rows, query, c.schemaName, table.Name); err != nil {
		return fmt.Errorf("introspect indexes for %q: %w", table.Name, err)
	}
	connector.ApplyIndexes(table, rows)
	return nil
}

func (c *PostgresConnector) describeForeignKeys(ctx context.Context, table *model.TableSchema) error {
	const query = `SELECT
			con.conname AS constraint_name,
			a.attname AS column_name,
			rt.relname AS referenced_table,
			ra.attname AS referenced_column,
			CASE con.confupdtype
				WHEN 'c' THEN 'CASCADE' WHEN 'n' THEN 'SET NULL'
				WHEN 'd' THEN 'SET DEFAULT' WHEN 'r' THEN 'RESTRICT'
				ELSE 'NO ACTION' END AS update_rule,
			CASE con.confdeltype
				WHEN 'c' THEN 'CASCADE' WHEN 'n' THEN 'SET NULL'
				WHEN 'd' THEN 'SET DEFAULT' WHEN 'r' THEN 'RESTRICT'
				ELSE 'NO ACTION' END AS delete_rule
		FROM pg_catalog.pg_constraint con
		JOIN pg_catalog.pg_class t ON t.oid = con.conrelid
		JOIN pg_catalog.pg_namespace n ON n.oid = t.relnamespace
		JOIN pg_catalog.pg_class rt ON rt.oid = con.confrelid
		CROSS JOIN LATERAL unnest(con.conkey, con.confkey) WITH ORDINALITY AS k(attnum, refnum, ord)
		JOIN pg_catalog.pg_attribute a ON a.attrelid = con.conrelid AND a.attnum = k.attnum
		JOIN pg_catalog.pg_attribute ra ON ra.attrelid = con.confrelid AND ra.attnum = k.refnum
		WHERE con.contype = 'f' AND n.nspname = $1 AND t.relname = $2
		ORDER BY con.conname, k.ord`

	var rows []connector.ForeignKeyColumn
	if err := c.db.SelectContext(ctx, &rows, query, c.schemaName, table.Name); err != nil {
		return fmt.Errorf("introspect foreign keys for %q: %w", table.Name, err)
	}
	table.Constraints = append(table.Constraints, connector.ForeignConstraints(rows)...)
	return nil
}

// GetTableNames returns a list of all table names in the configured schema.
func (c *PostgresConnector) GetTableNames(ctx context.Context) ([]string, error) {
	const query = `SELECT table_name FROM information_schema.tables
		WHERE table_schema = $1 AND table_type = 'BASE TABLE'
		ORDER BY table_name`

	var names []string
	if err := c.db.SelectContext(ctx, &names, query, c.schemaName); err != nil {
		return nil, fmt.Errorf("get table names: %w", err)
	}
	return names, nil
}

// mapPostgresType maps a PostgreSQL UDT name and data_type to a column type.
func mapPostgresType(udtName, dataType string) model.ColumnType {
	switch strings.ToLower(udtName) {
	case "int2", "int4", "int8", "smallint", "integer", "bigint", "serial", "bigserial":
		return model.TypeInteger
	case "float4", "float8", "real", "double precision", "numeric", "decimal", "money":
		return model.TypeFloat
	case "varchar", "bpchar", "char", "character", "character varying", "name", "citext",
		"inet", "cidr", "macaddr", "interval":
		return model.TypeString
	case "text", "json", "jsonb", "xml", "tsvector":
		return model.TypeText
	case "bool", "boolean":
		return model.TypeBoolean
	case "timestamp", "timestamptz", "timestamp without time zone", "timestamp with time zone":
		return model.TypeTimestamp
	case "date":
		return model.TypeDate
	case "time", "timetz", "time without time zone", "time with time zone":
		return model.TypeTime
	case "uuid":
		return model.TypeString
	case "bytea":
		return model.TypeBinary
	}
	// USER-DEFINED enums hold short labels.
	if strings.EqualFold(dataType, "USER-DEFINED") {
		return model.TypeString
	}
	return model.TypeOther
}
