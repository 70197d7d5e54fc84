package mysql

import (
	"context"
	"fmt"
	"strings"

	"github.com/faucetdb/fixturebake/internal/connector"
	"github.com/faucetdb/fixturebake/internal/literal"
	"github.com/faucetdb/fixturebake/internal/model"
)

// columnRow holds the result of querying information_schema.COLUMNS.
type columnRow struct {
	ColumnName string  `db:"column_name"`
	DataType   string  `db:"data_type"`
	ColumnType string  `db:"column_type"`
	IsNullable string  `db:"is_nullable"`
	Default    *string `db:"column_default"`
	MaxLength  *int64  `db:"character_maximum_length"`
	Precision  *int64  `db:"numeric_precision"`
	Scale      *int64  `db:"numeric_scale"`
	Extra      string  `db:"extra"`
	Comment    string  `db:"column_comment"`
}

// tableRow holds the storage options of a table.
type tableRow struct {
	Engine    *string `db:"engine"`
	Collation *string `db:"table_collation"`
}

// DescribeTable returns the columns, keys, indexes, foreign keys and
// storage options of a single table.
func (c *MySQLConnector) DescribeTable(ctx context.Context, tableName string) (*model.TableSchema, error) {
	const tableQuery = `SELECT ENGINE AS engine, TABLE_COLLATION AS table_collation
		FROM information_schema.TABLES
		WHERE TABLE_SCHEMA = ? AND TABLE_NAME = ?`

	var t tableRow
	if err := c.db.GetContext(ctx, &t, tableQuery, c.schemaName, tableName); err != nil {
		return nil, fmt.Errorf("table %q not found in schema %q: %w", tableName, c.schemaName, err)
	}

	const columnQuery = `SELECT
			COLUMN_NAME AS column_name,
			DATA_TYPE AS data_type,
			COLUMN_TYPE AS column_type,
			IS_NULLABLE AS is_nullable,
			COLUMN_DEFAULT AS column_default,
			CHARACTER_MAXIMUM_LENGTH AS character_maximum_length,
			NUMERIC_PRECISION AS numeric_precision,
			NUMERIC_SCALE AS numeric_scale,
			EXTRA AS extra,
			COLUMN_COMMENT AS column_comment
		FROM information_schema.COLUMNS
		WHERE TABLE_SCHEMA = ? AND TABLE_NAME = ?
		ORDER BY ORDINAL_POSITION`

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

	table.Options = tableOptions(t)
	return table, nil
}

func buildColumn(col columnRow) model.Column {
	typ := mapMySQLType(col.DataType, col.ColumnType)

	var length, precision *int64
	switch typ {
	case model.TypeString, model.TypeBinary:
		length = col.MaxLength
	case model.TypeFloat:
		if strings.EqualFold(col.DataType, "decimal") || strings.EqualFold(col.DataType, "numeric") {
			length, precision = col.Precision, col.Scale
		}
	}

	var extra connector.ExtraProperties
	extra.Set("unsigned", strings.Contains(strings.ToLower(col.ColumnType), "unsigned"))
	extra.Set("autoIncrement", strings.Contains(strings.ToLower(col.Extra), "auto_increment"))
	extra.Set("precision", precision)
	extra.Set("comment", col.Comment)

	return model.Column{
		Name:    col.ColumnName,
		Type:    typ,
		DBType:  col.ColumnType,
		Length:  length,
		Null:    col.IsNullable == "YES",
		Default: connector.DefaultValue(col.Default, typ),
		Extra:   extra.Map(),
	}
}

func (c *MySQLConnector) describeIndexes(ctx context.Context, table *model.TableSchema) error {
	const query = `SELECT
			INDEX_NAME AS index_name,
			COLUMN_NAME AS column_name,
			INDEX_NAME = 'PRIMARY' AS is_primary,
			NON_UNIQUE = 0 AS is_unique
		FROM information_schema.STATISTICS
		WHERE TABLE_SCHEMA = ? AND TABLE_NAME = ?
		ORDER BY INDEX_NAME = 'PRIMARY' DESC, INDEX_NAME, SEQ_IN_INDEX`

	var rows []connector.IndexColumn
	if err := c.db.SelectContext(ctx, &rows, query, c.schemaName, table.Name); err != nil {
		return fmt.Errorf("introspect indexes for %q: %w", table.Name, err)
	}
	connector.ApplyIndexes(table, rows)
	return nil
}

func (c *MySQLConnector) describeForeignKeys(ctx context.Context, table *model.TableSchema) error {
	const query = `SELECT
			kcu.CONSTRAINT_NAME AS constraint_name,
			kcu.COLUMN_NAME AS column_name,
			kcu.REFERENCED_TABLE_NAME AS referenced_table,
			kcu.REFERENCED_COLUMN_NAME AS referenced_column,
			rc.UPDATE_RULE AS update_rule,
			rc.DELETE_RULE AS delete_rule
		FROM information_schema.KEY_COLUMN_USAGE kcu
		JOIN information_schema.REFERENTIAL_CONSTRAINTS rc
			ON rc.CONSTRAINT_SCHEMA = kcu.CONSTRAINT_SCHEMA
			AND rc.CONSTRAINT_NAME = kcu.CONSTRAINT_NAME
		WHERE kcu.TABLE_SCHEMA = ? AND kcu.TABLE_NAME = ?
			AND kcu.REFERENCED_TABLE_NAME IS NOT NULL
		ORDER BY kcu.CONSTRAINT_NAME, kcu.ORDINAL_POSITION`

	var rows []connector.ForeignKeyColumn
	if err := c.db.SelectContext(ctx, &rows, query, c.schemaName, table.Name); err != nil {
		return fmt.Errorf("introspect foreign keys for %q: %w", table.Name, err)
	}
	table.Constraints = append(table.Constraints, connector.ForeignConstraints(rows)...)
	return nil
}

// GetTableNames returns a list of all base table names in the schema.
func (c *MySQLConnector) GetTableNames(ctx context.Context) ([]string, error) {
	const query = `SELECT TABLE_NAME FROM information_schema.TABLES
		WHERE TABLE_SCHEMA = ? AND TABLE_TYPE = 'BASE TABLE'
		ORDER BY TABLE_NAME`

	var names []string
	if err := c.db.SelectContext(ctx, &names, query, c.schemaName); err != nil {
		return nil, fmt.Errorf("get table names: %w", err)
	}
	return names, nil
}

// mapMySQLType maps a MySQL DATA_TYPE and COLUMN_TYPE to a column type.
func mapMySQLType(dataType, columnType string) model.ColumnType {
	lower := strings.ToLower(dataType)
	full := strings.ToLower(columnType)

	// tinyint(1) and bit(1) are the conventional boolean columns.
	if (lower == "tinyint" && strings.HasPrefix(full, "tinyint(1)")) || (lower == "bit" && strings.HasPrefix(full, "bit(1)")) || lower == "boolean" {
		return model.TypeBoolean
	}

	switch lower {
	case "tinyint", "smallint", "mediumint", "int", "integer", "bigint", "year":
		return model.TypeInteger
	case "float", "double", "decimal", "numeric", "real":
		return model.TypeFloat
	case "varchar", "char", "enum", "set", "uuid":
		return model.TypeString
	case "text", "tinytext", "mediumtext", "longtext", "json":
		return model.TypeText
	case "datetime":
		return model.TypeDatetime
	case "timestamp":
		return model.TypeTimestamp
	case "date":
		return model.TypeDate
	case "time":
		return model.TypeTime
	case "blob", "tinyblob", "mediumblob", "longblob", "binary", "varbinary", "bit":
		return model.TypeBinary
	}
	return model.TypeOther
}

// tableOptions returns the engine and collation of a table.
func tableOptions(t tableRow) *literal.Map {
	var opts connector.ExtraProperties
	if t.Engine != nil {
		opts.Set("engine", *t.Engine)
	}
	if t.Collation != nil {
		opts.Set("collation", *t.Collation)
	}
	return opts.Map()
}
