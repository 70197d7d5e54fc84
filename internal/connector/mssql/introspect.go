package mssql

import (
	"context"
	"fmt"
	"strings"

	"github.com/faucetdb/fixturebake/internal/connector"
	"github.com/faucetdb/fixturebake/internal/model"
)

// columnRow holds the result of querying INFORMATION_SCHEMA.COLUMNS.
type columnRow struct {
	ColumnName string  `db:"column_name"`
	DataType   string  `db:"data_type"`
	IsNullable string  `db:"is_nullable"`
	Default    *string `db:"column_default"`
	MaxLength  *int64  `db:"character_maximum_length"`
	Precision  *int64  `db:"numeric_precision"`
	Scale      *int64  `db:"numeric_scale"`
	IsIdentity bool    `db:"is_identity"`
}

// DescribeTable returns the columns, keys, indexes and foreign keys of a
// single table in the configured schema.
func (c *MSSQLConnector) DescribeTable(ctx context.Context, tableName string) (*model.TableSchema, error) {
	const tableQuery = `SELECT TABLE_NAME FROM INFORMATION_SCHEMA.TABLES
		WHERE TABLE_SCHEMA = @p1 AND TABLE_NAME = @p2`

	var name string
	if err := c.db.GetContext(ctx, &name, tableQuery, c.schemaName, tableName); err != nil {
		return nil, fmt.Errorf("table %q not found in schema %q: %w", tableName, c.schemaName, err)
	}

	const columnQuery = `SELECT
			c.COLUMN_NAME AS column_name,
			c.DATA_TYPE AS data_type,
			c.IS_NULLABLE AS is_nullable,
			c.COLUMN_DEFAULT AS column_default,
			c.CHARACTER_MAXIMUM_LENGTH AS character_maximum_length,
			CAST(c.NUMERIC_PRECISION AS bigint) AS numeric_precision,
			CAST(c.NUMERIC_SCALE AS bigint) AS numeric_scale,
			CAST(COALESCE(COLUMNPROPERTY(OBJECT_ID(QUOTENAME(c.TABLE_SCHEMA) + '.' + QUOTENAME(c.TABLE_NAME)),
				c.COLUMN_NAME, 'IsIdentity'), 0) AS bit) AS is_identity
		FROM INFORMATION_SCHEMA.COLUMNS c
		WHERE c.TABLE_SCHEMA = @p1 AND c.TABLE_NAME = @p2
		ORDER BY c.ORDINAL_POSITION`

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
	typ := mapMSSQLType(col.DataType)

	var length, precision *int64
	switch typ {
	case model.TypeString, model.TypeBinary:
		// varchar(max) reports -1.
		if col.MaxLength != nil && *col.MaxLength < 0 {
			typ = model.TypeText
			if strings.Contains(strings.ToLower(col.DataType), "binary") {
				typ = model.TypeBinary
			}
		} else {
			length = col.MaxLength
		}
	case model.TypeFloat:
		lower := strings.ToLower(col.DataType)
		if lower == "decimal" || lower == "numeric" {
			length, precision = col.Precision, col.Scale
		}
	}

	var extra connector.ExtraProperties
	extra.Set("autoIncrement", col.IsIdentity)
	extra.Set("precision", precision)

	return model.Column{
		Name:    col.ColumnName,
		Type:    typ,
		DBType:  col.DataType,
		Length:  length,
		Null:    col.IsNullable == "YES",
		Default: connector.DefaultValue(col.Default, typ),
		Extra:   extra.Map(),
	}
}

func (c *MSSQLConnector) describeIndexes(ctx context.Context, table *model.TableSchema) error {
	const query = `SELECT
			i.name AS index_name,
			col.name AS column_name,
			i.is_primary_key AS is_primary,
			i.is_unique AS is_unique
		FROM sys.indexes i
		JOIN sys.index_columns ic ON ic.object_id = i.object_id AND ic.index_id = i.index_id
		JOIN sys.columns col ON col.object_id = ic.object_id AND col.column_id = ic.column_id
		JOIN sys.tables t ON t.object_id = i.object_id
		JOIN sys.schemas s ON s.schema_id = t.schema_id
		WHERE s.name = @p1 AND t.name = @p2 AND i.type > 0 AND ic.is_included_column = 0
		ORDER BY i.is_primary_key DESC, i.name, ic.key_ordinal`

	var rows []connector.IndexColumn
	if err := c.db.SelectContext(ctx, &rows, query, c.schemaName, table.Name); err != nil {
		return fmt.Errorf("introspect indexes for %q: %w", table.Name, err)
	}
	connector.ApplyIndexes(table, rows)
	return nil
}

func (c *MSSQLConnector) describeForeignKeys(ctx context.Context, table *model.TableSchema) error {
	const query = `SELECT
			fk.name AS constraint_name,
			fk_col.name AS column_name,
			pk_tab.name AS referenced_table,
			pk_col.name AS referenced_column,
			fk.update_referential_action_desc AS update_rule,
			fk.delete_referential_action_desc AS delete_rule
		FROM sys.foreign_keys fk
		JOIN sys.foreign_key_columns fkc ON fk.object_id = fkc.constraint_object_id
		JOIN sys.tables fk_tab ON fkc.parent_object_id = fk_tab.object_id
		JOIN sys.columns fk_col ON fkc.parent_object_id = fk_col.object_id AND fkc.parent_column_id = fk_col.column_id
		JOIN sys.tables pk_tab ON fkc.referenced_object_id = pk_tab.object_id
		JOIN sys.columns pk_col ON fkc.referenced_object_id = pk_col.object_id AND fkc.referenced_column_id = pk_col.column_id
		JOIN sys.schemas s ON fk_tab.schema_id = s.schema_id
		WHERE s.name = @p1 AND fk_tab.name = @p2
		ORDER BY fk.name, fkc.constraint_column_id`

	var rows []connector.ForeignKeyColumn
	if err := c.db.SelectContext(ctx, &rows, query, c.schemaName, table.Name); err != nil {
		return fmt.Errorf("introspect foreign keys for %q: %w", table.Name, err)
	}
	table.Constraints = append(table.Constraints, connector.ForeignConstraints(rows)...)
	return nil
}

// GetTableNames returns a list of all table names in the configured schema.
func (c *MSSQLConnector) GetTableNames(ctx context.Context) ([]string, error) {
	const query = `SELECT TABLE_NAME FROM INFORMATION_SCHEMA.TABLES
		WHERE TABLE_SCHEMA = @p1 AND TABLE_TYPE = 'BASE TABLE'
		ORDER BY TABLE_NAME`

	var names []string
	if err := c.db.SelectContext(ctx, &names, query, c.schemaName); err != nil {
		return nil, fmt.Errorf("get table names: %w", err)
	}
	return names, nil
}

// mapMSSQLType maps a SQL Server DATA_TYPE to a column type.
func mapMSSQLType(dataType string) model.ColumnType {
	switch strings.ToLower(dataType) {
	case "tinyint", "smallint", "int", "bigint":
		return model.TypeInteger
	case "float", "real", "decimal", "numeric", "money", "smallmoney":
		return model.TypeFloat
	case "varchar", "nvarchar", "char", "nchar", "uniqueidentifier":
		return model.TypeString
	case "text", "ntext", "xml":
		return model.TypeText
	case "datetime", "datetime2", "smalldatetime", "datetimeoffset":
		return model.TypeDatetime
	case "date":
		return model.TypeDate
	case "time":
		return model.TypeTime
	case "bit":
		return model.TypeBoolean
	case "varbinary", "binary", "image":
		return model.TypeBinary
	}
	return model.TypeOther
}
