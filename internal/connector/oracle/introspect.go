package oracle

import (
	"context"
	"fmt"
	"strings"

	"github.com/faucetdb/fixturebake/internal/connector"
	"github.com/faucetdb/fixturebake/internal/literal"
	"github.com/faucetdb/fixturebake/internal/model"
)

// columnRow holds the result of querying ALL_TAB_COLUMNS.
type columnRow struct {
	ColumnName string  `db:"column_name"`
	DataType   string  `db:"data_type"`
	CharLength *int64  `db:"char_length"`
	DataLength *int64  `db:"data_length"`
	Precision  *int64  `db:"data_precision"`
	Scale      *int64  `db:"data_scale"`
	Nullable   string  `db:"nullable"`
	Default    *string `db:"data_default"`
	IsIdentity string  `db:"identity_column"`
	Comment    *string `db:"comments"`
}

// DescribeTable returns the columns, keys, indexes and foreign keys of a
// single table in the configured schema.
func (c *OracleConnector) DescribeTable(ctx context.Context, tableName string) (*model.TableSchema, error) {
	const tableQuery = `SELECT TABLE_NAME FROM ALL_TABLES WHERE OWNER = :1 AND TABLE_NAME = :2`

	var name string
	if err := c.db.GetContext(ctx, &name, tableQuery, c.schemaName, tableName); err != nil {
		return nil, fmt.Errorf("table %q not found in schema %q: %w", tableName, c.schemaName, err)
	}

	// Oracle upper-cases unquoted aliases, so aliases are quoted to match
	// the lower-case db tags.
	const columnQuery = `SELECT
			col.COLUMN_NAME AS "column_name",
			col.DATA_TYPE AS "data_type",
			col.CHAR_LENGTH AS "char_length",
			col.DATA_LENGTH AS "data_length",
			col.DATA_PRECISION AS "data_precision",
			col.DATA_SCALE AS "data_scale",
			col.NULLABLE AS "nullable",
			col.DATA_DEFAULT AS "data_default",
			col.IDENTITY_COLUMN AS "identity_column",
			cc.COMMENTS AS "comments"
		FROM ALL_TAB_COLUMNS col
		LEFT JOIN ALL_COL_COMMENTS cc
			ON cc.OWNER = col.OWNER AND cc.TABLE_NAME = col.TABLE_NAME AND cc.COLUMN_NAME = col.COLUMN_NAME
		WHERE col.OWNER = :1 AND col.TABLE_NAME = :2
		ORDER BY col.COLUMN_ID`

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
	typ := mapOracleType(col.DataType, col.Precision, col.Scale)

	var length, precision *int64
	switch typ {
	case model.TypeString:
		length = col.CharLength
	case model.TypeBinary:
		if strings.EqualFold(col.DataType, "RAW") {
			length = col.DataLength
		}
	case model.TypeFloat:
		if strings.EqualFold(col.DataType, "NUMBER") {
			length, precision = col.Precision, col.Scale
		}
	}

	autoIncrement := col.IsIdentity == "YES"
	if col.Default != nil && strings.Contains(strings.ToUpper(*col.Default), ".NEXTVAL") {
		autoIncrement = true
	}

	var extra connector.ExtraProperties
	extra.Set("autoIncrement", autoIncrement)
	extra.Set("precision", precision)
	if col.Comment != nil {
		extra.Set("comment", *col.Comment)
	}

	var def literal.Value = literal.Null{}
	if !autoIncrement {
		def = connector.DefaultValue(col.Default, typ)
	}

	return model.Column{
		Name:    col.ColumnName,
		Type:    typ,
		DBType:  col.DataType,
		Length:  length,
		Null:    col.Nullable == "Y",
		Default: def,
		Extra:   extra.Map(),
	}
}

func (c *OracleConnector) describeIndexes(ctx context.Context, table *model.TableSchema) error {
	const query = `SELECT
			ic.INDEX_NAME AS "index_name",
			ic.COLUMN_NAME AS "column_name",
			CASE WHEN pk.CONSTRAINT_NAME IS NULL THEN '0' ELSE '1' END AS "is_primary",
			CASE WHEN i.UNIQUENESS = 'UNIQUE' THEN '1' ELSE '0' END AS "is_unique"
		FROM ALL_IND_COLUMNS ic
		JOIN ALL_INDEXES i
			ON i.OWNER = ic.INDEX_OWNER AND i.INDEX_NAME = ic.INDEX_NAME
		LEFT JOIN ALL_CONSTRAINTS pk
			ON pk.OWNER = i.TABLE_OWNER AND pk.INDEX_NAME = i.INDEX_NAME AND pk.CONSTRAINT_TYPE = 'P'
		WHERE ic.TABLE_OWNER = :1 AND ic.TABLE_NAME = :2
		ORDER BY CASE WHEN pk.CONSTRAINT_NAME IS NULL THEN 1 ELSE 0 END, ic.INDEX_NAME, ic.COLUMN_POSITION`

	var rows []connector.IndexColumn
	if err := c.db.SelectContext(ctx, &rows, query, c.schemaName, table.Name); err != nil {
		return fmt.Errorf("introspect indexes for %q: %w", table.Name, err)
	}
	connector.ApplyIndexes(table, rows)
	return nil
}

func (c *OracleConnector) describeForeignKeys(ctx context.Context, table *model.TableSchema) error {
	// Oracle has no ON UPDATE actions.
	const query = `SELECT
			fk.CONSTRAINT_NAME AS "constraint_name",
			fkc.COLUMN_NAME AS "column_name",
			pkc.TABLE_NAME AS "referenced_table",
			pkc.COLUMN_NAME AS "referenced_column",
			'NO ACTION' AS "update_rule",
			fk.DELETE_RULE AS "delete_rule"
		FROM ALL_CONSTRAINTS fk
		JOIN ALL_CONS_COLUMNS fkc
			ON fkc.OWNER = fk.OWNER AND fkc.CONSTRAINT_NAME = fk.CONSTRAINT_NAME
		JOIN ALL_CONS_COLUMNS pkc
			ON pkc.OWNER = fk.R_OWNER AND pkc.CONSTRAINT_NAME = fk.R_CONSTRAINT_NAME
			AND pkc.POSITION = fkc.POSITION
		WHERE fk.CONSTRAINT_TYPE = 'R' AND fk.OWNER = :1 AND fk.TABLE_NAME = :2
		ORDER BY fk.CONSTRAINT_NAME, fkc.POSITION`

	var rows []connector.ForeignKeyColumn
	if err := c.db.SelectContext(ctx, &rows, query, c.schemaName, table.Name); err != nil {
		return fmt.Errorf("introspect foreign keys for %q: %w", table.Name, err)
	}
	table.Constraints = append(table.Constraints, connector.ForeignConstraints(rows)...)
	return nil
}

// GetTableNames returns a list of all table names in the configured schema.
func (c *OracleConnector) GetTableNames(ctx context.Context) ([]string, error) {
	const query = `SELECT TABLE_NAME FROM ALL_TABLES WHERE OWNER = :1 ORDER BY TABLE_NAME`

	var names []string
	if err := c.db.SelectContext(ctx, &names, query, c.schemaName); err != nil {
		return nil, fmt.Errorf("get table names: %w", err)
	}
	return names, nil
}

// mapOracleType maps an Oracle DATA_TYPE to a column type. NUMBER(1) is
// the conventional boolean and NUMBER with a zero scale holds integers.
func mapOracleType(dataType string, precision, scale *int64) model.ColumnType {
	upper := strings.ToUpper(strings.TrimSpace(dataType))
	if strings.HasPrefix(upper, "TIMESTAMP") {
		return model.TypeDatetime
	}

	switch upper {
	case "NUMBER":
		if precision != nil && *precision == 1 && (scale == nil || *scale == 0) {
			return model.TypeBoolean
		}
		if scale != nil && *scale == 0 {
			return model.TypeInteger
		}
		return model.TypeFloat
	case "INTEGER":
		return model.TypeInteger
	case "FLOAT", "BINARY_FLOAT", "BINARY_DOUBLE":
		return model.TypeFloat
	case "VARCHAR2", "NVARCHAR2", "CHAR", "NCHAR", "VARCHAR":
		return model.TypeString
	case "CLOB", "NCLOB", "LONG":
		return model.TypeText
	case "DATE":
		// Oracle DATE carries a time of day.
		return model.TypeDatetime
	case "BLOB", "RAW", "LONG RAW":
		return model.TypeBinary
	}
	return model.TypeOther
}
