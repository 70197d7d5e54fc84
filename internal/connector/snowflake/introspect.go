package snowflake

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/faucetdb/fixturebake/internal/connector"
	"github.com/faucetdb/fixturebake/internal/literal"
	"github.com/faucetdb/fixturebake/internal/model"
)

// varcharMax is the length Snowflake reports for VARCHAR without a limit.
const varcharMax = 16777216

// columnRow holds the result of querying INFORMATION_SCHEMA.COLUMNS.
type columnRow struct {
	ColumnName string  `db:"COLUMN_NAME"`
	DataType   string  `db:"DATA_TYPE"`
	IsNullable string  `db:"IS_NULLABLE"`
	IsIdentity string  `db:"IS_IDENTITY"`
	Default    *string `db:"COLUMN_DEFAULT"`
	MaxLength  *int64  `db:"CHARACTER_MAXIMUM_LENGTH"`
	Precision  *int64  `db:"NUMERIC_PRECISION"`
	Scale      *int64  `db:"NUMERIC_SCALE"`
	Comment    *string `db:"COMMENT"`
}

// DescribeTable returns the columns, keys and foreign keys of a single
// table. Snowflake standard tables have no secondary indexes.
func (c *SnowflakeConnector) DescribeTable(ctx context.Context, tableName string) (*model.TableSchema, error) {
	const tableQuery = `SELECT TABLE_NAME FROM INFORMATION_SCHEMA.TABLES
		WHERE TABLE_SCHEMA = ? AND TABLE_NAME = ?`

	var name string
	if err := c.db.GetContext(ctx, &name, tableQuery, c.schemaName, tableName); err != nil {
		return nil, fmt.Errorf("table %q not found in schema %q: %w", tableName, c.schemaName, err)
	}

	const columnQuery = `SELECT
			c.COLUMN_NAME,
			c.DATA_TYPE,
			c.IS_NULLABLE,
			c.IS_IDENTITY,
			c.COLUMN_DEFAULT,
			c.CHARACTER_MAXIMUM_LENGTH,
			c.NUMERIC_PRECISION,
			c.NUMERIC_SCALE,
			c.COMMENT
		FROM INFORMATION_SCHEMA.COLUMNS c
		WHERE c.TABLE_SCHEMA = ? AND c.TABLE_NAME = ?
		ORDER BY c.ORDINAL_POSITION`

	var columns []columnRow
	if err := c.db.SelectContext(ctx, &columns, columnQuery, c.schemaName, tableName); err != nil {
		return nil, fmt.Errorf("introspect columns for %q: %w", tableName, err)
	}

	table := &model.TableSchema{Name: tableName}
	for _, col := range columns {
		table.Columns = append(table.Columns, buildColumn(col))
	}

	pkRows, err := c.showKeys(ctx, "PRIMARY KEYS", tableName)
	if err != nil {
		return nil, fmt.Errorf("introspect primary keys for %q: %w", tableName, err)
	}
	if pk := primaryKeyColumns(pkRows); len(pk) > 0 {
		table.PrimaryKey = pk
		table.Constraints = append(table.Constraints, connector.PrimaryConstraint(pk))
	}

	uniqueRows, err := c.showKeys(ctx, "UNIQUE KEYS", tableName)
	if err != nil {
		return nil, fmt.Errorf("introspect unique keys for %q: %w", tableName, err)
	}
	table.Constraints = append(table.Constraints, uniqueConstraints(uniqueRows)...)

	fkRows, err := c.showKeys(ctx, "IMPORTED KEYS", tableName)
	if err != nil {
		return nil, fmt.Errorf("introspect foreign keys for %q: %w", tableName, err)
	}
	table.Constraints = append(table.Constraints, connector.ForeignConstraints(foreignKeyColumns(fkRows))...)

	return table, nil
}

// showKeys runs SHOW <kind> IN TABLE and returns each result row keyed by
// its lower-case column name.
func (c *SnowflakeConnector) showKeys(ctx context.Context, kind, tableName string) ([]map[string]any, error) {
	query := fmt.Sprintf(`SHOW %s IN TABLE %s.%s`,
		kind,
		c.QuoteIdentifier(c.schemaName),
		c.QuoteIdentifier(tableName),
	)

	rows, err := c.db.QueryxContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []map[string]any
	for rows.Next() {
		row := make(map[string]any)
		if err := rows.MapScan(row); err != nil {
			return nil, fmt.Errorf("scan key row: %w", err)
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

func buildColumn(col columnRow) model.Column {
	typ := mapSnowflakeType(col.DataType, col.Scale)

	var length, precision *int64
	switch typ {
	case model.TypeString:
		if col.MaxLength != nil && *col.MaxLength >= varcharMax {
			typ = model.TypeText
		} else {
			length = col.MaxLength
		}
	case model.TypeBinary:
		length = col.MaxLength
	case model.TypeFloat:
		if strings.EqualFold(col.DataType, "NUMBER") {
			length, precision = col.Precision, col.Scale
		}
	}

	autoIncrement := col.IsIdentity == "YES"
	if col.Default != nil {
		upper := strings.ToUpper(*col.Default)
		autoIncrement = autoIncrement || strings.Contains(upper, "IDENTITY") || strings.HasSuffix(upper, ".NEXTVAL")
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
		Null:    col.IsNullable == "YES",
		Default: def,
		Extra:   extra.Map(),
	}
}

// primaryKeyColumns orders SHOW PRIMARY KEYS rows by key_sequence.
func primaryKeyColumns(rows []map[string]any) []string {
	sortByKeySequence(rows, "constraint_name")
	var cols []string
	for _, row := range rows {
		cols = append(cols, rowString(row, "column_name"))
	}
	return cols
}

// uniqueConstraints groups SHOW UNIQUE KEYS rows by constraint name.
func uniqueConstraints(rows []map[string]any) []model.NamedProperties {
	sortByKeySequence(rows, "constraint_name")
	var out []model.NamedProperties
	for i := 0; i < len(rows); {
		name := rowString(rows[i], "constraint_name")
		j := i
		var cols []string
		for ; j < len(rows) && rowString(rows[j], "constraint_name") == name; j++ {
			cols = append(cols, rowString(rows[j], "column_name"))
		}
		out = append(out, connector.UniqueConstraint(name, cols))
		i = j
	}
	return out
}

// foreignKeyColumns converts SHOW IMPORTED KEYS rows.
func foreignKeyColumns(rows []map[string]any) []connector.ForeignKeyColumn {
	sortByKeySequence(rows, "fk_name")
	out := make([]connector.ForeignKeyColumn, 0, len(rows))
	for _, row := range rows {
		out = append(out, connector.ForeignKeyColumn{
			ConstraintName:   rowString(row, "fk_name"),
			ColumnName:       rowString(row, "fk_column_name"),
			ReferencedTable:  rowString(row, "pk_table_name"),
			ReferencedColumn: rowString(row, "pk_column_name"),
			UpdateRule:       rowString(row, "update_rule"),
			DeleteRule:       rowString(row, "delete_rule"),
		})
	}
	return out
}

func sortByKeySequence(rows []map[string]any, nameKey string) {
	sort.SliceStable(rows, func(i, j int) bool {
		ni, nj := rowString(rows[i], nameKey), rowString(rows[j], nameKey)
		if ni != nj {
			return ni < nj
		}
		return rowInt(rows[i], "key_sequence") < rowInt(rows[j], "key_sequence")
	})
}

func rowString(row map[string]any, key string) string {
	switch v := row[key].(type) {
	case string:
		return v
	case []byte:
		return string(v)
	case nil:
		return ""
	default:
		return fmt.Sprint(v)
	}
}

func rowInt(row map[string]any, key string) int64 {
	switch v := row[key].(type) {
	case int64:
		return v
	case float64:
		return int64(v)
	}
	n, _ := strconv.ParseInt(rowString(row, key), 10, 64)
	return n
}

// GetTableNames returns a list of all table names in the configured schema.
func (c *SnowflakeConnector) GetTableNames(ctx context.Context) ([]string, error) {
	const query = `SELECT TABLE_NAME FROM INFORMATION_SCHEMA.TABLES
		WHERE TABLE_SCHEMA = ? AND TABLE_TYPE = 'BASE TABLE'
		ORDER BY TABLE_NAME`

	var names []string
	if err := c.db.SelectContext(ctx, &names, query, c.schemaName); err != nil {
		return nil, fmt.Errorf("get table names: %w", err)
	}
	return names, nil
}

// mapSnowflakeType maps a Snowflake data type to a column type. NUMBER
// with a zero scale holds integers.
func mapSnowflakeType(dataType string, scale *int64) model.ColumnType {
	switch strings.ToUpper(dataType) {
	case "NUMBER", "DECIMAL", "NUMERIC":
		if scale == nil || *scale == 0 {
			return model.TypeInteger
		}
		return model.TypeFloat
	case "INT", "INTEGER", "BIGINT", "SMALLINT", "TINYINT", "BYTEINT":
		return model.TypeInteger
	case "FLOAT", "FLOAT4", "FLOAT8", "DOUBLE", "DOUBLE PRECISION", "REAL":
		return model.TypeFloat
	case "VARCHAR", "STRING", "TEXT", "CHAR", "CHARACTER":
		return model.TypeString
	case "VARIANT", "OBJECT", "ARRAY":
		return model.TypeText
	case "BOOLEAN":
		return model.TypeBoolean
	case "DATE":
		return model.TypeDate
	case "DATETIME", "TIMESTAMP_NTZ", "TIMESTAMP_LTZ", "TIMESTAMP_TZ":
		return model.TypeDatetime
	case "TIMESTAMP":
		return model.TypeTimestamp
	case "TIME":
		return model.TypeTime
	case "BINARY", "VARBINARY":
		return model.TypeBinary
	}
	return model.TypeOther
}
