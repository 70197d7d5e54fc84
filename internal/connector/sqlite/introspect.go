package sqlite

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/faucetdb/fixturebake/internal/connector"
	"github.com/faucetdb/fixturebake/internal/model"
)

// tableInfoRow holds a row from PRAGMA table_info().
type tableInfoRow struct {
	CID     int     `db:"cid"`
	Name    string  `db:"name"`
	Type    string  `db:"type"`
	NotNull int     `db:"notnull"`
	Default *string `db:"dflt_value"`
	PK      int     `db:"pk"`
}

// foreignKeyRow holds a row from PRAGMA foreign_key_list().
type foreignKeyRow struct {
	ID       int     `db:"id"`
	Seq      int     `db:"seq"`
	Table    string  `db:"table"`
	From     string  `db:"from"`
	To       *string `db:"to"`
	OnUpdate string  `db:"on_update"`
	OnDelete string  `db:"on_delete"`
	Match    string  `db:"match"`
}

// indexListRow holds a row from PRAGMA index_list().
type indexListRow struct {
	Seq     int    `db:"seq"`
	Name    string `db:"name"`
	Unique  int    `db:"unique"`
	Origin  string `db:"origin"`
	Partial int    `db:"partial"`
}

// indexInfoRow holds a row from PRAGMA index_info().
type indexInfoRow struct {
	SeqNo int     `db:"seqno"`
	CID   int     `db:"cid"`
	Name  *string `db:"name"`
}

// DescribeTable returns the columns, primary key, indexes and constraints
// of a single table.
func (c *SQLiteConnector) DescribeTable(ctx context.Context, tableName string) (*model.TableSchema, error) {
	pragmaQuery := fmt.Sprintf("PRAGMA table_info(%s)", c.QuoteIdentifier(tableName))
	var columns []tableInfoRow
	if err := c.db.SelectContext(ctx, &columns, pragmaQuery); err != nil {
		return nil, fmt.Errorf("table_info for %q: %w", tableName, err)
	}
	if len(columns) == 0 {
		return nil, fmt.Errorf("table %q not found", tableName)
	}

	// table_info reports the position within the key, not declaration order.
	pkRows := make([]tableInfoRow, 0, len(columns))
	for _, col := range columns {
		if col.PK > 0 {
			pkRows = append(pkRows, col)
		}
	}
	sort.Slice(pkRows, func(i, j int) bool { return pkRows[i].PK < pkRows[j].PK })
	pkCols := make([]string, 0, len(pkRows))
	for _, col := range pkRows {
		pkCols = append(pkCols, col.Name)
	}

	rowidAlias := c.isRowidAlias(ctx, tableName, pkRows)

	modelColumns := make([]model.Column, 0, len(columns))
	for _, col := range columns {
		base, length, precision := connector.ParseTypeLength(col.Type)
		typ := mapSQLiteType(base)
		if typ == model.TypeInteger {
			// INT(11) is a display width, not a limit.
			length = nil
		}

		var extra connector.ExtraProperties
		extra.Set("unsigned", strings.Contains(strings.ToUpper(base), "UNSIGNED"))
		extra.Set("autoIncrement", rowidAlias && col.PK > 0)
		extra.Set("precision", precision)

		modelColumns = append(modelColumns, model.Column{
			Name:    col.Name,
			Type:    typ,
			DBType:  col.Type,
			Length:  length,
			Null:    col.NotNull == 0 && col.PK == 0,
			Default: connector.DefaultValue(col.Default, typ),
			Extra:   extra.Map(),
		})
	}

	table := &model.TableSchema{
		Name:       tableName,
		Columns:    modelColumns,
		PrimaryKey: pkCols,
	}
	if len(pkCols) > 0 {
		table.Constraints = append(table.Constraints, connector.PrimaryConstraint(pkCols))
	}

	if err := c.describeIndexes(ctx, table); err != nil {
		return nil, err
	}
	if err := c.describeForeignKeys(ctx, table); err != nil {
		return nil, err
	}
	return table, nil
}

func (c *SQLiteConnector) describeIndexes(ctx context.Context, table *model.TableSchema) error {
	idxQuery := fmt.Sprintf("PRAGMA index_list(%s)", c.QuoteIdentifier(table.Name))
	var idxRows []indexListRow
	if err := c.db.SelectContext(ctx, &idxRows, idxQuery); err != nil {
		return fmt.Errorf("index_list for %q: %w", table.Name, err)
	}
	// index_list is newest first.
	sort.Slice(idxRows, func(i, j int) bool { return idxRows[i].Seq > idxRows[j].Seq })

	for _, idx := range idxRows {
		// The primary key is already described.
		if idx.Origin == "pk" {
			continue
		}

		infoQuery := fmt.Sprintf("PRAGMA index_info(%s)", c.QuoteIdentifier(idx.Name))
		var infoRows []indexInfoRow
		if err := c.db.SelectContext(ctx, &infoRows, infoQuery); err != nil {
			return fmt.Errorf("index_info for %q: %w", idx.Name, err)
		}
		cols := make([]string, 0, len(infoRows))
		for _, info := range infoRows {
			if info.Name != nil {
				cols = append(cols, *info.Name)
			}
		}

		// UNIQUE table constraints show up as automatic indexes.
		if idx.Origin == "u" {
			table.Constraints = append(table.Constraints, connector.UniqueConstraint(idx.Name, cols))
			continue
		}
		table.Indexes = append(table.Indexes, model.NamedProperties{
			Name:       idx.Name,
			Properties: connector.IndexProperties(idx.Unique == 1, cols),
		})
	}
	return nil
}

func (c *SQLiteConnector) describeForeignKeys(ctx context.Context, table *model.TableSchema) error {
	fkQuery := fmt.Sprintf("PRAGMA foreign_key_list(%s)", c.QuoteIdentifier(table.Name))
	var fkRows []foreignKeyRow
	if err := c.db.SelectContext(ctx, &fkRows, fkQuery); err != nil {
		return fmt.Errorf("foreign_key_list for %q: %w", table.Name, err)
	}
	sort.SliceStable(fkRows, func(i, j int) bool {
		if fkRows[i].ID != fkRows[j].ID {
			return fkRows[i].ID > fkRows[j].ID
		}
		return fkRows[i].Seq < fkRows[j].Seq
	})

	for i := 0; i < len(fkRows); {
		j := i
		var cols, refs []string
		for ; j < len(fkRows) && fkRows[j].ID == fkRows[i].ID; j++ {
			cols = append(cols, fkRows[j].From)
			if fkRows[j].To != nil {
				refs = append(refs, *fkRows[j].To)
			}
		}
		fk := fkRows[i]
		name := fmt.Sprintf("%s_%s_fk", table.Name, strings.Join(cols, "_"))
		table.Constraints = append(table.Constraints,
			connector.ForeignConstraint(name, cols, fk.Table, refs, fk.OnUpdate, fk.OnDelete))
		i = j
	}
	return nil
}

// GetTableNames returns a list of all table names in the database.
func (c *SQLiteConnector) GetTableNames(ctx context.Context) ([]string, error) {
	const query = `SELECT name FROM sqlite_master
		WHERE type = 'table' AND name NOT LIKE 'sqlite_%'
		ORDER BY name`

	var names []string
	if err := c.db.SelectContext(ctx, &names, query); err != nil {
		return nil, fmt.Errorf("get table names: %w", err)
	}
	return names, nil
}

// isRowidAlias reports whether the table's single-column primary key is an
// INTEGER PRIMARY KEY, which SQLite fills automatically.
func (c *SQLiteConnector) isRowidAlias(ctx context.Context, tableName string, pkRows []tableInfoRow) bool {
	if len(pkRows) != 1 || !strings.EqualFold(strings.TrimSpace(pkRows[0].Type), "INTEGER") {
		return false
	}

	var createSQL string
	query := `SELECT sql FROM sqlite_master WHERE type = 'table' AND name = ?`
	if err := c.db.GetContext(ctx, &createSQL, query, tableName); err != nil {
		return false
	}
	// WITHOUT ROWID tables have no rowid to alias.
	return !strings.Contains(strings.ToUpper(createSQL), "WITHOUT ROWID")
}

// mapSQLiteType maps a declared SQLite type to a column type. SQLite uses
// type affinity, so the declared name is matched loosely.
func mapSQLiteType(typeName string) model.ColumnType {
	upper := strings.ToUpper(strings.TrimSpace(typeName))

	switch {
	case strings.Contains(upper, "BOOL"):
		return model.TypeBoolean
	case strings.Contains(upper, "INT"):
		return model.TypeInteger
	case strings.Contains(upper, "UUID"):
		return model.TypeString
	case strings.Contains(upper, "CHAR"):
		return model.TypeString
	case strings.Contains(upper, "CLOB"), strings.Contains(upper, "TEXT"):
		return model.TypeText
	case strings.Contains(upper, "BLOB") || upper == "":
		return model.TypeBinary
	case strings.Contains(upper, "REAL"),
		strings.Contains(upper, "FLOA"),
		strings.Contains(upper, "DOUB"),
		strings.Contains(upper, "NUMERIC"),
		strings.Contains(upper, "DECIMAL"):
		return model.TypeFloat
	case strings.Contains(upper, "DATETIME"):
		return model.TypeDatetime
	case strings.Contains(upper, "TIMESTAMP"):
		return model.TypeTimestamp
	case strings.Contains(upper, "DATE"):
		return model.TypeDate
	case strings.Contains(upper, "TIME"):
		return model.TypeTime
	}
	return model.TypeOther
}
