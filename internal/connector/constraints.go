package connector

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/faucetdb/fixturebake/internal/literal"
	"github.com/faucetdb/fixturebake/internal/model"
)

// Index and constraint type names used in schema literals.
const (
	IndexTypeIndex    = "index"
	IndexTypeUnique   = "unique"
	ConstraintPrimary = "primary"
	ConstraintUnique  = "unique"
	ConstraintForeign = "foreign"
)

// IndexProperties describes a plain or unique index.
func IndexProperties(unique bool, columns []string) *literal.Map {
	typ := IndexTypeIndex
	if unique {
		typ = IndexTypeUnique
	}
	return literal.NewMap(literal.E("type", typ), literal.E("columns", columns))
}

// PrimaryConstraint describes the primary key.
func PrimaryConstraint(columns []string) model.NamedProperties {
	return model.NamedProperties{
		Name:       ConstraintPrimary,
		Properties: literal.NewMap(literal.E("type", ConstraintPrimary), literal.E("columns", columns)),
	}
}

// UniqueConstraint describes a unique key.
func UniqueConstraint(name string, columns []string) model.NamedProperties {
	return model.NamedProperties{
		Name:       name,
		Properties: literal.NewMap(literal.E("type", ConstraintUnique), literal.E("columns", columns)),
	}
}

// ForeignConstraint describes a foreign key. Single-column references
// render as [table, column].
func ForeignConstraint(name string, columns []string, refTable string, refColumns []string, onUpdate, onDelete string) model.NamedProperties {
	var refs literal.Value = literal.Of(refColumns)
	if len(refColumns) == 1 {
		refs = literal.String(refColumns[0])
	}
	return model.NamedProperties{
		Name: name,
		Properties: literal.NewMap(
			literal.E("type", ConstraintForeign),
			literal.E("columns", columns),
			literal.Entry{Key: "references", Value: literal.List{literal.String(refTable), refs}},
			literal.E("update", ForeignKeyRule(onUpdate)),
			literal.E("delete", ForeignKeyRule(onDelete)),
		),
	}
}

// ForeignKeyRule maps a referential action such as "SET NULL" or
// "SET_NULL" to its camel-cased fixture name.
func ForeignKeyRule(rule string) string {
	switch strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(rule), "_", " ")) {
	case "CASCADE":
		return "cascade"
	case "SET NULL":
		return "setNull"
	case "SET DEFAULT":
		return "setDefault"
	case "RESTRICT":
		return "restrict"
	}
	return "noAction"
}

var typeArgs = regexp.MustCompile(`\(\s*(\d+)\s*(?:,\s*(\d+)\s*)?\)`)

// ParseTypeLength splits a declared type such as "DECIMAL(10, 2)" into its
// base name, length and precision. Missing parts are nil.
func ParseTypeLength(dbType string) (base string, length, precision *int64) {
	base = strings.TrimSpace(dbType)
	m := typeArgs.FindStringSubmatchIndex(base)
	if m == nil {
		return base, nil, nil
	}
	if n, err := strconv.ParseInt(base[m[2]:m[3]], 10, 64); err == nil {
		length = &n
	}
	if m[4] >= 0 {
		if n, err := strconv.ParseInt(base[m[4]:m[5]], 10, 64); err == nil {
			precision = &n
		}
	}
	base = strings.TrimSpace(base[:m[0]] + base[m[1]:])
	return base, length, precision
}

// ExtraProperties collects optional column properties, skipping unset ones.
type ExtraProperties struct {
	m *literal.Map
}

// Set records key when v is meaningful: true, a non-nil pointer or a
// non-empty string.
func (e *ExtraProperties) Set(key string, v any) {
	switch x := v.(type) {
	case bool:
		if !x {
			return
		}
	case string:
		if x == "" {
			return
		}
	case *int64:
		if x == nil {
			return
		}
	case nil:
		return
	}
	if e.m == nil {
		e.m = &literal.Map{}
	}
	e.m.Set(key, literal.Of(v))
}

// Map returns the collected properties, or nil when none were set.
func (e *ExtraProperties) Map() *literal.Map {
	return e.m
}

// IndexColumn is one column of an index as reported by a catalog query.
// Rows for the same index must be adjacent and in key order.
type IndexColumn struct {
	IndexName  string `db:"index_name"`
	ColumnName string `db:"column_name"`
	Primary    bool   `db:"is_primary"`
	Unique     bool   `db:"is_unique"`
}

// ApplyIndexes folds index rows into table. The primary key becomes the
// "primary" constraint, unique indexes become unique constraints and the
// rest are plain indexes.
func ApplyIndexes(table *model.TableSchema, rows []IndexColumn) {
	for i := 0; i < len(rows); {
		j := i
		var cols []string
		for ; j < len(rows) && rows[j].IndexName == rows[i].IndexName; j++ {
			cols = append(cols, rows[j].ColumnName)
		}
		idx := rows[i]
		switch {
		case idx.Primary:
			table.PrimaryKey = cols
			table.Constraints = append(table.Constraints, PrimaryConstraint(cols))
		case idx.Unique:
			table.Constraints = append(table.Constraints, UniqueConstraint(idx.IndexName, cols))
		default:
			table.Indexes = append(table.Indexes, model.NamedProperties{
				Name:       idx.IndexName,
				Properties: IndexProperties(false, cols),
			})
		}
		i = j
	}
}

// ForeignKeyColumn is one column of a foreign key as reported by a catalog
// query. Rows for the same key must be adjacent and in key order.
type ForeignKeyColumn struct {
	ConstraintName   string `db:"constraint_name"`
	ColumnName       string `db:"column_name"`
	ReferencedTable  string `db:"referenced_table"`
	ReferencedColumn string `db:"referenced_column"`
	UpdateRule       string `db:"update_rule"`
	DeleteRule       string `db:"delete_rule"`
}

// ForeignConstraints folds foreign key rows into constraints.
func ForeignConstraints(rows []ForeignKeyColumn) []model.NamedProperties {
	var out []model.NamedProperties
	for i := 0; i < len(rows); {
		j := i
		var cols, refs []string
		for ; j < len(rows) && rows[j].ConstraintName == rows[i].ConstraintName; j++ {
			cols = append(cols, rows[j].ColumnName)
			refs = append(refs, rows[j].ReferencedColumn)
		}
		fk := rows[i]
		out = append(out, ForeignConstraint(fk.ConstraintName, cols, fk.ReferencedTable, refs, fk.UpdateRule, fk.DeleteRule))
		i = j
	}
	return out
}
