package model

import (
	"strings"

	"github.com/faucetdb/fixturebake/internal/literal"
)

// ColumnType is the abstract type of a column, independent of the driver.
type ColumnType string

const (
	TypeInteger   ColumnType = "integer"
	TypeFloat     ColumnType = "float"
	TypeString    ColumnType = "string"
	TypeBinary    ColumnType = "binary"
	TypeText      ColumnType = "text"
	TypeBoolean   ColumnType = "boolean"
	TypeDate      ColumnType = "date"
	TypeTime      ColumnType = "time"
	TypeDatetime  ColumnType = "datetime"
	TypeTimestamp ColumnType = "timestamp"
	TypeOther     ColumnType = "other"
)

var columnTypes = map[string]ColumnType{
	"integer":    TypeInteger,
	"biginteger": TypeInteger,
	"float":      TypeFloat,
	"decimal":    TypeFloat,
	"string":     TypeString,
	"uuid":       TypeString,
	"binary":     TypeBinary,
	"text":       TypeText,
	"boolean":    TypeBoolean,
	"date":       TypeDate,
	"time":       TypeTime,
	"datetime":   TypeDatetime,
	"timestamp":  TypeTimestamp,
}

// ParseColumnType maps an abstract type name to a ColumnType. Unknown names
// yield TypeOther.
func ParseColumnType(name string) ColumnType {
	if t, ok := columnTypes[strings.ToLower(strings.TrimSpace(name))]; ok {
		return t
	}
	return TypeOther
}

// Column describes a single column of a table.
type Column struct {
	Name string
	Type ColumnType
	// DBType is the raw type reported by the driver, e.g. "varchar(255)".
	DBType  string
	Length  *int64
	Null    bool
	Default literal.Value
	// Extra holds driver-specific properties such as unsigned,
	// autoIncrement, precision and comment, in output order.
	Extra *literal.Map
}

// Properties returns the ordered property bag that describes the column in
// a schema literal: type, length (when set), null, default, then extras.
func (c Column) Properties() *literal.Map {
	props := literal.NewMap(literal.E("type", string(c.Type)))
	if c.Length != nil {
		props.Set("length", literal.Int(*c.Length))
	}
	props.Set("null", literal.Bool(c.Null))
	props.Set("default", c.Default)
	for _, e := range c.Extra.Entries() {
		props.Set(e.Key, e.Value)
	}
	return props
}

// NamedProperties is a named, free-form property bag. Indexes and
// constraints are described this way.
type NamedProperties struct {
	Name       string
	Properties *literal.Map
}

// TableSchema describes the structure of a single table. Builders treat it
// as read-only.
type TableSchema struct {
	Name        string
	Columns     []Column
	PrimaryKey  []string
	Indexes     []NamedProperties
	Constraints []NamedProperties
	Options     *literal.Map
}

// ColumnNames returns the column names in declaration order.
func (t *TableSchema) ColumnNames() []string {
	names := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		names[i] = c.Name
	}
	return names
}

// Column returns the column with the given name.
func (t *TableSchema) Column(name string) (Column, bool) {
	for _, c := range t.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return Column{}, false
}

// IsPrimaryKey reports whether name is part of the primary key.
func (t *TableSchema) IsPrimaryKey(name string) bool {
	for _, pk := range t.PrimaryKey {
		if pk == name {
			return true
		}
	}
	return false
}
