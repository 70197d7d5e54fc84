package model

import (
	"testing"
	"time"

	"github.com/faucetdb/fixturebake/internal/literal"
)

func int64Ptr(n int64) *int64 { return &n }

func TestDefaultPoolConfig(t *testing.T) {
	pc := DefaultPoolConfig()

	if pc.MaxOpenConns != 4 {
		t.Errorf("MaxOpenConns = %d, want 4", pc.MaxOpenConns)
	}
	if pc.MaxIdleConns != 2 {
		t.Errorf("MaxIdleConns = %d, want 2", pc.MaxIdleConns)
	}
	if pc.ConnMaxLifetime != 5*time.Minute {
		t.Errorf("ConnMaxLifetime = %v, want %v", pc.ConnMaxLifetime, 5*time.Minute)
	}
	if pc.ConnMaxIdleTime != 1*time.Minute {
		t.Errorf("ConnMaxIdleTime = %v, want %v", pc.ConnMaxIdleTime, 1*time.Minute)
	}
}

func TestParseColumnType(t *testing.T) {
	tests := []struct {
		in   string
		want ColumnType
	}{
		{"integer", TypeInteger},
		{"INTEGER", TypeInteger},
		{"biginteger", TypeInteger},
		{"decimal", TypeFloat},
		{" string ", TypeString},
		{"uuid", TypeString},
		{"text", TypeText},
		{"boolean", TypeBoolean},
		{"datetime", TypeDatetime},
		{"timestamp", TypeTimestamp},
		{"geometry", TypeOther},
		{"", TypeOther},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := ParseColumnType(tt.in); got != tt.want {
				t.Errorf("ParseColumnType(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestColumnProperties(t *testing.T) {
	tests := []struct {
		name string
		col  Column
		want string
	}{
		{
			name: "minimal",
			col:  Column{Name: "id", Type: TypeInteger},
			want: "['type' => 'integer', 'null' => false, 'default' => null]",
		},
		{
			name: "length and default",
			col: Column{
				Name:    "name",
				Type:    TypeString,
				Length:  int64Ptr(20),
				Null:    true,
				Default: literal.String("NULL"),
			},
			want: "['type' => 'string', 'length' => 20, 'null' => true, 'default' => 'NULL']",
		},
		{
			name: "extras in order",
			col: Column{
				Name:  "id",
				Type:  TypeInteger,
				Extra: literal.NewMap(literal.E("unsigned", true), literal.E("autoIncrement", true)),
			},
			want: "['type' => 'integer', 'null' => false, 'default' => null, 'unsigned' => true, 'autoIncrement' => true]",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := literal.Serialize(tt.col.Properties()); got != tt.want {
				t.Errorf("Properties() =\n  %s\nwant\n  %s", got, tt.want)
			}
		})
	}
}

func TestTableSchemaHelpers(t *testing.T) {
	table := &TableSchema{
		Name: "articles",
		Columns: []Column{
			{Name: "id", Type: TypeInteger},
			{Name: "title", Type: TypeString},
		},
		PrimaryKey: []string{"id"},
	}

	names := table.ColumnNames()
	if len(names) != 2 || names[0] != "id" || names[1] != "title" {
		t.Errorf("ColumnNames() = %v, want [id title]", names)
	}
	if c, ok := table.Column("title"); !ok || c.Type != TypeString {
		t.Errorf("Column(title) = %+v, %v", c, ok)
	}
	if _, ok := table.Column("missing"); ok {
		t.Error("Column(missing) should not be found")
	}
	if !table.IsPrimaryKey("id") || table.IsPrimaryKey("title") {
		t.Error("IsPrimaryKey mismatch")
	}
}
