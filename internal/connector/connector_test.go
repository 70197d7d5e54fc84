package connector

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/faucetdb/fixturebake/internal/literal"
	"github.com/faucetdb/fixturebake/internal/model"
)

func articles() *model.TableSchema {
	return &model.TableSchema{
		Name: "articles",
		Columns: []model.Column{
			{Name: "id", Type: model.TypeInteger},
			{Name: "title", Type: model.TypeString},
		},
	}
}

func TestDescribe(t *testing.T) {
	ctx := context.Background()

	_, err := Describe(ctx, &mockConnector{}, "articles")
	if !errors.Is(err, ErrIntrospectionUnsupported) {
		t.Fatalf("err = %v, want ErrIntrospectionUnsupported", err)
	}

	dc := &describingConnector{tables: map[string]*model.TableSchema{"articles": articles()}}
	table, err := Describe(ctx, dc, "articles")
	if err != nil {
		t.Fatalf("Describe: %v", err)
	}
	if table.Name != "articles" || len(table.Columns) != 2 {
		t.Errorf("unexpected table %+v", table)
	}

	if _, err := Describe(ctx, dc, "missing"); err == nil || errors.Is(err, ErrIntrospectionUnsupported) {
		t.Errorf("missing table err = %v", err)
	}
}

func TestNormalizeCondition(t *testing.T) {
	tests := map[string]string{
		"":                   "1=1",
		"   ":                "1=1",
		"WHERE 1=1":          "1=1",
		"where id > 3":       "id > 3",
		"WHERE":              "1=1",
		"published = 1":      "published = 1",
		"whereabouts = 'x'":  "whereabouts = 'x'",
		"  WHERE\tactive=1 ": "active=1",
	}
	for in, want := range tests {
		if got := NormalizeCondition(in); got != want {
			t.Errorf("NormalizeCondition(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestBuildSampleQuery(t *testing.T) {
	tests := []struct {
		name   string
		driver string
		req    SampleRequest
		want   string
	}{
		{
			name: "default dialect",
			req:  SampleRequest{Limit: 10},
			want: `SELECT "id", "title" FROM "articles" WHERE 1=1 LIMIT 10`,
		},
		{
			name: "custom condition",
			req:  SampleRequest{Condition: "WHERE id > 5", Limit: 3},
			want: `SELECT "id", "title" FROM "articles" WHERE id > 5 LIMIT 3`,
		},
		{
			name:   "mssql top",
			driver: "mssql",
			req:    SampleRequest{Limit: 10},
			want:   `SELECT TOP 10 "id", "title" FROM "articles" WHERE 1=1`,
		},
		{
			name:   "oracle fetch first",
			driver: "oracle",
			req:    SampleRequest{Limit: 2},
			want:   `SELECT "id", "title" FROM "articles" WHERE 1=1 FETCH FIRST 2 ROWS ONLY`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, args, err := BuildSampleQuery(&mockConnector{driver: tt.driver}, articles(), tt.req)
			if err != nil {
				t.Fatalf("BuildSampleQuery: %v", err)
			}
			if got != tt.want {
				t.Errorf("query =\n  %s\nwant\n  %s", got, tt.want)
			}
			if len(args) != 0 {
				t.Errorf("args = %v, want none", args)
			}
		})
	}

	if _, _, err := BuildSampleQuery(&mockConnector{}, articles(), SampleRequest{}); err == nil {
		t.Error("expected error for zero limit")
	}
}

func TestSampleZeroLimit(t *testing.T) {
	// DB() is nil on the mock, so any query would panic.
	rows, err := Sample(context.Background(), &mockConnector{}, articles(), SampleRequest{Limit: 0})
	if err != nil {
		t.Fatalf("Sample: %v", err)
	}
	if len(rows) != 0 {
		t.Errorf("rows = %v, want none", rows)
	}
}

func strPtr(s string) *string { return &s }

func TestDefaultValue(t *testing.T) {
	tests := []struct {
		name string
		raw  *string
		typ  model.ColumnType
		want literal.Value
	}{
		{"absent", nil, model.TypeString, literal.Null{}},
		{"null keyword", strPtr("NULL"), model.TypeString, literal.Null{}},
		{"quoted NULL text", strPtr("'NULL'"), model.TypeString, literal.String("NULL")},
		{"sequence", strPtr("nextval('articles_id_seq'::regclass)"), model.TypeInteger, literal.Null{}},
		{"current timestamp", strPtr("CURRENT_TIMESTAMP"), model.TypeDatetime, literal.Null{}},
		{"postgres cast", strPtr("'draft'::character varying"), model.TypeString, literal.String("draft")},
		{"escaped quote", strPtr("'it''s'"), model.TypeString, literal.String("it's")},
		{"mssql unicode", strPtr("(N'draft')"), model.TypeString, literal.String("draft")},
		{"mssql parens", strPtr("((0))"), model.TypeInteger, literal.Int(0)},
		{"integer", strPtr("42"), model.TypeInteger, literal.Int(42)},
		{"float", strPtr("1.5"), model.TypeFloat, literal.Float(1.5)},
		{"boolean", strPtr("true"), model.TypeBoolean, literal.Bool(true)},
		{"mysql bit", strPtr("b'0'"), model.TypeBoolean, literal.Bool(false)},
		{"plain text", strPtr("pending"), model.TypeString, literal.String("pending")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DefaultValue(tt.raw, tt.typ); got != tt.want {
				t.Errorf("DefaultValue = %#v, want %#v", got, tt.want)
			}
		})
	}
}

func TestSanitizeDSN(t *testing.T) {
	tests := []struct {
		name   string
		driver string
		in     string
		check  func(string) bool
	}{
		{
			name:   "postgres password with specials",
			driver: "postgres",
			in:     "postgres://user:p@ss#word@localhost:5432/app?sslmode=disable",
			check: func(s string) bool {
				return s == "postgres://user:p@ss%23word@localhost:5432/app?sslmode=disable"
			},
		},
		{
			name:   "postgres without credentials",
			driver: "postgres",
			in:     "postgres://localhost/app",
			check:  func(s string) bool { return s == "postgres://localhost/app" },
		},
		{
			name:   "mysql bare host",
			driver: "mysql",
			in:     "root:secret@localhost:3306/app",
			check:  func(s string) bool { return strings.Contains(s, "@tcp(localhost:3306)/app") },
		},
		{
			name:   "mysql parens without tcp",
			driver: "mysql",
			in:     "root:secret@(localhost:3306)/app",
			check:  func(s string) bool { return strings.Contains(s, "@tcp(localhost:3306)/app") },
		},
		{
			name:   "sqlite untouched",
			driver: "sqlite",
			in:     "file::memory:?cache=shared",
			check:  func(s string) bool { return s == "file::memory:?cache=shared" },
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SanitizeDSN(tt.driver, tt.in); !tt.check(got) {
				t.Errorf("SanitizeDSN(%q, %q) = %q", tt.driver, tt.in, got)
			}
		})
	}
}

func TestParseTypeLength(t *testing.T) {
	tests := []struct {
		in         string
		base       string
		length     int64
		precision  int64
		hasLength  bool
		hasPrecise bool
	}{
		{"VARCHAR(50)", "VARCHAR", 50, 0, true, false},
		{"DECIMAL(10, 2)", "DECIMAL", 10, 2, true, true},
		{"INT(11) UNSIGNED", "INT UNSIGNED", 11, 0, true, false},
		{"TEXT", "TEXT", 0, 0, false, false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			base, length, precision := ParseTypeLength(tt.in)
			if base != tt.base {
				t.Errorf("base = %q, want %q", base, tt.base)
			}
			if (length != nil) != tt.hasLength || (length != nil && *length != tt.length) {
				t.Errorf("length = %v, want %d", length, tt.length)
			}
			if (precision != nil) != tt.hasPrecise || (precision != nil && *precision != tt.precision) {
				t.Errorf("precision = %v, want %d", precision, tt.precision)
			}
		})
	}
}

func TestForeignKeyRule(t *testing.T) {
	tests := map[string]string{
		"CASCADE":     "cascade",
		"set null":    "setNull",
		"SET DEFAULT": "setDefault",
		"SET_NULL":    "setNull",
		"NO_ACTION":   "noAction",
		"RESTRICT":    "restrict",
		"NO ACTION":   "noAction",
		"":            "noAction",
	}
	for in, want := range tests {
		if got := ForeignKeyRule(in); got != want {
			t.Errorf("ForeignKeyRule(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestApplyIndexes(t *testing.T) {
	table := &model.TableSchema{Name: "articles"}
	ApplyIndexes(table, []IndexColumn{
		{IndexName: "articles_pkey", ColumnName: "id", Primary: true, Unique: true},
		{IndexName: "title_slug", ColumnName: "title", Unique: true},
		{IndexName: "title_slug", ColumnName: "slug", Unique: true},
		{IndexName: "created_idx", ColumnName: "created"},
	})

	if len(table.PrimaryKey) != 1 || table.PrimaryKey[0] != "id" {
		t.Errorf("PrimaryKey = %v, want [id]", table.PrimaryKey)
	}
	if len(table.Constraints) != 2 {
		t.Fatalf("constraints = %+v, want 2", table.Constraints)
	}
	if table.Constraints[0].Name != "primary" {
		t.Errorf("first constraint = %q, want primary", table.Constraints[0].Name)
	}
	if got := literal.Serialize(table.Constraints[1].Properties); got != "['type' => 'unique', 'columns' => ['title', 'slug']]" {
		t.Errorf("unique = %s", got)
	}
	if len(table.Indexes) != 1 || literal.Serialize(table.Indexes[0].Properties) != "['type' => 'index', 'columns' => ['created']]" {
		t.Errorf("indexes = %+v", table.Indexes)
	}
}

func TestForeignConstraints(t *testing.T) {
	got := ForeignConstraints([]ForeignKeyColumn{
		{ConstraintName: "articles_author_fk", ColumnName: "author_id", ReferencedTable: "authors", ReferencedColumn: "id", UpdateRule: "RESTRICT", DeleteRule: "CASCADE"},
		{ConstraintName: "articles_pair_fk", ColumnName: "a", ReferencedTable: "pairs", ReferencedColumn: "x", UpdateRule: "NO ACTION", DeleteRule: "SET NULL"},
		{ConstraintName: "articles_pair_fk", ColumnName: "b", ReferencedTable: "pairs", ReferencedColumn: "y", UpdateRule: "NO ACTION", DeleteRule: "SET NULL"},
	})
	if len(got) != 2 {
		t.Fatalf("constraints = %d, want 2", len(got))
	}

	want := []string{
		"['type' => 'foreign', 'columns' => ['author_id'], 'references' => ['authors', 'id'], 'update' => 'restrict', 'delete' => 'cascade']",
		"['type' => 'foreign', 'columns' => ['a', 'b'], 'references' => ['pairs', ['x', 'y']], 'update' => 'noAction', 'delete' => 'setNull']",
	}
	for i := range want {
		if s := literal.Serialize(got[i].Properties); s != want[i] {
			t.Errorf("constraint %d =\n  %s\nwant\n  %s", i, s, want[i])
		}
	}
}

func TestExtraProperties(t *testing.T) {
	var e ExtraProperties
	e.Set("unsigned", false)
	e.Set("comment", "")
	e.Set("precision", (*int64)(nil))
	if e.Map() != nil {
		t.Fatalf("unset properties = %v, want nil", e.Map())
	}

	n := int64(2)
	e.Set("autoIncrement", true)
	e.Set("precision", &n)
	if got := literal.Serialize(e.Map()); got != "['autoIncrement' => true, 'precision' => 2]" {
		t.Errorf("properties = %s", got)
	}
}
