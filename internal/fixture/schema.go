// Package fixture turns a table schema into the text sections of a test
// fixture: the schema literal, the record literal and the import directive.
// Nothing in this package performs I/O.
package fixture

import (
	"strings"

	"github.com/faucetdb/fixturebake/internal/literal"
	"github.com/faucetdb/fixturebake/internal/model"
)

// BuildSchema renders the table structure as a literal block, one column
// per line followed by the _indexes, _constraints and _options sections when
// they are non-empty.
func BuildSchema(table *model.TableSchema) string {
	cols := []string{}
	for _, c := range table.Columns {
		cols = append(cols, "\t\t"+keyed(c.Name, c.Properties())+",")
	}

	indexes := namedLines(table.Indexes)
	constraints := namedLines(table.Constraints)
	options := literal.SerializeEntries(table.Options)

	var b strings.Builder
	b.WriteString(strings.Join(cols, "\n"))
	b.WriteString("\n")
	if len(indexes) > 0 {
		b.WriteString("\t\t'_indexes' => [" + strings.Join(indexes, "\n") + "],\n")
	}
	if len(constraints) > 0 {
		b.WriteString("\t\t'_constraints' => [" + strings.Join(constraints, "\n") + "],\n")
	}
	if len(options) > 0 {
		b.WriteString("\t\t'_options' => [" + strings.Join(options, ", ") + "],\n")
	}
	return "[\n" + b.String() + "]"
}

func namedLines(items []model.NamedProperties) []string {
	lines := []string{}
	for _, item := range items {
		lines = append(lines, "\t\t\t"+keyed(item.Name, item.Properties)+",")
	}
	return lines
}

// keyed renders `'name' => [props]`.
func keyed(name string, props *literal.Map) string {
	return literal.Serialize(literal.String(name)) + " => [" + strings.Join(literal.SerializeEntries(props), ", ") + "]"
}
