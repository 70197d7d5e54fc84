package fixture

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/faucetdb/fixturebake/internal/literal"
	"github.com/faucetdb/fixturebake/internal/model"
)

// BuildRecords renders records as a literal list, one field per line.
func BuildRecords(records []model.Record) string {
	var b strings.Builder
	b.WriteString("[\n")
	for _, rec := range records {
		fields := []string{}
		for _, e := range rec.Entries() {
			fields = append(fields, "\t\t\t"+literal.Serialize(literal.String(e.Key))+" => "+literal.Serialize(e.Value))
		}
		b.WriteString("\t\t[\n")
		b.WriteString(strings.Join(fields, ",\n"))
		b.WriteString("\n\t\t],\n")
	}
	b.WriteString("\t]")
	return b.String()
}

// RecordsFromRows converts rows sampled from the live table into records.
// Fields follow the table's column order; columns missing from a row are
// null and row keys that are not columns are dropped. Boolean columns are
// coerced to 0 or 1.
func RecordsFromRows(table *model.TableSchema, rows []map[string]any) []model.Record {
	records := make([]model.Record, 0, len(rows))
	for _, row := range rows {
		rec := &literal.Map{}
		for _, c := range table.Columns {
			rec.Set(c.Name, sampledValue(c, row[c.Name]))
		}
		records = append(records, rec)
	}
	return records
}

func sampledValue(c model.Column, v any) literal.Value {
	if v == nil {
		return literal.Null{}
	}
	if c.Type == model.TypeBoolean {
		return literal.Int(boolInt(v))
	}
	switch x := v.(type) {
	case []byte:
		return literal.String(x)
	case time.Time:
		switch c.Type {
		case model.TypeDate:
			return literal.String(x.Format(DateLayout))
		case model.TypeTime:
			return literal.String(x.Format(TimeLayout))
		}
		return literal.String(x.Format(DatetimeLayout))
	case bool, string, int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64:
		return literal.Of(x)
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return literal.Null{}
		}
		return sampledValue(c, rv.Elem().Interface())
	}
	// Driver-specific types (decimals, UUID arrays) keep their text form.
	return literal.String(fmt.Sprint(v))
}

func boolInt(v any) int {
	switch x := v.(type) {
	case bool:
		if x {
			return 1
		}
		return 0
	case []byte:
		return boolInt(string(x))
	case string:
		switch strings.ToLower(strings.TrimSpace(x)) {
		case "", "0", "f", "false", "n", "no":
			return 0
		}
		return 1
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if rv.Int() != 0 {
			return 1
		}
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		if rv.Uint() != 0 {
			return 1
		}
	case reflect.Float32, reflect.Float64:
		if rv.Float() != 0 {
			return 1
		}
	default:
		if b, err := strconv.ParseBool(fmt.Sprint(v)); err == nil && b {
			return 1
		}
	}
	return 0
}
