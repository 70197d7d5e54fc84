package fixture

import (
	"time"

	"github.com/google/uuid"

	"github.com/faucetdb/fixturebake/internal/literal"
	"github.com/faucetdb/fixturebake/internal/model"
)

// Placeholder values used for generated records.
const (
	LoremPhrase = "Lorem ipsum dolor sit amet"
	LoremText   = "Lorem ipsum dolor sit amet, aliquet feugiat." +
		" Convallis morbi fringilla gravida," +
		" phasellus feugiat dapibus velit nunc, pulvinar eget sollicitudin" +
		" venenatis cum nullam, vivamus ut a sed, mollitia lectus. Nulla" +
		" vestibulum massa neque ut et, id hendrerit sit," +
		" feugiat in taciti enim proin nibh, tempor dignissim, rhoncus" +
		" duis vestibulum nunc mattis convallis."
)

// Layouts for rendering clock values.
const (
	DatetimeLayout = "2006-01-02 15:04:05"
	DateLayout     = "2006-01-02"
	TimeLayout     = "15:04:05"
)

// Generator produces placeholder records from a table schema.
type Generator struct {
	// Now is sampled once per Generate call.
	Now func() time.Time
	// NewUUID supplies primary key values for string and binary keys.
	NewUUID func() string
}

// NewGenerator returns a Generator backed by the wall clock and random UUIDs.
func NewGenerator() *Generator {
	return &Generator{Now: time.Now, NewUUID: uuid.NewString}
}

// Generate returns exactly count records, each holding a value for every
// column in column order. A negative count yields no records.
func (g *Generator) Generate(table *model.TableSchema, count int) []model.Record {
	if count < 0 {
		count = 0
	}
	now := g.Now()
	records := make([]model.Record, 0, count)
	for i := 0; i < count; i++ {
		rec := &literal.Map{}
		for _, c := range table.Columns {
			rec.Set(c.Name, g.placeholder(table, c, i, now))
		}
		records = append(records, rec)
	}
	return records
}

func (g *Generator) placeholder(table *model.TableSchema, c model.Column, i int, now time.Time) literal.Value {
	switch c.Type {
	case model.TypeInteger, model.TypeFloat:
		return literal.Int(i + 1)
	case model.TypeString, model.TypeBinary:
		if table.IsPrimaryKey(c.Name) {
			return literal.String(g.NewUUID())
		}
		return literal.String(truncate(LoremPhrase, c.Length))
	case model.TypeText:
		return literal.String(LoremText)
	case model.TypeTimestamp:
		return literal.Int(now.Unix())
	case model.TypeDatetime:
		return literal.String(now.Format(DatetimeLayout))
	case model.TypeDate:
		return literal.String(now.Format(DateLayout))
	case model.TypeTime:
		return literal.String(now.Format(TimeLayout))
	case model.TypeBoolean:
		return literal.Int(1)
	}
	return literal.String("")
}

// truncate cuts s to length-2 characters when a positive length is declared.
func truncate(s string, length *int64) string {
	if length == nil || *length <= 0 {
		return s
	}
	n := *length - 2
	if n < 0 {
		n = 0
	}
	if n < int64(len(s)) {
		return s[:n]
	}
	return s
}
