package connector

import (
	"context"
	"fmt"
	"strings"

	"github.com/Masterminds/squirrel"

	"github.com/faucetdb/fixturebake/internal/model"
)

// DefaultCondition selects every row.
const DefaultCondition = "1=1"

// SampleRequest describes which live rows to copy into a fixture.
type SampleRequest struct {
	// Condition is a SQL boolean expression, optionally prefixed with WHERE.
	// Empty means DefaultCondition.
	Condition string
	Limit     int
}

// NormalizeCondition strips a leading WHERE keyword and applies the default.
func NormalizeCondition(cond string) string {
	cond = strings.TrimSpace(cond)
	if len(cond) >= 5 && strings.EqualFold(cond[:5], "where") && (len(cond) == 5 || cond[5] == ' ' || cond[5] == '\t' || cond[5] == '\n') {
		cond = strings.TrimSpace(cond[5:])
	}
	if cond == "" {
		return DefaultCondition
	}
	return cond
}

// BuildSampleQuery builds the SELECT used to sample rows of table in the
// dialect of conn.
func BuildSampleQuery(conn Connector, table *model.TableSchema, req SampleRequest) (string, []any, error) {
	if req.Limit <= 0 {
		return "", nil, fmt.Errorf("sample %q: limit must be positive", table.Name)
	}
	cond := NormalizeCondition(req.Condition)
	if err := ValidateCondition(cond); err != nil {
		return "", nil, fmt.Errorf("sample %q: %w", table.Name, err)
	}

	cols := make([]string, 0, len(table.Columns))
	for _, c := range table.Columns {
		cols = append(cols, conn.QuoteIdentifier(c.Name))
	}
	if len(cols) == 0 {
		cols = append(cols, "*")
	}

	// Positional formats rewrite every ?, even inside literals; ?? stays a ?.
	format := conn.PlaceholderFormat()
	if format != squirrel.Question {
		cond = strings.ReplaceAll(cond, "?", "??")
	}

	q := squirrel.Select(cols...).
		From(conn.QuoteIdentifier(table.Name)).
		Where(cond).
		PlaceholderFormat(format)

	switch conn.DriverName() {
	case "mssql":
		q = q.Options(fmt.Sprintf("TOP %d", req.Limit))
	case "oracle":
		q = q.Suffix(fmt.Sprintf("FETCH FIRST %d ROWS ONLY", req.Limit))
	default:
		q = q.Limit(uint64(req.Limit))
	}

	query, args, err := q.ToSql()
	if err != nil {
		return "", nil, fmt.Errorf("build sample query for %q: %w", table.Name, err)
	}
	return query, args, nil
}

// Sample reads up to req.Limit rows of table that match req.Condition.
// A non-positive limit returns no rows without touching the database.
func Sample(ctx context.Context, conn Connector, table *model.TableSchema, req SampleRequest) ([]map[string]any, error) {
	if req.Limit <= 0 {
		return []map[string]any{}, nil
	}

	query, args, err := BuildSampleQuery(conn, table, req)
	if err != nil {
		return nil, err
	}

	rows, err := conn.DB().QueryxContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sample %q: %w", table.Name, err)
	}
	defer rows.Close()

	results := []map[string]any{}
	for rows.Next() {
		row := make(map[string]any)
		if err := rows.MapScan(row); err != nil {
			return nil, fmt.Errorf("scan sampled row: %w", err)
		}
		results = append(results, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sampled rows: %w", err)
	}
	return results, nil
}
