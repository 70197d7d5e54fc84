package connector

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/faucetdb/fixturebake/internal/literal"
	"github.com/faucetdb/fixturebake/internal/model"
)

// castSuffix matches trailing type casts such as ::character varying.
var castSuffix = regexp.MustCompile(`::[a-zA-Z_ ]+(\[\])?(\(\d+\))?$`)

// generatedDefault matches defaults computed by the database. They cannot
// be reproduced in a fixture and are reported as null.
var generatedDefault = regexp.MustCompile(`(?i)^(nextval\(|current_timestamp|now\(\)|getdate\(\)|newid\(\)|gen_random_uuid\(\)|uuid\(\)|sysdate|systimestamp|autoincrement)`)

// DefaultValue converts a column default as reported by information_schema
// into a literal. Absent, NULL and database-generated defaults become null.
func DefaultValue(raw *string, t model.ColumnType) literal.Value {
	if raw == nil {
		return literal.Null{}
	}
	s := strings.TrimSpace(*raw)
	for strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		s = strings.TrimSpace(s[1 : len(s)-1])
	}
	s = castSuffix.ReplaceAllString(s, "")
	if s == "" || strings.EqualFold(s, "null") || generatedDefault.MatchString(s) {
		return literal.Null{}
	}
	// SQL Server reports unicode literals as N'...'.
	if len(s) >= 3 && (s[0] == 'N' || s[0] == 'n') && s[1] == '\'' {
		s = s[1:]
	}
	if len(s) >= 2 && s[0] == '\'' && s[len(s)-1] == '\'' {
		s = strings.ReplaceAll(s[1:len(s)-1], "''", "'")
	}

	switch t {
	case model.TypeInteger:
		if n, err := strconv.ParseInt(s, 10, 64); err == nil {
			return literal.Int(n)
		}
	case model.TypeFloat:
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return literal.Float(f)
		}
	case model.TypeBoolean:
		switch strings.ToLower(s) {
		case "true", "t", "1", "b'1'":
			return literal.Bool(true)
		case "false", "f", "0", "b'0'":
			return literal.Bool(false)
		}
	}
	return literal.String(s)
}
