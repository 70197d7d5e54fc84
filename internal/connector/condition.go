package connector

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnsafeCondition is returned for sampling conditions that could do more
// than filter rows.
var ErrUnsafeCondition = errors.New("unsafe condition")

// maxConditionLen bounds a sampling condition.
const maxConditionLen = 4096

// forbiddenWords may not appear outside string literals in a condition.
var forbiddenWords = map[string]bool{
	"INSERT": true, "UPDATE": true, "DELETE": true, "MERGE": true,
	"DROP": true, "CREATE": true, "ALTER": true, "TRUNCATE": true,
	"EXEC": true, "EXECUTE": true, "CALL": true, "UNION": true,
	"INTO": true, "GRANT": true, "REVOKE": true,
}

// ValidateCondition checks that cond is a single boolean expression. It
// rejects null bytes, statement separators, comments and data-changing
// keywords found outside string literals and quoted identifiers.
func ValidateCondition(cond string) error {
	if len(cond) > maxConditionLen {
		return fmt.Errorf("%w: longer than %d bytes", ErrUnsafeCondition, maxConditionLen)
	}
	if strings.ContainsRune(cond, 0) {
		return fmt.Errorf("%w: contains a null byte", ErrUnsafeCondition)
	}

	var quote byte // open quote character, 0 outside quotes
	word := strings.Builder{}
	checkWord := func() error {
		w := strings.ToUpper(word.String())
		word.Reset()
		if forbiddenWords[w] {
			return fmt.Errorf("%w: %s is not allowed", ErrUnsafeCondition, w)
		}
		return nil
	}

	for i := 0; i < len(cond); i++ {
		c := cond[i]
		if quote != 0 {
			if c == quote {
				if i+1 < len(cond) && cond[i+1] == quote {
					i++
					continue
				}
				quote = 0
			}
			continue
		}

		if isWordByte(c) {
			word.WriteByte(c)
			continue
		}
		if err := checkWord(); err != nil {
			return err
		}

		switch {
		case c == '\'', c == '"', c == '`':
			quote = c
		case c == ';':
			return fmt.Errorf("%w: statement separator", ErrUnsafeCondition)
		case c == '-' && i+1 < len(cond) && cond[i+1] == '-',
			c == '/' && i+1 < len(cond) && cond[i+1] == '*',
			c == '#':
			return fmt.Errorf("%w: comments are not allowed", ErrUnsafeCondition)
		}
	}
	if quote != 0 {
		return fmt.Errorf("%w: unterminated quote %c", ErrUnsafeCondition, quote)
	}
	return checkWord()
}

func isWordByte(c byte) bool {
	return c == '_' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9'
}
