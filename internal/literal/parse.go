package literal

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Parse reads literal text produced by Serialize (or hand-written in the
// same short-array dialect, including `array(...)` and trailing commas)
// back into a Value. Bracketed groups with at least one explicit key become
// a *Map, with positional entries keyed by their running index; groups
// without keys become a List.
func Parse(text string) (Value, error) {
	p := &parser{src: text}
	v, err := p.value()
	if err != nil {
		return nil, err
	}
	p.skipSpace()
	if p.pos != len(p.src) {
		return nil, p.errorf("unexpected trailing input %q", p.rest(10))
	}
	return v, nil
}

type parser struct {
	src string
	pos int
}

func (p *parser) errorf(format string, args ...any) error {
	return fmt.Errorf("literal: offset %d: %s", p.pos, fmt.Sprintf(format, args...))
}

func (p *parser) rest(n int) string {
	end := p.pos + n
	if end > len(p.src) {
		end = len(p.src)
	}
	return p.src[p.pos:end]
}

func (p *parser) skipSpace() {
	for p.pos < len(p.src) {
		switch p.src[p.pos] {
		case ' ', '\t', '\n', '\r':
			p.pos++
		default:
			return
		}
	}
}

func (p *parser) consume(tok string) bool {
	p.skipSpace()
	if strings.HasPrefix(p.src[p.pos:], tok) {
		p.pos += len(tok)
		return true
	}
	return false
}

func (p *parser) consumeWord(word string) bool {
	p.skipSpace()
	if len(p.src)-p.pos < len(word) || !strings.EqualFold(p.src[p.pos:p.pos+len(word)], word) {
		return false
	}
	next := p.pos + len(word)
	if next < len(p.src) && isIdentByte(p.src[next]) {
		return false
	}
	p.pos = next
	return true
}

func isIdentByte(c byte) bool {
	return c == '_' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9'
}

func (p *parser) value() (Value, error) {
	p.skipSpace()
	if p.pos >= len(p.src) {
		return nil, p.errorf("unexpected end of input")
	}
	switch c := p.src[p.pos]; {
	case c == '[':
		p.pos++
		return p.group("]")
	case c == '\'':
		return p.str()
	case c == '-' || c >= '0' && c <= '9':
		return p.number()
	}
	switch {
	case p.consumeWord("array"):
		if !p.consume("(") {
			return nil, p.errorf("expected ( after array")
		}
		return p.group(")")
	case p.consumeWord("null"):
		return Null{}, nil
	case p.consumeWord("true"):
		return Bool(true), nil
	case p.consumeWord("false"):
		return Bool(false), nil
	case p.consumeWord("INF"):
		return Float(math.Inf(1)), nil
	case p.consumeWord("NAN"):
		return Float(math.NaN()), nil
	}
	return nil, p.errorf("unexpected input %q", p.rest(10))
}

func (p *parser) group(closer string) (Value, error) {
	var (
		keys   []string
		values []Value
		keyed  bool
		next   int
	)
	for {
		if p.consume(closer) {
			break
		}
		first, err := p.value()
		if err != nil {
			return nil, err
		}
		if p.consume("=>") {
			val, err := p.value()
			if err != nil {
				return nil, err
			}
			key, err := keyString(first)
			if err != nil {
				return nil, p.errorf("%v", err)
			}
			if n, err := strconv.Atoi(key); err == nil && IsPositional(key) && n >= next {
				next = n + 1
			}
			keys = append(keys, key)
			values = append(values, val)
			keyed = true
		} else {
			keys = append(keys, strconv.Itoa(next))
			next++
			values = append(values, first)
		}
		if p.consume(",") {
			continue
		}
		if !p.consume(closer) {
			return nil, p.errorf("expected , or %s", closer)
		}
		break
	}
	if !keyed {
		return List(values), nil
	}
	m := &Map{}
	for i, k := range keys {
		m.Set(k, values[i])
	}
	return m, nil
}

func keyString(v Value) (string, error) {
	switch k := v.(type) {
	case String:
		return string(k), nil
	case Int:
		return strconv.FormatInt(int64(k), 10), nil
	}
	return "", fmt.Errorf("unsupported key %s", Serialize(v))
}

func (p *parser) str() (Value, error) {
	p.pos++ // opening quote
	var b strings.Builder
	for p.pos < len(p.src) {
		c := p.src[p.pos]
		switch {
		case c == '\\' && p.pos+1 < len(p.src) && (p.src[p.pos+1] == '\\' || p.src[p.pos+1] == '\''):
			b.WriteByte(p.src[p.pos+1])
			p.pos += 2
		case c == '\'':
			p.pos++
			return String(b.String()), nil
		default:
			b.WriteByte(c)
			p.pos++
		}
	}
	return nil, p.errorf("unterminated string")
}

func (p *parser) number() (Value, error) {
	start := p.pos
	if p.src[p.pos] == '-' {
		p.pos++
		if p.consumeWord("INF") {
			return Float(math.Inf(-1)), nil
		}
	}
	isFloat := false
scan:
	for p.pos < len(p.src) {
		c := p.src[p.pos]
		switch {
		case c >= '0' && c <= '9':
		case c == '.' || c == 'e' || c == 'E':
			isFloat = true
		case (c == '+' || c == '-') && (p.src[p.pos-1] == 'e' || p.src[p.pos-1] == 'E'):
		default:
			break scan
		}
		p.pos++
	}
	text := p.src[start:p.pos]
	if isFloat {
		f, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return nil, p.errorf("bad float %q", text)
		}
		return Float(f), nil
	}
	n, err := strconv.ParseInt(text, 10, 64)
	if err != nil {
		return nil, p.errorf("bad integer %q", text)
	}
	return Int(n), nil
}
