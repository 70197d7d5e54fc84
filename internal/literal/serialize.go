package literal

import (
	"math"
	"strconv"
	"strings"
)

// NullToken is the text emitted for an absent value.
const NullToken = "null"

// Serialize renders v as literal text. Scalars render bare, lists and maps
// render as the comma-joined entries wrapped in brackets.
func Serialize(v Value) string {
	switch x := v.(type) {
	case nil, Null:
		return NullToken
	case Bool:
		if x {
			return "true"
		}
		return "false"
	case Int:
		return strconv.FormatInt(int64(x), 10)
	case Float:
		return formatFloat(float64(x))
	case String:
		return quote(string(x))
	case List:
		return "[" + strings.Join(serializeList(x), ", ") + "]"
	case *Map:
		return "[" + strings.Join(SerializeEntries(x), ", ") + "]"
	}
	return NullToken
}

// SerializeEntries renders every entry of m as `'key' => value`, or as the
// bare value when the key is positional. Nested containers recurse.
func SerializeEntries(m *Map) []string {
	out := make([]string, 0, m.Len())
	for _, e := range m.Entries() {
		val := Serialize(e.Value)
		if IsPositional(e.Key) {
			out = append(out, val)
			continue
		}
		out = append(out, quote(e.Key)+" => "+val)
	}
	return out
}

// IsPositional reports whether key is a canonical integer index. Such keys
// carry no meaning of their own and are omitted from the output.
func IsPositional(key string) bool {
	if key == "" {
		return false
	}
	n, err := strconv.Atoi(key)
	if err != nil || n < 0 {
		return false
	}
	return strconv.Itoa(n) == key
}

func serializeList(l List) []string {
	out := make([]string, len(l))
	for i, item := range l {
		out[i] = Serialize(item)
	}
	return out
}

var quoteReplacer = strings.NewReplacer(`\`, `\\`, `'`, `\'`)

func quote(s string) string {
	return "'" + quoteReplacer.Replace(s) + "'"
}

func formatFloat(f float64) string {
	switch {
	case math.IsNaN(f):
		return "NAN"
	case math.IsInf(f, 1):
		return "INF"
	case math.IsInf(f, -1):
		return "-INF"
	}
	s := strconv.FormatFloat(f, 'g', -1, 64)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return s
}
