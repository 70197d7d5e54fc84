// Package literal models arbitrarily nested property bags as an ordered
// tagged union and renders them as PHP short-array literal text.
package literal

import (
	"fmt"
	"reflect"
	"sort"
	"time"
)

// Kind identifies the variant held by a Value.
type Kind int

const (
	KindNull Kind = iota
	KindBool
	KindInt
	KindFloat
	KindString
	KindList
	KindMap
)

// Value is one node of a literal tree. The concrete types are Null, Bool,
// Int, Float, String, List and Map; no other implementations exist.
type Value interface {
	Kind() Kind
	isValue()
}

// Null is the absence of a value. It always renders as the null literal.
type Null struct{}

// Bool is a boolean scalar.
type Bool bool

// Int is an integer scalar.
type Int int64

// Float is a floating point scalar.
type Float float64

// String is a text scalar.
type String string

// List is a positional sequence. Entries render without keys.
type List []Value

func (Null) Kind() Kind   { return KindNull }
func (Bool) Kind() Kind   { return KindBool }
func (Int) Kind() Kind    { return KindInt }
func (Float) Kind() Kind  { return KindFloat }
func (String) Kind() Kind { return KindString }
func (List) Kind() Kind   { return KindList }
func (*Map) Kind() Kind   { return KindMap }

func (Null) isValue()   {}
func (Bool) isValue()   {}
func (Int) isValue()    {}
func (Float) isValue()  {}
func (String) isValue() {}
func (List) isValue()   {}
func (*Map) isValue()   {}

// Entry is a single key/value pair of a Map.
type Entry struct {
	Key   string
	Value Value
}

// Map is an insertion-ordered mapping from string keys to values.
// The zero value is an empty map ready to use.
type Map struct {
	entries []Entry
	index   map[string]int
}

// NewMap builds a Map from the given entries, in order. Later duplicates
// replace earlier ones in place.
func NewMap(entries ...Entry) *Map {
	m := &Map{}
	for _, e := range entries {
		m.Set(e.Key, e.Value)
	}
	return m
}

// E is shorthand for constructing an Entry from a Go value.
func E(key string, v any) Entry {
	return Entry{Key: key, Value: Of(v)}
}

// Set stores v under key. An existing key keeps its position.
func (m *Map) Set(key string, v Value) {
	if v == nil {
		v = Null{}
	}
	if m.index == nil {
		m.index = make(map[string]int)
	}
	if i, ok := m.index[key]; ok {
		m.entries[i].Value = v
		return
	}
	m.index[key] = len(m.entries)
	m.entries = append(m.entries, Entry{Key: key, Value: v})
}

// Get returns the value stored under key.
func (m *Map) Get(key string) (Value, bool) {
	if m == nil || m.index == nil {
		return nil, false
	}
	i, ok := m.index[key]
	if !ok {
		return nil, false
	}
	return m.entries[i].Value, true
}

// Keys returns the keys in insertion order.
func (m *Map) Keys() []string {
	if m == nil {
		return nil
	}
	keys := make([]string, len(m.entries))
	for i, e := range m.entries {
		keys[i] = e.Key
	}
	return keys
}

// Entries returns a copy of the entries in insertion order.
func (m *Map) Entries() []Entry {
	if m == nil {
		return nil
	}
	out := make([]Entry, len(m.entries))
	copy(out, m.entries)
	return out
}

// Len reports the number of entries.
func (m *Map) Len() int {
	if m == nil {
		return 0
	}
	return len(m.entries)
}

// Of converts a Go value into a Value. Maps with string keys are ordered by
// key so the result is deterministic; callers that care about a specific
// order should build a *Map directly. Unsupported shapes such as funcs or
// channels panic.
func Of(v any) Value {
	switch x := v.(type) {
	case nil:
		return Null{}
	case Value:
		return x
	case bool:
		return Bool(x)
	case int:
		return Int(x)
	case int8:
		return Int(x)
	case int16:
		return Int(x)
	case int32:
		return Int(x)
	case int64:
		return Int(x)
	case uint:
		return Int(x)
	case uint8:
		return Int(x)
	case uint16:
		return Int(x)
	case uint32:
		return Int(x)
	case uint64:
		return Int(x)
	case float32:
		return Float(x)
	case float64:
		return Float(x)
	case string:
		return String(x)
	case []byte:
		return String(x)
	case time.Time:
		return String(x.Format("2006-01-02 15:04:05"))
	case []any:
		l := make(List, len(x))
		for i, item := range x {
			l[i] = Of(item)
		}
		return l
	case []string:
		l := make(List, len(x))
		for i, item := range x {
			l[i] = String(item)
		}
		return l
	case map[string]any:
		keys := make([]string, 0, len(x))
		for k := range x {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		m := &Map{}
		for _, k := range keys {
			m.Set(k, Of(x[k]))
		}
		return m
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return Null{}
		}
		return Of(rv.Elem().Interface())
	case reflect.Slice, reflect.Array:
		l := make(List, rv.Len())
		for i := range l {
			l[i] = Of(rv.Index(i).Interface())
		}
		return l
	}
	panic(fmt.Sprintf("literal: unsupported value of type %T", v))
}
