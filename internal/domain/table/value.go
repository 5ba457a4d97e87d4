// Package table holds the tabular value model shared by the metadata sheet
// and the flattened API response.
//
// Cells are typed Values rather than loosely typed interfaces so the
// validators can reason about value kinds explicitly, and lookups go through
// Table.Get which reports whether a column exists at all.
package table

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

// Kind classifies a cell value.
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

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindString:
		return "string"
	case KindList:
		return "list"
	case KindMap:
		return "map"
	default:
		return "unknown"
	}
}

// IsContainer reports whether values of this kind hold other values.
func (k Kind) IsContainer() bool { return k == KindList || k == KindMap }

// Value is a single typed cell. The zero Value is null.
type Value struct {
	kind Kind
	b    bool
	i    int64
	f    float64
	s    string
	list []Value
	m    map[string]Value
}

func Null() Value              { return Value{} }
func Bool(b bool) Value        { return Value{kind: KindBool, b: b} }
func Int(i int64) Value        { return Value{kind: KindInt, i: i} }
func Float(f float64) Value    { return Value{kind: KindFloat, f: f} }
func String(s string) Value    { return Value{kind: KindString, s: s} }
func List(vs ...Value) Value   { return Value{kind: KindList, list: vs} }
func Map(m map[string]Value) Value {
	return Value{kind: KindMap, m: m}
}

// Kind returns the kind of v.
func (v Value) Kind() Kind { return v.kind }

// AsBool returns the boolean payload and whether v is a bool.
func (v Value) AsBool() (bool, bool) { return v.b, v.kind == KindBool }

// AsInt returns the integer payload and whether v is an int.
func (v Value) AsInt() (int64, bool) { return v.i, v.kind == KindInt }

// AsFloat returns the float payload and whether v is a float.
func (v Value) AsFloat() (float64, bool) { return v.f, v.kind == KindFloat }

// AsString returns the string payload and whether v is a string.
func (v Value) AsString() (string, bool) { return v.s, v.kind == KindString }

// AsList returns the elements and whether v is a list.
func (v Value) AsList() ([]Value, bool) { return v.list, v.kind == KindList }

// AsMap returns the members and whether v is a map.
func (v Value) AsMap() (map[string]Value, bool) { return v.m, v.kind == KindMap }

// IsNull reports whether v is null.
func (v Value) IsNull() bool { return v.kind == KindNull }

// IsNullLike reports whether v is null or a NaN float, the two shapes a
// missing cell takes across spreadsheets and JSON.
func (v Value) IsNullLike() bool {
	return v.kind == KindNull || (v.kind == KindFloat && math.IsNaN(v.f))
}

// String renders v in its canonical text form. Integral floats keep a
// trailing ".0" so that Int(10) and Float(10) render differently.
func (v Value) String() string {
	switch v.kind {
	case KindNull:
		return ""
	case KindBool:
		return strconv.FormatBool(v.b)
	case KindInt:
		return strconv.FormatInt(v.i, 10)
	case KindFloat:
		return formatFloat(v.f)
	case KindString:
		return v.s
	case KindList:
		parts := make([]string, len(v.list))
		for i, e := range v.list {
			parts[i] = e.String()
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case KindMap:
		keys := sortedKeys(v.m)
		parts := make([]string, len(keys))
		for i, k := range keys {
			parts[i] = k + ": " + v.m[k].String()
		}
		return "{" + strings.Join(parts, ", ") + "}"
	default:
		return ""
	}
}

func formatFloat(f float64) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "+Inf"
	case math.IsInf(f, -1):
		return "-Inf"
	}
	s := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return s
}

func elementEqual() cmp.Option {
	return cmp.Comparer(func(a, b Value) bool { return a.Equal(b) })
}

// Equal reports literal equality: same kind and same payload. Containers are
// compared element by element; NaN never equals anything, itself included.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindNull:
		return true
	case KindBool:
		return v.b == o.b
	case KindInt:
		return v.i == o.i
	case KindFloat:
		return v.f == o.f
	case KindString:
		return v.s == o.s
	case KindList:
		return cmp.Equal(v.list, o.list, elementEqual(), cmpopts.EquateEmpty())
	case KindMap:
		return cmp.Equal(v.m, o.m, elementEqual(), cmpopts.EquateEmpty())
	default:
		return false
	}
}

// Interface converts v back into plain Go values (nil, bool, int64, float64,
// string, []any, map[string]any).
func (v Value) Interface() any {
	switch v.kind {
	case KindBool:
		return v.b
	case KindInt:
		return v.i
	case KindFloat:
		return v.f
	case KindString:
		return v.s
	case KindList:
		out := make([]any, len(v.list))
		for i, e := range v.list {
			out[i] = e.Interface()
		}
		return out
	case KindMap:
		out := make(map[string]any, len(v.m))
		for k, e := range v.m {
			out[k] = e.Interface()
		}
		return out
	default:
		return nil
	}
}

// FromInterface converts decoded JSON (or any plain Go value) into a Value.
// Whole-number float64s produced by encoding/json stay floats unless the
// decoder was configured with UseNumber, in which case json.Number is
// resolved to Int when it parses as an integer.
func FromInterface(x any) Value {
	switch t := x.(type) {
	case nil:
		return Null()
	case Value:
		return t
	case bool:
		return Bool(t)
	case int:
		return Int(int64(t))
	case int32:
		return Int(int64(t))
	case int64:
		return Int(t)
	case float32:
		return Float(float64(t))
	case float64:
		return Float(t)
	case string:
		return String(t)
	case json.Number:
		if n, err := t.Int64(); err == nil {
			return Int(n)
		}
		if f, err := t.Float64(); err == nil {
			return Float(f)
		}
		return String(t.String())
	case []any:
		out := make([]Value, len(t))
		for i, e := range t {
			out[i] = FromInterface(e)
		}
		return List(out...)
	case map[string]any:
		out := make(map[string]Value, len(t))
		for k, e := range t {
			out[k] = FromInterface(e)
		}
		return Map(out)
	default:
		return Null()
	}
}

// Infer parses a raw text cell the way a spreadsheet reader would: blank
// cells are null, then int, float and bool are tried before falling back
// to string.
func Infer(raw string) Value {
	s := strings.TrimSpace(raw)
	if s == "" {
		return Null()
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return Int(n)
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && !isWordFloat(s) {
		return Float(f)
	}
	switch strings.ToLower(s) {
	case "true":
		return Bool(true)
	case "false":
		return Bool(false)
	}
	return String(raw)
}

// isWordFloat rejects the spellings ParseFloat accepts that a curator means
// as text ("inf", "infinity", "nan").
func isWordFloat(s string) bool {
	switch strings.ToLower(strings.TrimLeft(s, "+-")) {
	case "inf", "infinity", "nan":
		return true
	}
	return false
}
