package metadata

import (
	"maps"
	"slices"
	"strconv"

	"github.com/okian/airrsanity/internal/domain/table"
)

// Flatten turns repository records into one row per record. Nested objects
// become dotted columns ("subject.sex"), arrays of objects are expanded by
// position ("sample.0.tissue") and arrays of scalars stay as list values.
// Columns appear in first-seen order.
func Flatten(records []any) *table.Table {
	var (
		order []string
		seen  = make(map[string]struct{})
		rows  = make([]map[string]table.Value, 0, len(records))
	)
	for _, rec := range records {
		obj, ok := rec.(map[string]any)
		if !ok {
			continue
		}
		row := make(map[string]table.Value)
		var keys []string
		flattenInto(row, &keys, "", obj)
		for _, k := range keys {
			if _, dup := seen[k]; !dup {
				seen[k] = struct{}{}
				order = append(order, k)
			}
		}
		rows = append(rows, row)
	}

	t := table.New(order...)
	for _, row := range rows {
		t.AppendRow(row)
	}
	return t
}

func flattenInto(row map[string]table.Value, keys *[]string, prefix string, obj map[string]any) {
	for _, k := range slices.Sorted(maps.Keys(obj)) {
		path := join(prefix, k)
		switch v := obj[k].(type) {
		case map[string]any:
			if len(v) == 0 {
				set(row, keys, path, table.Null())
				continue
			}
			flattenInto(row, keys, path, v)
		case []any:
			if objs, ok := allObjects(v); ok {
				for i, o := range objs {
					flattenInto(row, keys, join(path, strconv.Itoa(i)), o)
				}
				continue
			}
			set(row, keys, path, table.FromInterface(v))
		default:
			set(row, keys, path, table.FromInterface(v))
		}
	}
}

func set(row map[string]table.Value, keys *[]string, path string, v table.Value) {
	row[path] = v
	*keys = append(*keys, path)
}

// allObjects reports whether a non-empty array holds only objects.
func allObjects(arr []any) ([]map[string]any, bool) {
	if len(arr) == 0 {
		return nil, false
	}
	out := make([]map[string]any, len(arr))
	for i, e := range arr {
		o, ok := e.(map[string]any)
		if !ok {
			return nil, false
		}
		out[i] = o
	}
	return out, true
}

func join(prefix, k string) string {
	if prefix == "" {
		return k
	}
	return prefix + "." + k
}
