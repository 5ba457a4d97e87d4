// Package mapping cross-validates curator metadata against the flattened
// repository response using a table of field mappings.
package mapping

import (
	"strings"

	"github.com/okian/airrsanity/internal/domain/table"
)

// DeclaredType is the AIRR type a mapping row declares for a field.
type DeclaredType string

const (
	TypeNone    DeclaredType = ""
	TypeBoolean DeclaredType = "boolean"
	TypeInteger DeclaredType = "integer"
	TypeNumber  DeclaredType = "number"
	TypeString  DeclaredType = "string"
	TypeNull    DeclaredType = "null"
)

var declaredKinds = map[DeclaredType]table.Kind{
	TypeBoolean: table.KindBool,
	TypeInteger: table.KindInt,
	TypeNumber:  table.KindFloat,
	TypeString:  table.KindString,
	TypeNull:    table.KindNull,
}

// ParseDeclaredType normalizes a type cell. Blank cells give TypeNone with
// ok=true; unrecognized text gives ok=false.
func ParseDeclaredType(s string) (DeclaredType, bool) {
	t := DeclaredType(strings.ToLower(strings.TrimSpace(s)))
	if t == TypeNone {
		return TypeNone, true
	}
	_, ok := declaredKinds[t]
	if !ok {
		return TypeNone, false
	}
	return t, true
}

// Kind returns the value kind a declared type maps to.
func (d DeclaredType) Kind() (table.Kind, bool) {
	k, ok := declaredKinds[d]
	return k, ok
}

// Entry is one row of the mapping table.
type Entry struct {
	APIField     string
	CuratorField string
	Type         DeclaredType
	// RawType is the type cell as written, kept for diagnostics when it
	// could not be parsed.
	RawType string
}

// Inert reports whether the entry lacks a field on either side. Inert
// entries take part in no check.
func (e Entry) Inert() bool {
	return strings.TrimSpace(e.APIField) == "" || strings.TrimSpace(e.CuratorField) == ""
}

// Active filters out inert entries.
func Active(entries []Entry) []Entry {
	out := make([]Entry, 0, len(entries))
	for _, e := range entries {
		if !e.Inert() {
			out = append(out, e)
		}
	}
	return out
}
