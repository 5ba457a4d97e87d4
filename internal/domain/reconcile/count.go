// Package reconcile decides whether the three independently obtained
// sequence counts of a repertoire agree.
package reconcile

import (
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/okian/airrsanity/internal/domain/table"
)

// Canonical sentinel tokens. They are kept byte-for-byte compatible with
// the report files already produced for existing studies.
const (
	TokenNoFormatMatch = "NFMD"
	TokenNoAPIResult   = "NINAPI"
	TokenNullCount     = "Null"
)

// CountKind says whether a Count holds a measurement or a sentinel.
type CountKind int

const (
	KindKnown CountKind = iota
	KindNoFormatMatch
	KindNoAPIResult
	KindNullCount
)

// Count is a sequence count or one of the sentinels standing in for a
// count that could not be obtained.
type Count struct {
	kind CountKind
	n    int64
}

// Known wraps a measured count.
func Known(n int64) Count { return Count{kind: KindKnown, n: n} }

// NoFormatMatch is the annotation count when no declared file carries an
// extension the annotation tool produces.
func NoFormatMatch() Count { return Count{kind: KindNoFormatMatch} }

// NoAPIResult is the facet count when the facet query returned no bucket.
func NoAPIResult() Count { return Count{kind: KindNoAPIResult} }

// NullCount is the curator count when the sheet holds no number.
func NullCount() Count { return Count{kind: KindNullCount} }

// Kind returns the kind of c.
func (c Count) Kind() CountKind { return c.kind }

// Value returns the measured count and whether c is a measurement.
func (c Count) Value() (int64, bool) { return c.n, c.kind == KindKnown }

// Add returns c+n for a known count. Sentinels are returned unchanged.
func (c Count) Add(n int64) Count {
	if c.kind != KindKnown {
		return c
	}
	return Known(c.n + n)
}

// Canonical renders c in the form used for the three-way comparison.
func (c Count) Canonical() string {
	switch c.kind {
	case KindNoFormatMatch:
		return TokenNoFormatMatch
	case KindNoAPIResult:
		return TokenNoAPIResult
	case KindNullCount:
		return TokenNullCount
	default:
		return strconv.FormatInt(c.n, 10)
	}
}

func (c Count) String() string { return c.Canonical() }

// CuratorCount reads the curator-declared count from a metadata cell.
// present is false when the sheet has no count column at all. Whole numbers
// in any representation ("10", 10, 10.0, "1.0E1") become Known; fractional
// values are truncated toward zero; anything else is NullCount.
func CuratorCount(v table.Value, present bool) Count {
	if !present || v.IsNullLike() {
		return NullCount()
	}
	switch v.Kind() {
	case table.KindInt:
		n, _ := v.AsInt()
		return Known(n)
	case table.KindFloat:
		f, _ := v.AsFloat()
		return Known(decimal.NewFromFloat(f).IntPart())
	case table.KindString:
		s, _ := v.AsString()
		d, err := decimal.NewFromString(strings.ReplaceAll(strings.TrimSpace(s), ",", ""))
		if err != nil {
			return NullCount()
		}
		return Known(d.IntPart())
	default:
		return NullCount()
	}
}
