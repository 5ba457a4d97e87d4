package mapping

import (
	"fmt"
	"math"

	"github.com/okian/airrsanity/internal/domain/table"
)

// Comparison records one mapping entry whose values differ for one
// repertoire. Pairs judged equal produce no record.
type Comparison struct {
	RepertoireID string
	APIField     string
	CuratorField string
	APIValue     table.Value
	CuratorValue table.Value
}

// Skipped records a pair the content check could not compare.
type Skipped struct {
	RepertoireID string
	Entry        Entry
	Err          error
}

// ContentReport is the outcome of the content check.
type ContentReport struct {
	// Matched are the repertoire ids present in both tables, in metadata
	// order.
	Matched      []string
	Mismatches   []Comparison
	Skipped      []Skipped
	PairsChecked int
}

// JoinKeys names the join column on each side.
type JoinKeys struct {
	Metadata string
	API      string
}

// MatchedIDs returns the join-key values present in both tables, in
// metadata row order.
func MatchedIDs(metadata, api *table.Table, keys JoinKeys) ([]string, error) {
	if !metadata.HasColumn(keys.Metadata) {
		return nil, fmt.Errorf("%w: metadata has no %s column", ErrJoinKey, keys.Metadata)
	}
	apiIdx, err := api.Index(keys.API)
	if err != nil {
		return nil, fmt.Errorf("%w: api response: %w", ErrJoinKey, err)
	}

	var ids []string
	seen := make(map[string]struct{})
	for r := 0; r < metadata.Len(); r++ {
		id, ok := metadata.Key(r, keys.Metadata)
		if !ok {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		if _, ok := apiIdx[id]; ok {
			ids = append(ids, id)
			seen[id] = struct{}{}
		}
	}
	return ids, nil
}

// CompareContent checks, for every repertoire present in both tables and
// every entry present on both sides, that the metadata value and the API
// value are equivalent. When a join key occurs on several rows the first
// row is used; duplicates are reported by the uniqueness check.
func CompareContent(entries []Entry, metadata, api *table.Table, keys JoinKeys) (ContentReport, error) {
	ids, err := MatchedIDs(metadata, api, keys)
	if err != nil {
		return ContentReport{}, err
	}
	mdIdx, _ := metadata.Index(keys.Metadata)
	apiIdx, _ := api.Index(keys.API)

	report := ContentReport{Matched: ids}
	for _, id := range ids {
		mdRow, apiRow := mdIdx[id][0], apiIdx[id][0]
		for _, e := range entries {
			mdVal, okMD := metadata.Get(mdRow, e.CuratorField)
			apiVal, okAPI := api.Get(apiRow, e.APIField)
			if !okMD || !okAPI {
				continue
			}
			report.PairsChecked++

			eq, err := Equivalent(mdVal, apiVal)
			if err != nil {
				report.Skipped = append(report.Skipped, Skipped{RepertoireID: id, Entry: e, Err: err})
				continue
			}
			if !eq {
				report.Mismatches = append(report.Mismatches, Comparison{
					RepertoireID: id,
					APIField:     e.APIField,
					CuratorField: e.CuratorField,
					APIValue:     apiVal,
					CuratorValue: mdVal,
				})
			}
		}
	}
	return report, nil
}

// Equivalent decides whether a metadata value and an API value say the
// same thing. They do when they are literally equal, when both are numbers
// of the same value (10.0 and 10, true and 1), when both are null-like, or
// when their kinds differ but their text is identical (the integer 10 and
// the string "10"). A container on one side only cannot be compared.
func Equivalent(metadata, api table.Value) (bool, error) {
	if metadata.Kind().IsContainer() != api.Kind().IsContainer() {
		return false, fmt.Errorf("%w: %s and %s", ErrIncomparable, metadata.Kind(), api.Kind())
	}
	if metadata.Equal(api) {
		return true, nil
	}
	if m, ok := numeric(metadata); ok {
		if a, ok := numeric(api); ok && m == a {
			return true, nil
		}
	}
	if metadata.IsNullLike() && api.IsNullLike() {
		return true, nil
	}
	if metadata.Kind() != api.Kind() && metadata.String() == api.String() {
		return true, nil
	}
	return false, nil
}

// numeric reads ints, floats and booleans (as 0 and 1) as numbers. NaN is
// not a number here; null-likes are handled on their own.
func numeric(v table.Value) (float64, bool) {
	switch v.Kind() {
	case table.KindInt:
		i, _ := v.AsInt()
		return float64(i), true
	case table.KindFloat:
		f, _ := v.AsFloat()
		return f, !math.IsNaN(f)
	case table.KindBool:
		if b, _ := v.AsBool(); b {
			return 1, true
		}
		return 0, true
	default:
		return 0, false
	}
}
