package mapping

import "github.com/okian/airrsanity/internal/domain/table"

// TypeDiagnostic describes the value kinds found in one API column.
type TypeDiagnostic struct {
	Entry Entry
	// Declared is the kind the mapping declares.
	Declared table.Kind
	// Observed is the representative kind: the kind of the first distinct
	// value in row order.
	Observed table.Kind
	// ObservedKinds lists every kind seen, in first-seen order.
	ObservedKinds []table.Kind
	APIValues     []table.Value
	CuratorValues []table.Value
}

// Mixed reports whether the column holds more than one kind.
func (d TypeDiagnostic) Mixed() bool { return len(d.ObservedKinds) > 1 }

// TypeReport is the outcome of the declared-type check.
type TypeReport struct {
	// Mismatches are columns whose representative kind differs from the
	// declared one.
	Mismatches []TypeDiagnostic
	// Mixed are columns holding several kinds, whether or not their
	// representative kind matched. Only the representative kind decides a
	// mismatch, so a mixed column can pass.
	Mixed []TypeDiagnostic
	// UnknownTypes are entries whose type cell is not a known AIRR type.
	UnknownTypes []Entry
	Checked      int
}

// CheckTypes compares the declared type of each active entry with the kinds
// found in its API column. Entries without a declared type, entries whose
// API column is absent or empty, and columns holding list values are not
// checked. metadata may be nil; it only feeds the distinct curator values
// shown in diagnostics.
func CheckTypes(entries []Entry, api, metadata *table.Table) TypeReport {
	var report TypeReport
	for _, e := range Active(entries) {
		if e.Type == TypeNone {
			if e.RawType != "" {
				report.UnknownTypes = append(report.UnknownTypes, e)
			}
			continue
		}
		declared, _ := e.Type.Kind()

		values, ok := api.Distinct(e.APIField)
		if !ok || len(values) == 0 || hasList(values) {
			continue
		}
		report.Checked++

		kinds := observedKinds(values)
		d := TypeDiagnostic{
			Entry:         e,
			Declared:      declared,
			Observed:      kinds[0],
			ObservedKinds: kinds,
			APIValues:     values,
		}
		if metadata != nil {
			d.CuratorValues, _ = metadata.Distinct(e.CuratorField)
		}
		if d.Observed != declared {
			report.Mismatches = append(report.Mismatches, d)
		}
		if d.Mixed() {
			report.Mixed = append(report.Mixed, d)
		}
	}
	return report
}

func hasList(values []table.Value) bool {
	for _, v := range values {
		if v.Kind() == table.KindList {
			return true
		}
	}
	return false
}

func observedKinds(values []table.Value) []table.Kind {
	var kinds []table.Kind
	seen := make(map[table.Kind]struct{}, 2)
	for _, v := range values {
		k := v.Kind()
		if k == table.KindFloat && v.IsNullLike() {
			k = table.KindNull
		}
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		kinds = append(kinds, k)
	}
	return kinds
}
