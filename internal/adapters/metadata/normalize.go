package metadata

import (
	"strings"

	"github.com/okian/airrsanity/internal/domain/table"
)

// Normalize drops unnamed columns, turns embedded newlines into spaces and
// canonicalises study ids when every row has one.
func Normalize(t *table.Table) *table.Table {
	var unnamed []string
	for _, c := range t.Columns() {
		if c == "" || strings.HasPrefix(c, "Unnamed") {
			unnamed = append(unnamed, c)
		}
	}
	out := t.DropColumns(unnamed...)

	out.MapAll(func(v table.Value) table.Value {
		if s, ok := v.AsString(); ok && strings.Contains(s, "\n") {
			return table.String(strings.ReplaceAll(s, "\n", " "))
		}
		return v
	})

	if studyComplete(out) {
		out.Map(StudyColumn, func(v table.Value) table.Value {
			return table.String(StudyID(v.String()))
		})
	}
	return out
}

// StudyID strips whitespace and slashes from a study identifier.
func StudyID(s string) string {
	return strings.Map(func(r rune) rune {
		if r == '/' || r == ' ' || r == '\t' || r == '\n' || r == '\r' {
			return -1
		}
		return r
	}, s)
}

func studyComplete(t *table.Table) bool {
	col, ok := t.Column(StudyColumn)
	if !ok {
		return false
	}
	for _, v := range col {
		if v.IsNullLike() {
			return false
		}
	}
	return true
}

// SelectStudy keeps the rows of one study. Tables without a complete
// study_id column are returned whole.
func SelectStudy(t *table.Table, study string) (*table.Table, error) {
	if !studyComplete(t) {
		return t, nil
	}
	want := StudyID(study)
	out := t.Filter(func(row int) bool {
		v, _ := t.Get(row, StudyColumn)
		return v.String() == want
	})
	if out.Len() == 0 {
		return nil, ErrStudyNotFound
	}
	return out, nil
}
