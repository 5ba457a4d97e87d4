package table

import (
	"fmt"
	"sort"
)

// Duplicate describes one join-key value that occurs on more than one row.
type Duplicate struct {
	Key  string
	Rows []int
}

// CheckUnique verifies that column exists and that its non-null values are
// unique. A missing column is an error; duplicates are returned for the
// caller to report.
func CheckUnique(t *Table, column string) ([]Duplicate, error) {
	idx, err := t.Index(column)
	if err != nil {
		return nil, fmt.Errorf("uniqueness check: %w", err)
	}
	var dups []Duplicate
	for k, rows := range idx {
		if len(rows) > 1 {
			dups = append(dups, Duplicate{Key: k, Rows: rows})
		}
	}
	sort.Slice(dups, func(i, j int) bool { return dups[i].Key < dups[j].Key })
	return dups, nil
}
