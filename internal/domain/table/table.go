package table

import (
	"fmt"
	"sort"
)

// Table is an ordered set of named columns over rows of Values.
type Table struct {
	columns []string
	index   map[string]int
	rows    [][]Value
}

// New creates an empty table with the given column names. Duplicate names
// keep their first position.
func New(columns ...string) *Table {
	t := &Table{index: make(map[string]int, len(columns))}
	for _, c := range columns {
		t.addColumn(c)
	}
	return t
}

func (t *Table) addColumn(name string) int {
	if i, ok := t.index[name]; ok {
		return i
	}
	t.columns = append(t.columns, name)
	t.index[name] = len(t.columns) - 1
	for r := range t.rows {
		t.rows[r] = append(t.rows[r], Null())
	}
	return len(t.columns) - 1
}

// Columns returns the column names in order.
func (t *Table) Columns() []string {
	out := make([]string, len(t.columns))
	copy(out, t.columns)
	return out
}

// HasColumn reports whether name is a column of t.
func (t *Table) HasColumn(name string) bool {
	_, ok := t.index[name]
	return ok
}

// Len returns the number of rows.
func (t *Table) Len() int { return len(t.rows) }

// AppendRow appends a row given as a column->value map. Unknown columns are
// added to the table; missing ones are null.
func (t *Table) AppendRow(cells map[string]Value) {
	keys := sortedKeys(cells)
	for _, k := range keys {
		t.addColumn(k)
	}
	row := make([]Value, len(t.columns))
	for k, v := range cells {
		row[t.index[k]] = v
	}
	t.rows = append(t.rows, row)
}

// AppendValues appends a row positionally. The row must have one value per
// column.
func (t *Table) AppendValues(values ...Value) error {
	if len(values) != len(t.columns) {
		return fmt.Errorf("%w: got %d values for %d columns", ErrRowWidth, len(values), len(t.columns))
	}
	row := make([]Value, len(values))
	copy(row, values)
	t.rows = append(t.rows, row)
	return nil
}

// Get returns the cell at (row, column). The boolean is false when the
// column does not exist or row is out of range; a present-but-empty cell is
// returned as a null Value with true.
func (t *Table) Get(row int, column string) (Value, bool) {
	i, ok := t.index[column]
	if !ok || row < 0 || row >= len(t.rows) {
		return Null(), false
	}
	return t.rows[row][i], true
}

// Set overwrites a cell, adding the column when needed.
func (t *Table) Set(row int, column string, v Value) {
	if row < 0 || row >= len(t.rows) {
		return
	}
	i := t.addColumn(column)
	t.rows[row][i] = v
}

// Row returns a copy of a row as a column->value map.
func (t *Table) Row(row int) map[string]Value {
	out := make(map[string]Value, len(t.columns))
	if row < 0 || row >= len(t.rows) {
		return out
	}
	for i, c := range t.columns {
		out[c] = t.rows[row][i]
	}
	return out
}

// Column returns every value of a column in row order.
func (t *Table) Column(name string) ([]Value, bool) {
	i, ok := t.index[name]
	if !ok {
		return nil, false
	}
	out := make([]Value, len(t.rows))
	for r, row := range t.rows {
		out[r] = row[i]
	}
	return out, true
}

// Distinct returns the distinct values of a column in first-seen order.
func (t *Table) Distinct(name string) ([]Value, bool) {
	col, ok := t.Column(name)
	if !ok {
		return nil, false
	}
	out := make([]Value, 0, len(col))
	for _, v := range col {
		seen := false
		for _, d := range out {
			if d.Equal(v) || (d.IsNullLike() && v.IsNullLike() && d.Kind() == v.Kind()) {
				seen = true
				break
			}
		}
		if !seen {
			out = append(out, v)
		}
	}
	return out, true
}

// Filter returns a new table holding the rows for which keep returns true.
func (t *Table) Filter(keep func(row int) bool) *Table {
	out := New(t.columns...)
	for r, row := range t.rows {
		if keep(r) {
			cp := make([]Value, len(row))
			copy(cp, row)
			out.rows = append(out.rows, cp)
		}
	}
	return out
}

// DropColumns returns a copy of t without the named columns.
func (t *Table) DropColumns(names ...string) *Table {
	drop := make(map[string]struct{}, len(names))
	for _, n := range names {
		drop[n] = struct{}{}
	}
	var keep []string
	for _, c := range t.columns {
		if _, ok := drop[c]; !ok {
			keep = append(keep, c)
		}
	}
	out := New(keep...)
	for r := range t.rows {
		row := make([]Value, len(keep))
		for i, c := range keep {
			row[i] = t.rows[r][t.index[c]]
		}
		out.rows = append(out.rows, row)
	}
	return out
}

// Map applies fn to every cell of column in place.
func (t *Table) Map(column string, fn func(Value) Value) {
	i, ok := t.index[column]
	if !ok {
		return
	}
	for r := range t.rows {
		t.rows[r][i] = fn(t.rows[r][i])
	}
}

// MapAll applies fn to every cell in place.
func (t *Table) MapAll(fn func(Value) Value) {
	for r := range t.rows {
		for i := range t.rows[r] {
			t.rows[r][i] = fn(t.rows[r][i])
		}
	}
}

// Key returns the join-key text of a row. Keys are compared by their
// canonical text so that an integer id in the sheet joins with the string
// id the API reports.
func (t *Table) Key(row int, column string) (string, bool) {
	v, ok := t.Get(row, column)
	if !ok || v.IsNullLike() {
		return "", false
	}
	if f, isFloat := v.AsFloat(); isFloat && f == float64(int64(f)) {
		return Int(int64(f)).String(), true
	}
	return v.String(), true
}

// Index maps join-key text to the rows holding it, in row order.
func (t *Table) Index(column string) (map[string][]int, error) {
	if !t.HasColumn(column) {
		return nil, fmt.Errorf("%w: %s", ErrMissingColumn, column)
	}
	out := make(map[string][]int, len(t.rows))
	for r := range t.rows {
		if k, ok := t.Key(r, column); ok {
			out[k] = append(out[k], r)
		}
	}
	return out, nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
