package types

import "strings"

// Table is an ordered, header-first tabular dataset as read from or written to CSV.
type Table struct {
	Columns []string
	Rows    [][]string
}

// NewTable returns an empty table with a copy of the given header.
func NewTable(columns []string) *Table {
	cols := make([]string, len(columns))
	copy(cols, columns)
	return &Table{Columns: cols}
}

// Len returns the number of data rows.
func (t *Table) Len() int {
	return len(t.Rows)
}

// Index returns the position of column name, or -1. Matching is exact first, then
// case-insensitive.
func (t *Table) Index(name string) int {
	for i, c := range t.Columns {
		if c == name {
			return i
		}
	}
	for i, c := range t.Columns {
		if strings.EqualFold(c, name) {
			return i
		}
	}
	return -1
}

// FirstIndex returns the position of the first column in names that exists, or -1.
func (t *Table) FirstIndex(names ...string) int {
	for _, n := range names {
		if i := t.Index(n); i >= 0 {
			return i
		}
	}
	return -1
}

// Cell returns row[col], or "" when the row is short or col is negative.
func (t *Table) Cell(row, col int) string {
	if col < 0 || row < 0 || row >= len(t.Rows) || col >= len(t.Rows[row]) {
		return ""
	}
	return t.Rows[row][col]
}

// Append adds a row, padding or truncating it to the header width.
func (t *Table) Append(values ...string) {
	row := make([]string, len(t.Columns))
	copy(row, values)
	t.Rows = append(t.Rows, row)
}

// WithColumn returns a copy of the table with an extra column filled from values.
// Missing values become "".
func (t *Table) WithColumn(name string, values []string) *Table {
	out := NewTable(append(append([]string{}, t.Columns...), name))
	for i, row := range t.Rows {
		v := ""
		if i < len(values) {
			v = values[i]
		}
		cells := make([]string, len(t.Columns))
		copy(cells, row)
		out.Append(append(cells, v)...)
	}
	return out
}

// MasterTable builds a table with MasterColumns from normalized records.
func MasterTable(records []NormalizedRecord) *Table {
	t := NewTable(MasterColumns)
	for _, r := range records {
		t.Append(r.Values()...)
	}
	return t
}
