// Package table holds typed extraction results as named, ordered columns
// and exports them to common formats.
package table

import (
	"sort"
	"strings"
)

// Table is a column-oriented result set. Every column has the same number
// of rows; short columns are padded with nulls at construction.
type Table struct {
	columns []string
	data    map[string][]any
	rows    int
}

// New builds a table from a column mapping. Columns listed in order come
// first, in that order; remaining columns follow alphabetically. Order
// entries without data are ignored.
func New(data map[string][]any, order []string) *Table {
	rows := 0
	for _, vals := range data {
		if len(vals) > rows {
			rows = len(vals)
		}
	}

	columns := make([]string, 0, len(data))
	seen := make(map[string]bool, len(data))
	for _, name := range order {
		if _, ok := data[name]; ok && !seen[name] {
			columns = append(columns, name)
			seen[name] = true
		}
	}
	extras := make([]string, 0, len(data))
	for name := range data {
		if !seen[name] {
			extras = append(extras, name)
		}
	}
	sort.Strings(extras)
	columns = append(columns, extras...)

	padded := make(map[string][]any, len(data))
	for name, vals := range data {
		if len(vals) < rows {
			p := make([]any, rows)
			copy(p, vals)
			vals = p
		}
		padded[name] = vals
	}

	return &Table{columns: columns, data: padded, rows: rows}
}

// Len returns the number of rows.
func (t *Table) Len() int {
	return t.rows
}

// Columns returns the column names in table order.
func (t *Table) Columns() []string {
	out := make([]string, len(t.columns))
	copy(out, t.columns)
	return out
}

// Column returns the values of a column.
func (t *Table) Column(name string) ([]any, bool) {
	vals, ok := t.data[name]
	if !ok {
		return nil, false
	}
	out := make([]any, len(vals))
	copy(out, vals)
	return out, true
}

// At returns the value at a row and column.
func (t *Table) At(row int, column string) (any, bool) {
	vals, ok := t.data[column]
	if !ok || row < 0 || row >= t.rows {
		return nil, false
	}
	return vals[row], true
}

// Row returns one row as a column-to-value mapping, or nil when out of
// range.
func (t *Table) Row(i int) map[string]any {
	if i < 0 || i >= t.rows {
		return nil
	}
	row := make(map[string]any, len(t.columns))
	for _, name := range t.columns {
		row[name] = t.data[name][i]
	}
	return row
}

// Records returns all rows in order.
func (t *Table) Records() []map[string]any {
	records := make([]map[string]any, t.rows)
	for i := 0; i < t.rows; i++ {
		records[i] = t.Row(i)
	}
	return records
}

// Data returns the underlying column mapping.
func (t *Table) Data() map[string][]any {
	out := make(map[string][]any, len(t.data))
	for name, vals := range t.data {
		c := make([]any, len(vals))
		copy(c, vals)
		out[name] = c
	}
	return out
}

// String renders the table as an aligned text grid.
func (t *Table) String() string {
	var sb strings.Builder
	_ = t.WriteGrid(&sb)
	return sb.String()
}
