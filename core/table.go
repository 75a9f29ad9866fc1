package core

import (
	"errors"
	"fmt"
	"sort"
)

// Table is the tabular value flowing through a pipeline. It is immutable:
// every operator returns a new table and never modifies its inputs.
type Table struct {
	source string
	header Header
	rows   []Row
}

// NewTable creates a table produced by the given source (a resource type or
// an empty string). Rows are expected to be aligned to the header; operators
// reject tables that are not.
func NewTable(source string, header Header, rows []Row) *Table {
	if header == nil {
		header = Header{}
	}
	return &Table{
		source: source,
		header: header,
		rows:   rows,
	}
}

// EmptyTable returns a zero row table carrying the given schema.
func EmptyTable(source string, header Header) *Table {
	return NewTable(source, header, nil)
}

// TableFromRecords collects records into a table. Map records are placed by
// field name, Row records are aligned to the hint header and any other value
// becomes a row of the single ValueColumn.
//
// Column order is the hint header followed by newly seen fields in order of
// appearance; fields of a single map record are visited in sorted order.
func TableFromRecords(source string, hint Header, records []Record) (*Table, error) {
	header := make(Header, 0, len(hint))
	index := make(map[string]int, len(hint))
	addColumn := func(name string) int {
		if i, ok := index[name]; ok {
			return i
		}
		index[name] = len(header)
		header = append(header, name)
		return len(header) - 1
	}
	for _, h := range hint {
		addColumn(h)
	}

	cells := make([]map[int]any, 0, len(records))
	for i, rec := range records {
		values := make(map[int]any)
		switch r := rec.(type) {
		case map[string]any:
			keys := make([]string, 0, len(r))
			for k := range r {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			for _, k := range keys {
				values[addColumn(k)] = r[k]
			}
		case Row:
			if len(r) > len(hint) {
				return nil, fmt.Errorf("record %d has %d values, header has %d columns", i, len(r), len(hint))
			}
			for j, v := range r {
				values[j] = v
			}
		default:
			values[addColumn(ValueColumn)] = r
		}
		cells = append(cells, values)
	}

	rows := make([]Row, len(cells))
	for i, values := range cells {
		row := make(Row, len(header))
		for j, v := range values {
			row[j] = v
		}
		rows[i] = row
	}

	return NewTable(source, header, rows), nil
}

// Source returns the resource type which produced the table.
func (t *Table) Source() string {
	return t.source
}

func (t *Table) Len() int {
	return len(t.rows)
}

// Header returns a copy of the table schema.
func (t *Table) Header() Header {
	out := make(Header, len(t.header))
	copy(out, t.header)
	return out
}

// Rows returns the rows of the table. Callers must not modify them.
func (t *Table) Rows() []Row {
	return t.rows
}

// Records returns rows as maps keyed by column name.
func (t *Table) Records() []map[string]any {
	out := make([]map[string]any, len(t.rows))
	for i, row := range t.rows {
		rec := make(map[string]any, len(t.header))
		for j, col := range t.header {
			if j < len(row) {
				rec[col] = row[j]
			} else {
				rec[col] = nil
			}
		}
		out[i] = rec
	}
	return out
}

// ColumnIndex returns the position of a column or -1.
func (t *Table) ColumnIndex(name string) int {
	for i, col := range t.header {
		if col == name {
			return i
		}
	}
	return -1
}

// HasColumns reports whether all of the named columns are in the schema.
func (t *Table) HasColumns(names ...string) bool {
	for _, n := range names {
		if t.ColumnIndex(n) < 0 {
			return false
		}
	}
	return true
}

// Value returns the cell at row i of the named column. Missing columns read
// as null.
func (t *Table) Value(i int, column string) any {
	j := t.ColumnIndex(column)
	if j < 0 || i < 0 || i >= len(t.rows) || j >= len(t.rows[i]) {
		return nil
	}
	return t.rows[i][j]
}

// WithColumn returns a table where the named column holds values. An
// existing column is replaced in place, a new one is appended.
func (t *Table) WithColumn(name string, values []any) (*Table, error) {
	if len(values) != len(t.rows) {
		return nil, fmt.Errorf("column %q has %d values, table has %d rows", name, len(values), len(t.rows))
	}

	header := t.Header()
	j := t.ColumnIndex(name)
	if j < 0 {
		header = append(header, name)
		j = len(header) - 1
	}

	rows := make([]Row, len(t.rows))
	for i, row := range t.rows {
		r := make(Row, len(header))
		copy(r, row)
		r[j] = values[i]
		rows[i] = r
	}

	return NewTable(t.source, header, rows), nil
}

// WithConstant returns a table where every row holds value in the named
// column. Zero row tables still gain the column in their schema.
func (t *Table) WithConstant(name string, value any) *Table {
	values := make([]any, len(t.rows))
	for i := range values {
		values[i] = value
	}
	out, _ := t.WithColumn(name, values)
	return out
}

var errMisaligned = errors.New("misaligned row")

// checkAligned returns an error naming the first row whose width differs
// from the header.
func (t *Table) checkAligned() error {
	for i, row := range t.rows {
		if len(row) != len(t.header) {
			return fmt.Errorf("%w: row %d of %q has %d cells, expected %d", errMisaligned, i, t.source, len(row), len(t.header))
		}
	}
	return nil
}
