package core

import (
	"math"

	"github.com/kndndrj/statpipe/core/formula"
)

// FillNa replaces missing cells of the named columns with their defaults.
// Columns absent from the schema are ignored.
func FillNa(t *Table, defaults map[string]any) *Table {
	if t.Len() == 0 || len(defaults) == 0 {
		return t
	}

	fill := make(map[int]any)
	for col, v := range defaults {
		if i := t.ColumnIndex(col); i >= 0 {
			fill[i] = v
		}
	}
	if len(fill) == 0 {
		return t
	}

	rows := make([]Row, len(t.rows))
	for i, row := range t.rows {
		r := make(Row, len(row))
		copy(r, row)
		for j, v := range fill {
			if j < len(r) && isMissing(r[j]) {
				r[j] = v
			}
		}
		rows[i] = r
	}

	return NewTable(t.source, t.header, rows)
}

// Coalesce replaces NaN and infinite numbers with null so the table can be
// encoded as JSON.
func Coalesce(t *Table) *Table {
	rows := make([]Row, len(t.rows))
	changed := false
	for i, row := range t.rows {
		rows[i] = row
		copied := false
		for j, v := range row {
			f, ok := formula.Normalize(v).(float64)
			if !ok || !(math.IsNaN(f) || math.IsInf(f, 0)) {
				continue
			}
			if !copied {
				rows[i] = make(Row, len(row))
				copy(rows[i], row)
				copied = true
			}
			rows[i][j] = nil
			changed = true
		}
	}
	if !changed {
		return t
	}
	return NewTable(t.source, t.header, rows)
}
