package core

import (
	"fmt"
	"sort"
)

// Sort orders rows by keys. The sort is stable and missing values are placed
// last regardless of direction. Sorting an empty table is a no-op.
func Sort(t *Table, keys []SortKey) (*Table, error) {
	if t.Len() == 0 || len(keys) == 0 {
		return t, nil
	}

	idx := make([]int, len(keys))
	for n, k := range keys {
		idx[n] = t.ColumnIndex(k.Key)
		if idx[n] < 0 {
			return nil, NewStatisticsQueryError(fmt.Sprintf("sorting failed (sort = %s, missing column)", k.Key), nil)
		}
	}
	if err := t.checkAligned(); err != nil {
		return nil, NewStatisticsQueryError(fmt.Sprintf("sorting failed (%s)", err), err)
	}

	rows := make([]Row, len(t.rows))
	copy(rows, t.rows)

	sort.SliceStable(rows, func(a, b int) bool {
		for n, k := range keys {
			c := compareCells(rows[a][idx[n]], rows[b][idx[n]], k.Desc)
			if c != 0 {
				return c < 0
			}
		}
		return false
	})

	return NewTable(t.source, t.header, rows), nil
}

func compareCells(a, b any, desc bool) int {
	ma, mb := isMissing(a), isMissing(b)
	switch {
	case ma && mb:
		return 0
	case ma:
		return 1
	case mb:
		return -1
	}

	c := compareValues(a, b)
	if desc {
		return -c
	}
	return c
}

// Paginate returns the page of t selected by spec and the number of rows
// before paging.
func Paginate(t *Table, spec PageSpec) (*Table, int) {
	total := t.Len()
	if spec.Limit <= 0 {
		return t, total
	}

	start := max(spec.Start, 1)
	lo := min(start-1, total)
	hi := total
	if spec.Limit < total-lo {
		hi = lo + spec.Limit
	}

	return NewTable(t.source, t.header, t.rows[lo:hi]), total
}
