package core

import (
	"fmt"
)

// Join merges addition into base. With keys it is a hash join on the key
// columns; without keys rows are merged by position.
//
// Non key columns present on both sides get an "_x" suffix on the base side
// and a "_y" suffix on the addition side.
func Join(base, addition *Table, keys []string, jt JoinType) (*Table, error) {
	if !jt.Valid() {
		return nil, NewInvalidParameterTypeError("join.type", JoinTypeNames())
	}
	jt = jt.OrDefault()

	if len(keys) == 0 {
		return indexJoin(base, addition, jt)
	}
	return keyJoin(base, addition, keys, jt)
}

// joinLayout maps the columns of both sides to the output header.
type joinLayout struct {
	header  Header
	basePos []int
	addPos  []int
	keyBase []int
	keyAdd  []int
}

func newJoinLayout(base, addition *Table, keys []string) *joinLayout {
	isKey := make(map[string]bool, len(keys))
	for _, k := range keys {
		isKey[k] = true
	}

	inBase := make(map[string]bool)
	for _, c := range base.header {
		inBase[c] = true
	}
	inAdd := make(map[string]bool)
	for _, c := range addition.header {
		inAdd[c] = true
	}

	l := &joinLayout{
		basePos: make([]int, len(base.header)),
		addPos:  make([]int, len(addition.header)),
	}
	taken := make(map[string]bool)
	add := func(name, suffix string) int {
		for taken[name] {
			name += suffix
		}
		taken[name] = true
		l.header = append(l.header, name)
		return len(l.header) - 1
	}

	for i, c := range base.header {
		name, suffix := c, "_x"
		if !isKey[c] && inAdd[c] {
			name += suffix
		}
		l.basePos[i] = add(name, suffix)
	}
	for i, c := range addition.header {
		if isKey[c] {
			l.addPos[i] = -1
			continue
		}
		name, suffix := c, "_y"
		if inBase[c] {
			name += suffix
		}
		l.addPos[i] = add(name, suffix)
	}
	if l.header == nil {
		l.header = Header{}
	}

	for _, k := range keys {
		l.keyBase = append(l.keyBase, base.ColumnIndex(k))
		l.keyAdd = append(l.keyAdd, addition.ColumnIndex(k))
	}
	return l
}

// merge builds an output row. Either side may be nil. When the base side is
// nil, key columns are taken from the addition row.
func (l *joinLayout) merge(baseRow, addRow Row) Row {
	out := make(Row, len(l.header))
	if baseRow != nil {
		for i, pos := range l.basePos {
			out[pos] = baseRow[i]
		}
	}
	if addRow != nil {
		for i, pos := range l.addPos {
			if pos >= 0 {
				out[pos] = addRow[i]
			}
		}
		if baseRow == nil {
			for n, bi := range l.keyBase {
				if bi >= 0 {
					out[l.basePos[bi]] = addRow[l.keyAdd[n]]
				}
			}
		}
	}
	return out
}

func keyJoin(base, addition *Table, keys []string, jt JoinType) (*Table, error) {
	if !base.HasColumns(keys...) {
		return nil, NewJoinKeyError(base.Source(), keys)
	}
	if !addition.HasColumns(keys...) {
		return nil, NewJoinKeyError(addition.Source(), keys)
	}
	for _, t := range []*Table{base, addition} {
		if err := t.checkAligned(); err != nil {
			return nil, NewStatisticsQueryError(fmt.Sprintf("join failed: %s", err), err)
		}
	}

	l := newJoinLayout(base, addition, keys)

	addIndex := make(map[string][]int)
	for j, row := range addition.rows {
		if k, ok := joinKey(row, l.keyAdd); ok {
			addIndex[k] = append(addIndex[k], j)
		}
	}

	var rows []Row
	switch jt {
	case JoinRight:
		baseIndex := make(map[string][]int)
		for i, row := range base.rows {
			if k, ok := joinKey(row, l.keyBase); ok {
				baseIndex[k] = append(baseIndex[k], i)
			}
		}
		for _, addRow := range addition.rows {
			k, ok := joinKey(addRow, l.keyAdd)
			matches := baseIndex[k]
			if !ok || len(matches) == 0 {
				rows = append(rows, l.merge(nil, addRow))
				continue
			}
			for _, i := range matches {
				rows = append(rows, l.merge(base.rows[i], addRow))
			}
		}

	default:
		matched := make([]bool, len(addition.rows))
		for _, baseRow := range base.rows {
			k, ok := joinKey(baseRow, l.keyBase)
			matches := addIndex[k]
			if !ok || len(matches) == 0 {
				if jt != JoinInner {
					rows = append(rows, l.merge(baseRow, nil))
				}
				continue
			}
			for _, j := range matches {
				matched[j] = true
				rows = append(rows, l.merge(baseRow, addition.rows[j]))
			}
		}
		if jt == JoinOuter {
			for j, addRow := range addition.rows {
				if !matched[j] {
					rows = append(rows, l.merge(nil, addRow))
				}
			}
		}
	}

	return NewTable(base.Source(), l.header, rows), nil
}

func indexJoin(base, addition *Table, jt JoinType) (*Table, error) {
	for _, t := range []*Table{base, addition} {
		if err := t.checkAligned(); err != nil {
			return nil, NewIndexJoinError(err.Error())
		}
	}

	nb, na := base.Len(), addition.Len()
	if nb > 0 && na > 0 {
		discards := false
		switch jt {
		case JoinLeft:
			discards = na > nb
		case JoinRight:
			discards = nb > na
		case JoinInner:
			discards = nb != na
		}
		if discards {
			return nil, NewIndexJoinError(fmt.Sprintf("%s join by position would drop rows (base has %d rows, %s has %d rows)", jt, nb, addition.Source(), na))
		}
	}

	var n int
	switch jt {
	case JoinLeft:
		n = nb
	case JoinRight:
		n = na
	case JoinInner:
		n = min(nb, na)
	case JoinOuter:
		n = max(nb, na)
	}

	l := newJoinLayout(base, addition, nil)
	rows := make([]Row, n)
	for i := range rows {
		var baseRow, addRow Row
		if i < nb {
			baseRow = base.rows[i]
		}
		if i < na {
			addRow = addition.rows[i]
		}
		rows[i] = l.merge(baseRow, addRow)
	}

	return NewTable(base.Source(), l.header, rows), nil
}

// Concat appends the rows of addition after the rows of base. The schema is
// the union of both, base columns first.
func Concat(base, addition *Table) (*Table, error) {
	for _, t := range []*Table{base, addition} {
		if err := t.checkAligned(); err != nil {
			return nil, NewConcatError(err.Error())
		}
	}

	header := base.Header()
	pos := make([]int, len(addition.header))
	for i, c := range addition.header {
		j := base.ColumnIndex(c)
		if j < 0 {
			header = append(header, c)
			j = len(header) - 1
		}
		pos[i] = j
	}

	rows := make([]Row, 0, base.Len()+addition.Len())
	for _, row := range base.rows {
		r := make(Row, len(header))
		copy(r, row)
		rows = append(rows, r)
	}
	for _, row := range addition.rows {
		r := make(Row, len(header))
		for i, v := range row {
			r[pos[i]] = v
		}
		rows = append(rows, r)
	}

	return NewTable(base.Source(), header, rows), nil
}
