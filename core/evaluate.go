package core

import (
	"fmt"

	"github.com/kndndrj/statpipe/core/formula"
)

type rowEnv struct {
	index map[string]int
	row   Row
}

func (e *rowEnv) Lookup(column string) (any, bool) {
	i, ok := e.index[column]
	if !ok {
		return nil, false
	}
	if i >= len(e.row) {
		return nil, true
	}
	return e.row[i], true
}

func (t *Table) env() *rowEnv {
	index := make(map[string]int, len(t.header))
	for i, c := range t.header {
		index[c] = i
	}
	return &rowEnv{index: index}
}

// EvalColumn evaluates expression for every row and stores the results in
// the named column. Zero row tables are returned unchanged.
func EvalColumn(t *Table, name, expression string) (*Table, error) {
	if t.Len() == 0 {
		return t, nil
	}

	expr, err := formula.Parse(expression)
	if err != nil {
		return nil, NewFormulaError(expression, err)
	}
	return evalColumn(t, name, expr, expression)
}

// EvalAssignment is EvalColumn for expressions of the form "name = expr".
func EvalAssignment(t *Table, expression string) (*Table, error) {
	if t.Len() == 0 {
		return t, nil
	}

	name, expr, err := formula.ParseAssignment(expression)
	if err != nil {
		return nil, NewFormulaError(expression, err)
	}
	return evalColumn(t, name, expr, expression)
}

func evalColumn(t *Table, name string, expr *formula.Expr, expression string) (*Table, error) {
	env := t.env()
	values := make([]any, t.Len())
	for i, row := range t.rows {
		env.row = row
		v, err := expr.Eval(env)
		if err != nil {
			return nil, NewFormulaError(expression, fmt.Errorf("row %d: %w", i, err))
		}
		values[i] = v
	}

	out, err := t.WithColumn(name, values)
	if err != nil {
		return nil, NewFormulaError(expression, err)
	}
	return out, nil
}

// FilterRows keeps the rows for which expression is true. Null results drop
// the row, any other non boolean result is an error.
func FilterRows(t *Table, expression string) (*Table, error) {
	if t.Len() == 0 {
		return t, nil
	}

	expr, err := formula.Parse(expression)
	if err != nil {
		return nil, NewFormulaError(expression, err)
	}

	env := t.env()
	var rows []Row
	for i, row := range t.rows {
		env.row = row
		v, err := expr.Eval(env)
		if err != nil {
			return nil, NewFormulaError(expression, fmt.Errorf("row %d: %w", i, err))
		}
		if isMissing(v) {
			continue
		}
		keep, ok := v.(bool)
		if !ok {
			return nil, NewFormulaError(expression, fmt.Errorf("row %d: filter result is %T, expected bool", i, v))
		}
		if keep {
			rows = append(rows, row)
		}
	}

	return NewTable(t.source, t.header, rows), nil
}
