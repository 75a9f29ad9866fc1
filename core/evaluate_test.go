package core_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kndndrj/statpipe/core"
)

func TestEvalColumn(t *testing.T) {
	r := require.New(t)

	table := core.NewTable("s.r", core.Header{"name", "server_count"}, []core.Row{
		{"a", 2},
		{"b", int64(5)},
	})

	out, err := core.EvalColumn(table, "total", "server_count * 2 + 1")
	r.NoError(err)
	r.Equal(core.Header{"name", "server_count", "total"}, out.Header())
	r.Equal([]any{5.0, 11.0}, []any{out.Value(0, "total"), out.Value(1, "total")})

	out, err = core.EvalAssignment(table, "server_count = server_count - 1")
	r.NoError(err)
	r.Equal(core.Header{"name", "server_count"}, out.Header())
	r.Equal(4.0, out.Value(1, "server_count"))
}

func TestEvalColumn_Errors(t *testing.T) {
	r := require.New(t)

	table := core.NewTable("s.r", core.Header{"y"}, []core.Row{{1}, {2}, {3}, {4}, {5}})

	for _, expr := range []string{
		"x = y / 0_literal_error",
		"x = y / 0",
		"x = unknown + 1",
		"x = y + 'a'",
	} {
		out, err := core.EvalAssignment(table, expr)
		r.ErrorIs(err, core.ErrFormula, expr)
		r.Nil(out)

		var coreErr *core.Error
		r.ErrorAs(err, &coreErr)
		r.Equal(expr, coreErr.Expression)
		r.Contains(err.Error(), expr)
	}

	r.Equal(core.Header{"y"}, table.Header())
}

func TestEvalColumn_EmptyTable(t *testing.T) {
	r := require.New(t)

	empty := core.EmptyTable("s.r", core.Header{"y"})

	out, err := core.EvalColumn(empty, "x", "this is not parsed (")
	r.NoError(err)
	r.Same(empty, out)

	out, err = core.FilterRows(empty, "y >")
	r.NoError(err)
	r.Same(empty, out)
}

func TestFilterRows(t *testing.T) {
	r := require.New(t)

	table := core.NewTable("s.r", core.Header{"name", "total"}, []core.Row{
		{"a", 12},
		{"b", 3},
		{"c", nil},
		{"d", 40},
	})

	out, err := core.FilterRows(table, "total > 10 and name != 'd'")
	r.NoError(err)
	r.Equal([]core.Row{{"a", 12}}, out.Rows())

	_, err = core.FilterRows(table, "total + 1")
	r.ErrorIs(err, core.ErrFormula)
}
