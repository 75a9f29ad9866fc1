package core_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kndndrj/statpipe/core"
)

func TestSort(t *testing.T) {
	table := core.NewTable("s.r", core.Header{"id", "total", "group"}, []core.Row{
		{1, 3, "b"},
		{2, nil, "a"},
		{3, 1.5, "b"},
		{4, int64(3), "a"},
		{5, math.NaN(), "a"},
		{6, 10, "b"},
	})

	ids := func(t *core.Table) []any {
		var out []any
		for i := 0; i < t.Len(); i++ {
			out = append(out, t.Value(i, "id"))
		}
		return out
	}

	type testCase struct {
		name     string
		keys     []core.SortKey
		expected []any
	}

	testCases := []testCase{
		{
			name:     "ascending keeps missing last",
			keys:     []core.SortKey{{Key: "total"}},
			expected: []any{3, 1, 4, 6, 2, 5},
		},
		{
			name:     "descending keeps missing last",
			keys:     []core.SortKey{{Key: "total", Desc: true}},
			expected: []any{6, 1, 4, 3, 2, 5},
		},
		{
			name:     "multi key",
			keys:     []core.SortKey{{Key: "group"}, {Key: "total", Desc: true}},
			expected: []any{4, 2, 5, 6, 1, 3},
		},
		{
			name:     "stable on equal keys",
			keys:     []core.SortKey{{Key: "group"}},
			expected: []any{2, 4, 5, 1, 3, 6},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			r := require.New(t)

			out, err := core.Sort(table, tc.keys)
			r.NoError(err)
			r.Equal(tc.expected, ids(out))
		})
	}

	// input untouched
	require.Equal(t, []any{1, 2, 3, 4, 5, 6}, ids(table))
}

func TestSort_MixedTypes(t *testing.T) {
	r := require.New(t)

	table := core.NewTable("s.r", core.Header{"v"}, []core.Row{{true}, {"a"}, {2}, {nil}, {1}})

	out, err := core.Sort(table, []core.SortKey{{Key: "v"}})
	r.NoError(err)
	r.Equal([]core.Row{{1}, {2}, {"a"}, {true}, {nil}}, out.Rows())
}

func TestSort_LargeIntegers(t *testing.T) {
	r := require.New(t)

	// 2^53 + 1 and 2^53 are the same float64, equal values keep their order
	table := core.NewTable("s.r", core.Header{"v"}, []core.Row{
		{int64(9007199254740993)},
		{uint64(9007199254740992)},
		{9007199254740992.0},
		{int64(9007199254740992)},
	})

	out, err := core.Sort(table, []core.SortKey{{Key: "v"}})
	r.NoError(err)
	r.Equal([]core.Row{
		{uint64(9007199254740992)},
		{9007199254740992.0},
		{int64(9007199254740992)},
		{int64(9007199254740993)},
	}, out.Rows())
}

func TestSort_Errors(t *testing.T) {
	r := require.New(t)

	table := core.NewTable("s.r", core.Header{"a"}, []core.Row{{1}})

	_, err := core.Sort(table, []core.SortKey{{Key: "missing"}})
	r.ErrorIs(err, core.ErrStatisticsQuery)
	r.Contains(err.Error(), "sorting failed")

	// empty tables are not checked
	empty := core.EmptyTable("s.r", core.Header{})
	out, err := core.Sort(empty, []core.SortKey{{Key: "missing"}})
	r.NoError(err)
	r.Same(empty, out)
}

func TestPaginate(t *testing.T) {
	table := core.NewTable("s.r", core.Header{"i"}, []core.Row{{1}, {2}, {3}, {4}, {5}})

	type testCase struct {
		page     core.PageSpec
		expected []core.Row
	}

	testCases := []testCase{
		{page: core.PageSpec{}, expected: []core.Row{{1}, {2}, {3}, {4}, {5}}},
		{page: core.PageSpec{Start: 3}, expected: []core.Row{{1}, {2}, {3}, {4}, {5}}},
		{page: core.PageSpec{Limit: 2}, expected: []core.Row{{1}, {2}}},
		{page: core.PageSpec{Start: 0, Limit: 2}, expected: []core.Row{{1}, {2}}},
		{page: core.PageSpec{Start: 2, Limit: 2}, expected: []core.Row{{2}, {3}}},
		{page: core.PageSpec{Start: 4, Limit: 10}, expected: []core.Row{{4}, {5}}},
		{page: core.PageSpec{Start: 9, Limit: 2}, expected: []core.Row{}},
		{page: core.PageSpec{Start: 2, Limit: math.MaxInt}, expected: []core.Row{{2}, {3}, {4}, {5}}},
		{page: core.PageSpec{Start: math.MaxInt, Limit: math.MaxInt}, expected: []core.Row{}},
	}

	for _, tc := range testCases {
		r := require.New(t)

		var (
			out   *core.Table
			total int
		)
		r.NotPanics(func() { out, total = core.Paginate(table, tc.page) }, "%+v", tc.page)
		r.Equal(5, total)
		r.Equal(tc.expected, out.Rows(), "%+v", tc.page)
	}
}
