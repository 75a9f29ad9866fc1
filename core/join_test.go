package core_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kndndrj/statpipe/core"
)

func projects() *core.Table {
	return core.NewTable("identity.Project", core.Header{"project_id", "name"}, []core.Row{
		{"p-1", "alpha"},
		{"p-2", "beta"},
		{"p-3", "gamma"},
	})
}

func servers() *core.Table {
	return core.NewTable("inventory.Server", core.Header{"project_id", "server_count"}, []core.Row{
		{"p-2", 5},
		{"p-4", 1},
		{"p-1", 2},
		{"p-1", 7},
	})
}

func TestJoin_Keys(t *testing.T) {
	type testCase struct {
		name     string
		joinType core.JoinType
		expected []core.Row
	}

	testCases := []testCase{
		{
			name:     "left",
			joinType: core.JoinLeft,
			expected: []core.Row{
				{"p-1", "alpha", 2},
				{"p-1", "alpha", 7},
				{"p-2", "beta", 5},
				{"p-3", "gamma", nil},
			},
		},
		{
			name:     "default is left",
			joinType: "",
			expected: []core.Row{
				{"p-1", "alpha", 2},
				{"p-1", "alpha", 7},
				{"p-2", "beta", 5},
				{"p-3", "gamma", nil},
			},
		},
		{
			name:     "inner",
			joinType: core.JoinInner,
			expected: []core.Row{
				{"p-1", "alpha", 2},
				{"p-1", "alpha", 7},
				{"p-2", "beta", 5},
			},
		},
		{
			name:     "right",
			joinType: core.JoinRight,
			expected: []core.Row{
				{"p-2", "beta", 5},
				{"p-4", nil, 1},
				{"p-1", "alpha", 2},
				{"p-1", "alpha", 7},
			},
		},
		{
			name:     "outer",
			joinType: core.JoinOuter,
			expected: []core.Row{
				{"p-1", "alpha", 2},
				{"p-1", "alpha", 7},
				{"p-2", "beta", 5},
				{"p-3", "gamma", nil},
				{"p-4", nil, 1},
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			r := require.New(t)

			out, err := core.Join(projects(), servers(), []string{"project_id"}, tc.joinType)
			r.NoError(err)
			r.Equal(core.Header{"project_id", "name", "server_count"}, out.Header())
			r.Equal(tc.expected, out.Rows())
		})
	}
}

func TestJoin_NumericKeysAndNulls(t *testing.T) {
	r := require.New(t)

	base := core.NewTable("a.b", core.Header{"id", "v"}, []core.Row{{int64(1), "x"}, {nil, "y"}})
	addition := core.NewTable("c.d", core.Header{"id", "w"}, []core.Row{{1.0, "z"}, {nil, "n"}})

	out, err := core.Join(base, addition, []string{"id"}, core.JoinInner)
	r.NoError(err)
	r.Equal([]core.Row{{int64(1), "x", "z"}}, out.Rows())
	// ids above 2^53 must not collapse to the same float
	base = core.NewTable("a.b", core.Header{"id", "v"}, []core.Row{{int64(9007199254740993), "left"}})
	addition = core.NewTable("c.d", core.Header{"id", "w"}, []core.Row{{int64(9007199254740992), 7}})

	out, err = core.Join(base, addition, []string{"id"}, core.JoinInner)
	r.NoError(err)
	r.Empty(out.Rows())

	// same value across integer kinds and lossless floats still matches
	base = core.NewTable("a.b", core.Header{"id", "v"}, []core.Row{
		{int64(9007199254740993), "big"},
		{int32(4), "small"},
	})
	addition = core.NewTable("c.d", core.Header{"id", "w"}, []core.Row{
		{uint64(9007199254740993), 1},
		{4.0, 2},
	})

	out, err = core.Join(base, addition, []string{"id"}, core.JoinInner)
	r.NoError(err)
	r.Equal([]core.Row{
		{int64(9007199254740993), "big", 1},
		{int32(4), "small", 2},
	}, out.Rows())
}

func TestJoin_Collisions(t *testing.T) {
	r := require.New(t)

	base := core.NewTable("a.b", core.Header{"id", "count"}, []core.Row{{"1", 1}})
	addition := core.NewTable("c.d", core.Header{"id", "count"}, []core.Row{{"1", 2}})

	out, err := core.Join(base, addition, []string{"id"}, core.JoinLeft)
	r.NoError(err)
	r.Equal(core.Header{"id", "count_x", "count_y"}, out.Header())
	r.Equal([]core.Row{{"1", 1, 2}}, out.Rows())
}

func TestJoin_KeyNotFound(t *testing.T) {
	r := require.New(t)

	missing := core.NewTable("inventory.Server", core.Header{"server_count"}, []core.Row{{1}})

	_, err := core.Join(projects(), missing, []string{"project_id"}, core.JoinLeft)
	r.ErrorIs(err, core.ErrJoinKeyNotFound)

	var coreErr *core.Error
	r.ErrorAs(err, &coreErr)
	r.Equal("inventory.Server", coreErr.ResourceType)
	r.Equal([]string{"project_id"}, coreErr.Keys)

	_, err = core.Join(missing, projects(), []string{"project_id"}, core.JoinLeft)
	r.ErrorAs(err, &coreErr)
	r.Equal("inventory.Server", coreErr.ResourceType)
}

func TestJoin_InvalidType(t *testing.T) {
	r := require.New(t)

	_, err := core.Join(projects(), servers(), []string{"project_id"}, "DIAGONAL")
	r.ErrorIs(err, core.ErrInvalidParameterType)

	var coreErr *core.Error
	r.ErrorAs(err, &coreErr)
	r.Equal([]string{"LEFT", "RIGHT", "OUTER", "INNER"}, coreErr.Allowed)
}

func TestJoin_Index(t *testing.T) {
	r := require.New(t)

	base := core.NewTable("a.b", core.Header{"x"}, []core.Row{{1}, {2}})
	same := core.NewTable("c.d", core.Header{"y"}, []core.Row{{"a"}, {"b"}})
	longer := core.NewTable("c.d", core.Header{"y"}, []core.Row{{"a"}, {"b"}, {"c"}})
	empty := core.EmptyTable("c.d", core.Header{"y"})

	out, err := core.Join(base, same, nil, core.JoinInner)
	r.NoError(err)
	r.Equal(core.Header{"x", "y"}, out.Header())
	r.Equal([]core.Row{{1, "a"}, {2, "b"}}, out.Rows())

	out, err = core.Join(base, longer, nil, core.JoinOuter)
	r.NoError(err)
	r.Equal([]core.Row{{1, "a"}, {2, "b"}, {nil, "c"}}, out.Rows())

	out, err = core.Join(base, longer, nil, core.JoinRight)
	r.NoError(err)
	r.Equal(3, out.Len())

	_, err = core.Join(base, longer, nil, core.JoinLeft)
	r.ErrorIs(err, core.ErrIndexJoin)

	_, err = core.Join(base, longer, nil, core.JoinInner)
	r.ErrorIs(err, core.ErrIndexJoin)

	out, err = core.Join(base, empty, nil, core.JoinLeft)
	r.NoError(err)
	r.Equal([]core.Row{{1, nil}, {2, nil}}, out.Rows())

	out, err = core.Join(base, empty, nil, core.JoinInner)
	r.NoError(err)
	r.Equal(0, out.Len())
	r.Equal(core.Header{"x", "y"}, out.Header())
}

func TestJoin_EmptyBaseKeepsSchema(t *testing.T) {
	r := require.New(t)

	base := core.EmptyTable("identity.Project", core.Header{"project_id", "name"})

	out, err := core.Join(base, servers(), []string{"project_id"}, core.JoinLeft)
	r.NoError(err)
	r.Equal(0, out.Len())
	r.Equal(core.Header{"project_id", "name", "server_count"}, out.Header())
}

func TestConcat(t *testing.T) {
	r := require.New(t)

	a := core.NewTable("a.b", core.Header{"x", "y"}, []core.Row{{1, 2}})
	b := core.NewTable("c.d", core.Header{"y", "z"}, []core.Row{{3, 4}, {5, 6}})

	out, err := core.Concat(a, b)
	r.NoError(err)
	r.Equal(a.Len()+b.Len(), out.Len())
	r.Equal(core.Header{"x", "y", "z"}, out.Header())
	r.Equal([]core.Row{{1, 2, nil}, {nil, 3, 4}, {nil, 5, 6}}, out.Rows())

	misaligned := core.NewTable("c.d", core.Header{"y"}, []core.Row{{1, 2}})
	_, err = core.Concat(a, misaligned)
	r.ErrorIs(err, core.ErrConcat)
}
