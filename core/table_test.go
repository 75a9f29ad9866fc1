package core_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kndndrj/statpipe/core"
)

func TestTableFromRecords(t *testing.T) {
	r := require.New(t)

	table, err := core.TableFromRecords("identity.Project", core.Header{"project_id"}, []core.Record{
		map[string]any{"project_id": "p-1", "name": "a", "count": 1},
		map[string]any{"project_id": "p-2", "zone": "z1"},
	})
	r.NoError(err)

	r.Equal("identity.Project", table.Source())
	r.Equal(core.Header{"project_id", "count", "name", "zone"}, table.Header())
	r.Equal([]core.Row{
		{"p-1", 1, "a", nil},
		{"p-2", nil, nil, "z1"},
	}, table.Rows())
}

func TestTableFromRecords_ScalarsAndRows(t *testing.T) {
	r := require.New(t)

	table, err := core.TableFromRecords("inventory.Server", nil, []core.Record{"a", "b", nil})
	r.NoError(err)
	r.Equal(core.Header{core.ValueColumn}, table.Header())
	r.Equal([]core.Row{{"a"}, {"b"}, {nil}}, table.Rows())

	table, err = core.TableFromRecords("db.stats", core.Header{"a", "b"}, []core.Record{
		core.Row{1, 2},
		core.Row{3},
	})
	r.NoError(err)
	r.Equal([]core.Row{{1, 2}, {3, nil}}, table.Rows())

	_, err = core.TableFromRecords("db.stats", core.Header{"a"}, []core.Record{core.Row{1, 2}})
	r.Error(err)
}

func TestTable_WithColumnIsImmutable(t *testing.T) {
	r := require.New(t)

	base := core.NewTable("s.r", core.Header{"a"}, []core.Row{{1}, {2}})

	added, err := base.WithColumn("b", []any{"x", "y"})
	r.NoError(err)
	r.Equal(core.Header{"a", "b"}, added.Header())
	r.Equal([]core.Row{{1, "x"}, {2, "y"}}, added.Rows())

	replaced, err := added.WithColumn("a", []any{10, 20})
	r.NoError(err)
	r.Equal([]core.Row{{10, "x"}, {20, "y"}}, replaced.Rows())

	// inputs untouched
	r.Equal(core.Header{"a"}, base.Header())
	r.Equal([]core.Row{{1}, {2}}, base.Rows())
	r.Equal([]core.Row{{1, "x"}, {2, "y"}}, added.Rows())

	_, err = base.WithColumn("c", []any{1})
	r.Error(err)
}

func TestTable_WithConstantOnEmpty(t *testing.T) {
	r := require.New(t)

	empty := core.EmptyTable("s.r", core.Header{"project_id"})
	out := empty.WithConstant("region", "eu")

	r.Equal(0, out.Len())
	r.Equal(core.Header{"project_id", "region"}, out.Header())
}

func TestTable_Accessors(t *testing.T) {
	r := require.New(t)

	table := core.NewTable("s.r", core.Header{"a", "b"}, []core.Row{{1, "x"}})

	r.Equal(1, table.ColumnIndex("b"))
	r.Equal(-1, table.ColumnIndex("c"))
	r.True(table.HasColumns("a", "b"))
	r.False(table.HasColumns("a", "c"))
	r.Equal("x", table.Value(0, "b"))
	r.Nil(table.Value(0, "c"))
	r.Nil(table.Value(5, "a"))
	r.Equal([]map[string]any{{"a": 1, "b": "x"}}, table.Records())
}
