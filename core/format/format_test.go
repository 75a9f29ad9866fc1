package format_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kndndrj/statpipe/core"
	"github.com/kndndrj/statpipe/core/format"
)

var (
	testHeader = core.Header{"project_id", "server_count"}
	testRows   = []core.Row{
		{"p-1", 4},
		{"p-2", nil},
	}
)

func TestJSON_Format(t *testing.T) {
	r := require.New(t)

	out, err := format.NewJSON().Format(testHeader, testRows, &core.FormatterOptions{TotalCount: 7})
	r.NoError(err)
	r.JSONEq(`{
		"results": [
			{"project_id": "p-1", "server_count": 4},
			{"project_id": "p-2", "server_count": null}
		],
		"total_count": 7
	}`, string(out))

	out, err = format.NewJSON().Format(core.Header{"value"}, []core.Row{{"a"}, {"b"}}, &core.FormatterOptions{
		SchemaType: core.SchemaLess,
		TotalCount: 2,
	})
	r.NoError(err)
	r.JSONEq(`{"results": ["a", "b"], "total_count": 2}`, string(out))

	out, err = format.NewIndentedJSON().Format(testHeader, nil, nil)
	r.NoError(err)
	r.Equal("{\n  \"results\": [],\n  \"total_count\": 0\n}", string(out))
}

func TestCSV_Format(t *testing.T) {
	r := require.New(t)

	out, err := format.NewCSV().Format(testHeader, testRows, nil)
	r.NoError(err)
	r.Equal("project_id,server_count\np-1,4\np-2,\n", string(out))
}

func TestTable_Format(t *testing.T) {
	r := require.New(t)

	out, err := format.NewTable().Format(testHeader, testRows, &core.FormatterOptions{TotalCount: 2})
	r.NoError(err)

	lines := strings.Split(string(out), "\n")
	r.Len(lines, 4)
	r.Contains(lines[0], "project_id")
	r.Contains(lines[0], "server_count")
	r.Contains(lines[2], "p-1")
	r.Contains(lines[3], "p-2")
	r.NotContains(string(out), "showing")

	out, err = format.NewTable().Format(testHeader, testRows, &core.FormatterOptions{TotalCount: 10})
	r.NoError(err)
	r.Contains(string(out), "showing")
}

func TestResult_Format(t *testing.T) {
	r := require.New(t)

	result := &core.Result{
		Table:      core.NewTable("inventory.Server", testHeader, testRows),
		TotalCount: 5,
	}
	out, err := result.Format(format.NewJSON())
	r.NoError(err)
	r.Contains(string(out), `"total_count":5`)
}
