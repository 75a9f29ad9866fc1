package adapters

import (
	"net/url"
	"testing"

	"cloud.google.com/go/bigquery"
	"github.com/stretchr/testify/require"

	"github.com/kndndrj/statpipe/core"
)

func TestBigQueryConfig_FromParams(t *testing.T) {
	r := require.New(t)

	params, err := url.ParseQuery("location=EU&max-bytes-billed=1000&disable-query-cache=true")
	r.NoError(err)

	var c bigQueryConfig
	r.NoError(c.fromParams(params))
	r.Equal(bigQueryConfig{
		location:          "EU",
		maxBytesBilled:    1000,
		disableQueryCache: true,
	}, c)

	params, err = url.ParseQuery("max-bytes-billed=lots")
	r.NoError(err)
	r.Error(c.fromParams(params))
}

func TestBigQueryRowLoader(t *testing.T) {
	r := require.New(t)

	schema := bigquery.Schema{
		{Name: "project_id", Type: bigquery.StringFieldType},
		{Name: "labels", Type: bigquery.StringFieldType, Repeated: true},
		{Name: "usage", Type: bigquery.RecordFieldType, Schema: bigquery.Schema{
			{Name: "cpu", Type: bigquery.FloatFieldType},
			{Name: "memory", Type: bigquery.FloatFieldType},
		}},
	}

	var loader bigqueryRowLoader
	r.NoError(loader.Load([]bigquery.Value{
		"p-1",
		[]bigquery.Value{"a", "b"},
		[]bigquery.Value{0.5, 2.0},
	}, schema))

	r.Equal(core.Row{
		"p-1",
		[]any{"a", "b"},
		map[string]any{"cpu": 0.5, "memory": 2.0},
	}, loader.row)
	r.Equal(core.Header{"project_id", "labels", "usage"}, bigqueryHeader(schema))
}
