package core_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kndndrj/statpipe/core"
)

func TestDeclaredSchema(t *testing.T) {
	type testCase struct {
		name     string
		query    string
		expected core.Header
	}

	testCases := []testCase{
		{
			name: "aggregate object",
			query: `{"aggregate": {"group": {
				"keys": [{"key": "project_id", "name": "project_id"}, {"key": "name", "name": "name"}]
			}}}`,
			expected: core.Header{"project_id", "name"},
		},
		{
			name: "keys then fields",
			query: `{"aggregate": {"group": {
				"fields": [{"operator": "count", "name": "server_count"}],
				"keys": [{"key": "project_id", "name": "project_id"}]
			}}}`,
			expected: core.Header{"project_id", "server_count"},
		},
		{
			name: "last group of aggregate list",
			query: `{"aggregate": [
				{"group": {"keys": [{"name": "first"}]}},
				{"unwind": {"path": "tags"}},
				{"group": {"keys": [{"name": "second"}], "fields": [{"name": "count"}]}},
				{"sort": {"key": "count"}}
			]}`,
			expected: core.Header{"second", "count"},
		},
		{
			name:     "no aggregate",
			query:    `{"filter": []}`,
			expected: core.Header{},
		},
		{
			name:     "unexpected shape",
			query:    `{"aggregate": {"group": {"keys": ["project_id", {"key": "no_name"}]}}}`,
			expected: core.Header{},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			r := require.New(t)

			var query map[string]any
			r.NoError(json.Unmarshal([]byte(tc.query), &query))

			r.Equal(tc.expected, core.DeclaredSchema(query))
		})
	}
}
