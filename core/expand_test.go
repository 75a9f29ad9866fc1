package core

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestExpand(t *testing.T) {
	r := require.New(t)
	t.Setenv("STATPIPE_TEST_HOST", "identity:50051")

	testCases := []struct {
		input    string
		expected string
	}{
		{"normal string", "normal string"},
		{"grpc://{{ env `STATPIPE_TEST_HOST` }}/v1", "grpc://identity:50051/v1"},
		{`{{ envOr "STATPIPE_TEST_UNSET" "localhost" }}`, "localhost"},
		{`{{ envOr "STATPIPE_TEST_HOST" "localhost" }}`, "identity:50051"},
	}

	for _, tc := range testCases {
		actual, err := expand(tc.input)
		r.NoError(err)

		r.Equal(tc.expected, actual)
	}

	_, err := expand("{{ exec `ls` }}")
	r.Error(err)

	r.Equal("{{ broken", expandOrDefault("{{ broken"))
}
