package adapter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fivetwenty-io/restprovider/pkg/provider"
)

func TestRekeyPayload(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		data     provider.Record
		key      string
		expected provider.Record
	}{
		{
			name:     "no remap",
			data:     provider.Record{"id": 1, "name": "x"},
			expected: provider.Record{"id": 1, "name": "x"},
		},
		{
			name:     "moves id to key",
			data:     provider.Record{"id": 7, "name": "x"},
			key:      "key",
			expected: provider.Record{"key": 7, "name": "x"},
		},
		{
			name:     "no id",
			data:     provider.Record{"name": "x"},
			key:      "key",
			expected: provider.Record{"name": "x"},
		},
		{
			name: "nil data",
			key:  "key",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.expected, rekeyPayload(tt.data, tt.key))
		})
	}
}

func TestRekeyPayload_DoesNotModifyInput(t *testing.T) {
	t.Parallel()

	data := provider.Record{"id": 7, "name": "x"}
	_ = rekeyPayload(data, "key")

	assert.Equal(t, provider.Record{"id": 7, "name": "x"}, data)
}

func TestRekeyFilter(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		filter   provider.Filter
		key      string
		expected provider.Filter
	}{
		{
			name: "nil filter",
			key:  "key",
		},
		{
			name:     "no remap is unchanged",
			filter:   provider.Filter{"id": 1},
			expected: provider.Filter{"id": 1},
		},
		{
			name:     "moves id to key",
			filter:   provider.Filter{"id": []any{1, 2}, "q": "x"},
			key:      "key",
			expected: provider.Filter{"key": []any{1, 2}, "q": "x"},
		},
		{
			name:     "nil id is dropped",
			filter:   provider.Filter{"id": nil, "q": "x"},
			key:      "key",
			expected: provider.Filter{"q": "x"},
		},
		{
			name:     "zero id is kept",
			filter:   provider.Filter{"id": 0},
			key:      "key",
			expected: provider.Filter{"key": 0},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.expected, rekeyFilter(tt.filter, tt.key))
		})
	}
}

func TestRekeyRecord(t *testing.T) {
	t.Parallel()

	t.Run("moves key to id", func(t *testing.T) {
		t.Parallel()

		record := provider.Record{"key": 7, "name": "x"}
		out, err := rekeyRecord("posts", record, "key")
		require.NoError(t, err)
		assert.Equal(t, provider.Record{"id": 7, "name": "x"}, out)
		assert.Equal(t, provider.Record{"key": 7, "name": "x"}, record)
	})

	t.Run("no remap passes through", func(t *testing.T) {
		t.Parallel()

		record := provider.Record{"id": 1}
		out, err := rekeyRecord("posts", record, "")
		require.NoError(t, err)
		assert.Equal(t, record, out)
	})

	t.Run("missing key", func(t *testing.T) {
		t.Parallel()

		_, err := rekeyRecord("posts", provider.Record{"name": "x"}, "key")
		require.ErrorIs(t, err, provider.ErrUnhandledRemap)
	})

	t.Run("round trip is identity", func(t *testing.T) {
		t.Parallel()

		record := provider.Record{"id": "abc", "name": "x", "tags": []any{"a"}}
		out, err := rekeyRecord("posts", rekeyPayload(record, "uuid"), "uuid")
		require.NoError(t, err)
		assert.Equal(t, record, out)

		backend := provider.Record{"uuid": "abc", "name": "x"}
		inbound, err := rekeyRecord("posts", backend, "uuid")
		require.NoError(t, err)
		assert.Equal(t, backend, rekeyPayload(inbound, "uuid"))
	})
}

func TestRekeyRecords(t *testing.T) {
	t.Parallel()

	out, err := rekeyRecords("posts", []provider.Record{{"key": 1}, {"key": 2}}, "key")
	require.NoError(t, err)
	assert.Equal(t, []provider.Record{{"id": 1}, {"id": 2}}, out)

	_, err = rekeyRecords("posts", []provider.Record{{"key": 1}, {"other": 2}}, "key")
	require.ErrorIs(t, err, provider.ErrUnhandledRemap)
}

func TestTransformRecords(t *testing.T) {
	t.Parallel()

	double := func(r provider.Record) provider.Record {
		return provider.Record{"id": r["id"], "n": r["n"].(int) * 2}
	}

	assert.Equal(t,
		[]provider.Record{{"id": 1, "n": 4}},
		transformRecords([]provider.Record{{"id": 1, "n": 2}}, double),
	)
	assert.Equal(t,
		[]provider.Record{{"id": 1, "n": 2}},
		transformRecords([]provider.Record{{"id": 1, "n": 2}}, nil),
	)
	assert.Equal(t, provider.Record{"id": 1, "n": 6}, transformRecord(provider.Record{"id": 1, "n": 3}, double))
}

func TestAsRecords(t *testing.T) {
	t.Parallel()

	records, err := asRecords([]any{map[string]any{"id": 1}})
	require.NoError(t, err)
	assert.Equal(t, []provider.Record{{"id": 1}}, records)

	records, err = asRecords([]map[string]any{{"id": 2}})
	require.NoError(t, err)
	assert.Equal(t, []provider.Record{{"id": 2}}, records)

	_, err = asRecords([]any{"nope"})
	require.ErrorIs(t, err, provider.ErrUnexpectedResponse)

	_, err = asRecords(map[string]any{"id": 1})
	require.ErrorIs(t, err, provider.ErrUnexpectedResponse)
}

func TestIdentifierOf(t *testing.T) {
	t.Parallel()

	id, err := identifierOf("posts", map[string]any{"uuid": "abc"}, "uuid")
	require.NoError(t, err)
	assert.Equal(t, "abc", id)

	_, err = identifierOf("posts", map[string]any{"id": 1}, "uuid")
	require.ErrorIs(t, err, provider.ErrUnhandledRemap)

	_, err = identifierOf("posts", nil, "id")
	require.ErrorIs(t, err, provider.ErrUnexpectedResponse)
}
