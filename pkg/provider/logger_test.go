package provider

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestZerologLogger(t *testing.T) {
	var buf bytes.Buffer

	logger := NewZerologLogger(zerolog.New(&buf).Level(zerolog.InfoLevel))

	logger.Debug("hidden", nil)
	logger.Info("HTTP Request", map[string]interface{}{"method": "GET", "url": "http://x/posts"})

	var entry map[string]any

	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "info", entry["level"])
	assert.Equal(t, "HTTP Request", entry["message"])
	assert.Equal(t, "GET", entry["method"])
	assert.Equal(t, "http://x/posts", entry["url"])
}

func TestNopLogger(t *testing.T) {
	logger := NewNopLogger()

	assert.NotPanics(t, func() {
		logger.Error("ignored", map[string]interface{}{"k": "v"})
		logger.Warn("ignored", nil)
	})
}

func TestPaginationRange(t *testing.T) {
	tests := []struct {
		pagination Pagination
		start      int
		end        int
	}{
		{Pagination{Page: 1, PerPage: 10}, 0, 9},
		{Pagination{Page: 2, PerPage: 10}, 10, 19},
		{Pagination{Page: 3, PerPage: 25}, 50, 74},
	}

	for _, tt := range tests {
		start, end := tt.pagination.Range()
		assert.Equal(t, tt.start, start)
		assert.Equal(t, tt.end, end)
	}
}
