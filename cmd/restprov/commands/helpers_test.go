package commands

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fivetwenty-io/restprovider/internal/constants"
	"github.com/fivetwenty-io/restprovider/pkg/provider"
)

func TestParseKeyMappings(t *testing.T) {
	t.Parallel()

	keys, err := parseKeyMappings([]string{"authors=uuid", " tags = slug "})
	require.NoError(t, err)
	assert.Equal(t, provider.IdentifierRemap{"authors": "uuid", "tags": "slug"}, keys)

	for _, bad := range []string{"authors", "=uuid", "authors="} {
		_, err := parseKeyMappings([]string{bad})
		require.ErrorIs(t, err, constants.ErrInvalidKeyMapping, bad)
	}
}

func TestParseHeaders(t *testing.T) {
	t.Parallel()

	headers, err := parseHeaders([]string{"Authorization: Bearer abc", "X-Empty:"})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"Authorization": "Bearer abc", "X-Empty": ""}, headers)

	_, err = parseHeaders([]string{"no colon"})
	require.ErrorIs(t, err, constants.ErrInvalidHeaderValue)
}

func TestParseIdentifier(t *testing.T) {
	t.Parallel()

	assert.Equal(t, int64(42), parseIdentifier("42"))
	assert.Equal(t, "abc", parseIdentifier("abc"))
	assert.Equal(t, "4.5", parseIdentifier("4.5"))
	assert.Equal(t, []any{int64(1), "b"}, parseIdentifiers([]string{"1", "b"}))
}

func TestParseSortOrder(t *testing.T) {
	t.Parallel()

	order, err := parseSortOrder("desc")
	require.NoError(t, err)
	assert.Equal(t, provider.SortDESC, order)

	order, err = parseSortOrder("ASC")
	require.NoError(t, err)
	assert.Equal(t, provider.SortASC, order)

	_, err = parseSortOrder("sideways")
	require.ErrorIs(t, err, constants.ErrInvalidSortOrder)
}

func TestReadRecordData(t *testing.T) {
	t.Parallel()

	record, err := readRecordData(`{"title":"x","views":3}`, "")
	require.NoError(t, err)
	assert.Equal(t, provider.Record{"title": "x", "views": json.Number("3")}, record)

	path := filepath.Join(t.TempDir(), "record.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"title":"from file"}`), 0o600))

	record, err = readRecordData("", path)
	require.NoError(t, err)
	assert.Equal(t, "from file", record["title"])

	_, err = readRecordData("", "")
	require.ErrorIs(t, err, constants.ErrDataRequired)

	_, err = readRecordData(`[1,2]`, "")
	require.ErrorIs(t, err, constants.ErrInvalidJSONObject)
}

func TestListFlags(t *testing.T) {
	t.Parallel()

	flags := &listFlags{page: 2, perPage: 5, sort: "title", order: "desc", filter: `{"q":"x"}`}

	pagination, sortBy, filter, err := flags.params()
	require.NoError(t, err)
	assert.Equal(t, provider.Pagination{Page: 2, PerPage: 5}, pagination)
	assert.Equal(t, provider.Sort{Field: "title", Order: provider.SortDESC}, sortBy)
	assert.Equal(t, provider.Filter{"q": "x"}, filter)

	flags.page = 0
	_, _, _, err = flags.params()
	require.ErrorIs(t, err, constants.ErrInvalidPagination)
}

func TestRecordColumns(t *testing.T) {
	t.Parallel()

	columns := recordColumns([]provider.Record{
		{"title": "a", "id": 1},
		{"views": 3, "id": 2, "author": "x"},
	})
	assert.Equal(t, []string{"id", "author", "title", "views"}, columns)

	assert.Equal(t, []string{"name"}, recordColumns([]provider.Record{{"name": "x"}}))
}

func TestFormatCell(t *testing.T) {
	t.Parallel()

	assert.Empty(t, formatCell(nil))
	assert.Equal(t, "text", formatCell("text"))
	assert.Equal(t, "12", formatCell(json.Number("12")))
	assert.Equal(t, `{"a":"<b>"}`, formatCell(map[string]any{"a": "<b>"}))
	assert.Equal(t, `[1,2]`, formatCell([]any{1, 2}))

	long := strings.Repeat("x", constants.MaxTableCellWidth+10)
	cell := formatCell(long)
	assert.Len(t, cell, constants.MaxTableCellWidth)
	assert.True(t, strings.HasSuffix(cell, constants.StringTruncationSuffix))
}

func TestSetConfigValue(t *testing.T) {
	t.Parallel()

	config := &Config{}

	require.NoError(t, setConfigValue(config, "api", "http://localhost:3000"))
	require.NoError(t, setConfigValue(config, "count_header", "X-Total-Count"))
	require.NoError(t, setConfigValue(config, "retry_max", "3"))
	require.NoError(t, setConfigValue(config, "rate_limit", "2.5"))
	require.NoError(t, setConfigValue(config, "debug", "true"))
	require.NoError(t, setConfigValue(config, "key", "authors=uuid"))
	require.NoError(t, setConfigValue(config, "header", "Authorization: Bearer t"))
	require.NoError(t, setConfigValue(config, "output", "yaml"))

	assert.Equal(t, &Config{
		API:         "http://localhost:3000",
		CountHeader: "X-Total-Count",
		RetryMax:    3,
		RateLimit:   2.5,
		Debug:       true,
		Keys:        map[string]string{"authors": "uuid"},
		Headers:     map[string]string{"Authorization": "Bearer t"},
		Output:      "yaml",
	}, config)

	require.ErrorIs(t, setConfigValue(config, "retry_max", "-1"), constants.ErrInvalidConfigValue)
	require.ErrorIs(t, setConfigValue(config, "verbose", "maybe"), constants.ErrInvalidConfigValue)
	require.ErrorIs(t, setConfigValue(config, "output", "xml"), constants.ErrUnknownOutputFmt)
	require.ErrorIs(t, setConfigValue(config, "colour", "red"), constants.ErrUnknownConfigKey)
}

func TestConfigRowsMaskAuthorization(t *testing.T) {
	t.Parallel()

	rows := configRows(&Config{Headers: map[string]string{"Authorization": "Bearer secret"}})

	var found bool

	for _, row := range rows {
		if row[0] == "Header Authorization" {
			found = true

			assert.Equal(t, "***", row[1])
		}
	}

	assert.True(t, found)
}

func TestWriteValueYAML(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	err := writeValue(&buf, constants.FormatYAML, provider.Record{"id": json.Number("7"), "name": "x"})
	require.NoError(t, err)
	assert.Equal(t, "id: 7\nname: x\n", buf.String())
}

func TestRenderRecords_Table(t *testing.T) {
	t.Parallel()

	cmd := &cobra.Command{}

	var buf bytes.Buffer
	cmd.SetOut(&buf)

	err := renderRecords(cmd, []provider.Record{{"id": 1, "title": "Hello"}}, 5)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "Hello")
	assert.Contains(t, buf.String(), "Showing 1 of 5")
}
