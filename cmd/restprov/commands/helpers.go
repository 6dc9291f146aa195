package commands

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/term"
	"gopkg.in/yaml.v3"

	"github.com/fivetwenty-io/restprovider/internal/constants"
	"github.com/fivetwenty-io/restprovider/pkg/provider"
	"github.com/fivetwenty-io/restprovider/pkg/restclient"
)

// JSON formatting.
const defaultJSONIndent = 2

// newLogger builds a console logger on stderr. --debug enables debug level,
// --verbose info level; otherwise only warnings and errors are shown.
func newLogger() provider.Logger {
	level := zerolog.WarnLevel

	switch {
	case viper.GetBool("debug"):
		level = zerolog.DebugLevel
	case viper.GetBool("verbose"):
		level = zerolog.InfoLevel
	}

	zl := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).Level(level).With().Timestamp().Logger()

	return provider.NewZerologLogger(zl)
}

// newProvider creates a data provider from the loaded configuration.
func newProvider() (provider.DataProvider, error) {
	config := loadConfig()
	if config.API == "" {
		return nil, constants.ErrNoAPIConfigured
	}

	keys, err := parseKeyMappings(viper.GetStringSlice("key"))
	if err != nil {
		return nil, err
	}

	headers, err := parseHeaders(viper.GetStringSlice("header"))
	if err != nil {
		return nil, err
	}

	for resource, field := range config.Keys {
		if _, ok := keys[resource]; !ok {
			keys[resource] = field
		}
	}

	for name, value := range config.Headers {
		if _, ok := headers[name]; !ok {
			headers[name] = value
		}
	}

	dataProvider, err := restclient.New(&provider.Config{
		APIURL:         config.API,
		KeysByResource: keys,
		CountHeader:    config.CountHeader,
		Logger:         newLogger(),
		UserAgent:      config.UserAgent,
		Headers:        headers,
		RetryMax:       config.RetryMax,
		RateLimit:      config.RateLimit,
		Debug:          config.Debug,
		RequestIDs:     true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create data provider: %w", err)
	}

	return dataProvider, nil
}

// parseKeyMappings parses resource=field pairs.
func parseKeyMappings(pairs []string) (provider.IdentifierRemap, error) {
	keys := make(provider.IdentifierRemap, len(pairs))

	for _, pair := range pairs {
		resource, field, ok := strings.Cut(pair, "=")
		resource = strings.TrimSpace(resource)
		field = strings.TrimSpace(field)

		if !ok || resource == "" || field == "" {
			return nil, fmt.Errorf("%w: %q", constants.ErrInvalidKeyMapping, pair)
		}

		keys[resource] = field
	}

	return keys, nil
}

// parseHeaders parses "Name: value" pairs.
func parseHeaders(values []string) (map[string]string, error) {
	headers := make(map[string]string, len(values))

	for _, value := range values {
		name, content, ok := strings.Cut(value, ":")
		name = strings.TrimSpace(name)

		if !ok || name == "" {
			return nil, fmt.Errorf("%w: %q", constants.ErrInvalidHeaderValue, value)
		}

		headers[name] = strings.TrimSpace(content)
	}

	return headers, nil
}

// parseIdentifier turns integer arguments into numbers so they are sent to
// the backend as JSON numbers. Everything else stays a string.
func parseIdentifier(arg string) any {
	n, err := strconv.ParseInt(arg, 10, 64)
	if err != nil {
		return arg
	}

	return n
}

func parseIdentifiers(args []string) []any {
	ids := make([]any, 0, len(args))
	for _, arg := range args {
		ids = append(ids, parseIdentifier(arg))
	}

	return ids
}

// parseJSONObject decodes a JSON object, keeping numbers exact.
func parseJSONObject(raw string) (map[string]any, error) {
	decoder := json.NewDecoder(strings.NewReader(raw))
	decoder.UseNumber()

	var obj map[string]any

	err := decoder.Decode(&obj)
	if err != nil || obj == nil {
		return nil, fmt.Errorf("%w: %s", constants.ErrInvalidJSONObject, raw)
	}

	return obj, nil
}

// readRecordData returns the record given by --data or read from --file.
func readRecordData(data, file string) (provider.Record, error) {
	if data == "" && file != "" {
		content, err := os.ReadFile(file) // #nosec G304 -- path chosen by the user
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", file, err)
		}

		data = string(content)
	}

	if data == "" {
		return nil, constants.ErrDataRequired
	}

	obj, err := parseJSONObject(data)
	if err != nil {
		return nil, err
	}

	return obj, nil
}

// parseSortOrder normalizes asc/desc.
func parseSortOrder(order string) (provider.SortOrder, error) {
	switch strings.ToUpper(order) {
	case constants.SortOrderAsc:
		return provider.SortASC, nil
	case constants.SortOrderDesc:
		return provider.SortDESC, nil
	default:
		return "", fmt.Errorf("%w: %q", constants.ErrInvalidSortOrder, order)
	}
}

// outputFormat returns the requested format. Tables are only drawn on a
// terminal; piped output falls back to JSON.
func outputFormat(out io.Writer) (string, error) {
	format := strings.ToLower(viper.GetString("output"))
	if format == "" {
		format = constants.FormatTable
	}

	switch format {
	case constants.FormatJSON, constants.FormatYAML:
		return format, nil
	case constants.FormatTable:
		if file, ok := out.(*os.File); ok && !term.IsTerminal(int(file.Fd())) {
			return constants.FormatJSON, nil
		}

		return format, nil
	default:
		return "", fmt.Errorf("%w: %s", constants.ErrUnknownOutputFmt, format)
	}
}

// writeValue encodes value as JSON or YAML.
func writeValue(out io.Writer, format string, value any) error {
	switch format {
	case constants.FormatYAML:
		encoder := yaml.NewEncoder(out)
		defer func() {
			_ = encoder.Close()
		}()

		return encoder.Encode(normalizeForYAML(value))
	default:
		encoder := json.NewEncoder(out)
		encoder.SetIndent("", strings.Repeat(" ", defaultJSONIndent))

		return encoder.Encode(value)
	}
}

// normalizeForYAML round-trips value through JSON so json.Number and
// custom map types render as plain YAML scalars and mappings.
func normalizeForYAML(value any) any {
	raw, err := json.Marshal(value)
	if err != nil {
		return value
	}

	var out any

	err = yaml.Unmarshal(raw, &out)
	if err != nil {
		return value
	}

	return out
}

// renderRecords prints records in the selected format. total is shown
// under tables when non-negative.
func renderRecords(cmd *cobra.Command, records []provider.Record, total int) error {
	out := cmd.OutOrStdout()

	format, err := outputFormat(out)
	if err != nil {
		return err
	}

	if format != constants.FormatTable {
		if total >= 0 {
			return writeValue(out, format, map[string]any{"data": records, "total": total})
		}

		return writeValue(out, format, records)
	}

	if len(records) == 0 {
		_, _ = fmt.Fprintln(out, "No records found")

		return nil
	}

	columns := recordColumns(records)

	table := tablewriter.NewWriter(out)
	table.Header(toAny(columns)...)

	for _, record := range records {
		row := make([]any, 0, len(columns))
		for _, column := range columns {
			row = append(row, formatCell(record[column]))
		}

		_ = table.Append(row...)
	}

	err = table.Render()
	if err != nil {
		return fmt.Errorf("failed to render table: %w", err)
	}

	if total >= 0 {
		_, _ = fmt.Fprintf(out, "\nShowing %d of %d\n", len(records), total)
	}

	return nil
}

// renderRecord prints a single record; tables show one field per row.
func renderRecord(cmd *cobra.Command, record provider.Record) error {
	out := cmd.OutOrStdout()

	format, err := outputFormat(out)
	if err != nil {
		return err
	}

	if format != constants.FormatTable {
		return writeValue(out, format, record)
	}

	table := tablewriter.NewWriter(out)
	table.Header("Field", "Value")

	for _, column := range recordColumns([]provider.Record{record}) {
		_ = table.Append(column, formatCell(record[column]))
	}

	err = table.Render()
	if err != nil {
		return fmt.Errorf("failed to render table: %w", err)
	}

	return nil
}

// renderIdentifiers prints the identifiers returned by bulk operations.
func renderIdentifiers(cmd *cobra.Command, ids []any) error {
	out := cmd.OutOrStdout()

	format, err := outputFormat(out)
	if err != nil {
		return err
	}

	if format != constants.FormatTable {
		return writeValue(out, format, ids)
	}

	table := tablewriter.NewWriter(out)
	table.Header("ID")

	for _, id := range ids {
		_ = table.Append(formatCell(id))
	}

	err = table.Render()
	if err != nil {
		return fmt.Errorf("failed to render table: %w", err)
	}

	return nil
}

// recordColumns returns every field present in records, "id" first and the
// rest sorted.
func recordColumns(records []provider.Record) []string {
	seen := make(map[string]bool)

	var columns []string

	for _, record := range records {
		for field := range record {
			if field == constants.IDField || seen[field] {
				continue
			}

			seen[field] = true
			columns = append(columns, field)
		}
	}

	sort.Strings(columns)

	for _, record := range records {
		if _, ok := record[constants.IDField]; ok {
			return append([]string{constants.IDField}, columns...)
		}
	}

	return columns
}

func formatCell(value any) string {
	var text string

	switch typed := value.(type) {
	case nil:
		text = ""
	case string:
		text = typed
	case map[string]any, []any, provider.Record:
		var buf bytes.Buffer

		encoder := json.NewEncoder(&buf)
		encoder.SetEscapeHTML(false)
		_ = encoder.Encode(typed)
		text = strings.TrimSuffix(buf.String(), "\n")
	default:
		text = fmt.Sprint(typed)
	}

	return truncate(text, constants.MaxTableCellWidth)
}

func truncate(text string, width int) string {
	runes := []rune(text)
	if len(runes) <= width {
		return text
	}

	return string(runes[:width-len(constants.StringTruncationSuffix)]) + constants.StringTruncationSuffix
}

func toAny(values []string) []any {
	out := make([]any, len(values))
	for i, value := range values {
		out[i] = value
	}

	return out
}
