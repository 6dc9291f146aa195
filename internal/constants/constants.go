package constants

import "time"

// File and directory permissions.
const (
	// ConfigDirPerm is the permission for configuration directories.
	ConfigDirPerm = 0750

	// ConfigFilePerm is the permission for configuration files.
	ConfigFilePerm = 0600
)

// HTTP and network timeouts.
const (
	// DefaultHTTPTimeout is the default timeout for HTTP requests.
	DefaultHTTPTimeout = 30 * time.Second

	// ShortHTTPTimeout is used for quick operations.
	ShortHTTPTimeout = 10 * time.Second

	// ServerReadHeaderTimeout bounds header reads on the fake server.
	ServerReadHeaderTimeout = 5 * time.Second

	// ServerShutdownTimeout bounds graceful shutdown of the fake server.
	ServerShutdownTimeout = 5 * time.Second
)

// Retry limits.
const (
	// DefaultRetryWaitMin is the minimum wait time between retries.
	DefaultRetryWaitMin = 1 * time.Second

	// DefaultRetryWaitMax is the maximum wait time between retries.
	DefaultRetryWaitMax = 10 * time.Second
)

// Rate limiting.
const (
	// DefaultRateBurst is the burst allowed by the client-side rate limiter.
	DefaultRateBurst = 5
)

// HTTP header names and values used by the simple REST dialect.
const (
	// HeaderContentRange carries "{resource} {start}-{end}/{total}".
	HeaderContentRange = "Content-Range"

	// HeaderRange carries "{resource}={start}-{end}".
	HeaderRange = "Range"

	// HeaderTotalCount is the common alternative count header.
	HeaderTotalCount = "X-Total-Count"

	// HeaderExposeHeaders lists headers readable by cross-origin callers.
	HeaderExposeHeaders = "Access-Control-Expose-Headers"

	// HeaderRequestID correlates client and server logs.
	HeaderRequestID = "X-Request-Id"

	// ContentTypeJSON is the JSON media type.
	ContentTypeJSON = "application/json"

	// ContentTypeText is sent on DELETE so empty bodies are not parsed as JSON.
	ContentTypeText = "text/plain"
)

// Query parameter names.
const (
	// QuerySort is the JSON [field, order] sort parameter.
	QuerySort = "sort"

	// QueryRange is the JSON [start, end] range parameter.
	QueryRange = "range"

	// QueryFilter is the JSON object filter parameter.
	QueryFilter = "filter"

	// FilterFullText is the filter key matched as a substring against all fields.
	FilterFullText = "q"
)

// Identifier field names.
const (
	// IDField is the uniform primary key field.
	IDField = "id"
)

// Pagination and display limits.
const (
	// DefaultPage is the first page.
	DefaultPage = 1

	// DefaultPageSize is the default number of items per page.
	DefaultPageSize = 10

	// MaxTableCellWidth truncates long values in table output.
	MaxTableCellWidth = 48

	// StringTruncationSuffix marks truncated values.
	StringTruncationSuffix = "..."
)

// Validation and limits.
const (
	// MinimumArgumentCount is the minimum number of command line arguments.
	MinimumArgumentCount = 2
)

// Format constants.
const (
	// FormatJSON for JSON output format.
	FormatJSON = "json"

	// FormatYAML for YAML output format.
	FormatYAML = "yaml"

	// FormatTable for table output format.
	FormatTable = "table"
)

// Sort order constants.
const (
	// SortOrderAsc is the ascending sort keyword.
	SortOrderAsc = "ASC"

	// SortOrderDesc is the descending sort keyword.
	SortOrderDesc = "DESC"
)
