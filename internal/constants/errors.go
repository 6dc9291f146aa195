package constants

import "errors"

// Configuration errors.
var (
	ErrNoAPIConfigured    = errors.New("no API URL configured, use --api or 'restprov config set api <url>'")
	ErrUnknownConfigKey   = errors.New("unknown configuration key")
	ErrInvalidKeyMapping  = errors.New("invalid key mapping, expected resource=field")
	ErrInvalidHeaderValue = errors.New("invalid header, expected Name: value")
	ErrInvalidConfigValue = errors.New("invalid configuration value")
)

// Input errors.
var (
	ErrInvalidJSONObject = errors.New("value must be a JSON object")
	ErrInvalidSortOrder  = errors.New("sort order must be ASC or DESC")
	ErrDataRequired      = errors.New("record data is required (use --data or --file)")
	ErrTargetRequired    = errors.New("--target and --id are required")
	ErrUnknownOutputFmt  = errors.New("unknown output format")
	ErrSeedNotObject     = errors.New("seed file must map resource names to lists of records")
	ErrSeedRecordNotMap  = errors.New("seed records must be objects")
	ErrInvalidPagination = errors.New("page and per-page must be positive")
	ErrInvalidQueryParam = errors.New("invalid list query parameter")
	ErrRecordNotFound    = errors.New("record not found")
)
