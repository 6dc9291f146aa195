package provider

import (
	"context"
	"net/http"
	"time"
)

// DefaultCountHeader is the response header carrying the total of a list.
const DefaultCountHeader = "Content-Range"

// DataProvider is the uniform data-access contract.
type DataProvider interface {
	GetList(ctx context.Context, resource string, params *GetListParams) (*ListResult, error)
	GetOne(ctx context.Context, resource string, params *GetOneParams) (*SingleResult, error)
	GetMany(ctx context.Context, resource string, params *GetManyParams) (*ManyResult, error)
	GetManyReference(ctx context.Context, resource string, params *GetManyReferenceParams) (*ListResult, error)
	Create(ctx context.Context, resource string, params *CreateParams) (*SingleResult, error)
	Update(ctx context.Context, resource string, params *UpdateParams) (*SingleResult, error)
	UpdateMany(ctx context.Context, resource string, params *UpdateManyParams) (*IdentifiersResult, error)
	Delete(ctx context.Context, resource string, params *DeleteParams) (*SingleResult, error)
	DeleteMany(ctx context.Context, resource string, params *DeleteManyParams) (*IdentifiersResult, error)
}

// FetchOptions describes a request handed to an HTTPClient. A nil Body means
// no request body is sent.
type FetchOptions struct {
	Method  string
	Headers http.Header
	Body    []byte
}

// FetchResponse is what an HTTPClient returns for a completed request.
// JSON holds the decoded body, or nil when the body is empty or not JSON.
type FetchResponse struct {
	Status  int
	Headers http.Header
	JSON    any
	Body    string
}

// HTTPClient performs a single request. Implementations decide what counts
// as a failure (the default client rejects non-2xx statuses); the provider
// only looks at whether an error was returned.
type HTTPClient interface {
	Fetch(ctx context.Context, url string, opts *FetchOptions) (*FetchResponse, error)
}

// HTTPClientFunc adapts a function to the HTTPClient interface.
type HTTPClientFunc func(ctx context.Context, url string, opts *FetchOptions) (*FetchResponse, error)

// Fetch calls f.
func (f HTTPClientFunc) Fetch(ctx context.Context, url string, opts *FetchOptions) (*FetchResponse, error) {
	return f(ctx, url, opts)
}

// Logger interface for logging.
type Logger interface {
	Debug(msg string, fields map[string]interface{})
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
}

// Config configures a REST data provider.
//
// Only APIURL is required. KeysByResource and TransformsByResource default to
// empty, CountHeader to "Content-Range". When HTTPClient is nil a default
// client is built from the transport settings below; those settings are
// ignored when a client is injected.
type Config struct {
	// APIURL is the bare base address of the API, e.g. "http://localhost:3000".
	APIURL string `json:"api_url" validate:"required,url"`

	// KeysByResource renames "id" to a backend key per resource.
	KeysByResource IdentifierRemap `json:"keys_by_resource"`

	// TransformsByResource post-processes fetched records per resource.
	TransformsByResource ResponseTransforms `json:"-"`

	// CountHeader names the response header holding list totals.
	CountHeader string `json:"count_header" validate:"omitempty,printascii,excludesall=:"`

	HTTPClient HTTPClient `json:"-"`
	Logger     Logger     `json:"-"`

	// Transport settings for the default HTTP client.
	UserAgent    string            `json:"user_agent"`
	Headers      map[string]string `json:"headers"`
	Timeout      time.Duration     `json:"timeout"        validate:"gte=0"`
	RetryMax     int               `json:"retry_max"      validate:"gte=0"`
	RetryWaitMin time.Duration     `json:"retry_wait_min" validate:"gte=0"`
	RetryWaitMax time.Duration     `json:"retry_wait_max" validate:"gte=0"`
	RateLimit    float64           `json:"rate_limit"     validate:"gte=0"`
	Debug        bool              `json:"debug"`
	RequestIDs   bool              `json:"request_ids"`
}
