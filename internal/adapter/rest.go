// Package adapter maps the uniform data-provider operations onto the simple
// REST dialect: sort/range/filter query parameters, Range/Content-Range
// pagination headers and per-resource primary key renaming.
package adapter

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/fivetwenty-io/restprovider/internal/constants"
	internalhttp "github.com/fivetwenty-io/restprovider/internal/http"
	"github.com/fivetwenty-io/restprovider/pkg/provider"
)

const tracerName = "github.com/fivetwenty-io/restprovider/internal/adapter"

// RestAdapter implements provider.DataProvider. It holds no mutable state
// and is safe for concurrent use.
type RestAdapter struct {
	apiURL      string
	keys        provider.IdentifierRemap
	transforms  provider.ResponseTransforms
	httpClient  provider.HTTPClient
	countHeader string
	logger      provider.Logger
	tracer      trace.Tracer
}

// New creates a RestAdapter. A nil config.HTTPClient is replaced by the
// default client built from the config's transport settings.
func New(config *provider.Config) (*RestAdapter, error) {
	if config == nil {
		return nil, provider.ErrConfigRequired
	}

	if config.APIURL == "" {
		return nil, provider.ErrAPIURLRequired
	}

	logger := config.Logger
	if logger == nil {
		logger = provider.NewNopLogger()
	}

	httpClient := config.HTTPClient
	if httpClient == nil {
		httpClient = internalhttp.NewClient(httpOptions(config, logger)...)
	}

	countHeader := config.CountHeader
	if countHeader == "" {
		countHeader = provider.DefaultCountHeader
	}

	return &RestAdapter{
		apiURL:      config.APIURL,
		keys:        maps.Clone(config.KeysByResource),
		transforms:  maps.Clone(config.TransformsByResource),
		httpClient:  httpClient,
		countHeader: countHeader,
		logger:      logger,
		tracer:      otel.Tracer(tracerName),
	}, nil
}

// httpOptions translates transport settings into default client options.
func httpOptions(config *provider.Config, logger provider.Logger) []internalhttp.Option {
	opts := []internalhttp.Option{
		internalhttp.WithLogger(logger),
		internalhttp.WithDebug(config.Debug),
		internalhttp.WithRequestIDs(config.RequestIDs),
	}

	if config.UserAgent != "" {
		opts = append(opts, internalhttp.WithUserAgent(config.UserAgent))
	}

	if len(config.Headers) > 0 {
		opts = append(opts, internalhttp.WithHeaders(config.Headers))
	}

	if config.Timeout > 0 {
		opts = append(opts, internalhttp.WithTimeout(config.Timeout))
	}

	if config.RetryMax > 0 {
		waitMin := constants.DefaultRetryWaitMin
		waitMax := constants.DefaultRetryWaitMax

		if config.RetryWaitMin > 0 {
			waitMin = config.RetryWaitMin
		}

		if config.RetryWaitMax > 0 {
			waitMax = config.RetryWaitMax
		}

		opts = append(opts, internalhttp.WithRetryConfig(config.RetryMax, waitMin, waitMax))
	}

	if config.RateLimit > 0 {
		opts = append(opts, internalhttp.WithRateLimit(config.RateLimit, constants.DefaultRateBurst))
	}

	return opts
}

// KeysByResource returns a copy of the identifier remap table.
func (a *RestAdapter) KeysByResource() provider.IdentifierRemap {
	return maps.Clone(a.keys)
}

// TransformsByResource returns a copy of the response transform table.
func (a *RestAdapter) TransformsByResource() provider.ResponseTransforms {
	return maps.Clone(a.transforms)
}

// CountHeader returns the header list totals are read from.
func (a *RestAdapter) CountHeader() string {
	return a.countHeader
}

// GetList implements provider.DataProvider.GetList.
func (a *RestAdapter) GetList(ctx context.Context, resource string, params *provider.GetListParams) (result *provider.ListResult, err error) {
	ctx, span := a.startSpan(ctx, "GetList", resource)
	defer func() { endSpan(span, err) }()

	if params == nil {
		return nil, provider.ErrParamsRequired
	}

	key := a.keys[resource]

	return a.fetchList(ctx, resource, params.Pagination, params.Sort, rekeyFilter(params.Filter, key))
}

// GetOne implements provider.DataProvider.GetOne.
func (a *RestAdapter) GetOne(ctx context.Context, resource string, params *provider.GetOneParams) (result *provider.SingleResult, err error) {
	ctx, span := a.startSpan(ctx, "GetOne", resource)
	defer func() { endSpan(span, err) }()

	if params == nil {
		return nil, provider.ErrParamsRequired
	}

	resourceURL, err := a.recordURL(resource, params.ID)
	if err != nil {
		return nil, err
	}

	resp, err := a.fetch(ctx, resourceURL, &provider.FetchOptions{Method: http.MethodGet})
	if err != nil {
		return nil, err
	}

	record, err := a.decodeRecord(resource, resp.JSON)
	if err != nil {
		return nil, err
	}

	return &provider.SingleResult{Data: record}, nil
}

// GetMany implements provider.DataProvider.GetMany.
func (a *RestAdapter) GetMany(ctx context.Context, resource string, params *provider.GetManyParams) (result *provider.ManyResult, err error) {
	ctx, span := a.startSpan(ctx, "GetMany", resource)
	defer func() { endSpan(span, err) }()

	if params == nil {
		return nil, provider.ErrParamsRequired
	}

	ids := params.IDs
	if ids == nil {
		ids = []any{}
	}

	filterParam, err := marshalParam(map[string]any{a.idKey(resource): ids})
	if err != nil {
		return nil, err
	}

	collectionURL, err := a.collectionURL(resource)
	if err != nil {
		return nil, err
	}

	resp, err := a.fetch(ctx, collectionURL+"?"+encodeQuery(map[string]string{constants.QueryFilter: filterParam}),
		&provider.FetchOptions{Method: http.MethodGet})
	if err != nil {
		return nil, err
	}

	records, err := a.decodeRecords(resource, resp.JSON)
	if err != nil {
		return nil, err
	}

	return &provider.ManyResult{Data: records}, nil
}

// GetManyReference implements provider.DataProvider.GetManyReference.
func (a *RestAdapter) GetManyReference(ctx context.Context, resource string, params *provider.GetManyReferenceParams) (result *provider.ListResult, err error) {
	ctx, span := a.startSpan(ctx, "GetManyReference", resource)
	defer func() { endSpan(span, err) }()

	if params == nil {
		return nil, provider.ErrParamsRequired
	}

	if params.Target == "" {
		return nil, provider.ErrTargetRequired
	}

	filter := maps.Clone(rekeyFilter(params.Filter, a.keys[resource]))
	if filter == nil {
		filter = provider.Filter{}
	}

	filter[params.Target] = params.ID

	return a.fetchList(ctx, resource, params.Pagination, params.Sort, filter)
}

// Create implements provider.DataProvider.Create. The result is the
// submitted data with the identifier the server assigned.
func (a *RestAdapter) Create(ctx context.Context, resource string, params *provider.CreateParams) (result *provider.SingleResult, err error) {
	ctx, span := a.startSpan(ctx, "Create", resource)
	defer func() { endSpan(span, err) }()

	if params == nil {
		return nil, provider.ErrParamsRequired
	}

	body, err := marshalParam(rekeyPayload(params.Data, a.keys[resource]))
	if err != nil {
		return nil, err
	}

	collectionURL, err := a.collectionURL(resource)
	if err != nil {
		return nil, err
	}

	resp, err := a.fetch(ctx, collectionURL, &provider.FetchOptions{
		Method: http.MethodPost,
		Body:   []byte(body),
	})
	if err != nil {
		return nil, err
	}

	id, err := a.identifier(resource, resp.JSON)
	if err != nil {
		return nil, err
	}

	data := maps.Clone(params.Data)
	if data == nil {
		data = provider.Record{}
	}

	data[constants.IDField] = id

	return &provider.SingleResult{Data: data}, nil
}

// Update implements provider.DataProvider.Update.
func (a *RestAdapter) Update(ctx context.Context, resource string, params *provider.UpdateParams) (result *provider.SingleResult, err error) {
	ctx, span := a.startSpan(ctx, "Update", resource)
	defer func() { endSpan(span, err) }()

	if params == nil {
		return nil, provider.ErrParamsRequired
	}

	resp, err := a.put(ctx, resource, params.ID, params.Data)
	if err != nil {
		return nil, err
	}

	record, err := a.decodeRecord(resource, resp.JSON)
	if err != nil {
		return nil, err
	}

	return &provider.SingleResult{Data: record}, nil
}

// UpdateMany implements provider.DataProvider.UpdateMany with one PUT per
// identifier, since the dialect has no bulk update route.
func (a *RestAdapter) UpdateMany(ctx context.Context, resource string, params *provider.UpdateManyParams) (result *provider.IdentifiersResult, err error) {
	ctx, span := a.startSpan(ctx, "UpdateMany", resource)
	defer func() { endSpan(span, err) }()

	if params == nil {
		return nil, provider.ErrParamsRequired
	}

	responses, err := fanOut(ctx, params.IDs, func(ctx context.Context, id any) (*provider.FetchResponse, error) {
		return a.put(ctx, resource, id, params.Data)
	})
	if err != nil {
		return nil, err
	}

	return a.identifiers(resource, responses)
}

// Delete implements provider.DataProvider.Delete.
func (a *RestAdapter) Delete(ctx context.Context, resource string, params *provider.DeleteParams) (result *provider.SingleResult, err error) {
	ctx, span := a.startSpan(ctx, "Delete", resource)
	defer func() { endSpan(span, err) }()

	if params == nil {
		return nil, provider.ErrParamsRequired
	}

	resp, err := a.delete(ctx, resource, params.ID)
	if err != nil {
		return nil, err
	}

	record, err := a.decodeRecord(resource, resp.JSON)
	if err != nil {
		return nil, err
	}

	return &provider.SingleResult{Data: record}, nil
}

// DeleteMany implements provider.DataProvider.DeleteMany with one DELETE per
// identifier, since the dialect does not filter on the DELETE route.
func (a *RestAdapter) DeleteMany(ctx context.Context, resource string, params *provider.DeleteManyParams) (result *provider.IdentifiersResult, err error) {
	ctx, span := a.startSpan(ctx, "DeleteMany", resource)
	defer func() { endSpan(span, err) }()

	if params == nil {
		return nil, provider.ErrParamsRequired
	}

	responses, err := fanOut(ctx, params.IDs, func(ctx context.Context, id any) (*provider.FetchResponse, error) {
		return a.delete(ctx, resource, id)
	})
	if err != nil {
		return nil, err
	}

	return a.identifiers(resource, responses)
}

// fetchList is shared by GetList and GetManyReference; filter is already remapped.
func (a *RestAdapter) fetchList(ctx context.Context, resource string, pagination provider.Pagination, sortBy provider.Sort, filter provider.Filter) (*provider.ListResult, error) {
	if pagination.Page < 1 || pagination.PerPage < 1 {
		return nil, fmt.Errorf("%w: page=%d perPage=%d", provider.ErrNonPositivePage, pagination.Page, pagination.PerPage)
	}

	key := a.keys[resource]
	if key != "" && sortBy.Field == constants.IDField {
		sortBy.Field = key
	}

	if filter == nil {
		filter = provider.Filter{}
	}

	rangeStart, rangeEnd := pagination.Range()

	query, err := listQuery(sortBy, rangeStart, rangeEnd, filter)
	if err != nil {
		return nil, err
	}

	collectionURL, err := a.collectionURL(resource)
	if err != nil {
		return nil, err
	}

	opts := &provider.FetchOptions{Method: http.MethodGet}

	// Some browsers drop Content-Range from the response unless Range was sent.
	if isContentRange(a.countHeader) {
		opts.Headers = http.Header{}
		opts.Headers.Set(constants.HeaderRange, fmt.Sprintf("%s=%d-%d", resource, rangeStart, rangeEnd))
	}

	resp, err := a.fetch(ctx, collectionURL+"?"+encodeQuery(query), opts)
	if err != nil {
		return nil, err
	}

	total, err := parseTotal(resp.Headers, a.countHeader)
	if err != nil {
		return nil, err
	}

	records, err := a.decodeRecords(resource, resp.JSON)
	if err != nil {
		return nil, err
	}

	return &provider.ListResult{Data: records, Total: total}, nil
}

func (a *RestAdapter) put(ctx context.Context, resource string, id any, data provider.Record) (*provider.FetchResponse, error) {
	body, err := marshalParam(rekeyPayload(data, a.keys[resource]))
	if err != nil {
		return nil, err
	}

	resourceURL, err := a.recordURL(resource, id)
	if err != nil {
		return nil, err
	}

	return a.fetch(ctx, resourceURL, &provider.FetchOptions{
		Method: http.MethodPut,
		Body:   []byte(body),
	})
}

func (a *RestAdapter) delete(ctx context.Context, resource string, id any) (*provider.FetchResponse, error) {
	resourceURL, err := a.recordURL(resource, id)
	if err != nil {
		return nil, err
	}

	headers := http.Header{}
	headers.Set("Content-Type", constants.ContentTypeText)

	return a.fetch(ctx, resourceURL, &provider.FetchOptions{
		Method:  http.MethodDelete,
		Headers: headers,
	})
}

// fetch delegates to the HTTP client. Its errors are returned unchanged.
func (a *RestAdapter) fetch(ctx context.Context, target string, opts *provider.FetchOptions) (*provider.FetchResponse, error) {
	a.logger.Debug("provider request", map[string]interface{}{
		"method": opts.Method,
		"url":    target,
	})

	resp, err := a.httpClient.Fetch(ctx, target, opts)
	if err != nil {
		return nil, err
	}

	if resp == nil {
		return nil, fmt.Errorf("%w: no response for %s %s", provider.ErrUnexpectedResponse, opts.Method, target)
	}

	return resp, nil
}

func (a *RestAdapter) collectionURL(resource string) (string, error) {
	if resource == "" {
		return "", provider.ErrResourceRequired
	}

	return a.apiURL + "/" + resource, nil
}

func (a *RestAdapter) recordURL(resource string, id any) (string, error) {
	collectionURL, err := a.collectionURL(resource)
	if err != nil {
		return "", err
	}

	return collectionURL + "/" + url.PathEscape(formatID(id)), nil
}

// formatID renders id for a URL path. Whole floats, as produced by a plain
// json.Unmarshal, are written without an exponent.
func formatID(id any) string {
	switch typed := id.(type) {
	case float64:
		return strconv.FormatFloat(typed, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(typed), 'f', -1, 32)
	default:
		return fmt.Sprint(id)
	}
}

// idKey is the backend primary key field of resource.
func (a *RestAdapter) idKey(resource string) string {
	if key := a.keys[resource]; key != "" {
		return key
	}

	return constants.IDField
}

// decodeRecord turns a single-record response into a uniform record. A null
// body (e.g. 204 No Content) passes through as a nil record unless the
// resource is remapped, in which case the missing key is a RemapError.
func (a *RestAdapter) decodeRecord(resource string, value any) (provider.Record, error) {
	if value == nil {
		if a.keys[resource] == "" {
			return nil, nil
		}

		_, err := rekeyRecord(resource, nil, a.keys[resource])
		a.logRemapError(err)

		return nil, err
	}

	record, err := asRecord(value)
	if err != nil {
		return nil, err
	}

	record, err = rekeyRecord(resource, record, a.keys[resource])
	if err != nil {
		a.logRemapError(err)

		return nil, err
	}

	return transformRecord(record, a.transforms[resource]), nil
}

func (a *RestAdapter) decodeRecords(resource string, value any) ([]provider.Record, error) {
	records, err := asRecords(value)
	if err != nil {
		return nil, err
	}

	records, err = rekeyRecords(resource, records, a.keys[resource])
	if err != nil {
		a.logRemapError(err)

		return nil, err
	}

	return transformRecords(records, a.transforms[resource]), nil
}

func (a *RestAdapter) identifier(resource string, value any) (any, error) {
	id, err := identifierOf(resource, value, a.idKey(resource))
	if err != nil {
		a.logRemapError(err)

		return nil, err
	}

	return id, nil
}

func (a *RestAdapter) identifiers(resource string, responses []*provider.FetchResponse) (*provider.IdentifiersResult, error) {
	ids := make([]any, len(responses))

	for i, resp := range responses {
		id, err := a.identifier(resource, resp.JSON)
		if err != nil {
			return nil, err
		}

		ids[i] = id
	}

	return &provider.IdentifiersResult{Data: ids}, nil
}

func (a *RestAdapter) logRemapError(err error) {
	remapErr := &provider.RemapError{}
	if !errors.As(err, &remapErr) {
		return
	}

	a.logger.Error("unhandled identifier remap scenario", map[string]interface{}{
		"resource": remapErr.Resource,
		"key":      remapErr.Key,
		"record":   remapErr.Value,
	})
}

func (a *RestAdapter) startSpan(ctx context.Context, operation, resource string) (context.Context, trace.Span) {
	return a.tracer.Start(ctx, "provider."+operation,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attribute.String("provider.resource", resource)),
	)
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, strings.SplitN(err.Error(), "\n", 2)[0])
	}

	span.End()
}

// fanOut issues do for every id concurrently and returns the responses in
// id order. The first failure cancels the context handed to the others.
func fanOut(ctx context.Context, ids []any, do func(ctx context.Context, id any) (*provider.FetchResponse, error)) ([]*provider.FetchResponse, error) {
	group, groupCtx := errgroup.WithContext(ctx)
	responses := make([]*provider.FetchResponse, len(ids))

	for i, id := range ids {
		group.Go(func() error {
			resp, err := do(groupCtx, id)
			if err != nil {
				return err
			}

			responses[i] = resp

			return nil
		})
	}

	err := group.Wait()
	if err != nil {
		return nil, err
	}

	return responses, nil
}
