// Package http implements the default HTTP client used by the REST data
// provider: a fetch-and-parse-JSON helper with optional retries, rate
// limiting, tracing and request/response interceptors.
package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/time/rate"

	"github.com/fivetwenty-io/restprovider/internal/constants"
	"github.com/fivetwenty-io/restprovider/pkg/provider"
)

// Client fetches URLs and decodes JSON bodies. It implements
// provider.HTTPClient.
type Client struct {
	httpClient *retryablehttp.Client
	chain      *InterceptorChain
	logger     provider.Logger
	headers    map[string]string
	userAgent  string
	debug      bool
	requestIDs bool
	limiter    *rate.Limiter
}

// Option configures a Client.
type Option func(*Client)

// WithLogger sets the logger.
func WithLogger(logger provider.Logger) Option {
	return func(c *Client) {
		c.logger = logger
		c.httpClient.Logger = &leveledLogger{logger: logger}
	}
}

// WithDebug enables request and response logging.
func WithDebug(debug bool) Option {
	return func(c *Client) {
		c.debug = debug
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(userAgent string) Option {
	return func(c *Client) {
		c.userAgent = userAgent
	}
}

// WithHeaders adds headers sent with every request. Headers given per
// request take precedence.
func WithHeaders(headers map[string]string) Option {
	return func(c *Client) {
		c.headers = headers
	}
}

// WithTimeout sets the overall timeout of a single attempt.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.httpClient.HTTPClient.Timeout = timeout
	}
}

// WithRetryConfig enables retries on connection errors, 429 and 5xx.
func WithRetryConfig(retryMax int, waitMin, waitMax time.Duration) Option {
	return func(c *Client) {
		c.httpClient.RetryMax = retryMax
		c.httpClient.RetryWaitMin = waitMin
		c.httpClient.RetryWaitMax = waitMax
	}
}

// WithRateLimit caps the request rate at requestsPerSecond with the given burst.
func WithRateLimit(requestsPerSecond float64, burst int) Option {
	return func(c *Client) {
		if requestsPerSecond <= 0 {
			return
		}

		if burst <= 0 {
			burst = constants.DefaultRateBurst
		}

		c.limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), burst)
	}
}

// WithRequestIDs tags every request with a fresh X-Request-Id.
func WithRequestIDs(enabled bool) Option {
	return func(c *Client) {
		c.requestIDs = enabled
	}
}

// WithHTTPClient replaces the underlying *http.Client. Its transport is
// wrapped for tracing.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		if httpClient.Transport == nil {
			httpClient.Transport = http.DefaultTransport
		}

		httpClient.Transport = otelhttp.NewTransport(httpClient.Transport)
		c.httpClient.HTTPClient = httpClient
	}
}

// WithRequestInterceptor appends a request interceptor.
func WithRequestInterceptor(interceptor RequestInterceptor) Option {
	return func(c *Client) {
		c.chain.AddRequestInterceptor(interceptor)
	}
}

// WithResponseInterceptor appends a response interceptor.
func WithResponseInterceptor(interceptor ResponseInterceptor) Option {
	return func(c *Client) {
		c.chain.AddResponseInterceptor(interceptor)
	}
}

// NewClient creates a Client. Retries are off unless WithRetryConfig is given.
func NewClient(opts ...Option) *Client {
	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = 0
	retryClient.RetryWaitMin = constants.DefaultRetryWaitMin
	retryClient.RetryWaitMax = constants.DefaultRetryWaitMax
	retryClient.Logger = nil
	retryClient.ErrorHandler = retryablehttp.PassthroughErrorHandler
	retryClient.HTTPClient.Timeout = constants.DefaultHTTPTimeout
	retryClient.HTTPClient.Transport = otelhttp.NewTransport(retryClient.HTTPClient.Transport)

	client := &Client{
		httpClient: retryClient,
		chain:      NewInterceptorChain(),
	}

	for _, opt := range opts {
		opt(client)
	}

	client.installInterceptors()

	return client
}

// installInterceptors puts the built-in interceptors ahead of user ones.
func (c *Client) installInterceptors() {
	builtin := NewInterceptorChain()

	if c.limiter != nil {
		builtin.AddRequestInterceptor(RateLimitInterceptor(c.limiter))
	}

	if len(c.headers) > 0 {
		builtin.AddRequestInterceptor(HeaderInterceptor(c.headers))
	}

	if c.requestIDs {
		builtin.AddRequestInterceptor(RequestIDInterceptor())
	}

	if c.debug && c.logger != nil {
		builtin.AddRequestInterceptor(LoggingInterceptor(c.logger))
		builtin.AddResponseInterceptor(LoggingResponseInterceptor(c.logger))
	}

	builtin.requestInterceptors = append(builtin.requestInterceptors, c.chain.requestInterceptors...)
	builtin.responseInterceptors = append(builtin.responseInterceptors, c.chain.responseInterceptors...)
	c.chain = builtin
}

// Fetch performs the request and decodes the body. Non-2xx responses are
// returned together with a *provider.HTTPError.
func (c *Client) Fetch(ctx context.Context, url string, opts *provider.FetchOptions) (*provider.FetchResponse, error) {
	req := newRequest(url, opts)

	if c.userAgent != "" {
		req.Headers.Set("User-Agent", c.userAgent)
	}

	err := c.chain.ExecuteRequestInterceptors(ctx, req)
	if err != nil {
		return nil, err
	}

	httpReq, err := retryablehttp.NewRequestWithContext(ctx, req.Method, req.URL, bodyOf(req.Body))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	httpReq.Header = req.Headers

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		resp := &Response{Error: err}
		_ = c.chain.ExecuteResponseInterceptors(ctx, req, resp)

		return nil, fmt.Errorf("executing request: %w", err)
	}

	defer func() {
		_ = httpResp.Body.Close()
	}()

	raw, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}

	resp := &Response{
		StatusCode: httpResp.StatusCode,
		Headers:    httpResp.Header,
		Body:       raw,
	}

	err = c.chain.ExecuteResponseInterceptors(ctx, req, resp)
	if err != nil {
		return nil, err
	}

	result := &provider.FetchResponse{
		Status:  resp.StatusCode,
		Headers: resp.Headers,
		JSON:    decodeJSON(resp.Body),
		Body:    string(resp.Body),
	}

	if result.Status < http.StatusOK || result.Status >= http.StatusMultipleChoices {
		return result, provider.NewHTTPError(result.Status, result.Body, result.JSON)
	}

	return result, nil
}

func newRequest(url string, opts *provider.FetchOptions) *Request {
	req := &Request{
		Method:  http.MethodGet,
		URL:     url,
		Headers: make(http.Header),
	}

	if opts != nil {
		if opts.Method != "" {
			req.Method = strings.ToUpper(opts.Method)
		}

		if opts.Headers != nil {
			req.Headers = opts.Headers.Clone()
		}

		req.Body = opts.Body
	}

	if req.Headers.Get("Accept") == "" {
		req.Headers.Set("Accept", constants.ContentTypeJSON)
	}

	if req.Body != nil && req.Headers.Get("Content-Type") == "" {
		req.Headers.Set("Content-Type", constants.ContentTypeJSON)
	}

	return req
}

func bodyOf(body []byte) interface{} {
	if body == nil {
		return nil
	}

	return bytes.NewReader(body)
}

// decodeJSON parses body keeping numbers exact; non-JSON bodies yield nil.
func decodeJSON(body []byte) any {
	if len(bytes.TrimSpace(body)) == 0 {
		return nil
	}

	decoder := json.NewDecoder(bytes.NewReader(body))
	decoder.UseNumber()

	var value any

	err := decoder.Decode(&value)
	if err != nil {
		return nil
	}

	return value
}

// leveledLogger adapts provider.Logger to retryablehttp.LeveledLogger.
type leveledLogger struct {
	logger provider.Logger
}

func (l *leveledLogger) Error(msg string, keysAndValues ...interface{}) {
	l.logger.Error(msg, toFields(keysAndValues))
}

func (l *leveledLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Info(msg, toFields(keysAndValues))
}

func (l *leveledLogger) Debug(msg string, keysAndValues ...interface{}) {
	l.logger.Debug(msg, toFields(keysAndValues))
}

func (l *leveledLogger) Warn(msg string, keysAndValues ...interface{}) {
	l.logger.Warn(msg, toFields(keysAndValues))
}

func toFields(keysAndValues []interface{}) map[string]interface{} {
	fields := make(map[string]interface{}, len(keysAndValues)/2)

	for i := 0; i+1 < len(keysAndValues); i += 2 {
		fields[fmt.Sprint(keysAndValues[i])] = keysAndValues[i+1]
	}

	return fields
}
