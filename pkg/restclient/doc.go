// Package restclient is the entry point for constructing a data provider
// that talks to a simple REST backend.
//
// It validates and normalizes a provider.Config, builds the default HTTP
// transport when none is injected, and returns a provider.DataProvider.
//
// Quick start
//
//	import (
//	  "context"
//	  "log"
//
//	  "github.com/fivetwenty-io/restprovider/pkg/provider"
//	  "github.com/fivetwenty-io/restprovider/pkg/restclient"
//	)
//
//	func example() {
//	  ctx := context.Background()
//
//	  dp, err := restclient.New(&provider.Config{
//	    APIURL:         "http://localhost:3000",
//	    KeysByResource: provider.IdentifierRemap{"authors": "uuid"},
//	    CountHeader:    "X-Total-Count",
//	  })
//	  if err != nil { log.Fatal(err) }
//
//	  posts, err := dp.GetList(ctx, "posts", &provider.GetListParams{
//	    Pagination: provider.Pagination{Page: 1, PerPage: 10},
//	    Sort:       provider.Sort{Field: "title", Order: provider.SortASC},
//	    Filter:     provider.Filter{"q": "go"},
//	  })
//	  if err != nil { log.Fatal(err) }
//
//	  log.Printf("%d of %d posts", len(posts.Data), posts.Total)
//	}
//
// Transport
//
// Without Config.HTTPClient the provider uses a retrying client built on
// go-retryablehttp with OpenTelemetry instrumentation. Retries are off until
// Config.RetryMax is set; Config.RateLimit caps requests per second.
// Inject any provider.HTTPClient (or a provider.HTTPClientFunc) to take over
// transport entirely; the transport settings are then ignored.
//
// Errors
//
// Transport errors are returned unchanged. With the default transport a
// non-2xx response is a *provider.HTTPError; use provider.IsNotFound and
// friends to inspect it.
package restclient
