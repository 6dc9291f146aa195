// Package provider defines the uniform data-access contract and the types
// shared by its REST implementation.
//
// # Overview
//
// DataProvider exposes nine CRUD-style operations (GetList, GetOne, GetMany,
// GetManyReference, Create, Update, UpdateMany, Delete, DeleteMany) over
// resources identified by name. Records are plain maps that always carry an
// "id" field. The restclient package builds a DataProvider that speaks the
// "simple REST" dialect:
//
//	GetList     => GET    /posts?filter={}&range=[0,24]&sort=["title","ASC"]
//	GetOne      => GET    /posts/123
//	GetMany     => GET    /posts?filter={"id":[123,456,789]}
//	Create      => POST   /posts
//	Update      => PUT    /posts/123
//	Delete      => DELETE /posts/123
//
// # Getting a provider
//
//	dp, err := restclient.New(&provider.Config{
//	  APIURL:         "http://localhost:3000",
//	  KeysByResource: provider.IdentifierRemap{"posts": "key"},
//	  TransformsByResource: provider.ResponseTransforms{
//	    "posts": func(r provider.Record) provider.Record {
//	      r["slug"] = strings.ToLower(fmt.Sprint(r["title"]))
//	      return r
//	    },
//	  },
//	})
//	if err != nil { log.Fatal(err) }
//
//	page, err := dp.GetList(ctx, "posts", &provider.GetListParams{
//	  Pagination: provider.Pagination{Page: 1, PerPage: 25},
//	  Sort:       provider.Sort{Field: "title", Order: provider.SortASC},
//	})
//
// # Identifier remapping
//
// Backends that name their primary key something other than "id" are
// configured per resource with an IdentifierRemap. Outgoing payloads and
// filters have "id" renamed to the backend key, incoming records get the
// backend key renamed back to "id". A response record without the backend
// key fails with a *RemapError.
//
// # Errors
//
// List operations fail with a *CountHeaderError when the response lacks the
// configured count header. Errors from the HTTP client are returned as-is;
// the default client reports non-2xx statuses as *HTTPError, see IsNotFound,
// IsUnauthorized and IsForbidden.
package provider
